package port

import "context"

type CacheRepository interface {
	// SetIdempotency sets a key for duplicate-submission detection, returns
	// false if the key already exists.
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// ReleaseIdempotency deletes a key claimed by SetIdempotency so a retry
	// of a failed request is not reported as a duplicate.
	ReleaseIdempotency(ctx context.Context, key string) error
}
