package domain

type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleManager       Role = "manager"
	RoleClerk         Role = "clerk"
	RoleGuest         Role = "guest"
)

func (r Role) String() string {
	return string(r)
}
