package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	HTTPAddr        string
	MySQLDSN        string
	RedisAddr       string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogLevel        string
}

// Load reads configuration from the environment, with an optional .env file.
// RedisAddr may be empty, in which case the duplicate-submission guard is
// disabled.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		MySQLDSN:        getenv("MYSQL_DSN", "root:root@tcp(localhost:3306)/retailpos?parseTime=true&multiStatements=true"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		MaxOpenConns:    getenvInt("DB_MAX_OPEN_CONNS", 50),
		MaxIdleConns:    getenvInt("DB_MAX_IDLE_CONNS", 25),
		ConnMaxLifetime: 5 * time.Minute,
		LogLevel:        getenv("LOG_LEVEL", "info"),
	}
}

func NewLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
