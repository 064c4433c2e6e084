package library

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime settings. Every field maps to an environment
// variable; a .env file in the working directory is honored when present.
type Config struct {
	DataDir     string        // where the CSV collections live
	LoanDays    int           // checkout period in days
	LockTimeout time.Duration // bounded wait for collection locks

	SMTPHost       string
	SMTPPort       string
	SenderEmail    string
	SenderPassword string

	AdminUsername     string
	AdminPasswordHash string // bcrypt hash
}

// LoadConfig reads configuration from the environment. Missing optional
// values fall back to defaults; mail and admin settings may stay empty, in
// which case the features that need them refuse with a clear error.
func LoadConfig() Config {
	// Best effort; absence of a .env file is normal.
	_ = godotenv.Load()

	return Config{
		DataDir:           getenv("LIBRARY_DATA_DIR", "data"),
		LoanDays:          getenvInt("LIBRARY_LOAN_DAYS", 14),
		LockTimeout:       getenvDuration("LIBRARY_LOCK_TIMEOUT", 5*time.Second),
		SMTPHost:          getenv("LIBRARY_SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:          getenv("LIBRARY_SMTP_PORT", "587"),
		SenderEmail:       os.Getenv("LIBRARY_EMAIL"),
		SenderPassword:    os.Getenv("LIBRARY_EMAIL_PASSWORD"),
		AdminUsername:     os.Getenv("ADMIN_USERNAME"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
