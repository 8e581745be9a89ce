package config

import (
	"errors"
	"os"
)

// Config holds all process-level settings. It is loaded once in main and
// passed explicitly to the components that need it.
type Config struct {
	Port string

	DatabaseDSN string

	// JWT signing secrets. Both are required: token issuance and validation
	// must not silently fall back to a default key.
	JWTSecret        []byte
	JWTRefreshSecret []byte

	// AdminEmail is the one distinguished address granted the admin role at
	// registration time.
	AdminEmail string

	// Outbound SMTP settings for OTP delivery.
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string
}

// Load reads the configuration from environment variables. Missing JWT
// secrets are a fatal configuration error, not a per-request failure.
func Load() (*Config, error) {
	jwtSecret := os.Getenv("JWT_SECRET")
	jwtRefreshSecret := os.Getenv("JWT_REFRESH_SECRET")
	if jwtSecret == "" || jwtRefreshSecret == "" {
		return nil, errors.New("JWT_SECRET and JWT_REFRESH_SECRET must be set")
	}

	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		return nil, errors.New("ADMIN_EMAIL must be set")
	}

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		DatabaseDSN:      buildDSN(),
		JWTSecret:        []byte(jwtSecret),
		JWTRefreshSecret: []byte(jwtRefreshSecret),
		AdminEmail:       adminEmail,
		SMTPHost:         getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:         587,
		SMTPUser:         os.Getenv("EMAIL_USER"),
		SMTPPassword:     os.Getenv("EMAIL_PASS"),
		MailFrom:         getEnv("MAIL_FROM", os.Getenv("EMAIL_USER")),
	}

	return cfg, nil
}

func buildDSN() string {
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postgres")
	password := getEnv("DB_PASSWORD", "postgres")
	name := getEnv("DB_NAME", "postgres")
	sslMode := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + password + "@" + host + ":" + port + "/" + name + "?sslmode=" + sslMode
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
