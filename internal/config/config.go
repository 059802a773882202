package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for our application
type Config struct {
	Port                      string
	Origin                    string
	Environment               string
	LogLevel                  string
	JWTSecret                 string
	JWTRefreshSecret          string
	Database                  DatabaseConfig
	Mailer                    MailerConfig
	Queue                     QueueConfig
	Reminder                  ReminderConfig
	JWTExpirationMinutes      int
	JWTRefreshExpirationHours int
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
}

// MailerConfig holds email delivery configuration
type MailerConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
}

// QueueConfig holds the token queue settings
type QueueConfig struct {
	ShiftCapacity         int // max tokens issued per (doctor, date, shift)
	NearWindow            int // how many upcoming patients get a "your turn is near" notice
	DefaultConsultMinutes int // fallback when a doctor has no configured average
}

// ReminderConfig holds the reminder poller settings
type ReminderConfig struct {
	PollInterval time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load database configuration
	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "3306"),
		Username: getEnv("DB_USERNAME", "root"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "clinicq"),
	}

	// Build DSN (Data Source Name) for MySQL connection
	dbConfig.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		dbConfig.Username, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name)

	mailerConfig := MailerConfig{
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		FromEmail:      getEnv("MAILER_FROM_EMAIL", "no-reply@clinicq.local"),
		FromName:       getEnv("MAILER_FROM_NAME", "ClinicQ"),
	}

	jwtExpMinutes, err := strconv.Atoi(getEnv("JWT_EXPIRATION_MINUTES", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION_MINUTES: %w", err)
	}

	jwtRefreshExpHours, err := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRATION_HOURS", "168")) // 7 days
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_REFRESH_EXPIRATION_HOURS: %w", err)
	}

	shiftCapacity, err := strconv.Atoi(getEnv("QUEUE_SHIFT_CAPACITY", "50"))
	if err != nil {
		return nil, fmt.Errorf("invalid QUEUE_SHIFT_CAPACITY: %w", err)
	}

	nearWindow, err := strconv.Atoi(getEnv("QUEUE_NEAR_WINDOW", "2"))
	if err != nil {
		return nil, fmt.Errorf("invalid QUEUE_NEAR_WINDOW: %w", err)
	}

	consultMinutes, err := strconv.Atoi(getEnv("QUEUE_DEFAULT_CONSULT_MINUTES", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid QUEUE_DEFAULT_CONSULT_MINUTES: %w", err)
	}

	pollSeconds, err := strconv.Atoi(getEnv("REMINDER_POLL_SECONDS", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid REMINDER_POLL_SECONDS: %w", err)
	}

	// Return complete configuration
	return &Config{
		Port:             getEnv("PORT", "3001"),
		Origin:           getEnv("ORIGIN", "http://localhost:4200"),
		Environment:      getEnv("APP_ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		JWTSecret:        getEnv("JWT_SECRET", "default_jwt_secret"),
		JWTRefreshSecret: getEnv("JWT_REFRESH_SECRET", "default_refresh_secret"),
		Database:         dbConfig,
		Mailer:           mailerConfig,
		Queue: QueueConfig{
			ShiftCapacity:         shiftCapacity,
			NearWindow:            nearWindow,
			DefaultConsultMinutes: consultMinutes,
		},
		Reminder: ReminderConfig{
			PollInterval: time.Duration(pollSeconds) * time.Second,
		},
		JWTExpirationMinutes:      jwtExpMinutes,
		JWTRefreshExpirationHours: jwtRefreshExpHours,
	}, nil
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
