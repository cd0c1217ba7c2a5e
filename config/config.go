package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr string
	LogLevel string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	JWTSecret string
	JWTTTL    time.Duration

	RabbitMQURL     string
	InvoiceExchange string
	InvoiceQueue    string
	DeadLetterQueue string
	MaxPriority     int
	LocalQueueSize  int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MongoURI string
	MongoDB  string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	InvoiceDir      string
	InvoiceMaxBytes int
	InvoiceTimeout  time.Duration
	EmailTimeout    time.Duration
}

func LoadConfig() *Config {
	return &Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DBUser:          getEnv("DB_USER", "root"),
		DBPassword:      getEnvFromFile("DB_PASSWORD_FILE", "DB_PASSWORD", ""),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "3306"),
		DBName:          getEnv("DB_NAME", "storefront"),
		JWTSecret:       getEnvFromFile("JWT_SECRET_FILE", "JWT_SECRET", "change-me"),
		JWTTTL:          getEnvDuration("JWT_TTL", time.Hour),
		RabbitMQURL:     getEnv("RABBITMQ_URL", ""),
		InvoiceExchange: getEnv("INVOICE_EXCHANGE", "invoice_exchange"),
		InvoiceQueue:    getEnv("INVOICE_QUEUE", "invoice_jobs"),
		DeadLetterQueue: getEnv("DEAD_LETTER_QUEUE", "dead_letter_queue"),
		MaxPriority:     10,
		LocalQueueSize:  getEnvPositiveInt("LOCAL_QUEUE_SIZE", 256),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnvFromFile("REDIS_PASSWORD_FILE", "REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		MongoURI:        getEnv("MONGO_URI", ""),
		MongoDB:         getEnv("MONGO_DB", "storefront"),
		SMTPHost:        getEnv("SMTP_HOST", ""),
		SMTPPort:        getEnvInt("SMTP_PORT", 587),
		SMTPUser:        getEnv("SMTP_USER", ""),
		SMTPPassword:    getEnvFromFile("SMTP_PASSWORD_FILE", "SMTP_PASSWORD", ""),
		SMTPFrom:        getEnv("SMTP_FROM", "shop@localhost"),
		InvoiceDir:      getEnv("INVOICE_DIR", "invoices"),
		InvoiceMaxBytes: getEnvPositiveInt("INVOICE_MAX_BYTES", 5<<20),
		InvoiceTimeout:  getEnvDuration("INVOICE_TIMEOUT", 30*time.Second),
		EmailTimeout:    getEnvDuration("EMAIL_TIMEOUT", 20*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvPositiveInt falls back to defaultValue for zero and negative values.
func getEnvPositiveInt(key string, defaultValue int) int {
	if n := getEnvInt(key, defaultValue); n > 0 {
		return n
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvFromFile(fileKey, envKey, defaultValue string) string {
	if filePath := os.Getenv(fileKey); filePath != "" {
		if content, err := os.ReadFile(filePath); err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return getEnv(envKey, defaultValue)
}
