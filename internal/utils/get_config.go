package utils

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	// Application
	AppEnv      string `yaml:"APP_ENV"`
	AppPort     string `yaml:"APP_PORT"`
	AppURL      string `yaml:"APP_URL"`
	CORSOrigins string `yaml:"CORS_ORIGINS"`
	RateLimit   string `yaml:"RATE_LIMIT"`

	// Logging and error reporting
	LogLevel  string `yaml:"LOG_LEVEL"`
	LogFormat string `yaml:"LOG_FORMAT"`
	SentryDSN string `yaml:"SENTRY_DSN"`

	// Database configuration
	DBUser            string `yaml:"DB_USER"`
	DBName            string `yaml:"DB_NAME"`
	DBPassword        string `yaml:"DB_PASSWORD"`
	DBPort            string `yaml:"DB_PORT"`
	DBHost            string `yaml:"DB_HOST"`
	DBSSLMode         string `yaml:"DB_SSLMODE"`
	DBMaxOpenConns    string `yaml:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns    string `yaml:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetime string `yaml:"DB_CONN_MAX_LIFETIME_MINUTES"`

	// Session store
	RedisAddr         string `yaml:"REDIS_ADDR"`
	RedisPassword     string `yaml:"REDIS_PASSWORD"`
	RedisDB           string `yaml:"REDIS_DB"`
	SessionSecret     string `yaml:"SESSION_SECRET"`
	SessionCookieName string `yaml:"SESSION_COOKIE_NAME"`
	SessionTTLHours   string `yaml:"SESSION_TTL_HOURS"`
	SessionSecure     string `yaml:"SESSION_SECURE"`

	// Email tokens
	JWTSecret string `yaml:"JWT_SECRET"`

	// Mailing configuration
	SMTPHost         string `yaml:"SMTP_HOST"`
	SMTPPort         string `yaml:"SMTP_PORT"`
	SMTPSenderName   string `yaml:"SMTP_SENDER_NAME"`
	SMTPAuthEmail    string `yaml:"SMTP_AUTH_EMAIL"`
	SMTPAuthPassword string `yaml:"SMTP_AUTH_PASSWORD"`

	// AWS S3 configuration
	AWSS3Bucket   string `yaml:"AWS_S3_BUCKET"`
	AWSS3Region   string `yaml:"AWS_S3_REGION"`
	AWSS3Endpoint string `yaml:"AWS_S3_ENDPOINT"`
	AWSAccessKey  string `yaml:"AWS_ACCESS_KEY"`
	AWSSecretKey  string `yaml:"AWS_SECRET_KEY"`

	// Meilisearch
	MeiliURL           string `yaml:"MEILI_URL"`
	MeiliMasterKey     string `yaml:"MEILI_MASTER_KEY"`
	MeiliIndexSchedule string `yaml:"MEILI_INDEX_SCHEDULE"`

	// Google OAuth
	GoogleClientID     string `yaml:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `yaml:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `yaml:"GOOGLE_REDIRECT_URL"`
}

var (
	config     Config
	configMu   sync.RWMutex
	loadConfig sync.Once
)

var defaults = map[string]string{
	"APP_ENV":                      "development",
	"APP_PORT":                     "8080",
	"APP_URL":                      "http://localhost:3000",
	"CORS_ORIGINS":                 "http://localhost:3000",
	"RATE_LIMIT":                   "50",
	"LOG_LEVEL":                    "info",
	"LOG_FORMAT":                   "console",
	"DB_SSLMODE":                   "disable",
	"DB_MAX_OPEN_CONNS":            "25",
	"DB_MAX_IDLE_CONNS":            "5",
	"DB_CONN_MAX_LIFETIME_MINUTES": "30",
	"REDIS_ADDR":                   "localhost:6379",
	"SESSION_COOKIE_NAME":          "sid",
	"SESSION_TTL_HOURS":            "24",
	"SMTP_PORT":                    "587",
	"MEILI_URL":                    "http://localhost:7700",
	"MEILI_INDEX_SCHEDULE":         "@every 1h",
}

// fields maps every configuration key to its slot in the Config struct.
func (c *Config) fields() map[string]*string {
	return map[string]*string{
		"APP_ENV":                      &c.AppEnv,
		"APP_PORT":                     &c.AppPort,
		"APP_URL":                      &c.AppURL,
		"CORS_ORIGINS":                 &c.CORSOrigins,
		"RATE_LIMIT":                   &c.RateLimit,
		"LOG_LEVEL":                    &c.LogLevel,
		"LOG_FORMAT":                   &c.LogFormat,
		"SENTRY_DSN":                   &c.SentryDSN,
		"DB_USER":                      &c.DBUser,
		"DB_NAME":                      &c.DBName,
		"DB_PASSWORD":                  &c.DBPassword,
		"DB_PORT":                      &c.DBPort,
		"DB_HOST":                      &c.DBHost,
		"DB_SSLMODE":                   &c.DBSSLMode,
		"DB_MAX_OPEN_CONNS":            &c.DBMaxOpenConns,
		"DB_MAX_IDLE_CONNS":            &c.DBMaxIdleConns,
		"DB_CONN_MAX_LIFETIME_MINUTES": &c.DBConnMaxLifetime,
		"REDIS_ADDR":                   &c.RedisAddr,
		"REDIS_PASSWORD":               &c.RedisPassword,
		"REDIS_DB":                     &c.RedisDB,
		"SESSION_SECRET":               &c.SessionSecret,
		"SESSION_COOKIE_NAME":          &c.SessionCookieName,
		"SESSION_TTL_HOURS":            &c.SessionTTLHours,
		"SESSION_SECURE":               &c.SessionSecure,
		"JWT_SECRET":                   &c.JWTSecret,
		"SMTP_HOST":                    &c.SMTPHost,
		"SMTP_PORT":                    &c.SMTPPort,
		"SMTP_SENDER_NAME":             &c.SMTPSenderName,
		"SMTP_AUTH_EMAIL":              &c.SMTPAuthEmail,
		"SMTP_AUTH_PASSWORD":           &c.SMTPAuthPassword,
		"AWS_S3_BUCKET":                &c.AWSS3Bucket,
		"AWS_S3_REGION":                &c.AWSS3Region,
		"AWS_S3_ENDPOINT":              &c.AWSS3Endpoint,
		"AWS_ACCESS_KEY":               &c.AWSAccessKey,
		"AWS_SECRET_KEY":               &c.AWSSecretKey,
		"MEILI_URL":                    &c.MeiliURL,
		"MEILI_MASTER_KEY":             &c.MeiliMasterKey,
		"MEILI_INDEX_SCHEDULE":         &c.MeiliIndexSchedule,
		"GOOGLE_CLIENT_ID":             &c.GoogleClientID,
		"GOOGLE_CLIENT_SECRET":         &c.GoogleClientSecret,
		"GOOGLE_REDIRECT_URL":          &c.GoogleRedirectURL,
	}
}

// LoadConfig reads config.yaml (when present), then lets the process
// environment and an optional .env file override individual keys.
// Only the first call has any effect.
func LoadConfig() {
	loadConfig.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		loadFrom("config.yaml", &config)
	})
}

func loadFrom(path string, cfg *Config) {
	if file, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(file, cfg); err != nil {
			log.Printf("Error parsing YAML file: %s\n", err)
		}
	} else if !os.IsNotExist(err) {
		log.Printf("Error reading YAML file: %s\n", err)
	}

	// .env never overrides variables already exported by the shell
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Error loading .env file: %s\n", err)
	}

	for key, slot := range cfg.fields() {
		if value, ok := os.LookupEnv(key); ok {
			*slot = value
		}
		if *slot == "" {
			*slot = defaults[key]
		}
	}
}

func GetConfig(key string) string {
	configMu.RLock()
	defer configMu.RUnlock()

	if slot, ok := config.fields()[key]; ok {
		return *slot
	}
	return ""
}

// SetConfig overrides a single key at runtime.
func SetConfig(key, value string) {
	configMu.Lock()
	defer configMu.Unlock()

	if slot, ok := config.fields()[key]; ok {
		*slot = value
	}
}

func GetConfigInt(key string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(GetConfig(key)))
	if err != nil {
		return fallback
	}
	return n
}

func GetConfigBool(key string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(GetConfig(key)))
	return b
}

func IsProduction() bool {
	return GetConfig("APP_ENV") == "production"
}
