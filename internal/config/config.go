package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config representa la configuración del servicio
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Inngest   InngestConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
	Authority AuthorityConfig
	Locks     LockConfig
	Admin     AdminConfig
	Storage   StorageConfig
	Email     EmailConfig
}

// ServerConfig representa la configuración del servidor HTTP
type ServerConfig struct {
	Port           string
	Host           string
	Env            string
	BaseURL        string
	AllowedOrigins []string
}

// DatabaseConfig representa la configuración de la base de datos
type DatabaseConfig struct {
	Host          string
	Port          string
	User          string
	Password      string
	Name          string
	SSLMode       string
	QueryTimeout  time.Duration
	RunMigrations bool
}

// RedisConfig representa la configuración de Redis
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// InngestConfig representa la configuración de Inngest
type InngestConfig struct {
	EventKey     string
	SigningKey   string
	AppID        string
	Dev          bool
	PollInterval time.Duration
	MaxPolls     int
}

// Enabled indica si hay credenciales para registrar funciones
func (c InngestConfig) Enabled() bool {
	return c.EventKey != "" && (c.SigningKey != "" || c.Dev)
}

// RateLimitConfig representa la configuración de rate limiting
type RateLimitConfig struct {
	PerMinute int
}

// LoggingConfig representa la configuración de logging
type LoggingConfig struct {
	Level  string
	Format string
}

// AuthorityConfig representa el gateway SIFEN de la autoridad tributaria
type AuthorityConfig struct {
	BaseURL                string
	APIKey                 string
	Timeout                time.Duration
	DefaultEstablishment   string
	DefaultExpeditionPoint string
	BreakerMaxFailures     int
	BreakerCooldown        time.Duration
}

// LockConfig controla el bloqueo por factura durante operaciones con la autoridad
type LockConfig struct {
	TTL  time.Duration
	Wait time.Duration
}

// AdminConfig contiene la clave de arranque para emitir API keys
type AdminConfig struct {
	APIKey string
}

// StorageConfig apunta al bucket S3 compatible donde se archivan los KuDE
type StorageConfig struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

// Enabled indica si hay credenciales para el archivo de documentos
func (c StorageConfig) Enabled() bool {
	return c.Endpoint != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// EmailConfig representa la configuración del envío de facturas por email
type EmailConfig struct {
	ResendAPIKey string
	From         string
}

// Enabled indica si el envío por email está configurado
func (c EmailConfig) Enabled() bool {
	return c.ResendAPIKey != ""
}

// Load carga la configuración desde variables de entorno
func Load() (*Config, error) {
	// .env es opcional
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8081"),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Env:            getEnv("SERVER_ENV", "development"),
			BaseURL:        getEnv("SERVER_BASE_URL", "http://localhost:8081"),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Host:          getEnv("PGHOST", "localhost"),
			Port:          getEnv("PGPORT", "5432"),
			User:          getEnv("PGUSER", "postgres"),
			Password:      getEnv("PGPASSWORD", "postgres"),
			Name:          getEnv("PGDATABASE", "sifen"),
			SSLMode:       getEnv("DB_SSLMODE", "disable"),
			QueryTimeout:  getEnvAsDuration("DB_QUERY_TIMEOUT", 30*time.Second),
			RunMigrations: getEnvAsBool("DB_RUN_MIGRATIONS", true),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Inngest: InngestConfig{
			EventKey:     getEnv("INNGEST_EVENT_KEY", ""),
			SigningKey:   getEnv("INNGEST_SIGNING_KEY", ""),
			AppID:        getEnv("INNGEST_APP_ID", "sifen-service"),
			Dev:          getEnvAsBool("INNGEST_DEV", true),
			PollInterval: getEnvAsDuration("INNGEST_POLL_INTERVAL", 2*time.Minute),
			MaxPolls:     getEnvAsInt("INNGEST_MAX_POLLS", 30),
		},
		RateLimit: RateLimitConfig{
			PerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 120),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Authority: AuthorityConfig{
			BaseURL:                getEnv("SIFEN_API_URL", "https://sifen-test.set.gov.py/api"),
			APIKey:                 getEnv("SIFEN_API_KEY", ""),
			Timeout:                getEnvAsDuration("SIFEN_TIMEOUT", 30*time.Second),
			DefaultEstablishment:   getEnv("SIFEN_ESTABLISHMENT", "001"),
			DefaultExpeditionPoint: getEnv("SIFEN_EXPEDITION_POINT", "001"),
			BreakerMaxFailures:     getEnvAsInt("SIFEN_BREAKER_MAX_FAILURES", 5),
			BreakerCooldown:        getEnvAsDuration("SIFEN_BREAKER_COOLDOWN", 30*time.Second),
		},
		Locks: LockConfig{
			TTL:  getEnvAsDuration("INVOICE_LOCK_TTL", 45*time.Second),
			Wait: getEnvAsDuration("INVOICE_LOCK_WAIT", 10*time.Second),
		},
		Admin: AdminConfig{
			APIKey: getEnv("ADMIN_API_KEY", ""),
		},
		Storage: StorageConfig{
			Endpoint:        getEnv("STORAGE_ENDPOINT", ""),
			Region:          getEnv("STORAGE_REGION", "us-east-1"),
			Bucket:          getEnv("STORAGE_BUCKET", "invoice-files"),
			AccessKeyID:     getEnv("STORAGE_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("STORAGE_SECRET_ACCESS_KEY", ""),
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			From:         getEnv("EMAIL_FROM", "facturacion@resend.dev"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rechaza combinaciones imposibles antes de arrancar el servidor
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT must not be empty"))
	}
	if c.Database.QueryTimeout <= 0 {
		errs = append(errs, errors.New("DB_QUERY_TIMEOUT must be positive"))
	}
	if c.Authority.BaseURL == "" {
		errs = append(errs, errors.New("SIFEN_API_URL must not be empty"))
	}
	if c.Authority.Timeout <= 0 {
		errs = append(errs, errors.New("SIFEN_TIMEOUT must be positive"))
	}
	if !isDigits(c.Authority.DefaultEstablishment, 3) {
		errs = append(errs, fmt.Errorf("SIFEN_ESTABLISHMENT must be 3 digits (got %q)", c.Authority.DefaultEstablishment))
	}
	if !isDigits(c.Authority.DefaultExpeditionPoint, 3) {
		errs = append(errs, fmt.Errorf("SIFEN_EXPEDITION_POINT must be 3 digits (got %q)", c.Authority.DefaultExpeditionPoint))
	}
	if c.Locks.TTL <= 0 {
		errs = append(errs, errors.New("INVOICE_LOCK_TTL must be positive"))
	}
	if c.Locks.Wait < 0 {
		errs = append(errs, errors.New("INVOICE_LOCK_WAIT must not be negative"))
	}
	if c.RateLimit.PerMinute <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must be positive"))
	}
	if c.Storage.Enabled() && c.Storage.Bucket == "" {
		errs = append(errs, errors.New("STORAGE_BUCKET must not be empty when storage is configured"))
	}
	if c.Email.Enabled() && c.Email.From == "" {
		errs = append(errs, errors.New("EMAIL_FROM must not be empty when RESEND_API_KEY is set"))
	}
	if c.Inngest.PollInterval <= 0 || c.Inngest.MaxPolls <= 0 {
		errs = append(errs, errors.New("INNGEST_POLL_INTERVAL and INNGEST_MAX_POLLS must be positive"))
	}

	return errors.Join(errs...)
}

func isDigits(value string, length int) bool {
	if len(value) != length {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// getEnv obtiene una variable de entorno o retorna un valor por defecto
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt obtiene una variable de entorno como entero
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool obtiene una variable de entorno como booleano
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration obtiene una variable de entorno como duración
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsList obtiene una lista separada por comas
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// IsDevelopment retorna true si el entorno es de desarrollo
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction retorna true si el entorno es de producción
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// GetDSN retorna la cadena de conexión a la base de datos
func (c *Config) GetDSN() string {
	return "host=" + c.Database.Host +
		" port=" + c.Database.Port +
		" user=" + c.Database.User +
		" password=" + c.Database.Password +
		" dbname=" + c.Database.Name +
		" sslmode=" + c.Database.SSLMode
}

// GetRedisAddr retorna la dirección de Redis
func (c *Config) GetRedisAddr() string {
	return c.Redis.Host + ":" + c.Redis.Port
}
