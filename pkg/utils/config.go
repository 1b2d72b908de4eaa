package utils

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App           AppConfig
	Database      DatabaseConfig
	JWT           JWTConfig
	VendorService VendorServiceConfig
	Lockout       LockoutConfig
	Reset         ResetConfig
	Reconcile     ReconcileConfig
	Redis         RedisConfig
	Tracing       TracingConfig
}

type AppConfig struct {
	Name        string
	Port        string
	Debug       bool
	LogPath     string
	Environment string
	CORSOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

// JWTConfig carries two independent signing keys: one for user sessions and
// one for the service-to-service trust tokens sent to the vendor service.
type JWTConfig struct {
	SessionSecret       string
	ServiceSecret       string
	Issuer              string
	SessionExpiryHours  int
	ServiceExpiryMinute int
}

type VendorServiceConfig struct {
	BaseURL string
	Timeout time.Duration
}

type LockoutConfig struct {
	Threshold int
	Minutes   int
}

type ResetConfig struct {
	ExpiryMinutes int
}

type ReconcileConfig struct {
	Interval time.Duration
	Grace    time.Duration
	Batch    int
}

type RedisConfig struct {
	URL      string
	CacheTTL time.Duration
}

type TracingConfig struct {
	Endpoint string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("APP_NAME", "account-provisioning")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("CORS_ORIGINS", []string{"*"})
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("JWT_ISSUER", "account-provisioning")
	viper.SetDefault("JWT_EXPIRY_HOURS", 24)
	viper.SetDefault("SERVICE_TOKEN_EXPIRY_MINUTES", 5)
	viper.SetDefault("VENDOR_SERVICE_URL", "http://localhost:8081")
	viper.SetDefault("VENDOR_SERVICE_TIMEOUT", "10s")
	viper.SetDefault("LOCKOUT_THRESHOLD", 5)
	viper.SetDefault("LOCKOUT_MINUTES", 15)
	viper.SetDefault("RESET_TOKEN_EXPIRY_MINUTES", 15)
	viper.SetDefault("RECONCILE_INTERVAL", "5m")
	viper.SetDefault("RECONCILE_GRACE", "10m")
	viper.SetDefault("RECONCILE_BATCH", 50)
	viper.SetDefault("VENDOR_CACHE_TTL", "5m")

	// .env is optional; plain environment variables work on their own
	if err := viper.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, err
		}
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:        viper.GetString("APP_NAME"),
			Port:        viper.GetString("PORT"),
			Debug:       viper.GetBool("DEBUG"),
			LogPath:     viper.GetString("LOG_PATH"),
			Environment: viper.GetString("ENVIRONMENT"),
			CORSOrigins: viper.GetStringSlice("CORS_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		JWT: JWTConfig{
			SessionSecret:       viper.GetString("JWT_SECRET"),
			ServiceSecret:       viper.GetString("SERVICE_TOKEN_SECRET"),
			Issuer:              viper.GetString("JWT_ISSUER"),
			SessionExpiryHours:  viper.GetInt("JWT_EXPIRY_HOURS"),
			ServiceExpiryMinute: viper.GetInt("SERVICE_TOKEN_EXPIRY_MINUTES"),
		},
		VendorService: VendorServiceConfig{
			BaseURL: viper.GetString("VENDOR_SERVICE_URL"),
			Timeout: viper.GetDuration("VENDOR_SERVICE_TIMEOUT"),
		},
		Lockout: LockoutConfig{
			Threshold: viper.GetInt("LOCKOUT_THRESHOLD"),
			Minutes:   viper.GetInt("LOCKOUT_MINUTES"),
		},
		Reset: ResetConfig{
			ExpiryMinutes: viper.GetInt("RESET_TOKEN_EXPIRY_MINUTES"),
		},
		Reconcile: ReconcileConfig{
			Interval: viper.GetDuration("RECONCILE_INTERVAL"),
			Grace:    viper.GetDuration("RECONCILE_GRACE"),
			Batch:    viper.GetInt("RECONCILE_BATCH"),
		},
		Redis: RedisConfig{
			URL:      viper.GetString("REDIS_URL"),
			CacheTTL: viper.GetDuration("VENDOR_CACHE_TTL"),
		},
		Tracing: TracingConfig{
			Endpoint: viper.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// SessionTTL is the validity window of user session credentials.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.JWT.SessionExpiryHours) * time.Hour
}

// ServiceTrustTTL is the validity window of provisioning trust tokens.
func (c *Config) ServiceTrustTTL() time.Duration {
	return time.Duration(c.JWT.ServiceExpiryMinute) * time.Minute
}

// ResetTTL returns the reset ticket lifetime clamped to 10..60 minutes.
func (c *Config) ResetTTL() time.Duration {
	minutes := c.Reset.ExpiryMinutes
	if minutes < 10 {
		minutes = 10
	}
	if minutes > 60 {
		minutes = 60
	}
	return time.Duration(minutes) * time.Minute
}

func (c *Config) LockoutDuration() time.Duration {
	return time.Duration(c.Lockout.Minutes) * time.Minute
}

// Validate checks the relationships between secrets and timeouts that the
// provisioning flow relies on.
func (c *Config) Validate() error {
	if c.JWT.SessionSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.JWT.ServiceSecret == "" {
		return fmt.Errorf("SERVICE_TOKEN_SECRET is required")
	}
	if c.JWT.SessionSecret == c.JWT.ServiceSecret {
		return fmt.Errorf("SERVICE_TOKEN_SECRET must differ from JWT_SECRET")
	}
	if c.SessionTTL() <= 0 {
		return fmt.Errorf("JWT_EXPIRY_HOURS must be positive")
	}

	trustTTL := c.ServiceTrustTTL()
	if trustTTL <= 0 || trustTTL > time.Hour {
		return fmt.Errorf("SERVICE_TOKEN_EXPIRY_MINUTES must be between 1 and 60")
	}
	if trustTTL >= c.SessionTTL() {
		return fmt.Errorf("service token lifetime must be shorter than the session lifetime")
	}
	if c.VendorService.Timeout <= 0 || c.VendorService.Timeout >= trustTTL {
		return fmt.Errorf("VENDOR_SERVICE_TIMEOUT must be positive and shorter than the service token lifetime")
	}
	if c.VendorService.BaseURL == "" {
		return fmt.Errorf("VENDOR_SERVICE_URL is required")
	}
	if c.Lockout.Threshold < 1 || c.Lockout.Minutes < 1 {
		return fmt.Errorf("lockout threshold and minutes must be positive")
	}
	if c.Reconcile.Batch < 1 {
		c.Reconcile.Batch = 50
	}

	return nil
}
