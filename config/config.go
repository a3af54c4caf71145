package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/coreybb/denima/storage"
	"github.com/spf13/viper"
)

const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Config is built once at startup and passed to the components that need it.
type Config struct {
	Port        string `mapstructure:"PORT"`
	AppEnv      string `mapstructure:"APP_ENV"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`
	CORSOrigins string `mapstructure:"CORS_ORIGINS"`

	UploadDir      string `mapstructure:"UPLOAD_DIR"`
	StaticDir      string `mapstructure:"STATIC_DIR"`
	StorageBackend string `mapstructure:"STORAGE_BACKEND"`
	S3Endpoint     string `mapstructure:"S3_ENDPOINT"`
	S3AccessKey    string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey    string `mapstructure:"S3_SECRET_KEY"`
	S3Bucket       string `mapstructure:"S3_BUCKET"`
	S3UseSSL       bool   `mapstructure:"S3_USE_SSL"`
	S3PublicURL    string `mapstructure:"S3_PUBLIC_URL"`

	SMTPAddr       string `mapstructure:"SMTP_ADDR"`
	SMTPUsername   string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword   string `mapstructure:"SMTP_PASSWORD"`
	SendGridAPIKey string `mapstructure:"SENDGRID_API_KEY"`
	MailFrom       string `mapstructure:"MAIL_FROM"`
	MailFromName   string `mapstructure:"MAIL_FROM_NAME"`

	AdminUsername string `mapstructure:"ADMIN_USERNAME"`
	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`

	AuthRatePerMinute int `mapstructure:"AUTH_RATE_PER_MINUTE"`
	AuthRateBurst     int `mapstructure:"AUTH_RATE_BURST"`
}

var defaults = map[string]any{
	"PORT":                 "8080",
	"APP_ENV":              "production",
	"DATABASE_URL":         "user=postgres password=password dbname=denima host=localhost port=5432 sslmode=disable",
	"JWT_SECRET":           "",
	"CORS_ORIGINS":         "*",
	"UPLOAD_DIR":           "uploads",
	"STATIC_DIR":           "frontend/dist",
	"STORAGE_BACKEND":      StorageLocal,
	"S3_ENDPOINT":          "",
	"S3_ACCESS_KEY":        "",
	"S3_SECRET_KEY":        "",
	"S3_BUCKET":            "",
	"S3_USE_SSL":           false,
	"S3_PUBLIC_URL":        "",
	"SMTP_ADDR":            "",
	"SMTP_USERNAME":        "",
	"SMTP_PASSWORD":        "",
	"SENDGRID_API_KEY":     "",
	"MAIL_FROM":            "orders@denima.local",
	"MAIL_FROM_NAME":       "Denima",
	"ADMIN_USERNAME":       "",
	"ADMIN_EMAIL":          "",
	"ADMIN_PASSWORD":       "",
	"AUTH_RATE_PER_MINUTE": 20,
	"AUTH_RATE_BURST":      5,
}

// Load reads config.env from the working directory, if present, and
// overlays the process environment.
func Load() (*Config, error) {
	return load(".")
}

func load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("env")
	v.AddConfigPath(path)
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if c.Port == "" {
		return errors.New("PORT must not be empty")
	}
	switch c.StorageBackend {
	case StorageLocal:
	case StorageS3:
		if c.S3Endpoint == "" || c.S3Bucket == "" {
			return errors.New("S3_ENDPOINT and S3_BUCKET are required when STORAGE_BACKEND=s3")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.AuthRatePerMinute <= 0 || c.AuthRateBurst <= 0 {
		return errors.New("AUTH_RATE_PER_MINUTE and AUTH_RATE_BURST must be positive")
	}
	if (c.AdminUsername != "") != (c.AdminPassword != "") {
		return errors.New("ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}
	return nil
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

func (c *Config) S3() storage.S3Config {
	return storage.S3Config{
		Endpoint:  c.S3Endpoint,
		AccessKey: c.S3AccessKey,
		SecretKey: c.S3SecretKey,
		Bucket:    c.S3Bucket,
		UseSSL:    c.S3UseSSL,
		PublicURL: c.S3PublicURL,
	}
}
