package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type DBConfig struct {
	DSN string `mapstructure:"dsn"`
	// AutoMigrate creates the tables on startup (document-store auto-init toggle).
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

type Env string

const (
	EnvDev  Env = "dev"
	EnvProd Env = "prod"
)

type Config struct {
	Env          Env                `mapstructure:"env"`
	Server       ServerConfig       `mapstructure:"server"`
	Database     DBConfig           `mapstructure:"database"`
	Firebase     FirebaseConfig     `mapstructure:"firebase"`
	Razorpay     RazorpayConfig     `mapstructure:"razorpay"`
	Auth         AuthConfig         `mapstructure:"auth"`
	CORS         CORSConfig         `mapstructure:"cors"`
	Subscription SubscriptionConfig `mapstructure:"subscription"`
	Jobs         JobsConfig         `mapstructure:"jobs"`
	MetricsAddr  string             `mapstructure:"metrics_addr"`
}

// FirebaseConfig holds the service-account fields of the identity provider.
type FirebaseConfig struct {
	ProjectID     string `mapstructure:"project_id"`
	PrivateKeyID  string `mapstructure:"private_key_id"`
	PrivateKey    string `mapstructure:"private_key"`
	ClientEmail   string `mapstructure:"client_email"`
	ClientID      string `mapstructure:"client_id"`
	ClientCertURL string `mapstructure:"client_cert_url"`
	// WebAPIKey enables password verification through the Identity Toolkit REST API.
	WebAPIKey string `mapstructure:"web_api_key"`
}

// Enabled reports whether real service-account credentials are present.
func (f FirebaseConfig) Enabled() bool {
	return f.ProjectID != "" && f.PrivateKey != "" && !strings.Contains(f.PrivateKey, "DUMMY")
}

type RazorpayConfig struct {
	KeyID         string `mapstructure:"key_id"`
	KeySecret     string `mapstructure:"key_secret"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	Currency      string `mapstructure:"currency"`
}

func (r RazorpayConfig) Enabled() bool {
	return r.KeyID != "" && r.KeySecret != ""
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	// AdminEmail and AdminPasswordHash (bcrypt) guard the fallback admin login.
	AdminEmail        string `mapstructure:"admin_email"`
	AdminPasswordHash string `mapstructure:"admin_password_hash"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type SubscriptionConfig struct {
	TrialDays int `mapstructure:"trial_days"`
}

type JobsConfig struct {
	ExpiryInterval time.Duration `mapstructure:"expiry_interval"`
}

func (c *Config) IsProd() bool {
	return c != nil && c.Env == EnvProd
}

func (c *Config) TrialDuration() time.Duration {
	days := 7
	if c != nil && c.Subscription.TrialDays > 0 {
		days = c.Subscription.TrialDays
	}
	return time.Duration(days) * 24 * time.Hour
}

func New() (*Config, error) {
	// .env is optional; values already exported in the environment win.
	_ = godotenv.Load()

	v := viper.New()
	// Allow overriding config file via env:
	// - APP_CONFIG_FILE: absolute or relative file path (e.g., /etc/app/prod.yaml)
	// - APP_CONFIG_NAME: config base name without extension (default: "config")
	if file := os.Getenv("APP_CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
	} else {
		cfgName := os.Getenv("APP_CONFIG_NAME")
		if cfgName == "" {
			cfgName = "config"
		}
		v.SetConfigName(cfgName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Legacy variable names used by existing deployments.
	_ = v.BindEnv("server.port", "APP_SERVER_PORT", "PORT")
	_ = v.BindEnv("firebase.project_id", "APP_FIREBASE_PROJECT_ID", "FIREBASE_PROJECT_ID")
	_ = v.BindEnv("firebase.private_key_id", "APP_FIREBASE_PRIVATE_KEY_ID", "FIREBASE_PRIVATE_KEY_ID")
	_ = v.BindEnv("firebase.private_key", "APP_FIREBASE_PRIVATE_KEY", "FIREBASE_PRIVATE_KEY")
	_ = v.BindEnv("firebase.client_email", "APP_FIREBASE_CLIENT_EMAIL", "FIREBASE_CLIENT_EMAIL")
	_ = v.BindEnv("firebase.client_id", "APP_FIREBASE_CLIENT_ID", "FIREBASE_CLIENT_ID")
	_ = v.BindEnv("firebase.client_cert_url", "APP_FIREBASE_CLIENT_CERT_URL", "FIREBASE_CLIENT_CERT_URL")
	_ = v.BindEnv("razorpay.key_id", "APP_RAZORPAY_KEY_ID", "RAZORPAY_KEY_ID")
	_ = v.BindEnv("razorpay.key_secret", "APP_RAZORPAY_KEY_SECRET", "RAZORPAY_KEY_SECRET")
	_ = v.BindEnv("razorpay.webhook_secret", "APP_RAZORPAY_WEBHOOK_SECRET", "RAZORPAY_WEBHOOK_SECRET")
	_ = v.BindEnv("auth.jwt_secret", "APP_AUTH_JWT_SECRET", "JWT_SECRET")

	// Defaults
	v.SetDefault("env", "dev")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("razorpay.currency", "INR")
	v.SetDefault("auth.jwt_secret", "your-jwt-secret-key")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("cors.allowed_origins", []string{
		"http://localhost:5173",
		"http://localhost:8080",
		"http://localhost:8081",
		"http://localhost:3000",
	})
	v.SetDefault("subscription.trial_days", 7)
	v.SetDefault("jobs.expiry_interval", 15*time.Minute)
	v.SetDefault("metrics_addr", ":9090")

	if err := v.ReadInConfig(); err != nil {
		_ = err
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	// Private keys usually arrive with escaped newlines from env files.
	c.Firebase.PrivateKey = strings.ReplaceAll(c.Firebase.PrivateKey, `\n`, "\n")
	if origin := os.Getenv("FRONTEND_URL"); origin != "" {
		c.CORS.AllowedOrigins = append([]string{origin}, c.CORS.AllowedOrigins...)
	}
	return &c, nil
}

var Module = fx.Options(
	fx.Provide(New),
)
