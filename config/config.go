package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Firebase  FirebaseConfig
	SMTP      SMTPConfig
	Valkey    ValkeyConfig
	Scanner   ScannerConfig
	Scheduler SchedulerConfig
	Referral  ReferralConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Admin     AdminConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Driver          string // mysql | postgres | sqlite
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	SlowThreshold   time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

type FirebaseConfig struct {
	ServiceAccountPath string
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Sender   string
}

// ValkeyConfig is optional; an empty Addr keeps the expiry alert ledger in the database.
type ValkeyConfig struct {
	Addr     string
	Password string
	DB       int
}

type ScannerConfig struct {
	ThresholdDays int
	Cooldown      time.Duration
}

type SchedulerConfig struct {
	ExpirationScanSpec  string
	OutboxRelaySpec     string
	ConnectivityAddr    string // dialed before each run; empty disables the check
	ConnectivityTimeout time.Duration
}

type ReferralConfig struct {
	InterestFormURL    string
	DefaultCountryCode string
	OutboxMaxAttempts  int
	OutboxBatchSize    int
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type LogConfig struct {
	Level string
}

type AdminConfig struct {
	Name     string
	Email    string
	Password string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8099")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("READ_TIMEOUT", 10*time.Second)
	v.SetDefault("WRITE_TIMEOUT", 10*time.Second)

	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_DSN", "data/indico.db")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_CONN_MAX_LIFETIME", time.Hour)
	v.SetDefault("DB_SLOW_THRESHOLD", time.Second)

	v.SetDefault("JWT_ACCESS_SECRET", "change-me-in-production")
	v.SetDefault("JWT_REFRESH_SECRET", "change-me-refresh")
	v.SetDefault("JWT_ACCESS_EXPIRY", 15*time.Minute)
	v.SetDefault("JWT_REFRESH_EXPIRY", 168*time.Hour)
	v.SetDefault("JWT_ISSUER", "indico")

	v.SetDefault("FIREBASE_SERVICE_ACCOUNT_PATH", "")

	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 465)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASS", "")
	v.SetDefault("SMTP_SENDER", "")

	v.SetDefault("VALKEY_ADDR", "")
	v.SetDefault("VALKEY_PASSWORD", "")
	v.SetDefault("VALKEY_DB", 0)

	v.SetDefault("SCAN_THRESHOLD_DAYS", 30)
	v.SetDefault("SCAN_COOLDOWN", 72*time.Hour)

	v.SetDefault("SCAN_CRON", "CRON_TZ=UTC 0 9 * * *")
	v.SetDefault("OUTBOX_CRON", "@every 5s")
	v.SetDefault("CONNECTIVITY_ADDR", "fcm.googleapis.com:443")
	v.SetDefault("CONNECTIVITY_TIMEOUT", 5*time.Second)

	v.SetDefault("INTEREST_FORM_URL", "https://villa.segfy.com/Publico/Segurados/Orcamentos/SolicitarCotacao?e=P6pb0nbwjHfnbNxXuNGlxw%3D%3D")
	v.SetDefault("DEFAULT_COUNTRY_CODE", "55")
	v.SetDefault("OUTBOX_MAX_ATTEMPTS", 5)
	v.SetDefault("OUTBOX_BATCH_SIZE", 100)

	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW", 60*time.Second)

	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("ADMIN_NAME", "Administrator")
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
}

// Load reads .env (if present), then the process environment, on top of the defaults above.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file, using process environment")
	}
	return fromViper(newViper())
}

// newViper layers the environment over the defaults. An explicitly empty
// variable overrides its default, so e.g. CONNECTIVITY_ADDR= disables the dial.
func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()
	return v
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:         v.GetString("PORT"),
			Env:          v.GetString("APP_ENV"),
			ReadTimeout:  v.GetDuration("READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("WRITE_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(v.GetString("DB_DRIVER")),
			DSN:             v.GetString("DB_DSN"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			SlowThreshold:   v.GetDuration("DB_SLOW_THRESHOLD"),
		},
		JWT: JWTConfig{
			AccessSecret:  v.GetString("JWT_ACCESS_SECRET"),
			RefreshSecret: v.GetString("JWT_REFRESH_SECRET"),
			AccessExpiry:  v.GetDuration("JWT_ACCESS_EXPIRY"),
			RefreshExpiry: v.GetDuration("JWT_REFRESH_EXPIRY"),
			Issuer:        v.GetString("JWT_ISSUER"),
		},
		Firebase: FirebaseConfig{
			ServiceAccountPath: v.GetString("FIREBASE_SERVICE_ACCOUNT_PATH"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASS"),
			Sender:   v.GetString("SMTP_SENDER"),
		},
		Valkey: ValkeyConfig{
			Addr:     v.GetString("VALKEY_ADDR"),
			Password: v.GetString("VALKEY_PASSWORD"),
			DB:       v.GetInt("VALKEY_DB"),
		},
		Scanner: ScannerConfig{
			ThresholdDays: v.GetInt("SCAN_THRESHOLD_DAYS"),
			Cooldown:      v.GetDuration("SCAN_COOLDOWN"),
		},
		Scheduler: SchedulerConfig{
			ExpirationScanSpec:  v.GetString("SCAN_CRON"),
			OutboxRelaySpec:     v.GetString("OUTBOX_CRON"),
			ConnectivityAddr:    v.GetString("CONNECTIVITY_ADDR"),
			ConnectivityTimeout: v.GetDuration("CONNECTIVITY_TIMEOUT"),
		},
		Referral: ReferralConfig{
			InterestFormURL:    v.GetString("INTEREST_FORM_URL"),
			DefaultCountryCode: v.GetString("DEFAULT_COUNTRY_CODE"),
			OutboxMaxAttempts:  v.GetInt("OUTBOX_MAX_ATTEMPTS"),
			OutboxBatchSize:    v.GetInt("OUTBOX_BATCH_SIZE"),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   v.GetDuration("RATE_LIMIT_WINDOW"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Admin: AdminConfig{
			Name:     v.GetString("ADMIN_NAME"),
			Email:    v.GetString("ADMIN_EMAIL"),
			Password: v.GetString("ADMIN_PASSWORD"),
		},
	}
}
