// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	_ "time/tzdata" // MEMBERSHIP_TIMEZONE must resolve on minimal images

	"github.com/adhocore/gronx"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"tipa/internal/membership"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	JWTSecret   string `mapstructure:"JWT_SECRET"`
	JWTIssuer   string `mapstructure:"JWT_ISSUER"`
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"APP_ENV"`

	DBHost                   string `mapstructure:"DB_HOST"`
	DBPort                   string `mapstructure:"DB_PORT"`
	DBUser                   string `mapstructure:"DB_USER"`
	DBPassword               string `mapstructure:"DB_PASSWORD"`
	DBName                   string `mapstructure:"DB_NAME"`
	DBSSLMode                string `mapstructure:"DB_SSLMODE"`
	DBMaxOpenConns           int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns           int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetimeMinutes int    `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`
	DBConnectRetrySeconds    int    `mapstructure:"DB_CONNECT_RETRY_SECONDS"`
	DBSchemaMode             string `mapstructure:"DB_SCHEMA_MODE"`
	// DBAutoMigrateAllowDestructive permits DB_SCHEMA_MODE=auto in production-like environments.
	DBAutoMigrateAllowDestructive bool `mapstructure:"DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE"`

	RedisURL       string `mapstructure:"REDIS_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	FeatureFlags   string `mapstructure:"FEATURE_FLAGS"`

	TracingEnabled      bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter     string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint        string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSamplerRatio float64 `mapstructure:"TRACING_SAMPLER_RATIO"`

	MembershipTimezone string `mapstructure:"MEMBERSHIP_TIMEZONE"`
	TrialCutoff        string `mapstructure:"TRIAL_CUTOFF"`
	StudentTrialMonths int    `mapstructure:"STUDENT_TRIAL_MONTHS"`
	ExpirySweepCron    string `mapstructure:"EXPIRY_SWEEP_CRON"`
	InviteTTLHours     int    `mapstructure:"INVITE_TTL_HOURS"`
	InviteMaxRows      int    `mapstructure:"INVITE_MAX_ROWS"`

	// BootstrapAdminSubject, when set, is ensured to exist as an approved
	// admin at startup so a fresh install has someone to approve applicants.
	BootstrapAdminSubject string `mapstructure:"BOOTSTRAP_ADMIN_SUBJECT"`
	BootstrapAdminEmail   string `mapstructure:"BOOTSTRAP_ADMIN_EMAIL"`
}

// LoadConfig loads application configuration from .env, config files and environment variables.
func LoadConfig() (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base file is optional.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("PORT", "8375")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("JWT_ISSUER", "")
	viper.SetDefault("JWT_AUDIENCE", "")

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "tipa")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 10)
	viper.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	viper.SetDefault("DB_CONNECT_RETRY_SECONDS", 30)
	viper.SetDefault("DB_SCHEMA_MODE", "hybrid")
	viper.SetDefault("DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE", false)

	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173")
	viper.SetDefault("FEATURE_FLAGS", "live_updates=on")

	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)

	viper.SetDefault("MEMBERSHIP_TIMEZONE", "UTC")
	viper.SetDefault("TRIAL_CUTOFF", "09-01")
	viper.SetDefault("STUDENT_TRIAL_MONTHS", 12)
	viper.SetDefault("EXPIRY_SWEEP_CRON", "0 3 * * *")
	viper.SetDefault("INVITE_TTL_HOURS", 24*14)
	viper.SetDefault("INVITE_MAX_ROWS", 2000)
	viper.SetDefault("BOOTSTRAP_ADMIN_SUBJECT", "")
	viper.SetDefault("BOOTSTRAP_ADMIN_EMAIL", "")
}

func (c *Config) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
	c.DBSchemaMode = strings.ToLower(strings.TrimSpace(c.DBSchemaMode))
	c.TracingExporter = strings.ToLower(strings.TrimSpace(c.TracingExporter))
	c.TrialCutoff = strings.TrimSpace(c.TrialCutoff)
	c.ExpirySweepCron = strings.TrimSpace(c.ExpirySweepCron)
	c.BootstrapAdminSubject = strings.TrimSpace(c.BootstrapAdminSubject)
	c.BootstrapAdminEmail = strings.ToLower(strings.TrimSpace(c.BootstrapAdminEmail))
}

// IsProduction reports whether strict production checks apply.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.DBConnMaxLifetimeMinutes < 0 {
		return errors.New("DB_CONN_MAX_LIFETIME_MINUTES must not be negative")
	}
	switch c.DBSchemaMode {
	case "", "hybrid", "sql", "auto":
	default:
		return fmt.Errorf("DB_SCHEMA_MODE %q must be one of hybrid, sql, auto", c.DBSchemaMode)
	}
	if _, err := c.MembershipPolicy(); err != nil {
		return err
	}
	if c.SweepEnabled() && !gronx.IsValid(c.ExpirySweepCron) {
		return fmt.Errorf("EXPIRY_SWEEP_CRON %q is not a valid cron expression", c.ExpirySweepCron)
	}
	if c.BootstrapAdminSubject != "" && c.BootstrapAdminEmail == "" {
		return errors.New("BOOTSTRAP_ADMIN_EMAIL is required when BOOTSTRAP_ADMIN_SUBJECT is set")
	}
	if c.InviteTTLHours < 0 || c.InviteMaxRows < 0 {
		return errors.New("INVITE_TTL_HOURS and INVITE_MAX_ROWS must not be negative")
	}

	// Strict checks for production
	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			return errors.New("DB_SSLMODE must enable TLS in production")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}

// MembershipPolicy builds the trial policy from MEMBERSHIP_TIMEZONE, TRIAL_CUTOFF and STUDENT_TRIAL_MONTHS.
func (c *Config) MembershipPolicy() (membership.Policy, error) {
	p := membership.DefaultPolicy()

	if tz := strings.TrimSpace(c.MembershipTimezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return p, fmt.Errorf("MEMBERSHIP_TIMEZONE %q: %w", tz, err)
		}
		p.Location = loc
	}
	if c.TrialCutoff != "" {
		month, day, err := membership.ParseCutoff(c.TrialCutoff)
		if err != nil {
			return p, fmt.Errorf("TRIAL_CUTOFF: %w", err)
		}
		p.CutoffMonth, p.CutoffDay = month, day
	}
	if c.StudentTrialMonths > 0 {
		p.StudentTrialMonths = c.StudentTrialMonths
	}
	return p, p.Validate()
}

// SweepEnabled reports whether the in-process expiry sweep is scheduled.
// EXPIRY_SWEEP_CRON=off leaves sweeping to tipactl.
func (c *Config) SweepEnabled() bool {
	return c.ExpirySweepCron != "" && !strings.EqualFold(c.ExpirySweepCron, "off")
}

// InviteTTL is how long an emailed invite stays claimable.
func (c *Config) InviteTTL() time.Duration {
	if c.InviteTTLHours <= 0 {
		return 14 * 24 * time.Hour
	}
	return time.Duration(c.InviteTTLHours) * time.Hour
}

// Origins returns ALLOWED_ORIGINS with empty entries and padding removed.
func (c *Config) Origins() string {
	parts := strings.Split(c.AllowedOrigins, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ",")
}
