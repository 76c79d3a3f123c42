package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Security  SecurityConfig  `json:"security"`
	Redis     RedisConfig     `json:"redis"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Storage   StorageConfig   `json:"storage"`
	Email     EmailConfig     `json:"email"`
	Workflow  WorkflowConfig  `json:"workflow"`
	Logging   LoggingConfig   `json:"logging"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Cache     CacheConfig     `json:"cache"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string   `json:"host"`
	Port         int      `json:"port"`
	Environment  string   `json:"environment"`
	ReadTimeout  Duration `json:"read_timeout"`
	WriteTimeout Duration `json:"write_timeout"`
	IdleTimeout  Duration `json:"idle_timeout"`
	CORSOrigins  []string `json:"cors_origins"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host           string   `json:"host"`
	Port           int      `json:"port"`
	User           string   `json:"user"`
	Password       string   `json:"password"`
	DBName         string   `json:"db_name"`
	SSLMode        string   `json:"ssl_mode"`
	MaxConnections int      `json:"max_connections"`
	MaxIdleConns   int      `json:"max_idle_conns"`
	MaxLifetime    Duration `json:"max_lifetime"`
	AutoMigrate    bool     `json:"auto_migrate"`
}

type SecurityConfig struct {
	JWTSecret  string   `json:"jwt_secret"`
	TokenTTL   Duration `json:"token_ttl"`
	BcryptCost int      `json:"bcrypt_cost"`
}

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// RateLimitConfig limits are per key per minute.
type RateLimitConfig struct {
	LoginPerMinute int `json:"login_per_minute"`
	ApplyPerMinute int `json:"apply_per_minute"`
}

type StorageConfig struct {
	Bucket       string   `json:"bucket"`
	Region       string   `json:"region"`
	Endpoint     string   `json:"endpoint"`
	AccessKey    string   `json:"access_key"`
	SecretKey    string   `json:"secret_key"`
	UsePathStyle bool     `json:"use_path_style"`
	PresignTTL   Duration `json:"presign_ttl"`
	MaxFileSize  int64    `json:"max_file_size"`
}

type EmailConfig struct {
	Enabled     bool   `json:"enabled"`
	Region      string `json:"region"`
	FromAddress string `json:"from_address"`
}

// WorkflowConfig toggles transition-graph enforcement.
type WorkflowConfig struct {
	StrictTransitions bool `json:"strict_transitions"`
}

type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

type SchedulerConfig struct {
	DeadlineReminderCron string   `json:"deadline_reminder_cron"`
	ReminderWindow       Duration `json:"reminder_window"`
}

// CacheConfig controls in-process caching. A zero TTL disables it.
type CacheConfig struct {
	PublicProgramsTTL Duration `json:"public_programs_ttl"`
}

// Duration accepts "30s"-style strings in JSON.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		d.Duration = parsed
		return nil
	default:
		return errors.New("invalid duration")
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			Environment:  "development",
			ReadTimeout:  Duration{15 * time.Second},
			WriteTimeout: Duration{30 * time.Second},
			IdleTimeout:  Duration{60 * time.Second},
			CORSOrigins:  []string{"http://localhost:5173"},
		},
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           5432,
			User:           os.Getenv("USER"),
			DBName:         "growf",
			SSLMode:        "disable",
			MaxConnections: 25,
			MaxIdleConns:   5,
			MaxLifetime:    Duration{30 * time.Minute},
			AutoMigrate:    true,
		},
		Security: SecurityConfig{
			TokenTTL:   Duration{24 * time.Hour},
			BcryptCost: 12,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		RateLimit: RateLimitConfig{
			LoginPerMinute: 10,
			ApplyPerMinute: 5,
		},
		Storage: StorageConfig{
			Bucket:      "growf-documents",
			Region:      "eu-west-3",
			PresignTTL:  Duration{15 * time.Minute},
			MaxFileSize: 10 << 20,
		},
		Email: EmailConfig{
			Region:      "eu-west-3",
			FromAddress: "no-reply@growf.fr",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Scheduler: SchedulerConfig{
			DeadlineReminderCron: "0 8 * * *",
			ReminderWindow:       Duration{72 * time.Hour},
		},
		Cache: CacheConfig{
			PublicProgramsTTL: Duration{30 * time.Second},
		},
	}
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	config := Default()

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	overrideWithEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func overrideWithEnv(config *Config) {
	setString(&config.Server.Host, "SERVER_HOST")
	setInt(&config.Server.Port, "SERVER_PORT")
	setString(&config.Server.Environment, "APP_ENV")
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		config.Server.CORSOrigins = splitList(origins)
	}

	setString(&config.Database.Host, "DATABASE_HOST")
	setInt(&config.Database.Port, "DATABASE_PORT")
	setString(&config.Database.User, "DATABASE_USER")
	setString(&config.Database.Password, "DATABASE_PASSWORD")
	setString(&config.Database.DBName, "DATABASE_DBNAME")
	setString(&config.Database.SSLMode, "DATABASE_SSLMODE")
	setBool(&config.Database.AutoMigrate, "DATABASE_AUTO_MIGRATE")

	setString(&config.Security.JWTSecret, "JWT_SECRET")
	setDuration(&config.Security.TokenTTL, "JWT_TTL")

	setBool(&config.Redis.Enabled, "REDIS_ENABLED")
	setString(&config.Redis.Addr, "REDIS_ADDR")
	setString(&config.Redis.Password, "REDIS_PASSWORD")

	setString(&config.Storage.Bucket, "S3_BUCKET")
	setString(&config.Storage.Region, "AWS_REGION")
	setString(&config.Storage.Endpoint, "S3_ENDPOINT")
	setString(&config.Storage.AccessKey, "AWS_ACCESS_KEY_ID")
	setString(&config.Storage.SecretKey, "AWS_SECRET_ACCESS_KEY")
	setBool(&config.Storage.UsePathStyle, "S3_USE_PATH_STYLE")

	setBool(&config.Email.Enabled, "EMAIL_ENABLED")
	setString(&config.Email.FromAddress, "EMAIL_FROM")

	setBool(&config.Workflow.StrictTransitions, "WORKFLOW_STRICT_TRANSITIONS")

	setString(&config.Logging.Level, "LOG_LEVEL")
	setString(&config.Logging.Format, "LOG_FORMAT")

	setString(&config.Scheduler.DeadlineReminderCron, "DEADLINE_REMINDER_CRON")
	setDuration(&config.Cache.PublicProgramsTTL, "PUBLIC_PROGRAMS_CACHE_TTL")
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive, got %d", c.Server.Port)
	}
	if c.Security.JWTSecret == "" {
		if !c.IsDevelopment() {
			return errors.New("security.jwt_secret is required outside development")
		}
		c.Security.JWTSecret = "growf-development-secret"
	}
	if c.Security.TokenTTL.Duration <= 0 {
		return errors.New("security.token_ttl must be positive")
	}
	if c.Scheduler.DeadlineReminderCron != "" {
		if _, err := cron.ParseStandard(c.Scheduler.DeadlineReminderCron); err != nil {
			return fmt.Errorf("invalid scheduler.deadline_reminder_cron: %w", err)
		}
	}
	return nil
}

// IsDevelopment reports whether internal error details may be exposed.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Server.Environment, "development")
}

// GetDatabaseURL returns the database connection string
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
