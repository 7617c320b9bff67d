package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Pacing    PacingConfig
	Proxy     ProxyConfig
	Publisher PublisherConfig
	Platforms PlatformsConfig
	Browser   BrowserConfig
	Storage   StorageConfig
	Notify    NotifyConfig
	Cache     CacheConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres or sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	Path            string // sqlite file path
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	LogQueries      bool
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// PacingConfig holds the two randomized delay bands applied during
// publishing: per-action pauses inside a browser session and per-post
// pauses between publish cycles
type PacingConfig struct {
	ActionMin time.Duration
	ActionMax time.Duration
	PostMin   time.Duration
	PostMax   time.Duration
}

// ProxyConfig holds outbound proxy rotation settings
type ProxyConfig struct {
	File          string // one proxy URL per line, empty = direct connections
	FailThreshold int
	Cooldown      time.Duration
}

// PublisherConfig holds orchestrator settings
type PublisherConfig struct {
	MaxAttempts     int
	Backoff         string // linear or exponential
	BackoffInterval time.Duration
	SweepInterval   time.Duration // how often scheduled publications are promoted
	WorkersPerSite  int
}

// PlatformCredentials holds one marketplace account
type PlatformCredentials struct {
	Email    string
	Password string
}

// PlatformsConfig holds per-marketplace accounts
type PlatformsConfig struct {
	Vinted    PlatformCredentials
	Leboncoin PlatformCredentials
}

// BrowserConfig holds automation browser settings
type BrowserConfig struct {
	Headless    bool
	NoSandbox   bool
	StepTimeout time.Duration
}

// StorageConfig holds photo storage settings
type StorageConfig struct {
	Backend         string // s3 or filesystem
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UsePathStyle    bool
	LocalRoot       string // filesystem backend root
	BaseURL         string // filesystem backend public URL
}

// NotifyConfig holds publication outcome notification settings
type NotifyConfig struct {
	WebhookURL string
	SMTP       SMTPConfig
	NATS       NATSConfig
}

// SMTPConfig holds outgoing mail settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// NATSConfig holds the event stream settings
type NATSConfig struct {
	URL string
}

// CacheConfig holds classification preview cache settings
type CacheConfig struct {
	Backend string // redis or memory
	TTL     time.Duration
}

// Load loads configuration from TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with CROSSPOST_ prefix (e.g., CROSSPOST_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine, defaults and env vars cover it
	}

	v.SetEnvPrefix("CROSSPOST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			Path:            v.GetString("database.path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			LogQueries:      v.GetBool("database.log_queries"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Pacing: PacingConfig{
			ActionMin: v.GetDuration("pacing.action_min"),
			ActionMax: v.GetDuration("pacing.action_max"),
			PostMin:   v.GetDuration("pacing.post_min"),
			PostMax:   v.GetDuration("pacing.post_max"),
		},
		Proxy: ProxyConfig{
			File:          v.GetString("proxy.file"),
			FailThreshold: v.GetInt("proxy.fail_threshold"),
			Cooldown:      v.GetDuration("proxy.cooldown"),
		},
		Publisher: PublisherConfig{
			MaxAttempts:     v.GetInt("publisher.max_attempts"),
			Backoff:         v.GetString("publisher.backoff"),
			BackoffInterval: v.GetDuration("publisher.backoff_interval"),
			SweepInterval:   v.GetDuration("publisher.sweep_interval"),
			WorkersPerSite:  v.GetInt("publisher.workers_per_site"),
		},
		Platforms: PlatformsConfig{
			Vinted: PlatformCredentials{
				Email:    v.GetString("platforms.vinted.email"),
				Password: v.GetString("platforms.vinted.password"),
			},
			Leboncoin: PlatformCredentials{
				Email:    v.GetString("platforms.leboncoin.email"),
				Password: v.GetString("platforms.leboncoin.password"),
			},
		},
		Browser: BrowserConfig{
			Headless:    v.GetBool("browser.headless"),
			NoSandbox:   v.GetBool("browser.no_sandbox"),
			StepTimeout: v.GetDuration("browser.step_timeout"),
		},
		Storage: StorageConfig{
			Backend:         v.GetString("storage.backend"),
			Endpoint:        v.GetString("storage.endpoint"),
			Region:          v.GetString("storage.region"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			Bucket:          v.GetString("storage.bucket"),
			UsePathStyle:    v.GetBool("storage.use_path_style"),
			LocalRoot:       v.GetString("storage.local_root"),
			BaseURL:         v.GetString("storage.base_url"),
		},
		Notify: NotifyConfig{
			WebhookURL: v.GetString("notify.webhook_url"),
			SMTP: SMTPConfig{
				Host:     v.GetString("notify.smtp.host"),
				Port:     v.GetInt("notify.smtp.port"),
				Username: v.GetString("notify.smtp.username"),
				Password: v.GetString("notify.smtp.password"),
				From:     v.GetString("notify.smtp.from"),
				To:       v.GetString("notify.smtp.to"),
			},
			NATS: NATSConfig{
				URL: v.GetString("notify.nats.url"),
			},
		},
		Cache: CacheConfig{
			Backend: v.GetString("cache.backend"),
			TTL:     v.GetDuration("cache.ttl"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "crosspost-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "crosspost"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "crosspost.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 25 << 20 // photo uploads
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Pacing.ActionMin == 0 && cfg.Pacing.ActionMax == 0 {
		cfg.Pacing.ActionMin = 2 * time.Second
		cfg.Pacing.ActionMax = 6 * time.Second
	}
	if cfg.Pacing.PostMin == 0 && cfg.Pacing.PostMax == 0 {
		cfg.Pacing.PostMin = 2 * time.Minute
		cfg.Pacing.PostMax = 5 * time.Minute
	}
	if cfg.Proxy.FailThreshold == 0 {
		cfg.Proxy.FailThreshold = 3
	}
	if cfg.Proxy.Cooldown == 0 {
		cfg.Proxy.Cooldown = 10 * time.Minute
	}
	if cfg.Publisher.MaxAttempts == 0 {
		cfg.Publisher.MaxAttempts = 3
	}
	if cfg.Publisher.Backoff == "" {
		cfg.Publisher.Backoff = "linear"
	}
	if cfg.Publisher.BackoffInterval == 0 {
		cfg.Publisher.BackoffInterval = time.Minute
	}
	if cfg.Publisher.SweepInterval == 0 {
		cfg.Publisher.SweepInterval = 30 * time.Second
	}
	if cfg.Publisher.WorkersPerSite == 0 {
		cfg.Publisher.WorkersPerSite = 1
	}
	if cfg.Browser.StepTimeout == 0 {
		cfg.Browser.StepTimeout = 30 * time.Second
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "filesystem"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "eu-west-1"
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "crosspost-photos"
	}
	if cfg.Storage.LocalRoot == "" {
		cfg.Storage.LocalRoot = "data/photos"
	}
	if cfg.Storage.BaseURL == "" {
		cfg.Storage.BaseURL = "http://localhost:" + cfg.App.Port + "/photos"
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = time.Hour
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Pacing.ActionMin < 0 || c.Pacing.ActionMax < c.Pacing.ActionMin {
		return fmt.Errorf("pacing.action_min/action_max must satisfy 0 <= min <= max")
	}
	if c.Pacing.PostMin < 0 || c.Pacing.PostMax < c.Pacing.PostMin {
		return fmt.Errorf("pacing.post_min/post_max must satisfy 0 <= min <= max")
	}

	if c.Publisher.MaxAttempts <= 0 {
		return fmt.Errorf("publisher.max_attempts must be positive")
	}
	if c.Publisher.Backoff != "linear" && c.Publisher.Backoff != "exponential" {
		return fmt.Errorf("publisher.backoff must be linear or exponential, got %q", c.Publisher.Backoff)
	}

	if c.Storage.Backend != "s3" && c.Storage.Backend != "filesystem" {
		return fmt.Errorf("storage.backend must be s3 or filesystem, got %q", c.Storage.Backend)
	}
	if c.Cache.Backend != "redis" && c.Cache.Backend != "memory" {
		return fmt.Errorf("cache.backend must be redis or memory, got %q", c.Cache.Backend)
	}

	if c.App.Env == "production" {
		if c.Database.Driver == "postgres" {
			if c.Database.Password == "" {
				return fmt.Errorf("database.password is required in production")
			}
			if c.Database.SSLMode == "disable" {
				return fmt.Errorf("database.sslmode cannot be 'disable' in production")
			}
		}
		if c.Storage.Backend == "s3" && c.Storage.AccessKeyID == "" {
			return fmt.Errorf("storage.access_key_id is required in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	return nil
}

// DSN returns the database connection string for the configured driver
func (d *DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.Path
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Credentials returns the account configured for a platform name, if any
func (p *PlatformsConfig) Credentials(platform string) (PlatformCredentials, bool) {
	switch platform {
	case "vinted":
		return p.Vinted, p.Vinted.Email != ""
	case "leboncoin":
		return p.Leboncoin, p.Leboncoin.Email != ""
	}
	return PlatformCredentials{}, false
}
