package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Deployment modes for the platform.
const (
	ModeSaaS       = "saas"
	ModeSelfHosted = "self-hosted"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Resolver  ResolverConfig  `yaml:"resolver"`
	Auth      AuthConfig      `yaml:"auth"`
	Email     EmailConfig     `yaml:"email"`
	SMS       SMSConfig       `yaml:"sms"`
	WhatsApp  WhatsAppConfig  `yaml:"whatsapp"`
	Gallery   GalleryConfig   `yaml:"gallery"`
	Domains   DomainsConfig   `yaml:"domains"`
	Announce  AnnounceConfig  `yaml:"announce"`
	LogLevel  string          `yaml:"log_level"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// In a container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

// ResolverConfig holds tenant-resolution settings. It is constructed once
// at startup and passed into the resolver; the resolver itself never reads
// the process environment.
type ResolverConfig struct {
	// DeploymentMode is "saas" (subdomain/custom-domain routing) or
	// "self-hosted" (single wedding, no per-request lookups).
	DeploymentMode string `yaml:"deployment_mode"`
	// DefaultWeddingID is used unconditionally in self-hosted mode.
	DefaultWeddingID string `yaml:"default_wedding_id"`
	// EnableLocalhostTesting allows ?weddingId= / ?subdomain= query
	// overrides and *.localhost / *.lvh.me subdomain extraction.
	EnableLocalhostTesting bool `yaml:"enable_localhost_testing"`
	// Development marks a dev environment (same overrides as above).
	Development bool `yaml:"development"`
	// PlatformDomain is the shared base domain for tenant subdomains,
	// e.g. "vowsuite.com".
	PlatformDomain string `yaml:"platform_domain"`
	// LookupTimeoutMS bounds the per-request datastore lookup (default 2000).
	LookupTimeoutMS int `yaml:"lookup_timeout_ms"`
	// CacheTTLSeconds is the Redis read-through cache TTL for domain and
	// subdomain lookups (0 disables caching).
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`
}

// LookupTimeout returns the lookup budget as a duration.
func (c ResolverConfig) LookupTimeout() time.Duration {
	return time.Duration(c.LookupTimeoutMS) * time.Millisecond
}

// CacheTTL returns the lookup cache TTL as a duration.
func (c ResolverConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// AuthConfig holds Google OAuth authentication configuration
type AuthConfig struct {
	Enabled            bool   `yaml:"enabled"`
	GoogleClientID     string `yaml:"google_client_id"`
	GoogleClientSecret string `yaml:"google_client_secret"`
	SessionSecret      string `yaml:"session_secret"`
	CookieName         string `yaml:"cookie_name"`
	CookieMaxAge       int    `yaml:"cookie_max_age"`
}

// EmailConfig holds AWS SES settings for announcement email delivery.
type EmailConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Region         string `yaml:"region"`
	AccessKey      string `yaml:"access_key"`
	SecretKey      string `yaml:"secret_key"`
	FromEmail      string `yaml:"from_email"`
	FromName       string `yaml:"from_name"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c EmailConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SMSConfig holds the SMS gateway settings.
type SMSConfig struct {
	Enabled        bool   `yaml:"enabled"`
	BaseURL        string `yaml:"base_url"`
	AccountSID     string `yaml:"account_sid"`
	AuthToken      string `yaml:"auth_token"`
	FromNumber     string `yaml:"from_number"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c SMSConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// WhatsAppConfig holds the WhatsApp Business API settings.
type WhatsAppConfig struct {
	Enabled        bool   `yaml:"enabled"`
	BaseURL        string `yaml:"base_url"`
	PhoneNumberID  string `yaml:"phone_number_id"`
	AccessToken    string `yaml:"access_token"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c WhatsAppConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GalleryConfig holds S3/CDN settings for wedding photo galleries.
type GalleryConfig struct {
	Enabled    bool   `yaml:"enabled"`
	S3Bucket   string `yaml:"s3_bucket"`
	AWSRegion  string `yaml:"aws_region"`
	CDNDomain  string `yaml:"cdn_domain"`
	AWSProfile string `yaml:"aws_profile"` // Empty string uses default credential chain
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c GalleryConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return ""
		}
		return envProfile
	}
	// On ECS/Lambda, don't use a profile - use IAM role
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// DomainsConfig holds custom-domain provisioning settings.
type DomainsConfig struct {
	// ProvisionAWS enables ACM certificate + CloudFront distribution
	// provisioning for verified custom domains.
	ProvisionAWS bool   `yaml:"provision_aws"`
	AWSRegion    string `yaml:"aws_region"`
	HostedZoneID string `yaml:"hosted_zone_id"`
	// OriginServer is the CloudFront origin for custom-domain traffic.
	OriginServer string `yaml:"origin_server"`
}

// AnnounceConfig holds announcement fan-out settings.
type AnnounceConfig struct {
	Enabled             bool `yaml:"enabled"`
	TickIntervalSeconds int  `yaml:"tick_interval_seconds"`
	BatchSize           int  `yaml:"batch_size"`
	// PerChannelPerMinute caps sends per channel to avoid provider
	// rate-limit penalties.
	PerChannelPerMinute int `yaml:"per_channel_per_minute"`
}

// TickInterval returns the dispatcher tick interval as a duration.
func (c AnnounceConfig) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalSeconds) * time.Second
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	// Defaults that must survive an absent yaml key. Unmarshal only
	// overwrites fields the document mentions, so an explicit false wins.
	cfg.Resolver.EnableLocalhostTesting = true
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Resolver.DeploymentMode == "" {
		cfg.Resolver.DeploymentMode = ModeSaaS
	}
	if cfg.Resolver.LookupTimeoutMS == 0 {
		cfg.Resolver.LookupTimeoutMS = 2000
	}
	if cfg.Resolver.CacheTTLSeconds == 0 {
		cfg.Resolver.CacheTTLSeconds = 60
	}
	if cfg.Email.TimeoutSeconds == 0 {
		cfg.Email.TimeoutSeconds = 30
	}
	if cfg.Email.Region == "" {
		cfg.Email.Region = "us-east-1"
	}
	if cfg.SMS.TimeoutSeconds == 0 {
		cfg.SMS.TimeoutSeconds = 30
	}
	if cfg.WhatsApp.TimeoutSeconds == 0 {
		cfg.WhatsApp.TimeoutSeconds = 30
	}
	if cfg.WhatsApp.BaseURL == "" {
		cfg.WhatsApp.BaseURL = "https://graph.facebook.com/v19.0"
	}
	if cfg.Domains.AWSRegion == "" {
		cfg.Domains.AWSRegion = "us-east-1"
	}
	if cfg.Announce.TickIntervalSeconds == 0 {
		cfg.Announce.TickIntervalSeconds = 15
	}
	if cfg.Announce.BatchSize == 0 {
		cfg.Announce.BatchSize = 100
	}
	if cfg.Announce.PerChannelPerMinute == 0 {
		cfg.Announce.PerChannelPerMinute = 300
	}
	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = "vowsuite_session"
	}
	if cfg.Auth.CookieMaxAge == 0 {
		cfg.Auth.CookieMaxAge = 86400
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in production.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cfg.Redis.URL = redisURL
		cfg.Redis.Enabled = true
	}

	// Resolver overrides
	if mode := os.Getenv("DEPLOYMENT_MODE"); mode != "" {
		cfg.Resolver.DeploymentMode = mode
	}
	if id := os.Getenv("DEFAULT_WEDDING_ID"); id != "" {
		cfg.Resolver.DefaultWeddingID = id
	}
	if v := os.Getenv("ENABLE_LOCALHOST_TESTING"); v != "" {
		cfg.Resolver.EnableLocalhostTesting = v == "true" || v == "1"
	}
	if os.Getenv("ENVIRONMENT") == "development" || os.Getenv("DEV_MODE") == "true" {
		cfg.Resolver.Development = true
	}
	if v := os.Getenv("PLATFORM_DOMAIN"); v != "" {
		cfg.Resolver.PlatformDomain = v
	}

	// Auth overrides
	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		cfg.Auth.GoogleClientID = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		cfg.Auth.GoogleClientSecret = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		cfg.Auth.SessionSecret = v
	}

	// Provider credential overrides
	if v := os.Getenv("AWS_SES_ACCESS_KEY"); v != "" {
		cfg.Email.AccessKey = v
	}
	if v := os.Getenv("AWS_SES_SECRET_KEY"); v != "" {
		cfg.Email.SecretKey = v
	}
	if v := os.Getenv("AWS_SES_REGION"); v != "" {
		cfg.Email.Region = v
	}
	if v := os.Getenv("SMS_ACCOUNT_SID"); v != "" {
		cfg.SMS.AccountSID = v
	}
	if v := os.Getenv("SMS_AUTH_TOKEN"); v != "" {
		cfg.SMS.AuthToken = v
	}
	if v := os.Getenv("WHATSAPP_ACCESS_TOKEN"); v != "" {
		cfg.WhatsApp.AccessToken = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	return cfg, nil
}
