// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App            AppConfig               `mapstructure:"app"`
	Camunda        CamundaConfig           `mapstructure:"camunda"`
	Database       DatabaseConfig          `mapstructure:"database"`
	Workers        map[string]WorkerConfig `mapstructure:"workers"`
	Logging        LoggingConfig           `mapstructure:"logging"`
	Recommendation RecommendationConfig    `mapstructure:"recommendation"`
	Analytics      AnalyticsConfig         `mapstructure:"analytics"`
	Catalog        CatalogConfig           `mapstructure:"catalog"`
	Notifications  NotificationsConfig     `mapstructure:"notifications"`
	Observability  ObservabilityConfig     `mapstructure:"observability"`
	Server         ServerConfig            `mapstructure:"server"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
	Migrate        bool   `mapstructure:"migrate"` // apply the catalog schema on startup
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address     string `mapstructure:"address"`
	Password    string `mapstructure:"password"`
	DB          int    `mapstructure:"db"`
	PoolSize    int    `mapstructure:"pool_size"`
	DialTimeout int    `mapstructure:"dial_timeout"` // milliseconds
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// --- Recommender Configuration ---

// RecommendationConfig tunes the hybrid recommender. Zero values fall back
// to the engine defaults.
type RecommendationConfig struct {
	ContentWeight       float64 `mapstructure:"content_weight"`
	CollaborativeWeight float64 `mapstructure:"collaborative_weight"`
	TopN                int     `mapstructure:"top_n"`
	MinConfidence       float64 `mapstructure:"min_confidence"`
	MaxConfidence       float64 `mapstructure:"max_confidence"`
	PeerThreshold       float64 `mapstructure:"peer_threshold"`
	PeerBookingPoints   float64 `mapstructure:"peer_booking_points"`
	Algorithm           string  `mapstructure:"algorithm"`
	InterestMatching    string  `mapstructure:"interest_matching"` // substring | token
}

// AnalyticsConfig selects and bounds the recommendation event log.
type AnalyticsConfig struct {
	Backend     string `mapstructure:"backend"` // memory | redis
	MaxRecords  int    `mapstructure:"max_records"`
	MaxAgeHours int    `mapstructure:"max_age_hours"`
}

// MaxAge returns the retention window; zero disables age-based pruning.
func (a AnalyticsConfig) MaxAge() time.Duration {
	return time.Duration(a.MaxAgeHours) * time.Hour
}

// CatalogConfig selects where customers, tours and bookings are read from.
type CatalogConfig struct {
	Source          string `mapstructure:"source"`            // static | postgres
	CacheTTL        int    `mapstructure:"cache_ttl"`         // milliseconds, 0 disables the snapshot cache
	ProfileCacheTTL int    `mapstructure:"profile_cache_ttl"` // milliseconds
	ToursIndex      string `mapstructure:"tours_index"`
}

func (c CatalogConfig) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Millisecond
}

func (c CatalogConfig) ProfileCacheTTLDuration() time.Duration {
	return time.Duration(c.ProfileCacheTTL) * time.Millisecond
}

// NotificationsConfig controls booking confirmations sent through SES and SNS.
type NotificationsConfig struct {
	AWSRegion    string `mapstructure:"aws_region"`
	FromEmail    string `mapstructure:"from_email"`
	EmailEnabled bool   `mapstructure:"email_enabled"`
	SMSEnabled   bool   `mapstructure:"sms_enabled"`
	SMSSenderID  string `mapstructure:"sms_sender_id"`
}

// Enabled reports whether any channel is switched on.
func (n NotificationsConfig) Enabled() bool {
	return n.EmailEnabled || n.SMSEnabled
}

type ObservabilityConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// Addr returns the listen address for the health and metrics server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}
