package config

import (
	"time"

	infraconfig "github.com/isabella232/tmg-ucm/infrastructure/config"
	"github.com/isabella232/tmg-ucm/infrastructure/profiling"
	"github.com/isabella232/tmg-ucm/internal/content"
)

// Default configuration values.
const (
	defaultServiceName     = "ucm-gateway"
	defaultVersion         = "0.1.0"
	defaultContentEndpoint = "https://www.telegraph.co.uk"
	defaultUpstreamTimeout = 30 * time.Second
	defaultSiteName        = "The Telegraph"
	defaultTwitterSite     = "@Telegraph"
	defaultLoggingLevel    = "info"
)

// Config holds the application configuration.
type Config struct {
	Service   ServiceConfig            `yaml:"service"`
	Server    infraconfig.ServerConfig `yaml:"server"`
	Upstream  UpstreamConfig           `yaml:"upstream"`
	Auth      AuthConfig               `yaml:"auth"`
	Redis     infraconfig.RedisConfig  `yaml:"redis"`
	Site      SiteConfig               `yaml:"site"`
	Logging   LoggingConfig            `yaml:"logging"`
	Profiling profiling.Config         `yaml:"profiling"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name        string   `yaml:"name"`
	Version     string   `yaml:"version"`
	Debug       bool     `env:"APP_DEBUG"    yaml:"debug"`
	CORSOrigins []string `env:"CORS_ORIGINS" yaml:"cors_origins"`
}

// UpstreamConfig locates the origins behind the gateway.
type UpstreamConfig struct {
	ContentEndpoint string        `env:"CONTENT_ENDPOINT" yaml:"content_endpoint"`
	APIEndpoint     string        `env:"API_ENDPOINT"     yaml:"api_endpoint"`
	APIKey          string        `env:"API_KEY"          yaml:"api_key"`
	StaticUpstream  string        `env:"UPSTREAM"         yaml:"static_upstream"`
	CacheGen        string        `env:"CACHE_GEN"        yaml:"cache_gen"`
	ParticleHost    string        `env:"PARTICLE_HOST"    yaml:"particle_host"`
	Timeout         time.Duration `env:"UPSTREAM_TIMEOUT" yaml:"timeout"`
}

// AuthConfig holds the shared secrets. An empty secret disables the
// corresponding scheme.
type AuthConfig struct {
	UIPassword string `env:"UI_PASSWORD" yaml:"ui_password"`
	UIKey      string `env:"UI_KEY"      yaml:"ui_key"`
	JWTKey     string `env:"JWT_KEY"     yaml:"jwt_key"`
}

// SiteConfig is the identity rendered into page heads.
type SiteConfig struct {
	Name        string `yaml:"name"`
	TwitterSite string `yaml:"twitter_site"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `env:"LOG_LEVEL" yaml:"level"`
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	return infraconfig.LoadWithDefaults[Config](path, setDefaults)
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	cfg.Server.SetDefaults()
	setUpstreamDefaults(&cfg.Upstream)
	cfg.Redis.SetDefaults()
	setSiteDefaults(&cfg.Site)
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaultLoggingLevel
	}
}

func setServiceDefaults(svc *ServiceConfig) {
	if svc.Name == "" {
		svc.Name = defaultServiceName
	}
	if svc.Version == "" {
		svc.Version = defaultVersion
	}
}

func setUpstreamDefaults(up *UpstreamConfig) {
	if up.ContentEndpoint == "" {
		up.ContentEndpoint = defaultContentEndpoint
	}
	if up.ParticleHost == "" {
		up.ParticleHost = content.DefaultParticleHost
	}
	if up.Timeout == 0 {
		up.Timeout = defaultUpstreamTimeout
	}
}

func setSiteDefaults(site *SiteConfig) {
	if site.Name == "" {
		site.Name = defaultSiteName
	}
	if site.TwitterSite == "" {
		site.TwitterSite = defaultTwitterSite
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := infraconfig.ValidatePort("server.port", c.Server.Port); err != nil {
		return err
	}
	if err := infraconfig.ValidateURL("upstream.content_endpoint", c.Upstream.ContentEndpoint); err != nil {
		return err
	}
	if err := infraconfig.ValidateURL("upstream.api_endpoint", c.Upstream.APIEndpoint); err != nil {
		return err
	}
	if err := infraconfig.ValidateRequired("upstream.api_key", c.Upstream.APIKey); err != nil {
		return err
	}
	if err := infraconfig.ValidateURL("upstream.static_upstream", c.Upstream.StaticUpstream); err != nil {
		return err
	}
	if c.Upstream.Timeout < 0 {
		return &infraconfig.ValidationError{Field: "upstream.timeout", Message: "must not be negative"}
	}
	if err := infraconfig.ValidateRequired("redis.address", c.Redis.Address); err != nil {
		return err
	}
	return infraconfig.ValidateLogLevel("logging.level", c.Logging.Level)
}
