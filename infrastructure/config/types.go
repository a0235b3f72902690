package config

import (
	"strconv"
	"time"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host         string        `env:"SERVER_HOST"   yaml:"host"`
	Port         int           `env:"PORT"          yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// Address returns host:port.
func (c *ServerConfig) Address() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// SetDefaults applies listener defaults.
func (c *ServerConfig) SetDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 60 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 120 * time.Second
	}
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Address  string `env:"REDIS_ADDRESS"  yaml:"address"`
	Password string `env:"REDIS_PASSWORD" yaml:"password"`
	DB       int    `env:"REDIS_DB"       yaml:"db"`
}

// SetDefaults applies Redis defaults.
func (c *RedisConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = "localhost:6379"
	}
}
