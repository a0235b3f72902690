package logger

// Config controls how New builds a logger.
type Config struct {
	// Level is the minimum level: debug, info, warn, error or fatal.
	Level string `env:"LOG_LEVEL" yaml:"level"`
	// Development disables sampling and enables zap development mode.
	Development bool `env:"LOG_DEVELOPMENT" yaml:"development"`
	// OutputPaths are zap sink URLs or file paths.
	OutputPaths []string `yaml:"output_paths"`
	// Service is attached to every entry as the "service" field.
	Service string `yaml:"-"`
}

// DefaultLevel is used when Config.Level is empty.
const DefaultLevel = "info"

// SetDefaults fills in unset values.
func (c *Config) SetDefaults() {
	if c.Level == "" {
		c.Level = DefaultLevel
	}
	if len(c.OutputPaths) == 0 {
		c.OutputPaths = []string{"stdout"}
	}
}
