package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DEFAULT_PORT             = 3000
	DEFAULT_SHUTDOWN_TIMEOUT = 5 * time.Second
	CONFIG_NAME              = "config"
)

type Config struct {
	DatabaseURL     string        `mapstructure:"database_url"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	MaxConnections  int           `mapstructure:"max_connections"`
	Metrics         bool          `mapstructure:"metrics"`
	MDNS            bool          `mapstructure:"mdns"`
	LogFile         string        `mapstructure:"log_file"`
	Verbose         bool          `mapstructure:"verbose"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database_url must not be empty")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d is out of range", c.Port)
	}
	if c.MaxConnections < 0 {
		return fmt.Errorf("max_connections must not be negative, got %d", c.MaxConnections)
	}

	return nil
}

// envKeys maps configuration keys to the environment variables they are
// read from. DATABASE_URL and PORT are the names deployments already use.
var envKeys = map[string]string{
	"database_url":     "DATABASE_URL",
	"host":             "HOST",
	"port":             "PORT",
	"max_connections":  "MAX_CONNECTIONS",
	"metrics":          "METRICS_ENABLED",
	"mdns":             "MDNS_ENABLED",
	"log_file":         "LOG_FILE",
	"verbose":          "VERBOSE",
	"shutdown_timeout": "SHUTDOWN_TIMEOUT",
}

// flagKeys maps configuration keys to command line flags.
var flagKeys = map[string]string{
	"database_url":    "database-url",
	"host":            "host",
	"port":            "port",
	"max_connections": "max-connections",
	"metrics":         "metrics",
	"mdns":            "mdns",
	"log_file":        "log-file",
	"verbose":         "verbose",
}

// Load resolves the configuration with the precedence flags > environment >
// config file > defaults. configFile may be empty, in which case config.yaml
// is looked up in the working directory, the user config dir and
// /etc/smart-air-monitor; a missing file is not an error.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetDefault("database_url", DefaultDatabaseURL())
	v.SetDefault("host", "")
	v.SetDefault("port", DEFAULT_PORT)
	v.SetDefault("max_connections", 0)
	v.SetDefault("metrics", true)
	v.SetDefault("mdns", false)
	v.SetDefault("log_file", "")
	v.SetDefault("verbose", false)
	v.SetDefault("shutdown_timeout", DEFAULT_SHUTDOWN_TIMEOUT)

	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if flags != nil {
		for key, name := range flagKeys {
			if flag := flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
				}
			}
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(CONFIG_NAME)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath("/etc/" + APP_DIR_NAME)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read configuration: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}
