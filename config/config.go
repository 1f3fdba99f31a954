package config

import (
	"errors"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

type ServerConfig struct {
	Address      string `mapstructure:"address" json:"address"`
	Port         int    `mapstructure:"port" json:"port"`
	Environment  string `mapstructure:"environment" json:"environment"`
	BaseURL      string `mapstructure:"base_url" json:"base_url"`
	ReadTimeout  string `mapstructure:"read_timeout" json:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout" json:"write_timeout"`
	IdleTimeout  string `mapstructure:"idle_timeout" json:"idle_timeout"`
}

// HTTPAddr is the host:port the server listens on.
func (s ServerConfig) HTTPAddr() string {
	return net.JoinHostPort(s.Address, strconv.Itoa(s.Port))
}

type LoggingConfig struct {
	Level string `mapstructure:"level" json:"level"`
}

type StoreConfig struct {
	Backend string `mapstructure:"backend" json:"backend"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" json:"allowed_origins"`
}

type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled" json:"enabled"`
	Path       string `mapstructure:"path" json:"path"`
	BufferSize int    `mapstructure:"buffer_size" json:"buffer_size"`
}

type Config struct {
	Server  ServerConfig  `mapstructure:"server" json:"server"`
	Logging LoggingConfig `mapstructure:"logging" json:"logging"`
	Store   StoreConfig   `mapstructure:"store" json:"store"`
	CORS    CORSConfig    `mapstructure:"cors" json:"cors"`
	Metrics MetricsConfig `mapstructure:"metrics" json:"metrics"`
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.environment", EnvDev)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("logging.level", LogLevelInfo)
	v.SetDefault("store.backend", StoreMemory)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.buffer_size", 1000)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// http.port and http.address were the historical property names.
	if err := v.BindEnv("server.port", "SERVER_PORT", "HTTP_PORT", "PORT"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("server.address", "SERVER_ADDRESS", "HTTP_ADDRESS"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Info("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ServerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ServerConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Address, is.Host),
					validation.Field(&sc.Port,
						validation.Required.Error("is required; set SERVER_PORT, HTTP_PORT or PORT"),
						validation.Min(1),
						validation.Max(65535),
					),
					validation.Field(&sc.Environment,
						validation.Required,
						validation.In(EnvDev, EnvStaging, EnvProd),
					),
					validation.Field(&sc.BaseURL, validation.By(validateBaseURL)),
					validation.Field(&sc.ReadTimeout, validation.Required, validation.By(validateDuration)),
					validation.Field(&sc.WriteTimeout, validation.Required, validation.By(validateDuration)),
					validation.Field(&sc.IdleTimeout, validation.Required, validation.By(validateDuration)),
				)
			}),
		),
		validation.Field(&c.Logging,
			validation.Required,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
				)
			}),
		),
		validation.Field(&c.Store,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(StoreConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a StoreConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Backend,
						validation.Required,
						validation.In(StoreMemory, StoreSQLite),
					),
				)
			}),
		),
		validation.Field(&c.CORS,
			validation.By(func(value interface{}) error {
				cc, ok := value.(CORSConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a CORSConfig")
				}
				return validation.ValidateStruct(&cc,
					validation.Field(&cc.AllowedOrigins,
						validation.Required,
						validation.Each(validation.Required),
					),
				)
			}),
		),
		validation.Field(&c.Metrics,
			validation.By(func(value interface{}) error {
				mc, ok := value.(MetricsConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a MetricsConfig")
				}
				if !mc.Enabled {
					return nil
				}
				return validation.ValidateStruct(&mc,
					validation.Field(&mc.Path,
						validation.Required,
						validation.By(validatePath),
					),
					validation.Field(&mc.BufferSize,
						validation.Required,
						validation.Min(1),
					),
				)
			}),
		),
	)
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if _, err := time.ParseDuration(durationStr); err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 2s, 5m, 1h)")
	}

	return nil
}

func validateBaseURL(value interface{}) error {
	baseURL, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if baseURL == "" {
		return nil
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}

	if parsedURL.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}

	if parsedURL.Path != "" && parsedURL.Path != "/" {
		return validation.NewError("validation_unexpected_path", "URL must not have a path")
	}

	return nil
}

func validatePath(value interface{}) error {
	path, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if !strings.HasPrefix(path, "/") {
		return validation.NewError("validation_invalid_path", "must start with /")
	}

	// The path becomes a ServeMux pattern, which panics on wildcards or spaces.
	if strings.ContainsAny(path, "{}") || strings.ContainsFunc(path, unicode.IsSpace) {
		return validation.NewError("validation_invalid_path", "must not contain braces or whitespace")
	}

	if path == "/todo" || strings.HasPrefix(path, "/todo/") || path == "/health" {
		return validation.NewError("validation_reserved_path", "collides with an application route")
	}

	return nil
}

// Timeouts returns the parsed server timeouts. Validate has already checked
// that they parse.
func (s ServerConfig) Timeouts() (read, write, idle time.Duration) {
	read, _ = time.ParseDuration(s.ReadTimeout)
	write, _ = time.ParseDuration(s.WriteTimeout)
	idle, _ = time.ParseDuration(s.IdleTimeout)
	return read, write, idle
}
