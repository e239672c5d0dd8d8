package config

import (
	"errors"
	"log/slog"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"

	"github.com/angeloszaimis/backup-config/internal/httpserver"
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
	EnvPrefix = "BACKUP_CONFIG"
	FileName  = "backup-config"

	DefaultAddress    = ":8080"
	DefaultNamespace  = "cf-mysql-backup"
	DefaultClientLink = "mysql-backup-tool"
)

// Setting keys, shared with the command line flag bindings.
const (
	KeyLogLevel    = "logging.level"
	KeyEnvironment = "server.environment"
	KeyAddress     = "server.address"
	KeyNamespace   = "render.namespace"
	KeyOutputDir   = "render.output_dir"
	KeyClientLink  = "render.client_link"
)

var identifier = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

type ServerConfig struct {
	Address     string `mapstructure:"address"`
	Environment string `mapstructure:"environment"`
}

type RenderConfig struct {
	Namespace  string `mapstructure:"namespace"`
	OutputDir  string `mapstructure:"output_dir"`
	ClientLink string `mapstructure:"client_link"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Render  RenderConfig  `mapstructure:"render"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SetDefaults registers the default of every setting on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyEnvironment, EnvDev)
	v.SetDefault(KeyAddress, DefaultAddress)
	v.SetDefault(KeyLogLevel, LogLevelInfo)
	v.SetDefault(KeyNamespace, DefaultNamespace)
	v.SetDefault(KeyOutputDir, "")
	v.SetDefault(KeyClientLink, DefaultClientLink)
}

// Load reads settings into v from defaults, an optional backup-config.yaml in
// ./config or the working directory, and BACKUP_CONFIG_* environment
// variables. An explicitly configured file must exist. A nil v uses a fresh
// instance.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)

	if v.ConfigFileUsed() == "" {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Debug("config file not found, using defaults and environment variables")
	} else {
		slog.Debug("loaded config file", slog.String("file", v.ConfigFileUsed()))
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
					validation.Field(&sc.Environment,
						validation.Required,
						validation.In(EnvDev, EnvStaging, EnvProd),
					),
					validation.Field(&sc.Address,
						validation.Required,
						validation.By(httpserver.ValidateAddress),
					),
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
		validation.Field(&c.Render,
			validation.Required,
			validation.By(func(value interface{}) error {
				rc, ok := value.(RenderConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a RenderConfig")
				}
				return validation.ValidateStruct(&rc,
					validation.Field(&rc.Namespace,
						validation.Required,
						validation.Match(identifier),
					),
					validation.Field(&rc.ClientLink,
						validation.Required,
						validation.Match(identifier),
					),
					validation.Field(&rc.OutputDir,
						validation.By(validateDir),
					),
				)
			}),
		),
	)
}

func validateDir(value interface{}) error {
	dir, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if strings.ContainsRune(dir, 0) {
		return validation.NewError("validation_invalid_dir", "must be a valid path")
	}

	return nil
}
