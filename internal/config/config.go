package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	ETL       ETLConfig       `yaml:"etl" mapstructure:"etl"`
	Reference ReferenceConfig `yaml:"reference" mapstructure:"reference"`
	HTTP      HTTPConfig      `yaml:"http" mapstructure:"http"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// ETLConfig configures the input and output locations of the pipeline.
type ETLConfig struct {
	OrdersPath string `yaml:"orders_path" mapstructure:"orders_path"`
	ItemsPath  string `yaml:"items_path" mapstructure:"items_path"`
	OutputDir  string `yaml:"output_dir" mapstructure:"output_dir"`
}

// CountrySource is one postal-code archive source. Order matters: the
// reference table is assembled in the listed order.
type CountrySource struct {
	Code string `yaml:"code" mapstructure:"code"`
	URL  string `yaml:"url" mapstructure:"url"`
}

// ReferenceConfig configures postal-code reference loading.
type ReferenceConfig struct {
	Countries []CountrySource `yaml:"countries" mapstructure:"countries"`
}

// HTTPConfig configures the archive downloader.
type HTTPConfig struct {
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// StoreConfig configures the run-audit database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the read-only output server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

const postalArchiveBase = "https://github.com/zauberware/postal-codes-json-xml-csv/raw/master/data"

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SALESETL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("etl.orders_path", "data/in/sales_order.csv")
	v.SetDefault("etl.items_path", "data/in/sales_order_item.csv")
	v.SetDefault("etl.output_dir", "data/out")
	v.SetDefault("reference.countries", []map[string]any{
		{"code": "SK", "url": postalArchiveBase + "/SK.zip"},
		{"code": "CZ", "url": postalArchiveBase + "/CZ.zip"},
		{"code": "HU", "url": postalArchiveBase + "/HU.zip"},
	})
	v.SetDefault("http.user_agent", "sales-etl/1.0")
	v.SetDefault("http.timeout_secs", 30)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "sales-etl.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
