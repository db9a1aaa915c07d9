package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. Provider credentials
// live here and are handed to each adapter explicitly; nothing reads
// ambient global secrets.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Textract   ProviderConfig   `yaml:"textract" mapstructure:"textract"`
	Vision     ProviderConfig   `yaml:"vision" mapstructure:"vision"`
	Extraction ExtractionConfig `yaml:"extraction" mapstructure:"extraction"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend for the result cache and
// usage ledger.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ProviderConfig holds one OCR proxy endpoint and its credentials.
// Textract-style proxies use the key pair; Vision-style proxies use the
// API key. Either way the adapter fails fast when its credential is empty.
type ProviderConfig struct {
	Endpoint        string  `yaml:"endpoint" mapstructure:"endpoint"`
	APIKey          string  `yaml:"api_key" mapstructure:"api_key"`
	AccessKeyID     string  `yaml:"access_key_id" mapstructure:"access_key_id"`
	SecretAccessKey string  `yaml:"secret_access_key" mapstructure:"secret_access_key"`
	TimeoutSecs     int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec      float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// ExtractionConfig configures pipeline behavior.
type ExtractionConfig struct {
	MaxUploadBytes       int64   `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
	HybridConfidence     float64 `yaml:"hybrid_confidence" mapstructure:"hybrid_confidence"`
	HybridMinFields      int     `yaml:"hybrid_min_fields" mapstructure:"hybrid_min_fields"`
	RateCardPath         string  `yaml:"rate_card_path" mapstructure:"rate_card_path"`
	ProviderMaxAttempts  int     `yaml:"provider_max_attempts" mapstructure:"provider_max_attempts"`
}

// ServerConfig configures the HTTP intake server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("EXTRACT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "extract.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("extraction.max_upload_bytes", 25*1024*1024)
	v.SetDefault("extraction.hybrid_confidence", 0.7)
	v.SetDefault("extraction.hybrid_min_fields", 6)
	v.SetDefault("extraction.provider_max_attempts", 3)
	v.SetDefault("extraction.rate_card_path", "")
	v.SetDefault("textract.timeout_secs", 60)
	v.SetDefault("textract.rate_per_sec", 2)
	v.SetDefault("vision.timeout_secs", 60)
	v.SetDefault("vision.rate_per_sec", 2)

	// Credential keys get empty defaults so environment-only deployments
	// work: viper's Unmarshal only sees env values for registered keys.
	for _, key := range []string{
		"textract.endpoint", "textract.access_key_id", "textract.secret_access_key",
		"vision.endpoint", "vision.api_key",
	} {
		v.SetDefault(key, "")
	}

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
