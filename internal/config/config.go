// Package config loads application configuration from an optional
// config.yaml, KRXSNAP_* environment variables, and built-in defaults,
// in that order of precedence.
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
	DataDir string       `yaml:"data_dir" mapstructure:"data_dir"`
	KRX     KRXConfig    `yaml:"krx" mapstructure:"krx"`
	KOFIA   KOFIAConfig  `yaml:"kofia" mapstructure:"kofia"`
	Server  ServerConfig `yaml:"server" mapstructure:"server"`
	Log     LogConfig    `yaml:"log" mapstructure:"log"`
}

// KRXConfig configures the statistics portal client.
type KRXConfig struct {
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	Referer      string  `yaml:"referer" mapstructure:"referer"`
	UserAgent    string  `yaml:"user_agent" mapstructure:"user_agent"`
	Rate         float64 `yaml:"rate" mapstructure:"rate"`
	SettleMillis int     `yaml:"settle_millis" mapstructure:"settle_millis"`
	FirstYear    int     `yaml:"first_year" mapstructure:"first_year"`
}

// KOFIAConfig configures the fund-fee disclosure client.
type KOFIAConfig struct {
	URL            string `yaml:"url" mapstructure:"url"`
	Filter         string `yaml:"filter" mapstructure:"filter"`
	LookbackMonths int    `yaml:"lookback_months" mapstructure:"lookback_months"`
}

// ServerConfig configures the static artifact server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from config.yaml (optional), environment,
// and defaults.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("KRXSNAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data_dir", "data")
	v.SetDefault("krx.base_url", "http://data.krx.co.kr/comm/bldAttendant/getJsonData.cmd")
	v.SetDefault("krx.referer", "http://data.krx.co.kr/")
	v.SetDefault("krx.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")
	v.SetDefault("krx.rate", 2.0)
	v.SetDefault("krx.settle_millis", 500)
	v.SetDefault("krx.first_year", 2002)
	v.SetDefault("kofia.url", "https://dis.kofia.or.kr/proframeWeb/XMLSERVICES/")
	v.SetDefault("kofia.filter", "상장지수")
	v.SetDefault("kofia.lookback_months", 3)
	v.SetDefault("server.port", 8080)
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
