package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode              string        `mapstructure:"mode"`
	ServerMode        string        `mapstructure:"server_mode"`
	Port              int           `mapstructure:"port"`
	Secret            string        `mapstructure:"secret"`
	HandshakeBase     string        `mapstructure:"handshake_base"`
	DefaultVoiceRange float64       `mapstructure:"default_voice_range"`
	DistanceFactor    float64       `mapstructure:"distance_factor"`
	RolloffFactor     float64       `mapstructure:"rolloff_factor"`
	ReadLimit         int64         `mapstructure:"read_limit"`
	PingPeriod        time.Duration `mapstructure:"ping_period"`
}

func Load(env string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if env == "" {
		env = os.Getenv("CONFIG_ENV")
	}
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("server_mode", "exclusive")
	v.SetDefault("port", 8080)
	v.SetDefault("handshake_base", "http://localhost:8080/handshake")
	v.SetDefault("default_voice_range", 10.0)
	v.SetDefault("distance_factor", 1.0)
	v.SetDefault("rolloff_factor", 1.0)
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Str("server_mode", cfg.ServerMode).Int("port", cfg.Port).Msg("configuration ready")
	return &cfg, nil
}
