package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	Board   BoardConfig
	Model   ModelConfig
	Serving ServingConfig
	Logger  LoggerConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type BoardConfig struct {
	// Backend selects the board adapter: folder, bolt or postgres.
	Backend string
	// Path is the board root (folder) or database file (bolt).
	Path string
	// DSN is the postgres connection string.
	DSN string
	// AllowUnsafe permits arbitrary-code-bearing artifact formats.
	AllowUnsafe bool
}

type ModelConfig struct {
	Name    string
	Version string
}

type ServingConfig struct {
	Strict bool
}

type LoggerConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("SERVER_HOST", "127.0.0.1")
	v.SetDefault("SERVER_PORT", 8000)
	v.SetDefault("BOARD_BACKEND", "folder")
	v.SetDefault("BOARD_PATH", "./pins")
	v.SetDefault("BOARD_DSN", "")
	v.SetDefault("BOARD_ALLOW_UNSAFE", true)
	v.SetDefault("MODEL_NAME", "")
	v.SetDefault("MODEL_VERSION", "")
	v.SetDefault("SERVING_STRICT", true)
	v.SetDefault("LOGGER_LEVEL", "info")
	v.SetDefault("LOGGER_FORMAT", "json")

	// Env
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("SERVER_HOST"),
			Port: v.GetInt("SERVER_PORT"),
		},
		Board: BoardConfig{
			Backend:     v.GetString("BOARD_BACKEND"),
			Path:        v.GetString("BOARD_PATH"),
			DSN:         v.GetString("BOARD_DSN"),
			AllowUnsafe: v.GetBool("BOARD_ALLOW_UNSAFE"),
		},
		Model: ModelConfig{
			Name:    v.GetString("MODEL_NAME"),
			Version: v.GetString("MODEL_VERSION"),
		},
		Serving: ServingConfig{
			Strict: v.GetBool("SERVING_STRICT"),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("LOGGER_LEVEL"),
			Format: v.GetString("LOGGER_FORMAT"),
		},
	}

	if cfg.Model.Name == "" {
		return nil, fmt.Errorf("MODEL_NAME is required")
	}
	switch cfg.Board.Backend {
	case "folder", "bolt", "postgres":
	default:
		return nil, fmt.Errorf("unknown board backend %q", cfg.Board.Backend)
	}
	if cfg.Board.Backend == "postgres" && cfg.Board.DSN == "" {
		return nil, fmt.Errorf("BOARD_DSN is required for the postgres board")
	}

	return cfg, nil
}
