// Package config loads process configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	StorageJSONFile = "jsonfile"
	StorageSQLite   = "sqlite"
)

type Config struct {
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN,required,notEmpty"`

	Storage    string `env:"STORAGE" envDefault:"jsonfile"`
	DataDir    string `env:"DATA_DIR" envDefault:"data"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"data/mvpbot.db"`

	ImgflipUser string `env:"IMGFLIP_USER" envDefault:"imgflip_hubot"`
	ImgflipPass string `env:"IMGFLIP_PASS" envDefault:"imgflip_hubot"`
}

func New() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Storage != StorageJSONFile && cfg.Storage != StorageSQLite {
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}

	return cfg, nil
}
