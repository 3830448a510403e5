package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string `env:"DB_PATH"   envDefault:"db.sqlite"`

	NewsAPIKey      string        `env:"NEWS_API_KEY,required,notEmpty"`
	NewsAPIBaseURL  string        `env:"NEWS_API_BASE_URL" envDefault:"https://newsapi.org/v2/everything"`
	PageSize        int           `env:"PAGE_SIZE"         envDefault:"10"`
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT"  envDefault:"10s"`

	Alpha         float64 `env:"RANK_ALPHA"     envDefault:"0.1"`
	Epsilon       float64 `env:"RANK_EPSILON"   envDefault:"0.2"`
	TrendWeight   float64 `env:"TREND_WEIGHT"   envDefault:"0.2"`
	RecencyWeight float64 `env:"RECENCY_WEIGHT" envDefault:"0.5"`
	SessionWindow int     `env:"SESSION_WINDOW" envDefault:"5"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
