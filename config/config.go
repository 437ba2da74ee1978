package config

import (
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	// Nadlan configuration (government transaction registry client)
	Nadlan struct {
		// Base URL of the registry REST endpoint
		BaseURL string `env:"NADLAN_BASE_URL" envDefault:"https://www.nadlan.gov.il/Nadlan.REST/Main"`

		// Fixed delay between successful page fetches (seconds)
		RequestDelay int `env:"NADLAN_REQUEST_DELAY" envDefault:"2"`

		// Maximum retry attempts per page before giving up on it
		MaxRetries int `env:"NADLAN_MAX_RETRIES" envDefault:"3"`

		// Per-request timeout (seconds)
		Timeout int `env:"NADLAN_TIMEOUT" envDefault:"60"`

		// ScraperAPI-style relay key; empty means direct access
		RelayKey string `env:"SCRAPERAPI_KEY"`

		// Relay endpoint used when RelayKey is set
		RelayURL string `env:"SCRAPERAPI_URL" envDefault:"http://api.scraperapi.com"`
	}

	// Yad2 configuration (marketplace listings client)
	Yad2 struct {
		FeedURL      string `env:"YAD2_FEED_URL" envDefault:"https://gw.yad2.co.il/feed-search-legacy/realestate/forsale"`
		RequestDelay int    `env:"YAD2_REQUEST_DELAY" envDefault:"3"`
		Timeout      int    `env:"YAD2_TIMEOUT" envDefault:"30"`
	}

	// AI configuration (narrative summarizer)
	AI struct {
		APIKey    string `env:"ANTHROPIC_API_KEY"`
		BaseURL   string `env:"AI_BASE_URL" envDefault:"https://api.anthropic.com"`
		Model     string `env:"AI_MODEL" envDefault:"claude-sonnet-4-5"`
		MaxTokens int    `env:"AI_MAX_TOKENS" envDefault:"2000"`
		Timeout   int    `env:"AI_TIMEOUT" envDefault:"60"`
	}

	// Server configuration
	Server struct {
		Port     string `env:"SERVER_PORT" envDefault:"5250"`
		DBPath   string `env:"DB_PATH" envDefault:"database/realcapital.db"`
		LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	}
}

// LoadConfig reads a .env file when present and parses the environment
// into a Config. Resolution happens once per process; clients receive the
// result at construction and never probe the environment per call.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
