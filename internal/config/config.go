// Package config loads the engine's credentials from the environment and
// its per-channel signal profiles from a YAML table.
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the runtime credentials and toggles read from the
// environment (and .env, if present).
type Config struct {
	BinanceAPIKey    string
	BinanceAPISecret string
	TelegramToken    string
	IsTestnet        bool
	DefaultLeverage  int
	HealthPort       string
}

// Load reads .env (if present, warning rather than failing when it is
// not — this engine is just as happy with credentials already in the
// process environment) and returns the parsed Config.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("config: .env file not found, relying on process environment")
	}

	apiSecret := os.Getenv("BINANCE_API_SECRET")
	if apiSecret == "" {
		apiSecret = os.Getenv("BINANCE_SECRET_KEY")
	}

	return &Config{
		BinanceAPIKey:    os.Getenv("BINANCE_API_KEY"),
		BinanceAPISecret: apiSecret,
		TelegramToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		IsTestnet:        os.Getenv("BINANCE_TESTNET") == "true",
		DefaultLeverage:  envInt("DEFAULT_LEVERAGE", 20),
		HealthPort:       envOr("HEALTH_PORT", "8090"),
	}
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
