package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Config holds the static settings the service needs to run. Values come from
// the environment; a local .env file is loaded first when present so local
// runs do not need exported variables.
type Config struct {
	RunLocal bool   `env:"RUN_LOCAL" envDefault:"false"`
	Address  string `env:"ADDRESS" envDefault:":8080"`

	OrdersTable      string `env:"ORDERS_TABLE,required"`
	TablesTable      string `env:"TABLES_TABLE,required"`
	MenuTable        string `env:"MENU_TABLE,required"`
	IngredientsTable string `env:"INGREDIENTS_TABLE,required"`
	PromotionsTable  string `env:"PROMOTIONS_TABLE,required"`
	LoyaltyTable     string `env:"LOYALTY_TABLE,required"`
	IdempotencyTable string `env:"IDEMPOTENCY_TABLE,required"`

	OrdersQueueURL  string `env:"ORDERS_QUEUE_URL,required"`
	OrdersStreamARN string `env:"ORDERS_STREAM_ARN"`

	JWTSecret string `env:"JWT_SECRET,required"`

	IdempotencyTTL  time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"48h"`
	MetricNamespace string        `env:"METRIC_NAMESPACE" envDefault:"Plateboard"`
}

// Load reads the .env file (if any) and parses the environment into a Config.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments configure the environment directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
