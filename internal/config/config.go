package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config regroupe toute la configuration du service, lue depuis l'environnement.
type Config struct {
	Port           string   `env:"PORT" envDefault:"8080"`
	GinMode        string   `env:"GIN_MODE" envDefault:"debug"`
	StorageDriver  string   `env:"STORAGE_DRIVER" envDefault:"memory"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	Scylla Scylla `envPrefix:"SCYLLA_"`
	Redis  Redis  `envPrefix:"REDIS_"`
	SMTP   SMTP   `envPrefix:"SMTP_"`

	JWTSecret           string `env:"JWT_SECRET"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`

	Analytics Analytics `envPrefix:"ANALYTICS_"`
	Dashboard Dashboard `envPrefix:"DASHBOARD_"`
}

type Scylla struct {
	Hosts            []string      `env:"HOSTS" envSeparator:"," envDefault:"127.0.0.1"`
	OrdersKeyspace   string        `env:"KS_ORDERS_KEYSPACE" envDefault:"orders"`
	OrdersRole       string        `env:"KS_ORDERS_ROLE"`
	OrdersPassword   string        `env:"KS_ORDERS_PASSWORD"`
	ProductsKeyspace string        `env:"KS_PRODUCTS_KEYSPACE" envDefault:"products"`
	ProductsRole     string        `env:"KS_PRODUCTS_ROLE"`
	ProductsPassword string        `env:"KS_PRODUCTS_PASSWORD"`
	SSLEnabled       bool          `env:"SSL_ENABLED" envDefault:"false"`
	CACertPath       string        `env:"SSL_CA_PATH"`
	Timeout          time.Duration `env:"TIMEOUT" envDefault:"5s"`
	NumConns         int           `env:"NUM_CONNS" envDefault:"20"`
	CreateSchema     bool          `env:"CREATE_SCHEMA" envDefault:"false"`
}

type Redis struct {
	Host     string `env:"HOST" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type SMTP struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM" envDefault:"no-reply@storefront.local"`
}

// Enabled indique si l'envoi d'emails est configuré.
func (s SMTP) Enabled() bool {
	return s.Host != ""
}

type Analytics struct {
	LabelLayout      string        `env:"LABEL_LAYOUT" envDefault:"02.01"`
	DefaultRangeDays int           `env:"DEFAULT_RANGE_DAYS" envDefault:"30"`
	CatalogCacheTTL  time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"1h"`
}

type Dashboard struct {
	BaseURL      string        `env:"BASE_URL" envDefault:"http://localhost:8080"`
	Token        string        `env:"TOKEN"`
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"10s"`
}

const (
	StorageMemory = "memory"
	StorageScylla = "scylla"
)

// Load charge le fichier .env s'il existe puis parse la configuration.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé, on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
	return Parse()
}

// Parse lit la configuration depuis les variables d'environnement uniquement.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageMemory, StorageScylla:
	default:
		return fmt.Errorf("config: STORAGE_DRIVER inconnu %q", c.StorageDriver)
	}
	if c.Analytics.DefaultRangeDays < 1 {
		return fmt.Errorf("config: ANALYTICS_DEFAULT_RANGE_DAYS doit être >= 1")
	}
	if c.Analytics.LabelLayout == "" {
		return fmt.Errorf("config: ANALYTICS_LABEL_LAYOUT vide")
	}
	return nil
}
