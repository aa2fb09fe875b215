package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"

	ProductsMongo  = "mongo"
	ProductsScylla = "scylla"
)

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Host     string
	Password string
}

type ElasticConfig struct {
	URL      string
	User     string
	Password string
	Index    string
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	URLTTL    time.Duration
}

type ScyllaConfig struct {
	Hosts      []string
	Keyspace   string
	Username   string
	Password   string
	SSLEnabled bool
	CACertPath string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type OAuthConfig struct {
	SessionSecret        string
	BaseURL              string
	GoogleClientID       string
	GoogleClientSecret   string
	FacebookClientID     string
	FacebookClientSecret string
}

type Config struct {
	Port            string
	AppEnv          string
	StoreDriver     string
	ProductsBackend string
	FrontendURL     string

	JWTSecret string
	JWTTTL    time.Duration

	DefaultAddress       string
	DefaultWalletMoney   float64
	DefaultPaymentOption string
	CheckoutMaxRetries   int
	ProductsSeedFile     string

	Mongo   MongoConfig
	Redis   RedisConfig
	Elastic ElasticConfig
	MinIO   MinIOConfig
	Scylla  ScyllaConfig
	Stripe  StripeConfig
	SMTP    SMTPConfig
	OAuth   OAuthConfig
}

// Load charge .env s'il existe puis lit les variables d'environnement
func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé, on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
	return FromEnv()
}

func FromEnv() Config {
	return Config{
		Port:            getEnv("PORT", "8080"),
		AppEnv:          getEnv("APP_ENV", "development"),
		StoreDriver:     strings.ToLower(getEnv("STORE_DRIVER", StoreMongo)),
		ProductsBackend: strings.ToLower(getEnv("PRODUCTS_BACKEND", ProductsMongo)),
		FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:3000"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTTTL:    getDuration("JWT_TTL", 24*time.Hour),

		DefaultAddress:       getEnv("DEFAULT_ADDRESS", "ADDRESS_NOT_SET"),
		DefaultWalletMoney:   getFloat("DEFAULT_WALLET_MONEY", 500),
		DefaultPaymentOption: getEnv("DEFAULT_PAYMENT_OPTION", "PAYMENT_OPTION_DEFAULT"),
		CheckoutMaxRetries:   getInt("CHECKOUT_MAX_RETRIES", 3),
		ProductsSeedFile:     os.Getenv("PRODUCTS_SEED_FILE"),

		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
			Database: getEnv("MONGO_DATABASE", "qart"),
		},
		Redis: RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		Elastic: ElasticConfig{
			URL:      os.Getenv("ELASTIC_URL"),
			User:     os.Getenv("ELASTIC_USER"),
			Password: os.Getenv("ELASTIC_PASSWORD"),
			Index:    getEnv("ELASTIC_INDEX", "products"),
		},
		MinIO: MinIOConfig{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    getEnv("MINIO_BUCKET", "qart-images"),
			Region:    os.Getenv("MINIO_REGION"),
			UseSSL:    getBool("MINIO_USE_SSL", false),
			URLTTL:    getDuration("MINIO_URL_TTL", 15*time.Minute),
		},
		Scylla: ScyllaConfig{
			Hosts:      splitList(os.Getenv("SCYLLA_HOSTS")),
			Keyspace:   getEnv("SCYLLA_KEYSPACE", "qart_products"),
			Username:   os.Getenv("SCYLLA_USERNAME"),
			Password:   os.Getenv("SCYLLA_PASSWORD"),
			SSLEnabled: getBool("SCYLLA_SSL_ENABLED", false),
			CACertPath: os.Getenv("SCYLLA_SSL_CA_PATH"),
		},
		Stripe: StripeConfig{
			SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
			Currency:      getEnv("STRIPE_CURRENCY", "eur"),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("MAIL_FROM", "noreply@qart.io"),
		},
		OAuth: OAuthConfig{
			SessionSecret:        os.Getenv("SESSION_SECRET"),
			BaseURL:              getEnv("BASE_URL", "http://localhost:8080"),
			GoogleClientID:       os.Getenv("GOOGLE_CLIENT_ID"),
			GoogleClientSecret:   os.Getenv("GOOGLE_CLIENT_SECRET"),
			FacebookClientID:     os.Getenv("FACEBOOK_CLIENT_ID"),
			FacebookClientSecret: os.Getenv("FACEBOOK_CLIENT_SECRET"),
		},
	}
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️ %s invalide (%q), valeur par défaut %d", key, v, fallback)
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("⚠️ %s invalide (%q), valeur par défaut %v", key, v, fallback)
		return fallback
	}
	return f
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("⚠️ %s invalide (%q), valeur par défaut %s", key, v, fallback)
		return fallback
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
