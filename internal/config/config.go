package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreRedis  = "redis"
	StoreMemory = "memory"

	ProductsMySQL = "mysql"
	ProductsHTTP  = "http"
)

type Config struct {
	HTTPAddr string
	GRPCAddr string
	LogLevel string

	CartStore     string
	RedisAddr     string
	RedisPassword string
	RedisPrefix   string

	ProductBackend string
	MySQLDSN       string
	ProductAPIURL  string
	ProductTimeout time.Duration

	RabbitMQURL string

	CheckoutCompensate   bool
	CheckoutStockGuard   bool
	MissingProductPolicy string
	ItemsRefreshInterval time.Duration
	ShutdownTimeout      time.Duration
}

func Load() (Config, error) {
	cfg := Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		GRPCAddr: getEnv("GRPC_ADDR", ":50051"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		CartStore:     strings.ToLower(getEnv("CART_STORE", StoreRedis)),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisPrefix:   getEnv("REDIS_PREFIX", "sari"),

		ProductBackend: strings.ToLower(getEnv("PRODUCT_BACKEND", ProductsMySQL)),
		MySQLDSN:       getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/sarismart?parseTime=true"),
		ProductAPIURL:  getEnv("PRODUCT_API_URL", "http://localhost:9000"),
		ProductTimeout: getEnvDuration("PRODUCT_TIMEOUT", 5*time.Second),

		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		CheckoutCompensate:   getEnvBool("CHECKOUT_COMPENSATE", false),
		CheckoutStockGuard:   getEnvBool("CHECKOUT_STOCK_GUARD", false),
		MissingProductPolicy: getEnv("MISSING_PRODUCT_POLICY", "drop"),
		ItemsRefreshInterval: getEnvDuration("ITEMS_REFRESH_INTERVAL", 0),
		ShutdownTimeout:      getEnvDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
	}

	switch cfg.CartStore {
	case StoreRedis, StoreMemory:
	default:
		return Config{}, fmt.Errorf("CART_STORE: unknown store %q", cfg.CartStore)
	}
	switch cfg.ProductBackend {
	case ProductsMySQL, ProductsHTTP:
	default:
		return Config{}, fmt.Errorf("PRODUCT_BACKEND: unknown backend %q", cfg.ProductBackend)
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
