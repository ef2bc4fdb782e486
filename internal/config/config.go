package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// FailedOrderPolicy decides what happens to an order whose payment the gateway
// definitively rejected: remove it, or keep it in PAYMENT_FAILED for audit.
type FailedOrderPolicy string

const (
	FailedOrderDelete FailedOrderPolicy = "delete"
	FailedOrderKeep   FailedOrderPolicy = "keep"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string

	GatewayEnv            string
	MerchantCode          string
	GatewayAccessToken    string
	MerchantPrivateKeyPEM string
	GatewayPublicKeyPEM   string
	ReturnURL             string
	CancelURL             string
	IPNURL                string
	GatewayTimeoutSeconds int
	PaymentExpireMinutes  int

	KafkaBrokers      []string
	NotificationTopic string

	JWTSecret string

	FailedOrderPolicy FailedOrderPolicy
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		AppPort:    os.Getenv("APP_PORT"),
		AppEnv:     os.Getenv("APP_ENV"),

		GatewayEnv:            getEnv("VTMONEY_ENV", "sandbox"),
		MerchantCode:          os.Getenv("VTMONEY_MERCHANT_CODE"),
		GatewayAccessToken:    os.Getenv("VTMONEY_ACCESS_TOKEN"),
		MerchantPrivateKeyPEM: os.Getenv("VTMONEY_MERCHANT_PRIVATE_KEY"),
		GatewayPublicKeyPEM:   os.Getenv("VTMONEY_GATEWAY_PUBLIC_KEY"),
		ReturnURL:             os.Getenv("RETURN_URL"),
		CancelURL:             os.Getenv("CANCEL_RETURN_URL"),
		IPNURL:                os.Getenv("IPN_URL"),
		GatewayTimeoutSeconds: getEnvInt("VTMONEY_TIMEOUT_SECONDS", 15),
		PaymentExpireMinutes:  getEnvInt("PAYMENT_EXPIRE_MINUTES", 15),

		KafkaBrokers:      splitList(os.Getenv("KAFKA_BROKERS")),
		NotificationTopic: getEnv("NOTIFICATION_TOPIC", "payment-notifications"),

		JWTSecret: os.Getenv("SECRET_KEY"),

		FailedOrderPolicy: FailedOrderPolicy(getEnv("FAILED_ORDER_POLICY", string(FailedOrderDelete))),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	if cfg.FailedOrderPolicy != FailedOrderDelete && cfg.FailedOrderPolicy != FailedOrderKeep {
		log.Fatalf("invalid FAILED_ORDER_POLICY: %s (use 'delete' or 'keep')", cfg.FailedOrderPolicy)
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return n
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
