package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	MongoURI string
	DBName   string

	// Public base URL of this service, used to build webhook callback URLs.
	Domain string

	PaystackSecretKey string
	PaystackPublicKey string

	ProviderAPIKey  string
	ProviderBaseURL string
	ProviderTimeout time.Duration

	AdminEmail        string
	AdminPassword     string
	AdminPasswordHash string
	JWTSecret         string
	AccessTokenTTL    time.Duration

	// Delay between acknowledging a payment webhook and calling the
	// fulfillment provider.
	FulfillmentDelay time.Duration
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = Config{
		MongoURI:          getEnvOrDefault("MONGO_URI", ""),
		DBName:            getEnvOrDefault("DB_NAME", "bundlehub"),
		Domain:            strings.TrimRight(getEnvOrDefault("DOMAIN", ""), "/"),
		PaystackSecretKey: getEnvOrDefault("PAYSTACK_SECRET_KEY", ""),
		PaystackPublicKey: getEnvOrDefault("PAYSTACK_PUBLIC_KEY", ""),
		ProviderAPIKey:    getEnvOrDefault("PROVIDER_API_KEY", ""),
		ProviderBaseURL:   strings.TrimRight(getEnvOrDefault("PROVIDER_BASE_URL", ""), "/"),
		ProviderTimeout:   getDurationEnv("PROVIDER_TIMEOUT_SECONDS", 30, time.Second),
		AdminEmail:        strings.ToLower(getEnvOrDefault("ADMIN_EMAIL", "")),
		AdminPassword:     getEnvOrDefault("ADMIN_PASSWORD", ""),
		AdminPasswordHash: getEnvOrDefault("ADMIN_PASSWORD_HASH", ""),
		JWTSecret:         getEnvOrDefault("JWT_SECRET", ""),
		AccessTokenTTL:    getDurationEnv("ACCESS_TOKEN_TTL", 20, time.Minute),
		FulfillmentDelay:  getDurationEnv("FULFILLMENT_DELAY_SECONDS", 2, time.Second),
	}

	if AppEnv.MongoURI == "" || AppEnv.PaystackSecretKey == "" || AppEnv.Domain == "" {
		log.Fatal("missing critical env: MONGO_URI, PAYSTACK_SECRET_KEY and DOMAIN are required")
	}
	if AppEnv.JWTSecret == "" {
		log.Fatal("missing critical env: JWT_SECRET is required")
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}
