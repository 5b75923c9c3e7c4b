package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config values from environment variables. A .env file in
// the working directory is folded into the environment first; a missing file
// is not an error.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	envString(&config.DatabaseDSN, "DATABASE_DSN")
	envString(&config.AMQPURL, "AMQP_URL")
	envString(&config.AMQPExchange, "AMQP_EXCHANGE")
	envString(&config.AMQPQueue, "AMQP_QUEUE")
	envString(&config.BaseURL, "BASE_URL")
	envString(&config.SecretKey, "SECRET_KEY")
	envString(&config.AdminEmail, "ADMIN_EMAIL")
	envString(&config.AdminPassword, "ADMIN_PASSWORD")
	envString(&config.DemoEmail, "DEMO_EMAIL")
	envString(&config.DemoPassword, "DEMO_PASSWORD")

	envInt(&config.SessionMax, "SESSION_MAX")
	envInt(&config.BcryptCost, "BCRYPT_COST")
	envBool(&config.SessionEvictOldest, "SESSION_EVICT_OLDEST")
	envFloat(&config.AlertThreshold, "ALERT_THRESHOLD")

	envDuration(&config.SessionValidity, "SESSION_VALIDITY")
	envDuration(&config.ResetTokenTTL, "RESET_TOKEN_TTL")
	envDuration(&config.VerifyTokenMaxAge, "VERIFY_TOKEN_MAX_AGE")
	envDuration(&config.SweepInterval, "SWEEP_INTERVAL")
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func envFloat(dst *float64, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envDuration(dst *time.Duration, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
