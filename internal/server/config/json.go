package config

import (
	"encoding/json"
	"os"
	"time"

	"smartspend/internal/flagx"
	"smartspend/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "24h" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files. After unmarshalling, its fields are copied into the runtime Config
// struct which uses time.Duration.
type JsonConfig struct {
	DatabaseDSN        string         `json:"database_dsn"`
	AMQPURL            string         `json:"amqp_url"`
	AMQPExchange       string         `json:"amqp_exchange"`
	AMQPQueue          string         `json:"amqp_queue"`
	BaseURL            string         `json:"base_url"`
	SecretKey          string         `json:"secret_key"`
	SessionValidity    timex.Duration `json:"session_validity"`
	SessionMax         int            `json:"session_max"`
	SessionEvictOldest *bool          `json:"session_evict_oldest"`
	AlertThreshold     float64        `json:"alert_threshold"`
	ResetTokenTTL      timex.Duration `json:"reset_token_ttl"`
	VerifyTokenMaxAge  timex.Duration `json:"verify_token_max_age"`
	SweepInterval      timex.Duration `json:"sweep_interval"`
	BcryptCost         int            `json:"bcrypt_cost"`
	AdminEmail         string         `json:"admin_email"`
	AdminPassword      string         `json:"admin_password"`
	DemoEmail          string         `json:"demo_email"`
	DemoPassword       string         `json:"demo_password"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; when neither is set, no JSON file is loaded. Zero-valued JSON fields
// leave the existing Config values in place. If the file cannot be read or
// contains invalid JSON, the function panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.AMQPURL, c.AMQPURL)
	setString(&config.AMQPExchange, c.AMQPExchange)
	setString(&config.AMQPQueue, c.AMQPQueue)
	setString(&config.BaseURL, c.BaseURL)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.AdminEmail, c.AdminEmail)
	setString(&config.AdminPassword, c.AdminPassword)
	setString(&config.DemoEmail, c.DemoEmail)
	setString(&config.DemoPassword, c.DemoPassword)

	if c.SessionMax > 0 {
		config.SessionMax = c.SessionMax
	}
	if c.SessionEvictOldest != nil {
		config.SessionEvictOldest = *c.SessionEvictOldest
	}
	if c.AlertThreshold > 0 {
		config.AlertThreshold = c.AlertThreshold
	}
	if c.BcryptCost > 0 {
		config.BcryptCost = c.BcryptCost
	}

	setDuration(&config.SessionValidity, c.SessionValidity)
	setDuration(&config.ResetTokenTTL, c.ResetTokenTTL)
	setDuration(&config.VerifyTokenMaxAge, c.VerifyTokenMaxAge)
	setDuration(&config.SweepInterval, c.SweepInterval)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration > 0 {
		*dst = time.Duration(v.Duration)
	}
}
