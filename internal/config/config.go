package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	// Robokassa
	RobokassaLogin          string
	RobokassaFirstPassword  string
	RobokassaSecondPassword string
	RobokassaIsTest         bool
	SuccessRedirectURL      string

	// Supabase
	SupabaseURL            string
	SupabasePublishableKey string
	SupabasePublicBucket   string
	SupabasePrivateBucket  string

	// Auth
	JWTSecret string

	// Watermark
	WatermarkPath    string
	WatermarkOpacity int

	// Pricing
	DefaultMediaPrice int
	SpeechPriceTiers  []int

	// Database
	DatabaseURL string

	// Server
	Port        string
	Environment string
	BaseURL     string
}

func Load() (*Config, error) {
	cfg := &Config{
		RobokassaLogin:          getEnv("ROBOKASSA_LOGIN", ""),
		RobokassaFirstPassword:  getEnv("ROBOKASSA_FIRST_PASSWORD", ""),
		RobokassaSecondPassword: getEnv("ROBOKASSA_SECOND_PASSWORD", ""),
		RobokassaIsTest:         getEnv("ROBOKASSA_IS_TEST", "1") == "1",
		SuccessRedirectURL:      getEnv("SUCCESS_REDIRECT_URL", ""),

		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabasePublishableKey: getEnv("SUPABASE_PUBLISHABLE_KEY", ""),
		SupabasePublicBucket:   getEnv("SUPABASE_PUBLIC_BUCKET", "media-public"),
		SupabasePrivateBucket:  getEnv("SUPABASE_PRIVATE_BUCKET", "media-private"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		WatermarkPath:    getEnv("WATERMARK_PATH", ""),
		WatermarkOpacity: getEnvInt("WATERMARK_OPACITY", 90),

		DefaultMediaPrice: getEnvInt("DEFAULT_MEDIA_PRICE", 400),
		SpeechPriceTiers:  getEnvInts("SPEECH_PRICE_TIERS", []int{2000, 1000, 1500}),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.RobokassaLogin == "" {
		return fmt.Errorf("ROBOKASSA_LOGIN is required")
	}
	if c.RobokassaFirstPassword == "" {
		return fmt.Errorf("ROBOKASSA_FIRST_PASSWORD is required")
	}
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabasePublishableKey == "" {
		return fmt.Errorf("SUPABASE_PUBLISHABLE_KEY is required")
	}
	if len(c.SpeechPriceTiers) == 0 {
		return fmt.Errorf("SPEECH_PRICE_TIERS must not be empty")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvInts parses a comma-separated integer list, e.g. "2000,1000,1500".
func getEnvInts(key string, defaultValue []int) []int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	tiers := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return defaultValue
		}
		tiers = append(tiers, n)
	}
	return tiers
}
