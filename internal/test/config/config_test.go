package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventphoto-backend/internal/config"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ROBOKASSA_LOGIN", "shop")
	t.Setenv("ROBOKASSA_FIRST_PASSWORD", "pass1")
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_PUBLISHABLE_KEY", "key")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 400, cfg.DefaultMediaPrice)
	assert.Equal(t, []int{2000, 1000, 1500}, cfg.SpeechPriceTiers)
	assert.True(t, cfg.RobokassaIsTest)
	assert.Equal(t, "media-public", cfg.SupabasePublicBucket)
	assert.Equal(t, "media-private", cfg.SupabasePrivateBucket)
}

func TestLoad_ParsesPriceTiers(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SPEECH_PRICE_TIERS", "3000, 1500,500")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, []int{3000, 1500, 500}, cfg.SpeechPriceTiers)
}

func TestLoad_BadTiersFallBackToDefault(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SPEECH_PRICE_TIERS", "3000,abc")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, []int{2000, 1000, 1500}, cfg.SpeechPriceTiers)
}

func TestLoad_MissingSecretFails(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JWT_SECRET", "")

	_, err := config.Load()
	assert.Error(t, err)
}
