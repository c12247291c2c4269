package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"eventphoto-backend/internal/pricing"
)

func intPtr(n int) *int { return &n }

func TestSpeechPrice_StoredPriceWins(t *testing.T) {
	policy := pricing.NewPolicy([]int{2000, 1000, 1500})

	assert.Equal(t, 750, policy.SpeechPrice(intPtr(750), 0))
	assert.Equal(t, 0, policy.SpeechPrice(intPtr(0), 5))
}

func TestSpeechPrice_TierFallbackByPosition(t *testing.T) {
	policy := pricing.NewPolicy([]int{2000, 1000, 1500})

	assert.Equal(t, 2000, policy.SpeechPrice(nil, 0))
	assert.Equal(t, 1000, policy.SpeechPrice(nil, 1))
	assert.Equal(t, 1500, policy.SpeechPrice(nil, 2))
	// Every later position takes the last tier.
	assert.Equal(t, 1500, policy.SpeechPrice(nil, 7))
}

func TestSpeechPrice_EmptyTiers(t *testing.T) {
	policy := pricing.NewPolicy(nil)
	assert.Equal(t, 0, policy.SpeechPrice(nil, 0))
}
