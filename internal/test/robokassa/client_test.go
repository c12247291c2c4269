package robokassa_test

import (
	"crypto/md5"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventphoto-backend/internal/robokassa"
)

func TestSignPayment_MatchesGatewayFormula(t *testing.T) {
	client := robokassa.New("shop", "pass1", "pass2", false)

	got := client.SignPayment(2800, "12345")
	want := fmt.Sprintf("%x", md5.Sum([]byte("shop:2800:12345:pass1")))
	assert.Equal(t, want, got)
}

func TestVerifyResult_AcceptsValidSignature(t *testing.T) {
	client := robokassa.New("shop", "pass1", "pass2", false)

	// Inbound signatures omit the login and format the sum with two decimals.
	signature := fmt.Sprintf("%x", md5.Sum([]byte("2800.00:12345:pass1")))
	assert.True(t, client.VerifyResult(2800, "12345", signature))
}

func TestVerifyResult_IsCaseInsensitive(t *testing.T) {
	client := robokassa.New("shop", "pass1", "pass2", false)

	signature := fmt.Sprintf("%x", md5.Sum([]byte("2800.00:12345:pass1")))
	assert.True(t, client.VerifyResult(2800, "12345", strings.ToUpper(signature)))
}

func TestVerifyResult_RejectsTamperedAmount(t *testing.T) {
	client := robokassa.New("shop", "pass1", "pass2", false)

	signature := fmt.Sprintf("%x", md5.Sum([]byte("2800.00:12345:pass1")))
	assert.False(t, client.VerifyResult(100, "12345", signature))
}

func TestVerifyResult_RejectsWrongPassword(t *testing.T) {
	client := robokassa.New("shop", "pass1", "pass2", false)

	signature := fmt.Sprintf("%x", md5.Sum([]byte("2800.00:12345:other")))
	assert.False(t, client.VerifyResult(2800, "12345", signature))
}

func TestPaymentURL_CarriesSignedParameters(t *testing.T) {
	client := robokassa.New("shop", "pass1", "pass2", true)

	raw := client.PaymentURL(2800, "12345", "Photo order")
	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	query := parsed.Query()
	assert.Equal(t, "shop", query.Get("MerchantLogin"))
	assert.Equal(t, "2800", query.Get("OutSum"))
	assert.Equal(t, "12345", query.Get("InvId"))
	assert.Equal(t, "Photo order", query.Get("Description"))
	assert.Equal(t, client.SignPayment(2800, "12345"), query.Get("SignatureValue"))
	assert.Equal(t, "1", query.Get("IsTest"))
	assert.Equal(t, "ru", query.Get("Culture"))
}

func TestPaymentURL_OmitsTestFlagInProduction(t *testing.T) {
	client := robokassa.New("shop", "pass1", "pass2", false)

	parsed, err := url.Parse(client.PaymentURL(100, "1", "x"))
	require.NoError(t, err)
	assert.Empty(t, parsed.Query().Get("IsTest"))
}

func TestNewInvoiceID_PositiveAndDistinct(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id, err := robokassa.NewInvoiceID()
		require.NoError(t, err)

		// 32-bit parse rejects anything past the gateway's 2^31-1 limit.
		n, err := strconv.ParseInt(id, 10, 32)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, int64(1))
		seen[id] = true
	}
	// Random 31-bit ids should not collide in a sample this small.
	assert.Greater(t, len(seen), 45)
}
