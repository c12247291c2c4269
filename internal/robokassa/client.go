// Package robokassa implements the wire contract with the Robokassa payment
// gateway: invoice ids, signature formulas and the redirect URL. The gateway
// validates signatures byte-for-byte, so the concatenation order here is a
// hard contract:
//
//	outbound:  md5(MerchantLogin:OutSum:InvId:Password1)
//	inbound:   md5(OutSum:InvId:Password1), OutSum with two decimals,
//	           compared case-insensitively
package robokassa

import (
	"crypto/md5"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/url"
	"strconv"
	"strings"
)

const paymentBaseURL = "https://auth.robokassa.ru/Merchant/Index.aspx"

// maxInvoiceID bounds generated invoice ids so that after the +1 shift they
// stay within [1, 2^31-1], the positive InvId range the gateway accepts.
var maxInvoiceID = big.NewInt(1<<31 - 1)

type Client struct {
	merchantLogin string
	password1     string
	password2     string
	isTest        bool
}

func New(merchantLogin, password1, password2 string, isTest bool) *Client {
	return &Client{
		merchantLogin: merchantLogin,
		password1:     password1,
		password2:     password2,
		isTest:        isTest,
	}
}

// NewInvoiceID returns a random, non-sequential decimal invoice id.
// Collisions are handled by the caller re-rolling on a uniqueness violation.
func NewInvoiceID() (string, error) {
	n, err := rand.Int(rand.Reader, maxInvoiceID)
	if err != nil {
		return "", fmt.Errorf("failed to generate invoice id: %w", err)
	}
	// InvId must be >= 1.
	return n.Add(n, big.NewInt(1)).String(), nil
}

// SignPayment computes the outbound signature for a payment redirect.
func (c *Client) SignPayment(amount int, invoiceID string) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s:%d:%s:%s", c.merchantLogin, amount, invoiceID, c.password1)))
	return fmt.Sprintf("%x", sum)
}

// VerifyResult checks an inbound callback signature against the stored
// amount. The gateway echoes OutSum with two decimals and hex case varies
// between its endpoints, so the comparison is case-insensitive.
func (c *Client) VerifyResult(amount int, invoiceID, signature string) bool {
	outSum := fmt.Sprintf("%.2f", float64(amount))
	sum := md5.Sum([]byte(fmt.Sprintf("%s:%s:%s", outSum, invoiceID, c.password1)))
	expected := fmt.Sprintf("%x", sum)
	return strings.EqualFold(expected, signature)
}

// PaymentURL builds the redirect URL the buyer is sent to.
func (c *Client) PaymentURL(amount int, invoiceID, description string) string {
	params := url.Values{}
	params.Set("MerchantLogin", c.merchantLogin)
	params.Set("OutSum", strconv.Itoa(amount))
	params.Set("InvId", invoiceID)
	params.Set("Description", description)
	params.Set("SignatureValue", c.SignPayment(amount, invoiceID))
	if c.isTest {
		params.Set("IsTest", "1")
	}
	params.Set("Culture", "ru")

	return paymentBaseURL + "?" + params.Encode()
}
