package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"net/url"
	"os"
	"strings"

	"clinicbook/internal/domain"
)

// Gateway builds signed redirect URLs for one external provider and verifies
// its callback signatures. Intent creation never performs a network call: the
// URL is constructed and signed locally, the provider confirms asynchronously
// through the callback, so no ledger lock is ever held across provider I/O.
type Gateway interface {
	Method() domain.PaymentMethod
	CreateIntent(amount float64, providerRef, callbackURL string) (redirectURL string, err error)
	VerifyCallback(providerRef string, amount float64, signature string) bool
}

type hmacGateway struct {
	method    domain.PaymentMethod
	baseURL   string
	partner   string
	secret    string
	newHasher func() hash.Hash
}

// NewMomoGateway reads MOMO_* credentials from the environment.
// MoMo signs request and callback payloads with HMAC-SHA256.
func NewMomoGateway() Gateway {
	return &hmacGateway{
		method:    domain.MethodMomo,
		baseURL:   envOrDefault("MOMO_BASE_URL", "https://test-payment.momo.vn/v2/gateway/pay"),
		partner:   os.Getenv("MOMO_PARTNER_CODE"),
		secret:    os.Getenv("MOMO_SECRET_KEY"),
		newHasher: sha256.New,
	}
}

// NewVNPayGateway reads VNPAY_* credentials from the environment.
// VNPay signs with HMAC-SHA512.
func NewVNPayGateway() Gateway {
	return &hmacGateway{
		method:    domain.MethodVNPay,
		baseURL:   envOrDefault("VNPAY_BASE_URL", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"),
		partner:   os.Getenv("VNPAY_TMN_CODE"),
		secret:    os.Getenv("VNPAY_HASH_SECRET"),
		newHasher: sha512.New,
	}
}

func (g *hmacGateway) Method() domain.PaymentMethod { return g.method }

func (g *hmacGateway) CreateIntent(amount float64, providerRef, callbackURL string) (string, error) {
	if g.partner == "" || g.secret == "" {
		return "", fmt.Errorf("%s credentials are not configured", g.method)
	}

	v := url.Values{}
	v.Set("partner", g.partner)
	v.Set("ref", providerRef)
	v.Set("amount", formatAmount(amount))
	if callbackURL != "" {
		v.Set("callback_url", callbackURL)
	}
	v.Set("signature", g.sign(providerRef, amount))

	return g.baseURL + "?" + v.Encode(), nil
}

func (g *hmacGateway) VerifyCallback(providerRef string, amount float64, signature string) bool {
	expected := g.sign(providerRef, amount)
	return hmac.Equal([]byte(strings.ToLower(signature)), []byte(expected))
}

func (g *hmacGateway) sign(providerRef string, amount float64) string {
	mac := hmac.New(g.newHasher, []byte(g.secret))
	mac.Write([]byte(g.partner + "|" + providerRef + "|" + formatAmount(amount)))
	return hex.EncodeToString(mac.Sum(nil))
}

func formatAmount(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}

func envOrDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
