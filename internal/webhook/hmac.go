package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Validator authenticates notifications with the merchant's HMAC key.
type Validator struct {
	key []byte
}

// NewValidator decodes the hex-encoded HMAC key. An empty or malformed key is
// an error so the webhook endpoint never runs unauthenticated.
func NewValidator(hexKey string) (*Validator, error) {
	hexKey = strings.TrimSpace(hexKey)
	if hexKey == "" {
		return nil, errors.New("webhook: hmac key is required")
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("webhook: decode hmac key: %w", err)
	}
	return &Validator{key: key}, nil
}

// SigningString is the provider-defined payload the signature covers.
func SigningString(n NotificationItem) string {
	var value, currency string
	if n.Amount != nil {
		currency = n.Amount.Currency
		if n.Amount.Value != nil {
			value = strconv.FormatInt(*n.Amount.Value, 10)
		}
	}
	return strings.Join([]string{
		n.PSPReference,
		n.OriginalReference,
		n.MerchantAccountCode,
		n.MerchantReference,
		value,
		currency,
		n.EventCode,
		strconv.FormatBool(n.Succeeded()),
	}, ":")
}

// Sign computes the base64 signature for n.
func (v *Validator) Sign(n NotificationItem) string {
	return base64.StdEncoding.EncodeToString(v.mac(n))
}

// Validate reports whether n carries a valid signature. A missing or
// undecodable signature is invalid.
func (v *Validator) Validate(n NotificationItem) bool {
	if v == nil || len(v.key) == 0 {
		return false
	}
	provided := n.Signature()
	if provided == "" {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(provided)
	if err != nil {
		return false
	}
	return hmac.Equal(decoded, v.mac(n))
}

func (v *Validator) mac(n NotificationItem) []byte {
	m := hmac.New(sha256.New, v.key)
	m.Write([]byte(SigningString(n)))
	return m.Sum(nil)
}
