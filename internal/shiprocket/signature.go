package shiprocket

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// SignatureHeader carries the webhook HMAC sent by Shiprocket.
const SignatureHeader = "X-Shiprocket-Hmacsha256"

type VerifyResult int

const (
	SignatureValid VerifyResult = iota
	SignatureInvalid
	SignatureMissing
)

// Sign returns the base64 HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks the webhook signature over the raw received bytes.
// The body must be hashed exactly as it arrived on the wire; re-encoding a
// parsed payload changes key order and whitespace and breaks verification.
func VerifySignature(secret string, body []byte, provided string) VerifyResult {
	if provided == "" {
		return SignatureMissing
	}
	expected := Sign(secret, body)
	if hmac.Equal([]byte(expected), []byte(provided)) {
		return SignatureValid
	}
	return SignatureInvalid
}
