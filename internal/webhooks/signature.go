package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Callback request headers.
const (
	HeaderEventType = "X-Event-Type"
	HeaderEventID   = "X-Event-Id"
	HeaderSignature = "X-Signature"
)

// signaturePrefix names the MAC so receivers can reject other schemes.
const signaturePrefix = "sha256="

// Sign returns the X-Signature value for a callback body:
// "sha256=" followed by the lowercase hex HMAC-SHA256 keyed with the run's
// callback secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}
