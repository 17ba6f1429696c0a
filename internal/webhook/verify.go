package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw body.
const SignatureHeader = "X-Retell-Signature"

// Sign returns the lowercase hex HMAC-SHA256 of raw under secret.
func Sign(raw []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(raw)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether header is the signature of raw under secret. An
// empty header or secret never verifies. Only the lengths are compared
// before the constant-time comparison of the digests.
func Verify(raw []byte, header, secret string) bool {
	if header == "" || secret == "" {
		return false
	}
	if len(header) != hex.EncodedLen(sha256.Size) {
		return false
	}
	return hmac.Equal([]byte(Sign(raw, secret)), []byte(header))
}
