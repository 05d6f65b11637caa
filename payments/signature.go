package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// VerifySignature authenticates an inbound payment notification.
//
// The x-signature header has the form "ts=<timestamp>,v1=<hex-hmac>"
// (comma-separated key=value pairs, order not guaranteed). The expected
// digest is HMAC-SHA256 over the canonical manifest
//
//	id:<resourceID lowercased>;request-id:<requestID>;ts:<ts>;
//
// hex-encoded lowercase, compared against v1 in constant time.
//
// Pure function: returns false (never panics) when the header, request id,
// or secret is empty, or when ts/v1 cannot be parsed out. The caller decides
// whether an unverifiable notification is fatal.
func VerifySignature(signatureHeader, requestID, resourceID, secret string) bool {
	if signatureHeader == "" || requestID == "" || secret == "" {
		return false
	}

	var ts, v1 string
	for _, part := range strings.Split(signatureHeader, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "ts":
			ts = strings.TrimSpace(value)
		case "v1":
			v1 = strings.TrimSpace(value)
		}
	}
	if ts == "" || v1 == "" {
		return false
	}

	manifest := "id:" + strings.ToLower(resourceID) + ";request-id:" + requestID + ";ts:" + ts + ";"

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(v1)))
}
