package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/goliatone/go-deliverect/core"
)

const (
	SignatureHeader          = "x-deliverect-signature"
	CanonicalSignatureHeader = "X-Deliverect-Signature"
)

// SignatureVerifier checks a hex HMAC-SHA256 signature against a body.
type SignatureVerifier struct {
	Secret string
}

// Verify returns nil only when signature is the hex digest of body keyed by
// the secret. Undecodable or wrong-length signatures are rejected before the
// constant-time comparison.
func (v SignatureVerifier) Verify(body []byte, signature string) error {
	if v.Secret == "" {
		return core.MissingSecretConfigError(nil)
	}
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return core.MissingSignatureError()
	}
	if len(body) == 0 {
		return core.RawBodyUnavailableError()
	}

	decoded, err := hex.DecodeString(signature)
	if err != nil {
		return core.InvalidSignatureError()
	}
	expected := Sign([]byte(v.Secret), body)
	if len(decoded) != len(expected) {
		return core.InvalidSignatureError()
	}
	if subtle.ConstantTimeCompare(decoded, expected) != 1 {
		return core.InvalidSignatureError()
	}
	return nil
}

// Sign returns the raw HMAC-SHA256 of body keyed by secret.
func Sign(secret []byte, body []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write(body)
	return mac.Sum(nil)
}

// SignHex returns the header value Deliverect would send for body.
func SignHex(secret string, body []byte) string {
	return hex.EncodeToString(Sign([]byte(secret), body))
}

// signatureHeader looks the header up case-insensitively, trying the
// canonical spelling explicitly as well.
func signatureHeader(envelope core.WebhookEnvelope) string {
	if value := strings.TrimSpace(envelope.Header(SignatureHeader)); value != "" {
		return value
	}
	return strings.TrimSpace(envelope.Header(CanonicalSignatureHeader))
}
