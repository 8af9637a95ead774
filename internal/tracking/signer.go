// Package tracking serves the open pixel and click redirect links embedded
// in newsletter emails and folds them into per-newsletter unique counters.
package tracking

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Signer builds and verifies HMAC-signed tracking URLs. The payload is a
// pipe-joined tuple, base64url encoded, with a truncated hex signature so
// the links stay short enough for email clients.
type Signer struct {
	secret  string
	baseURL string
}

// NewSigner creates a signer. baseURL is the public origin the tracking
// routes are mounted on, without a trailing slash.
func NewSigner(secret, baseURL string) *Signer {
	return &Signer{secret: secret, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *Signer) sign(data string) string {
	h := hmac.New(sha256.New, []byte(s.secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func (s *Signer) encode(data string) (string, string) {
	return base64.URLEncoding.EncodeToString([]byte(data)), s.sign(data)
}

// Verify decodes the payload and checks its signature. Returns the decoded
// pipe-separated fields, or false on any mismatch.
func (s *Signer) Verify(encoded, sig string) ([]string, bool) {
	decoded, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, false
	}
	if !hmac.Equal([]byte(s.sign(string(decoded))), []byte(sig)) {
		return nil, false
	}
	return strings.Split(string(decoded), "|"), true
}

// OpenURL returns the signed open pixel URL for one recipient of a send.
func (s *Signer) OpenURL(newsletterID, subscriberID uuid.UUID) string {
	data, sig := s.encode(fmt.Sprintf("%s|%s", newsletterID, subscriberID))
	return fmt.Sprintf("%s/track/open/%s/%s", s.baseURL, data, sig)
}

// ClickURL returns a signed redirect wrapping the target URL.
func (s *Signer) ClickURL(newsletterID, subscriberID uuid.UUID, target string) string {
	data, sig := s.encode(fmt.Sprintf("%s|%s|%s", newsletterID, subscriberID, target))
	return fmt.Sprintf("%s/track/click/%s/%s", s.baseURL, data, sig)
}

// UnsubscribeURL returns the signed one-click unsubscribe link for a
// subscriber token.
func (s *Signer) UnsubscribeURL(token string) string {
	data, sig := s.encode(token)
	return fmt.Sprintf("%s/track/unsubscribe/%s/%s", s.baseURL, data, sig)
}
