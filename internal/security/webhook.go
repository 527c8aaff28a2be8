package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidSignature is returned when a webhook signature does not verify
var ErrInvalidSignature = errors.New("invalid webhook signature")

// WebhookVerifier checks "t=<unix>,v1=<hex hmac>" signatures computed over
// "<unix>.<body>" with a shared secret
type WebhookVerifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewWebhookVerifier creates a verifier that rejects signatures older than tolerance
func NewWebhookVerifier(secret string, tolerance time.Duration) *WebhookVerifier {
	return &WebhookVerifier{secret: []byte(secret), tolerance: tolerance, now: time.Now}
}

// Sign returns the header value for body at time ts
func (v *WebhookVerifier) Sign(body []byte, ts time.Time) string {
	unix := strconv.FormatInt(ts.Unix(), 10)
	return fmt.Sprintf("t=%s,v1=%s", unix, v.mac(unix, body))
}

// Verify validates header against body
func (v *WebhookVerifier) Verify(header string, body []byte) error {
	if len(v.secret) == 0 {
		return fmt.Errorf("%w: no secret configured", ErrInvalidSignature)
	}

	var unix, signature string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			unix = value
		case "v1":
			signature = value
		}
	}
	if unix == "" || signature == "" {
		return fmt.Errorf("%w: malformed header", ErrInvalidSignature)
	}

	seconds, err := strconv.ParseInt(unix, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad timestamp", ErrInvalidSignature)
	}
	if age := v.now().Sub(time.Unix(seconds, 0)); age > v.tolerance || age < -v.tolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
	}

	if !hmac.Equal([]byte(v.mac(unix, body)), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

func (v *WebhookVerifier) mac(unix string, body []byte) string {
	m := hmac.New(sha256.New, v.secret)
	m.Write([]byte(unix))
	m.Write([]byte("."))
	m.Write(body)
	return hex.EncodeToString(m.Sum(nil))
}
