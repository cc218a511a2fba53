package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader carries "t=<unix seconds>,v1=<hex hmac>" where the HMAC is
// SHA-256 over "<t>.<raw body>".
const SignatureHeader = "X-Payment-Signature"

// Webhook event types.
const (
	EventSessionCompleted = "checkout.session.completed"
	EventSessionExpired   = "checkout.session.expired"
)

var (
	ErrMissingSignature = errors.New("missing payment signature")
	ErrInvalidSignature = errors.New("invalid payment signature")
	ErrStaleSignature   = errors.New("payment signature timestamp outside tolerance")
)

// Event is a verified webhook payload.
type Event struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	BookingID string `json:"booking_id"`
}

// Verifier checks webhook signatures.
type Verifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewVerifier returns a Verifier accepting signatures at most tolerance old.
func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	return &Verifier{secret: []byte(secret), tolerance: tolerance, now: time.Now}
}

// Verify checks header against body and decodes the event.
func (v *Verifier) Verify(body []byte, header string) (Event, error) {
	if header == "" {
		return Event{}, ErrMissingSignature
	}

	var ts string
	var sigs []string
	for _, part := range strings.Split(header, ",") {
		k, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = val
		case "v1":
			sigs = append(sigs, val)
		}
	}
	if ts == "" || len(sigs) == 0 {
		return Event{}, ErrInvalidSignature
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return Event{}, ErrInvalidSignature
	}
	age := v.now().Sub(time.Unix(unix, 0))
	if age > v.tolerance || age < -v.tolerance {
		return Event{}, ErrStaleSignature
	}

	expected := v.sign(ts, body)
	matched := false
	for _, s := range sigs {
		got, err := hex.DecodeString(s)
		if err == nil && hmac.Equal(got, expected) {
			matched = true
			break
		}
	}
	if !matched {
		return Event{}, ErrInvalidSignature
	}

	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		return Event{}, fmt.Errorf("payment.Verifier.Verify: decode event: %w", err)
	}
	return e, nil
}

// Sign returns the header value for body at time t.
func (v *Verifier) Sign(body []byte, t time.Time) string {
	ts := strconv.FormatInt(t.Unix(), 10)
	return "t=" + ts + ",v1=" + hex.EncodeToString(v.sign(ts, body))
}

func (v *Verifier) sign(ts string, body []byte) []byte {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(body)
	return mac.Sum(nil)
}
