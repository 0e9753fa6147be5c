package payments

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

// DefaultSignatureTolerance bounds how old a signed webhook may be before it
// is rejected as a possible replay.
const DefaultSignatureTolerance = 5 * time.Minute

var (
	ErrSignatureHeaderMalformed = errors.New("webhook signature header is malformed")
	ErrSignatureMismatch        = errors.New("webhook signature does not match")
	ErrSignatureExpired         = errors.New("webhook signature timestamp is outside the tolerance window")
)

// VerifyWebhookSignature checks the `t=...,v1=...` signature header against
// payload. The signed message is "<timestamp>.<payload>" and the digest is
// HMAC-SHA256 under the shared webhook secret. Multiple v1 entries are
// accepted if any one of them matches.
func VerifyWebhookSignature(payload []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	if strings.TrimSpace(secret) == "" {
		return errors.New("webhook secret is not configured")
	}

	timestamp, signatures, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	if tolerance > 0 {
		eventTime := time.Unix(timestamp, 0)
		if now.Sub(eventTime) > tolerance || eventTime.Sub(now) > tolerance {
			return ErrSignatureExpired
		}
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, sig := range signatures {
		decoded, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return nil
		}
	}
	return ErrSignatureMismatch
}

func parseSignatureHeader(header string) (int64, []string, error) {
	var (
		timestamp  int64
		signatures []string
		hasTS      bool
	)

	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, ErrSignatureHeaderMalformed
			}
			timestamp = ts
			hasTS = true
		case "v1":
			signatures = append(signatures, value)
		}
	}

	if !hasTS || len(signatures) == 0 {
		return 0, nil, ErrSignatureHeaderMalformed
	}
	return timestamp, signatures, nil
}

// SignWebhookPayload produces a header the verifier accepts. Used by tests
// and local tooling that replays webhooks against a dev instance.
func SignWebhookPayload(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", at.Unix())
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}
