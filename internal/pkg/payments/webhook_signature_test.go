package payments

import (
	"errors"
	"testing"
	"time"
)

func TestVerifyWebhookSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	secret := "whsec_test"
	now := time.Now()

	header := SignWebhookPayload(payload, secret, now)
	if err := VerifyWebhookSignature(payload, header, secret, DefaultSignatureTolerance, now); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}

	if err := VerifyWebhookSignature(payload, header, "whsec_other", DefaultSignatureTolerance, now); !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("expected mismatch with wrong secret, got %v", err)
	}

	tampered := []byte(`{"id":"evt_1","type":"checkout.session.expired"}`)
	if err := VerifyWebhookSignature(tampered, header, secret, DefaultSignatureTolerance, now); !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("expected mismatch for tampered payload, got %v", err)
	}
}

func TestVerifyWebhookSignature_Tolerance(t *testing.T) {
	payload := []byte(`{}`)
	secret := "whsec_test"
	signedAt := time.Now().Add(-10 * time.Minute)

	header := SignWebhookPayload(payload, secret, signedAt)
	err := VerifyWebhookSignature(payload, header, secret, DefaultSignatureTolerance, time.Now())
	if !errors.Is(err, ErrSignatureExpired) {
		t.Fatalf("expected expired signature error, got %v", err)
	}

	// Zero tolerance disables the replay window.
	if err := VerifyWebhookSignature(payload, header, secret, 0, time.Now()); err != nil {
		t.Fatalf("expected success with tolerance disabled, got %v", err)
	}
}

func TestVerifyWebhookSignature_MalformedHeader(t *testing.T) {
	payload := []byte(`{}`)
	secret := "whsec_test"

	for _, header := range []string{"", "v1=deadbeef", "t=123", "t=abc,v1=deadbeef"} {
		err := VerifyWebhookSignature(payload, header, secret, 0, time.Now())
		if !errors.Is(err, ErrSignatureHeaderMalformed) {
			t.Fatalf("header %q: expected malformed header error, got %v", header, err)
		}
	}
}

func TestVerifyWebhookSignature_MultipleV1Entries(t *testing.T) {
	payload := []byte(`{"ok":true}`)
	secret := "whsec_test"
	now := time.Now()

	valid := SignWebhookPayload(payload, secret, now)
	combined := valid + ",v1=00"
	if err := VerifyWebhookSignature(payload, combined, secret, DefaultSignatureTolerance, now); err != nil {
		t.Fatalf("expected any matching v1 entry to validate, got %v", err)
	}
}
