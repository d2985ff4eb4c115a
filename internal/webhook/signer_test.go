package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/buscacontatos/buscacontatos/internal/auth"
	"github.com/buscacontatos/buscacontatos/internal/model"
)

func TestGenerateSignature_MatchesReceiverComputation(t *testing.T) {
	t.Parallel()

	secret := "whsec_0f1e2d3c4b5a69788796a5b4c3d2e1f0a1b2c3d4e5f60718"
	key := auth.FingerprintSecret(secret)

	payload, err := BuildContactCreatedPayload("evt-1", time.Unix(1736600000, 0).UTC(), model.Contact{
		Place: model.Place{PlaceID: "p1", Name: "Padaria", FormattedAddress: "Rua 1", BusinessStatus: "OPERATIONAL"},
	})
	if err != nil {
		t.Fatalf("BuildContactCreatedPayload() error = %v", err)
	}

	// A receiver hashes the secret it was shown and signs "{ts}.{body}".
	sum := sha256.Sum256([]byte(secret))
	mac := hmac.New(sha256.New, []byte(hex.EncodeToString(sum[:])))
	mac.Write([]byte("1736600000." + string(payload)))
	want := hex.EncodeToString(mac.Sum(nil))

	if got := GenerateSignature(key, 1736600000, payload); got != want {
		t.Errorf("GenerateSignature() = %s, want %s", got, want)
	}
}

func TestGenerateSignature_InputsChangeSignature(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"event":"contato.created","event_id":"123"}`)
	base := GenerateSignature("k", 1000, payload)

	if len(base) != 64 {
		t.Fatalf("signature length = %d, want 64", len(base))
	}

	variants := map[string]string{
		"timestamp": GenerateSignature("k", 1001, payload),
		"key":       GenerateSignature("k2", 1000, payload),
		"payload":   GenerateSignature("k", 1000, []byte(`{"event":"contato.created","event_id":"124"}`)),
	}
	for name, sig := range variants {
		if sig == base {
			t.Errorf("changing the %s did not change the signature", name)
		}
	}
}

func TestValidateSignature(t *testing.T) {
	t.Parallel()

	const key = "signing-key"
	now := time.Now().Unix()
	payload := []byte(`{"event":"contato.created"}`)
	stale := time.Now().Add(-10 * time.Minute).Unix()
	ahead := time.Now().Add(10 * time.Minute).Unix()

	tests := []struct {
		name      string
		signature string
		timestamp int64
		payload   []byte
		wantErr   error
	}{
		{"valid", GenerateSignature(key, now, payload), now, payload, nil},
		{"tampered payload", GenerateSignature(key, now, payload), now, []byte(`{"event":"other"}`), ErrInvalidSignature},
		{"garbage signature", "invalid", now, payload, ErrInvalidSignature},
		{"stale timestamp", GenerateSignature(key, stale, payload), stale, payload, ErrReplayWindowExceeded},
		{"future timestamp", GenerateSignature(key, ahead, payload), ahead, payload, ErrReplayWindowExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateSignature(key, tt.signature, tt.timestamp, tt.payload, DefaultReplayWindow)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateSignature() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
