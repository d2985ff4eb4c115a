// Package webhook validates webhook targets, signs payloads and delivers
// contato.created events in the background.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"
)

var (
	// ErrReplayWindowExceeded is returned when timestamp is outside replay window.
	ErrReplayWindowExceeded = errors.New("timestamp outside replay window")
	// ErrInvalidSignature is returned when signature verification fails.
	ErrInvalidSignature = errors.New("invalid signature")
)

// DefaultReplayWindow is the default replay protection window.
const DefaultReplayWindow = 5 * time.Minute

// GenerateSignature returns the hex HMAC-SHA256 of "{timestamp}.{payload}".
// Deliveries are keyed by the stored secret hash, so receivers hash the
// secret they were shown with SHA-256 before verifying.
func GenerateSignature(key string, timestamp int64, payloadJSON []byte) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payloadJSON)
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidateSignature verifies a signature and rejects timestamps outside replayWindow.
func ValidateSignature(key, signature string, timestamp int64, payloadJSON []byte, replayWindow time.Duration) error {
	skew := time.Since(time.Unix(timestamp, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > replayWindow {
		return ErrReplayWindowExceeded
	}

	expected := GenerateSignature(key, timestamp, payloadJSON)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}
