// Buscacontatos webhook receiver example.
//
// A minimal receiver that verifies contato.created deliveries.
//
// Usage:
//
//	export BUSCACONTATOS_WEBHOOK_SECRET="whsec_..."
//	go run main.go
//
// Then register http://your-server:9000/webhook as a webhook in the dashboard.
package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"
)

const replayWindow = 5 * time.Minute

// ContactCreated is the body of a contato.created delivery.
type ContactCreated struct {
	Event     string    `json:"event"`
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
	Data      Contact   `json:"data"`
}

// Contact is the saved lead carried by the event.
type Contact struct {
	PlaceID              string    `json:"place_id"`
	Name                 string    `json:"name"`
	FormattedAddress     string    `json:"formatted_address"`
	Website              string    `json:"website"`
	FormattedPhoneNumber string    `json:"formatted_phone_number"`
	ConsentTimestamp     time.Time `json:"consent_timestamp"`
}

func main() {
	secret := os.Getenv("BUSCACONTATOS_WEBHOOK_SECRET")
	if secret == "" {
		log.Fatal("BUSCACONTATOS_WEBHOOK_SECRET environment variable is required")
	}

	// Deliveries are signed with the SHA-256 of the secret shown at registration.
	sum := sha256.Sum256([]byte(secret))
	key := hex.EncodeToString(sum[:])

	http.HandleFunc("/webhook", webhookHandler(key))
	http.HandleFunc("/health", healthHandler)

	log.Println("Starting webhook receiver on :9000")
	log.Fatal(http.ListenAndServe(":9000", nil))
}

func webhookHandler(key string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		signature := r.Header.Get("X-Buscacontatos-Signature")
		timestamp := r.Header.Get("X-Buscacontatos-Timestamp")
		if signature == "" || timestamp == "" {
			http.Error(w, "Missing signature", http.StatusUnauthorized)
			return
		}

		if !verifySignature(key, signature, timestamp, body) {
			log.Println("Invalid signature")
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}

		var event ContactCreated
		if err := json.Unmarshal(body, &event); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		log.Printf("received %s %s (delivery %s)", event.Event, event.EventID, r.Header.Get("X-Buscacontatos-Delivery-Id"))
		log.Printf("  %s, %s", event.Data.Name, event.Data.FormattedAddress)
		if event.Data.FormattedPhoneNumber != "" {
			log.Printf("  phone: %s", event.Data.FormattedPhoneNumber)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "received"})
	}
}

// verifySignature checks the hex HMAC-SHA256 of "{timestamp}.{body}".
func verifySignature(key, signature, timestamp string, body []byte) bool {
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	skew := time.Since(time.Unix(ts, 0))
	if skew < -replayWindow || skew > replayWindow {
		log.Println("Signature timestamp outside replay window")
		return false
	}

	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expected))
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
