// Package model defines domain entities for the application.
package model

import "time"

// EventType represents webhook event types.
type EventType string

// EventContactCreated fires once per newly saved contact.
const EventContactCreated EventType = "contato.created"

// Webhook is a delivery target registered by a user.
type Webhook struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	SecretHash string    `json:"secretHash"`
	CreatedAt  time.Time `json:"createdAt"`
}

// WebhookCreateRequest represents a request to register a webhook.
type WebhookCreateRequest struct {
	URL string `json:"url"`
}

// WebhookResponse represents a webhook without its signing secret.
type WebhookResponse struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// ToResponse converts a Webhook to WebhookResponse.
func (w *Webhook) ToResponse() WebhookResponse {
	return WebhookResponse{
		ID:        w.ID,
		URL:       w.URL,
		CreatedAt: w.CreatedAt,
	}
}

// WebhookCreateResponse includes the signing secret (shown only once).
type WebhookCreateResponse struct {
	WebhookResponse
	Secret string `json:"secret"`
}

// WebhookPayload is the body POSTed to webhook targets.
type WebhookPayload struct {
	Event     EventType `json:"event"`
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
	Data      Contact   `json:"data"`
}
