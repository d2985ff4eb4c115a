package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/buscacontatos/buscacontatos/internal/model"
)

// Publisher turns domain events into deliveries on a Dispatcher.
type Publisher struct {
	dispatcher *Dispatcher
	logger     *slog.Logger
	now        func() time.Time
}

// NewPublisher creates a new webhook publisher.
func NewPublisher(dispatcher *Dispatcher, logger *slog.Logger) *Publisher {
	return &Publisher{
		dispatcher: dispatcher,
		logger:     logger.With("component", "webhook.publisher"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// PublishContactsCreated sends one contato.created event per contact to every hook.
// Failures to enqueue are logged; saving contacts never fails because of webhooks.
func (p *Publisher) PublishContactsCreated(ctx context.Context, hooks []model.Webhook, contacts []model.Contact) {
	if len(hooks) == 0 || len(contacts) == 0 {
		return
	}

	for _, contact := range contacts {
		payload, err := BuildContactCreatedPayload(uuid.NewString(), p.now(), contact)
		if err != nil {
			p.logger.Error("failed to build webhook payload", "place_id", contact.PlaceID, "error", err)
			continue
		}

		for _, hook := range hooks {
			delivery := &Delivery{
				ID:         ulid.Make().String(),
				WebhookID:  hook.ID,
				TargetURL:  hook.URL,
				SigningKey: hook.SecretHash,
				Payload:    payload,
			}
			if err := p.dispatcher.Enqueue(delivery); err != nil {
				p.logger.WarnContext(ctx, "webhook delivery not scheduled",
					"webhook_id", hook.ID,
					"place_id", contact.PlaceID,
					"error", err,
				)
			}
		}
	}
}

// BuildContactCreatedPayload encodes the body of a contato.created delivery.
func BuildContactCreatedPayload(eventID string, at time.Time, contact model.Contact) ([]byte, error) {
	data, err := json.Marshal(model.WebhookPayload{
		Event:     model.EventContactCreated,
		EventID:   eventID,
		Timestamp: at,
		Data:      contact,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return data, nil
}
