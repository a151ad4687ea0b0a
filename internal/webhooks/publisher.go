package webhooks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"cdsplan/internal/store"
)

// Run completion event types.
const (
	EventPlanCompleted = "plan.completed"
	EventPlanFailed    = "plan.failed"
)

type Publisher struct {
	Store store.Store
}

func NewPublisher(s store.Store) *Publisher {
	return &Publisher{Store: s}
}

// Event is the callback body POSTed to the run's callback URL.
type Event struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	RunID string `json:"runId"`
	TS    string `json:"ts"`
	Data  any    `json:"data,omitempty"`
}

// Emit enqueues eventType for the run's callback URL. It is a no-op when the
// run has no callback.
func (p *Publisher) Emit(ctx context.Context, tenantID, runID, eventType, url, secret string, data any) (string, error) {
	if url == "" {
		return "", nil
	}
	ev := Event{
		ID:    "evt_" + uuid.New().String(),
		Type:  eventType,
		RunID: runID,
		TS:    time.Now().UTC().Format(time.RFC3339),
		Data:  data,
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return "", err
	}
	return p.Store.EnqueueWebhook(ctx, tenantID, runID, eventType, url, secret, body)
}
