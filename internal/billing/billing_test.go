package billing

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/illegalcall/esgtracker/internal/models"
)

const testWebhookSecret = "whsec_test"

// MockPublisher records published events.
type MockPublisher struct {
	mu     sync.Mutex
	events []models.Event
}

func (m *MockPublisher) Publish(_ context.Context, e models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *MockPublisher) Types() []models.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.EventType
	for _, e := range m.events {
		out = append(out, e.Type)
	}
	return out
}

// signedEvent wraps object in a Stripe event envelope and signs it.
func signedEvent(t *testing.T, id, eventType string, object interface{}) ([]byte, string) {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"id":          id,
		"object":      "event",
		"api_version": "2024-06-20",
		"type":        eventType,
		"data":        map[string]interface{}{"object": object},
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return payload, signatureHeader(payload, testWebhookSecret)
}

func signatureHeader(payload []byte, secret string) string {
	now := time.Now()
	sig := webhook.ComputeSignature(now, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(sig))
}
