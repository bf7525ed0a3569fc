package models

import "time"

type EventType string

const (
	EventReportGenerated     EventType = "report.generated"
	EventSubscriptionChanged EventType = "subscription.changed"
	EventPaymentFailed       EventType = "payment.failed"
)

// Event is a domain event published on the Kafka topic and consumed by the worker.
type Event struct {
	Type       EventType `json:"type"`
	UserID     string    `json:"user_id,omitempty"`
	CustomerID string    `json:"customer_id,omitempty"`
	ReportID   string    `json:"report_id,omitempty"`
	Tier       Tier      `json:"tier,omitempty"`
	Company    string    `json:"company,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
