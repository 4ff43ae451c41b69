package models

import "time"

// Payment lifecycle event types.
const (
	EventPaymentPending   = "payment_pending"
	EventPaymentCompleted = "payment_completed"
	EventPaymentCancelled = "payment_cancelled"
	EventPaymentFailed    = "payment_failed"
)

// PaymentEvent is published whenever a payment changes status, so downstream
// consumers (order systems, notifications) can react without polling.
type PaymentEvent struct {
	EventID   string    `json:"event_id"`
	Type      string    `json:"type"`
	PaymentID string    `json:"payment_id"`
	Status    string    `json:"status"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Timestamp time.Time `json:"timestamp"`
}
