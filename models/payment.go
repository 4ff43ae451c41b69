package models

import (
	"encoding/json"
	"time"
)

// Payment statuses exposed to API consumers. PayPal's own status vocabulary
// (CREATED, APPROVED, COMPLETED, VOIDED, ...) is mapped down to these four.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusFailed    = "failed"
)

var terminalStatuses = map[string]bool{
	StatusCompleted: true,
	StatusCancelled: true,
	StatusFailed:    true,
}

// Payment is the canonical payment record. The id is assigned by PayPal at
// order creation and is the primary key everywhere. JSON field names match
// the public API wire format.
type Payment struct {
	ID             string          `json:"id"`
	CustomerName   string          `json:"customer_name"`
	CustomerEmail  string          `json:"customer_email"`
	Amount         float64         `json:"amount"`
	Currency       string          `json:"currency"`
	Status         string          `json:"status"`
	PaymentURL     string          `json:"payment_url,omitempty"`
	PayPalResponse json.RawMessage `json:"paypal_response,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// IsTerminal reports whether the payment has reached a final status.
// Terminal records never transition again.
func (p *Payment) IsTerminal() bool {
	return terminalStatuses[p.Status]
}

// CanTransition reports whether a status change is allowed. Only
// pending -> {completed, cancelled, failed} are valid moves.
func CanTransition(from, to string) bool {
	return from == StatusPending && terminalStatuses[to]
}
