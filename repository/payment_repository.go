package repository

import (
	"context"

	"github.com/mickey4653/restful-payment-gateway-api/models"
)

// PaymentRepository is the storage contract for payment records. It is a
// cache with last-writer-wins semantics: Get returns (nil, nil) when the id
// is unknown, and Put overwrites any existing record for the same id.
//
// The in-memory implementation is the default; a Postgres-backed one can be
// swapped in without touching the payment service.
type PaymentRepository interface {
	Get(ctx context.Context, id string) (*models.Payment, error)
	Put(ctx context.Context, payment *models.Payment) error
}
