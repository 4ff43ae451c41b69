package repository

import (
	"context"
	"sync"

	"github.com/mickey4653/restful-payment-gateway-api/models"
)

type memoryPaymentRepo struct {
	mu       sync.RWMutex
	payments map[string]models.Payment
}

// NewMemoryPaymentRepo returns an in-process PaymentRepository. Reads and
// writes to different ids never block each other beyond the map lock;
// concurrent writes to the same id resolve as last write wins.
func NewMemoryPaymentRepo() PaymentRepository {
	return &memoryPaymentRepo{payments: make(map[string]models.Payment)}
}

func (r *memoryPaymentRepo) Get(_ context.Context, id string) (*models.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, nil
	}
	// Copy out so callers can't mutate the stored record in place.
	return &p, nil
}

func (r *memoryPaymentRepo) Put(_ context.Context, payment *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments[payment.ID] = *payment
	return nil
}
