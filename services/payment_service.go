package services

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mickey4653/restful-payment-gateway-api/events"
	"github.com/mickey4653/restful-payment-gateway-api/models"
	"github.com/mickey4653/restful-payment-gateway-api/repository"
)

// PaymentManager drives payments through their lifecycle:
// pending -> completed | cancelled | failed.
type PaymentManager interface {
	Initiate(ctx context.Context, customerName, customerEmail string, amount float64) (*models.Payment, error)
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	Capture(ctx context.Context, id string) (*models.Payment, error)
	Cancel(ctx context.Context, id string) (*models.Payment, error)
}

// PaymentService orchestrates the PayPal client and the payment store. The
// store is a cache: a present record is trusted first, and remote lookups
// overwrite it. A per-id lock serializes the read/call/write sequence so
// concurrent operations on the same payment don't lose updates.
type PaymentService struct {
	repo     repository.PaymentRepository
	client   PayPalClient
	producer events.Producer
	logger   *zap.Logger
	currency string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewPaymentService wires the lifecycle manager. currency is the default
// currency for new orders ("USD" when empty).
func NewPaymentService(repo repository.PaymentRepository, client PayPalClient, producer events.Producer, logger *zap.Logger, currency string) *PaymentService {
	if currency == "" {
		currency = defaultCurrency
	}
	if producer == nil {
		producer = events.NewNoopProducer()
	}
	return &PaymentService{
		repo:     repo,
		client:   client,
		producer: producer,
		logger:   logger,
		currency: currency,
		locks:    make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex guarding a single payment id. Entries are kept
// for the process lifetime, bounded by the number of distinct payments.
func (s *PaymentService) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// Initiate creates a PayPal order and stores the resulting pending record.
// Nothing is written to the store unless the whole operation succeeds.
func (s *PaymentService) Initiate(ctx context.Context, customerName, customerEmail string, amount float64) (*models.Payment, error) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, newError(KindPaymentInitiationFailed, "amount must be a positive number", nil)
	}

	order, err := s.client.CreateOrder(ctx, amount, s.currency, "Payment for "+customerName, customerEmail)
	if err != nil {
		s.logger.Error("order creation failed",
			zap.String("operation", "initiate"),
			zap.Error(err),
		)
		return nil, newError(KindPaymentInitiationFailed, "failed to initiate payment", err)
	}

	now := time.Now().UTC()
	payment := &models.Payment{
		ID:             order.ID,
		CustomerName:   customerName,
		CustomerEmail:  customerEmail,
		Amount:         amount,
		Currency:       s.currency,
		Status:         models.StatusPending,
		PaymentURL:     order.ApproveURL,
		PayPalResponse: order.Raw,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Put(ctx, payment); err != nil {
		return nil, newError(KindPaymentInitiationFailed, "failed to store payment", err)
	}

	s.logger.Info("payment initiated",
		zap.String("payment_id", payment.ID),
		zap.Float64("amount", amount),
		zap.String("currency", payment.Currency),
	)
	s.publishEvent(ctx, models.EventPaymentPending, payment)

	return payment, nil
}

// GetByID returns the payment record for an id, or (nil, nil) when neither
// the store nor PayPal knows it. A cached record is returned without a
// remote call; on remote failure a record that appeared locally in the
// interim is returned as a degraded fallback.
func (s *PaymentService) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	local, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, newError(KindPaymentStatusUnavailable, "failed to read payment store", err)
	}
	if local != nil {
		return local, nil
	}

	details, err := s.client.GetOrder(ctx, id)
	if err != nil {
		if IsKind(err, KindOrderNotFound) {
			return nil, nil
		}
		s.logger.Warn("remote payment lookup failed",
			zap.String("operation", "lookup"),
			zap.String("payment_id", id),
			zap.Error(err),
		)
		if fallback, repoErr := s.repo.Get(ctx, id); repoErr == nil && fallback != nil {
			return fallback, nil
		}
		return nil, newError(KindPaymentStatusUnavailable, "failed to verify payment status", err)
	}

	now := time.Now().UTC()
	payment := &models.Payment{
		ID:             details.ID,
		CustomerName:   details.PayerName,
		CustomerEmail:  details.PayerEmail,
		Amount:         details.Amount,
		Currency:       details.Currency,
		Status:         details.Status,
		PaymentURL:     details.ApproveURL,
		PayPalResponse: details.Raw,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Put(ctx, payment); err != nil {
		return nil, newError(KindPaymentStatusUnavailable, "failed to store payment", err)
	}
	return payment, nil
}

// Capture finalizes an approved order. The record must already exist from
// Initiate; capture never fabricates customer identity. Capturing an
// already-terminal payment returns the stored record unchanged without
// another processor call, so callback retries are harmless.
func (s *PaymentService) Capture(ctx context.Context, id string) (*models.Payment, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	stored, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, newError(KindPaymentCaptureFailed, "failed to read payment store", err)
	}
	if stored == nil {
		return nil, newError(KindUnknownPayment, "payment not found", nil)
	}
	if stored.IsTerminal() {
		s.logger.Info("skipping capture of finalized payment",
			zap.String("payment_id", id),
			zap.String("status", stored.Status),
		)
		return stored, nil
	}

	result, err := s.client.CaptureOrder(ctx, id)
	if err != nil {
		s.logger.Error("order capture failed",
			zap.String("operation", "capture"),
			zap.String("payment_id", id),
			zap.Error(err),
		)
		return nil, newError(KindPaymentCaptureFailed, "failed to capture payment", err)
	}

	// Merge: customer identity from the stored record, money fields from the
	// capture response.
	updated := *stored
	updated.Status = models.StatusCompleted
	updated.Amount = result.Amount
	updated.Currency = result.Currency
	updated.PayPalResponse = result.Raw
	updated.UpdatedAt = time.Now().UTC()

	if err := s.repo.Put(ctx, &updated); err != nil {
		return nil, newError(KindPaymentCaptureFailed, "failed to store captured payment", err)
	}

	s.logger.Info("payment captured",
		zap.String("payment_id", id),
		zap.Float64("amount", updated.Amount),
		zap.String("currency", updated.Currency),
	)
	s.publishEvent(ctx, models.EventPaymentCompleted, &updated)

	return &updated, nil
}

// Cancel marks a pending payment cancelled, typically from the processor's
// cancel callback. Cancelling an already-terminal payment is a no-op that
// returns the stored record.
func (s *PaymentService) Cancel(ctx context.Context, id string) (*models.Payment, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	stored, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, newError(KindPaymentStatusUnavailable, "failed to read payment store", err)
	}
	if stored == nil {
		return nil, newError(KindUnknownPayment, "payment not found", nil)
	}
	if stored.IsTerminal() {
		return stored, nil
	}

	updated := *stored
	updated.Status = models.StatusCancelled
	updated.UpdatedAt = time.Now().UTC()
	if err := s.repo.Put(ctx, &updated); err != nil {
		return nil, newError(KindPaymentStatusUnavailable, "failed to store cancelled payment", err)
	}

	s.logger.Info("payment cancelled", zap.String("payment_id", id))
	s.publishEvent(ctx, models.EventPaymentCancelled, &updated)

	return &updated, nil
}

// publishEvent emits a lifecycle event. Publishing is best effort: a broker
// failure must not fail the payment operation itself.
func (s *PaymentService) publishEvent(ctx context.Context, eventType string, payment *models.Payment) {
	event := models.PaymentEvent{
		EventID:   uuid.NewString(),
		Type:      eventType,
		PaymentID: payment.ID,
		Status:    payment.Status,
		Amount:    payment.Amount,
		Currency:  payment.Currency,
		Timestamp: time.Now().UTC(),
	}
	if err := s.producer.PublishPaymentEvent(ctx, event); err != nil {
		s.logger.Warn("failed to publish payment event",
			zap.String("event_type", eventType),
			zap.String("payment_id", payment.ID),
			zap.Error(err),
		)
	}
}
