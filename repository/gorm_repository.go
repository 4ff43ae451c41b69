package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mickey4653/restful-payment-gateway-api/models"
)

// PaymentRow is the gorm mapping for a payment record. The PayPal order id
// is the primary key, so Put is a natural upsert.
type PaymentRow struct {
	ID             string  `gorm:"primaryKey;type:varchar(64)"`
	CustomerName   string  `gorm:"type:varchar(255);not null"`
	CustomerEmail  string  `gorm:"type:varchar(255);not null"`
	Amount         float64 `gorm:"not null"`
	Currency       string  `gorm:"type:varchar(10);not null"`
	Status         string  `gorm:"type:varchar(20);not null;index"`
	PaymentURL     *string `gorm:"type:varchar(1024)"`
	PayPalResponse *string `gorm:"type:jsonb"` // last-seen raw processor snapshot, for audit
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (PaymentRow) TableName() string { return "payments" }

type gormPaymentRepo struct {
	db *gorm.DB
}

// NewGormPaymentRepo returns a PaymentRepository backed by a SQL database.
func NewGormPaymentRepo(db *gorm.DB) PaymentRepository {
	return &gormPaymentRepo{db: db}
}

func (r *gormPaymentRepo) Get(ctx context.Context, id string) (*models.Payment, error) {
	var row PaymentRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rowToPayment(&row), nil
}

func (r *gormPaymentRepo) Put(ctx context.Context, payment *models.Payment) error {
	row := paymentToRow(payment)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(row).Error
}

func rowToPayment(row *PaymentRow) *models.Payment {
	p := &models.Payment{
		ID:            row.ID,
		CustomerName:  row.CustomerName,
		CustomerEmail: row.CustomerEmail,
		Amount:        row.Amount,
		Currency:      row.Currency,
		Status:        row.Status,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	if row.PaymentURL != nil {
		p.PaymentURL = *row.PaymentURL
	}
	if row.PayPalResponse != nil {
		p.PayPalResponse = []byte(*row.PayPalResponse)
	}
	return p
}

func paymentToRow(p *models.Payment) *PaymentRow {
	row := &PaymentRow{
		ID:            p.ID,
		CustomerName:  p.CustomerName,
		CustomerEmail: p.CustomerEmail,
		Amount:        p.Amount,
		Currency:      p.Currency,
		Status:        p.Status,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.PaymentURL != "" {
		url := p.PaymentURL
		row.PaymentURL = &url
	}
	if len(p.PayPalResponse) > 0 {
		raw := string(p.PayPalResponse)
		row.PayPalResponse = &raw
	}
	return row
}
