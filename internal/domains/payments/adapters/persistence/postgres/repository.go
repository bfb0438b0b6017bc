package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/washly/order-api/internal/domains/payments/domain"
	"github.com/washly/order-api/internal/domains/payments/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists payments in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	repo := &Repository{db: db}
	if db != nil {
		_ = db.AutoMigrate(&paymentRecord{})
	}
	return repo
}

// paymentRecord maps the payment aggregate to a relational table. The unique
// index on order_id backs the 1:1 order/payment invariant.
type paymentRecord struct {
	ID         string  `gorm:"primaryKey;column:id;type:uuid"`
	OrderID    string  `gorm:"column:order_id;type:uuid;uniqueIndex"`
	CustomerID string  `gorm:"column:customer_id;index"`
	WorkerID   *string `gorm:"column:worker_id"`

	Amount decimal.Decimal `gorm:"column:amount;type:numeric(12,2)"`
	Method string          `gorm:"column:method;type:varchar(32)"`
	Status string          `gorm:"column:status;type:varchar(32);index"`

	ProviderRef           string `gorm:"column:provider_ref;index"`
	ProviderSubStatus     string `gorm:"column:provider_sub_status"`
	ProviderTransactionID string `gorm:"column:provider_transaction_id"`

	History []domain.StatusChange `gorm:"column:history;serializer:json"`

	CreatedAt time.Time `gorm:"column:created_at;index"`
	UpdatedAt time.Time `gorm:"column:updated_at;index"`
}

func (paymentRecord) TableName() string { return "payments" }

// Create inserts a new payment, translating the unique-index violation on
// order_id into the duplicate-payment error.
func (r *Repository) Create(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, errors.New("payment is nil")
	}
	record := toRecord(payment)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ports.ErrDuplicatePayment
		}
		return nil, err
	}
	return r.GetByID(ctx, payment.ID)
}

// GetByID fetches a payment by identifier.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	return r.getBy(ctx, "id = ?", id.String())
}

// GetByOrderID fetches the payment owned by an order.
func (r *Repository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error) {
	return r.getBy(ctx, "order_id = ?", orderID.String())
}

// GetByProviderRef correlates a gateway callback with its payment.
func (r *Repository) GetByProviderRef(ctx context.Context, providerRef string) (*domain.Payment, error) {
	if providerRef == "" {
		return nil, ports.ErrNotFound
	}
	return r.getBy(ctx, "provider_ref = ?", providerRef)
}

// UpdateStatus writes the mutated payment only while the persisted status
// still equals expected.
func (r *Repository) UpdateStatus(ctx context.Context, payment *domain.Payment, expected domain.Status) (*domain.Payment, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, errors.New("payment is nil")
	}
	record := toRecord(payment)
	result := r.db.WithContext(ctx).
		Model(&paymentRecord{}).
		Where("id = ? AND status = ?", record.ID, string(expected)).
		Select("status", "provider_ref", "provider_sub_status", "provider_transaction_id", "history", "worker_id", "updated_at").
		Updates(&record)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, payment.ID); err != nil {
			return nil, err
		}
		return nil, ports.ErrStatusConflict
	}
	return r.GetByID(ctx, payment.ID)
}

// ListStuckProcessing returns processing payments with a provider reference
// last touched before the cutoff.
func (r *Repository) ListStuckProcessing(ctx context.Context, updatedBefore time.Time) ([]*domain.Payment, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []paymentRecord
	if err := r.db.WithContext(ctx).
		Where("status = ? AND provider_ref <> '' AND updated_at < ?", string(domain.StatusProcessing), updatedBefore).
		Order("updated_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	payments := make([]*domain.Payment, 0, len(records))
	for i := range records {
		payment, err := records[i].toDomain()
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, nil
}

func (r *Repository) getBy(ctx context.Context, query string, arg any) (*domain.Payment, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record paymentRecord
	if err := r.db.WithContext(ctx).First(&record, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain()
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres payment repository not configured")
	}
	return nil
}

func toRecord(payment *domain.Payment) paymentRecord {
	return paymentRecord{
		ID:                    payment.ID.String(),
		OrderID:               payment.OrderID.String(),
		CustomerID:            payment.CustomerID,
		WorkerID:              payment.WorkerID,
		Amount:                payment.Amount,
		Method:                string(payment.Method),
		Status:                string(payment.Status),
		ProviderRef:           payment.ProviderRef,
		ProviderSubStatus:     payment.ProviderSubStatus,
		ProviderTransactionID: payment.ProviderTransactionID,
		History:               payment.History,
		CreatedAt:             payment.CreatedAt,
		UpdatedAt:             payment.UpdatedAt,
	}
}

func (r paymentRecord) toDomain() (*domain.Payment, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, err
	}
	orderID, err := uuid.Parse(r.OrderID)
	if err != nil {
		return nil, err
	}
	return &domain.Payment{
		ID:                    id,
		OrderID:               orderID,
		CustomerID:            r.CustomerID,
		WorkerID:              r.WorkerID,
		Amount:                r.Amount,
		Method:                domain.Method(r.Method),
		Status:                domain.Status(r.Status),
		ProviderRef:           r.ProviderRef,
		ProviderSubStatus:     r.ProviderSubStatus,
		ProviderTransactionID: r.ProviderTransactionID,
		History:               r.History,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}, nil
}
