package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/washly/order-api/internal/domains/orders/domain"
	"github.com/washly/order-api/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists orders in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	repo := &Repository{db: db}
	if db != nil {
		_ = db.AutoMigrate(&orderRecord{})
	}
	return repo
}

// orderRecord maps the order aggregate to a relational table.
type orderRecord struct {
	ID         string  `gorm:"primaryKey;column:id;type:uuid"`
	CustomerID string  `gorm:"column:customer_id;index:idx_orders_customer"`
	WorkerID   *string `gorm:"column:worker_id;index:idx_orders_worker"`

	Items     []itemRecord   `gorm:"column:items;serializer:json"`
	ItemNames pq.StringArray `gorm:"column:item_names;type:text[]"`
	Status    string         `gorm:"column:status;type:varchar(32);index:idx_orders_status"`

	TaxRate     decimal.Decimal `gorm:"column:tax_rate;type:numeric(6,4)"`
	Subtotal    decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2)"`
	Tax         decimal.Decimal `gorm:"column:tax;type:numeric(12,2)"`
	DeliveryFee decimal.Decimal `gorm:"column:delivery_fee;type:numeric(12,2)"`
	Discount    decimal.Decimal `gorm:"column:discount;type:numeric(12,2)"`
	Total       decimal.Decimal `gorm:"column:total;type:numeric(12,2)"`

	PickupAddress   string    `gorm:"column:pickup_address"`
	DeliveryAddress string    `gorm:"column:delivery_address"`
	PickupDate      time.Time `gorm:"column:pickup_date"`
	DeliveryDate    time.Time `gorm:"column:delivery_date"`

	CustomerNotes string `gorm:"column:customer_notes"`
	WorkerNotes   string `gorm:"column:worker_notes"`
	AdminNotes    string `gorm:"column:admin_notes"`

	History []domain.StatusChange `gorm:"column:history;serializer:json"`

	CreatedAt time.Time `gorm:"column:created_at;index"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

type itemRecord struct {
	ServiceID string          `json:"serviceId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Create inserts a new order.
func (r *Repository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	record := toRecord(order)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	return r.GetByID(ctx, order.ID)
}

// GetByID fetches an order by identifier.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain()
}

// List returns orders matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	query := r.db.WithContext(ctx).Model(&orderRecord{})
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.CustomerID != "" {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.WorkerID != "" {
		query = query.Where("worker_id = ?", filter.WorkerID)
	}
	var records []orderRecord
	if err := query.Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		order, err := records[i].toDomain()
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// UpdateStatus writes the mutated aggregate only while the persisted status
// still equals expected. Zero affected rows means another request won the
// race; the caller re-reads and re-evaluates.
func (r *Repository) UpdateStatus(ctx context.Context, order *domain.Order, expected domain.Status) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	record := toRecord(order)
	result := r.db.WithContext(ctx).
		Model(&orderRecord{}).
		Where("id = ? AND status = ?", record.ID, string(expected)).
		Select("worker_id", "status", "history", "customer_notes", "worker_notes", "admin_notes", "updated_at").
		Updates(&record)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, order.ID); err != nil {
			return nil, err
		}
		return nil, ports.ErrStatusConflict
	}
	return r.GetByID(ctx, order.ID)
}

// Claim assigns an unclaimed order to the worker inside one transaction with
// a row lock, so N concurrent claims produce exactly one winner even across
// processes. Losers are classified against the row state seen under the lock.
func (r *Repository) Claim(ctx context.Context, id uuid.UUID, workerID string) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record orderRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&record, "id = ?", id.String()).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ports.ErrNotFound
			}
			return err
		}
		order, err := record.toDomain()
		if err != nil {
			return err
		}
		if err := order.Assign(workerID); err != nil {
			return err
		}
		updated := toRecord(order)
		return tx.Model(&orderRecord{}).
			Where("id = ?", record.ID).
			Select("worker_id", "status", "history", "worker_notes", "updated_at").
			Updates(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func toRecord(order *domain.Order) orderRecord {
	items := make([]itemRecord, 0, len(order.Items))
	names := make(pq.StringArray, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, itemRecord{
			ServiceID: item.ServiceID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
		names = append(names, item.Name)
	}
	return orderRecord{
		ID:              order.ID.String(),
		CustomerID:      order.CustomerID,
		WorkerID:        order.WorkerID,
		Items:           items,
		ItemNames:       names,
		Status:          string(order.Status),
		TaxRate:         order.TaxRate,
		Subtotal:        order.Subtotal,
		Tax:             order.Tax,
		DeliveryFee:     order.DeliveryFee,
		Discount:        order.Discount,
		Total:           order.Total,
		PickupAddress:   order.PickupAddress,
		DeliveryAddress: order.DeliveryAddress,
		PickupDate:      order.PickupDate,
		DeliveryDate:    order.DeliveryDate,
		CustomerNotes:   order.CustomerNotes,
		WorkerNotes:     order.WorkerNotes,
		AdminNotes:      order.AdminNotes,
		History:         order.History,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}

func (r orderRecord) toDomain() (*domain.Order, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, err
	}
	items := make([]domain.LineItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, domain.LineItem{
			ServiceID: item.ServiceID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	order := &domain.Order{
		ID:              id,
		CustomerID:      r.CustomerID,
		WorkerID:        r.WorkerID,
		Items:           items,
		Status:          domain.Status(r.Status),
		TaxRate:         r.TaxRate,
		Subtotal:        r.Subtotal,
		Tax:             r.Tax,
		DeliveryFee:     r.DeliveryFee,
		Discount:        r.Discount,
		Total:           r.Total,
		PickupAddress:   r.PickupAddress,
		DeliveryAddress: r.DeliveryAddress,
		PickupDate:      r.PickupDate,
		DeliveryDate:    r.DeliveryDate,
		CustomerNotes:   r.CustomerNotes,
		WorkerNotes:     r.WorkerNotes,
		AdminNotes:      r.AdminNotes,
		History:         r.History,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	return order, nil
}
