package migrations

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Intended to replace
// adapter-level automigrate.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&orderRecord{},
		&paymentRecord{},
	)
}

// statusChange is the shape persisted inside the JSON history columns.
type statusChange struct {
	Status  string    `json:"status"`
	ActorID string    `json:"actorId"`
	At      time.Time `json:"at"`
	Note    string    `json:"note,omitempty"`
}

type itemRecord struct {
	ServiceID string          `json:"serviceId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Order schema mirrors the orders Postgres adapter.
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

	History []statusChange `gorm:"column:history;serializer:json"`

	CreatedAt time.Time `gorm:"column:created_at;index"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

// Payment schema mirrors the payments Postgres adapter. The unique index on
// order_id backs the one-payment-per-order rule.
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

	History []statusChange `gorm:"column:history;serializer:json"`

	CreatedAt time.Time `gorm:"column:created_at;index"`
	UpdatedAt time.Time `gorm:"column:updated_at;index"`
}

func (paymentRecord) TableName() string { return "payments" }
