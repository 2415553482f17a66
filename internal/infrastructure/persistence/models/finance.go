package models

import (
	"time"

	"github.com/cobranzas/backend/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CollectionModel is the persistence model for the Collection aggregate root.
type CollectionModel struct {
	AggregateModel
	CollectorID     uuid.UUID `gorm:"type:uuid;not null;index"`
	CustomerID      uuid.UUID `gorm:"type:uuid;not null;index"`
	CollectedAt     time.Time `gorm:"not null;index"`
	Delivered       bool      `gorm:"not null;default:false;index"`
	DeliveredAt     *time.Time
	ClientReference *string                   `gorm:"type:varchar(100);uniqueIndex"`
	Applications    []PaymentApplicationModel `gorm:"foreignKey:CollectionID;references:ID"`
}

// TableName returns the table name for GORM
func (CollectionModel) TableName() string {
	return "collections"
}

// ToDomain converts the persistence model to a domain Collection.
func (m *CollectionModel) ToDomain() *finance.Collection {
	c := &finance.Collection{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		CollectorID:       m.CollectorID,
		CustomerID:        m.CustomerID,
		CollectedAt:       m.CollectedAt,
		Delivered:         m.Delivered,
		DeliveredAt:       m.DeliveredAt,
		Applications:      make([]finance.PaymentApplication, len(m.Applications)),
	}
	if m.ClientReference != nil {
		c.ClientReference = *m.ClientReference
	}
	for i := range m.Applications {
		c.Applications[i] = *m.Applications[i].ToDomain()
	}
	return c
}

// FromDomain populates the persistence model from a domain Collection.
// An empty client reference is stored as NULL so the unique index only
// applies to offline submissions.
func (m *CollectionModel) FromDomain(c *finance.Collection) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.CollectorID = c.CollectorID
	m.CustomerID = c.CustomerID
	m.CollectedAt = c.CollectedAt
	m.Delivered = c.Delivered
	m.DeliveredAt = c.DeliveredAt
	m.ClientReference = nil
	if c.ClientReference != "" {
		ref := c.ClientReference
		m.ClientReference = &ref
	}
	m.Applications = make([]PaymentApplicationModel, len(c.Applications))
	for i := range c.Applications {
		m.Applications[i] = *PaymentApplicationModelFromDomain(&c.Applications[i])
	}
}

// CollectionModelFromDomain creates a new persistence model from a domain Collection.
func CollectionModelFromDomain(c *finance.Collection) *CollectionModel {
	m := &CollectionModel{}
	m.FromDomain(c)
	return m
}

// PaymentApplicationModel is the persistence model for a payment application.
type PaymentApplicationModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	CollectionID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	InstallmentID uuid.UUID       `gorm:"type:uuid;not null;index"`
	SaleID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Ordinal       int             `gorm:"not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CreatedAt     time.Time       `gorm:"not null"`
	UpdatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentApplicationModel) TableName() string {
	return "payment_applications"
}

// ToDomain converts the persistence model to a domain PaymentApplication.
func (m *PaymentApplicationModel) ToDomain() *finance.PaymentApplication {
	return &finance.PaymentApplication{
		ID:            m.ID,
		CollectionID:  m.CollectionID,
		InstallmentID: m.InstallmentID,
		SaleID:        m.SaleID,
		Ordinal:       m.Ordinal,
		Amount:        m.Amount,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// PaymentApplicationModelFromDomain creates a new persistence model from a domain PaymentApplication.
func PaymentApplicationModelFromDomain(a *finance.PaymentApplication) *PaymentApplicationModel {
	return &PaymentApplicationModel{
		ID:            a.ID,
		CollectionID:  a.CollectionID,
		InstallmentID: a.InstallmentID,
		SaleID:        a.SaleID,
		Ordinal:       a.Ordinal,
		Amount:        a.Amount,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// CollectionDeliveryModel records the hand-over of a collection to the office.
type CollectionDeliveryModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	CollectionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	DeliveredBy  uuid.UUID `gorm:"type:uuid;not null;index"`
	DeliveredAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CollectionDeliveryModel) TableName() string {
	return "collection_deliveries"
}

// SyncLogModel records an offline snapshot pull.
type SyncLogModel struct {
	ID       uuid.UUID  `gorm:"type:uuid;primary_key"`
	UserID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	SyncedAt time.Time  `gorm:"not null;index"`
	Marker   *time.Time
}

// TableName returns the table name for GORM
func (SyncLogModel) TableName() string {
	return "sync_logs"
}

// ToDomain converts the persistence model to a domain SyncLog.
func (m *SyncLogModel) ToDomain() *finance.SyncLog {
	return &finance.SyncLog{
		ID:       m.ID,
		UserID:   m.UserID,
		SyncedAt: m.SyncedAt,
		Marker:   m.Marker,
	}
}
