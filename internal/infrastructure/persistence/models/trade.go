package models

import (
	"time"

	"github.com/cobranzas/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleModel is the persistence model for the Sale aggregate root.
type SaleModel struct {
	AggregateModel
	CustomerID        uuid.UUID          `gorm:"type:uuid;not null;index"`
	CollectorID       *uuid.UUID         `gorm:"type:uuid;index"`
	CreatedBy         uuid.UUID          `gorm:"type:uuid;not null"`
	Price             decimal.Decimal    `gorm:"type:decimal(18,2);not null"`
	InstallmentAmount decimal.Decimal    `gorm:"type:decimal(18,2);not null"`
	InstallmentCount  int                `gorm:"not null"`
	SaleDate          time.Time          `gorm:"not null;index"`
	Remarks           string             `gorm:"type:varchar(500)"`
	Uncollectible     bool               `gorm:"not null;default:false;index"`
	Items             []SaleItemModel    `gorm:"foreignKey:SaleID;references:ID"`
	Installments      []InstallmentModel `gorm:"foreignKey:SaleID;references:ID"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the persistence model to a domain Sale entity.
// Installments are ordered by ordinal.
func (m *SaleModel) ToDomain() *trade.Sale {
	sale := &trade.Sale{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		CustomerID:        m.CustomerID,
		CollectorID:       m.CollectorID,
		CreatedBy:         m.CreatedBy,
		Price:             m.Price,
		InstallmentAmount: m.InstallmentAmount,
		InstallmentCount:  m.InstallmentCount,
		SaleDate:          m.SaleDate,
		Remarks:           m.Remarks,
		Uncollectible:     m.Uncollectible,
		Items:             make([]trade.SaleItem, len(m.Items)),
		Installments:      make([]trade.Installment, len(m.Installments)),
	}
	for i := range m.Items {
		sale.Items[i] = *m.Items[i].ToDomain()
	}
	for i := range m.Installments {
		sale.Installments[i] = *m.Installments[i].ToDomain()
	}
	return sale
}

// FromDomain populates the persistence model from a domain Sale entity.
// Items and installments are copied so Create can insert the whole aggregate.
func (m *SaleModel) FromDomain(s *trade.Sale) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.CustomerID = s.CustomerID
	m.CollectorID = s.CollectorID
	m.CreatedBy = s.CreatedBy
	m.Price = s.Price
	m.InstallmentAmount = s.InstallmentAmount
	m.InstallmentCount = s.InstallmentCount
	m.SaleDate = s.SaleDate
	m.Remarks = s.Remarks
	m.Uncollectible = s.Uncollectible

	m.Items = make([]SaleItemModel, len(s.Items))
	for i := range s.Items {
		m.Items[i] = *SaleItemModelFromDomain(&s.Items[i])
	}
	m.Installments = make([]InstallmentModel, len(s.Installments))
	for i := range s.Installments {
		m.Installments[i] = *InstallmentModelFromDomain(&s.Installments[i])
	}
}

// SaleModelFromDomain creates a new persistence model from a domain Sale entity.
func SaleModelFromDomain(s *trade.Sale) *SaleModel {
	m := &SaleModel{}
	m.FromDomain(s)
	return m
}

// SaleItemModel is the persistence model for a product line of a sale.
type SaleItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	SaleID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	Price       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (SaleItemModel) TableName() string {
	return "sale_items"
}

// ToDomain converts the persistence model to a domain SaleItem.
func (m *SaleItemModel) ToDomain() *trade.SaleItem {
	return &trade.SaleItem{
		ID:          m.ID,
		SaleID:      m.SaleID,
		ProductID:   m.ProductID,
		ProductName: m.ProductName,
		Price:       m.Price,
	}
}

// SaleItemModelFromDomain creates a new persistence model from a domain SaleItem.
func SaleItemModelFromDomain(i *trade.SaleItem) *SaleItemModel {
	return &SaleItemModel{
		ID:          i.ID,
		SaleID:      i.SaleID,
		ProductID:   i.ProductID,
		ProductName: i.ProductName,
		Price:       i.Price,
	}
}

// InstallmentModel is the persistence model for an installment.
type InstallmentModel struct {
	ID            uuid.UUID               `gorm:"type:uuid;primary_key"`
	SaleID        uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex:idx_installment_sale_ordinal,priority:1"`
	Ordinal       int                     `gorm:"not null;uniqueIndex:idx_installment_sale_ordinal,priority:2"`
	Amount        decimal.Decimal         `gorm:"type:decimal(18,2);not null"`
	PaidAmount    decimal.Decimal         `gorm:"type:decimal(18,2);not null;default:0"`
	Status        trade.InstallmentStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	LastPaymentAt *time.Time
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (InstallmentModel) TableName() string {
	return "installments"
}

// ToDomain converts the persistence model to a domain Installment.
func (m *InstallmentModel) ToDomain() *trade.Installment {
	return &trade.Installment{
		ID:            m.ID,
		SaleID:        m.SaleID,
		Ordinal:       m.Ordinal,
		Amount:        m.Amount,
		PaidAmount:    m.PaidAmount,
		Status:        m.Status,
		LastPaymentAt: m.LastPaymentAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// InstallmentModelFromDomain creates a new persistence model from a domain Installment.
func InstallmentModelFromDomain(i *trade.Installment) *InstallmentModel {
	return &InstallmentModel{
		ID:            i.ID,
		SaleID:        i.SaleID,
		Ordinal:       i.Ordinal,
		Amount:        i.Amount,
		PaidAmount:    i.PaidAmount,
		Status:        i.Status,
		LastPaymentAt: i.LastPaymentAt,
		CreatedAt:     i.CreatedAt,
		UpdatedAt:     i.UpdatedAt,
	}
}
