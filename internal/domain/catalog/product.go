package catalog

import (
	"strings"

	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Product represents an item that can be sold on installments
type Product struct {
	shared.BaseAggregateRoot
	Name  string
	Brand string
	SKU   string
	Price decimal.Decimal // List price
}

// NewProduct creates a new product
func NewProduct(name, brand, sku string, price decimal.Decimal) (*Product, error) {
	product := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
	}
	if err := product.set(name, brand, sku, price); err != nil {
		return nil, err
	}
	return product, nil
}

// Update replaces the product's attributes
func (p *Product) Update(name, brand, sku string, price decimal.Decimal) error {
	if err := p.set(name, brand, sku, price); err != nil {
		return err
	}
	p.MarkChanged()
	return nil
}

func (p *Product) set(name, brand, sku string, price decimal.Decimal) error {
	name = strings.TrimSpace(name)
	sku = strings.ToUpper(strings.TrimSpace(sku))
	if name == "" {
		return shared.NewValidationError("Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewValidationError("Product name cannot exceed 200 characters")
	}
	if len(brand) > 100 {
		return shared.NewValidationError("Brand cannot exceed 100 characters")
	}
	if sku == "" {
		return shared.NewValidationError("SKU cannot be empty")
	}
	if len(sku) > 50 {
		return shared.NewValidationError("SKU cannot exceed 50 characters")
	}
	if price.IsNegative() {
		return shared.NewValidationError("Price cannot be negative")
	}
	if !price.Equal(price.Truncate(2)) {
		return shared.NewValidationError("Price cannot have more than 2 decimal places")
	}

	p.Name = name
	p.Brand = strings.TrimSpace(brand)
	p.SKU = sku
	p.Price = price
	return nil
}
