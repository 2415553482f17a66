// Package models contains GORM persistence models that map to database tables.
// Domain entities stay free of GORM tags; each model converts to and from its
// domain counterpart with ToDomain and FromDomain.
//
// Structure:
// - base.go: BaseModel and AggregateModel
// - identity.go: users and login logs
// - partner.go: customers
// - catalog.go: products
// - trade.go: sales, sale items and installments
// - finance.go: collections, payment applications, deliveries and sync logs
package models
