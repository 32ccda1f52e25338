// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Monetary columns are stored as decimal(18,2) next to a currency column and are
// rebuilt into valueobject.Money on the way out, so every amount read back is
// re-validated against the domain rules.
//
// Structure:
// - base.go: Base persistence models (BaseModel, AggregateModel)
// - partner.go: Customer
// - receivable.go: Invoice, InvoiceItem, Payment, ReminderLog
package models
