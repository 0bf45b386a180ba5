// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
//   - base.go: shared columns (BaseModel, AggregateModel, TenantAggregateModel)
//   - procurement.go: vendors, projects, purchase orders, invoices, check requisitions,
//     disbursements and their link tables
//   - attachment.go: file metadata and remarks
//   - audit.go: activity log entries
//   - identity.go: users and their module permissions
package models
