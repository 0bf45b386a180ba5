package persistence

import (
	"context"

	appattachment "github.com/procurement/backend/internal/application/attachment"
	appidentity "github.com/procurement/backend/internal/application/identity"
	appprocurement "github.com/procurement/backend/internal/application/procurement"
	"github.com/procurement/backend/internal/domain/attachment"
	"github.com/procurement/backend/internal/domain/audit"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/procurement"
	"gorm.io/gorm"
)

// GormTransactionScope runs procurement changes in one database transaction.
// If fn returns an error the transaction is rolled back, otherwise committed.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appprocurement.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories hands out repositories bound to one transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) VendorRepo() procurement.VendorRepository {
	return NewGormVendorRepository(r.tx)
}

func (r *gormTransactionalRepositories) ProjectRepo() procurement.ProjectRepository {
	return NewGormProjectRepository(r.tx)
}

func (r *gormTransactionalRepositories) PurchaseOrderRepo() procurement.PurchaseOrderRepository {
	return NewGormPurchaseOrderRepository(r.tx)
}

func (r *gormTransactionalRepositories) InvoiceRepo() procurement.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

func (r *gormTransactionalRepositories) RequisitionRepo() procurement.CheckRequisitionRepository {
	return NewGormCheckRequisitionRepository(r.tx)
}

func (r *gormTransactionalRepositories) DisbursementRepo() procurement.DisbursementRepository {
	return NewGormDisbursementRepository(r.tx)
}

func (r *gormTransactionalRepositories) FileRepo() attachment.FileRepository {
	return NewGormFileRepository(r.tx)
}

func (r *gormTransactionalRepositories) RemarkRepo() attachment.RemarkRepository {
	return NewGormRemarkRepository(r.tx)
}

func (r *gormTransactionalRepositories) UserRepo() identity.UserRepository {
	return NewGormUserRepository(r.tx)
}

func (r *gormTransactionalRepositories) ActivityLogRepo() audit.ActivityLogRepository {
	return NewGormActivityLogRepository(r.tx)
}

// GormAttachmentTransactionScope runs file and remark changes with their
// activity log in one transaction.
type GormAttachmentTransactionScope struct {
	db *gorm.DB
}

// NewGormAttachmentTransactionScope creates a new GormAttachmentTransactionScope.
func NewGormAttachmentTransactionScope(db *gorm.DB) *GormAttachmentTransactionScope {
	return &GormAttachmentTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
func (s *GormAttachmentTransactionScope) Execute(ctx context.Context, fn func(repos appattachment.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// GormIdentityTransactionScope runs user changes with their activity log in
// one transaction.
type GormIdentityTransactionScope struct {
	db *gorm.DB
}

// NewGormIdentityTransactionScope creates a new GormIdentityTransactionScope.
func NewGormIdentityTransactionScope(db *gorm.DB) *GormIdentityTransactionScope {
	return &GormIdentityTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
func (s *GormIdentityTransactionScope) Execute(ctx context.Context, fn func(repos appidentity.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

var _ appprocurement.TransactionScope = (*GormTransactionScope)(nil)
var _ appprocurement.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
var _ appattachment.TransactionScope = (*GormAttachmentTransactionScope)(nil)
var _ appattachment.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
var _ appidentity.TransactionScope = (*GormIdentityTransactionScope)(nil)
var _ appidentity.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
