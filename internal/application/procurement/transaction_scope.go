package procurement

import (
	"context"

	"github.com/procurement/backend/internal/domain/attachment"
	"github.com/procurement/backend/internal/domain/audit"
	"github.com/procurement/backend/internal/domain/procurement"
)

// TransactionScope provides transactional access to procurement repositories.
// All repository operations inside fn commit or roll back together.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the repositories sharing one transaction.
//
// The cascade touches disbursements, requisitions, invoices and purchase
// orders in one unit; files and activity logs are written in the same
// transaction as the mutation they describe.
type TransactionalRepositories interface {
	VendorRepo() procurement.VendorRepository
	ProjectRepo() procurement.ProjectRepository
	PurchaseOrderRepo() procurement.PurchaseOrderRepository
	InvoiceRepo() procurement.InvoiceRepository
	RequisitionRepo() procurement.CheckRequisitionRepository
	DisbursementRepo() procurement.DisbursementRepository
	FileRepo() attachment.FileRepository
	ActivityLogRepo() audit.ActivityLogRepository
}

// Repositories bundles the plain repositories used outside transactions
type Repositories struct {
	Vendors        procurement.VendorRepository
	Projects       procurement.ProjectRepository
	PurchaseOrders procurement.PurchaseOrderRepository
	Invoices       procurement.InvoiceRepository
	Requisitions   procurement.CheckRequisitionRepository
	Disbursements  procurement.DisbursementRepository
	Files          attachment.FileRepository
	ActivityLogs   audit.ActivityLogRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	repos Repositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(repos Repositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// VendorRepo returns the vendor repository.
func (s *NoOpTransactionScope) VendorRepo() procurement.VendorRepository {
	return s.repos.Vendors
}

// ProjectRepo returns the project repository.
func (s *NoOpTransactionScope) ProjectRepo() procurement.ProjectRepository {
	return s.repos.Projects
}

// PurchaseOrderRepo returns the purchase order repository.
func (s *NoOpTransactionScope) PurchaseOrderRepo() procurement.PurchaseOrderRepository {
	return s.repos.PurchaseOrders
}

// InvoiceRepo returns the invoice repository.
func (s *NoOpTransactionScope) InvoiceRepo() procurement.InvoiceRepository {
	return s.repos.Invoices
}

// RequisitionRepo returns the check requisition repository.
func (s *NoOpTransactionScope) RequisitionRepo() procurement.CheckRequisitionRepository {
	return s.repos.Requisitions
}

// DisbursementRepo returns the disbursement repository.
func (s *NoOpTransactionScope) DisbursementRepo() procurement.DisbursementRepository {
	return s.repos.Disbursements
}

// FileRepo returns the file repository.
func (s *NoOpTransactionScope) FileRepo() attachment.FileRepository {
	return s.repos.Files
}

// ActivityLogRepo returns the activity log repository.
func (s *NoOpTransactionScope) ActivityLogRepo() audit.ActivityLogRepository {
	return s.repos.ActivityLogs
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
