package procurement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/shared"
)

// VendorRepository defines the interface for vendor persistence
type VendorRepository interface {
	// Create inserts a new vendor
	Create(ctx context.Context, vendor *Vendor) error

	// SaveWithLock updates a vendor guarded by its version
	SaveWithLock(ctx context.Context, vendor *Vendor) error

	// FindByID finds a vendor within the tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Vendor, error)

	// FindAll lists vendors with filtering and pagination
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*Vendor, int64, error)

	// ExistsByCode checks if a vendor code is taken
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)
}

// ProjectRepository defines the interface for project persistence
type ProjectRepository interface {
	Create(ctx context.Context, project *Project) error
	SaveWithLock(ctx context.Context, project *Project) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Project, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*Project, int64, error)
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)
}

// PurchaseOrderRepository defines the interface for purchase order persistence
type PurchaseOrderRepository interface {
	// Create inserts a new purchase order
	Create(ctx context.Context, po *PurchaseOrder) error

	// SaveWithLock updates a purchase order guarded by its version
	SaveWithLock(ctx context.Context, po *PurchaseOrder) error

	// FindByID finds a purchase order within the tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseOrder, error)

	// FindByIDsForUpdate loads purchase orders and locks their rows
	FindByIDsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*PurchaseOrder, error)

	// FindAll lists purchase orders with filtering and pagination
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*PurchaseOrder, int64, error)

	// Delete removes a purchase order
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	// NextNumber generates the next PO-YYYYMM-NNNN number for the month of at
	NextNumber(ctx context.Context, tenantID uuid.UUID, at time.Time) (string, error)
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// Create inserts a new invoice
	Create(ctx context.Context, invoice *Invoice) error

	// SaveWithLock updates an invoice guarded by its version
	SaveWithLock(ctx context.Context, invoice *Invoice) error

	// FindByID finds an invoice within the tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)

	// FindByIDs loads invoices without locking; missing ids are skipped
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*Invoice, error)

	// FindByIDsForUpdate loads invoices and locks their rows
	FindByIDsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*Invoice, error)

	// FindByPurchaseOrder lists every invoice billed against a purchase order
	FindByPurchaseOrder(ctx context.Context, tenantID, poID uuid.UUID) ([]*Invoice, error)

	// FindAll lists invoices with filtering and pagination
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*Invoice, int64, error)

	// Delete removes an invoice
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	// ExistsByNumber checks if the vendor already issued an invoice number
	ExistsByNumber(ctx context.Context, tenantID, vendorID uuid.UUID, number string, excludeID *uuid.UUID) (bool, error)
}

// CheckRequisitionRepository defines the interface for check requisition persistence
type CheckRequisitionRepository interface {
	// Create inserts a requisition together with its invoice links
	Create(ctx context.Context, cr *CheckRequisition) error

	// SaveWithLock updates a requisition and its invoice links guarded by its version
	SaveWithLock(ctx context.Context, cr *CheckRequisition) error

	// FindByID finds a requisition within the tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*CheckRequisition, error)

	// FindByIDForUpdate finds a requisition and locks its row
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*CheckRequisition, error)

	// FindByIDs loads requisitions without locking; missing ids are skipped
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*CheckRequisition, error)

	// FindByIDsForUpdate loads requisitions and locks their rows; missing ids are skipped
	FindByIDsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*CheckRequisition, error)

	// FindAll lists requisitions with filtering and pagination
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*CheckRequisition, int64, error)

	// Delete removes a requisition and its invoice links
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	// NextNumber generates the next CR-YYYYMM-NNNN number for the month of at
	NextNumber(ctx context.Context, tenantID uuid.UUID, at time.Time) (string, error)

	// ExternalRefs counts, per invoice, the non-rejected requisitions linking it
	// other than the excluded ones
	ExternalRefs(ctx context.Context, tenantID uuid.UUID, invoiceIDs, excludeRequisitionIDs []uuid.UUID) (map[uuid.UUID]ExternalRefs, error)

	// FindDisbursementID returns the disbursement a requisition is attached to, if any
	FindDisbursementID(ctx context.Context, tenantID, requisitionID uuid.UUID) (*uuid.UUID, error)
}

// DisbursementRepository defines the interface for disbursement persistence
type DisbursementRepository interface {
	// Create inserts a disbursement together with its requisition links
	Create(ctx context.Context, d *Disbursement) error

	// SaveWithLock updates a disbursement and its links guarded by its version
	SaveWithLock(ctx context.Context, d *Disbursement) error

	// FindByID finds a disbursement within the tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Disbursement, error)

	// FindByIDForUpdate finds a disbursement and locks its row
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Disbursement, error)

	// FindAll lists disbursements with filtering and pagination
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*Disbursement, int64, error)

	// Delete removes a disbursement and its requisition links
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	// ExistsByVoucherNumber checks if a voucher number is taken
	ExistsByVoucherNumber(ctx context.Context, tenantID uuid.UUID, voucher string, excludeID *uuid.UUID) (bool, error)

	// FindAttachedElsewhere returns the requisitions among ids attached to another disbursement
	FindAttachedElsewhere(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID, excludeID *uuid.UUID) ([]uuid.UUID, error)
}
