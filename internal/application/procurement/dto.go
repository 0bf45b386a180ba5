package procurement

import (
	"time"

	"github.com/google/uuid"
	attachmentapp "github.com/procurement/backend/internal/application/attachment"
	"github.com/procurement/backend/internal/domain/procurement"
	"github.com/shopspring/decimal"
)

// ==================== Common ====================

// ListFilter holds the shared list query parameters
type ListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search   string `form:"search" binding:"max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=created_at updated_at"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ==================== Vendor DTOs ====================

// CreateVendorRequest represents a request to create a vendor
type CreateVendorRequest struct {
	Code             string `json:"code" binding:"required,min=1,max=50"`
	Name             string `json:"name" binding:"required,min=1,max=200"`
	TIN              string `json:"tin" binding:"max=50"`
	Address          string `json:"address" binding:"max=500"`
	ContactPerson    string `json:"contact_person" binding:"max=100"`
	Email            string `json:"email" binding:"omitempty,email,max=200"`
	Phone            string `json:"phone" binding:"max=50"`
	PaymentTermsDays int    `json:"payment_terms_days" binding:"min=0,max=365"`
}

// UpdateVendorRequest represents a request to update a vendor
type UpdateVendorRequest struct {
	Name             string `json:"name" binding:"required,min=1,max=200"`
	TIN              string `json:"tin" binding:"max=50"`
	Address          string `json:"address" binding:"max=500"`
	ContactPerson    string `json:"contact_person" binding:"max=100"`
	Email            string `json:"email" binding:"omitempty,email,max=200"`
	Phone            string `json:"phone" binding:"max=50"`
	PaymentTermsDays int    `json:"payment_terms_days" binding:"min=0,max=365"`
	IsActive         *bool  `json:"is_active"`
}

// VendorListFilter represents the vendor list query
type VendorListFilter struct {
	ListFilter
	IsActive *bool `form:"is_active"`
}

// VendorResponse represents a vendor in API responses
type VendorResponse struct {
	ID               uuid.UUID `json:"id"`
	Code             string    `json:"code"`
	Name             string    `json:"name"`
	TIN              string    `json:"tin,omitempty"`
	Address          string    `json:"address,omitempty"`
	ContactPerson    string    `json:"contact_person,omitempty"`
	Email            string    `json:"email,omitempty"`
	Phone            string    `json:"phone,omitempty"`
	PaymentTermsDays int       `json:"payment_terms_days"`
	IsActive         bool      `json:"is_active"`
	Version          int       `json:"version"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ToVendorResponse converts a domain vendor to a response
func ToVendorResponse(v *procurement.Vendor) VendorResponse {
	return VendorResponse{
		ID:               v.ID,
		Code:             v.Code,
		Name:             v.Name,
		TIN:              v.TIN,
		Address:          v.Address,
		ContactPerson:    v.ContactPerson,
		Email:            v.Email,
		Phone:            v.Phone,
		PaymentTermsDays: v.PaymentTermsDays,
		IsActive:         v.IsActive,
		Version:          v.Version,
		CreatedAt:        v.CreatedAt,
		UpdatedAt:        v.UpdatedAt,
	}
}

// ==================== Project DTOs ====================

// CreateProjectRequest represents a request to create a project
type CreateProjectRequest struct {
	Code        string     `json:"code" binding:"required,min=1,max=50"`
	Name        string     `json:"name" binding:"required,min=1,max=200"`
	Description string     `json:"description" binding:"max=2000"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

// UpdateProjectRequest represents a request to update a project
type UpdateProjectRequest struct {
	Name        string     `json:"name" binding:"required,min=1,max=200"`
	Description string     `json:"description" binding:"max=2000"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Status      *string    `json:"status" binding:"omitempty,oneof=active on_hold completed"`
}

// ProjectListFilter represents the project list query
type ProjectListFilter struct {
	ListFilter
	Status string `form:"status" binding:"omitempty,oneof=active on_hold completed"`
}

// ProjectResponse represents a project in API responses
type ProjectResponse struct {
	ID          uuid.UUID  `json:"id"`
	Code        string     `json:"code"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Version     int        `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ToProjectResponse converts a domain project to a response
func ToProjectResponse(p *procurement.Project) ProjectResponse {
	return ProjectResponse{
		ID:          p.ID,
		Code:        p.Code,
		Name:        p.Name,
		Description: p.Description,
		Status:      string(p.Status),
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		Version:     p.Version,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ==================== Purchase Order DTOs ====================

// PurchaseOrderRequest represents a request to create or update a purchase order
type PurchaseOrderRequest struct {
	VendorID             uuid.UUID       `json:"vendor_id" binding:"required"`
	ProjectID            uuid.UUID       `json:"project_id" binding:"required"`
	Amount               decimal.Decimal `json:"amount" binding:"required,money"`
	Currency             string          `json:"currency" binding:"omitempty,len=3"`
	Description          string          `json:"description" binding:"max=2000"`
	PaymentTerms         string          `json:"payment_terms" binding:"max=200"`
	ExpectedDeliveryDate *time.Time      `json:"expected_delivery_date"`
	Version              *int            `json:"version"`
}

// CancelRequest carries a cancellation reason
type CancelRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// PurchaseOrderListFilter represents the purchase order list query
type PurchaseOrderListFilter struct {
	ListFilter
	Status    string     `form:"status" binding:"omitempty,oneof=draft open closed cancelled"`
	VendorID  *uuid.UUID `form:"-"`
	ProjectID *uuid.UUID `form:"-"`
}

// PurchaseOrderResponse represents a purchase order in API responses
type PurchaseOrderResponse struct {
	ID                   uuid.UUID       `json:"id"`
	PONumber             string          `json:"po_number"`
	VendorID             uuid.UUID       `json:"vendor_id"`
	ProjectID            uuid.UUID       `json:"project_id"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"`
	Status               string          `json:"status"`
	Description          string          `json:"description,omitempty"`
	PaymentTerms         string          `json:"payment_terms,omitempty"`
	ExpectedDeliveryDate *time.Time      `json:"expected_delivery_date,omitempty"`
	FinalizedAt          *time.Time      `json:"finalized_at,omitempty"`
	FinalizedBy          *uuid.UUID      `json:"finalized_by,omitempty"`
	ClosedAt             *time.Time      `json:"closed_at,omitempty"`
	CancelledAt          *time.Time      `json:"cancelled_at,omitempty"`
	CancelReason         string          `json:"cancel_reason,omitempty"`
	TotalInvoiced        decimal.Decimal `json:"total_invoiced"`
	TotalPaid            decimal.Decimal `json:"total_paid"`
	RemainingAmount      decimal.Decimal `json:"remaining_amount"`
	InvoicedPercentage   decimal.Decimal `json:"invoiced_percentage"`
	Version              int             `json:"version"`
	CreatedBy            *uuid.UUID      `json:"created_by,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// ToPurchaseOrderResponse converts a domain purchase order to a response
func ToPurchaseOrderResponse(o *procurement.PurchaseOrder) PurchaseOrderResponse {
	return PurchaseOrderResponse{
		ID:                   o.ID,
		PONumber:             o.PONumber,
		VendorID:             o.VendorID,
		ProjectID:            o.ProjectID,
		Amount:               o.Amount,
		Currency:             o.Currency,
		Status:               string(o.Status),
		Description:          o.Description,
		PaymentTerms:         o.PaymentTerms,
		ExpectedDeliveryDate: o.ExpectedDeliveryDate,
		FinalizedAt:          o.FinalizedAt,
		FinalizedBy:          o.FinalizedBy,
		ClosedAt:             o.ClosedAt,
		CancelledAt:          o.CancelledAt,
		CancelReason:         o.CancelReason,
		TotalInvoiced:        o.TotalInvoiced,
		TotalPaid:            o.TotalPaid,
		RemainingAmount:      o.RemainingAmount(),
		InvoicedPercentage:   o.InvoicedPercentage(),
		Version:              o.Version,
		CreatedBy:            o.CreatedBy,
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
	}
}

// ==================== Invoice DTOs ====================

// InvoiceRequest represents a request to create or update an invoice
type InvoiceRequest struct {
	InvoiceNumber   string          `json:"invoice_number" binding:"required,min=1,max=100"`
	PurchaseOrderID *uuid.UUID      `json:"purchase_order_id"`
	VendorID        uuid.UUID       `json:"vendor_id" binding:"required"`
	ProjectID       *uuid.UUID      `json:"project_id"`
	InvoiceDate     time.Time       `json:"invoice_date" binding:"required"`
	DueDate         *time.Time      `json:"due_date"`
	Currency        string          `json:"currency" binding:"omitempty,len=3"`
	GrossAmount     decimal.Decimal `json:"gross_amount" binding:"money"`
	VATAmount       decimal.Decimal `json:"vat_amount" binding:"money"`
	NetAmount       decimal.Decimal `json:"net_amount" binding:"required,money"`
	Description     string          `json:"description" binding:"max=2000"`
	Version         *int            `json:"version"`
}

// RejectRequest carries a rejection reason
type RejectRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=1000"`
}

// InvoiceListFilter represents the invoice list query
type InvoiceListFilter struct {
	ListFilter
	Status          string     `form:"status" binding:"omitempty,oneof=pending received in_progress approved rejected pending_disbursement paid"`
	VendorID        *uuid.UUID `form:"-"`
	ProjectID       *uuid.UUID `form:"-"`
	PurchaseOrderID *uuid.UUID `form:"-"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID              uuid.UUID       `json:"id"`
	InvoiceNumber   string          `json:"invoice_number"`
	PurchaseOrderID *uuid.UUID      `json:"purchase_order_id,omitempty"`
	VendorID        uuid.UUID       `json:"vendor_id"`
	ProjectID       *uuid.UUID      `json:"project_id,omitempty"`
	InvoiceDate     time.Time       `json:"invoice_date"`
	DueDate         *time.Time      `json:"due_date,omitempty"`
	Currency        string          `json:"currency"`
	GrossAmount     decimal.Decimal `json:"gross_amount"`
	VATAmount       decimal.Decimal `json:"vat_amount"`
	NetAmount       decimal.Decimal `json:"net_amount"`
	Status          string          `json:"status"`
	SIReceivedAt    *time.Time      `json:"si_received_at,omitempty"`
	ReceivedBy      *uuid.UUID      `json:"received_by,omitempty"`
	ReviewedAt      *time.Time      `json:"reviewed_at,omitempty"`
	ReviewedBy      *uuid.UUID      `json:"reviewed_by,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	ApprovedBy      *uuid.UUID      `json:"approved_by,omitempty"`
	RejectedAt      *time.Time      `json:"rejected_at,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	Description     string          `json:"description,omitempty"`
	Editable        bool            `json:"editable"`
	Version         int             `json:"version"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ToInvoiceResponse converts a domain invoice to a response
func ToInvoiceResponse(i *procurement.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:              i.ID,
		InvoiceNumber:   i.InvoiceNumber,
		PurchaseOrderID: i.PurchaseOrderID,
		VendorID:        i.VendorID,
		ProjectID:       i.ProjectID,
		InvoiceDate:     i.InvoiceDate,
		DueDate:         i.DueDate,
		Currency:        i.Currency,
		GrossAmount:     i.GrossAmount,
		VATAmount:       i.VATAmount,
		NetAmount:       i.NetAmount,
		Status:          string(i.Status),
		SIReceivedAt:    i.SIReceivedAt,
		ReceivedBy:      i.ReceivedBy,
		ReviewedAt:      i.ReviewedAt,
		ReviewedBy:      i.ReviewedBy,
		ApprovedAt:      i.ApprovedAt,
		ApprovedBy:      i.ApprovedBy,
		RejectedAt:      i.RejectedAt,
		RejectionReason: i.RejectionReason,
		PaidAt:          i.PaidAt,
		Description:     i.Description,
		Editable:        i.IsEditable(),
		Version:         i.Version,
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
	}
}

// ==================== Check Requisition DTOs ====================

// CheckRequisitionRequest represents a request to create or update a check requisition
type CheckRequisitionRequest struct {
	VendorID        *uuid.UUID      `json:"vendor_id"`
	PayeeName       string          `json:"payee_name" binding:"max=200"`
	ProjectID       *uuid.UUID      `json:"project_id"`
	PurchaseOrderID *uuid.UUID      `json:"purchase_order_id"`
	PHPAmount       decimal.Decimal `json:"php_amount" binding:"required,money"`
	Purpose         string          `json:"purpose" binding:"max=2000"`
	RequestedBy     *uuid.UUID      `json:"requested_by"`
	RequestedByName string          `json:"requested_by_name" binding:"max=200"`
	RequestDate     time.Time       `json:"request_date" binding:"required"`
	InvoiceIDs      []uuid.UUID     `json:"invoice_ids" binding:"required,min=1,dive,required"`
	Version         *int            `json:"version"`
}

// CheckRequisitionListFilter represents the requisition list query
type CheckRequisitionListFilter struct {
	ListFilter
	Status    string     `form:"status" binding:"omitempty,oneof=pending_approval approved rejected processed paid"`
	VendorID  *uuid.UUID `form:"-"`
	ProjectID *uuid.UUID `form:"-"`
}

// CheckRequisitionResponse represents a check requisition in API responses
type CheckRequisitionResponse struct {
	ID                uuid.UUID       `json:"id"`
	RequisitionNumber string          `json:"requisition_number"`
	VendorID          *uuid.UUID      `json:"vendor_id,omitempty"`
	PayeeName         string          `json:"payee_name"`
	ProjectID         *uuid.UUID      `json:"project_id,omitempty"`
	PurchaseOrderID   *uuid.UUID      `json:"purchase_order_id,omitempty"`
	PHPAmount         decimal.Decimal `json:"php_amount"`
	Purpose           string          `json:"purpose,omitempty"`
	RequestedBy       *uuid.UUID      `json:"requested_by,omitempty"`
	RequestedByName   string          `json:"requested_by_name,omitempty"`
	RequestDate       time.Time       `json:"request_date"`
	Status            string          `json:"status"`
	ApprovedAt        *time.Time      `json:"approved_at,omitempty"`
	ApprovedBy        *uuid.UUID      `json:"approved_by,omitempty"`
	RejectedAt        *time.Time      `json:"rejected_at,omitempty"`
	RejectedBy        *uuid.UUID      `json:"rejected_by,omitempty"`
	RejectionReason   string          `json:"rejection_reason,omitempty"`
	ProcessedAt       *time.Time      `json:"processed_at,omitempty"`
	ProcessedBy       *uuid.UUID      `json:"processed_by,omitempty"`
	PaidAt            *time.Time      `json:"paid_at,omitempty"`
	InvoiceIDs        []uuid.UUID     `json:"invoice_ids"`
	Version           int             `json:"version"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ToCheckRequisitionResponse converts a domain requisition to a response
func ToCheckRequisitionResponse(r *procurement.CheckRequisition) CheckRequisitionResponse {
	ids := r.InvoiceIDs
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return CheckRequisitionResponse{
		ID:                r.ID,
		RequisitionNumber: r.RequisitionNumber,
		VendorID:          r.VendorID,
		PayeeName:         r.PayeeName,
		ProjectID:         r.ProjectID,
		PurchaseOrderID:   r.PurchaseOrderID,
		PHPAmount:         r.PHPAmount,
		Purpose:           r.Purpose,
		RequestedBy:       r.RequestedBy,
		RequestedByName:   r.RequestedByName,
		RequestDate:       r.RequestDate,
		Status:            string(r.Status),
		ApprovedAt:        r.ApprovedAt,
		ApprovedBy:        r.ApprovedBy,
		RejectedAt:        r.RejectedAt,
		RejectedBy:        r.RejectedBy,
		RejectionReason:   r.RejectionReason,
		ProcessedAt:       r.ProcessedAt,
		ProcessedBy:       r.ProcessedBy,
		PaidAt:            r.PaidAt,
		InvoiceIDs:        ids,
		Version:           r.Version,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

// ApprovalChecksResponse lists the approval checks of a requisition
type ApprovalChecksResponse struct {
	RequisitionID uuid.UUID                  `json:"requisition_id"`
	CanApprove    bool                       `json:"can_approve"`
	Checks        procurement.ApprovalChecks `json:"checks"`
}

// ==================== Disbursement DTOs ====================

// DisbursementRequest represents a request to create or update a disbursement
type DisbursementRequest struct {
	VoucherNumber             string      `json:"voucher_number" binding:"required,voucher"`
	CheckNumber               string      `json:"check_number" binding:"max=50"`
	BankName                  string      `json:"bank_name" binding:"max=100"`
	Remarks                   string      `json:"remarks" binding:"max=2000"`
	DateCheckScheduled        *time.Time  `json:"date_check_scheduled"`
	DateCheckPrinting         *time.Time  `json:"date_check_printing"`
	DateCheckReleasedToVendor *time.Time  `json:"date_check_released_to_vendor"`
	CheckRequisitionIDs       []uuid.UUID `json:"check_requisition_ids" binding:"required,min=1,dive,required"`
	Version                   *int        `json:"version"`

	// Attachments are filled from multipart uploads
	Attachments []attachmentapp.Upload `json:"-"`
}

func (r DisbursementRequest) details() procurement.DisbursementDetails {
	return procurement.DisbursementDetails{
		VoucherNumber: r.VoucherNumber,
		CheckNumber:   r.CheckNumber,
		BankName:      r.BankName,
		Remarks:       r.Remarks,
		Dates: procurement.CheckDates{
			Scheduled: r.DateCheckScheduled,
			Printing:  r.DateCheckPrinting,
			Released:  r.DateCheckReleasedToVendor,
		},
		CheckRequisitionIDs: r.CheckRequisitionIDs,
	}
}

// DisbursementListFilter represents the disbursement list query
type DisbursementListFilter struct {
	ListFilter
	Stage string `form:"stage" binding:"omitempty,oneof=draft scheduled printing released"`
}

// DisbursementResponse represents a disbursement in API responses
type DisbursementResponse struct {
	ID                        uuid.UUID       `json:"id"`
	VoucherNumber             string          `json:"voucher_number"`
	CheckNumber               string          `json:"check_number,omitempty"`
	BankName                  string          `json:"bank_name,omitempty"`
	Amount                    decimal.Decimal `json:"amount"`
	Stage                     string          `json:"stage"`
	DateCheckScheduled        *time.Time      `json:"date_check_scheduled,omitempty"`
	DateCheckPrinting         *time.Time      `json:"date_check_printing,omitempty"`
	DateCheckReleasedToVendor *time.Time      `json:"date_check_released_to_vendor,omitempty"`
	Remarks                   string          `json:"remarks,omitempty"`
	CheckRequisitionIDs       []uuid.UUID     `json:"check_requisition_ids"`
	Version                   int             `json:"version"`
	CreatedBy                 *uuid.UUID      `json:"created_by,omitempty"`
	CreatedAt                 time.Time       `json:"created_at"`
	UpdatedAt                 time.Time       `json:"updated_at"`

	Files []attachmentapp.FileResponse `json:"files,omitempty"`
}

// ToDisbursementResponse converts a domain disbursement to a response
func ToDisbursementResponse(d *procurement.Disbursement) DisbursementResponse {
	ids := d.CheckRequisitionIDs
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return DisbursementResponse{
		ID:                        d.ID,
		VoucherNumber:             d.VoucherNumber,
		CheckNumber:               d.CheckNumber,
		BankName:                  d.BankName,
		Amount:                    d.Amount,
		Stage:                     string(d.Stage()),
		DateCheckScheduled:        d.DateCheckScheduled,
		DateCheckPrinting:         d.DateCheckPrinting,
		DateCheckReleasedToVendor: d.DateCheckReleasedToVendor,
		Remarks:                   d.Remarks,
		CheckRequisitionIDs:       ids,
		Version:                   d.Version,
		CreatedBy:                 d.CreatedBy,
		CreatedAt:                 d.CreatedAt,
		UpdatedAt:                 d.UpdatedAt,
	}
}
