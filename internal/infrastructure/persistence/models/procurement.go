package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/procurement"
	"github.com/shopspring/decimal"
)

// VendorModel is the persistence model for the Vendor domain entity.
type VendorModel struct {
	TenantAggregateModel
	Code             string `gorm:"type:varchar(50);not null;uniqueIndex:idx_vendor_tenant_code,priority:2"`
	Name             string `gorm:"type:varchar(200);not null"`
	TIN              string `gorm:"column:tin;type:varchar(50)"`
	Address          string `gorm:"type:text"`
	ContactPerson    string `gorm:"type:varchar(100)"`
	Email            string `gorm:"type:varchar(200)"`
	Phone            string `gorm:"type:varchar(50)"`
	PaymentTermsDays int    `gorm:"not null;default:0"`
	IsActive         bool   `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (VendorModel) TableName() string {
	return "vendors"
}

// ToDomain converts the persistence model to a domain Vendor entity.
func (m *VendorModel) ToDomain() *procurement.Vendor {
	v := &procurement.Vendor{
		Code:             m.Code,
		Name:             m.Name,
		TIN:              m.TIN,
		Address:          m.Address,
		ContactPerson:    m.ContactPerson,
		Email:            m.Email,
		Phone:            m.Phone,
		PaymentTermsDays: m.PaymentTermsDays,
		IsActive:         m.IsActive,
	}
	m.PopulateTenantAggregateRoot(&v.TenantAggregateRoot)
	return v
}

// FromDomain populates the persistence model from a domain Vendor entity.
func (m *VendorModel) FromDomain(v *procurement.Vendor) {
	m.FromDomainTenantAggregateRoot(v.TenantAggregateRoot)
	m.Code = v.Code
	m.Name = v.Name
	m.TIN = v.TIN
	m.Address = v.Address
	m.ContactPerson = v.ContactPerson
	m.Email = v.Email
	m.Phone = v.Phone
	m.PaymentTermsDays = v.PaymentTermsDays
	m.IsActive = v.IsActive
}

// VendorModelFromDomain creates a new persistence model from a domain Vendor entity.
func VendorModelFromDomain(v *procurement.Vendor) *VendorModel {
	m := &VendorModel{}
	m.FromDomain(v)
	return m
}

// ProjectModel is the persistence model for the Project domain entity.
type ProjectModel struct {
	TenantAggregateModel
	Code        string                    `gorm:"type:varchar(50);not null;uniqueIndex:idx_project_tenant_code,priority:2"`
	Name        string                    `gorm:"type:varchar(200);not null"`
	Description string                    `gorm:"type:text"`
	Status      procurement.ProjectStatus `gorm:"type:varchar(20);not null;default:'active';index"`
	StartDate   *time.Time                `gorm:"type:date"`
	EndDate     *time.Time                `gorm:"type:date"`
}

// TableName returns the table name for GORM
func (ProjectModel) TableName() string {
	return "projects"
}

// ToDomain converts the persistence model to a domain Project entity.
func (m *ProjectModel) ToDomain() *procurement.Project {
	p := &procurement.Project{
		Code:        m.Code,
		Name:        m.Name,
		Description: m.Description,
		Status:      m.Status,
		StartDate:   m.StartDate,
		EndDate:     m.EndDate,
	}
	m.PopulateTenantAggregateRoot(&p.TenantAggregateRoot)
	return p
}

// FromDomain populates the persistence model from a domain Project entity.
func (m *ProjectModel) FromDomain(p *procurement.Project) {
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.Code = p.Code
	m.Name = p.Name
	m.Description = p.Description
	m.Status = p.Status
	m.StartDate = p.StartDate
	m.EndDate = p.EndDate
}

// ProjectModelFromDomain creates a new persistence model from a domain Project entity.
func ProjectModelFromDomain(p *procurement.Project) *ProjectModel {
	m := &ProjectModel{}
	m.FromDomain(p)
	return m
}

// PurchaseOrderModel is the persistence model for the PurchaseOrder aggregate.
type PurchaseOrderModel struct {
	TenantAggregateModel
	PONumber             string                          `gorm:"column:po_number;type:varchar(30);not null;uniqueIndex:idx_po_tenant_number,priority:2"`
	VendorID             uuid.UUID                       `gorm:"type:uuid;not null;index"`
	ProjectID            uuid.UUID                       `gorm:"type:uuid;not null;index"`
	Amount               decimal.Decimal                 `gorm:"type:decimal(18,2);not null"`
	Currency             string                          `gorm:"type:varchar(3);not null;default:'PHP'"`
	Status               procurement.PurchaseOrderStatus `gorm:"type:varchar(20);not null;default:'draft';index"`
	Description          string                          `gorm:"type:text"`
	PaymentTerms         string                          `gorm:"type:varchar(200)"`
	ExpectedDeliveryDate *time.Time                      `gorm:"type:date"`
	FinalizedAt          *time.Time                      `gorm:"index"`
	FinalizedBy          *uuid.UUID                      `gorm:"type:uuid"`
	ClosedAt             *time.Time
	CancelledAt          *time.Time
	CancelReason         string          `gorm:"type:varchar(500)"`
	TotalInvoiced        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TotalPaid            decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// ToDomain converts the persistence model to a domain PurchaseOrder.
func (m *PurchaseOrderModel) ToDomain() *procurement.PurchaseOrder {
	po := &procurement.PurchaseOrder{
		PONumber:             m.PONumber,
		VendorID:             m.VendorID,
		ProjectID:            m.ProjectID,
		Amount:               m.Amount,
		Currency:             m.Currency,
		Status:               m.Status,
		Description:          m.Description,
		PaymentTerms:         m.PaymentTerms,
		ExpectedDeliveryDate: m.ExpectedDeliveryDate,
		FinalizedAt:          m.FinalizedAt,
		FinalizedBy:          m.FinalizedBy,
		ClosedAt:             m.ClosedAt,
		CancelledAt:          m.CancelledAt,
		CancelReason:         m.CancelReason,
		TotalInvoiced:        m.TotalInvoiced,
		TotalPaid:            m.TotalPaid,
	}
	m.PopulateTenantAggregateRoot(&po.TenantAggregateRoot)
	return po
}

// FromDomain populates the persistence model from a domain PurchaseOrder.
func (m *PurchaseOrderModel) FromDomain(po *procurement.PurchaseOrder) {
	m.FromDomainTenantAggregateRoot(po.TenantAggregateRoot)
	m.PONumber = po.PONumber
	m.VendorID = po.VendorID
	m.ProjectID = po.ProjectID
	m.Amount = po.Amount
	m.Currency = po.Currency
	m.Status = po.Status
	m.Description = po.Description
	m.PaymentTerms = po.PaymentTerms
	m.ExpectedDeliveryDate = po.ExpectedDeliveryDate
	m.FinalizedAt = po.FinalizedAt
	m.FinalizedBy = po.FinalizedBy
	m.ClosedAt = po.ClosedAt
	m.CancelledAt = po.CancelledAt
	m.CancelReason = po.CancelReason
	m.TotalInvoiced = po.TotalInvoiced
	m.TotalPaid = po.TotalPaid
}

// PurchaseOrderModelFromDomain creates a new persistence model from a domain PurchaseOrder.
func PurchaseOrderModelFromDomain(po *procurement.PurchaseOrder) *PurchaseOrderModel {
	m := &PurchaseOrderModel{}
	m.FromDomain(po)
	return m
}

// InvoiceModel is the persistence model for the Invoice aggregate.
type InvoiceModel struct {
	TenantAggregateModel
	InvoiceNumber   string                    `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoice_vendor_number,priority:3"`
	PurchaseOrderID *uuid.UUID                `gorm:"type:uuid;index"`
	VendorID        uuid.UUID                 `gorm:"type:uuid;not null;index;uniqueIndex:idx_invoice_vendor_number,priority:2"`
	ProjectID       *uuid.UUID                `gorm:"type:uuid;index"`
	InvoiceDate     time.Time                 `gorm:"type:date;not null"`
	DueDate         *time.Time                `gorm:"type:date"`
	Currency        string                    `gorm:"type:varchar(3);not null;default:'PHP'"`
	GrossAmount     decimal.Decimal           `gorm:"type:decimal(18,2);not null"`
	VATAmount       decimal.Decimal           `gorm:"column:vat_amount;type:decimal(18,2);not null;default:0"`
	NetAmount       decimal.Decimal           `gorm:"type:decimal(18,2);not null"`
	Status          procurement.InvoiceStatus `gorm:"type:varchar(30);not null;default:'pending';index"`
	SIReceivedAt    *time.Time                `gorm:"column:si_received_at;index"`
	ReceivedBy      *uuid.UUID                `gorm:"type:uuid"`
	ReviewedAt      *time.Time
	ReviewedBy      *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt      *time.Time `gorm:"index"`
	ApprovedBy      *uuid.UUID `gorm:"type:uuid"`
	RejectedAt      *time.Time
	RejectionReason string     `gorm:"type:varchar(500)"`
	PaidAt          *time.Time `gorm:"index"`
	Description     string     `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice.
func (m *InvoiceModel) ToDomain() *procurement.Invoice {
	inv := &procurement.Invoice{
		InvoiceNumber:   m.InvoiceNumber,
		PurchaseOrderID: m.PurchaseOrderID,
		VendorID:        m.VendorID,
		ProjectID:       m.ProjectID,
		InvoiceDate:     m.InvoiceDate,
		DueDate:         m.DueDate,
		Currency:        m.Currency,
		GrossAmount:     m.GrossAmount,
		VATAmount:       m.VATAmount,
		NetAmount:       m.NetAmount,
		Status:          m.Status,
		SIReceivedAt:    m.SIReceivedAt,
		ReceivedBy:      m.ReceivedBy,
		ReviewedAt:      m.ReviewedAt,
		ReviewedBy:      m.ReviewedBy,
		ApprovedAt:      m.ApprovedAt,
		ApprovedBy:      m.ApprovedBy,
		RejectedAt:      m.RejectedAt,
		RejectionReason: m.RejectionReason,
		PaidAt:          m.PaidAt,
		Description:     m.Description,
	}
	m.PopulateTenantAggregateRoot(&inv.TenantAggregateRoot)
	return inv
}

// FromDomain populates the persistence model from a domain Invoice.
func (m *InvoiceModel) FromDomain(inv *procurement.Invoice) {
	m.FromDomainTenantAggregateRoot(inv.TenantAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.PurchaseOrderID = inv.PurchaseOrderID
	m.VendorID = inv.VendorID
	m.ProjectID = inv.ProjectID
	m.InvoiceDate = inv.InvoiceDate
	m.DueDate = inv.DueDate
	m.Currency = inv.Currency
	m.GrossAmount = inv.GrossAmount
	m.VATAmount = inv.VATAmount
	m.NetAmount = inv.NetAmount
	m.Status = inv.Status
	m.SIReceivedAt = inv.SIReceivedAt
	m.ReceivedBy = inv.ReceivedBy
	m.ReviewedAt = inv.ReviewedAt
	m.ReviewedBy = inv.ReviewedBy
	m.ApprovedAt = inv.ApprovedAt
	m.ApprovedBy = inv.ApprovedBy
	m.RejectedAt = inv.RejectedAt
	m.RejectionReason = inv.RejectionReason
	m.PaidAt = inv.PaidAt
	m.Description = inv.Description
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *procurement.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// CheckRequisitionModel is the persistence model for the CheckRequisition aggregate.
// Linked invoices live in check_requisition_invoices.
type CheckRequisitionModel struct {
	TenantAggregateModel
	RequisitionNumber string                        `gorm:"type:varchar(30);not null;uniqueIndex:idx_cr_tenant_number,priority:2"`
	VendorID          *uuid.UUID                    `gorm:"type:uuid;index"`
	PayeeName         string                        `gorm:"type:varchar(200);not null"`
	ProjectID         *uuid.UUID                    `gorm:"type:uuid;index"`
	PurchaseOrderID   *uuid.UUID                    `gorm:"type:uuid;index"`
	PHPAmount         decimal.Decimal               `gorm:"column:php_amount;type:decimal(18,2);not null"`
	Purpose           string                        `gorm:"type:text"`
	RequestedBy       *uuid.UUID                    `gorm:"type:uuid"`
	RequestedByName   string                        `gorm:"type:varchar(200)"`
	RequestDate       time.Time                     `gorm:"type:date;not null;index"`
	Status            procurement.RequisitionStatus `gorm:"type:varchar(30);not null;default:'pending_approval';index"`
	ApprovedAt        *time.Time
	ApprovedBy        *uuid.UUID `gorm:"type:uuid"`
	RejectedAt        *time.Time
	RejectedBy        *uuid.UUID `gorm:"type:uuid"`
	RejectionReason   string     `gorm:"type:varchar(500)"`
	ProcessedAt       *time.Time
	ProcessedBy       *uuid.UUID                     `gorm:"type:uuid"`
	PaidAt            *time.Time                     `gorm:"index"`
	Invoices          []CheckRequisitionInvoiceModel `gorm:"foreignKey:CheckRequisitionID"`
}

// TableName returns the table name for GORM
func (CheckRequisitionModel) TableName() string {
	return "check_requisitions"
}

// ToDomain converts the persistence model to a domain CheckRequisition.
// Invoices must be preloaded, ordered by position, for InvoiceIDs to be filled.
func (m *CheckRequisitionModel) ToDomain() *procurement.CheckRequisition {
	cr := &procurement.CheckRequisition{
		RequisitionNumber: m.RequisitionNumber,
		VendorID:          m.VendorID,
		PayeeName:         m.PayeeName,
		ProjectID:         m.ProjectID,
		PurchaseOrderID:   m.PurchaseOrderID,
		PHPAmount:         m.PHPAmount,
		Purpose:           m.Purpose,
		RequestedBy:       m.RequestedBy,
		RequestedByName:   m.RequestedByName,
		RequestDate:       m.RequestDate,
		Status:            m.Status,
		ApprovedAt:        m.ApprovedAt,
		ApprovedBy:        m.ApprovedBy,
		RejectedAt:        m.RejectedAt,
		RejectedBy:        m.RejectedBy,
		RejectionReason:   m.RejectionReason,
		ProcessedAt:       m.ProcessedAt,
		ProcessedBy:       m.ProcessedBy,
		PaidAt:            m.PaidAt,
		InvoiceIDs:        make([]uuid.UUID, 0, len(m.Invoices)),
	}
	m.PopulateTenantAggregateRoot(&cr.TenantAggregateRoot)
	for _, link := range m.Invoices {
		cr.InvoiceIDs = append(cr.InvoiceIDs, link.InvoiceID)
	}
	return cr
}

// FromDomain populates the persistence model from a domain CheckRequisition.
func (m *CheckRequisitionModel) FromDomain(cr *procurement.CheckRequisition) {
	m.FromDomainTenantAggregateRoot(cr.TenantAggregateRoot)
	m.RequisitionNumber = cr.RequisitionNumber
	m.VendorID = cr.VendorID
	m.PayeeName = cr.PayeeName
	m.ProjectID = cr.ProjectID
	m.PurchaseOrderID = cr.PurchaseOrderID
	m.PHPAmount = cr.PHPAmount
	m.Purpose = cr.Purpose
	m.RequestedBy = cr.RequestedBy
	m.RequestedByName = cr.RequestedByName
	m.RequestDate = cr.RequestDate
	m.Status = cr.Status
	m.ApprovedAt = cr.ApprovedAt
	m.ApprovedBy = cr.ApprovedBy
	m.RejectedAt = cr.RejectedAt
	m.RejectedBy = cr.RejectedBy
	m.RejectionReason = cr.RejectionReason
	m.ProcessedAt = cr.ProcessedAt
	m.ProcessedBy = cr.ProcessedBy
	m.PaidAt = cr.PaidAt
	m.Invoices = make([]CheckRequisitionInvoiceModel, len(cr.InvoiceIDs))
	for i, id := range cr.InvoiceIDs {
		m.Invoices[i] = CheckRequisitionInvoiceModel{
			CheckRequisitionID: cr.ID,
			InvoiceID:          id,
			TenantID:           cr.TenantID,
			Position:           i,
		}
	}
}

// CheckRequisitionModelFromDomain creates a new persistence model from a domain CheckRequisition.
func CheckRequisitionModelFromDomain(cr *procurement.CheckRequisition) *CheckRequisitionModel {
	m := &CheckRequisitionModel{}
	m.FromDomain(cr)
	return m
}

// CheckRequisitionInvoiceModel links a requisition to one of the invoices it pays.
type CheckRequisitionInvoiceModel struct {
	CheckRequisitionID uuid.UUID `gorm:"type:uuid;primaryKey"`
	InvoiceID          uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	TenantID           uuid.UUID `gorm:"type:uuid;not null;index"`
	Position           int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (CheckRequisitionInvoiceModel) TableName() string {
	return "check_requisition_invoices"
}

// DisbursementModel is the persistence model for the Disbursement aggregate.
type DisbursementModel struct {
	TenantAggregateModel
	VoucherNumber             string                         `gorm:"type:varchar(50);not null;uniqueIndex:idx_disbursement_tenant_voucher,priority:2"`
	CheckNumber               string                         `gorm:"type:varchar(50)"`
	BankName                  string                         `gorm:"type:varchar(100)"`
	Amount                    decimal.Decimal                `gorm:"type:decimal(18,2);not null;default:0"`
	DateCheckScheduled        *time.Time                     `gorm:"type:date;index"`
	DateCheckPrinting         *time.Time                     `gorm:"type:date"`
	DateCheckReleasedToVendor *time.Time                     `gorm:"type:date;index"`
	Remarks                   string                         `gorm:"type:text"`
	Requisitions              []DisbursementRequisitionModel `gorm:"foreignKey:DisbursementID"`
}

// TableName returns the table name for GORM
func (DisbursementModel) TableName() string {
	return "disbursements"
}

// ToDomain converts the persistence model to a domain Disbursement.
// Requisitions must be preloaded for CheckRequisitionIDs to be filled.
func (m *DisbursementModel) ToDomain() *procurement.Disbursement {
	d := &procurement.Disbursement{
		VoucherNumber:             m.VoucherNumber,
		CheckNumber:               m.CheckNumber,
		BankName:                  m.BankName,
		Amount:                    m.Amount,
		DateCheckScheduled:        m.DateCheckScheduled,
		DateCheckPrinting:         m.DateCheckPrinting,
		DateCheckReleasedToVendor: m.DateCheckReleasedToVendor,
		Remarks:                   m.Remarks,
		CheckRequisitionIDs:       make([]uuid.UUID, 0, len(m.Requisitions)),
	}
	m.PopulateTenantAggregateRoot(&d.TenantAggregateRoot)
	for _, link := range m.Requisitions {
		d.CheckRequisitionIDs = append(d.CheckRequisitionIDs, link.CheckRequisitionID)
	}
	return d
}

// FromDomain populates the persistence model from a domain Disbursement.
func (m *DisbursementModel) FromDomain(d *procurement.Disbursement) {
	m.FromDomainTenantAggregateRoot(d.TenantAggregateRoot)
	m.VoucherNumber = d.VoucherNumber
	m.CheckNumber = d.CheckNumber
	m.BankName = d.BankName
	m.Amount = d.Amount
	m.DateCheckScheduled = d.DateCheckScheduled
	m.DateCheckPrinting = d.DateCheckPrinting
	m.DateCheckReleasedToVendor = d.DateCheckReleasedToVendor
	m.Remarks = d.Remarks
	m.Requisitions = make([]DisbursementRequisitionModel, len(d.CheckRequisitionIDs))
	for i, id := range d.CheckRequisitionIDs {
		m.Requisitions[i] = DisbursementRequisitionModel{
			DisbursementID:     d.ID,
			CheckRequisitionID: id,
			TenantID:           d.TenantID,
			Position:           i,
		}
	}
}

// DisbursementModelFromDomain creates a new persistence model from a domain Disbursement.
func DisbursementModelFromDomain(d *procurement.Disbursement) *DisbursementModel {
	m := &DisbursementModel{}
	m.FromDomain(d)
	return m
}

// DisbursementRequisitionModel attaches a requisition to a disbursement. A
// requisition belongs to at most one disbursement.
type DisbursementRequisitionModel struct {
	DisbursementID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	CheckRequisitionID uuid.UUID `gorm:"type:uuid;primaryKey;uniqueIndex:idx_disbursement_requisition_unique"`
	TenantID           uuid.UUID `gorm:"type:uuid;not null;index"`
	Position           int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (DisbursementRequisitionModel) TableName() string {
	return "disbursement_requisitions"
}
