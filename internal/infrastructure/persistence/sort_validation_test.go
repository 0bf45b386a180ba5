package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string returns DESC", "", "DESC"},
		{"ASC uppercase returns ASC", "ASC", "ASC"},
		{"asc lowercase returns ASC", "asc", "ASC"},
		{"desc lowercase returns DESC", "desc", "DESC"},
		{"invalid value returns DESC", "sideways", "DESC"},
		{"sql injection attempt returns DESC", "ASC; DROP TABLE invoices;--", "DESC"},
		{"whitespace around ASC returns ASC", "  asc  ", "ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string returns default", "", "created_at"},
		{"whitelisted field", "po_number", "po_number"},
		{"unknown field returns default", "vendor_name", "created_at"},
		{"injection attempt returns default", "amount; DROP TABLE purchase_orders;--", "created_at"},
		{"case sensitive", "AMOUNT", "created_at"},
		{"trimmed", "  amount  ", "amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortField(tt.input, PurchaseOrderSortFields, "created_at"))
		})
	}
}

func TestSortFieldsWhitelists(t *testing.T) {
	whitelists := map[string]map[string]bool{
		"UserSortFields":             UserSortFields,
		"VendorSortFields":           VendorSortFields,
		"ProjectSortFields":          ProjectSortFields,
		"PurchaseOrderSortFields":    PurchaseOrderSortFields,
		"InvoiceSortFields":          InvoiceSortFields,
		"CheckRequisitionSortFields": CheckRequisitionSortFields,
		"DisbursementSortFields":     DisbursementSortFields,
	}

	for name, whitelist := range whitelists {
		t.Run(name, func(t *testing.T) {
			for field := range CommonSortFields {
				assert.True(t, whitelist[field], "%s should allow %s", name, field)
			}
		})
	}
}
