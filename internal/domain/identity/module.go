package identity

import (
	"fmt"
	"strings"
)

// Module is a permission-gated area of the application
type Module string

const (
	ModuleDisbursements     Module = "disbursements"
	ModuleCheckRequisitions Module = "check_requisitions"
	ModuleInvoices          Module = "invoices"
	ModulePurchaseOrders    Module = "purchase_orders"
	ModuleVendors           Module = "vendors"
	ModuleProjects          Module = "projects"
	ModuleDashboard         Module = "dashboard"
	ModuleUsers             Module = "users"
)

// AllModules lists every gated module in display order
func AllModules() []Module {
	return []Module{
		ModuleDisbursements,
		ModuleCheckRequisitions,
		ModuleInvoices,
		ModulePurchaseOrders,
		ModuleVendors,
		ModuleProjects,
		ModuleDashboard,
		ModuleUsers,
	}
}

// IsValid checks if the module is known
func (m Module) IsValid() bool {
	for _, known := range AllModules() {
		if m == known {
			return true
		}
	}
	return false
}

// String returns the string representation
func (m Module) String() string {
	return string(m)
}

// Access is the kind of access requested on a module
type Access string

const (
	AccessRead  Access = "read"
	AccessWrite Access = "write"
)

// ModulePermission records the read/write capability a user holds on one module
type ModulePermission struct {
	Module   Module
	CanRead  bool
	CanWrite bool
}

// Codes encodes the permission as token claim strings, e.g. "invoices:read".
// Write implies read.
func (p ModulePermission) Codes() []string {
	codes := make([]string, 0, 2)
	if p.CanRead || p.CanWrite {
		codes = append(codes, PermissionCode(p.Module, AccessRead))
	}
	if p.CanWrite {
		codes = append(codes, PermissionCode(p.Module, AccessWrite))
	}
	return codes
}

// PermissionCode builds "<module>:<access>"
func PermissionCode(m Module, a Access) string {
	return fmt.Sprintf("%s:%s", m, a)
}

// ParsePermissionCodes folds claim strings back into per-module permissions.
// Unknown modules and malformed codes are skipped.
func ParsePermissionCodes(codes []string) map[Module]ModulePermission {
	perms := make(map[Module]ModulePermission)
	for _, code := range codes {
		module, access, ok := strings.Cut(code, ":")
		if !ok {
			continue
		}
		m := Module(module)
		if !m.IsValid() {
			continue
		}
		p := perms[m]
		p.Module = m
		switch Access(access) {
		case AccessRead:
			p.CanRead = true
		case AccessWrite:
			p.CanRead = true
			p.CanWrite = true
		default:
			continue
		}
		perms[m] = p
	}
	return perms
}

// ModuleForSubject returns the module that gates a polymorphic subject type
func ModuleForSubject(subjectType string) (Module, bool) {
	switch subjectType {
	case "vendor":
		return ModuleVendors, true
	case "project":
		return ModuleProjects, true
	case "purchase_order":
		return ModulePurchaseOrders, true
	case "invoice":
		return ModuleInvoices, true
	case "check_requisition":
		return ModuleCheckRequisitions, true
	case "disbursement":
		return ModuleDisbursements, true
	case "user":
		return ModuleUsers, true
	}
	return "", false
}
