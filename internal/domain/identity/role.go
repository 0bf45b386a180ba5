package identity

// Role is the business function of a user. It selects the dashboard a user
// lands on and the default module permissions granted at creation.
type Role string

const (
	RolePurchasing Role = "purchasing"
	RoleAccounting Role = "accounting"
	RoleTreasury   Role = "treasury"
	RoleExecutive  Role = "executive"
	RoleAdmin      Role = "admin"
)

// IsValid checks if the role is known
func (r Role) IsValid() bool {
	switch r {
	case RolePurchasing, RoleAccounting, RoleTreasury, RoleExecutive, RoleAdmin:
		return true
	}
	return false
}

// String returns the string representation
func (r Role) String() string {
	return string(r)
}

// DashboardRoles are the roles that own a dashboard view
func DashboardRoles() []Role {
	return []Role{RolePurchasing, RoleAccounting, RoleTreasury, RoleExecutive}
}

// CanViewDashboard reports whether r may view the dashboard of target.
// Admins and executives may view any dashboard.
func (r Role) CanViewDashboard(target Role) bool {
	if r == RoleAdmin || r == RoleExecutive {
		return target != RoleAdmin
	}
	return r == target
}

// DefaultPermissions returns the module permissions a new user of this role starts with
func (r Role) DefaultPermissions() []ModulePermission {
	rw := func(m Module) ModulePermission { return ModulePermission{Module: m, CanRead: true, CanWrite: true} }
	ro := func(m Module) ModulePermission { return ModulePermission{Module: m, CanRead: true} }

	switch r {
	case RolePurchasing:
		return []ModulePermission{
			rw(ModulePurchaseOrders), rw(ModuleVendors), rw(ModuleProjects),
			ro(ModuleInvoices), ro(ModuleDashboard),
		}
	case RoleAccounting:
		return []ModulePermission{
			rw(ModuleInvoices), rw(ModuleCheckRequisitions),
			ro(ModulePurchaseOrders), ro(ModuleVendors), ro(ModuleProjects), ro(ModuleDashboard),
		}
	case RoleTreasury:
		return []ModulePermission{
			rw(ModuleDisbursements), ro(ModuleCheckRequisitions), ro(ModuleInvoices),
			ro(ModuleVendors), ro(ModuleDashboard),
		}
	case RoleExecutive:
		perms := make([]ModulePermission, 0, len(AllModules()))
		for _, m := range AllModules() {
			if m == ModuleUsers {
				continue
			}
			perms = append(perms, ro(m))
		}
		return perms
	case RoleAdmin:
		perms := make([]ModulePermission, 0, len(AllModules()))
		for _, m := range AllModules() {
			perms = append(perms, rw(m))
		}
		return perms
	}
	return nil
}
