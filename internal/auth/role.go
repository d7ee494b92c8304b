package auth

// Role is the closed set of roles known to the system. Permissions derive
// from the role alone; there is no per-user permission table.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleOperations Role = "operations"
	RoleTechnical  Role = "technical"
	RoleSecurity   Role = "security"
	RoleTenant     Role = "tenant"
)

const (
	PermSubmitPermit     = "submit_permit"
	PermReviewTechnical  = "review_technical"
	PermReviewSecurity   = "review_security"
	PermReviewManagement = "review_management"
	PermManageShops      = "manage_shops"
	PermManageUsers      = "manage_users"
	PermSendMemos        = "send_memos"
	PermViewReports      = "view_reports"
	PermFullAccess       = "full_access"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleOperations, RoleTechnical, RoleSecurity, RoleTenant:
		return true
	}
	return false
}

// PermissionsFor returns the capability set for a role.
func PermissionsFor(role Role) []string {
	switch role {
	case RoleAdmin:
		return []string{
			PermFullAccess,
			PermReviewTechnical,
			PermReviewSecurity,
			PermReviewManagement,
			PermManageShops,
			PermManageUsers,
			PermSendMemos,
			PermViewReports,
		}
	case RoleOperations:
		return []string{
			PermReviewManagement,
			PermManageShops,
			PermManageUsers,
			PermSendMemos,
			PermViewReports,
		}
	case RoleTechnical:
		return []string{PermReviewTechnical, PermViewReports}
	case RoleSecurity:
		return []string{PermReviewSecurity, PermViewReports}
	case RoleTenant:
		return []string{PermSubmitPermit}
	}
	return nil
}

// HasPermission reports whether the role carries the permission, with
// full_access implying everything.
func (r Role) HasPermission(permission string) bool {
	for _, p := range PermissionsFor(r) {
		if p == PermFullAccess || p == permission {
			return true
		}
	}
	return false
}
