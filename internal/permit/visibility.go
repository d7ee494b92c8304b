package permit

import "github.com/permitworks/permit-management/internal/auth"

// CanView implements the role visibility rules. Tenants see only their own
// shop; technical sees its queue plus anything it already acted on; security
// likewise once technical has approved; operations and admin see everything.
func CanView(actor *auth.Actor, p *Permit) bool {
	switch actor.Role {
	case auth.RoleAdmin, auth.RoleOperations:
		return true
	case auth.RoleTenant:
		return actor.ShopID != nil && *actor.ShopID == p.ShopID
	case auth.RoleTechnical:
		return p.Status == StatusPending || p.Slot(StageTechnical) != nil
	case auth.RoleSecurity:
		return p.slotApproved(StageTechnical) || p.Slot(StageSecurity) != nil
	}
	return false
}

// StageForRole maps a reviewer role to its fixed stage. Admin has no fixed
// stage; the service resolves it from the permit's next pending stage.
func StageForRole(role auth.Role) (Stage, bool) {
	switch role {
	case auth.RoleTechnical:
		return StageTechnical, true
	case auth.RoleSecurity:
		return StageSecurity, true
	case auth.RoleOperations:
		return StageManagement, true
	}
	return "", false
}
