package rbac

import "sort"

// grants is the reference permission table. SUPER_ADMIN is listed explicitly
// against every permission; there is no rank comparison at lookup time.
var grants = map[Permission][]Role{
	PermViewUsers:  {RoleSuperAdmin},
	PermCreateUser: {RoleSuperAdmin},
	PermEditUser:   {RoleSuperAdmin},
	PermDeleteUser: {RoleSuperAdmin},

	PermViewContent:    {RoleSuperAdmin, RoleAdmin, RoleEditor},
	PermCreateContent:  {RoleSuperAdmin, RoleAdmin, RoleEditor},
	PermEditContent:    {RoleSuperAdmin, RoleAdmin, RoleEditor},
	PermDeleteContent:  {RoleSuperAdmin, RoleAdmin},
	PermPublishContent: {RoleSuperAdmin, RoleAdmin},

	PermViewSettings: {RoleSuperAdmin, RoleAdmin},
	PermEditSettings: {RoleSuperAdmin},

	PermManageNotice: {RoleSuperAdmin, RoleAdmin},

	PermViewAuditLogs: {RoleSuperAdmin},
}

// Matrix is built once at startup and never mutated afterwards.
type Matrix struct {
	rolePerms map[Role]map[Permission]struct{}
}

func NewMatrix() *Matrix {
	rp := make(map[Role]map[Permission]struct{}, len(Roles()))
	for _, r := range Roles() {
		rp[r] = make(map[Permission]struct{})
	}
	for perm, roles := range grants {
		for _, r := range roles {
			rp[r][perm] = struct{}{}
		}
	}
	return &Matrix{rolePerms: rp}
}

func (m *Matrix) HasPermission(role Role, perm Permission) bool {
	perms, ok := m.rolePerms[role]
	if !ok {
		return false
	}
	_, ok = perms[perm]
	return ok
}

func (m *Matrix) HasAnyPermission(role Role, perms ...Permission) bool {
	for _, p := range perms {
		if m.HasPermission(role, p) {
			return true
		}
	}
	return false
}

func (m *Matrix) HasAllPermissions(role Role, perms ...Permission) bool {
	for _, p := range perms {
		if !m.HasPermission(role, p) {
			return false
		}
	}
	return true
}

// PermissionsForRole returns the role's permissions in stable order, for
// client payloads.
func (m *Matrix) PermissionsForRole(role Role) []Permission {
	perms, ok := m.rolePerms[role]
	if !ok {
		return nil
	}
	out := make([]Permission, 0, len(perms))
	for p := range perms {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
