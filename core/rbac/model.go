package rbac

import "strings"

type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleEditor     Role = "EDITOR"
)

func Roles() []Role {
	return []Role{RoleSuperAdmin, RoleAdmin, RoleEditor}
}

func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleSuperAdmin:
		return RoleSuperAdmin, true
	case RoleAdmin:
		return RoleAdmin, true
	case RoleEditor:
		return RoleEditor, true
	default:
		return "", false
	}
}

type Permission string

const (
	PermViewUsers  Permission = "VIEW_USERS"
	PermCreateUser Permission = "CREATE_USER"
	PermEditUser   Permission = "EDIT_USER"
	PermDeleteUser Permission = "DELETE_USER"

	PermViewContent    Permission = "VIEW_CONTENT"
	PermCreateContent  Permission = "CREATE_CONTENT"
	PermEditContent    Permission = "EDIT_CONTENT"
	PermDeleteContent  Permission = "DELETE_CONTENT"
	PermPublishContent Permission = "PUBLISH_CONTENT"

	PermViewSettings Permission = "VIEW_SETTINGS"
	PermEditSettings Permission = "EDIT_SETTINGS"

	PermManageNotice Permission = "MANAGE_NOTICE"

	PermViewAuditLogs Permission = "VIEW_AUDIT_LOGS"
)

var permissions = []Permission{
	PermViewUsers, PermCreateUser, PermEditUser, PermDeleteUser,
	PermViewContent, PermCreateContent, PermEditContent, PermDeleteContent, PermPublishContent,
	PermViewSettings, PermEditSettings,
	PermManageNotice,
	PermViewAuditLogs,
}

var knownPermissionSet = buildPermissionSet()

func buildPermissionSet() map[Permission]struct{} {
	out := make(map[Permission]struct{}, len(permissions))
	for _, p := range permissions {
		out[p] = struct{}{}
	}
	return out
}

func AllPermissions() []Permission {
	out := make([]Permission, len(permissions))
	copy(out, permissions)
	return out
}

func IsKnownPermission(p Permission) bool {
	_, ok := knownPermissionSet[p]
	return ok
}
