package auth

// Permission represents a named capability.
type Permission string

// Permission constants.
const (
	PermStateRead      Permission = "state:read"
	PermTopicsManage   Permission = "topics:manage"
	PermControlPublish Permission = "control:publish"
	PermSessionManage  Permission = "session:manage"
)

// rolePermissions maps each role to its granted permissions.
var rolePermissions = map[Role][]Permission{
	RoleViewer: {
		PermStateRead,
	},
	RoleOperator: {
		PermStateRead,
		PermTopicsManage,
		PermControlPublish,
		PermSessionManage,
	},
}

// HasPermission returns true if the given role has the specified permission.
func HasPermission(role Role, perm Permission) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == perm {
			return true
		}
	}
	return false
}
