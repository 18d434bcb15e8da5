package permissions

import (
	"github.com/7rockstarmade/LogicModule/internal/common"
	"github.com/7rockstarmade/LogicModule/internal/domain/model"
)

// Resolve allows when defaultAllowed is set, or when required is granted
// directly in userPermissions or through any of userRoles.
func Resolve(defaultAllowed bool, userPermissions Set, userRoles []string, required string) bool {
	if defaultAllowed {
		return true
	}
	if required == "" {
		return false
	}
	if userPermissions.Has(required) {
		return true
	}
	for _, role := range userRoles {
		if RoleGrants(role, required) {
			return true
		}
	}
	return false
}

// Has reports whether user holds perm explicitly or through a role.
func Has(user *model.CurrentUser, perm string) bool {
	return Resolve(false, NewSet(user.Permissions...), user.Roles, perm)
}

// EnsureDefaultOrPermission is the guard for operations with an ownership or
// context rule. Blocked callers are rejected before anything else. An empty
// permission means the default rule is the only way in.
func EnsureDefaultOrPermission(user *model.CurrentUser, defaultAllowed bool, permission string) error {
	if err := EnsureNotBlocked(user); err != nil {
		return err
	}
	if Resolve(defaultAllowed, NewSet(user.Permissions...), user.Roles, permission) {
		return nil
	}
	return &common.PermissionError{Permission: permission}
}

// EnsureNotBlocked rejects blocked callers. Call it before any check whose
// outcome would reveal state to the caller.
func EnsureNotBlocked(user *model.CurrentUser) error {
	if user.Blocked {
		return common.ErrBlocked
	}
	return nil
}

// RequirePermission is the strict guard for operations without an ownership
// concept.
func RequirePermission(user *model.CurrentUser, permission string) error {
	return EnsureDefaultOrPermission(user, false, permission)
}
