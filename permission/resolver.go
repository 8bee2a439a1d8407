package permission

import (
	"errors"
	"sort"
)

// rolePermissions is the hand-maintained grant catalog for every role
// except SYSTEM_ADMIN, whose mask is computed as the union of these sets
// plus the root bit. Editing a role here automatically updates the admin
// superset.
var rolePermissions = map[Role][]string{
	RoleInstitutionManager: {
		"institution:admin",
		"users:create", "users:read", "users:update",
		"courses:create", "courses:read", "courses:update",
		"content:create", "content:read", "content:update",
		"teachers:read", "teachers:update",
		"students:read", "students:update",
		"analytics:read", "reports:read",
		"settings:read", "settings:update",
	},
	RoleCoordinator: {
		"courses:read", "courses:update",
		"content:read", "content:update",
		"students:read", "students:update",
		"teachers:read",
		"assignments:read", "assignments:update",
		"grades:read",
		"reports:read", "analytics:read",
	},
	RoleTeacher: {
		"courses:create", "courses:read", "courses:update",
		"content:create", "content:read", "content:update",
		"students:read", "students:update",
		"assignments:create", "assignments:read", "assignments:update",
		"grades:create", "grades:read", "grades:update",
	},
	RoleStudent: {
		"courses:read",
		"content:read",
		"assignments:read", "assignments:submit",
		"grades:read",
		"profile:read", "profile:update",
	},
	RoleGuardian: {
		"students:read",
		"courses:read",
		"content:read",
		"assignments:read",
		"grades:read",
		"attendance:read",
		"reports:read",
		"profile:read", "profile:update",
		"notifications:read",
	},
}

// adminOnlyPermissions are granular permissions no other role holds.
// SYSTEM_ADMIN reaches them through the root bit, so they exist purely
// to give the permission names stable bit positions for claims and
// middleware checks.
var adminOnlyPermissions = []string{
	"users:delete",
	"courses:delete",
	"content:delete",
	"institutions:create", "institutions:read", "institutions:update", "institutions:delete",
	"certificates:create", "certificates:read", "certificates:delete",
	"notifications:create",
	"system:settings",
	"logs:read",
}

// Resolver is the frozen role→permission mapping built by [NewResolver].
type Resolver struct {
	registry *Registry
	masks    map[Role]Mask64
	names    map[Role][]string
}

// NewResolver builds the portal's permission registry and role masks.
// The SYSTEM_ADMIN mask is the union of every other role's mask with the
// root bit set on top, so it is a superset of all of them by construction.
func NewResolver() (*Resolver, error) {
	registry := NewRegistry()

	seen := make(map[string]struct{})
	register := func(name string) error {
		if _, ok := seen[name]; ok {
			return nil
		}
		seen[name] = struct{}{}
		_, err := registry.Register(name)
		return err
	}

	for _, role := range Roles() {
		for _, perm := range rolePermissions[role] {
			if err := register(perm); err != nil {
				return nil, err
			}
		}
	}
	for _, perm := range adminOnlyPermissions {
		if err := register(perm); err != nil {
			return nil, err
		}
	}
	registry.Freeze()

	masks := make(map[Role]Mask64, len(rolePermissions)+1)
	var adminMask Mask64

	for role, perms := range rolePermissions {
		var mask Mask64
		for _, perm := range perms {
			bit, ok := registry.Bit(perm)
			if !ok {
				return nil, errors.New("permission not registered: " + perm)
			}
			mask.Set(bit)
		}
		masks[role] = mask
		adminMask = adminMask.Union(mask)
	}

	adminMask.Set(rootBit)
	masks[RoleSystemAdmin] = adminMask

	r := &Resolver{
		registry: registry,
		masks:    masks,
		names:    make(map[Role][]string, len(masks)),
	}
	for role, mask := range masks {
		r.names[role] = r.permissionNames(mask)
	}

	return r, nil
}

// Registry returns the frozen permission registry.
func (r *Resolver) Registry() *Registry {
	return r.registry
}

// Mask returns the permission mask for a canonical role.
func (r *Resolver) Mask(role Role) (Mask64, bool) {
	mask, ok := r.masks[role]
	return mask, ok
}

// Permissions returns the resolved permission name list for a role, in
// registration order. SYSTEM_ADMIN resolves to every registered name.
func (r *Resolver) Permissions(role Role) []string {
	names, ok := r.names[role]
	if !ok {
		return nil
	}
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// HasPermission reports whether the role's mask grants the named
// permission. The SYSTEM_ADMIN root bit grants everything registered.
func (r *Resolver) HasPermission(role Role, perm string) bool {
	mask, ok := r.masks[role]
	if !ok {
		return false
	}
	return r.MaskHasPermission(mask, perm)
}

// MaskHasPermission checks a raw mask against a permission name. Used on
// the validation path where the mask comes from the session record rather
// than a role lookup.
func (r *Resolver) MaskHasPermission(mask Mask64, perm string) bool {
	bit, ok := r.registry.Bit(perm)
	if !ok {
		return false
	}
	return mask.Has(bit)
}

func (r *Resolver) permissionNames(mask Mask64) []string {
	bits := make([]int, 0, r.registry.Count())
	for bit := 0; bit < r.registry.Count(); bit++ {
		if mask.Has(bit) {
			bits = append(bits, bit)
		}
	}
	sort.Ints(bits)

	names := make([]string, 0, len(bits))
	for _, bit := range bits {
		if name, ok := r.registry.Name(bit); ok {
			names = append(names, name)
		}
	}
	return names
}
