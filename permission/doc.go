// Package permission provides the portal's role catalog, the permission name
// registry, and the bitmask type used by authorization checks.
//
// # Roles
//
// The portal has a closed set of six roles ([RoleSystemAdmin],
// [RoleInstitutionManager], [RoleCoordinator], [RoleTeacher], [RoleStudent],
// [RoleGuardian]). External spellings (legacy database values, Portuguese
// labels) are mapped to the canonical role exactly once, at the system
// boundary, by [Normalize].
//
// # Permissions
//
// Permission names are assigned stable bit positions by the [Registry]; each
// role's grant set is a [Mask64]. The SYSTEM_ADMIN mask is never written by
// hand: [NewResolver] computes it as the union of every other role's mask, so
// it cannot drift when a role definition changes.
//
// # Architecture boundaries
//
// This package is a pure in-memory data structure with no I/O. It provides
// the mask codec used by the session binary encoder.
//
// # What this package must NOT do
//
//   - Access Redis, databases, or the network.
//   - Import portalauth, jwt, or session.
//   - Accept role registrations after the resolver is built.
package permission
