package permission

import "strings"

// Role identifies one of the portal's canonical roles.
type Role string

const (
	// RoleSystemAdmin holds every permission in the catalog via the root bit.
	RoleSystemAdmin Role = "SYSTEM_ADMIN"
	// RoleInstitutionManager administers a single institution.
	RoleInstitutionManager Role = "INSTITUTION_MANAGER"
	// RoleCoordinator oversees academic planning inside an institution.
	RoleCoordinator Role = "COORDINATOR"
	// RoleTeacher manages courses, content, and grades for own classes.
	RoleTeacher Role = "TEACHER"
	// RoleStudent consumes content and submits assignments.
	RoleStudent Role = "STUDENT"
	// RoleGuardian has read access to linked students' records.
	RoleGuardian Role = "GUARDIAN"
)

// Roles lists every canonical role, most privileged first.
func Roles() []Role {
	return []Role{
		RoleSystemAdmin,
		RoleInstitutionManager,
		RoleCoordinator,
		RoleTeacher,
		RoleStudent,
		RoleGuardian,
	}
}

// roleAliases maps accepted external spellings to the canonical role.
// Legacy user rows carry a mix of English, Portuguese, and slug forms.
var roleAliases = map[string]Role{
	"system_admin":         RoleSystemAdmin,
	"admin":                RoleSystemAdmin,
	"administrator":        RoleSystemAdmin,
	"administrador":        RoleSystemAdmin,
	"institution_manager":  RoleInstitutionManager,
	"manager":              RoleInstitutionManager,
	"gestor":               RoleInstitutionManager,
	"coordinator":          RoleCoordinator,
	"academic_coordinator": RoleCoordinator,
	"coordenador":          RoleCoordinator,
	"teacher":              RoleTeacher,
	"professor":            RoleTeacher,
	"student":              RoleStudent,
	"aluno":                RoleStudent,
	"guardian":             RoleGuardian,
	"responsavel":          RoleGuardian,
}

// Normalize maps any accepted external spelling to its canonical [Role].
// This is the only place role-name strings are interpreted; everything
// past the system boundary works with canonical values.
func Normalize(raw string) (Role, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, "-", "_")
	key = strings.ReplaceAll(key, " ", "_")

	role, ok := roleAliases[key]
	return role, ok
}

// NotifiableRoles returns the roles the given role may target when sending
// notifications. The hierarchy is strict: admin > institution manager >
// coordinator > teacher > {student, guardian}. Students and guardians
// cannot notify anyone.
func NotifiableRoles(role Role) []Role {
	switch role {
	case RoleSystemAdmin:
		return []Role{RoleInstitutionManager, RoleCoordinator, RoleTeacher, RoleStudent, RoleGuardian}
	case RoleInstitutionManager:
		return []Role{RoleCoordinator, RoleTeacher, RoleStudent, RoleGuardian}
	case RoleCoordinator:
		return []Role{RoleTeacher, RoleStudent, RoleGuardian}
	case RoleTeacher:
		return []Role{RoleStudent, RoleGuardian}
	default:
		return nil
	}
}

// CanNotify reports whether from may target to with notifications.
func CanNotify(from, to Role) bool {
	for _, candidate := range NotifiableRoles(from) {
		if candidate == to {
			return true
		}
	}
	return false
}
