package permission

import "testing"

func TestNormalizeAliases(t *testing.T) {
	cases := map[string]Role{
		"SYSTEM_ADMIN":  RoleSystemAdmin,
		"admin":         RoleSystemAdmin,
		"Administrador": RoleSystemAdmin,
		"system-admin":  RoleSystemAdmin,
		" manager ":     RoleInstitutionManager,
		"gestor":        RoleInstitutionManager,
		"COORDINATOR":   RoleCoordinator,
		"coordenador":   RoleCoordinator,
		"Professor":     RoleTeacher,
		"TEACHER":       RoleTeacher,
		"aluno":         RoleStudent,
		"student":       RoleStudent,
		"responsavel":   RoleGuardian,
		"GUARDIAN":      RoleGuardian,
	}

	for raw, want := range cases {
		got, ok := Normalize(raw)
		if !ok {
			t.Fatalf("Normalize(%q) not recognized", raw)
		}
		if got != want {
			t.Fatalf("Normalize(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestNormalizeRejectsUnknown(t *testing.T) {
	for _, raw := range []string{"", "root", "superuser", "aluno2"} {
		if _, ok := Normalize(raw); ok {
			t.Fatalf("Normalize(%q) unexpectedly accepted", raw)
		}
	}
}

func TestNotifiableRolesHierarchy(t *testing.T) {
	if got := len(NotifiableRoles(RoleSystemAdmin)); got != 5 {
		t.Fatalf("admin should notify 5 roles, got %d", got)
	}
	if got := len(NotifiableRoles(RoleInstitutionManager)); got != 4 {
		t.Fatalf("institution manager should notify 4 roles, got %d", got)
	}
	if got := len(NotifiableRoles(RoleCoordinator)); got != 3 {
		t.Fatalf("coordinator should notify 3 roles, got %d", got)
	}
	if got := len(NotifiableRoles(RoleTeacher)); got != 2 {
		t.Fatalf("teacher should notify 2 roles, got %d", got)
	}
	if NotifiableRoles(RoleStudent) != nil {
		t.Fatal("student must not notify anyone")
	}
	if NotifiableRoles(RoleGuardian) != nil {
		t.Fatal("guardian must not notify anyone")
	}
}

func TestCanNotifyIsStrictlyDownward(t *testing.T) {
	if !CanNotify(RoleTeacher, RoleStudent) {
		t.Fatal("teacher must be able to notify students")
	}
	if CanNotify(RoleTeacher, RoleCoordinator) {
		t.Fatal("teacher must not notify upward")
	}
	if CanNotify(RoleStudent, RoleStudent) {
		t.Fatal("student must not notify peers")
	}
	if !CanNotify(RoleSystemAdmin, RoleGuardian) {
		t.Fatal("admin must be able to notify guardians")
	}
}
