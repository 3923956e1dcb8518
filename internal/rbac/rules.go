package rbac

const (
	RoleProfessor = "professor"
	RoleAluno     = "aluno"
	RoleAdmin     = "admin"
)

// RolePermissions is the default policy.
var RolePermissions = map[string][]string{
	RoleAluno: {
		"test:view",
		"catalog:view",
		"answers:submit",
		"result:view-own",
	},
	RoleProfessor: {
		"test:create",
		"test:update",
		"test:view",
		"catalog:view",
		"discipline:manage",
		"result:view-all",
	},
	RoleAdmin: {
		"*", // everything
	},
}

// ValidRole reports whether role has an entry in the default policy.
func ValidRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}
