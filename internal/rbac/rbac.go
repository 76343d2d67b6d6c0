package rbac

type Role string
type Action string

const (
	RoleCompiler Role = "compiler"
	RoleAnalyst  Role = "analyst"
	RoleAdmin    Role = "admin"
)

const (
	ActionSubmit  Action = "submit"
	ActionAnalyze Action = "analyze"
	ActionExport  Action = "export"
	ActionAdmin   Action = "admin"
)

func Can(role Role, action Action) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleAnalyst:
		return action == ActionSubmit || action == ActionAnalyze || action == ActionExport
	case RoleCompiler:
		return action == ActionSubmit
	default:
		return false
	}
}

func Normalize(role string) Role {
	switch Role(role) {
	case RoleCompiler, RoleAnalyst, RoleAdmin:
		return Role(role)
	default:
		return RoleCompiler
	}
}
