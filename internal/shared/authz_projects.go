package shared

// Project permissions declared for RBAC.
const (
	PermViewAllProjects = "view_all_projects"
	PermEditAnyProject  = "edit_any_project"
	PermEditOwnProject  = "edit_own_project"
	PermCreateProject   = "create_project"
)

// ProjectScopes lists all permissions related to the projects module.
func ProjectScopes() []string {
	return []string{
		PermViewAllProjects,
		PermEditAnyProject,
		PermEditOwnProject,
		PermCreateProject,
	}
}
