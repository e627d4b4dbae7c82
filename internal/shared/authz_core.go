package shared

// Core platform permissions.
const (
	// PermAdminAll is the super-admin sentinel. A user holding any role that
	// grants it satisfies every permission check, including checks for names
	// that do not exist in the catalog. The bypass lives in the user-level
	// resolution path only; role-level lookups stay exact.
	PermAdminAll = "admin_all"
)

// CoreScopes lists permissions belonging to the core platform.
func CoreScopes() []string {
	return []string{
		PermAdminAll,
	}
}

// AllScopes aggregates the full permission catalog across modules.
func AllScopes() []string {
	var all []string
	all = append(all, CoreScopes()...)
	all = append(all, ProgramScopes()...)
	all = append(all, ProjectScopes()...)
	all = append(all, CommunityScopes()...)
	all = append(all, EventScopes()...)
	all = append(all, LibraryScopes()...)
	return all
}
