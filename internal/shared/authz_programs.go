package shared

// Program permissions declared for RBAC.
const (
	PermViewProgram         = "view_program"
	PermEditProgram         = "edit_program"
	PermManageProgramCohort = "manage_program_cohort"
)

// ProgramScopes lists all permissions related to the programs module.
func ProgramScopes() []string {
	return []string{
		PermViewProgram,
		PermEditProgram,
		PermManageProgramCohort,
	}
}
