package membership

// Project membership role qualifiers.
const (
	ProjectRoleLead       = "lead"
	ProjectRoleResearcher = "researcher"
)

// Cohort participation role qualifiers.
const (
	CohortRoleParticipant = "participant"
	CohortRoleFacilitator = "facilitator"
)
