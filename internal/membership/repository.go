// Package membership answers structural membership questions against the
// platform's relationship tables. The tables are owned by the surrounding
// application; this package only reads them.
package membership

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Oracle answers the membership queries the authorization engine needs.
// Absent rows evaluate to false, never to an error.
type Oracle interface {
	IsProgramMember(ctx context.Context, userID, programID uuid.UUID) (bool, error)
	IsProjectMember(ctx context.Context, userID, projectID uuid.UUID) (bool, error)
	IsProjectLead(ctx context.Context, userID, projectID uuid.UUID) (bool, error)
	IsCohortMember(ctx context.Context, userID, cohortID uuid.UUID) (bool, error)
	IsCohortFacilitator(ctx context.Context, userID, cohortID uuid.UUID) (bool, error)
	IsProgramFacilitator(ctx context.Context, userID, programID uuid.UUID) (bool, error)
}

// PGOracle implements Oracle using PostgreSQL.
type PGOracle struct {
	pool *pgxpool.Pool
}

// NewOracle constructs a PostgreSQL oracle.
func NewOracle(pool *pgxpool.Pool) *PGOracle {
	return &PGOracle{pool: pool}
}

// IsProgramMember reports whether the user belongs to the program.
func (o *PGOracle) IsProgramMember(ctx context.Context, userID, programID uuid.UUID) (bool, error) {
	var exists bool
	err := o.pool.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM program_members WHERE user_id = $1 AND program_id = $2)`,
		userID, programID).Scan(&exists)
	return exists, err
}

// IsProjectMember reports whether the user has an active project membership.
// Deactivated records do not count even though the row remains.
func (o *PGOracle) IsProjectMember(ctx context.Context, userID, projectID uuid.UUID) (bool, error) {
	var exists bool
	err := o.pool.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM project_members
		WHERE user_id = $1 AND project_id = $2 AND is_active = TRUE)`,
		userID, projectID).Scan(&exists)
	return exists, err
}

// IsProjectLead reports whether the user's active project membership carries
// the lead role.
func (o *PGOracle) IsProjectLead(ctx context.Context, userID, projectID uuid.UUID) (bool, error) {
	var exists bool
	err := o.pool.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM project_members
		WHERE user_id = $1 AND project_id = $2 AND is_active = TRUE AND role = $3)`,
		userID, projectID, ProjectRoleLead).Scan(&exists)
	return exists, err
}

// IsCohortMember reports whether the user participates in the cohort.
func (o *PGOracle) IsCohortMember(ctx context.Context, userID, cohortID uuid.UUID) (bool, error) {
	var exists bool
	err := o.pool.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM cohort_participants WHERE user_id = $1 AND cohort_id = $2)`,
		userID, cohortID).Scan(&exists)
	return exists, err
}

// IsCohortFacilitator reports whether the user participates in the cohort
// with the facilitator qualifier.
func (o *PGOracle) IsCohortFacilitator(ctx context.Context, userID, cohortID uuid.UUID) (bool, error) {
	var exists bool
	err := o.pool.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM cohort_participants
		WHERE user_id = $1 AND cohort_id = $2 AND role = $3)`,
		userID, cohortID, CohortRoleFacilitator).Scan(&exists)
	return exists, err
}

// IsProgramFacilitator reports whether the user facilitates any cohort
// belonging to the program.
func (o *PGOracle) IsProgramFacilitator(ctx context.Context, userID, programID uuid.UUID) (bool, error) {
	var exists bool
	err := o.pool.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM cohort_participants cp
		JOIN cohorts c ON c.id = cp.cohort_id
		WHERE cp.user_id = $1 AND c.program_id = $2 AND cp.role = $3)`,
		userID, programID, CohortRoleFacilitator).Scan(&exists)
	return exists, err
}

var _ Oracle = (*PGOracle)(nil)
