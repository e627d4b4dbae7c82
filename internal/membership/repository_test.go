package membership

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	_ "github.com/commonsphere/commonsphere/testing"
)

// integrationPool connects to the database named by COMMONSPHERE_TEST_PG_DSN.
// Without it the test is skipped; the oracle is a set of EXISTS queries whose
// semantics only a real database can exercise.
func integrationPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("COMMONSPHERE_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("set COMMONSPHERE_TEST_PG_DSN to run membership integration tests")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func TestProjectMembershipFollowsActiveFlag(t *testing.T) {
	pool := integrationPool(t)
	ctx := context.Background()
	oracle := NewOracle(pool)

	userID := uuid.New()
	projectID := uuid.New()
	if _, err := pool.Exec(ctx, `
		INSERT INTO users (id, email, name, password_hash, is_active, created_at, updated_at)
		VALUES ($1, $2, 'Membership Probe', '', TRUE, NOW(), NOW())`,
		userID, fmt.Sprintf("member-%s@test.local", userID)); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	if _, err := pool.Exec(ctx, `
		INSERT INTO projects (id, name, status, created_at, updated_at)
		VALUES ($1, 'Toggle Fixture', 'active', NOW(), NOW())`, projectID); err != nil {
		t.Fatalf("insert project: %v", err)
	}
	if _, err := pool.Exec(ctx, `
		INSERT INTO project_members (project_id, user_id, role, is_active)
		VALUES ($1, $2, $3, TRUE)`, projectID, userID, ProjectRoleLead); err != nil {
		t.Fatalf("insert membership: %v", err)
	}
	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, `DELETE FROM project_members WHERE project_id = $1`, projectID)
		_, _ = pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, projectID)
		_, _ = pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	})

	assertMembership := func(wantMember, wantLead bool) {
		t.Helper()
		member, err := oracle.IsProjectMember(ctx, userID, projectID)
		if err != nil {
			t.Fatalf("IsProjectMember: %v", err)
		}
		if member != wantMember {
			t.Fatalf("IsProjectMember = %v, want %v", member, wantMember)
		}
		lead, err := oracle.IsProjectLead(ctx, userID, projectID)
		if err != nil {
			t.Fatalf("IsProjectLead: %v", err)
		}
		if lead != wantLead {
			t.Fatalf("IsProjectLead = %v, want %v", lead, wantLead)
		}
	}

	assertMembership(true, true)

	// Deactivation hides the membership without deleting the row.
	if _, err := pool.Exec(ctx, `
		UPDATE project_members SET is_active = FALSE
		WHERE project_id = $1 AND user_id = $2`, projectID, userID); err != nil {
		t.Fatalf("deactivate membership: %v", err)
	}
	assertMembership(false, false)

	var rows int
	if err := pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM project_members
		WHERE project_id = $1 AND user_id = $2`, projectID, userID).Scan(&rows); err != nil {
		t.Fatalf("count memberships: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected the deactivated row to remain, found %d rows", rows)
	}

	// Reactivation flips the verdicts back using the same row.
	if _, err := pool.Exec(ctx, `
		UPDATE project_members SET is_active = TRUE
		WHERE project_id = $1 AND user_id = $2`, projectID, userID); err != nil {
		t.Fatalf("reactivate membership: %v", err)
	}
	assertMembership(true, true)
}
