package authz

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/commonsphere/commonsphere/internal/shared"
)

// Directory loads the authorization-relevant snapshot of a protected
// resource. Missing resources surface shared.ErrNotFound; callers are
// expected to fold that into a deny so existence does not leak.
type Directory interface {
	ProgramByID(ctx context.Context, id uuid.UUID) (Program, error)
	ProjectByID(ctx context.Context, id uuid.UUID) (Project, error)
	ChannelByID(ctx context.Context, id uuid.UUID) (Channel, error)
	EventByID(ctx context.Context, id uuid.UUID) (Event, error)
	LibraryItemByID(ctx context.Context, id uuid.UUID) (LibraryItem, error)
}

// PGDirectory implements Directory using PostgreSQL.
type PGDirectory struct {
	pool *pgxpool.Pool
}

// NewDirectory constructs a PostgreSQL directory.
func NewDirectory(pool *pgxpool.Pool) *PGDirectory {
	return &PGDirectory{pool: pool}
}

// ProgramByID loads a program snapshot.
func (d *PGDirectory) ProgramByID(ctx context.Context, id uuid.UUID) (Program, error) {
	var p Program
	err := d.pool.QueryRow(ctx, `SELECT id, is_public FROM programs WHERE id = $1`, id).
		Scan(&p.ID, &p.IsPublic)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Program{}, shared.ErrNotFound
		}
		return Program{}, err
	}
	return p, nil
}

// ProjectByID loads a project snapshot.
func (d *PGDirectory) ProjectByID(ctx context.Context, id uuid.UUID) (Project, error) {
	var p Project
	err := d.pool.QueryRow(ctx, `SELECT id, status FROM projects WHERE id = $1`, id).
		Scan(&p.ID, &p.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Project{}, shared.ErrNotFound
		}
		return Project{}, err
	}
	return p, nil
}

// ChannelByID loads a channel snapshot.
func (d *PGDirectory) ChannelByID(ctx context.Context, id uuid.UUID) (Channel, error) {
	var (
		ch        Channel
		programID *uuid.UUID
	)
	err := d.pool.QueryRow(ctx, `SELECT id, visibility, is_read_only, program_id FROM channels WHERE id = $1`, id).
		Scan(&ch.ID, &ch.Visibility, &ch.IsReadOnly, &programID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Channel{}, shared.ErrNotFound
		}
		return Channel{}, err
	}
	if programID != nil {
		ch.ProgramID = *programID
	}
	return ch, nil
}

// EventByID loads an event snapshot.
func (d *PGDirectory) EventByID(ctx context.Context, id uuid.UUID) (Event, error) {
	var (
		ev        Event
		programID *uuid.UUID
		cohortID  *uuid.UUID
	)
	err := d.pool.QueryRow(ctx, `SELECT id, visibility, program_id, program_cohort_id, created_by FROM events WHERE id = $1`, id).
		Scan(&ev.ID, &ev.Visibility, &programID, &cohortID, &ev.CreatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Event{}, shared.ErrNotFound
		}
		return Event{}, err
	}
	if programID != nil {
		ev.ProgramID = *programID
	}
	if cohortID != nil {
		ev.CohortID = *cohortID
	}
	return ev, nil
}

// LibraryItemByID loads a library item snapshot.
func (d *PGDirectory) LibraryItemByID(ctx context.Context, id uuid.UUID) (LibraryItem, error) {
	var (
		item      LibraryItem
		programID *uuid.UUID
		cohortID  *uuid.UUID
	)
	err := d.pool.QueryRow(ctx, `SELECT id, access_level, program_id, program_cohort_id, author_id FROM library_items WHERE id = $1`, id).
		Scan(&item.ID, &item.AccessLevel, &programID, &cohortID, &item.AuthorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LibraryItem{}, shared.ErrNotFound
		}
		return LibraryItem{}, err
	}
	if programID != nil {
		item.ProgramID = *programID
	}
	if cohortID != nil {
		item.CohortID = *cohortID
	}
	return item, nil
}

var _ Directory = (*PGDirectory)(nil)
