//go:build integration
// +build integration

package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SeedProject represents a project row to be inserted for testing.
type SeedProject struct {
	ID          string
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SeedMember represents a team member row to be inserted for testing.
type SeedMember struct {
	ID        string
	Name      string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SeedAssignment represents an assignment row to be inserted for testing.
type SeedAssignment struct {
	ID                string
	ProjectID         string
	TeamMemberID      string
	PercentAllocation int
	StartDate         *time.Time // DATE in DB: pass time at midnight; nil for NULL
	EndDate           *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// InsertProjects inserts projects into the database for testing.
func InsertProjects(t *testing.T, db *pgxpool.Pool, projects []SeedProject) {
	t.Helper()
	ctx := context.Background()

	const q = `
		INSERT INTO projects (id, name, description, start_date, end_date, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`
	for _, p := range projects {
		_, err := db.Exec(ctx, q, p.ID, p.Name, p.Description, p.StartDate, p.EndDate, p.CreatedAt, p.UpdatedAt)
		if err != nil {
			t.Fatalf("failed to insert seed project id=%s: %v", p.ID, err)
		}
	}
}

// InsertMembers inserts team members into the database for testing.
func InsertMembers(t *testing.T, db *pgxpool.Pool, members []SeedMember) {
	t.Helper()
	ctx := context.Background()

	const q = `
		INSERT INTO team_members (id, name, role, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5)
	`
	for _, m := range members {
		_, err := db.Exec(ctx, q, m.ID, m.Name, m.Role, m.CreatedAt, m.UpdatedAt)
		if err != nil {
			t.Fatalf("failed to insert seed member id=%s: %v", m.ID, err)
		}
	}
}

// InsertAssignments inserts assignments into the database for testing.
func InsertAssignments(t *testing.T, db *pgxpool.Pool, assignments []SeedAssignment) {
	t.Helper()
	ctx := context.Background()

	const q = `
		INSERT INTO assignments (id, project_id, team_member_id, percent_allocation, start_date, end_date, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`
	for _, a := range assignments {
		_, err := db.Exec(ctx, q,
			a.ID, a.ProjectID, a.TeamMemberID, a.PercentAllocation, a.StartDate, a.EndDate, a.CreatedAt, a.UpdatedAt,
		)
		if err != nil {
			t.Fatalf("failed to insert seed assignment id=%s: %v", a.ID, err)
		}
	}
}

// DateYMD creates a time.Time at midnight UTC for a given date (for DATE fields).
func DateYMD(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
