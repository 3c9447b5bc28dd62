package scheduleinfra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"teamflow-roadmap/internal/domain/dates"
	projectdomain "teamflow-roadmap/internal/domain/project"
	"teamflow-roadmap/internal/domain/roster"
	projectuc "teamflow-roadmap/internal/usecase/project"
	rosteruc "teamflow-roadmap/internal/usecase/roster"
	scheduleuc "teamflow-roadmap/internal/usecase/schedule"
)

// SQLRepository はPostgreSQLを使用したリポジトリ実装。
type SQLRepository struct {
	db *pgxpool.Pool

	// Now はテストで時刻を固定するために差し替え可能にしている。
	Now func() time.Time
}

// コンパイル時にインターフェース実装を保証する。
var (
	_ projectuc.ProjectRepository   = (*SQLRepository)(nil)
	_ rosteruc.AssignmentRepository = (*SQLRepository)(nil)
	_ rosteruc.MemberRepository     = (*SQLRepository)(nil)
	_ scheduleuc.ProjectReader      = (*SQLRepository)(nil)
	_ scheduleuc.AssignmentReader   = (*SQLRepository)(nil)
	_ scheduleuc.MemberReader       = (*SQLRepository)(nil)
	_ scheduleuc.ProjectWriter      = (*SQLRepository)(nil)
	_ scheduleuc.AssignmentWriter   = (*SQLRepository)(nil)
)

// NewSQLRepository は新しいSQLRepositoryを生成する。
func NewSQLRepository(db *pgxpool.Pool) *SQLRepository {
	return &SQLRepository{
		db:  db,
		Now: time.Now,
	}
}

// SaveProject はプロジェクトを upsert する。
func (r *SQLRepository) SaveProject(ctx context.Context, p *projectdomain.Project) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO projects (id, name, description, start_date, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			updated_at = EXCLUDED.updated_at
	`, p.ID, p.Name, p.Description, p.Dates.Start, p.Dates.End, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}
	return nil
}

// FindProjectByID は ID を指定してプロジェクトを取得する。
func (r *SQLRepository) FindProjectByID(ctx context.Context, id string) (*projectdomain.Project, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, description, start_date, end_date, created_at, updated_at
		FROM projects
		WHERE id = $1
	`, id)

	p, err := scanProject(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, projectdomain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return p, nil
}

// ListProjects はすべてのプロジェクトを作成日時順に返す。
func (r *SQLRepository) ListProjects(ctx context.Context) ([]*projectdomain.Project, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, description, start_date, end_date, created_at, updated_at
		FROM projects
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var out []*projectdomain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// SaveMember はチームメンバーを upsert する。
func (r *SQLRepository) SaveMember(ctx context.Context, m *roster.TeamMember) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO team_members (id, name, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			role = EXCLUDED.role,
			updated_at = EXCLUDED.updated_at
	`, m.ID, m.Name, m.Role, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save member: %w", err)
	}
	return nil
}

// FindMemberByID は ID を指定してチームメンバーを取得する。
func (r *SQLRepository) FindMemberByID(ctx context.Context, id string) (*roster.TeamMember, error) {
	var m roster.TeamMember
	err := r.db.QueryRow(ctx, `
		SELECT id, name, role, created_at, updated_at
		FROM team_members
		WHERE id = $1
	`, id).Scan(&m.ID, &m.Name, &m.Role, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, roster.ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to find member: %w", err)
	}
	return &m, nil
}

// ListMembers はすべてのチームメンバーを返す。
func (r *SQLRepository) ListMembers(ctx context.Context) ([]*roster.TeamMember, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, role, created_at, updated_at
		FROM team_members
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var out []*roster.TeamMember
	for rows.Next() {
		var m roster.TeamMember
		if err := rows.Scan(&m.ID, &m.Name, &m.Role, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// SaveAssignment はアサインメントを upsert する。
func (r *SQLRepository) SaveAssignment(ctx context.Context, a *roster.Assignment) error {
	var start, end *time.Time
	if a.Dates != nil {
		start, end = &a.Dates.Start, &a.Dates.End
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO assignments (id, project_id, team_member_id, percent_allocation, start_date, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			percent_allocation = EXCLUDED.percent_allocation,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			updated_at = EXCLUDED.updated_at
	`, a.ID, a.ProjectID, a.TeamMemberID, a.PercentAllocation, start, end, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save assignment: %w", err)
	}
	return nil
}

// FindAssignmentByID は ID を指定してアサインメントを取得する。
func (r *SQLRepository) FindAssignmentByID(ctx context.Context, id string) (*roster.Assignment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, project_id, team_member_id, percent_allocation, start_date, end_date, created_at, updated_at
		FROM assignments
		WHERE id = $1
	`, id)

	a, err := scanAssignment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, roster.ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to find assignment: %w", err)
	}
	return a, nil
}

// ListAssignmentsByProject は指定されたプロジェクトのアサインメント一覧を
// 作成日時順で返す。
func (r *SQLRepository) ListAssignmentsByProject(ctx context.Context, projectID string) ([]*roster.Assignment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, project_id, team_member_id, percent_allocation, start_date, end_date, created_at, updated_at
		FROM assignments
		WHERE project_id = $1
		ORDER BY created_at ASC, id ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var out []*roster.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// UpdateProjectDates はプロジェクトの日付範囲を更新する永続化コールバック。
func (r *SQLRepository) UpdateProjectDates(ctx context.Context, projectID string, rng dates.Range) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE projects
		SET start_date = $1, end_date = $2, updated_at = $3
		WHERE id = $4
	`, rng.Start, rng.End, r.Now(), projectID)
	if err != nil {
		return fmt.Errorf("failed to update project dates: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return projectdomain.ErrNotFound
	}
	return nil
}

// UpdateProjectAssignments はアサインメント日付の一括更新コールバック。
// 1トランザクションで適用し、部分適用を残さない。
func (r *SQLRepository) UpdateProjectAssignments(ctx context.Context, projectID string, updates []scheduleuc.AssignmentDates) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := r.Now()
	for _, u := range updates {
		tag, err := tx.Exec(ctx, `
			UPDATE assignments
			SET percent_allocation = $1, start_date = $2, end_date = $3, updated_at = $4
			WHERE id = $5 AND project_id = $6
		`, u.PercentAllocation, u.Dates.Start, u.Dates.End, now, u.AssignmentID, projectID)
		if err != nil {
			return fmt.Errorf("failed to update assignment dates: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return roster.ErrAssignmentNotFound
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// scanProject は1行分のプロジェクトを読み取る。
func scanProject(row pgx.Row) (*projectdomain.Project, error) {
	var p projectdomain.Project
	var start, end time.Time
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &start, &end, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Dates = dates.NewRange(start, end)
	return &p, nil
}

// scanAssignment は1行分のアサインメントを読み取る。
func scanAssignment(row pgx.Row) (*roster.Assignment, error) {
	var a roster.Assignment
	var start, end *time.Time
	if err := row.Scan(&a.ID, &a.ProjectID, &a.TeamMemberID, &a.PercentAllocation, &start, &end, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	if start != nil && end != nil {
		r := dates.NewRange(*start, *end)
		a.Dates = &r
	}
	return &a, nil
}
