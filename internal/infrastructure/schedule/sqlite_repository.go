package scheduleinfra

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"teamflow-roadmap/internal/domain/dates"
	projectdomain "teamflow-roadmap/internal/domain/project"
	"teamflow-roadmap/internal/domain/roster"
	projectuc "teamflow-roadmap/internal/usecase/project"
	rosteruc "teamflow-roadmap/internal/usecase/roster"
	scheduleuc "teamflow-roadmap/internal/usecase/schedule"
)

// sqliteSchema はSQLiteリポジトリのスキーマ。初回オープン時に適用する。
// 日付は "YYYY-MM-DD" のTEXT、タイムスタンプはRFC3339のTEXTで保持する。
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS projects (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    start_date  TEXT NOT NULL,
    end_date    TEXT NOT NULL,
    created_at  TEXT NOT NULL,
    updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS team_members (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    role       TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS assignments (
    id                 TEXT PRIMARY KEY,
    project_id         TEXT NOT NULL REFERENCES projects(id),
    team_member_id     TEXT NOT NULL REFERENCES team_members(id),
    percent_allocation INTEGER NOT NULL,
    start_date         TEXT NULL,
    end_date           TEXT NULL,
    created_at         TEXT NOT NULL,
    updated_at         TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_assignments_project ON assignments(project_id);
`

// SQLiteRepository はSQLiteを使用したリポジトリ実装。ローカル開発用。
type SQLiteRepository struct {
	db *sql.DB

	// Now はテストで時刻を固定するために差し替え可能にしている。
	Now func() time.Time
}

// コンパイル時にインターフェース実装を保証する。
var (
	_ projectuc.ProjectRepository   = (*SQLiteRepository)(nil)
	_ rosteruc.AssignmentRepository = (*SQLiteRepository)(nil)
	_ rosteruc.MemberRepository     = (*SQLiteRepository)(nil)
	_ scheduleuc.ProjectReader      = (*SQLiteRepository)(nil)
	_ scheduleuc.AssignmentReader   = (*SQLiteRepository)(nil)
	_ scheduleuc.MemberReader       = (*SQLiteRepository)(nil)
	_ scheduleuc.ProjectWriter      = (*SQLiteRepository)(nil)
	_ scheduleuc.AssignmentWriter   = (*SQLiteRepository)(nil)
)

// OpenSQLiteRepository はSQLiteデータベースを開き、スキーマを適用する。
func OpenSQLiteRepository(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteRepository{db: db, Now: time.Now}, nil
}

// Close はデータベース接続を閉じる。
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// SaveProject はプロジェクトを upsert する。
func (r *SQLiteRepository) SaveProject(ctx context.Context, p *projectdomain.Project) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, start_date, end_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			updated_at = excluded.updated_at
	`, p.ID, p.Name, p.Description,
		p.Dates.Start.Format(dates.Layout), p.Dates.End.Format(dates.Layout),
		p.CreatedAt.Format(time.RFC3339Nano), p.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}
	return nil
}

// FindProjectByID は ID を指定してプロジェクトを取得する。
func (r *SQLiteRepository) FindProjectByID(ctx context.Context, id string) (*projectdomain.Project, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, start_date, end_date, created_at, updated_at
		FROM projects
		WHERE id = ?
	`, id)

	p, err := scanSQLiteProject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, projectdomain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return p, nil
}

// ListProjects はすべてのプロジェクトを作成日時順に返す。
func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]*projectdomain.Project, error) {
	rows, err := r.db.QueryContext(ctx, `
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
		p, err := scanSQLiteProject(rows)
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
func (r *SQLiteRepository) SaveMember(ctx context.Context, m *roster.TeamMember) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO team_members (id, name, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			role = excluded.role,
			updated_at = excluded.updated_at
	`, m.ID, m.Name, m.Role, m.CreatedAt.Format(time.RFC3339Nano), m.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save member: %w", err)
	}
	return nil
}

// FindMemberByID は ID を指定してチームメンバーを取得する。
func (r *SQLiteRepository) FindMemberByID(ctx context.Context, id string) (*roster.TeamMember, error) {
	var m roster.TeamMember
	var createdAt, updatedAt string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, role, created_at, updated_at
		FROM team_members
		WHERE id = ?
	`, id).Scan(&m.ID, &m.Name, &m.Role, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, roster.ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to find member: %w", err)
	}

	m.CreatedAt, m.UpdatedAt, err = parseTimestamps(createdAt, updatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMembers はすべてのチームメンバーを返す。
func (r *SQLiteRepository) ListMembers(ctx context.Context) ([]*roster.TeamMember, error) {
	rows, err := r.db.QueryContext(ctx, `
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
		var createdAt, updatedAt string
		if err := rows.Scan(&m.ID, &m.Name, &m.Role, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		m.CreatedAt, m.UpdatedAt, err = parseTimestamps(createdAt, updatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// SaveAssignment はアサインメントを upsert する。
func (r *SQLiteRepository) SaveAssignment(ctx context.Context, a *roster.Assignment) error {
	var start, end *string
	if a.Dates != nil {
		s := a.Dates.Start.Format(dates.Layout)
		e := a.Dates.End.Format(dates.Layout)
		start, end = &s, &e
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO assignments (id, project_id, team_member_id, percent_allocation, start_date, end_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			percent_allocation = excluded.percent_allocation,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			updated_at = excluded.updated_at
	`, a.ID, a.ProjectID, a.TeamMemberID, a.PercentAllocation, start, end,
		a.CreatedAt.Format(time.RFC3339Nano), a.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save assignment: %w", err)
	}
	return nil
}

// FindAssignmentByID は ID を指定してアサインメントを取得する。
func (r *SQLiteRepository) FindAssignmentByID(ctx context.Context, id string) (*roster.Assignment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, project_id, team_member_id, percent_allocation, start_date, end_date, created_at, updated_at
		FROM assignments
		WHERE id = ?
	`, id)

	a, err := scanSQLiteAssignment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, roster.ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to find assignment: %w", err)
	}
	return a, nil
}

// ListAssignmentsByProject は指定されたプロジェクトのアサインメント一覧を
// 作成日時順で返す。
func (r *SQLiteRepository) ListAssignmentsByProject(ctx context.Context, projectID string) ([]*roster.Assignment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, project_id, team_member_id, percent_allocation, start_date, end_date, created_at, updated_at
		FROM assignments
		WHERE project_id = ?
		ORDER BY created_at ASC, id ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var out []*roster.Assignment
	for rows.Next() {
		a, err := scanSQLiteAssignment(rows)
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
func (r *SQLiteRepository) UpdateProjectDates(ctx context.Context, projectID string, rng dates.Range) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE projects
		SET start_date = ?, end_date = ?, updated_at = ?
		WHERE id = ?
	`, rng.Start.Format(dates.Layout), rng.End.Format(dates.Layout),
		r.Now().Format(time.RFC3339Nano), projectID)
	if err != nil {
		return fmt.Errorf("failed to update project dates: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return projectdomain.ErrNotFound
	}
	return nil
}

// UpdateProjectAssignments はアサインメント日付の一括更新コールバック。
// 1トランザクションで適用し、部分適用を残さない。
func (r *SQLiteRepository) UpdateProjectAssignments(ctx context.Context, projectID string, updates []scheduleuc.AssignmentDates) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := r.Now().Format(time.RFC3339Nano)
	for _, u := range updates {
		res, err := tx.ExecContext(ctx, `
			UPDATE assignments
			SET percent_allocation = ?, start_date = ?, end_date = ?, updated_at = ?
			WHERE id = ? AND project_id = ?
		`, u.PercentAllocation, u.Dates.Start.Format(dates.Layout), u.Dates.End.Format(dates.Layout),
			now, u.AssignmentID, projectID)
		if err != nil {
			return fmt.Errorf("failed to update assignment dates: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if affected == 0 {
			return roster.ErrAssignmentNotFound
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// sqliteRow は QueryRow と Query の両方の行を受けるための最小のインターフェース。
type sqliteRow interface {
	Scan(dest ...any) error
}

// scanSQLiteProject は1行分のプロジェクトを読み取る。
func scanSQLiteProject(row sqliteRow) (*projectdomain.Project, error) {
	var p projectdomain.Project
	var start, end, createdAt, updatedAt string
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &start, &end, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	rng, err := dates.Parse(start, end)
	if err != nil {
		return nil, err
	}
	p.Dates = rng

	p.CreatedAt, p.UpdatedAt, err = parseTimestamps(createdAt, updatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// scanSQLiteAssignment は1行分のアサインメントを読み取る。
func scanSQLiteAssignment(row sqliteRow) (*roster.Assignment, error) {
	var a roster.Assignment
	var start, end *string
	var createdAt, updatedAt string
	if err := row.Scan(&a.ID, &a.ProjectID, &a.TeamMemberID, &a.PercentAllocation, &start, &end, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if start != nil && end != nil {
		rng, err := dates.Parse(*start, *end)
		if err != nil {
			return nil, err
		}
		a.Dates = &rng
	}

	var err error
	a.CreatedAt, a.UpdatedAt, err = parseTimestamps(createdAt, updatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// parseTimestamps はRFC3339のタイムスタンプ2つをまとめてパースする。
func parseTimestamps(createdAt, updatedAt string) (time.Time, time.Time, error) {
	c, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid created_at: %w", err)
	}
	u, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid updated_at: %w", err)
	}
	return c, u, nil
}
