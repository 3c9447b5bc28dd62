package scheduleinfra

import (
	"context"
	"sort"
	"sync"
	"time"

	"teamflow-roadmap/internal/domain/dates"
	projectdomain "teamflow-roadmap/internal/domain/project"
	"teamflow-roadmap/internal/domain/roster"
	projectuc "teamflow-roadmap/internal/usecase/project"
	rosteruc "teamflow-roadmap/internal/usecase/roster"
	scheduleuc "teamflow-roadmap/internal/usecase/schedule"
)

// MemoryRepository はメモリ上にプロジェクト・メンバー・アサインメントを
// 保持するシンプルな実装。開発・テスト用。
type MemoryRepository struct {
	mu          sync.RWMutex
	projects    map[string]*projectdomain.Project
	members     map[string]*roster.TeamMember
	assignments map[string]*roster.Assignment

	// Now はテストで時刻を固定するために差し替え可能にしている。
	Now func() time.Time
}

// コンパイル時にインターフェース実装を保証する。
var (
	_ projectuc.ProjectRepository   = (*MemoryRepository)(nil)
	_ rosteruc.AssignmentRepository = (*MemoryRepository)(nil)
	_ rosteruc.MemberRepository     = (*MemoryRepository)(nil)
	_ scheduleuc.ProjectReader      = (*MemoryRepository)(nil)
	_ scheduleuc.AssignmentReader   = (*MemoryRepository)(nil)
	_ scheduleuc.MemberReader       = (*MemoryRepository)(nil)
	_ scheduleuc.ProjectWriter      = (*MemoryRepository)(nil)
	_ scheduleuc.AssignmentWriter   = (*MemoryRepository)(nil)
)

// NewMemoryRepository は空のインメモリリポジトリを生成する。
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		projects:    make(map[string]*projectdomain.Project),
		members:     make(map[string]*roster.TeamMember),
		assignments: make(map[string]*roster.Assignment),
		Now:         time.Now,
	}
}

// SaveProject はプロジェクトを保存する。
func (r *MemoryRepository) SaveProject(_ context.Context, p *projectdomain.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[p.ID] = p
	return nil
}

// FindProjectByID は ID を指定してプロジェクトを取得する。
func (r *MemoryRepository) FindProjectByID(_ context.Context, id string) (*projectdomain.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, projectdomain.ErrNotFound
	}
	return p, nil
}

// ListProjects はすべてのプロジェクトを返す。
func (r *MemoryRepository) ListProjects(_ context.Context) ([]*projectdomain.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*projectdomain.Project, 0, len(r.projects))
	for _, p := range r.projects {
		out = append(out, p)
	}
	return out, nil
}

// SaveMember はチームメンバーを保存する。
func (r *MemoryRepository) SaveMember(_ context.Context, m *roster.TeamMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[m.ID] = m
	return nil
}

// FindMemberByID は ID を指定してチームメンバーを取得する。
func (r *MemoryRepository) FindMemberByID(_ context.Context, id string) (*roster.TeamMember, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.members[id]
	if !ok {
		return nil, roster.ErrMemberNotFound
	}
	return m, nil
}

// ListMembers はすべてのチームメンバーを返す。
func (r *MemoryRepository) ListMembers(_ context.Context) ([]*roster.TeamMember, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*roster.TeamMember, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, m)
	}
	return out, nil
}

// SaveAssignment はアサインメントを保存する。
func (r *MemoryRepository) SaveAssignment(_ context.Context, a *roster.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assignments[a.ID] = a
	return nil
}

// FindAssignmentByID は ID を指定してアサインメントを取得する。
func (r *MemoryRepository) FindAssignmentByID(_ context.Context, id string) (*roster.Assignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.assignments[id]
	if !ok {
		return nil, roster.ErrAssignmentNotFound
	}
	return a, nil
}

// ListAssignmentsByProject は指定されたプロジェクトのアサインメント一覧を返す。
// 作成日時順で安定した順序にする（競合の影響一覧は入力順を保持するため）。
func (r *MemoryRepository) ListAssignmentsByProject(_ context.Context, projectID string) ([]*roster.Assignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*roster.Assignment, 0)
	for _, a := range r.assignments {
		if a.ProjectID == projectID {
			out = append(out, a)
		}
	}
	sortAssignments(out)
	return out, nil
}

// UpdateProjectDates はプロジェクトの日付範囲を更新する永続化コールバック。
func (r *MemoryRepository) UpdateProjectDates(_ context.Context, projectID string, rng dates.Range) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[projectID]
	if !ok {
		return projectdomain.ErrNotFound
	}
	return p.ChangeDates(rng, r.Now())
}

// UpdateProjectAssignments はアサインメント日付の一括更新コールバック。
// ID 単位の冪等な更新。存在しないアサインメントが含まれる場合はエラーを返す。
func (r *MemoryRepository) UpdateProjectAssignments(_ context.Context, _ string, updates []scheduleuc.AssignmentDates) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.Now()
	for _, u := range updates {
		a, ok := r.assignments[u.AssignmentID]
		if !ok {
			return roster.ErrAssignmentNotFound
		}
		if err := a.ChangeDates(u.Dates, now); err != nil {
			return err
		}
	}
	return nil
}

// sortAssignments は作成日時（同時刻なら ID）の昇順に並べる。
func sortAssignments(list []*roster.Assignment) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}
