package schedule_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"teamflow-roadmap/internal/domain/dates"
	projectdomain "teamflow-roadmap/internal/domain/project"
	"teamflow-roadmap/internal/domain/roster"
	domain "teamflow-roadmap/internal/domain/schedule"
	scheduleuc "teamflow-roadmap/internal/usecase/schedule"
)

func mustRange(t *testing.T, start, end string) dates.Range {
	t.Helper()
	r, err := dates.Parse(start, end)
	if err != nil {
		t.Fatalf("failed to parse range: %v", err)
	}
	return r
}

func rangePtr(r dates.Range) *dates.Range {
	return &r
}

// fakeRepository はコーディネータが必要とする読み書きインターフェースの
// テスト用インメモリ実装。
type fakeRepository struct {
	projects    map[string]*projectdomain.Project
	assignments map[string]*roster.Assignment
	members     map[string]*roster.TeamMember

	updatedProjectRange *dates.Range
	updatedAssignments  []scheduleuc.AssignmentDates

	projectWriteErr    error
	assignmentWriteErr error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		projects:    make(map[string]*projectdomain.Project),
		assignments: make(map[string]*roster.Assignment),
		members:     make(map[string]*roster.TeamMember),
	}
}

func (f *fakeRepository) FindProjectByID(_ context.Context, id string) (*projectdomain.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, projectdomain.ErrNotFound
	}
	return p, nil
}

func (f *fakeRepository) FindAssignmentByID(_ context.Context, id string) (*roster.Assignment, error) {
	a, ok := f.assignments[id]
	if !ok {
		return nil, roster.ErrAssignmentNotFound
	}
	return a, nil
}

func (f *fakeRepository) ListAssignmentsByProject(_ context.Context, projectID string) ([]*roster.Assignment, error) {
	var out []*roster.Assignment
	for _, a := range f.assignments {
		if a.ProjectID == projectID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRepository) FindMemberByID(_ context.Context, id string) (*roster.TeamMember, error) {
	m, ok := f.members[id]
	if !ok {
		return nil, roster.ErrMemberNotFound
	}
	return m, nil
}

func (f *fakeRepository) UpdateProjectDates(_ context.Context, projectID string, r dates.Range) error {
	if f.projectWriteErr != nil {
		return f.projectWriteErr
	}
	p, ok := f.projects[projectID]
	if !ok {
		return projectdomain.ErrNotFound
	}
	p.Dates = r
	f.updatedProjectRange = &r
	return nil
}

func (f *fakeRepository) UpdateProjectAssignments(_ context.Context, _ string, updates []scheduleuc.AssignmentDates) error {
	if f.assignmentWriteErr != nil {
		return f.assignmentWriteErr
	}
	for _, u := range updates {
		if a, ok := f.assignments[u.AssignmentID]; ok {
			r := u.Dates
			a.Dates = &r
		}
	}
	f.updatedAssignments = append(f.updatedAssignments, updates...)
	return nil
}

// fakeSurface はあらかじめ決められたアクション（またはエラー）を返す確認画面。
type fakeSurface struct {
	action domain.ActionID
	err    error

	consulted bool
	conflict  *domain.Conflict
	actions   []domain.ResolutionAction
}

func (f *fakeSurface) Confirm(_ context.Context, c *domain.Conflict, actions []domain.ResolutionAction) (domain.ActionID, error) {
	f.consulted = true
	f.conflict = c
	f.actions = actions
	if f.err != nil {
		return "", f.err
	}
	return f.action, nil
}

// blockingSurface は Confirm に入ったことを通知し、解放されるまでブロックする。
type blockingSurface struct {
	entered chan struct{}
	release chan domain.ActionID
}

func (f *blockingSurface) Confirm(ctx context.Context, _ *domain.Conflict, _ []domain.ResolutionAction) (domain.ActionID, error) {
	close(f.entered)
	select {
	case action := <-f.release:
		return action, nil
	case <-ctx.Done():
		return "", scheduleuc.ErrCancelled
	}
}

func seedProject(t *testing.T, repo *fakeRepository, start, end string) *projectdomain.Project {
	t.Helper()
	p, err := projectdomain.NewProject("proj-1", "Website Redesign", "", mustRange(t, start, end), time.Now())
	if err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	repo.projects[p.ID] = p
	return p
}

func seedAssignment(t *testing.T, repo *fakeRepository, id string, r *dates.Range) *roster.Assignment {
	t.Helper()
	a, err := roster.NewAssignment(id, "proj-1", "mem-1", 100, r, time.Now())
	if err != nil {
		t.Fatalf("failed to create assignment: %v", err)
	}
	repo.assignments[a.ID] = a
	return a
}

func newCoordinator(repo *fakeRepository, surface scheduleuc.DecisionSurface) *scheduleuc.Coordinator {
	return &scheduleuc.Coordinator{
		Projects:         repo,
		Assignments:      repo,
		Members:          repo,
		ProjectWriter:    repo,
		AssignmentWriter: repo,
		Surface:          surface,
	}
}

func TestChangeProjectDates_NoConflictAppliesImmediately(t *testing.T) {
	repo := newFakeRepository()
	seedProject(t, repo, "2024-01-01", "2024-06-30")
	seedAssignment(t, repo, "asg-1", rangePtr(mustRange(t, "2024-02-01", "2024-02-29")))

	surface := &fakeSurface{}
	coordinator := newCoordinator(repo, surface)

	newRange := mustRange(t, "2024-01-01", "2024-12-31")
	result, err := coordinator.ChangeProjectDates(context.Background(), scheduleuc.ChangeProjectDatesInput{
		ProjectID: "proj-1",
		NewRange:  newRange,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Conflicted {
		t.Errorf("expected no conflict")
	}
	if surface.consulted {
		t.Errorf("decision surface must not be consulted when there is no conflict")
	}
	if repo.updatedProjectRange == nil || !repo.updatedProjectRange.Equal(newRange) {
		t.Errorf("expected project range to be persisted, got %v", repo.updatedProjectRange)
	}
}

func TestChangeProjectDates_UpdateAssignmentsPropagates(t *testing.T) {
	repo := newFakeRepository()
	p := seedProject(t, repo, "2024-01-01", "2024-06-30")
	seedAssignment(t, repo, "asg-1", rangePtr(p.Dates))

	surface := &fakeSurface{action: domain.ActionUpdateAssignments}
	coordinator := newCoordinator(repo, surface)

	newRange := mustRange(t, "2024-02-01", "2024-05-31")
	result, err := coordinator.ChangeProjectDates(context.Background(), scheduleuc.ChangeProjectDatesInput{
		ProjectID: "proj-1",
		NewRange:  newRange,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Conflicted || result.Action != domain.ActionUpdateAssignments {
		t.Errorf("unexpected result: %+v", result)
	}
	if !surface.consulted {
		t.Fatalf("expected decision surface to be consulted")
	}
	if len(surface.actions) != 2 {
		t.Errorf("expected two actions to be offered, got %+v", surface.actions)
	}

	if repo.updatedProjectRange == nil || !repo.updatedProjectRange.Equal(newRange) {
		t.Errorf("expected project range to be persisted, got %v", repo.updatedProjectRange)
	}
	a := repo.assignments["asg-1"]
	if a.Dates == nil || !a.Dates.Equal(newRange) {
		t.Errorf("expected assignment range to follow project, got %v", a.Dates)
	}
}

func TestChangeProjectDates_KeepCustomLeavesAssignments(t *testing.T) {
	repo := newFakeRepository()
	p := seedProject(t, repo, "2024-01-01", "2024-06-30")
	original := p.Dates
	seedAssignment(t, repo, "asg-1", rangePtr(original))

	surface := &fakeSurface{action: domain.ActionKeepCustom}
	coordinator := newCoordinator(repo, surface)

	newRange := mustRange(t, "2024-02-01", "2024-05-31")
	result, err := coordinator.ChangeProjectDates(context.Background(), scheduleuc.ChangeProjectDatesInput{
		ProjectID: "proj-1",
		NewRange:  newRange,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.AssignmentUpdates) != 0 {
		t.Errorf("expected no assignment updates, got %+v", result.AssignmentUpdates)
	}
	a := repo.assignments["asg-1"]
	if a.Dates == nil || !a.Dates.Equal(original) {
		t.Errorf("expected assignment range to be untouched, got %v", a.Dates)
	}
	if repo.updatedProjectRange == nil || !repo.updatedProjectRange.Equal(newRange) {
		t.Errorf("expected project range to be persisted, got %v", repo.updatedProjectRange)
	}
}

func TestChangeProjectDates_CancelledPersistsNothing(t *testing.T) {
	repo := newFakeRepository()
	p := seedProject(t, repo, "2024-01-01", "2024-06-30")
	seedAssignment(t, repo, "asg-1", rangePtr(p.Dates))

	surface := &fakeSurface{err: scheduleuc.ErrCancelled}
	coordinator := newCoordinator(repo, surface)

	_, err := coordinator.ChangeProjectDates(context.Background(), scheduleuc.ChangeProjectDatesInput{
		ProjectID: "proj-1",
		NewRange:  mustRange(t, "2024-02-01", "2024-05-31"),
	})
	if !errors.Is(err, scheduleuc.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}

	if repo.updatedProjectRange != nil {
		t.Errorf("expected no project write after cancel, got %v", repo.updatedProjectRange)
	}
	if len(repo.updatedAssignments) != 0 {
		t.Errorf("expected no assignment writes after cancel, got %+v", repo.updatedAssignments)
	}
}

func TestChangeProjectDates_PersistenceFailure(t *testing.T) {
	repo := newFakeRepository()
	seedProject(t, repo, "2024-01-01", "2024-06-30")
	repo.projectWriteErr = errors.New("disk full")

	coordinator := newCoordinator(repo, &fakeSurface{})

	_, err := coordinator.ChangeProjectDates(context.Background(), scheduleuc.ChangeProjectDatesInput{
		ProjectID: "proj-1",
		NewRange:  mustRange(t, "2024-01-01", "2024-12-31"),
	})
	if !errors.Is(err, scheduleuc.ErrPersistenceFailed) {
		t.Fatalf("expected ErrPersistenceFailed, got %v", err)
	}
}

func TestChangeProjectDates_InvalidRange(t *testing.T) {
	repo := newFakeRepository()
	seedProject(t, repo, "2024-01-01", "2024-06-30")

	coordinator := newCoordinator(repo, &fakeSurface{})

	inverted := dates.Range{
		Start: mustRange(t, "2024-06-30", "2024-06-30").Start,
		End:   mustRange(t, "2024-01-01", "2024-01-01").Start,
	}
	_, err := coordinator.ChangeProjectDates(context.Background(), scheduleuc.ChangeProjectDatesInput{
		ProjectID: "proj-1",
		NewRange:  inverted,
	})
	if !errors.Is(err, scheduleuc.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestChangeProjectDates_RejectsConcurrentRequest(t *testing.T) {
	repo := newFakeRepository()
	p := seedProject(t, repo, "2024-01-01", "2024-06-30")
	seedAssignment(t, repo, "asg-1", rangePtr(p.Dates))

	surface := &blockingSurface{
		entered: make(chan struct{}),
		release: make(chan domain.ActionID),
	}
	coordinator := newCoordinator(repo, surface)

	done := make(chan error, 1)
	go func() {
		_, err := coordinator.ChangeProjectDates(context.Background(), scheduleuc.ChangeProjectDatesInput{
			ProjectID: "proj-1",
			NewRange:  mustRange(t, "2024-02-01", "2024-05-31"),
		})
		done <- err
	}()

	// 最初の要求が決定待ちに入るのを待つ
	select {
	case <-surface.entered:
	case <-time.After(5 * time.Second):
		t.Fatalf("first request never reached the decision surface")
	}

	_, err := coordinator.ChangeProjectDates(context.Background(), scheduleuc.ChangeProjectDatesInput{
		ProjectID: "proj-1",
		NewRange:  mustRange(t, "2024-03-01", "2024-04-30"),
	})
	if !errors.Is(err, scheduleuc.ErrDecisionPending) {
		t.Fatalf("expected ErrDecisionPending for concurrent request, got %v", err)
	}

	surface.release <- domain.ActionKeepCustom
	if err := <-done; err != nil {
		t.Fatalf("first request failed: %v", err)
	}

	// スロットが解放された後の要求は受け付けられる
	if _, err := coordinator.ChangeProjectDates(context.Background(), scheduleuc.ChangeProjectDatesInput{
		ProjectID: "proj-1",
		NewRange:  mustRange(t, "2024-01-01", "2024-12-31"),
	}); err != nil {
		t.Fatalf("request after release failed: %v", err)
	}
}

func TestChangeAssignmentDates_NoConflict(t *testing.T) {
	repo := newFakeRepository()
	seedProject(t, repo, "2024-01-01", "2024-06-30")
	seedAssignment(t, repo, "asg-1", rangePtr(mustRange(t, "2024-01-01", "2024-06-30")))

	surface := &fakeSurface{}
	coordinator := newCoordinator(repo, surface)

	newRange := mustRange(t, "2024-02-01", "2024-02-29")
	result, err := coordinator.ChangeAssignmentDates(context.Background(), scheduleuc.ChangeAssignmentDatesInput{
		AssignmentID: "asg-1",
		NewRange:     newRange,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Conflicted || surface.consulted {
		t.Errorf("expected immediate apply without consulting the surface")
	}
	a := repo.assignments["asg-1"]
	if a.Dates == nil || !a.Dates.Equal(newRange) {
		t.Errorf("expected assignment range to be persisted, got %v", a.Dates)
	}
}

func TestChangeAssignmentDates_ExtendProject(t *testing.T) {
	repo := newFakeRepository()
	seedProject(t, repo, "2024-01-01", "2024-02-29")
	seedAssignment(t, repo, "asg-1", rangePtr(mustRange(t, "2024-01-01", "2024-02-29")))

	surface := &fakeSurface{action: domain.ActionExtendProject}
	coordinator := newCoordinator(repo, surface)

	proposed := mustRange(t, "2024-03-01", "2024-03-31")
	result, err := coordinator.ChangeAssignmentDates(context.Background(), scheduleuc.ChangeAssignmentDatesInput{
		AssignmentID: "asg-1",
		NewRange:     proposed,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if surface.conflict == nil || surface.conflict.Kind != domain.KindAssignmentOutsideProject {
		t.Fatalf("unexpected conflict passed to surface: %+v", surface.conflict)
	}

	wantProject := mustRange(t, "2024-01-01", "2024-03-31")
	if result.ProjectRange == nil || !result.ProjectRange.Equal(wantProject) {
		t.Errorf("expected project range %v, got %v", wantProject, result.ProjectRange)
	}
	a := repo.assignments["asg-1"]
	if a.Dates == nil || !a.Dates.Equal(proposed) {
		t.Errorf("expected assignment to get the proposed range, got %v", a.Dates)
	}
}

func TestChangeAssignmentDates_ConstrainAssignment(t *testing.T) {
	repo := newFakeRepository()
	p := seedProject(t, repo, "2024-01-01", "2024-02-29")
	seedAssignment(t, repo, "asg-1", rangePtr(mustRange(t, "2024-01-01", "2024-02-29")))

	surface := &fakeSurface{action: domain.ActionConstrainAssignment}
	coordinator := newCoordinator(repo, surface)

	result, err := coordinator.ChangeAssignmentDates(context.Background(), scheduleuc.ChangeAssignmentDatesInput{
		AssignmentID: "asg-1",
		NewRange:     mustRange(t, "2024-03-01", "2024-03-31"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ProjectRange != nil {
		t.Errorf("expected project range to be untouched, got %v", result.ProjectRange)
	}
	want := mustRange(t, "2024-02-29", "2024-02-29")
	a := repo.assignments["asg-1"]
	if a.Dates == nil || !a.Dates.Equal(want) {
		t.Errorf("expected degenerate range %v, got %v", want, a.Dates)
	}
	if !p.Dates.Equal(mustRange(t, "2024-01-01", "2024-02-29")) {
		t.Errorf("project range changed unexpectedly: %v", p.Dates)
	}
}

func TestChangeAssignmentDates_NotFound(t *testing.T) {
	repo := newFakeRepository()
	seedProject(t, repo, "2024-01-01", "2024-06-30")

	coordinator := newCoordinator(repo, &fakeSurface{})

	_, err := coordinator.ChangeAssignmentDates(context.Background(), scheduleuc.ChangeAssignmentDatesInput{
		AssignmentID: "missing",
		NewRange:     mustRange(t, "2024-02-01", "2024-02-29"),
	})
	if !errors.Is(err, roster.ErrAssignmentNotFound) {
		t.Fatalf("expected ErrAssignmentNotFound, got %v", err)
	}
}
