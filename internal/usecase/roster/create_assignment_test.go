package roster_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"teamflow-roadmap/internal/domain/dates"
	projectdomain "teamflow-roadmap/internal/domain/project"
	"teamflow-roadmap/internal/domain/roster"
	rosteruc "teamflow-roadmap/internal/usecase/roster"
)

type fakeProjectReader struct {
	projects map[string]*projectdomain.Project
}

func (f *fakeProjectReader) FindProjectByID(_ context.Context, id string) (*projectdomain.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, projectdomain.ErrNotFound
	}
	return p, nil
}

type fakeMemberRepo struct {
	members map[string]*roster.TeamMember
}

func (f *fakeMemberRepo) SaveMember(_ context.Context, m *roster.TeamMember) error {
	f.members[m.ID] = m
	return nil
}

func (f *fakeMemberRepo) FindMemberByID(_ context.Context, id string) (*roster.TeamMember, error) {
	m, ok := f.members[id]
	if !ok {
		return nil, roster.ErrMemberNotFound
	}
	return m, nil
}

func (f *fakeMemberRepo) ListMembers(_ context.Context) ([]*roster.TeamMember, error) {
	out := make([]*roster.TeamMember, 0, len(f.members))
	for _, m := range f.members {
		out = append(out, m)
	}
	return out, nil
}

type fakeAssignmentRepo struct {
	saved []*roster.Assignment
}

func (f *fakeAssignmentRepo) SaveAssignment(_ context.Context, a *roster.Assignment) error {
	f.saved = append(f.saved, a)
	return nil
}

func (f *fakeAssignmentRepo) FindAssignmentByID(_ context.Context, id string) (*roster.Assignment, error) {
	for _, a := range f.saved {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, roster.ErrAssignmentNotFound
}

func (f *fakeAssignmentRepo) ListAssignmentsByProject(_ context.Context, projectID string) ([]*roster.Assignment, error) {
	var out []*roster.Assignment
	for _, a := range f.saved {
		if a.ProjectID == projectID {
			out = append(out, a)
		}
	}
	return out, nil
}

func newCreateAssignmentFixture(t *testing.T) (*rosteruc.CreateAssignmentUsecase, *fakeAssignmentRepo) {
	t.Helper()

	r, err := dates.Parse("2024-01-01", "2024-06-30")
	if err != nil {
		t.Fatalf("failed to build project range: %v", err)
	}

	projects := &fakeProjectReader{projects: map[string]*projectdomain.Project{
		"proj-1": {ID: "proj-1", Name: "Website Redesign", Dates: r},
	}}
	members := &fakeMemberRepo{members: map[string]*roster.TeamMember{
		"mem-1": {ID: "mem-1", Name: "Alice"},
	}}
	assignments := &fakeAssignmentRepo{}

	uc := &rosteruc.CreateAssignmentUsecase{
		Assignments: assignments,
		Members:     members,
		Projects:    projects,
	}
	return uc, assignments
}

func TestCreateAssignment(t *testing.T) {
	uc, repo := newCreateAssignmentFixture(t)

	a, err := uc.Execute(context.Background(), rosteruc.CreateAssignmentInput{
		ProjectID:         "proj-1",
		TeamMemberID:      "mem-1",
		PercentAllocation: 80,
		Now:               time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.ID == "" {
		t.Errorf("expected server-assigned id")
	}
	if len(repo.saved) != 1 || repo.saved[0] != a {
		t.Errorf("expected assignment to be persisted, got %+v", repo.saved)
	}
}

func TestCreateAssignment_ProjectNotFound(t *testing.T) {
	uc, repo := newCreateAssignmentFixture(t)

	_, err := uc.Execute(context.Background(), rosteruc.CreateAssignmentInput{
		ProjectID:         "missing",
		TeamMemberID:      "mem-1",
		PercentAllocation: 100,
		Now:               time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, projectdomain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(repo.saved) != 0 {
		t.Errorf("expected no assignment to be persisted, got %+v", repo.saved)
	}
}

func TestCreateAssignment_MemberNotFound(t *testing.T) {
	uc, repo := newCreateAssignmentFixture(t)

	_, err := uc.Execute(context.Background(), rosteruc.CreateAssignmentInput{
		ProjectID:         "proj-1",
		TeamMemberID:      "missing",
		PercentAllocation: 100,
		Now:               time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, roster.ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
	if len(repo.saved) != 0 {
		t.Errorf("expected no assignment to be persisted, got %+v", repo.saved)
	}
}

func TestCreateAssignment_InvalidAllocation(t *testing.T) {
	uc, _ := newCreateAssignmentFixture(t)

	_, err := uc.Execute(context.Background(), rosteruc.CreateAssignmentInput{
		ProjectID:         "proj-1",
		TeamMemberID:      "mem-1",
		PercentAllocation: 0,
		Now:               time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, rosteruc.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
