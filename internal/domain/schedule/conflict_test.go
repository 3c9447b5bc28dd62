package schedule_test

import (
	"testing"
	"time"

	"teamflow-roadmap/internal/domain/dates"
	"teamflow-roadmap/internal/domain/project"
	"teamflow-roadmap/internal/domain/schedule"
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

func newProject(t *testing.T, start, end string) *project.Project {
	t.Helper()
	p, err := project.NewProject("proj-1", "Website Redesign", "", mustRange(t, start, end), time.Now())
	if err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	return p
}

func TestDetectProjectRangeChange_AutoSyncedAssignment(t *testing.T) {
	p := newProject(t, "2024-01-01", "2024-06-30")
	assignments := []schedule.AssignmentSnapshot{
		{
			ID:                "asg-1",
			TeamMemberID:      "mem-1",
			MemberName:        "Alice",
			PercentAllocation: 100,
			Dates:             rangePtr(p.Dates),
		},
	}

	// 自動同期アサインメントは、新範囲に収まる場合でも影響を受ける
	newRange := mustRange(t, "2024-01-01", "2024-12-31")
	c := schedule.DetectProjectRangeChange(p, newRange, assignments)
	if c == nil {
		t.Fatalf("expected conflict for auto-synced assignment, got nil")
	}
	if c.Kind != schedule.KindProjectDateChange {
		t.Errorf("unexpected conflict kind: %s", c.Kind)
	}
	if !c.ProjectRange.Equal(newRange) {
		t.Errorf("expected proposed range in conflict, got %v", c.ProjectRange)
	}
	if len(c.Affected) != 1 || c.Affected[0].AssignmentID != "asg-1" {
		t.Fatalf("unexpected affected list: %+v", c.Affected)
	}
	if c.Affected[0].MemberName != "Alice" {
		t.Errorf("expected member name to carry over, got %q", c.Affected[0].MemberName)
	}
}

func TestDetectProjectRangeChange_CustomAssignmentInsideNewRange(t *testing.T) {
	p := newProject(t, "2024-01-01", "2024-06-30")
	assignments := []schedule.AssignmentSnapshot{
		{
			ID:    "asg-1",
			Dates: rangePtr(mustRange(t, "2024-03-01", "2024-03-31")),
		},
	}

	// カスタム範囲が新範囲に収まるなら競合はない
	newRange := mustRange(t, "2024-02-01", "2024-12-31")
	if c := schedule.DetectProjectRangeChange(p, newRange, assignments); c != nil {
		t.Fatalf("expected no conflict, got %+v", c)
	}
}

func TestDetectProjectRangeChange_CustomAssignmentOutsideNewRange(t *testing.T) {
	p := newProject(t, "2024-01-01", "2024-06-30")
	assignments := []schedule.AssignmentSnapshot{
		{
			ID:    "asg-1",
			Dates: rangePtr(mustRange(t, "2024-05-01", "2024-06-30")),
		},
	}

	newRange := mustRange(t, "2024-01-01", "2024-04-30")
	c := schedule.DetectProjectRangeChange(p, newRange, assignments)
	if c == nil {
		t.Fatalf("expected conflict for assignment outside new range, got nil")
	}
	if len(c.Affected) != 1 {
		t.Fatalf("unexpected affected list: %+v", c.Affected)
	}
}

func TestDetectProjectRangeChange_SkipsNilDates(t *testing.T) {
	p := newProject(t, "2024-01-01", "2024-06-30")
	assignments := []schedule.AssignmentSnapshot{
		{ID: "asg-1", Dates: nil},
	}

	newRange := mustRange(t, "2024-02-01", "2024-02-29")
	if c := schedule.DetectProjectRangeChange(p, newRange, assignments); c != nil {
		t.Fatalf("expected no conflict for assignment without dates, got %+v", c)
	}
}

func TestDetectProjectRangeChange_PreservesInputOrder(t *testing.T) {
	p := newProject(t, "2024-01-01", "2024-06-30")
	assignments := []schedule.AssignmentSnapshot{
		{ID: "asg-3", Dates: rangePtr(p.Dates)},
		{ID: "asg-1", Dates: rangePtr(p.Dates)},
		{ID: "asg-2", Dates: rangePtr(mustRange(t, "2024-02-01", "2024-02-15"))},
	}

	newRange := mustRange(t, "2024-02-01", "2024-02-29")
	c := schedule.DetectProjectRangeChange(p, newRange, assignments)
	if c == nil {
		t.Fatalf("expected conflict, got nil")
	}

	want := []string{"asg-3", "asg-1"}
	if len(c.Affected) != len(want) {
		t.Fatalf("unexpected affected count: %+v", c.Affected)
	}
	for i, id := range want {
		if c.Affected[i].AssignmentID != id {
			t.Errorf("affected[%d] = %s, want %s", i, c.Affected[i].AssignmentID, id)
		}
	}
}

func TestDetectAssignmentRangeChange_WithinProject(t *testing.T) {
	p := newProject(t, "2024-01-01", "2024-06-30")
	proposed := mustRange(t, "2024-02-01", "2024-02-29")

	if c := schedule.DetectAssignmentRangeChange(p, proposed); c != nil {
		t.Fatalf("expected no conflict, got %+v", c)
	}
}

func TestDetectAssignmentRangeChange_OutsideProject(t *testing.T) {
	p := newProject(t, "2024-01-01", "2024-02-29")
	proposed := mustRange(t, "2024-03-01", "2024-03-31")

	c := schedule.DetectAssignmentRangeChange(p, proposed)
	if c == nil {
		t.Fatalf("expected conflict, got nil")
	}
	if c.Kind != schedule.KindAssignmentOutsideProject {
		t.Errorf("unexpected conflict kind: %s", c.Kind)
	}
	if !c.ProjectRange.Equal(p.Dates) {
		t.Errorf("expected current project range in conflict, got %v", c.ProjectRange)
	}
	if c.AssignmentRange == nil || !c.AssignmentRange.Equal(proposed) {
		t.Errorf("expected proposed assignment range in conflict, got %v", c.AssignmentRange)
	}
}
