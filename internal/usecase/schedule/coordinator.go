package schedule

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"teamflow-roadmap/internal/domain/dates"
	projectdomain "teamflow-roadmap/internal/domain/project"
	"teamflow-roadmap/internal/domain/roster"
	domain "teamflow-roadmap/internal/domain/schedule"
)

// ProjectReader はプロジェクトの取得を担当する抽象。
type ProjectReader interface {
	FindProjectByID(ctx context.Context, id string) (*projectdomain.Project, error)
}

// AssignmentReader はアサインメントの取得を担当する抽象。
type AssignmentReader interface {
	FindAssignmentByID(ctx context.Context, id string) (*roster.Assignment, error)
	ListAssignmentsByProject(ctx context.Context, projectID string) ([]*roster.Assignment, error)
}

// MemberReader はメンバー表示名の解決を担当する抽象。
type MemberReader interface {
	FindMemberByID(ctx context.Context, id string) (*roster.TeamMember, error)
}

// AssignmentDates は一括更新用のアサインメント日付1件。
type AssignmentDates struct {
	AssignmentID      string
	TeamMemberID      string
	PercentAllocation int
	Dates             dates.Range
}

// ProjectWriter はプロジェクト範囲の永続化コールバック。
// 冪等な upsert であることが期待される。再試行はしない。
type ProjectWriter interface {
	UpdateProjectDates(ctx context.Context, projectID string, r dates.Range) error
}

// AssignmentWriter はアサインメント範囲の一括永続化コールバック。
// アサインメント範囲が変化した場合にのみ呼ばれる。
type AssignmentWriter interface {
	UpdateProjectAssignments(ctx context.Context, projectID string, updates []AssignmentDates) error
}

// DecisionSurface は競合をユーザーに提示し、1つのアクション選択を待つ抽象。
// Confirm は選択が届くまでブロックする。選択なしで閉じられた場合は
// ErrCancelled を返すこと。ブロックしている Confirm 呼び出しそのものが
// 「ちょうど一度だけ完了する deferred」に相当する。
type DecisionSurface interface {
	Confirm(ctx context.Context, c *domain.Conflict, actions []domain.ResolutionAction) (domain.ActionID, error)
}

// ChangeResult は日付変更操作の結果。
type ChangeResult struct {
	// Conflicted は競合が検出され、ユーザーの決定を経たかどうか。
	Conflicted bool

	// Action は選択されたアクション。競合がなかった場合は空。
	Action domain.ActionID

	// ProjectRange は永続化されたプロジェクト範囲。変更なしなら nil。
	ProjectRange *dates.Range

	// AssignmentUpdates は永続化されたアサインメント範囲の一覧。
	AssignmentUpdates []AssignmentDates
}

// Coordinator は競合の検出から解決までを調停するユースケース。
//
// 状態遷移: Idle → Detecting → (AutoApplied | AwaitingDecision) → Applying → Idle。
// 保留中の競合スロットは1つだけ持つ。決定待ちの間に届いた別の変更要求は
// ErrDecisionPending で拒否する（黙った上書きはしない）。
// 永続化コールバックは at-most-once で、失敗時は ErrPersistenceFailed を
// ラップして返し、部分適用の巻き戻しは行わない（トランザクション境界は
// 永続化側の責務）。
type Coordinator struct {
	Projects    ProjectReader
	Assignments AssignmentReader
	Members     MemberReader

	ProjectWriter    ProjectWriter
	AssignmentWriter AssignmentWriter

	Surface DecisionSurface
	Logger  *zap.Logger

	mu   sync.Mutex
	busy bool
}

// ChangeProjectDatesInput はプロジェクト日付変更要求の入力。
type ChangeProjectDatesInput struct {
	ProjectID string
	NewRange  dates.Range
}

// ChangeAssignmentDatesInput はアサインメント日付変更要求の入力。
type ChangeAssignmentDatesInput struct {
	AssignmentID string
	NewRange     dates.Range
}

// ChangeProjectDates はプロジェクト範囲の変更要求を処理する。
// 競合がなければ即座に永続化し、あれば確認画面での決定を待ってから
// 選択されたアクションに従って最終的な日付を計算・永続化する。
func (c *Coordinator) ChangeProjectDates(ctx context.Context, in ChangeProjectDatesInput) (*ChangeResult, error) {
	if !in.NewRange.Valid() {
		return nil, fmt.Errorf("%w: start date must not be after end date", ErrInvalidInput)
	}

	if err := c.acquire(); err != nil {
		return nil, err
	}
	defer c.release()

	p, err := c.Projects.FindProjectByID(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}

	snapshots, err := c.snapshotAssignments(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}

	conflict := domain.DetectProjectRangeChange(p, in.NewRange, snapshots)
	if conflict == nil {
		// 競合なし: 提案された範囲をそのまま適用する
		if err := c.ProjectWriter.UpdateProjectDates(ctx, p.ID, in.NewRange); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
		}
		r := in.NewRange
		return &ChangeResult{ProjectRange: &r}, nil
	}

	st := domain.State{
		CurrentProjectRange: p.Dates,
		Assignments:         snapshots,
	}

	return c.awaitAndApply(ctx, p.ID, conflict, st)
}

// ChangeAssignmentDates はアサインメント範囲の変更要求を処理する。
func (c *Coordinator) ChangeAssignmentDates(ctx context.Context, in ChangeAssignmentDatesInput) (*ChangeResult, error) {
	if !in.NewRange.Valid() {
		return nil, fmt.Errorf("%w: start date must not be after end date", ErrInvalidInput)
	}

	if err := c.acquire(); err != nil {
		return nil, err
	}
	defer c.release()

	a, err := c.Assignments.FindAssignmentByID(ctx, in.AssignmentID)
	if err != nil {
		return nil, err
	}

	p, err := c.Projects.FindProjectByID(ctx, a.ProjectID)
	if err != nil {
		return nil, err
	}

	subject, err := c.snapshotAssignment(ctx, a)
	if err != nil {
		return nil, err
	}

	conflict := domain.DetectAssignmentRangeChange(p, in.NewRange)
	if conflict == nil {
		// 競合なし: 対象アサインメントだけを更新する
		update := AssignmentDates{
			AssignmentID:      a.ID,
			TeamMemberID:      a.TeamMemberID,
			PercentAllocation: a.PercentAllocation,
			Dates:             in.NewRange,
		}
		if err := c.AssignmentWriter.UpdateProjectAssignments(ctx, p.ID, []AssignmentDates{update}); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
		}
		return &ChangeResult{AssignmentUpdates: []AssignmentDates{update}}, nil
	}

	snapshots, err := c.snapshotAssignments(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	st := domain.State{
		CurrentProjectRange: p.Dates,
		Assignments:         snapshots,
		Subject:             &subject,
	}

	return c.awaitAndApply(ctx, p.ID, conflict, st)
}

// awaitAndApply は確認画面での決定を待ち、選択されたアクションを適用する。
func (c *Coordinator) awaitAndApply(ctx context.Context, projectID string, conflict *domain.Conflict, st domain.State) (*ChangeResult, error) {
	actions := domain.ActionsFor(conflict.Kind)

	if c.Logger != nil {
		c.Logger.Info("date conflict detected, awaiting decision",
			zap.String("projectId", projectID),
			zap.String("kind", string(conflict.Kind)),
			zap.Int("affected", len(conflict.Affected)),
		)
	}

	action, err := c.Surface.Confirm(ctx, conflict, actions)
	if err != nil {
		// 選択なしで閉じられた場合は何も永続化せずに中止する
		return nil, err
	}

	resolution, err := domain.Resolve(conflict, action, st)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	result := &ChangeResult{
		Conflicted: true,
		Action:     action,
	}

	if resolution.ProjectRange != nil {
		if err := c.ProjectWriter.UpdateProjectDates(ctx, projectID, *resolution.ProjectRange); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
		}
		result.ProjectRange = resolution.ProjectRange
	}

	if len(resolution.Assignments) > 0 {
		updates := make([]AssignmentDates, 0, len(resolution.Assignments))
		for _, u := range resolution.Assignments {
			updates = append(updates, AssignmentDates{
				AssignmentID:      u.AssignmentID,
				TeamMemberID:      u.TeamMemberID,
				PercentAllocation: u.PercentAllocation,
				Dates:             u.NewRange,
			})
		}
		if err := c.AssignmentWriter.UpdateProjectAssignments(ctx, projectID, updates); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
		}
		result.AssignmentUpdates = updates
	}

	if c.Logger != nil {
		c.Logger.Info("date conflict resolved",
			zap.String("projectId", projectID),
			zap.String("action", string(action)),
			zap.Int("assignmentUpdates", len(result.AssignmentUpdates)),
		)
	}

	return result, nil
}

// snapshotAssignments はプロジェクトの全アサインメントのスナップショットを
// メンバー表示名を解決した上で構築する。
func (c *Coordinator) snapshotAssignments(ctx context.Context, projectID string) ([]domain.AssignmentSnapshot, error) {
	assignments, err := c.Assignments.ListAssignmentsByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.AssignmentSnapshot, 0, len(assignments))
	for _, a := range assignments {
		snap, err := c.snapshotAssignment(ctx, a)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

func (c *Coordinator) snapshotAssignment(ctx context.Context, a *roster.Assignment) (domain.AssignmentSnapshot, error) {
	name := ""
	if c.Members != nil {
		m, err := c.Members.FindMemberByID(ctx, a.TeamMemberID)
		if err == nil {
			name = m.Name
		}
		// メンバーが見つからない場合も競合表示は成立するため、名前は空のまま続行する
	}

	return domain.AssignmentSnapshot{
		ID:                a.ID,
		TeamMemberID:      a.TeamMemberID,
		MemberName:        name,
		PercentAllocation: a.PercentAllocation,
		Dates:             a.Dates,
	}, nil
}

// acquire は保留スロットを確保する。すでに別の操作が進行中なら
// ErrDecisionPending を返す。
func (c *Coordinator) acquire() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrDecisionPending
	}
	c.busy = true
	return nil
}

func (c *Coordinator) release() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}
