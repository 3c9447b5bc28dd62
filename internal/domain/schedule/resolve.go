package schedule

import (
	"fmt"

	"teamflow-roadmap/internal/domain/dates"
)

// State は変換の入力となる周辺エンティティの状態。
// 競合検出時点のスナップショットであり、変換はこれを読むだけで書き換えない。
type State struct {
	// CurrentProjectRange はプロジェクトの「変更前」の範囲。
	CurrentProjectRange dates.Range

	// Assignments はプロジェクトに属する全アサインメント。
	Assignments []AssignmentSnapshot

	// Subject はアサインメント変更操作の対象。
	// KindAssignmentOutsideProject の競合でのみ設定される。
	Subject *AssignmentSnapshot
}

// AssignmentRangeUpdate は永続化すべきアサインメント1件の新しい範囲。
type AssignmentRangeUpdate struct {
	AssignmentID      string
	TeamMemberID      string
	PercentAllocation int
	NewRange          dates.Range
}

// Resolution は選択されたアクションが導く最終的な日付の組。
// ProjectRange が nil ならプロジェクト範囲は変更しない。
// 変換自体は永続化を行わない。
type Resolution struct {
	ProjectRange *dates.Range
	Assignments  []AssignmentRangeUpdate
}

// Resolve は競合と選択されたアクションから永続化すべき範囲を計算する純粋関数。
// アクションが競合種別のカタログに存在しない場合は ErrUnknownAction を返す。
func Resolve(c *Conflict, action ActionID, st State) (Resolution, error) {
	switch c.Kind {
	case KindProjectDateChange:
		switch action {
		case ActionUpdateAssignments:
			return resolveUpdateAssignments(c, st), nil
		case ActionKeepCustom:
			r := c.ProjectRange
			return Resolution{ProjectRange: &r}, nil
		}
	case KindAssignmentOutsideProject:
		switch action {
		case ActionExtendProject:
			return resolveExtendProject(c, st), nil
		case ActionConstrainAssignment:
			return resolveConstrainAssignment(c, st), nil
		}
	}

	return Resolution{}, fmt.Errorf("%w: %s for %s", ErrUnknownAction, action, c.Kind)
}

// resolveUpdateAssignments は新しいプロジェクト範囲を採用し、
// 影響を受けるすべてのアサインメントに同じ範囲を伝播させる。
func resolveUpdateAssignments(c *Conflict, st State) Resolution {
	r := c.ProjectRange

	updates := make([]AssignmentRangeUpdate, 0, len(c.Affected))
	for _, aff := range c.Affected {
		updates = append(updates, AssignmentRangeUpdate{
			AssignmentID:      aff.AssignmentID,
			TeamMemberID:      aff.TeamMemberID,
			PercentAllocation: allocationFor(st.Assignments, aff.AssignmentID),
			NewRange:          r,
		})
	}

	return Resolution{ProjectRange: &r, Assignments: updates}
}

// resolveExtendProject はプロジェクト範囲を「現在の範囲・提案されたアサインメント
// 範囲・既存の全アサインメント範囲」の合併まで拡大する。
// 既存範囲を合併に含めるのは、すでに収まっていたアサインメントより
// 狭い範囲へ縮んでしまうのを防ぐため。対象アサインメントには提案範囲を採用する。
func resolveExtendProject(c *Conflict, st State) Resolution {
	ranges := []dates.Range{st.CurrentProjectRange, *c.AssignmentRange}
	for _, a := range st.Assignments {
		if a.Dates != nil {
			ranges = append(ranges, *a.Dates)
		}
	}

	// 少なくとも2つの範囲を渡しているため、ここでエラーは起こり得ない
	union, err := dates.Union(ranges...)
	if err != nil {
		panic(err)
	}

	out := Resolution{ProjectRange: &union}
	if st.Subject != nil {
		out.Assignments = []AssignmentRangeUpdate{{
			AssignmentID:      st.Subject.ID,
			TeamMemberID:      st.Subject.TeamMemberID,
			PercentAllocation: st.Subject.PercentAllocation,
			NewRange:          *c.AssignmentRange,
		}}
	}
	return out
}

// resolveConstrainAssignment は提案されたアサインメント範囲をプロジェクトの
// 現在の範囲へ切り詰める。提案範囲がプロジェクト範囲と交差しない場合、
// Clamp は逆転した範囲を返すため、提案範囲に近い側のプロジェクト境界の
// 1日だけの範囲に潰す。出力は常に Start <= End を満たす。
func resolveConstrainAssignment(c *Conflict, st State) Resolution {
	clamped := dates.Clamp(*c.AssignmentRange, st.CurrentProjectRange)
	if !clamped.Valid() {
		if c.AssignmentRange.Start.After(st.CurrentProjectRange.End) {
			clamped = dates.Range{Start: st.CurrentProjectRange.End, End: st.CurrentProjectRange.End}
		} else {
			clamped = dates.Range{Start: st.CurrentProjectRange.Start, End: st.CurrentProjectRange.Start}
		}
	}

	out := Resolution{}
	if st.Subject != nil {
		out.Assignments = []AssignmentRangeUpdate{{
			AssignmentID:      st.Subject.ID,
			TeamMemberID:      st.Subject.TeamMemberID,
			PercentAllocation: st.Subject.PercentAllocation,
			NewRange:          clamped,
		}}
	}
	return out
}

// allocationFor はスナップショット一覧から該当アサインメントの割り当て率を引く。
func allocationFor(assignments []AssignmentSnapshot, assignmentID string) int {
	for _, a := range assignments {
		if a.ID == assignmentID {
			return a.PercentAllocation
		}
	}
	return 0
}
