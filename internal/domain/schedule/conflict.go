package schedule

import (
	"teamflow-roadmap/internal/domain/dates"
	"teamflow-roadmap/internal/domain/project"
)

// ConflictKind は日付競合の種別を表す型。
type ConflictKind string

const (
	// KindProjectDateChange はプロジェクト自身の範囲変更が
	// 1つ以上のアサインメントに影響する競合。
	KindProjectDateChange ConflictKind = "project_date_change"

	// KindAssignmentDateChange は予約済みの種別。
	// 現在の挙動では KindAssignmentOutsideProject と区別されず、生成されることはない。
	KindAssignmentDateChange ConflictKind = "assignment_date_change"

	// KindAssignmentOutsideProject はアサインメントの提案範囲が
	// プロジェクト範囲の外に出る競合。
	KindAssignmentOutsideProject ConflictKind = "assignment_outside_project"
)

// AssignmentSnapshot は検出器に渡すアサインメントのスナップショット。
// メンバー表示名は呼び出し側で解決済みであること。
type AssignmentSnapshot struct {
	ID                string
	TeamMemberID      string
	MemberName        string
	PercentAllocation int
	Dates             *dates.Range
}

// AffectedAssignment は競合の影響を受けるアサインメント1件の説明。
type AffectedAssignment struct {
	AssignmentID string
	TeamMemberID string
	MemberName   string
	CurrentRange dates.Range
}

// Conflict は提案された日付変更を黙って適用できない理由の構造化された説明。
// 検証呼び出しごとに新しく生成され、決定の適用または操作の中止とともに破棄される。
// 永続化されず、独立した同一性も持たない一時的な値。
type Conflict struct {
	Kind        ConflictKind
	ProjectID   string
	ProjectName string

	// ProjectRange は KindProjectDateChange では提案された新しいプロジェクト範囲、
	// KindAssignmentOutsideProject ではプロジェクトの現在の範囲。
	ProjectRange dates.Range

	// AssignmentRange は KindAssignmentOutsideProject における
	// 提案された（範囲外の）アサインメント範囲。それ以外の種別では nil。
	AssignmentRange *dates.Range

	// Affected は影響を受けるアサインメントの一覧。入力順を保持する。
	Affected []AffectedAssignment
}

// DetectProjectRangeChange はプロジェクト範囲の変更提案に対する競合を検出する。
// 影響を受けるのは次のいずれかを満たすアサインメント:
//   - 範囲がプロジェクトの「変更前」の範囲と完全一致する（自動同期）
//   - 範囲が提案された新範囲に収まらない
//
// 該当が1件もなければ nil を返す（競合なし、即時適用してよい）。
// 純粋関数であり、同じ入力は常に同じ値の Conflict を返す。
func DetectProjectRangeChange(p *project.Project, newRange dates.Range, assignments []AssignmentSnapshot) *Conflict {
	var affected []AffectedAssignment
	for _, a := range assignments {
		if a.Dates == nil {
			continue
		}

		autoSynced := a.Dates.Equal(p.Dates)
		outside := !dates.Within(*a.Dates, newRange)

		if autoSynced || outside {
			affected = append(affected, AffectedAssignment{
				AssignmentID: a.ID,
				TeamMemberID: a.TeamMemberID,
				MemberName:   a.MemberName,
				CurrentRange: *a.Dates,
			})
		}
	}

	if len(affected) == 0 {
		return nil
	}

	return &Conflict{
		Kind:         KindProjectDateChange,
		ProjectID:    p.ID,
		ProjectName:  p.Name,
		ProjectRange: newRange,
		Affected:     affected,
	}
}

// DetectAssignmentRangeChange はアサインメント範囲の変更提案に対する競合を検出する。
// 提案範囲がプロジェクトの現在の範囲に収まるなら nil を返す。
// 収まらない場合は KindAssignmentOutsideProject の競合を返す。
// 対象のアサインメントは暗黙に1件なので、影響一覧は持たない。
func DetectAssignmentRangeChange(p *project.Project, proposed dates.Range) *Conflict {
	if dates.Within(proposed, p.Dates) {
		return nil
	}

	r := proposed
	return &Conflict{
		Kind:            KindAssignmentOutsideProject,
		ProjectID:       p.ID,
		ProjectName:     p.Name,
		ProjectRange:    p.Dates,
		AssignmentRange: &r,
	}
}
