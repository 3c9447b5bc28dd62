package roster

import (
	"errors"
	"time"

	"teamflow-roadmap/internal/domain/dates"
)

// Assignment はメンバーのプロジェクトへの期間付きアサインメントを表す。
// Dates が nil の場合、アサインメントは期間を持たず常にプロジェクト全体に従う。
// Dates がプロジェクトの現在の範囲と完全に一致する場合は「自動同期」とみなし、
// プロジェクト範囲の変更に追従させる（AutoSynced 参照）。
type Assignment struct {
	ID                string
	ProjectID         string
	TeamMemberID      string
	PercentAllocation int
	Dates             *dates.Range
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewAssignment は新しいアサインメントを生成する。
// 割り当て率は 1〜100 の範囲でなければならない。
func NewAssignment(id, projectID, teamMemberID string, percentAllocation int, r *dates.Range, now time.Time) (*Assignment, error) {
	if projectID == "" {
		return nil, errors.New("assignment project id must not be empty")
	}

	if teamMemberID == "" {
		return nil, errors.New("assignment team member id must not be empty")
	}

	if percentAllocation < 1 || percentAllocation > 100 {
		return nil, errors.New("percent allocation must be between 1 and 100")
	}

	if r != nil && !r.Valid() {
		return nil, errors.New("assignment start date must not be after end date")
	}

	return &Assignment{
		ID:                id,
		ProjectID:         projectID,
		TeamMemberID:      teamMemberID,
		PercentAllocation: percentAllocation,
		Dates:             r,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// AutoSynced はこのアサインメントがプロジェクト範囲に自動同期しているかを返す。
// 明示的にカスタマイズされていない（＝プロジェクトの現在の範囲と完全一致する）
// アサインメントは、プロジェクト範囲の変更に追従するべきものとして扱う。
func (a *Assignment) AutoSynced(projectRange dates.Range) bool {
	return a.Dates != nil && a.Dates.Equal(projectRange)
}

// ChangeDates はアサインメントの日付範囲を置き換える。
func (a *Assignment) ChangeDates(r dates.Range, now time.Time) error {
	if !r.Valid() {
		return errors.New("assignment start date must not be after end date")
	}

	a.Dates = &r
	a.UpdatedAt = now
	return nil
}
