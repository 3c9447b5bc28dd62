package http

import (
	"encoding/json"
	"net/http"
	"time"

	"teamflow-roadmap/internal/domain/dates"
	projectdomain "teamflow-roadmap/internal/domain/project"
	"teamflow-roadmap/internal/domain/roster"
	scheduleuc "teamflow-roadmap/internal/usecase/schedule"
)

// dateRangePayload は日付範囲のリクエスト/レスポンス表現。
// 境界では日付を "YYYY-MM-DD" の文字列として受け渡す。
type dateRangePayload struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// toRange はペイロードをパースして Range に変換する。
func (p dateRangePayload) toRange() (dates.Range, error) {
	return dates.Parse(p.StartDate, p.EndDate)
}

func rangePayload(r dates.Range) dateRangePayload {
	return dateRangePayload{
		StartDate: r.Start.Format(dates.Layout),
		EndDate:   r.End.Format(dates.Layout),
	}
}

func optionalRangePayload(r *dates.Range) *dateRangePayload {
	if r == nil {
		return nil
	}
	p := rangePayload(*r)
	return &p
}

// projectResponse はプロジェクトのレスポンス用構造体。
type projectResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartDate   string    `json:"startDate"`
	EndDate     string    `json:"endDate"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toProjectResponse(p *projectdomain.Project) projectResponse {
	return projectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		StartDate:   p.Dates.Start.Format(dates.Layout),
		EndDate:     p.Dates.End.Format(dates.Layout),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// assignmentResponse はアサインメントのレスポンス用構造体。
type assignmentResponse struct {
	ID                string            `json:"id"`
	ProjectID         string            `json:"projectId"`
	TeamMemberID      string            `json:"teamMemberId"`
	PercentAllocation int               `json:"percentAllocation"`
	Dates             *dateRangePayload `json:"dates"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

func toAssignmentResponse(a *roster.Assignment) assignmentResponse {
	return assignmentResponse{
		ID:                a.ID,
		ProjectID:         a.ProjectID,
		TeamMemberID:      a.TeamMemberID,
		PercentAllocation: a.PercentAllocation,
		Dates:             optionalRangePayload(a.Dates),
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

// memberResponse はチームメンバーのレスポンス用構造体。
type memberResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toMemberResponse(m *roster.TeamMember) memberResponse {
	return memberResponse{
		ID:        m.ID,
		Name:      m.Name,
		Role:      m.Role,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// affectedAssignmentPayload は競合の影響を受けるアサインメント1件の表現。
type affectedAssignmentPayload struct {
	MemberName string `json:"memberName"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
}

// conflictPayload は競合の構造化された説明の表現。
type conflictPayload struct {
	Kind                string                      `json:"kind"`
	ProjectName         string                      `json:"projectName"`
	ProjectRange        dateRangePayload            `json:"projectRange"`
	AssignmentRange     *dateRangePayload           `json:"assignmentRange,omitempty"`
	AffectedAssignments []affectedAssignmentPayload `json:"affectedAssignments"`
}

// actionPayload は解決アクション1件の表現。
type actionPayload struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// conflictResponse は 409 レスポンスのボディ。
type conflictResponse struct {
	ConflictID string          `json:"conflictId"`
	Conflict   conflictPayload `json:"conflict"`
	Actions    []actionPayload `json:"actions"`
}

func toConflictResponse(p PendingConflict) conflictResponse {
	c := p.Conflict

	affected := make([]affectedAssignmentPayload, 0, len(c.Affected))
	for _, a := range c.Affected {
		affected = append(affected, affectedAssignmentPayload{
			MemberName: a.MemberName,
			StartDate:  a.CurrentRange.Start.Format(dates.Layout),
			EndDate:    a.CurrentRange.End.Format(dates.Layout),
		})
	}

	actions := make([]actionPayload, 0, len(p.Actions))
	for _, a := range p.Actions {
		actions = append(actions, actionPayload{
			ID:          string(a.ID),
			Label:       a.Label,
			Description: a.Description,
			Severity:    string(a.Severity),
		})
	}

	return conflictResponse{
		ConflictID: p.ID,
		Conflict: conflictPayload{
			Kind:                string(c.Kind),
			ProjectName:         c.ProjectName,
			ProjectRange:        rangePayload(c.ProjectRange),
			AssignmentRange:     optionalRangePayload(c.AssignmentRange),
			AffectedAssignments: affected,
		},
		Actions: actions,
	}
}

// changeResultResponse は日付変更操作の結果のレスポンス用構造体。
type changeResultResponse struct {
	Applied           bool                       `json:"applied"`
	Action            string                     `json:"action,omitempty"`
	ProjectRange      *dateRangePayload          `json:"projectRange,omitempty"`
	AssignmentUpdates []assignmentUpdateResponse `json:"assignmentUpdates,omitempty"`
}

type assignmentUpdateResponse struct {
	AssignmentID      string `json:"assignmentId"`
	TeamMemberID      string `json:"teamMemberId"`
	PercentAllocation int    `json:"percentAllocation"`
	StartDate         string `json:"startDate"`
	EndDate           string `json:"endDate"`
}

func toChangeResultResponse(res *scheduleuc.ChangeResult) changeResultResponse {
	out := changeResultResponse{
		Applied:      true,
		Action:       string(res.Action),
		ProjectRange: optionalRangePayload(res.ProjectRange),
	}
	for _, u := range res.AssignmentUpdates {
		out.AssignmentUpdates = append(out.AssignmentUpdates, assignmentUpdateResponse{
			AssignmentID:      u.AssignmentID,
			TeamMemberID:      u.TeamMemberID,
			PercentAllocation: u.PercentAllocation,
			StartDate:         u.Dates.Start.Format(dates.Layout),
			EndDate:           u.Dates.End.Format(dates.Layout),
		})
	}
	return out
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// writeErrorResponse はエラーレスポンスを書き込む。
func writeErrorResponse(w http.ResponseWriter, statusCode int, errorMsg, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	resp := errorResponse{
		Error:  errorMsg,
		Detail: detail,
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON は任意のレスポンスボディを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
