package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"teamflow-roadmap/internal/domain/dates"
	projectdomain "teamflow-roadmap/internal/domain/project"
	"teamflow-roadmap/internal/domain/roster"
	projectuc "teamflow-roadmap/internal/usecase/project"
	rosteruc "teamflow-roadmap/internal/usecase/roster"
)

// ProjectAssignmentsHandler は /api/projects/{id}/assignments を処理する
// HTTP ハンドラ（GET で一覧、POST で作成）。
type ProjectAssignmentsHandler struct {
	createUC *rosteruc.CreateAssignmentUsecase
	listUC   *rosteruc.ListAssignmentsByProjectUsecase
	getProj  *projectuc.GetProjectUsecase
	now      func() time.Time
}

// NewProjectAssignmentsHandler は ProjectAssignmentsHandler を生成する。
func NewProjectAssignmentsHandler(
	createUC *rosteruc.CreateAssignmentUsecase,
	listUC *rosteruc.ListAssignmentsByProjectUsecase,
	getProj *projectuc.GetProjectUsecase,
	now func() time.Time,
) *ProjectAssignmentsHandler {
	return &ProjectAssignmentsHandler{
		createUC: createUC,
		listUC:   listUC,
		getProj:  getProj,
		now:      now,
	}
}

// createAssignmentRequest は POST /api/projects/{id}/assignments のリクエストボディ。
// startDate / endDate を省略するとプロジェクト範囲に自動同期するアサインメントになる。
type createAssignmentRequest struct {
	TeamMemberID      string  `json:"teamMemberId"`
	PercentAllocation int     `json:"percentAllocation"`
	StartDate         *string `json:"startDate"`
	EndDate           *string `json:"endDate"`
}

// ServeHTTP は /api/projects/{id}/assignments 形式のパスを前提とする。
func (h *ProjectAssignmentsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/projects/")
	projectID := strings.TrimSuffix(path, "/assignments")
	if projectID == "" || projectID == path || strings.Contains(projectID, "/") {
		writeErrorResponse(w, http.StatusBadRequest, "validation error", "invalid project id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r, projectID)
	case http.MethodPost:
		h.handleCreate(w, r, projectID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *ProjectAssignmentsHandler) handleList(w http.ResponseWriter, r *http.Request, projectID string) {
	assignments, err := h.listUC.Execute(r.Context(), projectID)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	out := make([]assignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, toAssignmentResponse(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ProjectAssignmentsHandler) handleCreate(w http.ResponseWriter, r *http.Request, projectID string) {
	var req createAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid json", err.Error())
		return
	}

	// 親プロジェクトの存在確認（日付省略時の自動同期範囲にも使う）
	p, err := h.getProj.Execute(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, projectdomain.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	var rng *dates.Range
	switch {
	case req.StartDate != nil && req.EndDate != nil:
		parsed, err := dates.Parse(*req.StartDate, *req.EndDate)
		if err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "validation error", err.Error())
			return
		}
		rng = &parsed
	case req.StartDate == nil && req.EndDate == nil:
		// 日付省略時はプロジェクト範囲をそのまま採用する（自動同期）
		sync := p.Dates
		rng = &sync
	default:
		writeErrorResponse(w, http.StatusBadRequest, "validation error", "startDate and endDate must be provided together")
		return
	}

	a, err := h.createUC.Execute(r.Context(), rosteruc.CreateAssignmentInput{
		ProjectID:         projectID,
		TeamMemberID:      req.TeamMemberID,
		PercentAllocation: req.PercentAllocation,
		Dates:             rng,
		Now:               h.now(),
	})
	if err != nil {
		switch {
		case errors.Is(err, projectdomain.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
		case errors.Is(err, roster.ErrMemberNotFound):
			writeErrorResponse(w, http.StatusBadRequest, "validation error", "team member does not exist")
		case errors.Is(err, rosteruc.ErrInvalidInput):
			writeErrorResponse(w, http.StatusBadRequest, "validation error", err.Error())
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, toAssignmentResponse(a))
}

// MembersHandler は /api/members を処理する HTTP ハンドラ（GET で一覧、POST で作成）。
type MembersHandler struct {
	createUC *rosteruc.CreateMemberUsecase
	listUC   *rosteruc.ListMembersUsecase
	now      func() time.Time
}

// NewMembersHandler は MembersHandler を生成する。
func NewMembersHandler(createUC *rosteruc.CreateMemberUsecase, listUC *rosteruc.ListMembersUsecase, now func() time.Time) *MembersHandler {
	return &MembersHandler{createUC: createUC, listUC: listUC, now: now}
}

// createMemberRequest は POST /api/members のリクエストボディ。
type createMemberRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

func (h *MembersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		members, err := h.listUC.Execute(r.Context())
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		out := make([]memberResponse, 0, len(members))
		for _, m := range members {
			out = append(out, toMemberResponse(m))
		}
		writeJSON(w, http.StatusOK, out)

	case http.MethodPost:
		var req createMemberRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "invalid json", err.Error())
			return
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			writeErrorResponse(w, http.StatusBadRequest, "validation error", "member name must not be empty")
			return
		}

		m, err := h.createUC.Execute(r.Context(), rosteruc.CreateMemberInput{
			Name: name,
			Role: req.Role,
			Now:  h.now(),
		})
		if err != nil {
			if errors.Is(err, rosteruc.ErrInvalidInput) {
				writeErrorResponse(w, http.StatusBadRequest, "validation error", err.Error())
				return
			}
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, toMemberResponse(m))

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
