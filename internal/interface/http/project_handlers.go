package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	projectdomain "teamflow-roadmap/internal/domain/project"
	projectuc "teamflow-roadmap/internal/usecase/project"
)

// CreateProjectHandler は POST /api/projects を処理する HTTP ハンドラ。
type CreateProjectHandler struct {
	createUC *projectuc.CreateProjectUsecase
	now      func() time.Time
}

// NewCreateProjectHandler は CreateProjectHandler を生成する。
func NewCreateProjectHandler(createUC *projectuc.CreateProjectUsecase, now func() time.Time) *CreateProjectHandler {
	return &CreateProjectHandler{createUC: createUC, now: now}
}

// createProjectRequest は POST /api/projects のリクエストボディ。
type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

func (h *CreateProjectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid json", err.Error())
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeErrorResponse(w, http.StatusBadRequest, "validation error", "project name must not be empty")
		return
	}

	rng, err := dateRangePayload{StartDate: req.StartDate, EndDate: req.EndDate}.toRange()
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	p, err := h.createUC.Execute(r.Context(), projectuc.CreateProjectInput{
		Name:        name,
		Description: req.Description,
		Dates:       rng,
		Now:         h.now(),
	})
	if err != nil {
		if errors.Is(err, projectuc.ErrInvalidInput) {
			writeErrorResponse(w, http.StatusBadRequest, "validation error", err.Error())
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, toProjectResponse(p))
}

// ListProjectsHandler は GET /api/projects を処理する HTTP ハンドラ。
type ListProjectsHandler struct {
	listUC *projectuc.ListProjectsUsecase
}

// NewListProjectsHandler は ListProjectsHandler を生成する。
func NewListProjectsHandler(listUC *projectuc.ListProjectsUsecase) *ListProjectsHandler {
	return &ListProjectsHandler{listUC: listUC}
}

func (h *ListProjectsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	projects, err := h.listUC.Execute(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	out := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, toProjectResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetProjectHandler は GET /api/projects/{id} を処理する HTTP ハンドラ。
type GetProjectHandler struct {
	getUC *projectuc.GetProjectUsecase
}

// NewGetProjectHandler は GetProjectHandler を生成する。
func NewGetProjectHandler(getUC *projectuc.GetProjectUsecase) *GetProjectHandler {
	return &GetProjectHandler{getUC: getUC}
}

// ServeHTTP は /api/projects/{id} 形式のパスを前提とする。
func (h *GetProjectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/projects/")
	if id == "" || strings.Contains(id, "/") {
		writeErrorResponse(w, http.StatusBadRequest, "validation error", "invalid project id")
		return
	}

	p, err := h.getUC.Execute(r.Context(), id)
	if err != nil {
		if errors.Is(err, projectdomain.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toProjectResponse(p))
}
