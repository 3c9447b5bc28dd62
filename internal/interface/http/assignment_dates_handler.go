package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	scheduleuc "teamflow-roadmap/internal/usecase/schedule"
)

// UpdateAssignmentDatesHandler は PATCH /api/assignments/{id}/dates を処理する
// HTTP ハンドラ。タイムライン上のドラッグ/リサイズ操作がここに届く。
// 競合時のプロトコルは UpdateProjectDatesHandler と同じ。
type UpdateAssignmentDatesHandler struct {
	coordinator     *scheduleuc.Coordinator
	registry        *DecisionRegistry
	decisionTimeout time.Duration
}

// NewUpdateAssignmentDatesHandler は UpdateAssignmentDatesHandler を生成する。
func NewUpdateAssignmentDatesHandler(coordinator *scheduleuc.Coordinator, registry *DecisionRegistry, decisionTimeout time.Duration) *UpdateAssignmentDatesHandler {
	return &UpdateAssignmentDatesHandler{
		coordinator:     coordinator,
		registry:        registry,
		decisionTimeout: decisionTimeout,
	}
}

func (h *UpdateAssignmentDatesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/assignments/")
	id := strings.TrimSuffix(path, "/dates")
	if id == "" || id == path || strings.Contains(id, "/") {
		writeErrorResponse(w, http.StatusBadRequest, "validation error", "invalid assignment id")
		return
	}

	var req dateRangePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid json", err.Error())
		return
	}

	rng, err := req.toRange()
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	in := scheduleuc.ChangeAssignmentDatesInput{AssignmentID: id, NewRange: rng}

	runChangeRequest(w, h.registry, h.decisionTimeout, func(ctx context.Context) (*scheduleuc.ChangeResult, error) {
		return h.coordinator.ChangeAssignmentDates(ctx, in)
	})
}
