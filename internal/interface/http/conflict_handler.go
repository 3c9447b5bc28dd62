package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	domain "teamflow-roadmap/internal/domain/schedule"
)

// ConflictHandler は /api/conflicts 配下を処理する HTTP ハンドラ。
//
//   - GET    /api/conflicts                — 保留中の競合（あれば）を返す
//   - POST   /api/conflicts/{id}/resolution — アクションを1つ選んで解決する
//   - DELETE /api/conflicts/{id}            — 選択なしで閉じる（キャンセル）
type ConflictHandler struct {
	registry *DecisionRegistry
}

// NewConflictHandler は ConflictHandler を生成する。
func NewConflictHandler(registry *DecisionRegistry) *ConflictHandler {
	return &ConflictHandler{registry: registry}
}

// resolveRequest は POST /api/conflicts/{id}/resolution のリクエストボディ。
type resolveRequest struct {
	Action string `json:"action"`
}

func (h *ConflictHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/conflicts")
	path = strings.TrimPrefix(path, "/")

	// GET /api/conflicts
	if path == "" {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleGet(w)
		return
	}

	parts := strings.Split(path, "/")
	id := parts[0]

	switch {
	case len(parts) == 2 && parts[1] == "resolution" && r.Method == http.MethodPost:
		h.handleResolve(w, r, id)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		h.handleCancel(w, r, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *ConflictHandler) handleGet(w http.ResponseWriter) {
	pending := h.registry.Pending()
	if pending == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, toConflictResponse(*pending))
}

func (h *ConflictHandler) handleResolve(w http.ResponseWriter, r *http.Request, id string) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid json", err.Error())
		return
	}
	if req.Action == "" {
		writeErrorResponse(w, http.StatusBadRequest, "validation error", "action must be provided")
		return
	}

	result, err := h.registry.Resolve(r.Context(), id, domain.ActionID(req.Action))
	if err != nil {
		switch {
		case errors.Is(err, ErrNoPendingConflict):
			w.WriteHeader(http.StatusNotFound)
		case errors.Is(err, ErrActionNotOffered):
			writeErrorResponse(w, http.StatusBadRequest, "validation error", err.Error())
		default:
			// 保留されていた操作の適用が失敗した場合
			writeChangeOutcome(w, nil, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, toChangeResultResponse(result))
}

func (h *ConflictHandler) handleCancel(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.registry.Cancel(r.Context(), id); err != nil {
		if errors.Is(err, ErrNoPendingConflict) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	// ユーザー起因の no-op。何も永続化されていない。
	w.WriteHeader(http.StatusNoContent)
}
