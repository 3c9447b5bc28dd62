package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	projectdomain "teamflow-roadmap/internal/domain/project"
	"teamflow-roadmap/internal/domain/roster"
	scheduleuc "teamflow-roadmap/internal/usecase/schedule"
)

// UpdateProjectDatesHandler は PATCH /api/projects/{id}/dates を処理する HTTP ハンドラ。
//
// 責務:
//   - リクエストボディの startDate / endDate（YYYY-MM-DD）をパースする
//   - コーディネータにプロジェクト日付変更要求を渡す
//   - 競合なしで適用された場合は 200 と適用結果を返す
//   - 競合が検出された場合は 409 と {conflictId, conflict, actions} を返し、
//     元の操作は解決エンドポイントからの決定を待って保留されたままになる
type UpdateProjectDatesHandler struct {
	coordinator *scheduleuc.Coordinator
	registry    *DecisionRegistry

	// decisionTimeout は保留された操作が決定を待つ最長時間。0 なら無制限。
	decisionTimeout time.Duration
}

// NewUpdateProjectDatesHandler は UpdateProjectDatesHandler を生成する。
func NewUpdateProjectDatesHandler(coordinator *scheduleuc.Coordinator, registry *DecisionRegistry, decisionTimeout time.Duration) *UpdateProjectDatesHandler {
	return &UpdateProjectDatesHandler{
		coordinator:     coordinator,
		registry:        registry,
		decisionTimeout: decisionTimeout,
	}
}

// ServeHTTP は /api/projects/{id}/dates 形式のパスを前提とする
// （ルーティングは serve コマンド側で行う）。
func (h *UpdateProjectDatesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/projects/")
	id := strings.TrimSuffix(path, "/dates")
	if id == "" || id == path || strings.Contains(id, "/") {
		writeErrorResponse(w, http.StatusBadRequest, "validation error", "invalid project id")
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

	in := scheduleuc.ChangeProjectDatesInput{ProjectID: id, NewRange: rng}

	runChangeRequest(w, h.registry, h.decisionTimeout, func(ctx context.Context) (*scheduleuc.ChangeResult, error) {
		return h.coordinator.ChangeProjectDates(ctx, in)
	})
}

// runChangeRequest は変更要求を別ゴルーチンで実行し、「操作の完了」と
// 「競合の公示」のどちらか先に起きた方でレスポンスを返す。
// 公示は要求ごとのチャネルをコンテキストで引き回して受け取るため、
// 結果待ちの別要求が他人の競合を受け取ることはない。
// 競合が公示された場合は 409 を返し、保留された操作の完了結果を
// レジストリへ転送するゴルーチンを残す。
func runChangeRequest(w http.ResponseWriter, registry *DecisionRegistry, decisionTimeout time.Duration, op func(context.Context) (*scheduleuc.ChangeResult, error)) {
	// 409 を返したあとも操作は決定待ちで生き続けるため、
	// リクエストのコンテキストではなく独立したコンテキストで実行する。
	ctx := context.Background()
	var cancel context.CancelFunc = func() {}
	if decisionTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, decisionTimeout)
	}

	announceCh := make(chan PendingConflict, 1)
	ctx = withAnnounce(ctx, announceCh)

	resultCh := make(chan opOutcome, 1)
	go func() {
		res, err := op(ctx)
		resultCh <- opOutcome{result: res, err: err}
	}()

	select {
	case o := <-resultCh:
		cancel()
		writeChangeOutcome(w, o.result, o.err)
	case pending := <-announceCh:
		// 操作は Confirm でブロックしたまま。完了結果は解決側へ転送する。
		go func() {
			o := <-resultCh
			cancel()
			registry.finish(pending.ID, o.result, o.err)
		}()
		writeJSON(w, http.StatusConflict, toConflictResponse(pending))
	}
}

// writeChangeOutcome は変更操作の結果をステータスコードへ変換して書き込む。
func writeChangeOutcome(w http.ResponseWriter, res *scheduleuc.ChangeResult, err error) {
	if err != nil {
		switch {
		case errors.Is(err, projectdomain.ErrNotFound), errors.Is(err, roster.ErrAssignmentNotFound):
			w.WriteHeader(http.StatusNotFound)
		case errors.Is(err, scheduleuc.ErrDecisionPending):
			writeErrorResponse(w, http.StatusConflict, "decision pending", err.Error())
		case errors.Is(err, scheduleuc.ErrInvalidInput):
			writeErrorResponse(w, http.StatusBadRequest, "validation error", err.Error())
		case errors.Is(err, scheduleuc.ErrPersistenceFailed):
			writeErrorResponse(w, http.StatusInternalServerError, "failed to update dates", err.Error())
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, toChangeResultResponse(res))
}
