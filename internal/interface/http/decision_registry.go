package http

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	domain "teamflow-roadmap/internal/domain/schedule"
	scheduleuc "teamflow-roadmap/internal/usecase/schedule"
)

// Sentinel errors used by the decision registry.
var (
	// ErrNoPendingConflict は指定 ID の保留中競合が存在しない場合のエラー。
	ErrNoPendingConflict = errors.New("no pending conflict with that id")

	// ErrActionNotOffered は提示されたアクション一覧にない選択が届いた場合のエラー。
	ErrActionNotOffered = errors.New("action is not offered for this conflict")
)

// PendingConflict は確認画面に提示中の競合1件のビュー。
type PendingConflict struct {
	ID       string
	Conflict *domain.Conflict
	Actions  []domain.ResolutionAction
}

// opOutcome は保留されていた元の操作の完了結果。
type opOutcome struct {
	result *scheduleuc.ChangeResult
	err    error
}

// decision は確認画面から届いた1回きりの決定。
type decision struct {
	action    domain.ActionID
	cancelled bool
}

// pendingEntry は保留中の競合1件の内部状態。
// decisionCh と outcomeCh はどちらもバッファ1で、ちょうど一度だけ書かれる。
type pendingEntry struct {
	view       PendingConflict
	decided    bool
	decisionCh chan decision
	outcomeCh  chan opOutcome
}

// DecisionRegistry は HTTP 経由の確認画面を表す DecisionSurface 実装。
//
// コーディネータが Confirm でブロックしている間、保留中の競合を1件だけ
// 保持し、解決エンドポイントからの選択（またはキャンセル）でちょうど
// 一度だけ完了させる。「未解決のpromiseが1つあり、外部呼び出し1回で
// 解決される」という対話的解決のプロトコルそのもの。
type DecisionRegistry struct {
	mu    sync.Mutex
	entry *pendingEntry
}

// コンパイル時にインターフェース実装を保証する。
var _ scheduleuc.DecisionSurface = (*DecisionRegistry)(nil)

// NewDecisionRegistry は空の DecisionRegistry を生成する。
func NewDecisionRegistry() *DecisionRegistry {
	return &DecisionRegistry{}
}

// announceKey は公示チャネルをコンテキストへ載せるためのキー。
type announceKey struct{}

// withAnnounce は変更要求1件に対応する公示チャネルをコンテキストに載せる。
// Confirm は同じコンテキストから取り出し、その要求が生んだ競合だけを届ける。
// 共有チャネルだと、結果待ちの別要求が他人の競合を取り違えてしまう。
func withAnnounce(ctx context.Context, ch chan<- PendingConflict) context.Context {
	return context.WithValue(ctx, announceKey{}, ch)
}

func announceFrom(ctx context.Context) (chan<- PendingConflict, bool) {
	ch, ok := ctx.Value(announceKey{}).(chan<- PendingConflict)
	return ch, ok
}

// Confirm は競合を登録し、要求元の公示チャネルへ届けた上で、決定が
// 届くまでブロックする。キャンセルで閉じられた場合は ErrCancelled を返す。
// コーディネータが保留スロットを1つに制限しているため、同時に複数の
// Confirm が走ることはない。
func (r *DecisionRegistry) Confirm(ctx context.Context, c *domain.Conflict, actions []domain.ResolutionAction) (domain.ActionID, error) {
	e := &pendingEntry{
		view: PendingConflict{
			ID:       uuid.NewString(),
			Conflict: c,
			Actions:  actions,
		},
		decisionCh: make(chan decision, 1),
		outcomeCh:  make(chan opOutcome, 1),
	}

	r.mu.Lock()
	r.entry = e
	r.mu.Unlock()

	if ch, ok := announceFrom(ctx); ok {
		ch <- e.view
	}

	select {
	case d := <-e.decisionCh:
		if d.cancelled {
			return "", scheduleuc.ErrCancelled
		}
		return d.action, nil
	case <-ctx.Done():
		r.remove(e)
		return "", ctx.Err()
	}
}

// Pending は現在保留中の競合を返す。なければ nil。
func (r *DecisionRegistry) Pending() *PendingConflict {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entry == nil {
		return nil
	}
	view := r.entry.view
	return &view
}

// Resolve は保留中の競合に対する選択を届け、元の操作の完了を待って
// その結果を返す。
func (r *DecisionRegistry) Resolve(ctx context.Context, id string, action domain.ActionID) (*scheduleuc.ChangeResult, error) {
	e, err := r.lookup(id)
	if err != nil {
		return nil, err
	}

	offered := false
	for _, a := range e.view.Actions {
		if a.ID == action {
			offered = true
			break
		}
	}
	if !offered {
		return nil, ErrActionNotOffered
	}

	if err := r.decide(e, decision{action: action}); err != nil {
		return nil, err
	}

	select {
	case o := <-e.outcomeCh:
		r.remove(e)
		return o.result, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel は保留中の競合を選択なしで閉じる。元の操作は何も永続化せずに
// 中止される（ユーザー起因の no-op）。
func (r *DecisionRegistry) Cancel(ctx context.Context, id string) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}

	if err := r.decide(e, decision{cancelled: true}); err != nil {
		return err
	}

	select {
	case o := <-e.outcomeCh:
		r.remove(e)
		if o.err != nil && !errors.Is(o.err, scheduleuc.ErrCancelled) {
			return o.err
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// finish は保留されていた操作の完了結果を解決側に届ける。
// 変更要求ハンドラが 409 を返したあとに呼ぶ。
func (r *DecisionRegistry) finish(id string, result *scheduleuc.ChangeResult, err error) {
	r.mu.Lock()
	e := r.entry
	r.mu.Unlock()
	if e == nil || e.view.ID != id {
		return
	}
	e.outcomeCh <- opOutcome{result: result, err: err}
}

// decide は決定をちょうど一度だけ届ける。2回目以降は ErrNoPendingConflict。
func (r *DecisionRegistry) decide(e *pendingEntry, d decision) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.decided {
		return ErrNoPendingConflict
	}
	e.decided = true
	e.decisionCh <- d
	return nil
}

func (r *DecisionRegistry) lookup(id string) (*pendingEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entry == nil || r.entry.view.ID != id {
		return nil, ErrNoPendingConflict
	}
	return r.entry, nil
}

func (r *DecisionRegistry) remove(e *pendingEntry) {
	r.mu.Lock()
	if r.entry == e {
		r.entry = nil
	}
	r.mu.Unlock()
}
