package schedule

import "errors"

// Sentinel errors used by the schedule usecases.
// HTTP 層で errors.Is によりステータスコードへ変換される。
var (
	// ErrInvalidInput は入力の検証エラー。
	ErrInvalidInput = errors.New("invalid input")

	// ErrDecisionPending は別の競合が決定待ちの間に新しい変更要求が
	// 届いた場合のエラー。コーディネータは保留スロットを1つしか持たず、
	// 黙って上書きすることはない。呼び出し側でキューイングするか再試行する。
	ErrDecisionPending = errors.New("another conflict is awaiting a decision")

	// ErrCancelled は確認画面が選択なしで閉じられた場合のエラー。
	// ユーザー起因の no-op として扱い、何も永続化しない。
	ErrCancelled = errors.New("cancelled by user")

	// ErrPersistenceFailed は永続化コールバックが失敗した場合のエラー。
	// 操作は中止され、再試行は行わない。
	ErrPersistenceFailed = errors.New("failed to update dates")
)
