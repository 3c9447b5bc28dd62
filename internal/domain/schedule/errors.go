package schedule

import "errors"

// Sentinel errors used by the conflict resolution engine.
var (
	// ErrUnknownAction は競合種別のカタログに存在しないアクションが
	// 指定された場合のエラー。
	ErrUnknownAction = errors.New("unknown resolution action")
)
