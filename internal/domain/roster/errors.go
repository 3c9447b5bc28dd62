package roster

import "errors"

// Sentinel errors returned by roster repositories.
var (
	// ErrAssignmentNotFound は指定 ID のアサインメントが存在しない場合に返す。
	ErrAssignmentNotFound = errors.New("assignment not found")

	// ErrMemberNotFound は指定 ID のチームメンバーが存在しない場合に返す。
	ErrMemberNotFound = errors.New("member not found")
)
