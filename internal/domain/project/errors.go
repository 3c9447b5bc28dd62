package project

import "errors"

// ErrNotFound は指定 ID のプロジェクトが存在しない場合に返す。
// リポジトリ実装が返し、HTTP 層で errors.Is により 404 に変換される。
var ErrNotFound = errors.New("project not found")
