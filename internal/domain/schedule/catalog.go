package schedule

// ActionID は解決アクションの識別子。
type ActionID string

const (
	// ActionUpdateAssignments は新しいプロジェクト範囲を影響を受ける
	// すべてのアサインメントに伝播させる。
	ActionUpdateAssignments ActionID = "update_assignments"

	// ActionKeepCustom は新しいプロジェクト範囲のみを適用し、
	// アサインメントの範囲は変更しない（プロジェクト外に残る可能性がある）。
	ActionKeepCustom ActionID = "keep_custom"

	// ActionExtendProject はプロジェクト範囲を、現在の範囲と提案された
	// アサインメント範囲を覆うまで拡大する。
	ActionExtendProject ActionID = "extend_project"

	// ActionConstrainAssignment は提案されたアサインメント範囲を
	// プロジェクトの現在の範囲に収まるよう切り詰める。
	ActionConstrainAssignment ActionID = "constrain_assignment"
)

// Severity はアクションの重大度（確認画面でのボタン表示の目安）。
type Severity string

const (
	SeverityDefault Severity = "default"
	SeverityWarning Severity = "warning"
)

// ResolutionAction はユーザーが選択できる解決手段1つを表す。
type ResolutionAction struct {
	ID          ActionID
	Label       string
	Description string
	Severity    Severity
}

// actionCatalog は競合種別ごとの固定のアクション一覧。
// 「キャンセル」はここには含めない。常に選択可能な暗黙の選択肢であり、
// 提示層が付け加える責務を持つ。
var actionCatalog = map[ConflictKind][]ResolutionAction{
	KindProjectDateChange: {
		{
			ID:          ActionUpdateAssignments,
			Label:       "Update assignments",
			Description: "Move every affected assignment to the new project dates",
			Severity:    SeverityWarning,
		},
		{
			ID:          ActionKeepCustom,
			Label:       "Keep custom dates",
			Description: "Change only the project dates and leave assignment dates as they are",
			Severity:    SeverityDefault,
		},
	},
	KindAssignmentOutsideProject: {
		{
			ID:          ActionExtendProject,
			Label:       "Extend project",
			Description: "Grow the project dates to cover the assignment",
			Severity:    SeverityDefault,
		},
		{
			ID:          ActionConstrainAssignment,
			Label:       "Constrain assignment",
			Description: "Trim the assignment dates to fit inside the project",
			Severity:    SeverityWarning,
		},
	},
}

// ActionsFor は競合種別に対応するアクション一覧を順序を保って返す。
// カタログは純粋なデータであり、個々のプロジェクトやアサインメントには依存しない。
func ActionsFor(kind ConflictKind) []ResolutionAction {
	actions, ok := actionCatalog[kind]
	if !ok {
		return nil
	}

	// 呼び出し側が書き換えてもカタログ本体に影響しないようコピーを返す
	out := make([]ResolutionAction, len(actions))
	copy(out, actions)
	return out
}
