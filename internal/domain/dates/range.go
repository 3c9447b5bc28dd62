package dates

import (
	"errors"
	"fmt"
	"time"
)

// Layout は日付の境界表現フォーマット（YYYY-MM-DD）。
const Layout = "2006-01-02"

// ErrEmptyUnion は Union に範囲が1つも渡されなかった場合のエラー。
// 呼び出し側のプログラミングエラーであり、ユーザーに表示するものではない。
var ErrEmptyUnion = errors.New("union requires at least one range")

// Range は両端を含むカレンダー日付の範囲を表す値オブジェクト。
// 時刻成分は持たず、UTC の深夜0時に正規化して保持する。
// 通常 Start <= End を満たすが、Clamp は交差しない境界に対して
// 逆転した範囲（Start > End）を返すことがある（Clamp のコメント参照）。
type Range struct {
	Start time.Time
	End   time.Time
}

// NewRange は日付のみに正規化した Range を生成する。
func NewRange(start, end time.Time) Range {
	return Range{
		Start: Normalize(start),
		End:   Normalize(end),
	}
}

// Normalize は時刻成分を落とし、UTC の深夜0時に揃える。
func Normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Parse は "YYYY-MM-DD" 形式の2つの文字列から Range を生成する。
func Parse(start, end string) (Range, error) {
	s, err := ParseDate(start)
	if err != nil {
		return Range{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return Range{}, err
	}
	return Range{Start: s, End: e}, nil
}

// ParseDate は "YYYY-MM-DD" 形式の文字列を日付にパースする。
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// Valid は Start <= End を満たすかどうかを返す。
func (r Range) Valid() bool {
	return !r.Start.After(r.End)
}

// Equal は2つの範囲が同じ日付の組かどうかを返す。
// 自動同期アサインメントの判定（プロジェクト範囲との一致確認）にも使う。
func (r Range) Equal(other Range) bool {
	return r.Start.Equal(other.Start) && r.End.Equal(other.End)
}

// String は "YYYY-MM-DD..YYYY-MM-DD" 形式の表現を返す（ログ・エラー用）。
func (r Range) String() string {
	return r.Start.Format(Layout) + ".." + r.End.Format(Layout)
}

// Within は inner が outer に完全に含まれるかどうかを返す。
// 両端を含む判定: inner.Start >= outer.Start かつ inner.End <= outer.End。
func Within(inner, outer Range) bool {
	return !inner.Start.Before(outer.Start) && !inner.End.After(outer.End)
}

// Clamp は r を bounds の内側に収めた新しい範囲を返す。
// start = max(r.Start, bounds.Start), end = min(r.End, bounds.End)。
// r と bounds が交差しない場合は Start > End の逆転した範囲を返す。
// 勝手に並べ替えて補正することはしない。呼び出し側が結果を検査すること。
func Clamp(r, bounds Range) Range {
	out := r
	if out.Start.Before(bounds.Start) {
		out.Start = bounds.Start
	}
	if out.End.After(bounds.End) {
		out.End = bounds.End
	}
	return out
}

// Union は渡されたすべての範囲を覆う最小の範囲を返す。
// 範囲が1つも渡されなかった場合は ErrEmptyUnion を返す。
func Union(ranges ...Range) (Range, error) {
	if len(ranges) == 0 {
		return Range{}, ErrEmptyUnion
	}

	out := ranges[0]
	for _, r := range ranges[1:] {
		if r.Start.Before(out.Start) {
			out.Start = r.Start
		}
		if r.End.After(out.End) {
			out.End = r.End
		}
	}
	return out, nil
}
