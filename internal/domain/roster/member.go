package roster

import (
	"errors"
	"time"
)

// TeamMember はチームメンバーのドメインモデル。
// 競合の説明文ではメンバーの表示名だけを使うため、ここでは最小限の属性のみ持つ。
type TeamMember struct {
	ID        string
	Name      string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTeamMember は新しいチームメンバーを生成する。
func NewTeamMember(id, name, role string, now time.Time) (*TeamMember, error) {
	if name == "" {
		return nil, errors.New("member name must not be empty")
	}

	return &TeamMember{
		ID:        id,
		Name:      name,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
