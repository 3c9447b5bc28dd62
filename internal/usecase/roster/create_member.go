package roster

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	domain "teamflow-roadmap/internal/domain/roster"
)

// CreateMemberInput はチームメンバー作成ユースケースの入力。
type CreateMemberInput struct {
	ID   string // 空の場合はサーバー側で採番する
	Name string
	Role string
	Now  time.Time
}

// CreateMemberUsecase はチームメンバー作成ユースケースを表す。
type CreateMemberUsecase struct {
	Members MemberRepository
}

// Execute は新しいチームメンバーを作成し、リポジトリに保存する。
func (uc *CreateMemberUsecase) Execute(ctx context.Context, in CreateMemberInput) (*domain.TeamMember, error) {
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}

	m, err := domain.NewTeamMember(id, in.Name, in.Role, in.Now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := uc.Members.SaveMember(ctx, m); err != nil {
		return m, err
	}

	return m, nil
}

// ListMembersUsecase はチームメンバー一覧取得ユースケース。
type ListMembersUsecase struct {
	Members MemberRepository
}

// Execute はすべてのチームメンバーを取得する。
func (uc *ListMembersUsecase) Execute(ctx context.Context) ([]*domain.TeamMember, error) {
	return uc.Members.ListMembers(ctx)
}
