package roster

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"teamflow-roadmap/internal/domain/dates"
	projectdomain "teamflow-roadmap/internal/domain/project"
	domain "teamflow-roadmap/internal/domain/roster"
)

// ProjectReader は親プロジェクトの存在確認を担当する抽象。
type ProjectReader interface {
	FindProjectByID(ctx context.Context, id string) (*projectdomain.Project, error)
}

// AssignmentRepository はアサインメントの永続化・取得を担当する抽象。
type AssignmentRepository interface {
	SaveAssignment(ctx context.Context, a *domain.Assignment) error
	FindAssignmentByID(ctx context.Context, id string) (*domain.Assignment, error)
	ListAssignmentsByProject(ctx context.Context, projectID string) ([]*domain.Assignment, error)
}

// MemberRepository はチームメンバーの永続化・取得を担当する抽象。
type MemberRepository interface {
	SaveMember(ctx context.Context, m *domain.TeamMember) error
	FindMemberByID(ctx context.Context, id string) (*domain.TeamMember, error)
	ListMembers(ctx context.Context) ([]*domain.TeamMember, error)
}

// CreateAssignmentInput はアサインメント作成ユースケースの入力。
type CreateAssignmentInput struct {
	ID                string // 空の場合はサーバー側で採番する
	ProjectID         string
	TeamMemberID      string
	PercentAllocation int
	Dates             *dates.Range
	Now               time.Time
}

// CreateAssignmentUsecase はアサインメント作成ユースケースを表す。
type CreateAssignmentUsecase struct {
	Assignments AssignmentRepository
	Members     MemberRepository
	Projects    ProjectReader
}

// Execute は新しいアサインメントを作成し、リポジトリに保存する。
// 参照先のプロジェクトとメンバーが存在することを確認する。
// 外部キーを持たないドライバでも孤児アサインメントを作らないための検証。
func (uc *CreateAssignmentUsecase) Execute(ctx context.Context, in CreateAssignmentInput) (*domain.Assignment, error) {
	if _, err := uc.Projects.FindProjectByID(ctx, in.ProjectID); err != nil {
		return nil, err
	}

	if _, err := uc.Members.FindMemberByID(ctx, in.TeamMemberID); err != nil {
		return nil, err
	}

	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}

	a, err := domain.NewAssignment(id, in.ProjectID, in.TeamMemberID, in.PercentAllocation, in.Dates, in.Now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := uc.Assignments.SaveAssignment(ctx, a); err != nil {
		return a, err
	}

	return a, nil
}

// ListAssignmentsByProjectUsecase はプロジェクト配下のアサインメント一覧取得ユースケース。
type ListAssignmentsByProjectUsecase struct {
	Assignments AssignmentRepository
}

// Execute は指定されたプロジェクトのアサインメント一覧を返す。
func (uc *ListAssignmentsByProjectUsecase) Execute(ctx context.Context, projectID string) ([]*domain.Assignment, error) {
	return uc.Assignments.ListAssignmentsByProject(ctx, projectID)
}
