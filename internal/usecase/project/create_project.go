package project

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"teamflow-roadmap/internal/domain/dates"
	domain "teamflow-roadmap/internal/domain/project"
)

// ProjectRepository はプロジェクトの永続化・取得を担当する抽象。
type ProjectRepository interface {
	SaveProject(ctx context.Context, p *domain.Project) error
	FindProjectByID(ctx context.Context, id string) (*domain.Project, error)
	ListProjects(ctx context.Context) ([]*domain.Project, error)
}

// CreateProjectInput はプロジェクト作成ユースケースの入力。
type CreateProjectInput struct {
	ID          string // 空の場合はサーバー側で採番する
	Name        string
	Description string
	Dates       dates.Range
	Now         time.Time
}

// CreateProjectUsecase はプロジェクト作成ユースケースを表す。
type CreateProjectUsecase struct {
	Repo ProjectRepository
}

// Execute は新しいプロジェクトを作成し、リポジトリに保存する。
func (uc *CreateProjectUsecase) Execute(ctx context.Context, in CreateProjectInput) (*domain.Project, error) {
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}

	p, err := domain.NewProject(id, in.Name, in.Description, in.Dates, in.Now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := uc.Repo.SaveProject(ctx, p); err != nil {
		return p, err
	}

	return p, nil
}
