package project

import (
	"context"

	domain "teamflow-roadmap/internal/domain/project"
)

// ListProjectsUsecase はプロジェクト一覧取得ユースケース。
type ListProjectsUsecase struct {
	Repo ProjectRepository
}

// Execute はすべてのプロジェクトを取得する。
func (uc *ListProjectsUsecase) Execute(ctx context.Context) ([]*domain.Project, error) {
	return uc.Repo.ListProjects(ctx)
}

// GetProjectUsecase はプロジェクト1件取得ユースケース。
type GetProjectUsecase struct {
	Repo ProjectRepository
}

// Execute は ID を指定してプロジェクトを取得する。
func (uc *GetProjectUsecase) Execute(ctx context.Context, id string) (*domain.Project, error) {
	return uc.Repo.FindProjectByID(ctx, id)
}
