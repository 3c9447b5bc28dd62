package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"teamflow-roadmap/internal/config"
	infra "teamflow-roadmap/internal/infrastructure/schedule"
	httphandler "teamflow-roadmap/internal/interface/http"
	"teamflow-roadmap/internal/logging"
	projectuc "teamflow-roadmap/internal/usecase/project"
	rosteruc "teamflow-roadmap/internal/usecase/roster"
	scheduleuc "teamflow-roadmap/internal/usecase/schedule"
)

// repository はサービスが必要とするすべての永続化インターフェースの合成。
// memory / sqlite / postgres の各実装がこれを満たす。
type repository interface {
	projectuc.ProjectRepository
	rosteruc.AssignmentRepository
	rosteruc.MemberRepository
	scheduleuc.ProjectReader
	scheduleuc.AssignmentReader
	scheduleuc.MemberReader
	scheduleuc.ProjectWriter
	scheduleuc.AssignmentWriter
}

func newServeCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the roadmap HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file (YAML)")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	repo, cleanup, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	// ユースケース
	createProjectUC := &projectuc.CreateProjectUsecase{Repo: repo}
	listProjectsUC := &projectuc.ListProjectsUsecase{Repo: repo}
	getProjectUC := &projectuc.GetProjectUsecase{Repo: repo}
	createAssignmentUC := &rosteruc.CreateAssignmentUsecase{Assignments: repo, Members: repo, Projects: repo}
	listAssignmentsUC := &rosteruc.ListAssignmentsByProjectUsecase{Assignments: repo}
	createMemberUC := &rosteruc.CreateMemberUsecase{Members: repo}
	listMembersUC := &rosteruc.ListMembersUsecase{Members: repo}

	// 競合解決コーディネータと確認画面レジストリ
	registry := httphandler.NewDecisionRegistry()
	coordinator := &scheduleuc.Coordinator{
		Projects:         repo,
		Assignments:      repo,
		Members:          repo,
		ProjectWriter:    repo,
		AssignmentWriter: repo,
		Surface:          registry,
		Logger:           logger,
	}

	// HTTP ハンドラ
	createProjectHandler := httphandler.NewCreateProjectHandler(createProjectUC, time.Now)
	listProjectsHandler := httphandler.NewListProjectsHandler(listProjectsUC)
	getProjectHandler := httphandler.NewGetProjectHandler(getProjectUC)
	projectDatesHandler := httphandler.NewUpdateProjectDatesHandler(coordinator, registry, cfg.DecisionTimeout())
	assignmentsHandler := httphandler.NewProjectAssignmentsHandler(createAssignmentUC, listAssignmentsUC, getProjectUC, time.Now)
	assignmentDatesHandler := httphandler.NewUpdateAssignmentDatesHandler(coordinator, registry, cfg.DecisionTimeout())
	conflictHandler := httphandler.NewConflictHandler(registry)
	membersHandler := httphandler.NewMembersHandler(createMemberUC, listMembersUC, time.Now)

	// /api/projects の統合ハンドラ（POST と GET の両方を処理）
	projectsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			createProjectHandler.ServeHTTP(w, r)
		case http.MethodGet:
			listProjectsHandler.ServeHTTP(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	// /api/projects/{id}... の統合ハンドラ
	projectSubtreeHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/projects/")
		switch {
		case strings.HasSuffix(path, "/dates"):
			projectDatesHandler.ServeHTTP(w, r)
		case strings.HasSuffix(path, "/assignments"):
			assignmentsHandler.ServeHTTP(w, r)
		default:
			getProjectHandler.ServeHTTP(w, r)
		}
	})

	mux := http.NewServeMux()

	// API はすべて /api 配下
	mux.Handle("/api/projects", projectsHandler)
	mux.Handle("/api/projects/", projectSubtreeHandler)
	mux.Handle("/api/assignments/", assignmentDatesHandler)
	mux.Handle("/api/conflicts", conflictHandler)
	mux.Handle("/api/conflicts/", conflictHandler)
	mux.Handle("/api/members", membersHandler)

	// ヘルスチェック
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	logger.Info("roadmap service listening",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage),
	)

	return http.ListenAndServe(cfg.Addr, httphandler.WithRequestLogging(logger, mux))
}

// openRepository は設定に従ってリポジトリを開く。
// 戻り値の cleanup は接続の後始末を行う。
func openRepository(ctx context.Context, cfg config.Config) (repository, func(), error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return infra.NewMemoryRepository(), func() {}, nil

	case config.StorageSQLite:
		repo, err := infra.OpenSQLiteRepository(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil

	case config.StoragePostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return infra.NewSQLRepository(pool), pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver: %q", cfg.Storage)
	}
}
