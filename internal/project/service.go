// Package project はプロジェクト（成果物テンプレートの選択結果）の管理ロジックを提供する。
package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/hitoshi/complementai/internal/model"
	"github.com/hitoshi/complementai/internal/repository"
	"github.com/hitoshi/complementai/internal/security"
)

const (
	maxNameLength     = 200
	maxTemplateFields = 2000
	maxTemplates      = 100
)

// Input はプロジェクト作成・更新の入力。列挙値は未検証の文字列で受け取る。
type Input struct {
	Name        string
	Methodology string
	Stage       string
	Domain      string
	Templates   []model.Template
}

// Service はプロジェクトのサービス層。すべての操作は所有者のuser_idでスコープされる。
type Service struct {
	repo      repository.ProjectRepository
	sanitizer security.TextSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.ProjectRepository, sanitizer security.TextSanitizer) *Service {
	return &Service{repo: repo, sanitizer: sanitizer}
}

// List はユーザーが所有するプロジェクトを返す。
func (s *Service) List(ctx context.Context, userID int64) ([]*model.Project, error) {
	projects, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("プロジェクト一覧の取得に失敗しました: %w", err)
	}
	return projects, nil
}

// Get は所有者が一致するプロジェクトを返す。存在しない場合も他人の場合もPROJECT_NOT_FOUNDになる。
func (s *Service) Get(ctx context.Context, userID, projectID int64) (*model.Project, error) {
	p, err := s.repo.FindByIDAndUser(ctx, projectID, userID)
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewProjectNotFoundError(projectID)
	}
	return p, nil
}

// Create は入力を検証してプロジェクトを作成する。
// 作成者は同一トランザクションで承認済みProduct Ownerとして登録される。
func (s *Service) Create(ctx context.Context, userID int64, in Input) (*model.Project, error) {
	p, err := s.validate(in)
	if err != nil {
		return nil, err
	}
	p.UserID = userID

	if err := s.repo.CreateWithOwnerMembership(ctx, p); err != nil {
		return nil, fmt.Errorf("プロジェクトの作成に失敗しました: %w", err)
	}

	slog.Info("project created",
		slog.Int64("user_id", userID),
		slog.Int64("project_id", p.ID),
	)
	return p, nil
}

// Update はプロジェクトを入力値で置き換える。
func (s *Service) Update(ctx context.Context, userID, projectID int64, in Input) (*model.Project, error) {
	p, err := s.validate(in)
	if err != nil {
		return nil, err
	}
	p.ID = projectID
	p.UserID = userID

	if err := s.repo.Update(ctx, p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewProjectNotFoundError(projectID)
		}
		return nil, fmt.Errorf("プロジェクトの更新に失敗しました: %w", err)
	}
	return p, nil
}

// Delete はプロジェクトを削除する。メンバー・バックログ等はCASCADEで削除される。
func (s *Service) Delete(ctx context.Context, userID, projectID int64) error {
	if err := s.repo.Delete(ctx, projectID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewProjectNotFoundError(projectID)
		}
		return fmt.Errorf("プロジェクトの削除に失敗しました: %w", err)
	}

	slog.Info("project deleted",
		slog.Int64("user_id", userID),
		slog.Int64("project_id", projectID),
	)
	return nil
}

// validate は入力を検証し、保存用のProjectを組み立てる。
// 不正な入力はここで止まり、永続化層には到達しない。
func (s *Service) validate(in Input) (*model.Project, error) {
	name := s.sanitizer.Clean(in.Name)
	if name == "" {
		return nil, model.NewValidationError("Project name is required.")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return nil, model.NewValidationError("Project name must be at most %d characters.", maxNameLength)
	}

	methodology, ok := model.ParseMethodology(in.Methodology)
	if !ok {
		return nil, model.NewValidationError("Methodology %q is not one of pmbok, iso21502, agil.", in.Methodology)
	}
	stage, ok := model.ParseStage(in.Stage)
	if !ok {
		return nil, model.NewValidationError("Stage %q is not one of idea, planificacion, ejecucion, cierre.", in.Stage)
	}

	if len(in.Templates) > maxTemplates {
		return nil, model.NewValidationError("A project can hold at most %d templates.", maxTemplates)
	}
	templates := make([]model.Template, 0, len(in.Templates))
	for i, t := range in.Templates {
		tmplName := s.sanitizer.Clean(t.Name)
		if tmplName == "" {
			return nil, model.NewValidationError("templates[%d].name is required.", i)
		}
		why := s.sanitizer.Clean(t.Why)
		if utf8.RuneCountInString(tmplName) > maxTemplateFields || utf8.RuneCountInString(why) > maxTemplateFields {
			return nil, model.NewValidationError("templates[%d] fields must be at most %d characters.", i, maxTemplateFields)
		}
		templates = append(templates, model.Template{Name: tmplName, Why: why})
	}

	return &model.Project{
		Name:        name,
		Methodology: methodology,
		Stage:       stage,
		Domain:      s.sanitizer.Clean(in.Domain),
		Templates:   templates,
	}, nil
}
