package scrum

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/hitoshi/complementai/internal/model"
	"github.com/hitoshi/complementai/internal/repository"
)

// DateLayout はAPIで受け渡す日付の形式。
const DateLayout = "2006-01-02"

const (
	maxSprintNameLength = 200
	// maxSprintDays はスプリント期間の上限日数。バーンダウンの点数もこれで抑えられる。
	maxSprintDays = 366
)

// SprintInput はスプリントの作成・更新の入力。日付はYYYY-MM-DD。
type SprintInput struct {
	Name      string
	Goal      string
	StartDate string
	EndDate   string
	Status    string
}

// ListSprints はプロジェクトのスプリントを開始日順に返す。
func (s *Service) ListSprints(ctx context.Context, userID, projectID int64) ([]*model.Sprint, error) {
	if err := s.guard.AssertMember(ctx, userID, projectID); err != nil {
		return nil, err
	}
	sprints, err := s.repos.Sprints.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("スプリント一覧の取得に失敗しました: %w", err)
	}
	return sprints, nil
}

// CreateSprint はスプリントを作成する。
func (s *Service) CreateSprint(ctx context.Context, userID, projectID int64, in SprintInput) (*model.Sprint, error) {
	if err := s.guard.AssertProductOwner(ctx, userID, projectID); err != nil {
		return nil, err
	}
	sprint, err := s.validateSprint(in)
	if err != nil {
		return nil, err
	}
	sprint.ProjectID = projectID

	if err := s.repos.Sprints.Create(ctx, sprint); err != nil {
		return nil, fmt.Errorf("スプリントの作成に失敗しました: %w", err)
	}
	return sprint, nil
}

// UpdateSprint はスプリントを入力値で置き換える。
func (s *Service) UpdateSprint(ctx context.Context, userID, projectID, sprintID int64, in SprintInput) (*model.Sprint, error) {
	if err := s.guard.AssertProductOwner(ctx, userID, projectID); err != nil {
		return nil, err
	}
	sprint, err := s.validateSprint(in)
	if err != nil {
		return nil, err
	}
	sprint.ID = sprintID
	sprint.ProjectID = projectID

	if err := s.repos.Sprints.Update(ctx, sprint); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewSprintNotFoundError(sprintID)
		}
		return nil, fmt.Errorf("スプリントの更新に失敗しました: %w", err)
	}
	return sprint, nil
}

// DeleteSprint はスプリントを削除する。スプリントバックログとメトリクスもCASCADEで消える。
func (s *Service) DeleteSprint(ctx context.Context, userID, projectID, sprintID int64) error {
	if err := s.guard.AssertProductOwner(ctx, userID, projectID); err != nil {
		return err
	}
	if err := s.repos.Sprints.Delete(ctx, projectID, sprintID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewSprintNotFoundError(sprintID)
		}
		return fmt.Errorf("スプリントの削除に失敗しました: %w", err)
	}
	return nil
}

func (s *Service) validateSprint(in SprintInput) (*model.Sprint, error) {
	name := s.sanitizer.Clean(in.Name)
	if name == "" {
		return nil, model.NewValidationError("Sprint name is required.")
	}
	if utf8.RuneCountInString(name) > maxSprintNameLength {
		return nil, model.NewValidationError("Sprint name must be at most %d characters.", maxSprintNameLength)
	}

	start, err := parseDate("startDate", in.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("endDate", in.EndDate)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, model.NewValidationError("endDate must not be before startDate.")
	}
	if days := int(end.Sub(start).Hours()/24) + 1; days > maxSprintDays {
		return nil, model.NewValidationError("A sprint can span at most %d days.", maxSprintDays)
	}

	status := model.SprintStatusPlanned
	if in.Status != "" {
		st, ok := model.ParseSprintStatus(in.Status)
		if !ok {
			return nil, model.NewValidationError("Status %q is not one of planned, active, completed.", in.Status)
		}
		status = st
	}

	return &model.Sprint{
		Name:      name,
		Goal:      s.sanitizer.Clean(in.Goal),
		StartDate: start,
		EndDate:   end,
		Status:    status,
	}, nil
}

// parseDate はYYYY-MM-DDをUTCの0時として解釈する。
func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, model.NewValidationError("%s is required.", field)
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, model.NewValidationError("%s must be a date in YYYY-MM-DD format.", field)
	}
	return t, nil
}
