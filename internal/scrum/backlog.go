package scrum

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/hitoshi/complementai/internal/model"
	"github.com/hitoshi/complementai/internal/repository"
)

const (
	maxTitleLength  = 300
	defaultPriority = 3
)

// BacklogInput はバックログ項目の作成・更新の入力。
// Type、Statusが空の場合はstory、todoとして扱い、Priority未指定は3とする。
type BacklogInput struct {
	Title       string
	Description string
	Type        string
	Status      string
	Priority    *int
	StoryPoints *int
}

// ListBacklog はプロダクトバックログを優先度順に返す。
func (s *Service) ListBacklog(ctx context.Context, userID, projectID int64) ([]*model.BacklogItem, error) {
	if err := s.guard.AssertMember(ctx, userID, projectID); err != nil {
		return nil, err
	}
	items, err := s.repos.Backlog.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("バックログの取得に失敗しました: %w", err)
	}
	return items, nil
}

// CreateBacklogItem はバックログ項目を追加する。
func (s *Service) CreateBacklogItem(ctx context.Context, userID, projectID int64, in BacklogInput) (*model.BacklogItem, error) {
	if err := s.guard.AssertProductOwner(ctx, userID, projectID); err != nil {
		return nil, err
	}
	item, err := s.validateBacklog(in)
	if err != nil {
		return nil, err
	}
	item.ProjectID = projectID

	if err := s.repos.Backlog.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("バックログ項目の作成に失敗しました: %w", err)
	}
	return item, nil
}

// UpdateBacklogItem はバックログ項目を入力値で置き換える。
func (s *Service) UpdateBacklogItem(ctx context.Context, userID, projectID, itemID int64, in BacklogInput) (*model.BacklogItem, error) {
	if err := s.guard.AssertProductOwner(ctx, userID, projectID); err != nil {
		return nil, err
	}
	item, err := s.validateBacklog(in)
	if err != nil {
		return nil, err
	}
	item.ID = itemID
	item.ProjectID = projectID

	if err := s.repos.Backlog.Update(ctx, item); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewBacklogItemNotFoundError(itemID)
		}
		return nil, fmt.Errorf("バックログ項目の更新に失敗しました: %w", err)
	}
	return item, nil
}

// DeleteBacklogItem はバックログ項目を削除する。スプリントへのリンクもCASCADEで消える。
func (s *Service) DeleteBacklogItem(ctx context.Context, userID, projectID, itemID int64) error {
	if err := s.guard.AssertProductOwner(ctx, userID, projectID); err != nil {
		return err
	}
	if err := s.repos.Backlog.Delete(ctx, projectID, itemID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewBacklogItemNotFoundError(itemID)
		}
		return fmt.Errorf("バックログ項目の削除に失敗しました: %w", err)
	}
	return nil
}

func (s *Service) validateBacklog(in BacklogInput) (*model.BacklogItem, error) {
	title := s.sanitizer.Clean(in.Title)
	if title == "" {
		return nil, model.NewValidationError("Title is required.")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return nil, model.NewValidationError("Title must be at most %d characters.", maxTitleLength)
	}

	itemType := model.ItemTypeStory
	if in.Type != "" {
		t, ok := model.ParseItemType(in.Type)
		if !ok {
			return nil, model.NewValidationError("Type %q is not one of story, task, bug, spike.", in.Type)
		}
		itemType = t
	}

	status := model.ItemStatusTodo
	if in.Status != "" {
		st, ok := model.ParseItemStatus(in.Status)
		if !ok {
			return nil, model.NewValidationError("Status %q is not one of todo, in_progress, done.", in.Status)
		}
		status = st
	}

	priority := defaultPriority
	if in.Priority != nil {
		priority = *in.Priority
		if priority < model.MinPriority || priority > model.MaxPriority {
			return nil, model.NewValidationError("Priority must be between %d and %d.", model.MinPriority, model.MaxPriority)
		}
	}

	if in.StoryPoints != nil && *in.StoryPoints < 0 {
		return nil, model.NewValidationError("Story points must not be negative.")
	}

	return &model.BacklogItem{
		Title:       title,
		Description: s.sanitizer.Clean(in.Description),
		Type:        itemType,
		Status:      status,
		Priority:    priority,
		StoryPoints: in.StoryPoints,
	}, nil
}
