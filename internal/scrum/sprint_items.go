package scrum

import (
	"context"
	"errors"
	"fmt"

	"github.com/hitoshi/complementai/internal/model"
	"github.com/hitoshi/complementai/internal/repository"
)

// SprintItemInput はスプリントへのバックログ項目追加の入力。
type SprintItemInput struct {
	BacklogItemID int64
	Status        string
}

// ListSprintItems はスプリントバックログを返す。
func (s *Service) ListSprintItems(ctx context.Context, userID, sprintID int64) ([]*model.SprintBacklogItem, error) {
	if _, err := s.sprintFor(ctx, userID, sprintID, s.guard.AssertMember); err != nil {
		return nil, err
	}
	items, err := s.repos.SprintItems.ListBySprint(ctx, sprintID)
	if err != nil {
		return nil, fmt.Errorf("スプリントバックログの取得に失敗しました: %w", err)
	}
	return items, nil
}

// AddSprintItem はバックログ項目をスプリントに取り込む。
// 別プロジェクトのバックログ項目はBACKLOG_ITEM_NOT_FOUNDとして扱う。
func (s *Service) AddSprintItem(ctx context.Context, userID, sprintID int64, in SprintItemInput) (*model.SprintBacklogItem, error) {
	if _, err := s.sprintFor(ctx, userID, sprintID, s.guard.AssertProductOwner); err != nil {
		return nil, err
	}
	if in.BacklogItemID <= 0 {
		return nil, model.NewValidationError("backlogItemId is required.")
	}
	status := model.ItemStatusTodo
	if in.Status != "" {
		st, ok := model.ParseItemStatus(in.Status)
		if !ok {
			return nil, model.NewValidationError("Status %q is not one of todo, in_progress, done.", in.Status)
		}
		status = st
	}

	item := &model.SprintBacklogItem{SprintID: sprintID, BacklogItemID: in.BacklogItemID, Status: status}
	if err := s.repos.SprintItems.Create(ctx, item); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, model.NewSprintItemExistsError()
		case errors.Is(err, repository.ErrNotFound):
			return nil, model.NewBacklogItemNotFoundError(in.BacklogItemID)
		}
		return nil, fmt.Errorf("スプリントへの項目追加に失敗しました: %w", err)
	}
	return item, nil
}

// UpdateSprintItemStatus はスプリント内の項目の状態を変更する。
func (s *Service) UpdateSprintItemStatus(ctx context.Context, userID, sprintID, itemID int64, status string) (*model.SprintBacklogItem, error) {
	if _, err := s.sprintFor(ctx, userID, sprintID, s.guard.AssertProductOwner); err != nil {
		return nil, err
	}
	st, ok := model.ParseItemStatus(status)
	if !ok {
		return nil, model.NewValidationError("Status %q is not one of todo, in_progress, done.", status)
	}

	item, err := s.repos.SprintItems.UpdateStatus(ctx, sprintID, itemID, st)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewSprintItemNotFoundError(itemID)
		}
		return nil, fmt.Errorf("スプリント項目の更新に失敗しました: %w", err)
	}
	return item, nil
}

// RemoveSprintItem はスプリントから項目を外す。
func (s *Service) RemoveSprintItem(ctx context.Context, userID, sprintID, itemID int64) error {
	if _, err := s.sprintFor(ctx, userID, sprintID, s.guard.AssertProductOwner); err != nil {
		return err
	}
	if err := s.repos.SprintItems.Delete(ctx, sprintID, itemID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewSprintItemNotFoundError(itemID)
		}
		return fmt.Errorf("スプリント項目の削除に失敗しました: %w", err)
	}
	return nil
}
