package scrum

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/hitoshi/complementai/internal/model"
	"github.com/hitoshi/complementai/internal/repository"
)

const maxParkingLotContent = 5000

// ListParkingLot はパーキングロットを返す。
func (s *Service) ListParkingLot(ctx context.Context, userID, projectID int64) ([]*model.ParkingLotItem, error) {
	if err := s.guard.AssertMember(ctx, userID, projectID); err != nil {
		return nil, err
	}
	items, err := s.repos.ParkingLot.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("パーキングロットの取得に失敗しました: %w", err)
	}
	return items, nil
}

// CreateParkingLotItem はアイデアをパーキングロットに追加する。本文はHTMLを除去して保存する。
func (s *Service) CreateParkingLotItem(ctx context.Context, userID, projectID int64, content string) (*model.ParkingLotItem, error) {
	if err := s.guard.AssertProductOwner(ctx, userID, projectID); err != nil {
		return nil, err
	}
	content = s.sanitizer.Clean(content)
	if content == "" {
		return nil, model.NewValidationError("Content is required.")
	}
	if utf8.RuneCountInString(content) > maxParkingLotContent {
		return nil, model.NewValidationError("Content must be at most %d characters.", maxParkingLotContent)
	}

	item := &model.ParkingLotItem{ProjectID: projectID, Content: content, CreatedBy: userID}
	if err := s.repos.ParkingLot.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("パーキングロットへの追加に失敗しました: %w", err)
	}
	return item, nil
}

// DeleteParkingLotItem はパーキングロットの項目を削除する。
func (s *Service) DeleteParkingLotItem(ctx context.Context, userID, projectID, itemID int64) error {
	if err := s.guard.AssertProductOwner(ctx, userID, projectID); err != nil {
		return err
	}
	if err := s.repos.ParkingLot.Delete(ctx, projectID, itemID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewParkingLotItemNotFoundError(itemID)
		}
		return fmt.Errorf("パーキングロット項目の削除に失敗しました: %w", err)
	}
	return nil
}
