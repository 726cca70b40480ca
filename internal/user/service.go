// Package user はユーザー情報とUI設定のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/complementai/internal/model"
	"github.com/hitoshi/complementai/internal/repository"
)

// Service はユーザー管理のサービス層。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// Me はトークンの主体であるユーザーを返す。
// トークン発行後にユーザーが削除されていた場合はUSER_NOT_FOUNDになる。
func (s *Service) Me(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// UpdateTheme はUIテーマ設定を更新する。
func (s *Service) UpdateTheme(ctx context.Context, userID int64, theme string) (*model.User, error) {
	t, ok := model.ParseTheme(theme)
	if !ok {
		return nil, model.NewValidationError("Theme %q is not one of light, dark, system.", theme)
	}

	user, err := s.userRepo.UpdateTheme(ctx, userID, t)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewUserNotFoundError()
		}
		return nil, fmt.Errorf("テーマの更新に失敗しました: %w", err)
	}

	slog.Info("theme updated",
		slog.Int64("user_id", userID),
		slog.String("theme", string(t)),
	)
	return user, nil
}
