package scrum

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/complementai/internal/model"
	"github.com/hitoshi/complementai/internal/repository"
)

// MemberInput はメンバー追加の入力。
type MemberInput struct {
	UserID int64
	Role   string
}

// ListMembers はプロジェクトのメンバー（保留中を含む）を返す。
func (s *Service) ListMembers(ctx context.Context, userID, projectID int64) ([]*model.ProjectMember, error) {
	if err := s.guard.AssertMember(ctx, userID, projectID); err != nil {
		return nil, err
	}
	members, err := s.repos.Members.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("メンバー一覧の取得に失敗しました: %w", err)
	}
	return members, nil
}

// AddMember はユーザーを保留中のメンバーとして招待する。
// 同じユーザーの重複追加はユニーク制約違反として検出し、MEMBER_EXISTSを返す。
func (s *Service) AddMember(ctx context.Context, userID, projectID int64, in MemberInput) (*model.ProjectMember, error) {
	if err := s.guard.AssertProductOwner(ctx, userID, projectID); err != nil {
		return nil, err
	}
	if in.UserID <= 0 {
		return nil, model.NewValidationError("userId is required.")
	}
	role, ok := model.ParseRole(in.Role)
	if !ok {
		return nil, model.NewValidationError("Role %q is not one of product_owner, scrum_master, developer.", in.Role)
	}

	member := &model.ProjectMember{
		ProjectID: projectID,
		UserID:    in.UserID,
		Role:      role,
		Status:    model.MemberStatusPending,
	}
	if err := s.repos.Members.Create(ctx, member); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, model.NewMemberExistsError()
		case errors.Is(err, repository.ErrNotFound):
			return nil, model.NewUserNotFoundError()
		}
		return nil, fmt.Errorf("メンバーの追加に失敗しました: %w", err)
	}

	slog.Info("member invited",
		slog.Int64("project_id", projectID),
		slog.Int64("invitee_id", in.UserID),
		slog.String("role", string(role)),
	)
	return member, nil
}

// RemoveMember はメンバーをプロジェクトから外す。
// 承認済みのプロダクトオーナーが1人しかいない場合、その行は削除できない。
func (s *Service) RemoveMember(ctx context.Context, userID, projectID, memberID int64) error {
	if err := s.guard.AssertProductOwner(ctx, userID, projectID); err != nil {
		return err
	}

	members, err := s.repos.Members.ListByProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("メンバー一覧の取得に失敗しました: %w", err)
	}
	var target *model.ProjectMember
	owners := 0
	for _, m := range members {
		if m.ID == memberID {
			target = m
		}
		if m.Role == model.RoleProductOwner && m.Status == model.MemberStatusAccepted {
			owners++
		}
	}
	if target == nil {
		return model.NewMemberNotFoundError(memberID)
	}
	if target.Role == model.RoleProductOwner && target.Status == model.MemberStatusAccepted && owners <= 1 {
		return model.NewLastProductOwnerError()
	}

	if err := s.repos.Members.Delete(ctx, projectID, memberID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewMemberNotFoundError(memberID)
		}
		return fmt.Errorf("メンバーの削除に失敗しました: %w", err)
	}

	slog.Info("member removed",
		slog.Int64("project_id", projectID),
		slog.Int64("member_id", memberID),
	)
	return nil
}

// AcceptInvitation は呼び出し元の保留中の招待を承認する。
// 権限判定は保留中の行が存在することのみ。
func (s *Service) AcceptInvitation(ctx context.Context, userID, projectID int64) (*model.ProjectMember, error) {
	member, err := s.repos.Members.Accept(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewInvitationNotFoundError(projectID)
		}
		return nil, fmt.Errorf("招待の承認に失敗しました: %w", err)
	}
	return member, nil
}
