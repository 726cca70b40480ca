// Package access はScrumリソースに対するプロジェクト単位の権限判定を提供する。
package access

import (
	"context"
	"fmt"

	"github.com/hitoshi/complementai/internal/model"
	"github.com/hitoshi/complementai/internal/repository"
)

// Guard はproject_membersの承認済み行をもとに操作可否を判定する。
// 拒否は*model.APIErrorとして返し、パニックはしない。
type Guard struct {
	members repository.MemberRepository
}

// NewGuard はGuardを生成する。
func NewGuard(members repository.MemberRepository) *Guard {
	return &Guard{members: members}
}

// AssertProductOwner は呼び出し元がプロジェクトの承認済みProduct Ownerであることを確認する。
// 該当行がなければNOT_PRODUCT_OWNERを返す。
func (g *Guard) AssertProductOwner(ctx context.Context, userID, projectID int64) error {
	ok, err := g.members.HasAcceptedRole(ctx, projectID, userID, model.RoleProductOwner)
	if err != nil {
		return fmt.Errorf("Product Owner権限の確認に失敗しました: %w", err)
	}
	if !ok {
		return model.NewNotProductOwnerError()
	}
	return nil
}

// AssertMember は呼び出し元がロールを問わずプロジェクトの承認済みメンバーであることを確認する。
func (g *Guard) AssertMember(ctx context.Context, userID, projectID int64) error {
	ok, err := g.members.IsAcceptedMember(ctx, projectID, userID)
	if err != nil {
		return fmt.Errorf("メンバーシップの確認に失敗しました: %w", err)
	}
	if !ok {
		return model.NewNotProjectMemberError()
	}
	return nil
}
