// Package scrum はプロジェクト単位のScrum運用（メンバー、バックログ、スプリント、
// スプリントバックログ、パーキングロット、メトリクス）のドメインロジックを提供する。
//
// 変更系の操作はすべて承認済みProduct Ownerに、参照系の操作は承認済みメンバーに限定される。
// スプリント配下のリソースはスプリントの所属プロジェクトで権限を判定する。
package scrum

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/complementai/internal/model"
	"github.com/hitoshi/complementai/internal/repository"
	"github.com/hitoshi/complementai/internal/security"
)

// Authorizer はプロジェクト単位の権限判定インターフェース。
type Authorizer interface {
	AssertProductOwner(ctx context.Context, userID, projectID int64) error
	AssertMember(ctx context.Context, userID, projectID int64) error
}

// Repositories はServiceが利用するリポジトリの組。
type Repositories struct {
	Projects    repository.ProjectRepository
	Members     repository.MemberRepository
	Backlog     repository.BacklogRepository
	Sprints     repository.SprintRepository
	SprintItems repository.SprintItemRepository
	ParkingLot  repository.ParkingLotRepository
	Metrics     repository.MetricRepository
}

// Service はScrum機能のサービス層。
type Service struct {
	guard     Authorizer
	repos     Repositories
	sanitizer security.TextSanitizer
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(guard Authorizer, repos Repositories, sanitizer security.TextSanitizer) *Service {
	return &Service{
		guard:     guard,
		repos:     repos,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// ListMemberProjects は呼び出し元が承認済みメンバーとして参加しているプロジェクトを返す。
func (s *Service) ListMemberProjects(ctx context.Context, userID int64) ([]*model.Project, error) {
	projects, err := s.repos.Projects.ListByMember(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("参加プロジェクト一覧の取得に失敗しました: %w", err)
	}
	return projects, nil
}

// sprintFor はスプリントを取得し、その所属プロジェクトに対してassertで権限を判定する。
func (s *Service) sprintFor(
	ctx context.Context,
	userID, sprintID int64,
	assert func(ctx context.Context, userID, projectID int64) error,
) (*model.Sprint, error) {
	sprint, err := s.repos.Sprints.FindByID(ctx, sprintID)
	if err != nil {
		return nil, fmt.Errorf("スプリントの取得に失敗しました: %w", err)
	}
	if sprint == nil {
		return nil, model.NewSprintNotFoundError(sprintID)
	}
	if err := assert(ctx, userID, sprint.ProjectID); err != nil {
		return nil, err
	}
	return sprint, nil
}
