// Package repository はデータ永続化のインターフェースを定義する。
// すべてのクエリはuser_idまたはproject_idでスコープされる。
package repository

import (
	"context"
	"database/sql"

	"github.com/hitoshi/complementai/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// FindByEmail はメールアドレス（大文字小文字を区別しない）でユーザーを検索する。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成し、採番されたIDとタイムスタンプをuserに設定する。
	// メールアドレスが重複する場合はErrDuplicateを返す。
	Create(ctx context.Context, user *model.User) error

	// CreateWithIdentity はユーザーとidentityを同一トランザクションで作成する。
	CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error

	// UpdateTheme はユーザーのテーマを更新する。該当ユーザーがいない場合はErrNotFoundを返す。
	UpdateTheme(ctx context.Context, id int64, theme model.Theme) (*model.User, error)
}

// IdentityRepository は外部IdP紐付け情報の永続化インターフェース。
type IdentityRepository interface {
	// FindByProviderAndProviderUserID はproviderとprovider_user_idでidentityを検索する。
	// 見つからない場合はnilを返す。
	FindByProviderAndProviderUserID(ctx context.Context, provider, providerUserID string) (*model.Identity, error)

	// Create は既存ユーザーにidentityを紐付ける。
	Create(ctx context.Context, identity *model.Identity) error
}

// ProjectRepository はプロジェクトの永続化インターフェース。
// 所有者スコープの操作はすべてuser_idを条件に含める。
type ProjectRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]*model.Project, error)

	// ListByMember は呼び出し元が承認済みメンバーであるプロジェクトを返す。
	ListByMember(ctx context.Context, userID int64) ([]*model.Project, error)

	// FindByIDAndUser は所有者が一致するプロジェクトを取得する。見つからない場合はnilを返す。
	FindByIDAndUser(ctx context.Context, id, userID int64) (*model.Project, error)

	// CreateWithOwnerMembership はプロジェクトと作成者のproduct_owner（accepted）行を
	// 同一トランザクションで作成する。
	CreateWithOwnerMembership(ctx context.Context, project *model.Project) error

	// Update はid・user_idが一致する行を更新する。該当行がない場合はErrNotFoundを返す。
	Update(ctx context.Context, project *model.Project) error

	// Delete はid・user_idが一致する行を削除する。該当行がない場合はErrNotFoundを返す。
	Delete(ctx context.Context, id, userID int64) error
}

// MemberRepository はプロジェクトメンバーシップの永続化インターフェース。
type MemberRepository interface {
	// HasAcceptedRole は(projectID, userID, role, accepted)に一致する行が存在するかを返す。
	HasAcceptedRole(ctx context.Context, projectID, userID int64, role model.Role) (bool, error)

	// IsAcceptedMember はロールを問わず承認済みメンバーであるかを返す。
	IsAcceptedMember(ctx context.Context, projectID, userID int64) (bool, error)

	ListByProject(ctx context.Context, projectID int64) ([]*model.ProjectMember, error)

	// Create はメンバーを追加する。(project_id, user_id)が重複する場合はErrDuplicate、
	// ユーザーまたはプロジェクトが存在しない場合はErrNotFoundを返す。
	Create(ctx context.Context, member *model.ProjectMember) error

	// Delete はプロジェクト内の指定メンバーを削除する。該当行がない場合はErrNotFoundを返す。
	Delete(ctx context.Context, projectID, memberID int64) error

	// Accept は呼び出し元の保留中の招待を承認済みにする。
	// 保留中の行がない場合はErrNotFoundを返す。
	Accept(ctx context.Context, projectID, userID int64) (*model.ProjectMember, error)
}

// BacklogRepository はプロダクトバックログの永続化インターフェース。
type BacklogRepository interface {
	ListByProject(ctx context.Context, projectID int64) ([]*model.BacklogItem, error)
	Create(ctx context.Context, item *model.BacklogItem) error
	// Update はid・project_idが一致する行を更新する。該当行がない場合はErrNotFoundを返す。
	Update(ctx context.Context, item *model.BacklogItem) error
	Delete(ctx context.Context, projectID, id int64) error
}

// SprintRepository はスプリントの永続化インターフェース。
type SprintRepository interface {
	ListByProject(ctx context.Context, projectID int64) ([]*model.Sprint, error)

	// FindByID はスプリントを取得する。スプリント配下のルートでは
	// ここで得たProjectIDを使って権限を判定する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Sprint, error)

	Create(ctx context.Context, sprint *model.Sprint) error
	Update(ctx context.Context, sprint *model.Sprint) error
	Delete(ctx context.Context, projectID, id int64) error
}

// SprintItemRepository はスプリントバックログの永続化インターフェース。
type SprintItemRepository interface {
	ListBySprint(ctx context.Context, sprintID int64) ([]*model.SprintBacklogItem, error)

	// Create はバックログ項目をスプリントに追加する。バックログ項目がスプリントと
	// 同じプロジェクトに属さない場合はErrNotFound、重複時はErrDuplicateを返す。
	Create(ctx context.Context, item *model.SprintBacklogItem) error

	UpdateStatus(ctx context.Context, sprintID, id int64, status model.ItemStatus) (*model.SprintBacklogItem, error)
	Delete(ctx context.Context, sprintID, id int64) error
}

// ParkingLotRepository はパーキングロットの永続化インターフェース。
type ParkingLotRepository interface {
	ListByProject(ctx context.Context, projectID int64) ([]*model.ParkingLotItem, error)
	Create(ctx context.Context, item *model.ParkingLotItem) error
	Delete(ctx context.Context, projectID, id int64) error
}

// MetricRepository はスプリントメトリクスの永続化インターフェース。追記と削除のみを提供する。
type MetricRepository interface {
	// ListBySprint は日付昇順（同日は記録順）でメトリクスを返す。
	ListBySprint(ctx context.Context, sprintID int64) ([]*model.SprintMetric, error)
	Create(ctx context.Context, metric *model.SprintMetric) error
	Delete(ctx context.Context, sprintID, id int64) error
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
