// Package model はドメインモデルを定義する。
package model

import "time"

// Role はプロジェクトメンバーのScrumロールを表す。
type Role string

const (
	RoleProductOwner Role = "product_owner"
	RoleScrumMaster  Role = "scrum_master"
	RoleDeveloper    Role = "developer"
)

// ParseRole は文字列をRoleに変換する。未知の値の場合はfalseを返す。
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleProductOwner, RoleScrumMaster, RoleDeveloper:
		return Role(s), true
	}
	return "", false
}

// MemberStatus はメンバーシップの承認状態を表す。
type MemberStatus string

const (
	// MemberStatusAccepted は招待を承認済みの状態。
	MemberStatusAccepted MemberStatus = "accepted"
	// MemberStatusPending は招待への応答待ちの状態。
	MemberStatusPending MemberStatus = "pending"
)

// ProjectMember はプロジェクトとユーザーのメンバーシップを表す。
// (ProjectID, UserID) の組はDBのユニーク制約で一意に保たれる。
// Email、FirstName、LastNameは一覧取得時にusersからJOINされる。
type ProjectMember struct {
	ID        int64
	ProjectID int64
	UserID    int64
	Role      Role
	Status    MemberStatus
	Email     string
	FirstName string
	LastName  string
	CreatedAt time.Time
}

// ItemType はバックログ項目の種別を表す。
type ItemType string

const (
	ItemTypeStory ItemType = "story"
	ItemTypeTask  ItemType = "task"
	ItemTypeBug   ItemType = "bug"
	ItemTypeSpike ItemType = "spike"
)

// ParseItemType は文字列をItemTypeに変換する。未知の値の場合はfalseを返す。
func ParseItemType(s string) (ItemType, bool) {
	switch ItemType(s) {
	case ItemTypeStory, ItemTypeTask, ItemTypeBug, ItemTypeSpike:
		return ItemType(s), true
	}
	return "", false
}

// ItemStatus はバックログ項目およびスプリントバックログ項目の進捗状態を表す。
type ItemStatus string

const (
	ItemStatusTodo       ItemStatus = "todo"
	ItemStatusInProgress ItemStatus = "in_progress"
	ItemStatusDone       ItemStatus = "done"
)

// ParseItemStatus は文字列をItemStatusに変換する。未知の値の場合はfalseを返す。
func ParseItemStatus(s string) (ItemStatus, bool) {
	switch ItemStatus(s) {
	case ItemStatusTodo, ItemStatusInProgress, ItemStatusDone:
		return ItemStatus(s), true
	}
	return "", false
}

// 優先度の範囲。値は表示用であり並び順の不変条件は持たない。
const (
	MinPriority = 1
	MaxPriority = 5
)

// BacklogItem はプロダクトバックログの作業単位を表す。
type BacklogItem struct {
	ID          int64
	ProjectID   int64
	Title       string
	Description string
	Type        ItemType
	Status      ItemStatus
	Priority    int
	StoryPoints *int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SprintStatus はスプリントの状態を表す。
type SprintStatus string

const (
	SprintStatusPlanned   SprintStatus = "planned"
	SprintStatusActive    SprintStatus = "active"
	SprintStatusCompleted SprintStatus = "completed"
)

// ParseSprintStatus は文字列をSprintStatusに変換する。未知の値の場合はfalseを返す。
func ParseSprintStatus(s string) (SprintStatus, bool) {
	switch SprintStatus(s) {
	case SprintStatusPlanned, SprintStatusActive, SprintStatusCompleted:
		return SprintStatus(s), true
	}
	return "", false
}

// Sprint はプロジェクトのタイムボックスを表す。
// StartDate、EndDateは日付のみ（UTCの0時）で扱う。
type Sprint struct {
	ID        int64
	ProjectID int64
	Name      string
	Goal      string
	StartDate time.Time
	EndDate   time.Time
	Status    SprintStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SprintBacklogItem はスプリントに取り込まれたバックログ項目へのリンクを表す。
// Title、Priority、StoryPointsは一覧取得時にbacklog_itemsからJOINされる。
type SprintBacklogItem struct {
	ID            int64
	SprintID      int64
	BacklogItemID int64
	Status        ItemStatus
	Title         string
	Priority      int
	StoryPoints   *int
	CreatedAt     time.Time
}

// ParkingLotItem はプロジェクトに紐づく保留アイデアを表す。
type ParkingLotItem struct {
	ID        int64
	ProjectID int64
	Content   string
	CreatedBy int64
	CreatedAt time.Time
}

// SprintMetric はスプリントの日次バーンダウン記録を表す。追記のみで更新しない。
type SprintMetric struct {
	ID              int64
	SprintID        int64
	Date            time.Time
	RemainingPoints int
	CompletedPoints int
	CreatedAt       time.Time
}

// BurndownPoint はバーンダウンチャートの1日分の値を表す。
// Actualはその日以前に記録がない場合、または未来の日付の場合はnilになる。
type BurndownPoint struct {
	Date   time.Time
	Ideal  float64
	Actual *int
}
