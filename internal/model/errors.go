// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"time"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, project, scrum, chat, system
	Action   string // ユーザー向け対処方法

	// ResetAt は上流のレート制限が解除される予定時刻。レート制限エラーでのみ設定される。
	ResetAt *time.Time
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeInvalidID          = "INVALID_ID"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"

	ErrCodeNotProductOwner  = "NOT_PRODUCT_OWNER"
	ErrCodeNotProjectMember = "NOT_PROJECT_MEMBER"

	ErrCodeUserNotFound           = "USER_NOT_FOUND"
	ErrCodeProjectNotFound        = "PROJECT_NOT_FOUND"
	ErrCodeMemberNotFound         = "MEMBER_NOT_FOUND"
	ErrCodeInvitationNotFound     = "INVITATION_NOT_FOUND"
	ErrCodeBacklogItemNotFound    = "BACKLOG_ITEM_NOT_FOUND"
	ErrCodeSprintNotFound         = "SPRINT_NOT_FOUND"
	ErrCodeSprintItemNotFound     = "SPRINT_ITEM_NOT_FOUND"
	ErrCodeParkingLotItemNotFound = "PARKING_LOT_ITEM_NOT_FOUND"
	ErrCodeMetricNotFound         = "METRIC_NOT_FOUND"

	ErrCodeEmailTaken       = "EMAIL_TAKEN"
	ErrCodeMemberExists     = "MEMBER_EXISTS"
	ErrCodeSprintItemExists = "SPRINT_ITEM_EXISTS"
	ErrCodeLastProductOwner = "LAST_PRODUCT_OWNER"

	ErrCodeUpstreamRateLimited = "UPSTREAM_RATE_LIMITED"
	ErrCodeUpstreamEmpty       = "UPSTREAM_EMPTY"
	ErrCodeUpstreamFailed      = "UPSTREAM_FAILED"
	ErrCodeChatNotConfigured   = "CHAT_NOT_CONFIGURED"

	ErrCodeRouteNotFound    = "ROUTE_NOT_FOUND"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// NewInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "The request body could not be parsed.",
		Category: "validation",
		Action:   "Send a JSON object with only the documented fields.",
	}
}

// NewValidationError は入力値の検証エラーを生成する。
func NewValidationError(format string, args ...any) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  fmt.Sprintf(format, args...),
		Category: "validation",
		Action:   "Fix the highlighted field and try again.",
	}
}

// NewInvalidIDError はパスパラメータのIDが数値として解釈できない場合のエラーを生成する。
func NewInvalidIDError(param string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidID,
		Message:  fmt.Sprintf("Path parameter %q must be a positive integer.", param),
		Category: "validation",
		Action:   "Check the identifier in the URL.",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Authentication is required.",
		Category: "auth",
		Action:   "Log in again to obtain a new token.",
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// メールアドレスの存在有無は区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid email or password.",
		Category: "auth",
		Action:   "Check your credentials and try again.",
	}
}

// NewNotProductOwnerError はProduct Owner権限がない場合のエラーを生成する。
func NewNotProductOwnerError() *APIError {
	return &APIError{
		Code:     ErrCodeNotProductOwner,
		Message:  "Only the Product Owner can perform this action.",
		Category: "scrum",
		Action:   "Ask the project's Product Owner to make this change.",
	}
}

// NewNotProjectMemberError はプロジェクトメンバーでない場合のエラーを生成する。
func NewNotProjectMemberError() *APIError {
	return &APIError{
		Code:     ErrCodeNotProjectMember,
		Message:  "You are not a member of this project.",
		Category: "scrum",
		Action:   "Ask the Product Owner for an invitation.",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "User not found.",
		Category: "auth",
		Action:   "Log in again.",
	}
}

// NewProjectNotFoundError はプロジェクトが見つからない（または所有していない）場合のエラーを生成する。
func NewProjectNotFoundError(projectID int64) *APIError {
	return newNotFound(ErrCodeProjectNotFound, "project", projectID, "project")
}

// NewMemberNotFoundError はメンバーが見つからない場合のエラーを生成する。
func NewMemberNotFoundError(memberID int64) *APIError {
	return newNotFound(ErrCodeMemberNotFound, "member", memberID, "scrum")
}

// NewInvitationNotFoundError は承認待ちの招待が存在しない場合のエラーを生成する。
func NewInvitationNotFoundError(projectID int64) *APIError {
	return newNotFound(ErrCodeInvitationNotFound, "pending invitation for project", projectID, "scrum")
}

// NewBacklogItemNotFoundError はバックログ項目が見つからない場合のエラーを生成する。
func NewBacklogItemNotFoundError(itemID int64) *APIError {
	return newNotFound(ErrCodeBacklogItemNotFound, "backlog item", itemID, "scrum")
}

// NewSprintNotFoundError はスプリントが見つからない場合のエラーを生成する。
func NewSprintNotFoundError(sprintID int64) *APIError {
	return newNotFound(ErrCodeSprintNotFound, "sprint", sprintID, "scrum")
}

// NewSprintItemNotFoundError はスプリントバックログ項目が見つからない場合のエラーを生成する。
func NewSprintItemNotFoundError(itemID int64) *APIError {
	return newNotFound(ErrCodeSprintItemNotFound, "sprint backlog item", itemID, "scrum")
}

// NewParkingLotItemNotFoundError はパーキングロット項目が見つからない場合のエラーを生成する。
func NewParkingLotItemNotFoundError(itemID int64) *APIError {
	return newNotFound(ErrCodeParkingLotItemNotFound, "parking lot item", itemID, "scrum")
}

// NewMetricNotFoundError はスプリントメトリクスが見つからない場合のエラーを生成する。
func NewMetricNotFoundError(metricID int64) *APIError {
	return newNotFound(ErrCodeMetricNotFound, "metric", metricID, "scrum")
}

func newNotFound(code, what string, id int64, category string) *APIError {
	return &APIError{
		Code:     code,
		Message:  fmt.Sprintf("The %s %d was not found.", what, id),
		Category: category,
		Action:   "Refresh the page and check the identifier.",
	}
}

// NewEmailTakenError はメールアドレスが登録済みの場合のエラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "An account with this email already exists.",
		Category: "auth",
		Action:   "Log in instead, or use a different email.",
	}
}

// NewMemberExistsError はユーザーが既にプロジェクトメンバーである場合のエラーを生成する。
func NewMemberExistsError() *APIError {
	return &APIError{
		Code:     ErrCodeMemberExists,
		Message:  "This user is already a member of the project.",
		Category: "scrum",
		Action:   "Check the member list.",
	}
}

// NewSprintItemExistsError はバックログ項目が既にスプリントに含まれている場合のエラーを生成する。
func NewSprintItemExistsError() *APIError {
	return &APIError{
		Code:     ErrCodeSprintItemExists,
		Message:  "This backlog item is already in the sprint.",
		Category: "scrum",
		Action:   "Check the sprint backlog.",
	}
}

// NewLastProductOwnerError はプロジェクト最後の承認済みプロダクトオーナーを外そうとした場合のエラーを生成する。
func NewLastProductOwnerError() *APIError {
	return &APIError{
		Code:     ErrCodeLastProductOwner,
		Message:  "The last accepted product owner cannot be removed from the project.",
		Category: "scrum",
		Action:   "Add another product owner and have them accept first.",
	}
}

// NewUpstreamRateLimitedError は上流LLM APIのレート制限エラーを生成する。
// messageには上流のエラーメッセージをそのまま渡す。
func NewUpstreamRateLimitedError(message string, resetAt *time.Time) *APIError {
	if message == "" {
		message = "The chat provider is rate limiting requests."
	}
	action := "Wait a moment and try again."
	if resetAt != nil {
		action = fmt.Sprintf("Try again after %s.", resetAt.UTC().Format(time.RFC3339))
	}
	return &APIError{
		Code:     ErrCodeUpstreamRateLimited,
		Message:  message,
		Category: "chat",
		Action:   action,
		ResetAt:  resetAt,
	}
}

// NewUpstreamEmptyError は上流LLM APIが空の応答を返した場合のエラーを生成する。
func NewUpstreamEmptyError() *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamEmpty,
		Message:  "The chat provider returned an empty answer.",
		Category: "chat",
		Action:   "Rephrase the message or try again.",
	}
}

// NewUpstreamFailedError は上流LLM APIの呼び出し失敗エラーを生成する。
func NewUpstreamFailedError(message string) *APIError {
	if message == "" {
		message = "The chat provider request failed."
	}
	return &APIError{
		Code:     ErrCodeUpstreamFailed,
		Message:  message,
		Category: "chat",
		Action:   "Try again later.",
	}
}

// NewChatNotConfiguredError はチャットAPIキーが未設定の場合のエラーを生成する。
func NewChatNotConfiguredError() *APIError {
	return &APIError{
		Code:     ErrCodeChatNotConfigured,
		Message:  "The chat assistant is not configured on this server.",
		Category: "chat",
		Action:   "Contact the administrator.",
	}
}

// NewInternalError は内部エラーの統一レスポンス用エラーを生成する。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "An internal error occurred.",
		Category: "system",
		Action:   "Wait a moment and try again.",
	}
}

// NewRouteNotFoundError は存在しないパスへのリクエストに返すエラーを生成する。
func NewRouteNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeRouteNotFound,
		Message:  "No endpoint matches this path.",
		Category: "system",
		Action:   "Check the request URL.",
	}
}

// NewMethodNotAllowedError はパスに対応しないメソッドのリクエストに返すエラーを生成する。
func NewMethodNotAllowedError() *APIError {
	return &APIError{
		Code:     ErrCodeMethodNotAllowed,
		Message:  "This endpoint does not support the request method.",
		Category: "system",
		Action:   "Check the HTTP method.",
	}
}
