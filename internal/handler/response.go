package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/complementai/internal/middleware"
	"github.com/hitoshi/complementai/internal/model"
)

// maxBodyBytes はリクエストボディの上限。
const maxBodyBytes = 1 << 20

// decodeJSON はリクエストボディを型付き構造体にデコードする。
// 未知のフィールド・上限超過・後続データはすべてINVALID_REQUESTとして扱う。
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		slog.Debug("invalid request body", slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return false
	}
	return true
}

// parseIDParam はパスパラメータを正の64bit整数として解釈する。
// 解釈できない場合はINVALID_IDを書き込みfalseを返す。
func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidIDError(name))
		return 0, false
	}
	return id, true
}

// requireUserID は認証ミドルウェアが注入したユーザーIDを取り出す。
func requireUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return 0, false
	}
	return userID, true
}

// writeJSON はステータスコードとJSONボディを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeAPIErrorResponse は統一エラーフォーマットのレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	if apiErr.ResetAt != nil {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(apiErr)))
	}
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error",
		slog.String("error", err.Error()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
	)
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidRequest, model.ErrCodeValidationFailed, model.ErrCodeInvalidID:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorized, model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeNotProductOwner, model.ErrCodeNotProjectMember:
		return http.StatusForbidden
	case model.ErrCodeUserNotFound, model.ErrCodeProjectNotFound, model.ErrCodeMemberNotFound,
		model.ErrCodeInvitationNotFound, model.ErrCodeBacklogItemNotFound, model.ErrCodeSprintNotFound,
		model.ErrCodeSprintItemNotFound, model.ErrCodeParkingLotItemNotFound, model.ErrCodeMetricNotFound:
		return http.StatusNotFound
	case model.ErrCodeEmailTaken, model.ErrCodeMemberExists, model.ErrCodeSprintItemExists,
		model.ErrCodeLastProductOwner:
		return http.StatusConflict
	case model.ErrCodeUpstreamRateLimited:
		return http.StatusTooManyRequests
	case model.ErrCodeUpstreamEmpty, model.ErrCodeUpstreamFailed:
		return http.StatusBadGateway
	case model.ErrCodeChatNotConfigured:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// trimmed はクエリパラメータの前後空白を除去して返す。
func trimmed(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// retryAfterSeconds はResetAtまでの秒数を切り上げて返す。過去の時刻なら1秒とする。
func retryAfterSeconds(apiErr *model.APIError) int {
	secs := int(math.Ceil(time.Until(*apiErr.ResetAt).Seconds()))
	return max(secs, 1)
}
