package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/complementai/internal/chat"
)

// ChatServiceInterface はチャットハンドラーが必要とするサービスインターフェース。
type ChatServiceInterface interface {
	Chat(ctx context.Context, req chat.Request) (*chat.Reply, error)
}

// ChatHandler はLLMチャットプロキシのHTTPハンドラー。
type ChatHandler struct {
	service ChatServiceInterface
}

// NewChatHandler はChatHandlerを生成する。
func NewChatHandler(service ChatServiceInterface) *ChatHandler {
	return &ChatHandler{service: service}
}

type chatMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages []chatMessageRequest `json:"messages"`
	Model    string               `json:"model"`
}

type chatResponse struct {
	Content string `json:"content"`
	Model   string `json:"model"`
}

// Chat は会話履歴を上流のLLMに転送し、応答本文を返す。
// POST /api/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	messages := make([]chat.Message, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = chat.Message{Role: m.Role, Content: m.Content}
	}

	reply, err := h.service.Chat(r.Context(), chat.Request{
		Messages: messages,
		Model:    req.Model,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Content: reply.Content, Model: reply.Model})
}
