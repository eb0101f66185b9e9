package chat

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/manishsharma864/ai-horroscope/internal/conversation"
	chatService "github.com/manishsharma864/ai-horroscope/internal/service/chat"
	"github.com/manishsharma864/ai-horroscope/pkg/utils"
)

// GenerationFailedMessage 是文本生成失败时返回给用户的提示。
const GenerationFailedMessage = "The astrologer is unavailable right now. Please try again."

// Handler 聊天服务的HTTP处理器
type Handler struct {
	chatSvc *chatService.Service
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Route("/session/{sessionID}", func(r chi.Router) {
		r.Get("/", h.handleGetSession)
		r.Get("/profile", h.handleProfile)
		r.Post("/login", h.handleLogin)
		r.Post("/logout", h.handleLogout)
		r.Post("/reset", h.handleReset)
		r.Get("/messages", h.handleListMessages)
		r.Post("/messages", h.handleSendMessage)
	})
}

// ErrorStatus 将服务层错误映射为 HTTP 状态码与用户可见信息。
func ErrorStatus(err error) (int, string) {
	var serviceErr *conversation.ServiceError
	switch {
	case errors.Is(err, chatService.ErrSessionNotFound):
		return http.StatusNotFound, "session not found"
	case errors.Is(err, chatService.ErrInvalidPassword):
		return http.StatusUnauthorized, chatService.RejectionMessage
	case errors.Is(err, chatService.ErrUnauthenticated):
		return http.StatusUnauthorized, "login required"
	case errors.Is(err, chatService.ErrEmptyMessage):
		return http.StatusBadRequest, "content is required"
	case errors.As(err, &serviceErr):
		return http.StatusBadGateway, GenerationFailedMessage
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func respondServiceError(w http.ResponseWriter, err error) {
	status, message := ErrorStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("component", "handler").Int("status", status).Msg("request failed")
	}
	utils.RespondError(w, status, message)
}

// handleCreateSession 创建会话
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.CreateSession(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, session.View())
}

// handleGetSession 返回会话快照
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session.View())
}

// handleProfile 返回已收集的出生信息
func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.chatSvc.Profile(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, profile)
}

// handleLogin 校验共享口令
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Password string `json:"password"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.chatSvc.Login(r.Context(), chi.URLParam(r, "sessionID"), payload.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session.View())
}

// handleLogout 退出登录并清空会话
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.Logout(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session.View())
}

// handleReset 重新开始对话
func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.Reset(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session.View())
}

// handleListMessages 返回会话的完整对话记录
func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	messages, err := h.chatSvc.LoadTranscript(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"sessionId": sessionID,
		"messages":  messages,
	})
}

// handleSendMessage 处理一条用户消息
func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content string `json:"content"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.chatSvc.Send(r.Context(), chi.URLParam(r, "sessionID"), payload.Content)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session.View())
}
