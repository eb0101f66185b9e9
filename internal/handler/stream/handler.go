package stream

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	chatHandler "github.com/manishsharma864/ai-horroscope/internal/handler/chat"
	chatmodel "github.com/manishsharma864/ai-horroscope/internal/model/chat"
	chatService "github.com/manishsharma864/ai-horroscope/internal/service/chat"
	"github.com/manishsharma864/ai-horroscope/pkg/utils"
)

var errStreamingUnsupported = errors.New("streaming unsupported")

// Handler streams one conversation turn via Server-Sent Events
type Handler struct {
	chatSvc *chatService.Service
}

// New creates a new stream handler
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// StreamResponse is the data payload of one named SSE event
type StreamResponse struct {
	Content   string `json:"content,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Step      string `json:"step,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

// RegisterRoutes mounts the SSE endpoint
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{sessionID}", h.handleStream)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	userMessage := r.URL.Query().Get("message")

	if userMessage == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}

	if err := h.HandleStreamRequest(r.Context(), w, sessionID, userMessage); err != nil {
		log.Warn().Err(err).Str("component", "stream").Str("session", sessionID).Msg("stream request failed")
	}
}

// HandleStreamRequest runs one user message through the session and reports
// the bot reply as SSE events. Failures after the headers are written are
// delivered as an error event.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID string, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return errStreamingUnsupported
	}

	utils.SetupSSEHeaders(w)

	utils.SendSSEEvent(w, flusher, "start", StreamResponse{
		SessionID: sessionID,
	})

	session, err := h.chatSvc.Send(ctx, sessionID, userMessage)
	if err != nil {
		_, message := chatHandler.ErrorStatus(err)
		utils.SendSSEEvent(w, flusher, "error", StreamResponse{
			SessionID: sessionID,
			Error:     message,
		})
		return err
	}

	utils.SendSSEEvent(w, flusher, "user", StreamResponse{
		SessionID: sessionID,
		Content:   userMessage,
	})

	reply := lastBotMessage(session.Conversation.Messages)
	utils.SendSSEEvent(w, flusher, "message", StreamResponse{
		SessionID: sessionID,
		Step:      string(session.Conversation.Step),
		Content:   reply,
	})

	utils.SendSSEEvent(w, flusher, "end", StreamResponse{
		SessionID: sessionID,
		Finished:  true,
	})

	log.Debug().Str("component", "stream").Str("session", sessionID).Str("step", string(session.Conversation.Step)).Msg("completed response")
	return nil
}

func lastBotMessage(messages []chatmodel.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == chatmodel.RoleBot {
			return messages[i].Content
		}
	}
	return ""
}
