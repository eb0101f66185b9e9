package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	chatHandler "github.com/manishsharma864/ai-horroscope/internal/handler/chat"
	chatService "github.com/manishsharma864/ai-horroscope/internal/service/chat"
)

const defaultReadTimeout = 60 * time.Second

// Handler WebSocket对话处理器
type Handler struct {
	chatSvc     *chatService.Service
	upgrader    websocket.Upgrader
	readTimeout time.Duration
}

// New 创建WebSocket处理器
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{
		chatSvc:     chatSvc,
		readTimeout: defaultReadTimeout,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
}

// TextMessage 文本消息
type TextMessage struct {
	Text string `json:"text"`
}

// LoginMessage 登录消息
type LoginMessage struct {
	Password string `json:"password"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// handleWebSocket 处理WebSocket连接
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		status, message := chatHandler.ErrorStatus(err)
		http.Error(w, message, status)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("component", "websocket").Msg("upgrade failed")
		return
	}
	defer conn.Close()

	log.Info().Str("component", "websocket").Str("session", sessionID).Msg("new connection")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	})

	go h.pingLoop(ctx, conn)

	h.sendInfo(conn, sessionID, map[string]any{
		"type":          "connected",
		"step":          string(session.Conversation.Step),
		"authenticated": session.Authenticated,
	})

	for {
		// 处理消息可能长时间阻塞在文本生成上，每次读取前重新计算超时。
		_ = conn.SetReadDeadline(time.Now().Add(h.readTimeout))

		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("component", "websocket").Str("session", sessionID).Msg("read error")
			}
			return
		}

		if msg.SessionID != "" && msg.SessionID != sessionID {
			h.sendError(conn, "session mismatch")
			continue
		}

		h.handleMessage(ctx, conn, sessionID, &msg)
	}
}

func (h *Handler) handleMessage(ctx context.Context, conn *websocket.Conn, sessionID string, msg *inboundMessage) {
	switch msg.Type {
	case "text":
		h.handleTextMessage(ctx, conn, sessionID, msg.Data)
	case "login":
		h.handleLoginMessage(ctx, conn, sessionID, msg.Data)
	case "reset":
		session, err := h.chatSvc.Reset(ctx, sessionID)
		if err != nil {
			h.sendServiceError(conn, err)
			return
		}
		h.sendView(conn, "reset", session)
	default:
		h.sendError(conn, "unsupported message type: "+msg.Type)
	}
}

func (h *Handler) handleTextMessage(ctx context.Context, conn *websocket.Conn, sessionID string, raw json.RawMessage) {
	var text TextMessage
	if err := json.Unmarshal(raw, &text); err != nil {
		h.sendError(conn, "invalid text payload")
		return
	}

	session, err := h.chatSvc.Send(ctx, sessionID, text.Text)
	if err != nil {
		h.sendServiceError(conn, err)
		return
	}
	h.sendView(conn, "reply", session)
}

func (h *Handler) handleLoginMessage(ctx context.Context, conn *websocket.Conn, sessionID string, raw json.RawMessage) {
	var login LoginMessage
	if err := json.Unmarshal(raw, &login); err != nil {
		h.sendError(conn, "invalid login payload")
		return
	}

	session, err := h.chatSvc.Login(ctx, sessionID, login.Password)
	if err != nil {
		h.sendServiceError(conn, err)
		return
	}
	h.sendView(conn, "login", session)
}

func (h *Handler) sendView(conn *websocket.Conn, kind string, session chatService.Session) {
	view := session.View()
	data := map[string]any{
		"type":          kind,
		"step":          view.Step,
		"authenticated": view.Authenticated,
	}
	if n := len(view.Messages); n > 0 {
		data["content"] = view.Messages[n-1].Content
	}
	h.sendInfo(conn, session.ID, data)
}

func (h *Handler) sendServiceError(conn *websocket.Conn, err error) {
	status, message := chatHandler.ErrorStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("component", "websocket").Int("status", status).Msg("message failed")
	}
	h.sendError(conn, message)
}

func (h *Handler) sendInfo(conn *websocket.Conn, sessionID string, data map[string]any) {
	msg := outgoingMessage{
		Type:      "result",
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Warn().Err(err).Str("component", "websocket").Msg("write info failed")
	}
}

func (h *Handler) sendError(conn *websocket.Conn, message string) {
	msg := outgoingMessage{
		Type:      "error",
		Data:      map[string]string{"message": message},
		Timestamp: time.Now().Unix(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Warn().Err(err).Str("component", "websocket").Msg("write error failed")
	}
}

// pingLoop 定期发送ping消息
func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(h.readTimeout * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
	}
}
