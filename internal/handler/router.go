package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/manishsharma864/ai-horroscope/internal/handler/chat"
	"github.com/manishsharma864/ai-horroscope/internal/handler/stream"
	"github.com/manishsharma864/ai-horroscope/internal/handler/ws"
	middlewarePkg "github.com/manishsharma864/ai-horroscope/internal/middleware"
	chatService "github.com/manishsharma864/ai-horroscope/internal/service/chat"
	"github.com/manishsharma864/ai-horroscope/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(chatSvc *chatService.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	chatHandler := chat.New(chatSvc)
	streamHandler := stream.New(chatSvc)
	wsHandler := ws.New(chatSvc)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", handleHealth)

		chatHandler.RegisterRoutes(api)
		streamHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
