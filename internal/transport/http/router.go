package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"matchday/internal/handler"
	"matchday/internal/httputil"
	authmw "matchday/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	NotificationHandler *handler.NotificationHandler
	DeviceHandler       *handler.DeviceHandler
	SettingsHandler     *handler.SettingsHandler
	AdminHandler        *handler.AdminHandler
	EventHandler        *handler.EventHandler
	JWTSecret           string
	AllowedOrigins      []string
	RateLimiter         *authmw.RateLimiter // nil disables per-IP limiting
	MetricsHandler      http.Handler        // nil hides /metrics
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Limit)
		}
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		// User-facing notification centre
		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", cfg.NotificationHandler.List)
			r.Get("/unread-count", cfg.NotificationHandler.GetUnreadCount)
			r.Patch("/read", cfg.NotificationHandler.MarkRead)
			r.Post("/read-all", cfg.NotificationHandler.MarkAllRead)
		})

		r.Get("/devices", cfg.DeviceHandler.List)
		r.Post("/devices/token", cfg.DeviceHandler.Register)
		r.Delete("/devices/token", cfg.DeviceHandler.Remove)

		r.Get("/notification-settings", cfg.SettingsHandler.Get)
		r.Patch("/notification-settings", cfg.SettingsHandler.Update)

		r.Get("/subscriptions", cfg.SettingsHandler.ListSubscriptions)
		r.Post("/subscriptions", cfg.SettingsHandler.Subscribe)
		r.Delete("/subscriptions/{type}/{entityID}", cfg.SettingsHandler.Unsubscribe)

		// Operator sends run synchronously and return the DispatchResult
		r.Route("/admin", func(r chi.Router) {
			r.Use(authmw.RequireRole(authmw.RoleAdmin))
			r.Post("/notifications/send", cfg.AdminHandler.Send)
			r.Post("/notifications/broadcast", cfg.AdminHandler.Broadcast)
			r.Post("/matches/{id}/notify/{event}", cfg.AdminHandler.NotifyMatch)
		})
	})

	// Service-to-service event intake; not rate limited
	r.Route("/internal/events", func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))
		r.Use(authmw.RequireRole(authmw.RoleService, authmw.RoleAdmin))
		r.Post("/match", cfg.EventHandler.MatchEvent)
		r.Post("/comment-reply", cfg.EventHandler.CommentReply)
		r.Post("/comment-reaction", cfg.EventHandler.CommentReaction)
	})

	return r
}
