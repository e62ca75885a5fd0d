package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/pribylovaa/wishlist-service/internal/errors"
	"github.com/pribylovaa/wishlist-service/internal/http/handlers"
	"github.com/pribylovaa/wishlist-service/internal/http/middleware"
	"github.com/pribylovaa/wishlist-service/internal/metrics"
	"github.com/pribylovaa/wishlist-service/internal/service"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger     *slog.Logger
	Timeout    time.Duration
	Metrics    *metrics.Metrics
	CookieName string
	BasePath   string // например, "/api"; если пустой — роуты регистрируются на корне.
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc handlers.WishlistService, sessions middleware.SessionResolver, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),
		middleware.RequestID(), // до логирования, чтобы request_id попал в логгер
		middleware.Logging(opts.Logger),
		middleware.Metrics(opts.Metrics),
		middleware.Timeout(opts.Timeout),
	)

	root.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apierrors.WriteError(w, r, fmt.Errorf("router: %w", service.ErrNotFound))
	})

	h := handlers.New(svc)
	auth := middleware.Session(sessions, opts.CookieName)

	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h, auth)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h, auth)
	return root
}

// registerRoutes — единая точка регистрации REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, auth middleware.Middleware) {
	r.Route("/wishlists", func(r chi.Router) {
		r.Use(auth)

		r.Get("/{id}", h.GetWishlist)
		r.Post("/{id}/products/{productId}/comments", h.AppendComment)
		r.Post("/{id}/products/{productId}/reactions", h.AddReaction)
	})
}
