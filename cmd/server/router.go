package main

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/phrazzld/taskboard/internal/api"
	apiMiddleware "github.com/phrazzld/taskboard/internal/api/middleware"
	"github.com/phrazzld/taskboard/internal/api/shared"
	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.config.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	secureCookie := allHTTPS(app.config.Server.AllowedOrigins)
	authHandler := api.NewAuthHandler(app.userService, app.jwtService, &app.config.Auth, secureCookie, app.logger)
	taskHandler := api.NewTaskHandler(app.taskService, app.logger)
	userHandler := api.NewUserHandler(app.userService, app.logger)
	lockHandler := api.NewLockHandler(app.coordinator, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	adminOnly := apiMiddleware.RequireRole(domain.RoleAdmin, domain.RoleSuperAdmin)
	superAdminOnly := apiMiddleware.RequireRole(domain.RoleSuperAdmin)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh-token", authHandler.RefreshToken)
			r.Post("/logout", authHandler.Logout)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.ListTasks)
			r.Get("/{id}", taskHandler.GetTask)

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.Authenticate)
				r.Post("/", taskHandler.CreateTask)
				r.Patch("/{id}", taskHandler.UpdateTask)
				r.Delete("/{id}", taskHandler.DeleteTask)
			})
		})

		r.Get("/locks", lockHandler.ListLocks)

		r.Route("/users", func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Get("/profile", userHandler.GetProfile)

			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Get("/", userHandler.ListUsers)
				r.Post("/", userHandler.CreateUser)
				r.Get("/{id}", userHandler.GetUser)
				r.Patch("/{id}", userHandler.UpdateUser)
			})
			r.With(superAdminOnly).Delete("/{id}", userHandler.DeleteUser)
		})
	})

	r.Handle("/ws", app.realtime)
	r.Get("/health", app.handleHealth)
	if app.config.Server.MetricsEnabled {
		r.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{Registry: app.registry}))
	}

	return r
}

// handleHealth reports liveness together with database reachability and
// the size of the real-time state.
func (app *application) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	if err := app.db.PingContext(ctx); err != nil {
		status, code = "degraded", http.StatusServiceUnavailable
		app.logger.Warn("health check database ping failed", slog.String("error", err.Error()))
	}

	shared.RespondWithJSON(w, r, code, map[string]interface{}{
		"status":      status,
		"connections": app.hub.Len(),
		"locks":       app.coordinator.Len(),
	})
}

// allHTTPS reports whether every allowed origin is served over TLS.
func allHTTPS(origins []string) bool {
	if len(origins) == 0 {
		return false
	}
	for _, o := range origins {
		if !strings.HasPrefix(o, "https://") {
			return false
		}
	}
	return true
}
