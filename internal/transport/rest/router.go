package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/regulariza/process-management/internal/audit"
	"github.com/regulariza/process-management/internal/auth"
	"github.com/regulariza/process-management/internal/document"
	"github.com/regulariza/process-management/internal/notification"
	"github.com/regulariza/process-management/internal/process"
	"github.com/regulariza/process-management/internal/reporting"
	"github.com/regulariza/process-management/internal/transport/middleware"
	"github.com/regulariza/process-management/internal/transport/swagger"
	"github.com/regulariza/process-management/internal/user"
)

type Handlers struct {
	Auth         *auth.Handler
	User         *user.Handler
	Process      *process.Handler
	Document     *document.Handler
	Audit        *audit.Handler
	Notification *notification.Handler
	Reporting    *reporting.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, handlers Handlers, rbac *auth.RBACAuthorization, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// OpenAPI spec and Swagger UI live outside the API prefix
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if handlers.Auth != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", handlers.Auth.Login)
				sr.Post("/refresh", handlers.Auth.RefreshToken)
				sr.Post("/logout", handlers.Auth.Logout)
			})
		}

		if handlers.Auth == nil {
			return
		}

		// everything below requires a valid session
		r.Group(func(pr chi.Router) {
			pr.Use(handlers.Auth.AuthMiddleware)

			if handlers.User != nil {
				pr.Get("/users/me", handlers.User.Me)

				pr.Group(func(ar chi.Router) {
					ar.Use(rbac.RequireAdminView())
					ar.Get("/users", handlers.User.List)
				})

				pr.Group(func(ar chi.Router) {
					ar.Use(rbac.RequireUserManagement())
					ar.Post("/users", handlers.User.CreateClient)
					ar.Patch("/users/{id}", handlers.User.Update)
					ar.Delete("/users/{id}", handlers.User.Deactivate)
				})
			}

			if handlers.Process != nil {
				pr.Route("/processes", func(er chi.Router) {
					// clients see their own cases through the same routes;
					// the service pins the client filter
					er.Get("/", handlers.Process.ListProcesses)
					er.Get("/{id}", handlers.Process.GetProcess)

					er.Group(func(mr chi.Router) {
						mr.Use(rbac.RequireEditor())
						mr.Post("/", handlers.Process.CreateProcess)
						mr.Patch("/{id}/status", handlers.Process.UpdateStatus)
						mr.Post("/{id}/steps", handlers.Process.AddStep)
						mr.Patch("/{id}/steps/{stepID}/complete", handlers.Process.CompleteStep)
					})

					if handlers.Document != nil {
						er.Get("/{id}/documents", handlers.Document.ListByProcess)

						er.Group(func(mr chi.Router) {
							mr.Use(rbac.RequireEditor())
							mr.Post("/{id}/documents", handlers.Document.AddRequirement)
						})
					}
				})
			}

			if handlers.Document != nil {
				pr.Post("/documents/{documentID}/upload", handlers.Document.Upload)

				pr.Group(func(mr chi.Router) {
					mr.Use(rbac.RequireEditor())
					mr.Patch("/documents/{documentID}/review", handlers.Document.Review)
					mr.Delete("/documents/{documentID}/file", handlers.Document.Remove)
				})
			}

			if handlers.Audit != nil {
				pr.Group(func(ar chi.Router) {
					ar.Use(rbac.RequireAdminView())
					ar.Get("/audit-logs", handlers.Audit.GetAuditLogs)
				})
			}

			if handlers.Notification != nil {
				pr.Route("/notifications", func(nr chi.Router) {
					nr.Get("/", handlers.Notification.List)
					nr.Get("/unread-count", handlers.Notification.UnreadCount)
					nr.Patch("/{id}/read", handlers.Notification.MarkRead)
					nr.Post("/read-all", handlers.Notification.MarkAllRead)
				})
			}

			if handlers.Reporting != nil {
				pr.Group(func(ar chi.Router) {
					ar.Use(rbac.RequireAdminView())
					ar.Get("/reports/metrics", handlers.Reporting.Metrics)
					ar.Get("/reports/export", handlers.Reporting.Export)
					ar.Post("/reports/crm-sync/{processID}", handlers.Reporting.CRMSync)
				})
			}
		})
	})
}
