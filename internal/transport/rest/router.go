package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/permitworks/permit-management/internal/auth"
	"github.com/permitworks/permit-management/internal/document"
	"github.com/permitworks/permit-management/internal/memo"
	"github.com/permitworks/permit-management/internal/permit"
	"github.com/permitworks/permit-management/internal/report"
	"github.com/permitworks/permit-management/internal/shop"
	"github.com/permitworks/permit-management/internal/transport/middleware"
	"github.com/permitworks/permit-management/internal/transport/swagger"
	"github.com/permitworks/permit-management/internal/user"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterAllRoutes(
	router *chi.Mux,
	db *sql.DB,
	authHandler *auth.Handler,
	ownership *auth.OwnershipChecker,
	userHandler *user.Handler,
	shopHandler *shop.Handler,
	permitHandler *permit.Handler,
	documentHandler *document.Handler,
	memoHandler *memo.Handler,
	reportHandler *report.Handler,
	logger *slog.Logger,
) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(middleware.RequestID)
	router.Use(middleware.Metrics)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())
	// Prometheus scrape endpoint
	router.Handle("/metrics", promhttp.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		// Health check routes
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Auth routes
		if authHandler != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", authHandler.Login)
				sr.Post("/refresh", authHandler.RefreshToken)
				sr.Post("/logout", authHandler.Logout)
			})
		}

		if authHandler != nil {
			// Protected routes that require authentication
			r.Group(func(pr chi.Router) {
				pr.Use(authHandler.AuthMiddleware)

				// Current user
				if userHandler != nil {
					pr.Get("/users/me", userHandler.GetMe)

					// User management (admins only)
					pr.Group(func(ur chi.Router) {
						ur.Use(middleware.RequirePermission(auth.PermManageUsers))
						ur.Post("/users", userHandler.CreateUser)
						ur.Get("/users", userHandler.ListUsers)
						ur.Get("/users/{id}", userHandler.GetUser)
						ur.Patch("/users/{id}/deactivate", userHandler.DeactivateUser)
						ur.Post("/users/{id}/reset-password", userHandler.ResetPassword)
					})
				}

				// Shop routes; per-shop access rules live in the service
				if shopHandler != nil {
					pr.Route("/shops", func(sr chi.Router) {
						sr.Post("/", shopHandler.CreateShop)
						sr.Get("/", shopHandler.ListShops)
						sr.Get("/{id}", shopHandler.GetShop)
						sr.Put("/{id}", shopHandler.UpdateShop)
						sr.Patch("/{id}/contact", shopHandler.UpdateContact)
					})
				}

				// Permit routes
				if permitHandler != nil {
					pr.Route("/permits", func(er chi.Router) {
						er.Post("/", permitHandler.CreatePermit)
						er.Get("/", permitHandler.ListPermits)

						er.Route("/{permitID}", func(ir chi.Router) {
							ir.Use(ownership.RequirePermitAccess)

							ir.Get("/", permitHandler.GetPermit)
							ir.Patch("/approve", permitHandler.ApprovePermit)
							ir.Patch("/reject", permitHandler.RejectPermit)
							ir.Post("/cancel", permitHandler.CancelPermit)
							ir.Post("/start", permitHandler.StartWork)
							ir.Post("/complete", permitHandler.CompleteWork)
							ir.Get("/qr", permitHandler.GetQRPayload)
							ir.Get("/qr.png", permitHandler.GetQRImage)

							if documentHandler != nil {
								ir.Post("/documents", documentHandler.AttachDocument)
								ir.Get("/documents", documentHandler.ListDocuments)
							}
						})
					})
				}

				// Memo routes
				if memoHandler != nil {
					pr.Route("/memos", func(mr chi.Router) {
						mr.Post("/", memoHandler.CreateMemo)
						mr.Get("/", memoHandler.ListMemos)
						mr.Post("/{memoID}/read", memoHandler.MarkRead)
					})
				}

				// Report routes (requires view_reports permission)
				if reportHandler != nil {
					pr.Group(func(rr chi.Router) {
						rr.Use(middleware.RequirePermission(auth.PermViewReports))
						rr.Get("/reports/permits", reportHandler.PermitReport)
						rr.Get("/reports/shops", reportHandler.ShopsReport)
						rr.Get("/reports/dashboard", reportHandler.Dashboard)
					})
				}
			})
		}
	})
}
