package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lexbid/lexbid-backend/api/controllers"
	webhookcontrollers "github.com/lexbid/lexbid-backend/api/controllers/webhooks"
	"github.com/lexbid/lexbid-backend/api/middleware"
	"github.com/lexbid/lexbid-backend/internal/cases"
	"github.com/lexbid/lexbid-backend/internal/files"
	"github.com/lexbid/lexbid-backend/internal/payments"
	"github.com/lexbid/lexbid-backend/internal/quotes"
	"github.com/lexbid/lexbid-backend/internal/reconciliation"
	"github.com/lexbid/lexbid-backend/pkg/config"
	"github.com/lexbid/lexbid-backend/pkg/enums"
	"github.com/lexbid/lexbid-backend/pkg/logger"
	"github.com/lexbid/lexbid-backend/pkg/provider"
)

// Deps bundles everything the HTTP layer needs. Pingers are keyed by the
// dependency name reported from the readiness endpoint.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	Pingers        map[string]controllers.Pinger
	ProviderClient *provider.Client
	Cases          cases.Service
	Quotes         quotes.Service
	Payments       payments.Service
	Files          files.Service
	Reconciliation reconciliation.Service
	Metrics        http.Handler
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})

	metricsHandler := deps.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/provider", webhookcontrollers.ProviderWebhook(deps.Reconciliation, deps.ProviderClient, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		// Detail and file reads authorize per-resource inside the services:
		// both sides of the marketplace may hit them.
		r.Get("/cases/{caseId}", controllers.CaseDetail(deps.Cases, logg))
		r.Get("/cases/{caseId}/files", controllers.FileList(deps.Files, logg))
		r.Get("/files/{fileId}/download-url", controllers.FileDownloadURL(deps.Files, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.ActorRoleClient, logg))

			r.Post("/cases", controllers.CaseCreate(deps.Cases, logg))
			r.Get("/cases", controllers.CaseListMine(deps.Cases, logg))
			r.Post("/cases/{caseId}/close", controllers.CaseClose(deps.Cases, logg))
			r.Post("/cases/{caseId}/cancel", controllers.CaseCancel(deps.Cases, logg))
			r.Post("/cases/{caseId}/files/prepare-upload", controllers.FilePrepareUpload(deps.Files, logg))
			r.Post("/cases/{caseId}/files", controllers.FileAttach(deps.Files, logg))

			r.Post("/payments/intents", controllers.PaymentIntentCreate(deps.Payments, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.ActorRoleLawyer, logg))

			r.Get("/open-cases", controllers.CaseListOpen(deps.Cases, logg))
			r.Put("/quotes", controllers.QuoteSubmit(deps.Quotes, logg))
			r.Get("/quotes", controllers.QuoteListMine(deps.Quotes, logg))
			r.Delete("/quotes/{quoteId}", controllers.QuoteWithdraw(deps.Quotes, logg))
		})

		// Payment status is readable by either party on the payment.
		r.Get("/payments/{paymentId}", controllers.PaymentStatus(deps.Payments, logg))
	})

	return r
}
