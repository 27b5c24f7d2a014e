package handler

import (
	"net/http"
	"time"

	"github.com/pwasut/harnkan/internal/category"
	"github.com/pwasut/harnkan/internal/infra/observability"
	"github.com/pwasut/harnkan/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services bundles everything the router needs.
type Services struct {
	Bills   *service.BillService
	Stats   *service.StatsService
	Share   *service.ShareService
	Chat    *service.ChatService
	Metrics *observability.Metrics
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svcs Services, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLogger(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(requestCounter(svcs.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(svcs.Metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// Bills
		// =============================================
		r.Route("/users/{userId}/bills", func(r chi.Router) {
			r.Get("/", listBillsHandler(svcs.Bills, logger))
			r.Post("/", createBillHandler(svcs.Bills, logger))
			r.Get("/{billId}", getBillHandler(svcs.Bills, logger))
			r.Patch("/{billId}", updateBillHandler(svcs.Bills, logger))
			r.Delete("/{billId}", deleteBillHandler(svcs.Bills, logger))
			r.Post("/{billId}/participants/{participantId}/pay", markPaidHandler(svcs.Bills, logger))
			r.Get("/{billId}/pending", billPendingHandler(svcs.Bills, logger))
			r.Post("/{billId}/share", mintShareLinkHandler(svcs.Share, logger))
			r.Delete("/{billId}/share/{linkId}", revokeShareLinkHandler(svcs.Share, logger))
		})

		// =============================================
		// Statistics & pending ledger
		// =============================================
		r.Get("/users/{userId}/statistics", statisticsHandler(svcs.Stats, logger))
		r.Get("/users/{userId}/pending", pendingLedgerHandler(svcs.Stats, logger))

		// =============================================
		// Public share resolution
		// =============================================
		r.Get("/share/{token}", resolveShareLinkHandler(svcs.Share, logger))

		// =============================================
		// PromptPay QR
		// =============================================
		r.Post("/promptpay/qr", promptPayHandler(svcs.Metrics, logger))

		// =============================================
		// Chat widget
		// =============================================
		r.Post("/chat", chatHandler(svcs.Chat, logger))

		// =============================================
		// Category catalog & metrics rollup
		// =============================================
		r.Get("/categories", categoriesHandler())
		r.Get("/metrics/summary", metricsSummaryHandler(svcs.Metrics))
	})

	return r
}

// requestCounter feeds the requests_total counter behind the
// /v1/metrics/summary error rate.
func requestCounter(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if ww.Status() >= http.StatusBadRequest {
				metrics.IncrRequest("error")
			} else {
				metrics.IncrRequest("success")
			}
		})
	}
}

// ============================================================
// Operational
// ============================================================

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func categoriesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"categories": category.All()})
	}
}

func metricsSummaryHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetSummary())
	}
}
