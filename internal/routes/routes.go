package routes

import (
	"net/http"

	"github.com/templui/promoproof/internal/app"
	"github.com/templui/promoproof/internal/handler"
	"github.com/templui/promoproof/internal/metrics"
	"github.com/templui/promoproof/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	materials := handler.NewMaterialHandler(app.CatalogService, app.Cfg.MaxUploadSize)
	evidence := handler.NewEvidenceHandler(app.EvidenceService, app.Cfg.MaxUploadSize)
	status := handler.NewStatusHandler(app.StatusService)

	mux := http.NewServeMux()

	// ============================================================================
	// CATALOG
	// ============================================================================

	mux.HandleFunc("GET /materials", materials.List)
	mux.HandleFunc("GET /materials/{id}", materials.Asset)
	mux.HandleFunc("POST /materials", materials.Register)

	// ============================================================================
	// EVIDENCE & REVIEW
	// ============================================================================

	// Uploads (rate limited)
	uploadLimiter := middleware.RateLimit(app.Cfg.UploadRateLimit, app.Cfg.UploadRateWindow)
	mux.HandleFunc("POST /uploads", uploadLimiter(evidence.Submit))
	mux.HandleFunc("GET /uploads", evidence.List)
	mux.HandleFunc("GET /uploads/{id}", evidence.Show)
	mux.HandleFunc("GET /uploads/{id}/screenshot", evidence.Screenshot)

	mux.HandleFunc("POST /review/{id}", evidence.Review)
	mux.HandleFunc("GET /qr/{ref}", evidence.QR)

	// ============================================================================
	// OPERATIONS
	// ============================================================================

	mux.HandleFunc("GET /status", status.Status)
	mux.HandleFunc("GET /health", status.Health)
	mux.Handle("GET /metrics", metrics.Handler())

	// 404
	mux.HandleFunc("/{path...}", status.NotFound)

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.CORS,
		middleware.RequestLogging, // Must stay last: reads the matched route after the mux ran
	)

	return handler
}
