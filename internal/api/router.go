package api

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"

	"github.com/wonny/stockdash/internal/api/handlers"
	"github.com/wonny/stockdash/pkg/logger"
)

// Handlers groups everything the router mounts
type Handlers struct {
	Dataset *handlers.DatasetHandler
	Chart   *handlers.ChartHandler
	Uploads *handlers.UploadsHandler
	Health  *handlers.HealthHandler
	Live    http.Handler // websocket hub
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, limiter *UploadLimiter, allowedOrigins []string, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.Health.Check).Methods("GET")
	r.Handle("/ws", h.Live).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Dataset
	api.Handle("/dataset/upload", limiter.Middleware(http.HandlerFunc(h.Dataset.Upload))).Methods("POST")
	api.HandleFunc("/dataset", h.Dataset.Get).Methods("GET")
	api.HandleFunc("/dataset", h.Dataset.Reset).Methods("DELETE")
	api.HandleFunc("/dataset/options", h.Dataset.Options).Methods("GET")
	api.HandleFunc("/dataset/filter", h.Dataset.Filter).Methods("POST")

	// Chart
	api.HandleFunc("/chart", h.Chart.Spec).Methods("POST")
	api.HandleFunc("/chart.png", h.Chart.PNG).Methods("GET")

	// Upload archive
	api.HandleFunc("/uploads", h.Uploads.List).Methods("GET")
	api.HandleFunc("/uploads/{id}/restore", h.Uploads.Restore).Methods("POST")

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	// CORS wraps the router so preflight requests never reach method matching
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After", "X-Cache"},
		AllowCredentials: false,
		MaxAge:           300,
	})(r)
}
