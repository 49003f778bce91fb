package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/campaign-scorer/internal/api/handlers"
	"github.com/wonny/campaign-scorer/internal/inference"
	"github.com/wonny/campaign-scorer/internal/metrics"
	"github.com/wonny/campaign-scorer/pkg/logger"
)

// RouterOptions holds the collaborators the router needs
type RouterOptions struct {
	Version     string
	CORSOrigins []string
	Limiter     Limiter          // nil disables rate limiting
	Metrics     *metrics.Metrics // nil hides /metrics
	Checks      []handlers.DependencyCheck
	Jobs        handlers.JobReporter // nil hides jobs in /health
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(service *inference.Service, opts RouterOptions, log *logger.Logger) http.Handler {
	scoring := handlers.NewScoringHandler(service, opts.Version, opts.Checks, opts.Jobs, log)
	hist := handlers.NewHistoryHandler(service, log)
	stream := handlers.NewStreamHandler(service, opts.CORSOrigins, log)

	r := mux.NewRouter()

	// Status
	r.HandleFunc("/", scoring.Root).Methods("GET")
	r.HandleFunc("/health", scoring.Health).Methods("GET")
	r.HandleFunc("/model/info", scoring.ModelInfo).Methods("GET")
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics.Handler()).Methods("GET")
	}

	// Scoring
	score := r.NewRoute().Subrouter()
	score.HandleFunc("/predict", scoring.Predict).Methods("POST", "OPTIONS")
	score.HandleFunc("/predict/batch", scoring.PredictBatch).Methods("POST", "OPTIONS")
	score.HandleFunc("/ws/predict", stream.Serve).Methods("GET")
	if opts.Limiter != nil {
		score.Use(rateLimitMiddleware(opts.Limiter, log))
	}

	// API
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/predictions", hist.Recent).Methods("GET")
	api.HandleFunc("/predictions/summary", hist.Summary).Methods("GET")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Apply middleware
	r.Use(requestIDMiddleware())
	r.Use(corsMiddleware(opts.CORSOrigins))
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}
