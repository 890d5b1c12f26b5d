package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/fundlens/internal/api/handlers"
	"github.com/wonny/fundlens/pkg/logger"
	"github.com/wonny/fundlens/pkg/metrics"
)

// Handlers groups everything the router dispatches to
type Handlers struct {
	Health    *handlers.HealthHandler
	Fund      *handlers.FundHandler
	Analysis  *handlers.AnalysisHandler
	Portfolio *handlers.PortfolioHandler
	Data      *handlers.DataHandler // nil이면 데이터 API 비활성
	Stream    http.Handler          // nil이면 /ws/quotes 비활성
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, m *metrics.Metrics, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", h.Health.Health).Methods("GET")

	// Realtime quotes
	if h.Stream != nil {
		r.Handle("/ws/quotes", h.Stream).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	// Fund endpoints
	api.HandleFunc("/funds", h.Fund.GetQuotes).Methods("GET")
	api.HandleFunc("/funds/{code}/quote", h.Fund.GetQuote).Methods("GET")
	api.HandleFunc("/funds/{code}/nav", h.Fund.GetNAV).Methods("GET")
	api.HandleFunc("/funds/{code}/analysis", h.Fund.GetAnalysis).Methods("GET")
	api.HandleFunc("/funds/{code}/score", h.Fund.GetScore).Methods("GET")
	api.HandleFunc("/funds/{code}/trend", h.Fund.GetTrend).Methods("GET")
	api.HandleFunc("/funds/{code}/best-dip-day", h.Fund.GetBestDIPDay).Methods("GET")
	api.HandleFunc("/funds/{code}/dip", h.Fund.GetDIP).Methods("GET")
	api.HandleFunc("/funds/{code}/report", h.Fund.GetReport).Methods("GET")

	// Multi-fund / ad-hoc analysis
	api.HandleFunc("/analysis/correlation", h.Analysis.Correlation).Methods("POST")
	api.HandleFunc("/analysis/statistics", h.Analysis.Statistics).Methods("POST")

	// Portfolio
	api.HandleFunc("/portfolio/allocation", h.Portfolio.GetAllocation).Methods("GET")
	api.HandleFunc("/portfolio/holdings", h.Portfolio.ListHoldings).Methods("GET")
	api.HandleFunc("/portfolio/holdings/{code}", h.Portfolio.PutHolding).Methods("PUT")
	api.HandleFunc("/portfolio/holdings/{code}", h.Portfolio.DeleteHolding).Methods("DELETE")

	// Data endpoints
	if h.Data != nil {
		api.HandleFunc("/data/quality", h.Data.GetQuality).Methods("GET")
		api.HandleFunc("/data/collect", h.Data.Collect).Methods("POST")
	}

	// 서브라우터는 루트 핸들러를 상속하지 않음
	for _, rt := range []*mux.Router{r, api} {
		rt.NotFoundHandler = http.HandlerFunc(notFoundHandler)
		rt.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowedHandler)
	}

	// Apply middleware
	r.Use(loggingMiddleware(m, log))
	r.Use(recoveryMiddleware(log))

	return r
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "Not found")
}

func methodNotAllowedHandler(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}

// statusRecorder captures the response status for logging and metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the hijacker (websocket upgrade)
func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// loggingMiddleware logs HTTP requests and records request metrics
func loggingMiddleware(m *metrics.Metrics, log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 웹소켓은 Hijacker가 필요하므로 래핑하지 않음
			if r.Header.Get("Upgrade") == "websocket" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			// Call next handler
			next.ServeHTTP(rec, r)

			route := r.URL.Path
			if cur := mux.CurrentRoute(r); cur != nil {
				if tpl, err := cur.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			duration := time.Since(start)
			m.ObserveHTTP(route, r.Method, rec.status, duration)

			// Log request
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": duration,
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					writeError(w, http.StatusInternalServerError, "Internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
