package router

import (
	"net/http"

	"RestQueryAPI/internal/config"
	"RestQueryAPI/internal/handler"
	"RestQueryAPI/internal/logger"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// NewMux регистрирует маршруты API; CORS и логирование оборачивают весь mux,
// чтобы preflight не упирался в 405.
func NewMux(cfg config.CORSConfig, h *handler.Handlers) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/{entity}", h.CollectionGet)
	mux.HandleFunc("POST /api/{entity}", h.CollectionPost)
	mux.HandleFunc("GET /api/{entity}/{id}", h.ItemGet)
	mux.HandleFunc("PUT /api/{entity}/{id}", h.ItemPut)
	mux.HandleFunc("DELETE /api/{entity}/{id}", h.ItemDelete)
	return newCORSPolicy(cfg).wrap(withLogging(mux.ServeHTTP))
}

// InitRoutes инициализирует маршруты на DefaultServeMux
func InitRoutes(cfg config.CORSConfig, h *handler.Handlers) {
	http.Handle("/", NewMux(cfg, h))
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(sw, r)
		level := "info"
		if sw.status >= 500 {
			level = "error"
		} else if sw.status >= 400 {
			level = "warn"
		}
		fields := map[string]any{
			"method":     r.Method,
			"path":       r.URL.Path,
			"query":      r.URL.RawQuery,
			"status":     sw.status,
			"request_id": id,
		}
		switch level {
		case "error":
			logger.Error("response", fields)
		case "warn":
			logger.Warn("response", fields)
		default:
			logger.Info("response", fields)
		}
	}
}
