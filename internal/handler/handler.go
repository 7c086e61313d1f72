package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"RestQueryAPI/internal/item"
	"RestQueryAPI/internal/logger"
	"RestQueryAPI/internal/model"
)

// maxBodyBytes ограничивает тело POST/PUT
const maxBodyBytes = 1 << 20

type CollectionGetter interface {
	Get(ctx context.Context, m *model.Model, p url.Values) (map[string]any, error)
}

type ItemController interface {
	Get(ctx context.Context, m *model.Model, id string) (map[string]any, error)
	Put(ctx context.Context, m *model.Model, id string, body []byte) (map[string]any, error)
	Post(ctx context.Context, m *model.Model, body []byte) (map[string]any, error)
	Delete(ctx context.Context, m *model.Model, id string) (map[string]any, error)
}

// Handlers serves /api/{entity} and /api/{entity}/{id}.
type Handlers struct {
	Registry    map[string]*model.Model
	Collections CollectionGetter
	Items       ItemController
}

func (h *Handlers) lookup(w http.ResponseWriter, r *http.Request) (*model.Model, bool) {
	name := r.PathValue("entity")
	m, ok := model.Lookup(h.Registry, name)
	if !ok {
		logger.Warn("unknown_entity", map[string]any{
			"endpoint": r.URL.Path,
			"entity":   name,
		})
		writeError(w, r, &item.Error{Status: http.StatusNotFound, Message: item.MsgNotFound})
		return nil, false
	}
	return m, true
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("write_response_failed", map[string]any{
			"endpoint": r.URL.Path,
			"error":    err.Error(),
		})
	}
}

// writeError renders {"success": false, "error": "<message>"}. The cause is
// only logged.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := item.AsError(err)
	fields := map[string]any{
		"endpoint": r.URL.Path,
		"method":   r.Method,
		"status":   e.Status,
		"error":    e.Error(),
	}
	if e.Status >= http.StatusInternalServerError {
		logger.Error("request_failed", fields)
	} else {
		logger.Warn("request_rejected", fields)
	}
	writeJSON(w, r, e.Status, map[string]any{
		"success": false,
		"error":   e.Message,
	})
}
