package handler

import (
	"io"
	"net/http"

	"RestQueryAPI/internal/item"
	"RestQueryAPI/internal/logger"
)

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		logger.Warn("read_body_failed", map[string]any{
			"endpoint": r.URL.Path,
			"error":    err.Error(),
		})
		writeError(w, r, &item.Error{Status: http.StatusBadRequest, Message: item.MsgInvalidFormat, Err: err})
		return nil, false
	}
	return body, true
}

func (h *Handlers) ItemGet(w http.ResponseWriter, r *http.Request) {
	m, ok := h.lookup(w, r)
	if !ok {
		return
	}
	result, err := h.Items.Get(r.Context(), m, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

func (h *Handlers) ItemPut(w http.ResponseWriter, r *http.Request) {
	m, ok := h.lookup(w, r)
	if !ok {
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	result, err := h.Items.Put(r.Context(), m, r.PathValue("id"), body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

func (h *Handlers) ItemDelete(w http.ResponseWriter, r *http.Request) {
	m, ok := h.lookup(w, r)
	if !ok {
		return
	}
	result, err := h.Items.Delete(r.Context(), m, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}
