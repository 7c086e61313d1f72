package handler

import (
	"net/http"
)

// CollectionGet runs the query pipeline over the entity collection.
func (h *Handlers) CollectionGet(w http.ResponseWriter, r *http.Request) {
	m, ok := h.lookup(w, r)
	if !ok {
		return
	}
	result, err := h.Collections.Get(r.Context(), m, r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// CollectionPost creates an entity.
func (h *Handlers) CollectionPost(w http.ResponseWriter, r *http.Request) {
	m, ok := h.lookup(w, r)
	if !ok {
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	result, err := h.Items.Post(r.Context(), m, body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, result)
}
