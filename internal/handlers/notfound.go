package handlers

import "net/http"

// NotFound renders the page shown for unknown routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "not_found.html", &layoutData{Title: "Page not found"})
}
