package handlers

import (
	"log/slog"
	"net/http"
	"strings"
)

// HandleIndex starts a new label session and redirects to its page
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	session := h.createSession()
	http.Redirect(w, r, "/sessions/"+session.ID, http.StatusFound)
}

// HandlePage serves the host page of a session
func (h *Handler) HandlePage(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimPrefix(r.URL.Path, "/sessions/")

	session, ok := h.getSessionOrError(w, sessionID)
	if !ok {
		return
	}

	page, err := session.Page()
	if err != nil {
		h.writeError(w, "Failed to render page: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(page)); err != nil {
		slog.Error("Unable to write page", "err", err)
	}
}
