package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jqshop/labelgen/internal/form"
	"github.com/jqshop/labelgen/internal/printer"
	"github.com/jqshop/labelgen/internal/storage"
	"github.com/jqshop/labelgen/internal/workspace"
)

// Factory creates the workspace behind a new label session
type Factory func() *workspace.Workspace

type Handler struct {
	sessionStore *storage.SessionStore[*workspace.Workspace]
	newSession   Factory
}

func New(factory Factory) *Handler {
	return &Handler{
		sessionStore: storage.New[*workspace.Workspace](),
		newSession:   factory,
	}
}

// Close tears down every open session
func (h *Handler) Close() {
	for id := range h.sessionStore.GetAll() {
		if ws, ok := h.sessionStore.Delete(id); ok {
			ws.Close()
		}
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// writeActionError maps form and print failures to status codes
func (h *Handler) writeActionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, form.ErrNotReady):
		h.writeError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, printer.ErrPreviewNotFound):
		h.writeError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, printer.ErrSurfaceUnavailable):
		h.writeError(w, err.Error(), http.StatusServiceUnavailable)
	default:
		h.writeError(w, err.Error(), http.StatusInternalServerError)
	}
}

// Session helpers
func (h *Handler) getSessionOrError(w http.ResponseWriter, sessionID string) (*workspace.Workspace, bool) {
	session, exists := h.sessionStore.Get(sessionID)
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return session, true
}

func (h *Handler) createSession() *workspace.Workspace {
	ws := h.newSession()
	h.sessionStore.Set(ws.ID, ws)
	return ws
}
