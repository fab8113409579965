package handlers

import (
	"log/slog"
	"net/http"

	"github.com/jqshop/labelgen/internal/ui"
)

// Routes registers every endpoint on a new mux
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sessions", h.HandleSessions)
	mux.HandleFunc("/api/sessions/", h.HandleSessionDetail)
	mux.HandleFunc("/sessions/", h.HandlePage)
	mux.Handle(ui.StaticPrefix, ui.Static())
	mux.HandleFunc("/", h.HandleIndex)
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	return mux
}
