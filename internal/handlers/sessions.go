package handlers

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/jqshop/labelgen/internal/models"
	"github.com/jqshop/labelgen/internal/workspace"
)

func (h *Handler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		sessions := h.sessionStore.GetAll()
		list := make([]*workspace.Workspace, 0, len(sessions))
		for _, session := range sessions {
			list = append(list, session)
		}
		sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })

		summaries := make([]models.SessionSummary, 0, len(list))
		for _, session := range list {
			summaries = append(summaries, session.Summary())
		}
		h.writeJSON(w, summaries)
	case "POST":
		session := h.createSession()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		h.writeJSON(w, session.Summary())
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleSessionDetail serves /api/sessions/{id} and its actions
func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	sessionID, action, _ := strings.Cut(rest, "/")

	session, ok := h.getSessionOrError(w, sessionID)
	if !ok {
		return
	}

	switch action {
	case "":
		h.handleSession(w, r, session)
	case "fields":
		h.handleFields(w, r, session)
	case "image":
		h.HandleImage(w, r, session)
	case "scan":
		h.handleScan(w, r, session)
	case "reset":
		h.handleReset(w, r, session)
	case "generate":
		h.handleGenerate(w, r, session)
	case "print":
		h.handlePrint(w, r, session)
	default:
		h.writeError(w, "Unknown session action: "+action, http.StatusNotFound)
	}
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request, session *workspace.Workspace) {
	switch r.Method {
	case "GET":
		h.writeJSON(w, session.Summary())
	case "DELETE":
		if ws, ok := h.sessionStore.Delete(session.ID); ok {
			ws.Close()
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleFields(w http.ResponseWriter, r *http.Request, session *workspace.Workspace) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	session.Form.HandleFieldEdit(request.Field, request.Value)
	h.writeJSON(w, session.Summary())
}

func (h *Handler) handleScan(w http.ResponseWriter, r *http.Request, session *workspace.Workspace) {
	if session.Scanner == nil {
		h.writeError(w, "No camera configured", http.StatusServiceUnavailable)
		return
	}

	switch r.Method {
	case "POST":
		session.Form.StartScan(r.Context())
	case "DELETE":
		session.Form.StopScan()
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, session.Summary())
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request, session *workspace.Workspace) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session.Form.Reset()
	h.writeJSON(w, session.Summary())
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request, session *workspace.Workspace) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, err := session.Form.Generate(); err != nil {
		h.writeActionError(w, err)
		return
	}
	h.writeJSON(w, session.Summary())
}

func (h *Handler) handlePrint(w http.ResponseWriter, r *http.Request, session *workspace.Workspace) {
	switch r.Method {
	case "POST":
		if _, err := session.Print(r.Context()); err != nil {
			h.writeActionError(w, err)
			return
		}
		h.writeJSON(w, session.Summary())
	case "GET":
		document, _, ok := session.Spool.Document()
		if !ok {
			h.writeError(w, "Nothing printed yet", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if _, err := w.Write([]byte(document)); err != nil {
			h.writeError(w, "Failed to write document: "+err.Error(), http.StatusInternalServerError)
		}
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
