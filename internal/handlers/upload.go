package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/jqshop/labelgen/internal/workspace"
)

const maxImageBytes = 10 * 1024 * 1024

// HandleImage attaches a product image, either uploaded or by URL
func (h *Handler) HandleImage(w http.ResponseWriter, r *http.Request, session *workspace.Workspace) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Check if this is a JSON request with image URL
	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		h.handleURLImage(w, r, session)
		return
	}

	h.handleFileImage(w, r, session)
}

func (h *Handler) handleURLImage(w http.ResponseWriter, r *http.Request, session *workspace.Workspace) {
	var request struct {
		ImageURL string `json:"image_url"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if request.ImageURL == "" {
		h.writeError(w, "image_url is required", http.StatusBadRequest)
		return
	}
	if err := validateImageURL(request.ImageURL); err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	session.Form.HandleImageURL(request.ImageURL)
	h.writeJSON(w, session.Summary())
}

func (h *Handler) handleFileImage(w http.ResponseWriter, r *http.Request, session *workspace.Workspace) {
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	fileData, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
	if err != nil {
		h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if len(fileData) >= maxImageBytes {
		h.writeError(w, "File too large (max 10MB)", http.StatusBadRequest)
		return
	}

	info, err := inspectImage(fileData, header.Filename)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	session.Form.HandleImageUpload(fileData)
	session.Form.Wait()

	h.writeJSON(w, map[string]any{
		"session": session.Summary(),
		"image":   info,
	})
}
