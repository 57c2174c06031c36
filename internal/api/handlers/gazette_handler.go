package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	middleware "github.com/africacodeacademy-erp2025/gazette-ingest/internal/api/middlewares"
	"github.com/africacodeacademy-erp2025/gazette-ingest/internal/core/extract"
	"github.com/africacodeacademy-erp2025/gazette-ingest/internal/services"
)

// previewLen is how much extracted-text preview the upload response carries
// for plain-text files.
const previewLen = 200

type GazetteHandler struct {
	gazettes *services.GazetteService
}

func NewGazetteHandler(gazettes *services.GazetteService) *GazetteHandler {
	return &GazetteHandler{gazettes: gazettes}
}

// Health reports service liveness.
func (h *GazetteHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "gazette ingestion service is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Upload handles a single-file multipart upload, stores the file, creates the
// record and schedules background extraction.
func (h *GazetteHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(52 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user_id not found in context")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read file")
		return
	}

	// Sanitize filename to prevent path traversal or invalid characters.
	cleanFilename := filepath.Base(header.Filename)
	contentType := header.Header.Get("Content-Type")

	title := r.FormValue("title")
	category := r.FormValue("category")

	gaz, err := h.gazettes.UploadAndCreate(r.Context(), userID, title, category, cleanFilename, contentType, data)
	if err != nil {
		var unsupported *extract.UnsupportedTypeError
		if errors.As(err, &unsupported) {
			writeError(w, http.StatusUnsupportedMediaType, unsupported.Error())
			return
		}
		log.Printf("upload failed for %s: %v", cleanFilename, err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("upload failed: %v", err))
		return
	}

	resp := map[string]any{
		"success": true,
		"gazette": gaz,
	}
	// Plain text allows an immediate preview; everything else waits for the
	// pipeline.
	if strings.HasPrefix(contentType, "text/") {
		preview := string(data)
		if len(preview) > previewLen {
			preview = preview[:previewLen]
		}
		resp["preview"] = preview
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *GazetteHandler) List(w http.ResponseWriter, r *http.Request) {
	gazettes, err := h.gazettes.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, gazettes)
}

func (h *GazetteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	gaz, err := h.gazettes.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if gaz == nil {
		writeError(w, http.StatusNotFound, "gazette not found")
		return
	}
	writeJSON(w, http.StatusOK, gaz)
}

func (h *GazetteHandler) Chunks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	chunks, err := h.gazettes.Chunks(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, chunks)
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// Search embeds the query text and returns the most similar chunks across all
// gazettes.
func (h *GazetteHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	matches, err := h.gazettes.Search(r.Context(), req.Query, req.Limit)
	if err != nil {
		if errors.Is(err, services.ErrSearchUnavailable) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"matches": matches,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
