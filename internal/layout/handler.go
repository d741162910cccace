package layout

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/inamate/inamate/layout-go/internal/auth"
	"github.com/inamate/inamate/layout-go/internal/document"
)

// ExportFunc returns the live layout of a project's editing session, or
// ErrNoSession.
type ExportFunc func(projectID string) ([]document.LayoutRecord, error)

type Handler struct {
	store  Store
	export ExportFunc
}

func NewHandler(store Store, export ExportFunc) *Handler {
	return &Handler{store: store, export: export}
}

// Register mounts the layout routes on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/layouts/{projectId}", h.Latest).Methods("GET")
	r.HandleFunc("/layouts/{projectId}", h.Save).Methods("POST")
	r.HandleFunc("/layouts/{projectId}/versions", h.Versions).Methods("GET")
	r.HandleFunc("/layouts/{projectId}/snapshot", h.Snapshot).Methods("POST")
}

type saveRequest struct {
	Records []document.LayoutRecord `json:"records"`
}

func (h *Handler) Latest(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	doc, err := h.store.Latest(r.Context(), projectID)
	if err != nil {
		handleStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	for _, rec := range req.Records {
		if rec.ID == "" || rec.Selector == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "every record needs id and selector"})
			return
		}
	}

	h.save(w, r, projectID, req.Records)
}

func (h *Handler) Versions(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	versions, err := h.store.List(r.Context(), projectID)
	if err != nil {
		handleStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, versions)
}

// Snapshot exports the project's live session and saves it as a new version.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	if h.export == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no live session"})
		return
	}
	records, err := h.export(projectID)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no live session"})
			return
		}
		slog.Error("export session failed", "project", projectID, "error", err)
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}

	h.save(w, r, projectID, records)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request, projectID string, records []document.LayoutRecord) {
	doc, err := h.store.Save(r.Context(), projectID, records)
	if err != nil {
		handleStoreError(w, err)
		return
	}

	slog.Info("layout saved",
		"project", projectID,
		"version", doc.Version,
		"records", len(doc.Records),
		"user", auth.UserIDFromContext(r.Context()),
	)
	writeJSON(w, http.StatusCreated, doc)
}

func handleStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "layout not found"})
	case errors.Is(err, ErrEmptyProject):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "project id is required"})
	default:
		slog.Error("layout store error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
