package scene

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/inamate/geoshape/internal/auth"
	"github.com/inamate/geoshape/internal/collab"
	"github.com/inamate/geoshape/internal/document"
	"github.com/inamate/geoshape/internal/engine"
	"github.com/inamate/geoshape/internal/geo"
	"github.com/inamate/geoshape/internal/render"
	"github.com/inamate/geoshape/internal/shape"
	"github.com/inamate/geoshape/internal/store"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type upsertShapeRequest struct {
	LayerID string         `json:"layerId"`
	Shape   document.Shape `json:"shape"`
}

type pointRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Register mounts the scene routes on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/scenes/{sceneId}", h.Get).Methods("GET")
	r.HandleFunc("/scenes/{sceneId}", h.Replace).Methods("PUT")
	r.HandleFunc("/scenes/{sceneId}/snapshots", h.DeleteHistory).Methods("DELETE")
	r.HandleFunc("/scenes/{sceneId}/snapshots/{version}", h.GetSnapshot).Methods("GET")
	r.HandleFunc("/scenes/{sceneId}/operations", h.ApplyOperation).Methods("POST")
	r.HandleFunc("/scenes/{sceneId}/shapes", h.UpsertShape).Methods("POST")
	r.HandleFunc("/scenes/{sceneId}/shapes/{shapeId}", h.DeleteShape).Methods("DELETE")
	r.HandleFunc("/scenes/{sceneId}/view", h.SetView).Methods("PUT")
	r.HandleFunc("/scenes/{sceneId}/frame", h.Frame).Methods("GET")
	r.HandleFunc("/scenes/{sceneId}/pick", h.Pick).Methods("POST")
	r.HandleFunc("/scenes/{sceneId}/intersect", h.Intersect).Methods("POST")
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Get(r.Context(), mux.Vars(r)["sceneId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Replace(w http.ResponseWriter, r *http.Request) {
	var scene document.Scene
	if err := json.NewDecoder(r.Body).Decode(&scene); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	resp, err := h.service.Replace(r.Context(), mux.Vars(r)["sceneId"], &scene)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	version, err := strconv.Atoi(vars["version"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid version"})
		return
	}

	scene, err := h.service.Snapshot(r.Context(), vars["sceneId"], version)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scene)
}

func (h *Handler) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteHistory(r.Context(), mux.Vars(r)["sceneId"]); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ApplyOperation(w http.ResponseWriter, r *http.Request) {
	var op collab.Operation
	if err := json.NewDecoder(r.Body).Decode(&op); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	h.apply(w, r, op)
}

func (h *Handler) UpsertShape(w http.ResponseWriter, r *http.Request) {
	var req upsertShapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.LayerID == "" || req.Shape.ID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "layerId and shape.id are required"})
		return
	}
	h.apply(w, r, collab.Operation{Type: collab.OpShapeUpsert, LayerID: req.LayerID, Shape: &req.Shape})
}

func (h *Handler) DeleteShape(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, collab.Operation{Type: collab.OpShapeDelete, ShapeID: mux.Vars(r)["shapeId"]})
}

func (h *Handler) SetView(w http.ResponseWriter, r *http.Request) {
	var view document.View
	if err := json.NewDecoder(r.Body).Decode(&view); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	h.apply(w, r, collab.Operation{Type: collab.OpViewUpdate, View: &view})
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request, op collab.Operation) {
	viewerID := auth.ViewerIDFromContext(r.Context())
	res, err := h.service.Apply(r.Context(), mux.Vars(r)["sceneId"], viewerID, op)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) Frame(w http.ResponseWriter, r *http.Request) {
	frame, err := h.service.Frame(r.Context(), mux.Vars(r)["sceneId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, frame)
}

func (h *Handler) Pick(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	resp, err := h.service.Pick(r.Context(), mux.Vars(r)["sceneId"], req.X, req.Y)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Intersect(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	hits, err := h.service.Intersect(r.Context(), mux.Vars(r)["sceneId"], req.X, req.Y)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"intersections": hits})
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, document.ErrShapeNotFound),
		errors.Is(err, document.ErrLayerNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, collab.ErrInvalidSceneID),
		errors.Is(err, collab.ErrInvalidOperation),
		errors.Is(err, document.ErrInvalidScene),
		errors.Is(err, engine.ErrInvalidView),
		errors.Is(err, geo.ErrInvalidBoundary),
		errors.Is(err, shape.ErrInvalidPath),
		errors.Is(err, render.ErrInvalidColor):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, collab.ErrHubStopped), errors.Is(err, engine.ErrLoopStopped):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "server shutting down"})
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, map[string]string{"error": "request timed out"})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
