package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"harvestmind/advisory"
	"harvestmind/auth"
	"harvestmind/dataset"
)

// maxImageBytes caps leaf-image uploads.
const maxImageBytes = 10 << 20

type handlers struct {
	deps   Dependencies
	logger *slog.Logger
}

type sessionResponse struct {
	Token string    `json:"token"`
	User  auth.User `json:"user"`
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_payload")
		return
	}

	user, err := h.deps.Sessions.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "invalid_credentials")
			return
		}
		h.internalError(w, r, err)
		return
	}

	h.respondSession(w, r, http.StatusOK, user)
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_payload")
		return
	}

	user, err := h.deps.Sessions.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrDuplicateEmail):
			respondError(w, http.StatusConflict, "duplicate_email")
		case errors.Is(err, auth.ErrInvalidRequest):
			respondError(w, http.StatusBadRequest, "invalid_request")
		default:
			h.internalError(w, r, err)
		}
		return
	}

	h.respondSession(w, r, http.StatusCreated, user)
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Sessions.Logout(r.Context()); err != nil {
		h.internalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) session(w http.ResponseWriter, r *http.Request) {
	user, ok := h.deps.Sessions.Current()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *handlers) predictYield(w http.ResponseWriter, r *http.Request) {
	var req advisory.YieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_payload")
		return
	}

	prediction, err := h.deps.Predictions.PredictYield(r.Context(), req)
	if err != nil {
		if errors.Is(err, advisory.ErrMissingFields) {
			respondError(w, http.StatusBadRequest, "missing_fields")
			return
		}
		h.internalError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, prediction)
}

func (h *handlers) analyzeDisease(w http.ResponseWriter, r *http.Request) {
	image, err := io.ReadAll(io.LimitReader(r.Body, maxImageBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_payload")
		return
	}

	finding, err := h.deps.Predictions.AnalyzeLeafImage(r.Context(), image)
	if err != nil {
		if errors.Is(err, advisory.ErrEmptyImage) {
			respondError(w, http.StatusBadRequest, "empty_image")
			return
		}
		h.internalError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, finding)
}

type uploadRequest struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

func (h *handlers) uploadDataset(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_payload")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "missing_name")
		return
	}

	rec := dataset.Record{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Size:        req.Size,
		ContentType: req.ContentType,
		UploadedAt:  time.Now().UTC(),
		UploadedBy:  UserID(r.Context()),
	}
	if err := h.deps.Datasets.Append(r.Context(), rec); err != nil {
		h.internalError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, rec)
}

func (h *handlers) listDatasets(w http.ResponseWriter, r *http.Request) {
	records, err := h.deps.Datasets.List(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, records)
}

func (h *handlers) respondSession(w http.ResponseWriter, r *http.Request, status int, user auth.User) {
	token, err := h.deps.Tokens.Generate(user)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	respondJSON(w, status, sessionResponse{Token: token, User: user})
}

func (h *handlers) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	respondError(w, http.StatusInternalServerError, "internal_error")
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code string) {
	respondJSON(w, status, map[string]string{"error": code})
}
