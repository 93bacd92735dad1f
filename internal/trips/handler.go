package trips

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Faith-tech-code/safemove/internal/auth"
)

// Handler exposes trip HTTP endpoints.
type Handler struct {
	svc *Service
	mw  *auth.Middleware
}

// NewHandler wires a handler to the trip service.
func NewHandler(svc *Service, mw *auth.Middleware) *Handler {
	return &Handler{svc: svc, mw: mw}
}

// Routes returns a chi.Router with all trip routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.mw.RequireAuth) // all trip endpoints need auth

	r.Post("/", h.Book)
	r.Get("/", h.ListMine)
	r.Get("/{id}", h.GetByID)
	r.Patch("/{id}/cancel", h.Cancel)

	return r
}

func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	user := auth.CurrentUser(r.Context())

	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	trip, err := h.svc.Book(r.Context(), user.ID, req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, BookResponse{
		Message: fmt.Sprintf("Trip requested. Looking for service... OTP is %s", trip.OTP),
		TripID:  trip.ID,
		Fare:    trip.Fare,
		OTP:     trip.OTP,
	})
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	user := auth.CurrentUser(r.Context())
	trips, err := h.svc.ListMine(r.Context(), user.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trips)
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	user := auth.CurrentUser(r.Context())
	t, err := h.svc.Get(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	user := auth.CurrentUser(r.Context())
	t, err := h.svc.Cancel(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Trip cancelled successfully",
		"trip":    t,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidMode), errors.Is(err, ErrInvalidCoords), errors.Is(err, ErrNotCancellable):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrNotAuthorized):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Booking failed"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
