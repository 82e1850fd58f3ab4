package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"chest-rewards-api/internal/apperr"
	"chest-rewards-api/internal/middleware"
	"chest-rewards-api/internal/models"
	"chest-rewards-api/internal/service"
	"chest-rewards-api/internal/validation"

	"github.com/sirupsen/logrus"
)

// Handler provides HTTP handlers for the API.
type Handler struct {
	service     *service.Service
	maxBodySize int64
	log         logrus.FieldLogger
}

// NewHandlerOptions holds options for creating a handler.
type NewHandlerOptions struct {
	MaxBodySize int64
	Log         logrus.FieldLogger
}

// DefaultHandlerOptions returns default handler options.
func DefaultHandlerOptions() NewHandlerOptions {
	return NewHandlerOptions{
		MaxBodySize: 1 << 20, // 1MB default
		Log:         logrus.StandardLogger(),
	}
}

// NewHandler creates a new handler instance.
func NewHandler(svc *service.Service) *Handler {
	return NewHandlerWithOptions(svc, DefaultHandlerOptions())
}

// NewHandlerWithOptions creates a new handler instance with custom options.
func NewHandlerWithOptions(svc *service.Service, opts NewHandlerOptions) *Handler {
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = DefaultHandlerOptions().MaxBodySize
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	return &Handler{
		service:     svc,
		maxBodySize: opts.MaxBodySize,
		log:         opts.Log,
	}
}

type openMultiRequest struct {
	Count  any `json:"count"`
	Amount any `json:"amount"`
	Opens  any `json:"opens"`
	N      any `json:"n"`
}

type boostRequest struct {
	GlobalMultiplier   any `json:"globalMultiplier"`
	HugeChanceBonus    any `json:"hugeChanceBonus"`
	TitanicChanceBonus any `json:"titanicChanceBonus"`
	TokenBonus         any `json:"tokenBonus"`
	DurationMinutes    any `json:"durationMinutes"`
}

type petValuesRequest struct {
	HugeToGems    any `json:"hugeToGems"`
	TitanicToGems any `json:"titanicToGems"`
}

type itemRequest struct {
	ID string `json:"id"`
}

type convertRequest struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Count any    `json:"count"`
}

type convertManyRequest struct {
	IDs []string `json:"ids"`
}

type featureRequest struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// State handles GET /chest/state
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	state, err := h.service.State(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, state)
}

// Open handles POST /chest/open
func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	res, err := h.service.Open(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, res)
}

// OpenMulti handles POST /chest/open-multi
func (h *Handler) OpenMulti(w http.ResponseWriter, r *http.Request) {
	var req openMultiRequest
	if !h.decode(w, r, &req, false) {
		return
	}

	count := validation.Count(validation.FirstPresent(req.Count, req.Amount, req.Opens, req.N))
	id, _ := middleware.IdentityFrom(r.Context())
	res, err := h.service.OpenMulti(r.Context(), id, count)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, res)
}

// Feed handles GET /chest/feed
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Feed(r.Context())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"feed": items})
}

// SetBoost handles POST /admin/chest/boost
func (h *Handler) SetBoost(w http.ResponseWriter, r *http.Request) {
	var req boostRequest
	if !h.decode(w, r, &req, true) {
		return
	}

	duration, err := validation.ValidateDuration(req.DurationMinutes)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	id, _ := middleware.IdentityFrom(r.Context())
	boost, err := h.service.SetBoost(r.Context(), id, models.BoostInput{
		GlobalMultiplier:   validation.Number(req.GlobalMultiplier),
		HugeChanceBonus:    validation.Number(req.HugeChanceBonus),
		TitanicChanceBonus: validation.Number(req.TitanicChanceBonus),
		TokenBonus:         validation.Number(req.TokenBonus),
		DurationMinutes:    duration,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"boosts": boost})
}

// SetPetValues handles POST /admin/chest/pet-values
func (h *Handler) SetPetValues(w http.ResponseWriter, r *http.Request) {
	var req petValuesRequest
	if !h.decode(w, r, &req, true) {
		return
	}

	id, _ := middleware.IdentityFrom(r.Context())
	values, err := h.service.SetPetValues(r.Context(), id,
		validation.Count(req.HugeToGems), validation.Count(req.TitanicToGems))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"petValues": values})
}

// ResetRewards handles POST /admin/chest/reset-rewards
func (h *Handler) ResetRewards(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	res, err := h.service.ResetRewards(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, res)
}

// Inventory handles GET /inventory
func (h *Handler) Inventory(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	items, err := h.service.Inventory(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"pets": items})
}

// Claim handles POST /inventory/claim
func (h *Handler) Claim(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if !h.decode(w, r, &req, true) {
		return
	}
	if validation.SanitizeString(req.ID) == "" {
		h.respondError(w, http.StatusBadRequest, "Missing id")
		return
	}

	id, _ := middleware.IdentityFrom(r.Context())
	item, err := h.service.Claim(r.Context(), id, req.ID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"item": item})
}

// Convert handles POST /inventory/convert
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if !h.decode(w, r, &req, true) {
		return
	}

	id, _ := middleware.IdentityFrom(r.Context())
	res, err := h.service.Convert(r.Context(), id, service.ConvertRequest{
		ID:    req.ID,
		Type:  req.Type,
		Count: validation.Count(req.Count),
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, res)
}

// ConvertMany handles POST /inventory/convert-many
func (h *Handler) ConvertMany(w http.ResponseWriter, r *http.Request) {
	var req convertManyRequest
	if !h.decode(w, r, &req, true) {
		return
	}

	id, _ := middleware.IdentityFrom(r.Context())
	res, err := h.service.ConvertMany(r.Context(), id, req.IDs)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, res)
}

// ListFeatures handles GET /admin/features
func (h *Handler) ListFeatures(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]any{"features": h.service.Features().List()})
}

// SetFeature handles POST /admin/features
func (h *Handler) SetFeature(w http.ResponseWriter, r *http.Request) {
	var req featureRequest
	if !h.decode(w, r, &req, true) {
		return
	}

	flags := h.service.Features()
	name := validation.SanitizeString(req.Name)
	found := false
	for _, f := range flags.List() {
		if f.Name == name {
			found = true
			break
		}
	}
	if !found {
		h.respondError(w, http.StatusNotFound, "unknown feature")
		return
	}

	flags.Set(name, req.Enabled)
	id, _ := middleware.IdentityFrom(r.Context())
	h.log.WithFields(logrus.Fields{
		"admin":   id.Username,
		"feature": name,
		"enabled": req.Enabled,
	}).Info("feature flag changed")
	h.respondJSON(w, http.StatusOK, map[string]any{"features": flags.List()})
}

// decode reads a JSON body into dst. An empty body is accepted unless
// required is set.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any, required bool) bool {
	// Limit request body size to prevent abuse
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			if !required {
				return true
			}
			h.respondError(w, http.StatusBadRequest, "request body is required")
			return false
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		h.respondError(w, http.StatusBadRequest, "invalid JSON in request body")
		return false
	}
	return true
}

// respondServiceError maps validation and domain errors to a status code.
func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	var verr *validation.ValidationError
	if errors.As(err, &verr) {
		h.respondError(w, http.StatusBadRequest, verr.Message)
		return
	}

	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.WithError(err).Error("request failed")
	}
	h.respondError(w, status, apperr.PublicMessage(err))
}

// respondJSON sends a JSON response with the given status code.
func (h *Handler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response with the given status code and message.
func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, models.ErrorResponse{Error: message})
}
