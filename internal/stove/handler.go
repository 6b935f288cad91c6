package stove

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/redmonkez12/sstove-api/internal/apperr"
	"github.com/redmonkez12/sstove-api/internal/auth"
	"github.com/redmonkez12/sstove-api/internal/httputil"
	"github.com/redmonkez12/sstove-api/internal/logging"
)

// Handler contains HTTP handlers for stove membership endpoints
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// AddCookRequest represents the add cook request body.
// new_cook_id may be omitted when joining an empty stove with its serial id.
type AddCookRequest struct {
	NewCookID     string `json:"new_cook_id"`
	StoveSerialID string `json:"stove_serial_id"`
}

// Routes mounts the stove endpoints. The caller applies authentication.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Route("/{stoveID}", func(r chi.Router) {
		r.Get("/cooks", h.ListCooks)
		r.Post("/cooks", h.AddCook)
		r.Get("/chiefs", h.GetChief)
		r.Post("/chiefs", h.ClaimChief)
	})
}

// List handles listing the requester's stoves
// @Summary      List my stoves
// @Tags         stoves
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} Stove
// @Failure      401 {object} httputil.ErrorResponse
// @Router       /stoves [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	requester, ok := requesterFrom(w, r)
	if !ok {
		return
	}

	stoves, err := h.service.ListForUser(r.Context(), requester)
	if err != nil {
		respondServiceError(w, logger, err, "failed to list stoves")
		return
	}

	httputil.RespondJSON(w, stoves, http.StatusOK)
}

// ListCooks handles listing the cooks of a stove
// @Summary      List cooks of a stove
// @Tags         stoves
// @Produce      json
// @Security     BearerAuth
// @Param        stoveID path int true "Stove ID"
// @Success      200 {array} Cook
// @Failure      403 {object} httputil.ErrorResponse "Requester is not a cook"
// @Failure      404 {object} httputil.ErrorResponse "Stove not found"
// @Router       /stoves/{stoveID}/cooks [get]
func (h *Handler) ListCooks(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	requester, ok := requesterFrom(w, r)
	if !ok {
		return
	}
	stoveID, ok := stoveIDFrom(w, r)
	if !ok {
		return
	}

	cooks, err := h.service.ListCooks(r.Context(), stoveID, requester)
	if err != nil {
		respondServiceError(w, logger, err, "failed to list cooks")
		return
	}

	httputil.RespondJSON(w, cooks, http.StatusOK)
}

// AddCook handles adding a cook to a stove
// @Summary      Add a cook
// @Description  A chief adds an existing user. On a stove nobody has joined yet, the requester joins by presenting the stove serial id.
// @Tags         stoves
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        stoveID path int true "Stove ID"
// @Param        request body AddCookRequest true "Cook to add"
// @Success      201 {object} Cook
// @Failure      403 {object} httputil.ErrorResponse "No chief permission or wrong serial id"
// @Failure      404 {object} httputil.ErrorResponse "Stove or user not found"
// @Failure      409 {object} httputil.ErrorResponse "Already a cook"
// @Failure      422 {object} httputil.ErrorResponse "Validation error"
// @Router       /stoves/{stoveID}/cooks [post]
func (h *Handler) AddCook(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	requester, ok := requesterFrom(w, r)
	if !ok {
		return
	}
	stoveID, ok := stoveIDFrom(w, r)
	if !ok {
		return
	}

	var req AddCookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.Warn("invalid add cook request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	in := AddCookInput{StoveSerialID: req.StoveSerialID}
	if req.NewCookID != "" {
		id, err := uuid.Parse(req.NewCookID)
		if err != nil {
			httputil.RespondAppError(w, apperr.Validation(map[string]string{"new_cook_id": "Must be a valid UUID."}))
			return
		}
		in.NewCookID = id
	}

	cook, err := h.service.AddCook(r.Context(), stoveID, requester, in)
	if err != nil {
		respondServiceError(w, logger, err, "failed to add cook")
		return
	}

	httputil.RespondJSON(w, cook, http.StatusCreated)
}

// ClaimChief handles claiming the chief role
// @Summary      Claim the chief role
// @Description  Returns 201 when the requester became chief and 200 when they already were.
// @Tags         stoves
// @Produce      json
// @Security     BearerAuth
// @Param        stoveID path int true "Stove ID"
// @Success      200 {object} Cook
// @Success      201 {object} Cook
// @Failure      403 {object} httputil.ErrorResponse "Requester is not a cook"
// @Failure      404 {object} httputil.ErrorResponse "Stove not found"
// @Failure      409 {object} httputil.ErrorResponse "Stove already has a chief"
// @Router       /stoves/{stoveID}/chiefs [post]
func (h *Handler) ClaimChief(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	requester, ok := requesterFrom(w, r)
	if !ok {
		return
	}
	stoveID, ok := stoveIDFrom(w, r)
	if !ok {
		return
	}

	chief, claimed, err := h.service.ClaimChief(r.Context(), stoveID, requester)
	if err != nil {
		respondServiceError(w, logger, err, "failed to claim chief")
		return
	}

	status := http.StatusOK
	if claimed {
		status = http.StatusCreated
	}
	httputil.RespondJSON(w, chief, status)
}

// GetChief handles reading the chief of a stove
// @Summary      Get the chief of a stove
// @Tags         stoves
// @Produce      json
// @Security     BearerAuth
// @Param        stoveID path int true "Stove ID"
// @Success      200 {object} Cook
// @Failure      403 {object} httputil.ErrorResponse "Requester is not a cook"
// @Failure      404 {object} httputil.ErrorResponse "Stove not found or no chief"
// @Router       /stoves/{stoveID}/chiefs [get]
func (h *Handler) GetChief(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	requester, ok := requesterFrom(w, r)
	if !ok {
		return
	}
	stoveID, ok := stoveIDFrom(w, r)
	if !ok {
		return
	}

	chief, err := h.service.GetChief(r.Context(), stoveID, requester)
	if err != nil {
		respondServiceError(w, logger, err, "failed to get chief")
		return
	}

	httputil.RespondJSON(w, chief, http.StatusOK)
}

func requesterFrom(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
	}
	return id, ok
}

func stoveIDFrom(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "stoveID"), 10, 64)
	if err != nil || id <= 0 {
		httputil.RespondErrorWithCode(w, "invalid stove id", httputil.CodeInvalidPathParam, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// respondServiceError renders err and logs it at a level matching its status.
func respondServiceError(w http.ResponseWriter, logger *logging.Logger, err error, msg string) {
	status := httputil.RespondAppError(w, err)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, "error", err.Error())
		return
	}
	logger.Warn(msg, "error", err.Error(), "status", status)
}
