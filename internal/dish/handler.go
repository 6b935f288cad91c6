package dish

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/redmonkez12/sstove-api/internal/auth"
	"github.com/redmonkez12/sstove-api/internal/httputil"
	"github.com/redmonkez12/sstove-api/internal/logging"
)

// Handler contains HTTP handlers for dish endpoints
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the dish endpoints. The caller applies authentication.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.ListDishes)
	r.Post("/", h.CreateDish)
	r.Get("/{dishID}/timings", h.ListTimings)
	r.Post("/{dishID}/timings", h.AddTiming)
}

// CreateDish handles creating a dish with its timings
// @Summary      Create a dish
// @Description  The dish, its timings and their atomic timings are stored together or not at all.
// @Tags         dishes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateDishInput true "Dish aggregate"
// @Success      201 {object} Dish
// @Failure      409 {object} httputil.ErrorResponse "Dish name taken"
// @Failure      422 {object} httputil.ErrorResponse "Validation error"
// @Router       /dishes [post]
func (h *Handler) CreateDish(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	requester, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req CreateDishInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid create dish request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	created, err := h.service.CreateDish(r.Context(), requester, req)
	if err != nil {
		respond(w, logger, err, "failed to create dish")
		return
	}

	httputil.RespondJSON(w, created, http.StatusCreated)
}

// ListDishes handles listing the requester's dishes
// @Summary      List my dishes
// @Tags         dishes
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} Dish
// @Router       /dishes [get]
func (h *Handler) ListDishes(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	requester, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	dishes, err := h.service.ListDishes(r.Context(), requester)
	if err != nil {
		respond(w, logger, err, "failed to list dishes")
		return
	}

	httputil.RespondJSON(w, dishes, http.StatusOK)
}

// AddTiming handles adding a timing to a dish
// @Summary      Add a timing to a dish
// @Tags         dishes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        dishID path int true "Dish ID"
// @Param        request body TimingInput true "Timing"
// @Success      201 {object} Timing
// @Failure      403 {object} httputil.ErrorResponse "Not an owner of the dish"
// @Failure      422 {object} httputil.ErrorResponse "Validation error"
// @Router       /dishes/{dishID}/timings [post]
func (h *Handler) AddTiming(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	requester, dishID, ok := dishRequest(w, r)
	if !ok {
		return
	}

	// Non-owners are turned away before the body is looked at
	if err := h.service.CheckOwner(r.Context(), dishID, requester); err != nil {
		respond(w, logger, err, "failed to add timing")
		return
	}

	var req TimingInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid add timing request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	created, err := h.service.AddTiming(r.Context(), dishID, requester, req)
	if err != nil {
		respond(w, logger, err, "failed to add timing")
		return
	}

	httputil.RespondJSON(w, created, http.StatusCreated)
}

// ListTimings handles listing the timings of a dish
// @Summary      List timings of a dish
// @Tags         dishes
// @Produce      json
// @Security     BearerAuth
// @Param        dishID path int true "Dish ID"
// @Success      200 {array} Timing
// @Failure      403 {object} httputil.ErrorResponse "Not an owner of the dish"
// @Router       /dishes/{dishID}/timings [get]
func (h *Handler) ListTimings(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	requester, dishID, ok := dishRequest(w, r)
	if !ok {
		return
	}

	timings, err := h.service.ListTimings(r.Context(), dishID, requester)
	if err != nil {
		respond(w, logger, err, "failed to list timings")
		return
	}

	httputil.RespondJSON(w, timings, http.StatusOK)
}

func dishRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, int64, bool) {
	requester, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return uuid.Nil, 0, false
	}

	dishID, err := strconv.ParseInt(chi.URLParam(r, "dishID"), 10, 64)
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid dish id", httputil.CodeInvalidPathParam, http.StatusBadRequest)
		return uuid.Nil, 0, false
	}
	return requester, dishID, true
}

func respond(w http.ResponseWriter, logger *logging.Logger, err error, msg string) {
	if status := httputil.RespondAppError(w, err); status >= http.StatusInternalServerError {
		logger.Error(msg, "error", err.Error())
	} else {
		logger.Warn(msg, "error", err.Error(), "status", status)
	}
}
