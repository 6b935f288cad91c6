package profile

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/redmonkez12/sstove-api/internal/apperr"
	"github.com/redmonkez12/sstove-api/internal/auth"
	"github.com/redmonkez12/sstove-api/internal/httputil"
	"github.com/redmonkez12/sstove-api/internal/logging"
	"github.com/redmonkez12/sstove-api/internal/user"
)

// Handler contains HTTP handlers for user profile endpoints
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ChangePasswordRequest represents the change password request body
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ChangeEmailRequest represents the change email request body
type ChangeEmailRequest struct {
	Email string `json:"email"`
}

// Routes mounts the profile endpoints. The caller applies authentication.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/{userID}", h.Get)
	r.Patch("/{userID}", h.Update)
	r.Patch("/{userID}/password", h.ChangePassword)
	r.Patch("/{userID}/email", h.ChangeEmail)
}

// Get handles reading a profile
// @Summary      Get a user profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        userID path string true "User ID"
// @Success      200 {object} Profile
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /users/{userID} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	userID, requester, ok := ids(w, r)
	if !ok {
		return
	}

	p, err := h.service.Get(r.Context(), userID, requester)
	if err != nil {
		respondError(w, logger, err)
		return
	}

	httputil.RespondJSON(w, p, http.StatusOK)
}

// Update handles a partial profile update
// @Summary      Update own profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userID path string true "User ID"
// @Param        request body UpdateInput true "Fields to change"
// @Success      200 {object} Profile
// @Failure      403 {object} httputil.ErrorResponse "Not the profile owner"
// @Failure      422 {object} httputil.ErrorResponse "Validation error"
// @Router       /users/{userID} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	userID, requester, ok := ids(w, r)
	if !ok {
		return
	}

	var req UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid profile update body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	p, err := h.service.Update(r.Context(), userID, requester, req)
	if err != nil {
		respondError(w, logger, err)
		return
	}

	httputil.RespondJSON(w, p, http.StatusOK)
}

// ChangePassword handles a password change
// @Summary      Change own password
// @Description  Ends every session of the user; they must log in again.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userID path string true "User ID"
// @Param        request body ChangePasswordRequest true "Old and new password"
// @Success      200 {object} auth.MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid new password"
// @Failure      403 {object} httputil.ErrorResponse "Not the profile owner"
// @Failure      422 {object} httputil.ErrorResponse "Old password is incorrect"
// @Router       /users/{userID}/password [patch]
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	userID, requester, ok := ids(w, r)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if err := h.service.ChangePassword(r.Context(), userID, requester, req.OldPassword, req.NewPassword); err != nil {
		respondError(w, logger, err)
		return
	}

	logger.Info("password changed")
	auth.ClearAuthCookies(w)
	httputil.RespondJSON(w, auth.MessageResponse{Message: "Password has been changed. Please log in again."}, http.StatusOK)
}

// ChangeEmail handles an email change
// @Summary      Change own email
// @Description  A confirmation is sent to the new address first. The account is inactive until it is confirmed.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userID path string true "User ID"
// @Param        request body ChangeEmailRequest true "New email"
// @Success      200 {object} Profile
// @Failure      400 {object} httputil.ErrorResponse "Invalid email"
// @Failure      403 {object} httputil.ErrorResponse "Not the profile owner"
// @Failure      409 {object} httputil.ErrorResponse "Email already exists"
// @Failure      503 {object} httputil.ErrorResponse "Confirmation email could not be delivered"
// @Router       /users/{userID}/email [patch]
func (h *Handler) ChangeEmail(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	userID, requester, ok := ids(w, r)
	if !ok {
		return
	}

	var req ChangeEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	p, err := h.service.ChangeEmail(r.Context(), userID, requester, req.Email)
	if err != nil {
		respondError(w, logger, err)
		return
	}

	logger.Info("email changed, awaiting confirmation")
	auth.ClearAuthCookies(w)
	httputil.RespondJSON(w, p, http.StatusOK)
}

func ids(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	requester, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return uuid.Nil, uuid.Nil, false
	}

	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid user id", httputil.CodeInvalidPathParam, http.StatusBadRequest)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, requester, true
}

func respondError(w http.ResponseWriter, logger *logging.Logger, err error) {
	if code, ok := auth.ValidationCode(err); ok {
		httputil.RespondErrorWithCode(w, err.Error(), code, http.StatusBadRequest)
		return
	}

	var appErr *apperr.Error
	switch {
	case errors.Is(err, ErrNotOwner):
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeNotOwner, http.StatusForbidden)
	case errors.Is(err, user.ErrNotFound):
		httputil.RespondErrorWithCode(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
	case errors.Is(err, auth.ErrWrongPassword):
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeWrongPassword, http.StatusUnprocessableEntity)
	case errors.Is(err, user.ErrDuplicateEmail):
		httputil.RespondErrorWithCode(w, "email already exists", httputil.CodeEmailAlreadyExists, http.StatusConflict)
	case errors.Is(err, auth.ErrMailUndelivered):
		logger.Error("confirmation email not delivered", "error", err.Error())
		httputil.RespondErrorWithCode(w, auth.ErrMailUndelivered.Error(), httputil.CodeMailUndelivered, http.StatusServiceUnavailable)
	case errors.As(err, &appErr):
		httputil.RespondAppError(w, err)
	default:
		logger.Error("profile request failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
	}
}
