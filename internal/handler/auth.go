package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskboard-api/internal/auth"
	"github.com/BuzzLyutic/taskboard-api/internal/repo"
	"github.com/BuzzLyutic/taskboard-api/internal/service"
	"github.com/BuzzLyutic/taskboard-api/pkg/respond"
)

type AuthHandler struct {
	service *service.AuthService
	cookie  auth.CookieConfig
	ttl     time.Duration
	logger  *zap.Logger
}

func NewAuthHandler(srv *service.AuthService, cookie auth.CookieConfig, ttl time.Duration, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: srv,
		cookie:  cookie,
		ttl:     ttl,
		logger:  logger,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	user, token, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.handleErrors(w, r, err, "Validation failed")
		return
	}

	h.cookie.Set(w, token, h.ttl)
	respond.OK(w, r, http.StatusCreated, "Account created successfully! Welcome aboard.", map[string]interface{}{
		"user":  user,
		"token": token,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	user, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.handleErrors(w, r, err, "Please fill in all required fields correctly")
		return
	}

	h.cookie.Set(w, token, h.ttl)
	respond.OK(w, r, http.StatusOK, fmt.Sprintf("Welcome back, %s!", user.Name), map[string]interface{}{
		"user":  user,
		"token": token,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookie.Clear(w)
	respond.OK(w, r, http.StatusOK, "Logged out successfully", nil)
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	user, err := h.service.Profile(r.Context(), p.ID)
	if err != nil {
		h.handleErrors(w, r, err, "Validation failed")
		return
	}
	respond.OK(w, r, http.StatusOK, "", map[string]interface{}{"user": user})
}

func (h *AuthHandler) handleErrors(w http.ResponseWriter, r *http.Request, err error, validationMsg string) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		respond.ValidationFailed(w, r, validationMsg, vErr.Fields)
	case errors.Is(err, service.ErrEmailTaken):
		respond.TypedError(w, r, http.StatusConflict,
			"An account with this email already exists. Please login instead.", "USER_EXISTS")
	case errors.Is(err, service.ErrUnknownAccount):
		// Для UX отличаем незнакомый email от неверного пароля, как и фронтенд.
		respond.TypedError(w, r, http.StatusNotFound,
			"No account found with this email address. Please register first.", "USER_NOT_FOUND")
	case errors.Is(err, service.ErrAccountDisabled):
		respond.TypedError(w, r, http.StatusForbidden,
			"Your account has been deactivated. Please contact support.", "ACCOUNT_DEACTIVATED")
	case errors.Is(err, service.ErrWrongPassword):
		respond.TypedError(w, r, http.StatusUnauthorized,
			"Incorrect password. Please check your password and try again.", "WRONG_PASSWORD")
	case errors.Is(err, repo.ErrorNotFound):
		respond.TypedError(w, r, http.StatusNotFound, "User not found", "USER_NOT_FOUND")
	default:
		h.logger.Error("auth internal error", zap.Error(err))
		respond.TypedError(w, r, http.StatusInternalServerError,
			"Something went wrong. Please try again.", "SERVER_ERROR")
	}
}
