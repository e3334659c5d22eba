package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/departments-api/internal/apperror"
	"github.com/ErlanBelekov/departments-api/internal/principal"
	"github.com/ErlanBelekov/departments-api/internal/usecase"
	"github.com/gin-gonic/gin"
)

// authUsecaser is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type authUsecaser interface {
	Login(ctx context.Context, username, password string) (*usecase.LoginResult, error)
}

type AuthHandler struct {
	authUsecase authUsecaser
	logger      *slog.Logger
}

func NewAuthHandler(authUsecase authUsecaser, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
		logger:      logger.With("component", "auth_handler"),
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required,min=3"`
	Password string `json:"password" binding:"required,min=6"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	User        userResponse `json:"user"`
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.authUsecase.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		AccessToken: res.AccessToken,
		User:        userResponse{ID: res.User.ID, Username: res.User.Username},
	})
}

// GET /auth/me
// Runs behind the auth middleware; a missing identity is a wiring fault.
func (h *AuthHandler) Me(c *gin.Context) {
	who, ok := principal.FromContext(c.Request.Context())
	if !ok {
		_ = c.Error(apperror.Internal(errMissingIdentity, nil))
		return
	}

	c.JSON(http.StatusOK, userResponse{ID: who.UserID, Username: who.Username})
}
