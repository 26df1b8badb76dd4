package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatx-backend/internal/domain"
	"chatx-backend/internal/service/auth"
	apperrors "chatx-backend/pkg/errors"
	"chatx-backend/pkg/response"
)

// Handler handles HTTP requests for authentication
type Handler struct {
	authService *auth.Service
}

// NewHandler creates a new auth handler
func NewHandler(authService *auth.Service) *Handler {
	return &Handler{
		authService: authService,
	}
}

// Register handles user registration
// POST /register
func (h *Handler) Register(c *gin.Context) {
	var req domain.UserCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		writeServiceError(c, err, "Failed to register user")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"user": user,
	})
}

// Login handles user login
// POST /login
func (h *Handler) Login(c *gin.Context) {
	var req domain.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	user, token, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		writeServiceError(c, err, "Failed to login")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user":         user,
		"access_token": token,
	})
}

func writeServiceError(c *gin.Context, err error, fallback string) {
	if appErr := apperrors.AsAppError(err); appErr != nil {
		response.Error(c, appErr.StatusCode, string(appErr.Code), appErr.Message)
		return
	}
	response.InternalError(c, fallback)
}
