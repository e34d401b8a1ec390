package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spareparts/internal/infrastructure/http/v1/dto"
	"spareparts/internal/infrastructure/mockapi"
)

// AuthHandler handles authentication endpoints. Its responses are bare,
// without the success envelope.
type AuthHandler struct {
	*BaseHandler
	backend *mockapi.Backend
	jwt     *mockapi.JWTService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(base *BaseHandler, backend *mockapi.Backend, jwt *mockapi.JWTService) *AuthHandler {
	return &AuthHandler{BaseHandler: base, backend: backend, jwt: jwt}
}

// Login handles POST /auth/login/
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.backend.Authenticate(req.Username, req.Password)
	if err != nil {
		h.Error(c, err)
		return
	}
	pair, err := h.jwt.Issue(user.ID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// Me handles GET /auth/me/
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := h.User(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.FromUser(user, h.backend.SiteName(user)))
}

// Logout handles POST /auth/logout/. Tokens are stateless, so there is
// nothing to revoke.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Successfully logged out"})
}

// RegisterRoutes registers auth routes.
func (h *AuthHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.POST("/login/", h.Login)
	protected.GET("/me/", h.Me)
	protected.POST("/logout/", h.Logout)
}
