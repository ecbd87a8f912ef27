package account

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medidesk/clinic-api/internal/handler"
	"github.com/medidesk/clinic-api/internal/model"
	"github.com/medidesk/clinic-api/internal/service/account"
)

type Handler struct {
	svc *account.Service
}

func NewHandler(svc *account.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/signup", h.SignUp)
		auth.POST("/signin", h.SignIn)
		auth.POST("/signout", h.SignOut)
		auth.POST("/refresh", h.RefreshToken)
		auth.GET("/session", h.CurrentSession)
		auth.GET("/session/events", h.SessionEvents)
		auth.GET("/verify-email", h.VerifyEmail)
		auth.POST("/resend-verification", h.ResendVerification)
		auth.POST("/assign-role", h.AssignRole)
	}
}

func (h *Handler) SignUp(c *gin.Context) {
	var req model.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	acct, err := h.svc.SignUp(c.Request.Context(), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(acct))
}

func (h *Handler) SignIn(c *gin.Context) {
	var req model.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	tokens, err := h.svc.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(tokens))
}

func (h *Handler) SignOut(c *gin.Context) {
	if err := h.svc.SignOut(c.Request.Context(), bearerToken(c)); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse("signed out"))
}

// CurrentSession lets a client skip the login form on entry. A missing or
// stale token is answered with 401, which the client treats as "show the
// login form", not as a failure.
func (h *Handler) CurrentSession(c *gin.Context) {
	session, err := h.svc.CurrentSession(c.Request.Context(), bearerToken(c))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(session))
}

// SessionEvents streams session changes over SSE so a sign-in or a
// verification callback completing after first render still reaches the
// client without a reload.
func (h *Handler) SessionEvents(c *gin.Context) {
	events, err := h.svc.SessionEvents(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(_ io.Writer) bool {
		select {
		case msg, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("session", string(msg))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (h *Handler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	tokens, err := h.svc.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(tokens))
}

func (h *Handler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("verification token is required"))
		return
	}

	if err := h.svc.VerifyEmail(c.Request.Context(), token); err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse("email verified successfully"))
}

func (h *Handler) ResendVerification(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	// Binding stays loose here; the service validates the email itself so
	// an empty value is rejected before any network call, as a typed
	// validation error rather than a bind error.
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.svc.ResendVerification(c.Request.Context(), req.Email); err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse("verification email resent"))
}

func (h *Handler) AssignRole(c *gin.Context) {
	var req struct {
		AccountID string     `json:"account_id" binding:"required,uuid"`
		Role      model.Role `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(fmt.Sprintf("invalid account id: %v", err)))
		return
	}

	if err := h.svc.AssignRole(c.Request.Context(), accountID, req.Role); err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse("role assigned"))
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
