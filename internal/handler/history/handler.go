package history

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medidesk/clinic-api/internal/handler"
	"github.com/medidesk/clinic-api/internal/service/reader"
)

type Handler struct {
	svc *reader.Service
}

func NewHandler(svc *reader.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(shared *gin.RouterGroup) {
	shared.GET("/patients/:id/history", h.VisitHistory)
	shared.GET("/patients/:id/prescriptions", h.Prescriptions)
}

func (h *Handler) VisitHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient id"))
		return
	}

	entries, err := h.svc.VisitHistory(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(entries))
}

func (h *Handler) Prescriptions(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient id"))
		return
	}

	prescriptions, err := h.svc.Prescriptions(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(prescriptions))
}
