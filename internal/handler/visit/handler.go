package visit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medidesk/clinic-api/internal/handler"
	"github.com/medidesk/clinic-api/internal/middleware"
	"github.com/medidesk/clinic-api/internal/model"
	"github.com/medidesk/clinic-api/internal/service/visit"
)

type Handler struct {
	svc *visit.Service
}

func NewHandler(svc *visit.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the doctor-only lifecycle endpoints.
func (h *Handler) RegisterRoutes(doctor *gin.RouterGroup) {
	doctor.POST("/patients/:id/consultation", h.StartConsultation)
	doctor.POST("/patients/:id/prescription", h.RecordPrescription)
}

func (h *Handler) StartConsultation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient id"))
		return
	}

	patient, err := h.svc.StartConsultation(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(patient))
}

func (h *Handler) RecordPrescription(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient id"))
		return
	}

	var req model.RecordPrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing session"))
		return
	}

	result, err := h.svc.RecordPrescription(c.Request.Context(), id, claims.AccountID, req.Text)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(result))
}
