package patient

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medidesk/clinic-api/internal/handler"
	"github.com/medidesk/clinic-api/internal/model"
	"github.com/medidesk/clinic-api/internal/service/registry"
)

type Handler struct {
	svc *registry.Service
}

func NewHandler(svc *registry.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the registry endpoints. Write operations go on the
// receptionist group; the list and stats are shared by both portals.
func (h *Handler) RegisterRoutes(shared, receptionist *gin.RouterGroup) {
	shared.GET("/patients", h.List)
	shared.GET("/patients/:id", h.Get)
	shared.GET("/dashboard/stats", h.Stats)

	receptionist.POST("/patients", h.Register)
	receptionist.PUT("/patients/:id/charges", h.SetCharges)
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	patient, err := h.svc.Register(c.Request.Context(), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(patient))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient id"))
		return
	}

	patient, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(patient))
}

func (h *Handler) List(c *gin.Context) {
	patients, err := h.svc.List(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(patients))
}

func (h *Handler) SetCharges(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient id"))
		return
	}

	var req model.SetChargesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	patient, err := h.svc.SetCharges(c.Request.Context(), id, *req.Charges)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(patient))
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(stats))
}
