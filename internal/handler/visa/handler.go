package visa

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/embassygq/consular-api/internal/handler"
	"github.com/embassygq/consular-api/internal/model"
	"github.com/embassygq/consular-api/internal/service/visa"
)

type Handler struct {
	service *visa.Service
}

func NewHandler(service *visa.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	visas := r.Group("/visas")
	{
		visas.POST("", h.Apply)
		visas.GET("", h.List)
		visas.GET("/:id", h.Get)
		visas.POST("/:id/pay", h.PayFee)
		visas.POST("/:id/status", h.UpdateStatus)
	}
}

func (h *Handler) Apply(c *gin.Context) {
	var req model.ApplyVisaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	citizenID := uuid.Nil
	if raw := c.Query("citizen_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid citizen ID"))
			return
		}
		citizenID = id
	}

	app, err := h.service.Apply(c.Request.Context(), handler.CurrentActor(c), citizenID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(app))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid application ID"))
		return
	}

	app, err := h.service.Get(c.Request.Context(), handler.CurrentActor(c), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(app))
}

func (h *Handler) List(c *gin.Context) {
	filters := &model.VisaFilters{
		Status:   model.VisaStatus(c.Query("status")),
		VisaType: model.VisaType(c.Query("type")),
	}
	if raw := c.Query("citizen_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid citizen ID"))
			return
		}
		filters.CitizenID = id
	}
	if err := c.ShouldBindQuery(&filters.Pagination); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid pagination"))
		return
	}

	apps, total, err := h.service.List(c.Request.Context(), handler.CurrentActor(c), filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewListResponse(apps, total, filters.Pagination))
}

func (h *Handler) PayFee(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid application ID"))
		return
	}

	var req model.PayVisaFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	app, err := h.service.PayFee(c.Request.Context(), handler.CurrentActor(c), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(app))
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid application ID"))
		return
	}

	var req model.UpdateVisaStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	app, err := h.service.UpdateStatus(c.Request.Context(), handler.CurrentActor(c), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(app))
}
