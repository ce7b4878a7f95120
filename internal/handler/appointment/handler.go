package appointment

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/embassygq/consular-api/internal/handler"
	"github.com/embassygq/consular-api/internal/model"
	"github.com/embassygq/consular-api/internal/service/appointment"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires the appointment endpoints. staffOnly guards the
// lifecycle transitions that citizens may not perform.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, staffOnly gin.HandlerFunc) {
	appointments := r.Group("/appointments")
	{
		appointments.GET("/slots", h.ListAvailableSlots)
		appointments.POST("", h.Book)
		appointments.GET("", h.List)
		appointments.GET("/:id", h.Get)
		appointments.PATCH("/:id", h.Update)
		appointments.POST("/:id/cancel", h.Cancel)
		appointments.POST("/:id/confirm", staffOnly, h.Confirm)
		appointments.POST("/:id/start", staffOnly, h.Start)
		appointments.POST("/:id/complete", staffOnly, h.Complete)
		appointments.POST("/:id/no-show", staffOnly, h.MarkNoShow)
	}
}

// ListAvailableSlots returns the open slots for one day.
// GET /appointments/slots?date=2026-09-15&duration=30
func (h *Handler) ListAvailableSlots(c *gin.Context) {
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("date must be formatted YYYY-MM-DD"))
		return
	}

	var query struct {
		Duration int `form:"duration"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid duration"))
		return
	}

	slots, err := h.service.ListAvailableSlots(c.Request.Context(), date, query.Duration)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"date":  date.Format("2006-01-02"),
		"slots": slots,
	}))
}

func (h *Handler) Book(c *gin.Context) {
	var req model.BookAppointmentRequest
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

	apt, err := h.service.Book(c.Request.Context(), handler.CurrentActor(c), citizenID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(apt))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	apt, err := h.service.Get(c.Request.Context(), handler.CurrentActor(c), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
}

func (h *Handler) List(c *gin.Context) {
	filters := &model.AppointmentFilters{}

	if raw := c.Query("citizen_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid citizen ID"))
			return
		}
		filters.CitizenID = id
	}
	if status := c.Query("status"); status != "" {
		filters.Status = model.AppointmentStatus(status)
	}
	if t := c.Query("type"); t != "" {
		filters.AppointmentType = model.AppointmentType(t)
	}
	if raw := c.Query("start_date"); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("start_date must be formatted YYYY-MM-DD"))
			return
		}
		filters.StartDate = d
	}
	if raw := c.Query("end_date"); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("end_date must be formatted YYYY-MM-DD"))
			return
		}
		filters.EndDate = d
	}
	if err := c.ShouldBindQuery(&filters.Pagination); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid pagination"))
		return
	}

	appointments, total, err := h.service.List(c.Request.Context(), handler.CurrentActor(c), filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewListResponse(appointments, total, filters.Pagination))
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	var req model.UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	apt, err := h.service.Update(c.Request.Context(), handler.CurrentActor(c), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
}

func (h *Handler) Confirm(c *gin.Context) {
	h.transition(c, func(actor model.Actor, id uuid.UUID) (*model.Appointment, error) {
		return h.service.Confirm(c.Request.Context(), actor, id)
	})
}

func (h *Handler) Start(c *gin.Context) {
	h.transition(c, func(actor model.Actor, id uuid.UUID) (*model.Appointment, error) {
		return h.service.Start(c.Request.Context(), actor, id)
	})
}

func (h *Handler) Complete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	var req model.CompleteAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	apt, err := h.service.Complete(c.Request.Context(), handler.CurrentActor(c), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
}

func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	var req model.CancelAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	apt, err := h.service.Cancel(c.Request.Context(), handler.CurrentActor(c), id, req.Reason)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
}

func (h *Handler) MarkNoShow(c *gin.Context) {
	h.transition(c, func(actor model.Actor, id uuid.UUID) (*model.Appointment, error) {
		return h.service.MarkNoShow(c.Request.Context(), actor, id)
	})
}

func (h *Handler) transition(c *gin.Context, run func(model.Actor, uuid.UUID) (*model.Appointment, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	apt, err := run(handler.CurrentActor(c), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
}
