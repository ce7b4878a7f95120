package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/embassygq/consular-api/internal/model"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

type ListMeta struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

type ListResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data"`
	Meta   ListMeta    `json:"meta"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

func NewListResponse(data interface{}, total int64, p model.Pagination) *ListResponse {
	p.Normalize()
	return &ListResponse{
		Status: "success",
		Data:   data,
		Meta:   ListMeta{Total: total, Page: p.Page, PageSize: p.PageSize},
	}
}

// RespondError translates service errors into HTTP responses. Unknown
// errors become an opaque 500 so internals never leak to clients.
func RespondError(c *gin.Context, err error) {
	var verr *model.ValidationError
	var terr *model.InvalidTransitionError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, &Response{
			Status:  "error",
			Message: "validation failed",
			Errors:  verr.Fields,
		})
	case errors.As(err, &terr):
		c.JSON(http.StatusConflict, NewErrorResponse(terr.Error()))
	case errors.Is(err, model.ErrSlotUnavailable):
		c.JSON(http.StatusConflict, NewErrorResponse("the requested time slot is not available"))
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, NewErrorResponse("record not found"))
	case errors.Is(err, model.ErrForbidden):
		c.JSON(http.StatusForbidden, NewErrorResponse("access denied"))
	case errors.Is(err, model.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, NewErrorResponse("invalid credentials"))
	case errors.Is(err, model.ErrAccountDeactivated):
		c.JSON(http.StatusForbidden, NewErrorResponse("account is not active"))
	default:
		c.JSON(http.StatusInternalServerError, NewErrorResponse("internal server error"))
	}
}

// actorKey is where the auth middleware stores the authenticated actor.
const actorKey = "actor"

// SetActor stores the authenticated actor on the request context.
func SetActor(c *gin.Context, actor model.Actor) {
	c.Set(actorKey, actor)
}

// CurrentActor returns the authenticated actor for the request.
func CurrentActor(c *gin.Context) model.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(model.Actor); ok {
			return actor
		}
	}
	return model.Actor{}
}
