package document

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/embassygq/consular-api/internal/handler"
	"github.com/embassygq/consular-api/internal/model"
	"github.com/embassygq/consular-api/internal/service/document"
)

type Handler struct {
	service *document.Service
}

func NewHandler(service *document.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, staffOnly gin.HandlerFunc) {
	documents := r.Group("/documents")
	{
		documents.POST("", h.Upload)
		documents.GET("", h.List)
		documents.GET("/:id", h.Get)
		documents.GET("/:id/download", h.Download)
		documents.POST("/:id/verify", staffOnly, h.Verify)
		documents.POST("/:id/attach", h.Attach)
	}
}

// Upload accepts a multipart form with the file and its metadata
// fields.
func (h *Handler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("file is required"))
		return
	}

	req := &model.UploadDocumentRequest{
		DocumentType: model.DocumentType(c.PostForm("document_type")),
		Title:        c.PostForm("title"),
	}
	if desc := c.PostForm("description"); desc != "" {
		req.Description = &desc
	}

	citizenID := uuid.Nil
	if raw := c.PostForm("citizen_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid citizen ID"))
			return
		}
		citizenID = id
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("failed to read uploaded file"))
		return
	}
	defer f.Close()

	up := &document.Upload{
		FileName: file.Filename,
		MimeType: file.Header.Get("Content-Type"),
		Size:     file.Size,
		Content:  f,
	}

	doc, err := h.service.Upload(c.Request.Context(), handler.CurrentActor(c), citizenID, up, req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(doc))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid document ID"))
		return
	}

	doc, err := h.service.Get(c.Request.Context(), handler.CurrentActor(c), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(doc))
}

// Download streams the stored file back to the client.
func (h *Handler) Download(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid document ID"))
		return
	}

	doc, rc, err := h.service.Download(c.Request.Context(), handler.CurrentActor(c), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", `attachment; filename="`+doc.OriginalFileName+`"`)
	c.DataFromReader(http.StatusOK, doc.FileSize, doc.MimeType, rc, nil)
}

func (h *Handler) List(c *gin.Context) {
	filters := &model.DocumentFilters{
		DocumentType: model.DocumentType(c.Query("type")),
		Status:       model.DocumentStatus(c.Query("status")),
	}
	if raw := c.Query("citizen_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid citizen ID"))
			return
		}
		filters.CitizenID = id
	}
	if raw := c.Query("application_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid application ID"))
			return
		}
		filters.ApplicationID = id
	}
	if err := c.ShouldBindQuery(&filters.Pagination); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid pagination"))
		return
	}

	docs, total, err := h.service.List(c.Request.Context(), handler.CurrentActor(c), filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewListResponse(docs, total, filters.Pagination))
}

func (h *Handler) Verify(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid document ID"))
		return
	}

	var req model.VerifyDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	doc, err := h.service.Verify(c.Request.Context(), handler.CurrentActor(c), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(doc))
}

func (h *Handler) Attach(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid document ID"))
		return
	}

	var req struct {
		ApplicationID uuid.UUID `json:"application_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	doc, err := h.service.AttachToApplication(c.Request.Context(), handler.CurrentActor(c), id, req.ApplicationID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(doc))
}
