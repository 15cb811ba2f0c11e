package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/davicafu/imagelab/internal/image/application"
	"github.com/davicafu/imagelab/internal/image/domain"
)

const maxUploadBytes = 10 << 20 // 10 MiB

// ImageHandler encapsula los endpoints HTTP relacionados con Image
type ImageHandler struct {
	service *application.ImageService
}

// NewImageHandler crea un nuevo ImageHandler
func NewImageHandler(service *application.ImageService) *ImageHandler {
	return &ImageHandler{service: service}
}

// ---------------- Handlers ----------------

// ProcessImage endpoint POST /images (multipart: image, style)
func (h *ImageHandler) ProcessImage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	style := c.PostForm("style")
	if style == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "style is required"})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read image file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read image file"})
		return
	}

	result, err := h.service.ProcessImage(c.Request.Context(), user.ID, data, style, fileHeader.Size)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidStyle) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid style"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// 202: el procesado continúa en background, el resultado llega por WS.
	c.JSON(http.StatusAccepted, result)
}

// ListImages endpoint GET /images
func (h *ImageHandler) ListImages(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	images, err := h.service.GetProcessedImages(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, images)
}

// GetImage endpoint GET /images/:id
func (h *ImageHandler) GetImage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	imageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image id"})
		return
	}

	img, err := h.service.GetImage(c.Request.Context(), user.ID, imageID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrImageNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
		case errors.Is(err, domain.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, img)
}

// UpdateVisibility endpoint PATCH /images/:id/visibility
func (h *ImageHandler) UpdateVisibility(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	imageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image id"})
		return
	}

	var req struct {
		Visibility string `json:"visibility" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	visibility := domain.Visibility(req.Visibility)
	if visibility != domain.VisibilityPrivate && visibility != domain.VisibilityPublic {
		c.JSON(http.StatusBadRequest, gin.H{"error": "visibility must be private or public"})
		return
	}

	img, err := h.service.UpdateVisibility(c.Request.Context(), user.ID, imageID, visibility)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrImageNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
		case errors.Is(err, domain.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, img)
}

// RecentEvents endpoint GET /events/recent?limit=
func (h *ImageHandler) RecentEvents(c *gin.Context) {
	limit := 20
	if limitStr := c.Query("limit"); limitStr != "" {
		if v, err := strconv.Atoi(limitStr); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}

	evts, err := h.service.RecentEvents(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, evts)
}
