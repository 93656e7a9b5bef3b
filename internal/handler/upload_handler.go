package handler

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/service"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
	"github.com/noah-isme/school-portal-api/pkg/response"
)

type blobService interface {
	Store(folder string, upload service.Upload) (*service.StoredFile, error)
	Open(key string) (*os.File, string, error)
}

type galleryService interface {
	List(ctx context.Context) ([]models.GalleryImage, error)
	Upload(ctx context.Context, req service.GalleryUploadRequest, upload service.Upload, userID string) (*models.GalleryImage, error)
	Delete(ctx context.Context, id string) error
}

// MediaHandler accepts uploads and serves stored blobs.
type MediaHandler struct {
	uploads blobService
	gallery galleryService
}

// NewMediaHandler constructs the handler.
func NewMediaHandler(uploads blobService, gallery galleryService) *MediaHandler {
	return &MediaHandler{uploads: uploads, gallery: gallery}
}

// Upload godoc
// @Summary Upload a file
// @Description Stores an image and returns its public URL
// @Tags Media
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File"
// @Param folder formData string false "Target folder"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.ErrorBody
// @Failure 413 {object} response.ErrorBody
// @Failure 415 {object} response.ErrorBody
// @Router /api/admin/upload [post]
func (h *MediaHandler) Upload(c *gin.Context) {
	upload, closeFn, ok := formFile(c)
	if !ok {
		return
	}
	defer closeFn()

	folder := strings.TrimSpace(c.PostForm("folder"))
	if folder == "" {
		folder = "uploads"
	}
	stored, err := h.uploads.Store(folder, upload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, stored)
}

// Serve godoc
// @Summary Serve an uploaded file
// @Tags Media
// @Param path path string true "Storage key"
// @Success 200 {file} file
// @Failure 404 {object} response.ErrorBody
// @Router /media/{path} [get]
func (h *MediaHandler) Serve(c *gin.Context) {
	file, contentType, err := h.uploads.Open(strings.TrimPrefix(c.Param("path"), "/"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to read file"))
		return
	}
	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "public, max-age=86400")
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), file)
}

// GalleryList godoc
// @Summary List gallery images
// @Tags Gallery
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /api/admin/gallery [get]
func (h *MediaHandler) GalleryList(c *gin.Context) {
	images, err := h.gallery.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, images)
}

// GalleryUpload godoc
// @Summary Upload gallery image
// @Tags Gallery
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image"
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param category formData string false "Category"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.ErrorBody
// @Failure 415 {object} response.ErrorBody
// @Router /api/admin/gallery/upload [post]
func (h *MediaHandler) GalleryUpload(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var req service.GalleryUploadRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Invalid gallery payload"))
		return
	}
	upload, closeFn, ok := formFile(c)
	if !ok {
		return
	}
	defer closeFn()

	image, err := h.gallery.Upload(c.Request.Context(), req, upload, principal.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, image)
}

// GalleryDelete godoc
// @Summary Delete gallery image
// @Description Removes the row and the stored blob
// @Tags Gallery
// @Param id path string true "Image ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.ErrorBody
// @Router /api/admin/gallery/{id} [delete]
func (h *MediaHandler) GalleryDelete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.gallery.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nil)
}

func formFile(c *gin.Context) (service.Upload, func(), bool) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "File is required"))
		return service.Upload{}, nil, false
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to read upload"))
		return service.Upload{}, nil, false
	}
	return service.Upload{Filename: header.Filename, Size: header.Size, Content: file}, func() { _ = file.Close() }, true
}
