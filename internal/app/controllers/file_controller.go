package controllers

import (
	"errors"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/studentdesk/student-api/internal/app/models/dto"
	"github.com/studentdesk/student-api/internal/middleware"
	"github.com/studentdesk/student-api/internal/pkg/apperrors"
	"github.com/studentdesk/student-api/internal/pkg/filestorage"
)

// FilesRoute is the URL prefix stored files are served under.
const FilesRoute = "/api/files"

// FileController handles file upload, listing and download
type FileController struct {
	storage       filestorage.FileStorage
	maxUploadSize int64
	logger        zerolog.Logger
}

// NewFileController creates a new FileController. A non-positive
// maxUploadSize disables the size check.
func NewFileController(storage filestorage.FileStorage, maxUploadSize int64, logger zerolog.Logger) *FileController {
	return &FileController{storage: storage, maxUploadSize: maxUploadSize, logger: logger}
}

func fileURL(name string) string {
	return FilesRoute + "/" + url.PathEscape(name)
}

// Upload handles POST /api/files/upload
func (c *FileController) Upload(ctx *gin.Context) {
	if c.maxUploadSize > 0 {
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, c.maxUploadSize)
	}

	header, err := ctx.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.AbortWithError(ctx, http.StatusRequestEntityTooLarge, "File exceeds the maximum upload size", nil)
			return
		}
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("Multipart field 'file' is required"))
		return
	}

	src, err := header.Open()
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	defer src.Close()

	stored, err := c.storage.Store(header.Filename, src)
	if err != nil {
		c.logger.Warn().Err(err).Str("filename", header.Filename).Msg("Upload rejected")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.UploadResponse{URL: fileURL(stored)})
}

// List handles GET /api/files
func (c *FileController) List(ctx *gin.Context) {
	files, err := c.storage.List()
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := make([]dto.FileResponse, 0, len(files))
	for _, f := range files {
		resp = append(resp, dto.FileResponse{
			Filename:   f.Filename,
			Size:       f.Size,
			URL:        fileURL(f.Filename),
			ModifiedAt: f.ModifiedAt,
		})
	}
	ctx.JSON(http.StatusOK, resp)
}

// Download handles GET /api/files/:filename as an attachment
func (c *FileController) Download(ctx *gin.Context) {
	name := ctx.Param("filename")
	path, err := c.storage.Resolve(name)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.FileAttachment(path, filepath.Base(path))
}
