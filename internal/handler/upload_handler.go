package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/duochat/internal/domain"
	"github.com/weiawesome/duochat/pkg/log"
	"github.com/weiawesome/duochat/pkg/response"
	"github.com/weiawesome/duochat/pkg/storage"
)

// multipart framing allowance on top of the file size limit
const formOverhead = 1 << 20

// Upload stores an attachment sent as multipart field "file".
func (h *Handler) Upload(c *gin.Context) {
	ctx := c.Request.Context()

	username, ok := currentUser(c)
	if !ok {
		return
	}

	limitBody(c, h.maxUploadBytes)

	upload, closeFn, err := formFile(c, "file")
	if err != nil {
		writeFormError(c, err)
		return
	}
	defer closeFn()

	result, err := h.uploadService.Upload(ctx, username, upload)
	if err != nil {
		handleError(c, err, "failed to upload file")
		return
	}
	response.Success(c, result)
}

// ServeUpload streams a stored object for URLs handed out by the storage backend.
func (h *Handler) ServeUpload(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		response.NotFound(c, "file not found")
		return
	}

	rc, err := h.files.Read(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.NotFound(c, "file not found")
			return
		}
		l.Error().Err(err).Str("key", key).Msg("failed to read upload")
		response.InternalError(c, "failed to read file")
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
}

func limitBody(c *gin.Context, maxBytes int64) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+formOverhead)
}

// formFile opens a multipart file field. The returned close function must
// be called once the upload has been consumed.
func formFile(c *gin.Context, field string) (*domain.Upload, func(), error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, func() {}, err
	}
	f, err := header.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &domain.Upload{
		Name: header.Filename,
		Type: header.Header.Get("Content-Type"),
		Size: header.Size,
		Body: f,
	}, func() { f.Close() }, nil
}

func isMissingFile(err error) bool {
	return errors.Is(err, http.ErrMissingFile)
}

func writeFormError(c *gin.Context, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr), strings.Contains(err.Error(), "request body too large"):
		response.TooLarge(c, domain.ErrFileTooLarge.Error())
	case isMissingFile(err):
		response.BadRequest(c, "no file uploaded")
	case errors.Is(err, io.ErrUnexpectedEOF):
		response.BadRequest(c, "incomplete multipart body")
	default:
		response.BadRequest(c, err.Error())
	}
}
