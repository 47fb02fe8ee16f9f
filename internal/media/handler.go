package media

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agencyhub/backend/internal/identity"
	"github.com/agencyhub/backend/internal/models"
	"github.com/agencyhub/backend/pkg/apperr"
	"github.com/agencyhub/backend/pkg/response"
	"github.com/agencyhub/backend/pkg/storage"
)

// Uploader writes objects to the media bucket and returns their URL.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, contentLength int64) (string, error)
}

// multipartOverhead is headroom above MaxImageSize for form boundaries and fields.
const multipartOverhead = 64 * 1024

// Handler handles media and file-route endpoints.
type Handler struct {
	svc      *Service
	uploader Uploader
	logger   *zap.Logger
}

// NewHandler creates a media handler. uploader may be nil when storage is not configured.
func NewHandler(svc *Service, uploader Uploader, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, uploader: uploader, logger: logger}
}

// UploadResult is returned by the file router.
type UploadResult struct {
	UploadedBy string        `json:"uploaded_by"`
	FileURL    string        `json:"file_url"`
	Media      *models.Media `json:"media,omitempty"`
}

// Upload handles POST /api/uploadthing?slug={route}. Form field "file" carries a
// single image; "subaccount_id" and "name" are read for the media route.
func (h *Handler) Upload(c *gin.Context) {
	session, ok := identity.SessionFromContext(c.Request.Context())
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}
	if h.uploader == nil {
		response.Internal(c, "storage not configured")
		return
	}
	route := c.Query("slug")
	if !storage.ValidRoute(route) {
		response.BadRequest(c, "unknown file route")
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, storage.MaxImageSize+multipartOverhead)
	form, err := c.MultipartForm()
	if err != nil {
		response.BadRequest(c, "invalid multipart form or file size exceeds 4MB limit")
		return
	}
	files := form.File["file"]
	switch {
	case len(files) == 0:
		response.BadRequest(c, "missing file (form field: file)")
		return
	case len(files) > 1:
		response.BadRequest(c, "only one file may be uploaded")
		return
	}
	file := files[0]
	if file.Size > storage.MaxImageSize {
		response.BadRequest(c, "file size exceeds 4MB limit")
		return
	}
	contentType, ext, ok := storage.ValidateImage(file.Header.Get("Content-Type"), file.Filename)
	if !ok {
		response.BadRequest(c, "invalid file type: only images allowed")
		return
	}

	rc, err := file.Open()
	if err != nil {
		h.logger.Error("open uploaded file failed", zap.Error(err))
		response.Internal(c, "failed to read file")
		return
	}
	defer rc.Close()

	ctx := c.Request.Context()
	key := storage.ObjectKey(route, session.UserID, ext)
	fileURL, err := h.uploader.Upload(ctx, key, contentType, rc, file.Size)
	if err != nil {
		h.logger.Error("S3 upload failed", zap.Error(err), zap.String("route", route), zap.String("key", key))
		response.Internal(c, "failed to upload file to storage")
		return
	}
	h.logger.Info("upload complete", zap.String("route", route), zap.String("user_id", session.UserID), zap.String("file_url", fileURL))

	result := UploadResult{UploadedBy: session.UserID, FileURL: fileURL}
	if subID := c.PostForm("subaccount_id"); route == storage.RouteMedia && subID != "" {
		name := strings.TrimSpace(c.PostForm("name"))
		if name == "" {
			name = file.Filename
		}
		m := &models.Media{Type: contentType, Name: name, Link: fileURL, ObjectKey: key, SubAccountID: subID}
		if err := h.svc.Create(ctx, m); err != nil {
			h.svc.ScheduleCleanup(context.WithoutCancel(ctx), "", key)
			h.fail(c, "create media", err)
			return
		}
		result.Media = m
	}
	response.OK(c, result)
}

// List handles GET /api/subaccounts/:subaccountId/media.
func (h *Handler) List(c *gin.Context) {
	out, err := h.svc.List(c.Request.Context(), c.Param("subaccountId"))
	if err != nil {
		h.fail(c, "list media", err)
		return
	}
	response.OK(c, out)
}

// Delete handles DELETE /api/media/:mediaId.
func (h *Handler) Delete(c *gin.Context) {
	m, err := h.svc.Delete(c.Request.Context(), c.Param("mediaId"))
	if err != nil {
		h.fail(c, "delete media", err)
		return
	}
	response.OK(c, m)
}

// Download handles GET /api/media/:mediaId/download with a redirect to a pre-signed URL.
func (h *Handler) Download(c *gin.Context) {
	url, err := h.svc.DownloadURL(c.Request.Context(), c.Param("mediaId"))
	if err != nil {
		h.fail(c, "download media", err)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, url)
}

func (h *Handler) fail(c *gin.Context, msg string, err error) {
	if apperr.ErrorCode(err) == apperr.EInternal {
		h.logger.Error(msg, zap.Error(err))
	}
	response.Error(c, err)
}
