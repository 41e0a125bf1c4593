package rest

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"filevault-api/config"
	"filevault-api/internal/application/apperr"
	"filevault-api/internal/application/ports"
	"filevault-api/internal/infrastructure/jwt"
	"filevault-api/internal/interface/api/rest/dto/file_record"
	"filevault-api/internal/interface/api/rest/middleware"
)

const (
	uploadField = "files"
	// multipart boundaries and part headers
	multipartOverhead = int64(1 << 20)
)

type FileController struct {
	fileService ports.FileService
	logger      *zap.Logger
	maxFiles    int
	maxFileSize int64
}

func NewFileController(
	r *gin.Engine,
	fileService ports.FileService,
	logger *zap.Logger,
	jwtService *jwt.Service,
	cfg config.Upload,
) *FileController {
	fc := &FileController{
		fileService: fileService,
		logger:      logger,
		maxFiles:    cfg.MaxFiles,
		maxFileSize: cfg.MaxFileSize,
	}

	authed := middleware.AuthMiddleware(jwtService)

	r.POST(RouteFilesUpload, authed, middleware.RateLimitPerUser(cfg.RatePerMinute, cfg.RateBurst), fc.UploadHandler)
	r.GET(RouteFiles, authed, fc.ListHandler)
	r.GET(RouteFile, authed, fc.GetHandler)
	r.GET(RouteFileDownload, authed, fc.DownloadHandler)
	r.DELETE(RouteFile, authed, fc.DeleteHandler)

	return fc
}

func (fc *FileController) UploadHandler(c *gin.Context) {
	owner, ok := middleware.UserUUID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, int64(fc.maxFiles)*fc.maxFileSize+multipartOverhead)
	form, err := c.MultipartForm()
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "request body too large"})
			return
		}
		respondBadRequest(c, "invalid multipart form", nil)
		return
	}
	defer func() { _ = form.RemoveAll() }()

	files, err := fc.readFiles(form.File[uploadField])
	if err != nil {
		fc.logger.Warn("failed to read multipart file", zap.Error(err))
		respondBadRequest(c, "failed to read uploaded file", nil)
		return
	}

	records, err := fc.fileService.Upload(c.Request.Context(), owner, files)
	if err != nil {
		if len(records) == 0 {
			respondError(c, fc.logger, "Upload()", err)
			return
		}
		// partial success: report the error together with what was stored
		e := apperr.As(err)
		fc.logger.Error("Upload() partial failure",
			zap.Error(err),
			zap.Stringer("owner", owner),
			zap.Int("committed", len(records)),
			zap.Int("requested", len(files)),
		)
		body := errorBody(e)
		body["data"] = file_record.ToResponseFileRecords(records)
		c.JSON(statusOf(e.Kind), body)
		return
	}

	c.JSON(http.StatusCreated, file_record.ToResponseFileRecords(records))
}

// readFiles loads parts into memory. Parts the service is going to reject
// for count or size are passed through without their data.
func (fc *FileController) readFiles(fhs []*multipart.FileHeader) ([]ports.UploadFile, error) {
	files := make([]ports.UploadFile, len(fhs))
	for i, fh := range fhs {
		files[i] = ports.UploadFile{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
		}
		if len(fhs) > fc.maxFiles || fh.Size <= 0 || fh.Size > fc.maxFileSize {
			continue
		}

		data, err := readPart(fh, fc.maxFileSize)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", fh.Filename, err)
		}
		files[i].Data = data
	}

	return files, nil
}

func readPart(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(io.LimitReader(f, limit+1))
}

func (fc *FileController) ListHandler(c *gin.Context) {
	owner, ok := middleware.UserUUID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
		return
	}

	records, err := fc.fileService.List(c.Request.Context(), owner)
	if err != nil {
		respondError(c, fc.logger, "List()", err)
		return
	}

	c.JSON(http.StatusOK, file_record.ToResponseFileRecords(records))
}

func (fc *FileController) GetHandler(c *gin.Context) {
	owner, ok := middleware.UserUUID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
		return
	}

	fr, err := fc.fileService.Get(c.Request.Context(), owner, c.Param("slug"))
	if err != nil {
		respondError(c, fc.logger, "Get()", err)
		return
	}

	c.JSON(http.StatusOK, file_record.ToResponseFileRecord(*fr))
}

func (fc *FileController) DownloadHandler(c *gin.Context) {
	owner, ok := middleware.UserUUID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
		return
	}

	url, err := fc.fileService.DownloadURL(c.Request.Context(), owner, c.Param("slug"))
	if err != nil {
		respondError(c, fc.logger, "DownloadURL()", err)
		return
	}

	c.Redirect(http.StatusFound, url)
}

func (fc *FileController) DeleteHandler(c *gin.Context) {
	owner, ok := middleware.UserUUID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
		return
	}

	if err := fc.fileService.Delete(c.Request.Context(), owner, c.Param("slug")); err != nil {
		respondError(c, fc.logger, "Delete()", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "file deleted"})
}
