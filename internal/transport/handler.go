// Package transport exposes the counting pipeline over HTTP.
package transport

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"nucleus-counter/internal/batch"
	"nucleus-counter/internal/config"
	apperrors "nucleus-counter/internal/errors"
	"nucleus-counter/internal/imaging"
	"nucleus-counter/internal/logger"
	"nucleus-counter/internal/pipeline"
)

type CountResponse struct {
	Count int       `json:"count"`
	Areas []float64 `json:"areas"`
}

type BatchItemResponse struct {
	Filename string    `json:"filename"`
	Count    int       `json:"count"`
	Areas    []float64 `json:"areas,omitempty"`
	Error    string    `json:"error,omitempty"`
}

type BatchResponse struct {
	Files []BatchItemResponse `json:"files"`
	Total int                 `json:"total"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type handler struct {
	pipe   *pipeline.Pipeline
	loader *imaging.Loader
	cfg    *config.Config
	log    logger.Logger
}

func NewHandler(pipe *pipeline.Pipeline, loader *imaging.Loader, cfg *config.Config, log logger.Logger) http.Handler {
	h := &handler{pipe: pipe, loader: loader, cfg: cfg, log: log}

	r := gin.New()
	r.Use(gin.Recovery(), requestSizeLimiter(cfg.MaxUploadSize))

	r.GET("/health", h.health)
	r.POST("/count", h.countNuclei)
	r.POST("/count/batch", h.countBatch)

	return r
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "available",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handler) countNuclei(c *gin.Context) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	params, err := paramsFromForm(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	file, _, err := c.Request.FormFile("image")
	if err != nil {
		h.respondError(c, apperrors.NewInvalidParameter("missing image upload field"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.respondError(c, apperrors.NewDecode("failed to read upload", err))
		return
	}

	img, err := h.loader.LoadGrayscale(data)
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer img.Close()

	result, err := h.pipe.Run(ctx, img.Mat, params)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.log.Info("Handler", "count request completed", map[string]interface{}{
		"width":       img.Width,
		"height":      img.Height,
		"count":       result.Count,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	c.JSON(http.StatusOK, CountResponse{
		Count: result.Count,
		Areas: result.Areas(),
	})
}

// countBatch counts every file uploaded under the "images" field,
// sharing one parameter set. Uploads fan out over Workers goroutines;
// a file that fails to decode or process reports its error in place
// without failing the request.
func (h *handler) countBatch(c *gin.Context) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	params, err := paramsFromForm(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		h.respondError(c, apperrors.NewInvalidParameter("malformed multipart form"))
		return
	}
	files := form.File["images"]
	if len(files) == 0 {
		h.respondError(c, apperrors.NewInvalidParameter("missing images upload field"))
		return
	}

	pool := batch.NewPool(h.cfg.Workers)
	pool.Start()
	defer pool.Close()

	items := make([]BatchItemResponse, len(files))
	var mu sync.Mutex

	for i, header := range files {
		i, header := i, header
		pool.Submit(func() {
			item := h.countUpload(ctx, header, params)
			mu.Lock()
			items[i] = item
			mu.Unlock()
		})
	}

	pool.Wait()

	total := 0
	for _, item := range items {
		total += item.Count
	}

	h.log.Info("Handler", "batch count request completed", map[string]interface{}{
		"files":       len(files),
		"total":       total,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	c.JSON(http.StatusOK, BatchResponse{Files: items, Total: total})
}

func (h *handler) countUpload(ctx context.Context, header *multipart.FileHeader, params pipeline.Params) BatchItemResponse {
	item := BatchItemResponse{Filename: header.Filename}

	file, err := header.Open()
	if err != nil {
		item.Error = err.Error()
		return item
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		item.Error = err.Error()
		return item
	}

	img, err := h.loader.LoadGrayscale(data)
	if err != nil {
		item.Error = err.Error()
		return item
	}
	defer img.Close()

	result, err := h.pipe.Run(ctx, img.Mat, params)
	if err != nil {
		item.Error = err.Error()
		return item
	}

	item.Count = result.Count
	item.Areas = result.Areas()
	return item
}

// paramsFromForm overlays form values onto the defaults. Malformed
// values surface as invalid_parameter rather than being corrected.
func paramsFromForm(c *gin.Context) (pipeline.Params, error) {
	params := pipeline.DefaultParams()

	if v := c.PostForm("blur_kernel_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return params, apperrors.NewInvalidParameterf("blur_kernel_size %q is not an integer", v)
		}
		params.BlurKernelSize = n
	}
	if v := c.PostForm("threshold_mode"); v != "" {
		params.ThresholdMode = pipeline.ThresholdMode(v)
	}
	if v := c.PostForm("threshold_value"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return params, apperrors.NewInvalidParameterf("threshold_value %q is not an integer", v)
		}
		params.ThresholdValue = n
	}
	if v := c.PostForm("adaptive_block_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return params, apperrors.NewInvalidParameterf("adaptive_block_size %q is not an integer", v)
		}
		params.AdaptiveBlockSize = n
	}
	if v := c.PostForm("adaptive_offset"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return params, apperrors.NewInvalidParameterf("adaptive_offset %q is not a number", v)
		}
		params.AdaptiveOffset = f
	}
	if v := c.PostForm("min_blob_area"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return params, apperrors.NewInvalidParameterf("min_blob_area %q is not a number", v)
		}
		params.MinBlobArea = f
	}

	return params, params.Validate()
}

func (h *handler) respondError(c *gin.Context, err error) {
	code := statusCodeFor(err)

	h.log.Error("Handler", err, map[string]interface{}{
		"status_code": code,
		"path":        c.Request.URL.Path,
	})

	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: err.Error(),
	})
}

func statusCodeFor(err error) int {
	switch {
	case apperrors.IsKind(err, apperrors.KindInvalidParameter):
		return http.StatusBadRequest
	case apperrors.IsKind(err, apperrors.KindDecode):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
