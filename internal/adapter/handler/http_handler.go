package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rl1809/serial-registry/internal/adapter/export"
	"github.com/rl1809/serial-registry/internal/core/domain"
	"github.com/rl1809/serial-registry/internal/core/service"
	"github.com/rl1809/serial-registry/internal/platform/logger"
)

var errEmptySerial = errors.New("serial number is required")

type HTTPHandler struct {
	serials *service.SerialService
	stats   *service.StatisticsService
	log     *logger.Logger
}

func NewHTTPHandler(serials *service.SerialService, stats *service.StatisticsService, log *logger.Logger) *HTTPHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &HTTPHandler{serials: serials, stats: stats, log: log.With("handler", "HTTPHandler")}
}

func (h *HTTPHandler) GenerateBatch(c *gin.Context) {
	var req GenerateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	cfg, err := req.config()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_config", err)
		return
	}

	records, err := h.serials.GenerateBatch(c.Request.Context(), req.ProductName, cfg)
	if err != nil {
		status, code := classify(err)
		RespondError(c, status, code, err)
		return
	}
	c.JSON(http.StatusCreated, toBatchResponse(records[0].BatchID, records))
}

func (h *HTTPHandler) GetBatch(c *gin.Context) {
	batchID := c.Param("batchID")
	records, ok := h.batchRecords(c, batchID)
	if !ok {
		return
	}
	RespondOK(c, toBatchResponse(batchID, records))
}

func (h *HTTPHandler) ExportBatch(c *gin.Context) {
	batchID := c.Param("batchID")
	records, ok := h.batchRecords(c, batchID)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+export.FileName(batchID)+`"`)
	c.Status(http.StatusOK)
	if err := export.WriteCSV(c.Writer, records); err != nil {
		h.log.Error("csv export failed", "batch_id", batchID, "error", err)
	}
}

func (h *HTTPHandler) batchRecords(c *gin.Context, batchID string) ([]domain.SerialRecord, bool) {
	records, err := h.serials.BatchRecords(c.Request.Context(), batchID)
	if err != nil {
		h.log.Warn("batch lookup failed", "batch_id", batchID, "error", err)
		RespondError(c, http.StatusServiceUnavailable, "store_unavailable", err)
		return nil, false
	}
	if len(records) == 0 {
		RespondError(c, http.StatusNotFound, "batch_not_found", errors.New("batch not found"))
		return nil, false
	}
	return records, true
}

// VerifyPath handles GET /api/verify/*serial. The catch-all keeps serials
// that contain an escaped slash intact.
func (h *HTTPHandler) VerifyPath(c *gin.Context) {
	h.verify(c, strings.TrimPrefix(c.Param("serial"), "/"))
}

func (h *HTTPHandler) VerifyBody(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	h.verify(c, req.SerialNumber)
}

func (h *HTTPHandler) verify(c *gin.Context, serial string) {
	if serial == "" {
		RespondError(c, http.StatusBadRequest, "invalid_serial", errEmptySerial)
		return
	}
	v, err := h.serials.Verify(c.Request.Context(), serial)
	if err != nil {
		status, code := classify(err)
		RespondError(c, status, code, err)
		return
	}
	RespondOK(c, toVerifyResponse(v))
}

// Code serves the printable PNG label for a registered serial.
func (h *HTTPHandler) Code(c *gin.Context) {
	serial := strings.TrimPrefix(c.Param("serial"), "/")
	if serial == "" {
		RespondError(c, http.StatusBadRequest, "invalid_serial", errEmptySerial)
		return
	}
	v, err := h.serials.Verify(c.Request.Context(), serial)
	if err != nil {
		status, code := classify(err)
		RespondError(c, status, code, err)
		return
	}
	if !v.Valid() {
		RespondError(c, http.StatusNotFound, "serial_not_found", errors.New("serial not registered"))
		return
	}

	png, err := h.serials.Encoder().Render(serial)
	if err != nil {
		h.log.Error("render failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "render_failed", err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (h *HTTPHandler) Statistics(c *gin.Context) {
	r, err := domain.ParseRange(c.Query("range"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_range", err)
		return
	}
	snap, err := h.stats.Aggregate(c.Request.Context(), r)
	if err != nil {
		status, code := classify(err)
		RespondError(c, status, code, err)
		return
	}
	RespondOK(c, toStatisticsResponse(snap))
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	RespondOK(c, gin.H{"status": "ok"})
}
