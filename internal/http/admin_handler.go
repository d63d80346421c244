package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chiro-intake-api/internal/service"
)

// AdminHandler mantiene dependencias para el panel de administración.
type AdminHandler struct {
	logger  *zap.Logger
	intakes *service.IntakeService
	links   *service.LinkService
}

func NewAdminHandler(logger *zap.Logger, intakes *service.IntakeService, links *service.LinkService) *AdminHandler {
	return &AdminHandler{
		logger:  logger,
		intakes: intakes,
		links:   links,
	}
}

// ListIntakes maneja GET /admin/intakes.
func (h *AdminHandler) ListIntakes(c *gin.Context) {
	items, err := h.intakes.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list intakes failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetIntake maneja GET /admin/intakes/:id.
func (h *AdminHandler) GetIntake(c *gin.Context) {
	id, err := parseIntakeID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	detail, err := h.intakes.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrIntakeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		h.logger.Error("get intake failed", zap.Error(err), zap.Int64("intake_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, detail)
}

// ExportCSV maneja GET /admin/intakes.csv.
func (h *AdminHandler) ExportCSV(c *gin.Context) {
	data, err := h.intakes.ExportCSV(c.Request.Context())
	if err != nil {
		h.logger.Error("export intakes csv failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=intakes.csv")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// ResendLine maneja POST /admin/intakes/:id/resend-line.
func (h *AdminHandler) ResendLine(c *gin.Context) {
	id, err := parseIntakeID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	status, err := h.links.Resend(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrIntakeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		h.logger.Error("resend line failed", zap.Error(err), zap.Int64("intake_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if status == service.ResendStatusNeedUserAction {
		c.JSON(http.StatusOK, gin.H{
			"status":  status,
			"message": "LINEで link=XXXX を再送してもらってください",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}
