package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chiro-intake-api/internal/service"
)

// IntakeHandler mantiene dependencias para los endpoints públicos.
type IntakeHandler struct {
	logger  *zap.Logger
	intakes *service.IntakeService
}

func NewIntakeHandler(logger *zap.Logger, intakes *service.IntakeService) *IntakeHandler {
	return &IntakeHandler{
		logger:  logger,
		intakes: intakes,
	}
}

// ReceiveIntake maneja POST /api/intake.
func (h *IntakeHandler) ReceiveIntake(c *gin.Context) {
	rawBody, err := c.GetRawData()
	if err != nil {
		h.logger.Warn("read intake body failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	intake, err := h.intakes.Receive(c.Request.Context(), rawBody)
	if err != nil {
		if errors.Is(err, service.ErrInvalidIntakePayload) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON format"})
			return
		}
		h.logger.Error("receive intake failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"intake_id": intake.ID,
	})
}

// UserSummary maneja GET /api/intake/:id/user-summary.
func (h *IntakeHandler) UserSummary(c *gin.Context) {
	id, err := parseIntakeID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	result, err := h.intakes.UserSummary(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrIntakeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		h.logger.Error("user summary failed", zap.Error(err), zap.Int64("intake_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseIntakeID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
