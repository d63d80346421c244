package http

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chiro-intake-api/internal/domain"
	"chiro-intake-api/internal/service"
)

// WebhookHandler recibe los callbacks de la plataforma LINE.
type WebhookHandler struct {
	logger *zap.Logger
	links  *service.LinkService
}

func NewWebhookHandler(logger *zap.Logger, links *service.LinkService) *WebhookHandler {
	return &WebhookHandler{
		logger: logger,
		links:  links,
	}
}

// LineWebhook maneja POST /webhook/line. Responde 200 en todos los
// caminos: LINE reintenta ante cualquier otro status y el flujo de
// vinculación ya es idempotente del lado del servicio.
func (h *WebhookHandler) LineWebhook(c *gin.Context) {
	rawBody, err := c.GetRawData()
	if err != nil {
		h.logger.Warn("read webhook body failed", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	// LINE manda un body vacío al verificar la URL del webhook.
	if len(rawBody) == 0 {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	var payload domain.WebhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		h.logger.Warn("invalid webhook payload", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	outcome := h.links.ProcessWebhook(c.Request.Context(), payload)
	h.logger.Info("webhook processed", zap.String("outcome", string(outcome)))

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
