package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chiro-intake-api/internal/service"
)

// PingFunc verifica una dependencia para el healthcheck.
type PingFunc func(ctx context.Context) error

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	corsOrigins []string,
	intakeH *IntakeHandler,
	adminH *AdminHandler,
	webhookH *WebhookHandler,
	authH *AuthHandler,
	jwtSvc *service.JWTService,
	ping PingFunc,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y CORS para el frontend.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), corsMiddleware(corsOrigins))

	r.GET("/healthz", healthHandler(ping))

	api := r.Group("/api")
	api.POST("/intake", intakeH.ReceiveIntake)
	api.GET("/intake/:id/user-summary", intakeH.UserSummary)

	r.POST("/webhook/line", webhookH.LineWebhook)

	admin := r.Group("/admin")
	admin.POST("/login", authH.Login)
	admin.POST("/refresh", authH.Refresh)
	admin.POST("/logout", authH.Logout)

	protected := admin.Group("")
	protected.Use(JWTAuthMiddleware(jwtSvc))
	protected.GET("/intakes", adminH.ListIntakes)
	protected.GET("/intakes.csv", adminH.ExportCSV)
	protected.GET("/intakes/:id", adminH.GetIntake)
	protected.POST("/intakes/:id/resend-line", adminH.ResendLine)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// corsMiddleware habilita CORS solo para los orígenes permitidos.
func corsMiddleware(origins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && allowed[origin] {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			c.Writer.Header().Set("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func healthHandler(ping PingFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
