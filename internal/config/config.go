package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string   `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string   `env:"DATABASE_URL,required"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"https://hearing.chiroshiga.com,http://localhost:3000,http://localhost:3001"`

	LLMAPIKey          string `env:"LLM_API_KEY"`
	LLMBaseURL         string `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	LLMModel           string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	LLMMonthlyLimitYen int    `env:"LLM_MONTHLY_LIMIT_YEN" envDefault:"0"`

	LineChannelToken string `env:"LINE_CHANNEL_ACCESS_TOKEN"`
	LineSendEnabled  bool   `env:"LINE_SEND_ENABLED" envDefault:"false"`
	LineBudgetYen    int    `env:"LINE_BUDGET_YEN" envDefault:"0"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	JWTSecret            string `env:"JWT_SECRET"`
	JWTAccessTTLMinutes  int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"15"`
	JWTRefreshTTLMinutes int    `env:"JWT_REFRESH_TTL_MINUTES" envDefault:"43200"`

	AdminEmail        string `env:"ADMIN_EMAIL"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
