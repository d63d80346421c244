package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"chiro-intake-api/internal/config"
)

// NewPool construye y devuelve un pool de conexiones configurado.
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	// Configuración razonable para ambientes iniciales.
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second
	poolCfg.ConnConfig.ConnectTimeout = 5 * time.Second

	return pgxpool.NewWithConfig(ctx, poolCfg)
}

// Ping verifica conectividad con la base de datos.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	return pool.Ping(ctx)
}

const intakesSchema = `
	CREATE TABLE IF NOT EXISTS intakes (
		id               BIGSERIAL PRIMARY KEY,
		payload          TEXT NOT NULL,
		overview_text    TEXT,
		line_detail_text TEXT,
		line_link_token  TEXT UNIQUE,
		line_user_id     TEXT,
		line_sent_at     TIMESTAMPTZ,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

// InitSchema crea las tablas si no existen todavía.
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, intakesSchema)
	return err
}
