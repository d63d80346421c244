package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"chiro-intake-api/internal/domain"
)

// IntakeRepository define el contrato de persistencia para intakes.
type IntakeRepository interface {
	Create(ctx context.Context, payload string) (domain.Intake, error)
	GetByID(ctx context.Context, id int64) (domain.Intake, error)
	GetByLinkToken(ctx context.Context, token string) (domain.Intake, error)
	ListAll(ctx context.Context) ([]domain.Intake, error)
	SaveGeneratedTexts(ctx context.Context, id int64, overview, lineDetail, linkToken string) error
	MarkLineSent(ctx context.Context, id int64, lineUserID string, sentAt time.Time) error
}

// PgIntakeRepository implementa IntakeRepository usando pgxpool.
type PgIntakeRepository struct {
	pool *pgxpool.Pool
}

func NewPgIntakeRepository(pool *pgxpool.Pool) *PgIntakeRepository {
	return &PgIntakeRepository{pool: pool}
}

const intakeColumns = `
	id, payload,
	COALESCE(overview_text, ''), COALESCE(line_detail_text, ''),
	COALESCE(line_link_token, ''), COALESCE(line_user_id, ''),
	line_sent_at, created_at
`

func (r *PgIntakeRepository) Create(ctx context.Context, payload string) (domain.Intake, error) {
	const query = `
		INSERT INTO intakes (payload)
		VALUES ($1)
		RETURNING id, created_at
	`
	intake := domain.Intake{Payload: payload}
	err := r.pool.QueryRow(ctx, query, payload).Scan(&intake.ID, &intake.CreatedAt)
	if err != nil {
		return domain.Intake{}, err
	}
	return intake, nil
}

func (r *PgIntakeRepository) GetByID(ctx context.Context, id int64) (domain.Intake, error) {
	query := `SELECT ` + intakeColumns + ` FROM intakes WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

func (r *PgIntakeRepository) GetByLinkToken(ctx context.Context, token string) (domain.Intake, error) {
	query := `SELECT ` + intakeColumns + ` FROM intakes WHERE line_link_token = $1`
	return r.scanOne(ctx, query, token)
}

func (r *PgIntakeRepository) ListAll(ctx context.Context) ([]domain.Intake, error) {
	query := `SELECT ` + intakeColumns + ` FROM intakes ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var intakes []domain.Intake
	for rows.Next() {
		var it domain.Intake
		err = rows.Scan(
			&it.ID,
			&it.Payload,
			&it.OverviewText,
			&it.LineDetailText,
			&it.LineLinkToken,
			&it.LineUserID,
			&it.LineSentAt,
			&it.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		intakes = append(intakes, it)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return intakes, nil
}

func (r *PgIntakeRepository) SaveGeneratedTexts(ctx context.Context, id int64, overview, lineDetail, linkToken string) error {
	const query = `
		UPDATE intakes
		SET overview_text = $2, line_detail_text = $3, line_link_token = $4
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, overview, lineDetail, linkToken)
	return err
}

func (r *PgIntakeRepository) MarkLineSent(ctx context.Context, id int64, lineUserID string, sentAt time.Time) error {
	const query = `
		UPDATE intakes
		SET line_user_id = $2, line_sent_at = $3
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, lineUserID, sentAt)
	return err
}

func (r *PgIntakeRepository) scanOne(ctx context.Context, query string, arg any) (domain.Intake, error) {
	var it domain.Intake
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&it.ID,
		&it.Payload,
		&it.OverviewText,
		&it.LineDetailText,
		&it.LineLinkToken,
		&it.LineUserID,
		&it.LineSentAt,
		&it.CreatedAt,
	)
	if err != nil {
		return domain.Intake{}, err
	}
	return it, nil
}
