package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"chiro-intake-api/internal/domain"
	"chiro-intake-api/internal/repository"
)

var (
	ErrIntakeNotFound       = errors.New("intake not found")
	ErrInvalidIntakePayload = errors.New("invalid intake payload")
)

// IntakeService coordina el ciclo de vida de un intake: recepción del
// formulario, vistas de administración y generación de textos.
type IntakeService struct {
	logger          *zap.Logger
	intakes         repository.IntakeRepository
	aiTexts         *AITextService
	lineSendEnabled bool
}

func NewIntakeService(logger *zap.Logger, intakes repository.IntakeRepository, aiTexts *AITextService, lineSendEnabled bool) *IntakeService {
	return &IntakeService{
		logger:          logger,
		intakes:         intakes,
		aiTexts:         aiTexts,
		lineSendEnabled: lineSendEnabled,
	}
}

// IntakeListItem es una fila del listado de administración.
type IntakeListItem struct {
	ID         int64                         `json:"id"`
	Payload    map[string]any                `json:"payload"`
	CreatedAt  time.Time                     `json:"created_at"`
	Summary    domain.AdminIntakeListSummary `json:"summary"`
	LineStatus string                        `json:"line_status"`
}

// IntakeDetail es la vista completa de un intake para administración.
type IntakeDetail struct {
	ID             int64                     `json:"id"`
	Raw            map[string]any            `json:"raw"`
	Summary        domain.AdminIntakeSummary `json:"summary"`
	OverviewText   string                    `json:"overview_text"`
	LineDetailText string                    `json:"line_detail_text"`
	CreatedAt      time.Time                 `json:"created_at"`
	LineStatus     string                    `json:"line_status"`
	LineSentAt     *time.Time                `json:"line_sent_at"`
}

// UserSummaryResult es lo que ve la pantalla de envío completado.
type UserSummaryResult struct {
	Overview      string `json:"overview"`
	LineLinkToken string `json:"line_link_token"`
}

// Receive guarda el cuerpo del formulario tal cual llegó y devuelve el
// intake creado. El payload se valida como JSON pero no se interpreta.
func (s *IntakeService) Receive(ctx context.Context, rawBody []byte) (domain.Intake, error) {
	var probe map[string]any
	if err := json.Unmarshal(rawBody, &probe); err != nil {
		return domain.Intake{}, ErrInvalidIntakePayload
	}

	intake, err := s.intakes.Create(ctx, string(rawBody))
	if err != nil {
		return domain.Intake{}, err
	}

	s.logger.Info("intake received", zap.Int64("intake_id", intake.ID))
	return intake, nil
}

// List devuelve todos los intakes, más nuevos primero, con el summary
// mínimo y el estado de vinculación LINE.
func (s *IntakeService) List(ctx context.Context) ([]IntakeListItem, error) {
	intakes, err := s.intakes.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	result := []IntakeListItem{}
	for _, it := range intakes {
		payload := decodePayload(it.Payload)
		summary := BuildAdminSummary(payload)
		result = append(result, IntakeListItem{
			ID:         it.ID,
			Payload:    payload,
			CreatedAt:  it.CreatedAt,
			Summary:    summary.ListSummary(),
			LineStatus: it.LineStatus(),
		})
	}
	return result, nil
}

// Get devuelve la vista de detalle de un intake.
func (s *IntakeService) Get(ctx context.Context, id int64) (IntakeDetail, error) {
	intake, err := s.getIntake(ctx, id)
	if err != nil {
		return IntakeDetail{}, err
	}

	payload := decodePayload(intake.Payload)
	return IntakeDetail{
		ID:             intake.ID,
		Raw:            payload,
		Summary:        BuildAdminSummary(payload),
		OverviewText:   intake.OverviewText,
		LineDetailText: intake.LineDetailText,
		CreatedAt:      intake.CreatedAt,
		LineStatus:     intake.LineStatus(),
		LineSentAt:     intake.LineSentAt,
	}, nil
}

var csvHeader = []string{
	"id", "created_at", "name", "chief_complaint", "line_status",
	"has_red_flags", "red_flags", "clinical_focus", "stress_level", "sleep_trouble",
}

// ExportCSV arma el listado completo como CSV UTF-8, una fila por intake.
func (s *IntakeService) ExportCSV(ctx context.Context) ([]byte, error) {
	intakes, err := s.intakes.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}

	for _, it := range intakes {
		payload := decodePayload(it.Payload)
		summary := BuildAdminSummary(payload)

		chief := ""
		if len(summary.ChiefComplaints) > 0 {
			chief = summary.ChiefComplaints[0]
		}
		name, _ := payload["name"].(string)

		row := []string{
			strconv.FormatInt(it.ID, 10),
			it.CreatedAt.UTC().Format(time.RFC3339),
			name,
			chief,
			it.LineStatus(),
			yesNo(len(summary.RedFlags) > 0),
			strings.Join(summary.RedFlags, " / "),
			strOrEmpty(summary.ClinicalFocus),
			strOrEmpty(summary.StressLevel),
			yesNo(summary.SleepTrouble != nil && *summary.SleepTrouble),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UserSummary genera (o regenera) los textos de usuario de un intake,
// emite el token de vinculación LINE si falta y persiste todo.
func (s *IntakeService) UserSummary(ctx context.Context, id int64) (UserSummaryResult, error) {
	intake, err := s.getIntake(ctx, id)
	if err != nil {
		return UserSummaryResult{}, err
	}

	payload := decodePayload(intake.Payload)
	adminSummary := BuildAdminSummary(payload)
	input := BuildUserAIInput(adminSummary)

	overview := s.aiTexts.GenerateOverview(ctx, input)
	lineDetail := s.aiTexts.GenerateLineDetail(ctx, input)

	token := intake.LineLinkToken
	if token == "" {
		token, err = newLinkToken()
		if err != nil {
			return UserSummaryResult{}, err
		}
	}

	if err := s.intakes.SaveGeneratedTexts(ctx, intake.ID, overview, lineDetail, token); err != nil {
		return UserSummaryResult{}, err
	}

	// El push real recién puede salir cuando el webhook traiga un userId.
	if s.lineSendEnabled {
		s.logger.Info("line detail ready, waiting for link", zap.Int64("intake_id", intake.ID))
	} else {
		s.logger.Info("line send disabled", zap.Int64("intake_id", intake.ID))
	}

	return UserSummaryResult{
		Overview:      overview,
		LineLinkToken: token,
	}, nil
}

func (s *IntakeService) getIntake(ctx context.Context, id int64) (domain.Intake, error) {
	intake, err := s.intakes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Intake{}, ErrIntakeNotFound
		}
		return domain.Intake{}, err
	}
	return intake, nil
}

// decodePayload vuelve el JSON guardado a un mapa. Un payload corrupto
// se trata como vacío, igual que el resto del pipeline de summary.
func decodePayload(payload string) map[string]any {
	var decoded map[string]any
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return map[string]any{}
	}
	return decoded
}

func newLinkToken() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func yesNo(v bool) string {
	if v {
		return "YES"
	}
	return "NO"
}

func strOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
