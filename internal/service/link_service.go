package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"chiro-intake-api/internal/domain"
	"chiro-intake-api/internal/line"
	"chiro-intake-api/internal/repository"
)

// Costo estimado por mensaje push de LINE, en yenes.
const LineCostPerMessageYen = 5

const linkTokenMarker = "link="

// LinkOutcome describe cómo terminó el procesamiento de un webhook.
// El webhook responde 200 siempre; el outcome es para logs y tests.
type LinkOutcome string

const (
	LinkOutcomeNoEvents       LinkOutcome = "no_events"
	LinkOutcomeNoToken        LinkOutcome = "no_token"
	LinkOutcomeUnknownToken   LinkOutcome = "unknown_token"
	LinkOutcomeAlreadySent    LinkOutcome = "already_sent"
	LinkOutcomeSendDisabled   LinkOutcome = "send_disabled"
	LinkOutcomeBudgetExceeded LinkOutcome = "budget_exceeded"
	LinkOutcomeSendFailed     LinkOutcome = "send_failed"
	LinkOutcomeSent           LinkOutcome = "sent"
)

// Estados del endpoint de reenvío de administración.
const (
	ResendStatusAlreadyLinked  = "already_linked"
	ResendStatusNoLinkToken    = "no_link_token"
	ResendStatusSendDisabled   = "send_disabled"
	ResendStatusBudgetExceeded = "budget_exceeded"
	ResendStatusNeedUserAction = "need_user_action"
)

// LinkService vincula usuarios de LINE con su intake vía el token
// `link=...` del webhook, y dispara el envío del detalle generado.
type LinkService struct {
	logger      *zap.Logger
	intakes     repository.IntakeRepository
	sender      line.Sender
	budget      MonthlyBudget
	sendEnabled bool
}

func NewLinkService(logger *zap.Logger, intakes repository.IntakeRepository, sender line.Sender, budget MonthlyBudget, sendEnabled bool) *LinkService {
	return &LinkService{
		logger:      logger,
		intakes:     intakes,
		sender:      sender,
		budget:      budget,
		sendEnabled: sendEnabled,
	}
}

// ProcessWebhook aplica el flujo de vinculación sobre el primer evento
// del sobre. Todos los caminos devuelven sin error HTTP: LINE reintenta
// los webhooks con respuesta no-2xx y eso duplicaría envíos.
func (s *LinkService) ProcessWebhook(ctx context.Context, payload domain.WebhookPayload) LinkOutcome {
	if len(payload.Events) == 0 {
		return LinkOutcomeNoEvents
	}

	event := payload.Events[0]
	lineUserID := strings.TrimSpace(event.Source.UserID)
	token := extractLinkToken(event.Message.Text)
	if token == "" {
		s.logger.Info("webhook without link token")
		return LinkOutcomeNoToken
	}

	intake, err := s.intakes.GetByLinkToken(ctx, token)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error("lookup by link token failed", zap.Error(err))
		} else {
			s.logger.Info("link token not found")
		}
		return LinkOutcomeUnknownToken
	}

	// Idempotencia: un intake ya enviado no se vuelve a enviar.
	if intake.LineSentAt != nil {
		s.logger.Info("line detail already sent", zap.Int64("intake_id", intake.ID))
		return LinkOutcomeAlreadySent
	}

	if !s.sendEnabled {
		s.logger.Info("line send disabled by config", zap.Int64("intake_id", intake.ID))
		return LinkOutcomeSendDisabled
	}

	now := time.Now().UTC()
	if s.budget == nil || !s.budget.CanSpend(now) {
		s.logger.Warn("line budget exceeded", zap.Int64("intake_id", intake.ID))
		return LinkOutcomeBudgetExceeded
	}

	if err := s.sender.PushText(ctx, lineUserID, line.InitialReplyText); err != nil {
		s.logger.Error("line initial reply failed", zap.Error(err), zap.Int64("intake_id", intake.ID))
		return LinkOutcomeSendFailed
	}
	s.budget.Record(now)

	if err := s.sender.PushText(ctx, lineUserID, intake.LineDetailText); err != nil {
		s.logger.Error("line detail push failed", zap.Error(err), zap.Int64("intake_id", intake.ID))
		return LinkOutcomeSendFailed
	}
	s.budget.Record(now)

	// Se persiste recién después del envío exitoso: si algo falló antes,
	// el próximo webhook con el mismo token reintenta completo.
	if err := s.intakes.MarkLineSent(ctx, intake.ID, lineUserID, now); err != nil {
		s.logger.Error("mark line sent failed", zap.Error(err), zap.Int64("intake_id", intake.ID))
		return LinkOutcomeSendFailed
	}

	s.logger.Info("line detail sent",
		zap.Int64("intake_id", intake.ID),
		zap.String("line_user_id", lineUserID),
	)
	return LinkOutcomeSent
}

// Resend evalúa si un intake sin vincular puede recibir otra invitación.
// Sin userId no hay push posible: la respuesta final siempre es pedirle
// al usuario que reenvíe `link=<token>` por LINE.
func (s *LinkService) Resend(ctx context.Context, id int64) (string, error) {
	intake, err := s.intakes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrIntakeNotFound
		}
		return "", err
	}

	if intake.LineUserID != "" {
		return ResendStatusAlreadyLinked, nil
	}
	if intake.LineLinkToken == "" {
		return ResendStatusNoLinkToken, nil
	}
	if !s.sendEnabled {
		return ResendStatusSendDisabled, nil
	}
	if s.budget == nil || !s.budget.CanSpend(time.Now().UTC()) {
		return ResendStatusBudgetExceeded, nil
	}
	return ResendStatusNeedUserAction, nil
}

// extractLinkToken devuelve el token que sigue a `link=` en el texto.
func extractLinkToken(text string) string {
	idx := strings.Index(text, linkTokenMarker)
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(text[idx+len(linkTokenMarker):])
}
