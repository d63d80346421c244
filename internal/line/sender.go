package line

import (
	"context"
	"errors"
)

// Mensaje fijo de bienvenida que se envía antes del detalle generado.
const InitialReplyText = "友だち追加ありがとうございます。\nご入力いただいた内容の整理をお送りします。"

// Sender define el contrato para enviar mensajes push por LINE.
type Sender interface {
	PushText(ctx context.Context, lineUserID, text string) error
}

// DisabledSender rechaza todo envío con un motivo fijo. Se usa cuando
// no hay channel token configurado.
type DisabledSender struct {
	reason string
}

func NewDisabledSender(reason string) *DisabledSender {
	if reason == "" {
		reason = "line sender disabled"
	}
	return &DisabledSender{reason: reason}
}

func (s *DisabledSender) PushText(_ context.Context, _, _ string) error {
	return errors.New(s.reason)
}
