package domain

// WebhookPayload es el sobre de eventos que envía la plataforma LINE.
type WebhookPayload struct {
	Events []WebhookEvent `json:"events"`
}

type WebhookEvent struct {
	Type    string         `json:"type,omitempty"`
	Source  WebhookSource  `json:"source"`
	Message WebhookMessage `json:"message"`
}

type WebhookSource struct {
	UserID string `json:"userId"`
}

type WebhookMessage struct {
	Type string `json:"type,omitempty"`
	Text string `json:"text"`
}
