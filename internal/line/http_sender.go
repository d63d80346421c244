package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultPushURL = "https://api.line.me/v2/bot/message/push"

// HTTPSender envía mensajes por la Messaging API de LINE.
type HTTPSender struct {
	pushURL      string
	channelToken string
	client       *http.Client
}

func NewHTTPSender(channelToken string) (*HTTPSender, error) {
	if strings.TrimSpace(channelToken) == "" {
		return nil, fmt.Errorf("line channel token is required")
	}
	return &HTTPSender{
		pushURL:      defaultPushURL,
		channelToken: channelToken,
		client:       &http.Client{Timeout: 5 * time.Second},
	}, nil
}

func (s *HTTPSender) PushText(ctx context.Context, lineUserID, text string) error {
	if strings.TrimSpace(lineUserID) == "" {
		return fmt.Errorf("line user id is required")
	}

	reqBody := pushRequest{
		To: lineUserID,
		Messages: []pushMessage{
			{Type: "text", Text: text},
		},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.pushURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.channelToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("line push failed: status=%d body=%s", resp.StatusCode, string(respBody))
	}
	return nil
}

type pushRequest struct {
	To       string        `json:"to"`
	Messages []pushMessage `json:"messages"`
}

type pushMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
