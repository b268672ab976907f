package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/skyblockhq/teamsvc/internal/domain"
)

// DefaultWebhookTimeout bounds a single webhook call.
const DefaultWebhookTimeout = 2 * time.Second

// WebhookConfig configures a WebhookListener.
type WebhookConfig struct {
	URL     string
	Timeout time.Duration
	// FailClosed cancels the event when the webhook cannot be reached or
	// answers with an unexpected status.
	FailClosed bool
}

// WebhookListener forwards team events to an HTTP endpoint that may veto them.
//
// The endpoint receives the event as JSON. A 403 or 409 response, or a body
// of {"cancel": true}, cancels the event.
type WebhookListener struct {
	url        string
	failClosed bool
	client     *http.Client
	logger     *slog.Logger
}

type webhookPayload struct {
	IslandID       string                 `json:"island_id"`
	Reason         domain.TeamEventReason `json:"reason"`
	ActorID        string                 `json:"actor_id"`
	InvolvedPlayer string                 `json:"involved_player"`
	SentAt         time.Time              `json:"sent_at"`
}

type webhookVerdict struct {
	Cancel bool   `json:"cancel"`
	Reason string `json:"reason,omitempty"`
}

// NewWebhookListener creates a listener for cfg.
func NewWebhookListener(cfg WebhookConfig, logger *slog.Logger) *WebhookListener {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultWebhookTimeout
	}
	return &WebhookListener{
		url:        strings.TrimSpace(cfg.URL),
		failClosed: cfg.FailClosed,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// HandleTeamEvent implements Listener.
func (w *WebhookListener) HandleTeamEvent(ctx context.Context, event *domain.TeamEvent) {
	cancel, err := w.call(ctx, event)
	if err != nil {
		if w.logger != nil {
			w.logger.Warn("team event webhook failed",
				"url", w.url,
				"reason", event.Reason,
				"fail_closed", w.failClosed,
				"error", err,
			)
		}
		if w.failClosed {
			event.Cancel()
		}
		return
	}
	if cancel {
		event.Cancel()
	}
}

func (w *WebhookListener) call(ctx context.Context, event *domain.TeamEvent) (bool, error) {
	body, err := json.Marshal(webhookPayload{
		IslandID:       event.IslandID,
		Reason:         event.Reason,
		ActorID:        event.ActorID,
		InvolvedPlayer: event.InvolvedPlayer,
		SentAt:         time.Now().UTC(),
	})
	if err != nil {
		return false, fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden, resp.StatusCode == http.StatusConflict:
		return true, nil
	case resp.StatusCode == http.StatusNoContent:
		return false, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var verdict webhookVerdict
		data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if err != nil {
			return false, fmt.Errorf("read response: %w", err)
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return false, nil
		}
		if err := json.Unmarshal(data, &verdict); err != nil {
			return false, fmt.Errorf("decode response: %w", err)
		}
		return verdict.Cancel, nil
	default:
		return false, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}
