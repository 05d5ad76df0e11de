// Package notify delivers round-completion notices and admin alerts to
// the chat platform that fronts the service, via a webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/nurpe/groupbuy-claims/internal/config"
	"github.com/nurpe/groupbuy-claims/internal/engine"
	"github.com/nurpe/groupbuy-claims/internal/model"
)

// payload is the body posted to the webhook, one request per recipient.
type payload struct {
	UserID        int64             `json:"user_id"`
	Kind          string            `json:"kind"`
	BreakdownName string            `json:"breakdown_name,omitempty"`
	InstanceID    string            `json:"instance_id,omitempty"`
	Items         []model.OrderItem `json:"items,omitempty"`
	Total         float64           `json:"total,omitempty"`
	Text          string            `json:"text,omitempty"`
}

const (
	kindCompletion = "round_complete"
	kindAdminAlert = "admin_alert"
)

// WebhookDispatcher posts one JSON payload per recipient to the
// configured webhook URL.
type WebhookDispatcher struct {
	url    string
	client *http.Client
	log    zerolog.Logger
}

func NewWebhookDispatcher(cfg *config.Config, log zerolog.Logger) (*WebhookDispatcher, error) {
	timeout, err := time.ParseDuration(cfg.Notify.Timeout)
	if err != nil {
		return nil, fmt.Errorf("parse notify timeout: %w", err)
	}
	return &WebhookDispatcher{
		url:    cfg.Notify.WebhookURL,
		client: &http.Client{Timeout: timeout},
		log:    log,
	}, nil
}

func (d *WebhookDispatcher) NotifyCompletion(ctx context.Context, notice engine.CompletionNotice) error {
	return d.post(ctx, payload{
		UserID:        notice.UserID,
		Kind:          kindCompletion,
		BreakdownName: notice.BreakdownName,
		InstanceID:    notice.InstanceID.String(),
		Items:         notice.Items,
		Total:         notice.Total,
	})
}

// NotifyAdmins posts the alert to every admin, collecting the first
// error but still trying the rest.
func (d *WebhookDispatcher) NotifyAdmins(ctx context.Context, adminIDs []int64, text string) error {
	var firstErr error
	for _, id := range adminIDs {
		err := d.post(ctx, payload{UserID: id, Kind: kindAdminAlert, Text: text})
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (d *WebhookDispatcher) post(ctx context.Context, body payload) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification webhook returned %d", resp.StatusCode)
	}
	return nil
}

// LogDispatcher is the fallback used when no webhook URL is configured.
// It only writes the notice to the log.
type LogDispatcher struct {
	log zerolog.Logger
}

func NewLogDispatcher(log zerolog.Logger) *LogDispatcher {
	return &LogDispatcher{log: log}
}

func (d *LogDispatcher) NotifyCompletion(_ context.Context, notice engine.CompletionNotice) error {
	d.log.Info().
		Int64("user_id", notice.UserID).
		Str("breakdown", notice.BreakdownName).
		Str("instance_id", notice.InstanceID.String()).
		Float64("total", notice.Total).
		Msg("round complete")
	return nil
}

func (d *LogDispatcher) NotifyAdmins(_ context.Context, adminIDs []int64, text string) error {
	d.log.Info().
		Ints64("admin_ids", adminIDs).
		Str("text", text).
		Msg("admin alert")
	return nil
}
