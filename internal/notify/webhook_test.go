package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/groupbuy-claims/internal/config"
	"github.com/nurpe/groupbuy-claims/internal/engine"
	"github.com/nurpe/groupbuy-claims/internal/model"
)

func newTestDispatcher(t *testing.T, url string) *WebhookDispatcher {
	t.Helper()
	cfg := &config.Config{Notify: config.NotifyConfig{WebhookURL: url, Timeout: "2s"}}
	d, err := NewWebhookDispatcher(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewWebhookDispatcher: %v", err)
	}
	return d
}

func TestWebhookDispatcher_NotifyCompletion(t *testing.T) {
	var mu sync.Mutex
	var received []payload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body payload
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		mu.Lock()
		received = append(received, body)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := newTestDispatcher(t, server.URL)
	notice := engine.CompletionNotice{
		UserID:        101,
		InstanceID:    uuid.New(),
		BreakdownName: "Box",
		Items:         []model.OrderItem{{Name: "Lens", Price: 120}},
		Total:         120,
	}
	if err := d.NotifyCompletion(context.Background(), notice); err != nil {
		t.Fatalf("NotifyCompletion: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("got %d requests, want 1", len(received))
	}
	got := received[0]
	if got.UserID != 101 || got.Kind != kindCompletion || got.Total != 120 {
		t.Fatalf("payload = %+v", got)
	}
}

func TestWebhookDispatcher_NotifyAdminsFansOut(t *testing.T) {
	var mu sync.Mutex
	var recipients []int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body payload
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		recipients = append(recipients, body.UserID)
		mu.Unlock()
	}))
	defer server.Close()

	d := newTestDispatcher(t, server.URL)
	if err := d.NotifyAdmins(context.Background(), []int64{7, 42}, "hello"); err != nil {
		t.Fatalf("NotifyAdmins: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(recipients) != 2 {
		t.Fatalf("recipients = %v, want one request per admin", recipients)
	}
}

func TestWebhookDispatcher_Non2xxIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	d := newTestDispatcher(t, server.URL)
	err := d.NotifyCompletion(context.Background(), engine.CompletionNotice{UserID: 1})
	if err == nil {
		t.Fatal("want error for 502 response")
	}
}

func TestWebhookDispatcher_BadTimeout(t *testing.T) {
	cfg := &config.Config{Notify: config.NotifyConfig{WebhookURL: "http://localhost", Timeout: "soon"}}
	if _, err := NewWebhookDispatcher(cfg, zerolog.Nop()); err == nil {
		t.Fatal("want error for unparseable timeout")
	}
}

func TestLogDispatcher(t *testing.T) {
	d := NewLogDispatcher(zerolog.Nop())
	if err := d.NotifyCompletion(context.Background(), engine.CompletionNotice{UserID: 1}); err != nil {
		t.Fatalf("NotifyCompletion: %v", err)
	}
	if err := d.NotifyAdmins(context.Background(), []int64{1, 2}, "x"); err != nil {
		t.Fatalf("NotifyAdmins: %v", err)
	}
}
