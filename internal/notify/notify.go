package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/dvloznov/ecommerce-pipeline/internal/config"
	"github.com/dvloznov/ecommerce-pipeline/internal/logger"
)

// DeliveryTimeout bounds a single webhook delivery.
const DeliveryTimeout = 5 * time.Second

// DefaultUsername is the display name alerts are posted under.
const DefaultUsername = "Pipeline Data Quality"

// Notifier delivers a preformatted message to an alert channel.
// Delivery is best effort: implementations never fail the caller.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// DiscordNotifier posts messages to the webhook named by the
// discord_webhook configuration key.
type DiscordNotifier struct {
	cfg      config.Provider
	client   *http.Client
	username string
}

// NewDiscordNotifier creates a DiscordNotifier. A nil client gets one with
// DeliveryTimeout.
func NewDiscordNotifier(cfg config.Provider, client *http.Client) *DiscordNotifier {
	if client == nil {
		client = &http.Client{Timeout: DeliveryTimeout}
	}
	return &DiscordNotifier{cfg: cfg, client: client, username: DefaultUsername}
}

type webhookPayload struct {
	Username string `json:"username"`
	Content  string `json:"content"`
}

// Notify implements Notifier. The endpoint is looked up on every call so a
// webhook configured mid-run is picked up.
func (n *DiscordNotifier) Notify(ctx context.Context, message string) {
	log := logger.FromContext(ctx)

	webhook, ok := n.cfg.Lookup(config.KeyDiscordWebhook)
	if !ok {
		log.Warn().Msg("Discord webhook not configured, skipping notification")
		return
	}

	if err := n.deliver(ctx, webhook, message); err != nil {
		log.Error().Err(err).Msg("Discord notification failed")
	}
}

func (n *DiscordNotifier) deliver(ctx context.Context, webhook, message string) error {
	body, err := json.Marshal(webhookPayload{Username: n.username, Content: message})
	if err != nil {
		return fmt.Errorf("deliver: encode payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, DeliveryTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhook, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("deliver: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver: post: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("deliver: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Nop discards every message.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, string) {}

// Recorder keeps every message it is given.
type Recorder struct {
	mu       sync.Mutex
	messages []string
}

// Notify implements Notifier.
func (r *Recorder) Notify(_ context.Context, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}
