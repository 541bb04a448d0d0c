// Package transport talks to the two external collaborators: the agent's
// inbound webhook (simulated customer messages go in) and the gateway mock's
// capture API (the agent's outbound messages come back out).
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/villacarmen/bookprobe/pkg/gateway"
	"github.com/villacarmen/bookprobe/pkg/verify"
)

// ErrNoResponse is returned when the poll budget elapses without a new
// captured message for the target phone.
var ErrNoResponse = errors.New("no response received from agent")

// MessageKind is the inbound message type the webhook distinguishes.
type MessageKind string

const (
	// KindText is a plain text message.
	KindText MessageKind = "text"
	// KindButtonResponse is a button selection (vote).
	KindButtonResponse MessageKind = "button_response"
	// KindListResponse is a list-item selection.
	KindListResponse MessageKind = "list_response"
)

// Config holds the endpoints and timing of the transport client.
type Config struct {
	// WebhookURL is the agent's inbound webhook, e.g.
	// http://localhost:5082/api/webhook/whatsapp-webhook.
	WebhookURL string
	// AgentBaseURL is the agent's API root, used for test-control endpoints.
	AgentBaseURL string
	// GatewayURL is the gateway mock's base URL.
	GatewayURL string
	// DefaultPhone is used when SendOptions does not override it.
	DefaultPhone string
	// ResponseTimeout bounds the capture poll after each send.
	ResponseTimeout time.Duration
	// PollInterval is the fixed delay between capture polls.
	PollInterval time.Duration
}

// Client is the transport client. All methods are synchronous; the only
// blocking points are the capture polls.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a transport client, filling in default timings.
func NewClient(cfg Config) *Client {
	if cfg.ResponseTimeout == 0 {
		cfg.ResponseTimeout = 30 * time.Second
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 300 * time.Millisecond
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.ResponseTimeout},
	}
}

// SendOptions carries the per-message knobs of SendMessage.
type SendOptions struct {
	Phone    string      // defaults to Config.DefaultPhone
	PushName string      // sender display name, defaults to "Test User"
	Kind     MessageKind // defaults to KindText
}

// webhookMessage mirrors the gateway's inbound webhook payload.
type webhookMessage struct {
	ID        string          `json:"id"`
	ChatID    string          `json:"chatid"`
	SenderID  string          `json:"senderid"`
	Text      string          `json:"text"`
	FromMe    bool            `json:"fromMe"`
	Timestamp int64           `json:"timestamp"`
	PushName  string          `json:"pushname"`
	Type      string          `json:"type"`
	Vote      string          `json:"vote,omitempty"`
	Content   *messageContent `json:"content,omitempty"`
}

type messageContent struct {
	Response struct {
		SelectedDisplayText string `json:"SelectedDisplayText"`
	} `json:"Response"`
}

type webhookPayload struct {
	Instance string         `json:"instance"`
	Event    string         `json:"event"`
	Message  webhookMessage `json:"message"`
}

// SendMessage submits a simulated inbound message to the agent's webhook.
// A non-2xx status is a transport failure and aborts the scenario.
func (c *Client) SendMessage(ctx context.Context, text string, opts SendOptions) error {
	phone := opts.Phone
	if phone == "" {
		phone = c.cfg.DefaultPhone
	}
	pushName := opts.PushName
	if pushName == "" {
		pushName = "Test User"
	}
	kind := opts.Kind
	if kind == "" {
		kind = KindText
	}

	jid := phone + "@s.whatsapp.net"
	msg := webhookMessage{
		ID:        "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		ChatID:    jid,
		SenderID:  jid,
		Text:      text,
		FromMe:    false,
		Timestamp: time.Now().Unix(),
		PushName:  pushName,
		Type:      string(kind),
	}
	switch kind {
	case KindButtonResponse:
		msg.Type = "ButtonsResponseMessage"
		msg.Vote = text
	case KindListResponse:
		msg.Type = "ListResponseMessage"
		msg.Content = &messageContent{}
		msg.Content.Response.SelectedDisplayText = text
	}

	payload := webhookPayload{Instance: "test-instance", Event: "message", Message: msg}
	status, _, err := c.postJSON(ctx, c.cfg.WebhookURL, payload)
	if err != nil {
		return fmt.Errorf("webhook submission failed: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("webhook rejected message: status %d", status)
	}
	return nil
}

type capturedResponse struct {
	Count    int                       `json:"count"`
	Messages []gateway.CapturedMessage `json:"messages"`
}

// CapturedCount returns the total number of captured outbound messages.
func (c *Client) CapturedCount(ctx context.Context) (int, error) {
	var resp capturedResponse
	if err := c.getJSON(ctx, c.cfg.GatewayURL+"/captured", &resp); err != nil {
		return 0, fmt.Errorf("capture query failed: %w", err)
	}
	return resp.Count, nil
}

// Captured returns every captured outbound message in arrival order.
func (c *Client) Captured(ctx context.Context) ([]gateway.CapturedMessage, error) {
	var resp capturedResponse
	if err := c.getJSON(ctx, c.cfg.GatewayURL+"/captured", &resp); err != nil {
		return nil, fmt.Errorf("capture query failed: %w", err)
	}
	return resp.Messages, nil
}

// Latest returns the most recent n captured messages.
func (c *Client) Latest(ctx context.Context, n int) ([]gateway.CapturedMessage, error) {
	var resp capturedResponse
	u := fmt.Sprintf("%s/captured/latest?count=%d", c.cfg.GatewayURL, n)
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("capture query failed: %w", err)
	}
	return resp.Messages, nil
}

// CapturedForPhone returns the captured messages addressed to one phone.
func (c *Client) CapturedForPhone(ctx context.Context, phone string) ([]gateway.CapturedMessage, error) {
	var resp capturedResponse
	u := c.cfg.GatewayURL + "/captured/phone/" + url.PathEscape(phone)
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("capture query failed: %w", err)
	}
	return resp.Messages, nil
}

// SendAndWait sends a customer message and block-polls the capture until a
// new message for the phone appears, skipping the operator notification
// (which some environments address to the same number). Returns ErrNoResponse
// when the poll budget elapses.
func (c *Client) SendAndWait(ctx context.Context, text, phone string) (*gateway.CapturedMessage, error) {
	if phone == "" {
		phone = c.cfg.DefaultPhone
	}
	initial, err := c.CapturedCount(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.SendMessage(ctx, text, SendOptions{Phone: phone, PushName: "Cliente"}); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(c.cfg.ResponseTimeout)
	for time.Now().Before(deadline) {
		current, err := c.CapturedCount(ctx)
		if err != nil {
			return nil, err
		}
		if current > initial {
			msgs, err := c.Latest(ctx, current-initial)
			if err != nil {
				return nil, err
			}
			for i := range msgs {
				m := msgs[i]
				if m.Phone != phone {
					continue
				}
				if strings.Contains(m.Text, verify.AdminNotificationMarker) {
					continue
				}
				return &m, nil
			}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.cfg.PollInterval):
		}
	}
	return nil, ErrNoResponse
}

// ResetAll clears the gateway mock's captured and history buffers.
func (c *Client) ResetAll(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.cfg.GatewayURL+"/all", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway reset failed: %w", err)
	}
	defer drainAndClose(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway reset failed: status %d", resp.StatusCode)
	}
	return nil
}

// ClearAgentState clears the agent's in-memory session for a phone via its
// test-only control endpoint.
func (c *Client) ClearAgentState(ctx context.Context, phone string) error {
	u := fmt.Sprintf("%s/api/webhook/test/clear-state?phone=%s", c.cfg.AgentBaseURL, url.QueryEscape(phone))
	status, _, err := c.postJSON(ctx, u, struct{}{})
	if err != nil {
		return fmt.Errorf("agent state reset failed: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("agent state reset failed: status %d", status)
	}
	return nil
}

// HistoryEntry is one prior turn to seed into the gateway's simulated
// history before a scenario.
type HistoryEntry struct {
	Text   string `json:"text"`
	FromMe bool   `json:"fromMe"`
}

// InjectHistory seeds prior turns for a phone.
func (c *Client) InjectHistory(ctx context.Context, phone string, entries []HistoryEntry) error {
	payload := struct {
		Phone    string         `json:"phone"`
		Messages []HistoryEntry `json:"messages"`
	}{Phone: phone, Messages: entries}
	status, _, err := c.postJSON(ctx, c.cfg.GatewayURL+"/history/inject", payload)
	if err != nil {
		return fmt.Errorf("history injection failed: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("history injection failed: status %d", status)
	}
	return nil
}

// Health verifies both collaborators answer before a run starts.
func (c *Client) Health(ctx context.Context) error {
	if err := c.getJSON(ctx, c.cfg.GatewayURL+"/health", &struct{}{}); err != nil {
		return fmt.Errorf("gateway mock unreachable at %s: %w", c.cfg.GatewayURL, err)
	}
	healthURL := strings.Replace(c.cfg.WebhookURL, "/whatsapp-webhook", "/health", 1)
	if err := c.getJSON(ctx, healthURL, &struct{}{}); err != nil {
		return fmt.Errorf("agent unreachable at %s: %w", healthURL, err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, u string, payload any) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer drainAndClose(resp.Body)
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data, nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer drainAndClose(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, u)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
