package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Tracked event names. The collector only accepts this closed set.
const (
	EventPageView             = "page_view"
	EventProcessStart         = "process_start"
	EventProcessStageComplete = "process_stage_complete"
	EventProcessComplete      = "process_complete"
	EventDocumentUpload       = "document_upload"
	EventChatMessage          = "chat_message"
	EventAdminAction          = "admin_action"
)

var knownEvents = map[string]struct{}{
	EventPageView:             {},
	EventProcessStart:         {},
	EventProcessStageComplete: {},
	EventProcessComplete:      {},
	EventDocumentUpload:       {},
	EventChatMessage:          {},
	EventAdminAction:          {},
}

type Config struct {
	Enabled     bool
	EndpointURL string
	WriteKey    string
	Timeout     time.Duration
}

// Client posts usage events to the analytics collector. Every call is
// fire-and-forget: failures are logged and never surfaced to callers, so
// a dead collector cannot slow down request handling.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Track queues one event for delivery. Unknown event names are dropped
// with a warning rather than forwarded.
func (c *Client) Track(event string, properties map[string]interface{}) {
	if !c.cfg.Enabled {
		return
	}
	if _, ok := knownEvents[event]; !ok {
		c.logger.Warn("dropping unknown analytics event", "event", event)
		return
	}

	go c.send(event, properties)
}

func (c *Client) send(event string, properties map[string]interface{}) {
	payload := map[string]interface{}{
		"event":      event,
		"properties": properties,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error("failed to marshal analytics event", "error", err, "event", event)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.EndpointURL, bytes.NewBuffer(body))
	if err != nil {
		c.logger.Error("failed to create analytics request", "error", err, "event", event)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.WriteKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.WriteKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("analytics delivery failed", "error", err, "event", event)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		c.logger.Warn("analytics collector rejected event",
			"event", event,
			"status_code", resp.StatusCode)
	}
}
