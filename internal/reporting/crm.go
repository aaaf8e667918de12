package reporting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/regulariza/process-management/internal/process"
)

// pipeline stage mapping for the CRM deal board
var crmStageByStatus = map[string]string{
	process.StatusPendente:    "qualifiedtobuy",
	process.StatusEmAndamento: "presentationscheduled",
	process.StatusConcluido:   "closedwon",
	process.StatusRejeitado:   "closedlost",
}

var (
	ErrCRMMissingAPIKey = errors.New("crm api key not configured")
	ErrCRMUnknownStatus = errors.New("no crm stage for process status")
)

type CRMConfig struct {
	Enabled bool
	APIURL  string
	APIKey  string
	Timeout time.Duration
}

// CRMClient pushes one process at a time into the CRM pipeline. Calls go
// through a circuit breaker so a flapping CRM cannot pile up timeouts.
type CRMClient struct {
	cfg     CRMConfig
	logger  *slog.Logger
	breaker *gobreaker.CircuitBreaker
}

func NewCRMClient(cfg CRMConfig, logger *slog.Logger) *CRMClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &CRMClient{
		cfg:    cfg,
		logger: logger,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "crm-sync",
			MaxRequests: 3,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("crm circuit breaker state changed",
					"breaker", name,
					"from", from.String(),
					"to", to.String())
			},
		}),
	}
}

// SyncProcess mirrors one case into the CRM as a deal. The API key is
// checked per call: a misconfigured deployment fails every sync loudly
// instead of silently skipping.
func (c *CRMClient) SyncProcess(ctx context.Context, proc *process.Process, clientName string) error {
	if !c.cfg.Enabled {
		c.logger.Debug("crm sync disabled, skipping", "process_id", proc.ID)
		return nil
	}
	if c.cfg.APIKey == "" {
		c.logger.Error("crm sync failed: api key not configured", "process_id", proc.ID)
		return ErrCRMMissingAPIKey
	}

	stage, ok := crmStageByStatus[proc.Status]
	if !ok {
		return ErrCRMUnknownStatus
	}

	payload := map[string]interface{}{
		"properties": map[string]interface{}{
			"dealname":  fmt.Sprintf("%s - %s", proc.ProcessNumber, clientName),
			"dealstage": stage,
			"processo":  proc.ProcessNumber,
			"tipo":      proc.ProcessType,
		},
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.post(ctx, payload)
	})
	if err != nil {
		c.logger.Error("crm sync failed",
			"error", err,
			"process_id", proc.ID,
			"process_number", proc.ProcessNumber)
		return err
	}

	c.logger.Info("crm sync completed",
		"process_id", proc.ID,
		"process_number", proc.ProcessNumber,
		"stage", stage)

	return nil
}

func (c *CRMClient) post(ctx context.Context, payload map[string]interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal crm payload: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.cfg.APIURL+"/crm/v3/objects/deals", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create crm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	client := &http.Client{Timeout: c.cfg.Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("crm request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("crm returned status %d", resp.StatusCode)
	}

	return nil
}
