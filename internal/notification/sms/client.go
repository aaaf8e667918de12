package sms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// Job carries one outbound message through the worker pool.
type Job struct {
	To       string
	Template string
	Params   map[string]string
}

type Worker struct {
	ID         int
	WorkerPool chan chan Job
	JobChannel chan Job
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Job, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Job),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(Job)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			w.WorkerPool <- w.JobChannel

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("worker processing sms job", "worker_id", w.ID, "template", job.Template)
				processFunc(job)
			case <-ctx.Done():
				w.Logger.Debug("sms worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

// Message templates. Placeholders use {name} syntax and are substituted
// from the job params; unknown placeholders are left as-is so a bad
// dispatch is visible in the delivered text rather than silently blank.
var templates = map[string]string{
	"welcome":           "Olá {nome}! Seu acesso ao portal foi criado. Senha temporária: {senha}. Acesse: {link}",
	"process_completed": "Parabéns {nome}! Seu processo {processo} foi concluído com sucesso.",
	"cartorio_entry":    "Olá {nome}, seu processo {processo} deu entrada no cartório. Protocolo: {protocolo}",
	"deadline_reminder": "Olá {nome}, o prazo do seu processo {processo} vence em {dias} dias.",
}

var (
	ErrMissingCredentials = errors.New("sms credentials not configured")
	ErrUnknownTemplate    = errors.New("unknown sms template")
	ErrQueueFull          = errors.New("sms queue full")
)

// RenderTemplate fills a named template with the given params.
func RenderTemplate(name string, params map[string]string) (string, error) {
	tpl, ok := templates[name]
	if !ok {
		return "", ErrUnknownTemplate
	}
	for key, value := range params {
		tpl = strings.ReplaceAll(tpl, "{"+key+"}", value)
	}
	return tpl, nil
}

type Client struct {
	apiURL     string
	accountSID string
	authToken  string
	fromNumber string
	timeout    time.Duration
	enabled    bool
	logger     *slog.Logger
	breaker    *gobreaker.CircuitBreaker

	jobQueue   chan Job
	workerPool chan chan Job
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

type Config struct {
	Enabled    bool
	APIURL     string
	AccountSID string
	AuthToken  string
	FromNumber string
	Timeout    time.Duration
	MaxWorkers int
	QueueSize  int
}

func NewClient(config Config, logger *slog.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 5
	}
	queueSize := config.QueueSize
	if queueSize <= 0 {
		queueSize = 100
	}

	client := &Client{
		apiURL:     config.APIURL,
		accountSID: config.AccountSID,
		authToken:  config.AuthToken,
		fromNumber: config.FromNumber,
		timeout:    config.Timeout,
		enabled:    config.Enabled,
		logger:     logger,

		maxWorkers: maxWorkers,
		jobQueue:   make(chan Job, queueSize),
		workerPool: make(chan chan Job, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}

	client.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "sms-gateway",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("sms circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		},
	})

	client.startWorkerPool()

	return client
}

func (c *Client) startWorkerPool() {
	c.once.Do(func() {
		for i := 0; i < c.maxWorkers; i++ {
			worker := NewWorker(i, c.workerPool, c.logger)
			worker.Start(c.ctx, &c.wg, c.processJob)
		}

		c.wg.Add(1)
		go c.dispatch()

		c.logger.Info("sms worker pool started",
			"max_workers", c.maxWorkers,
			"queue_size", cap(c.jobQueue))
	})
}

func (c *Client) dispatch() {
	defer c.wg.Done()

	for {
		select {
		case job := <-c.jobQueue:
			select {
			case jobChannel := <-c.workerPool:
				select {
				case jobChannel <- job:
				case <-c.ctx.Done():
					return
				}
			case <-c.ctx.Done():
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) Shutdown() {
	c.logger.Info("shutting down sms client")
	c.cancel()
	c.wg.Wait()
	c.logger.Info("sms client shutdown complete")
}

// Send queues an outbound message. Credentials are checked per call so a
// misconfigured deployment fails loudly on every attempt instead of once
// at startup.
func (c *Client) Send(to, template string, params map[string]string) error {
	if !c.enabled {
		c.logger.Debug("sms disabled, skipping send", "template", template)
		return nil
	}
	if c.accountSID == "" || c.authToken == "" || c.fromNumber == "" {
		c.logger.Error("sms send failed: credentials not configured", "template", template)
		return ErrMissingCredentials
	}
	if _, ok := templates[template]; !ok {
		return ErrUnknownTemplate
	}

	job := Job{To: to, Template: template, Params: params}

	select {
	case c.jobQueue <- job:
		c.logger.Info("sms job queued",
			"template", template,
			"queue_length", len(c.jobQueue))
		return nil
	default:
		c.logger.Warn("sms queue full, dropping message",
			"template", template,
			"queue_capacity", cap(c.jobQueue))
		return ErrQueueFull
	}
}

func (c *Client) processJob(job Job) {
	body, err := RenderTemplate(job.Template, job.Params)
	if err != nil {
		c.logger.Error("sms template render failed", "error", err, "template", job.Template)
		return
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.deliver(job.To, body)
	})
	if err != nil {
		c.logger.Error("sms delivery failed",
			"error", err,
			"template", job.Template,
			"to", maskNumber(job.To))
		return
	}

	c.logger.Info("sms delivered",
		"template", job.Template,
		"to", maskNumber(job.To))
}

func (c *Client) deliver(to, body string) error {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", strings.TrimSuffix(c.apiURL, "/"), c.accountSID)

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.fromNumber)
	form.Set("Body", body)

	ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	httpClient := &http.Client{Timeout: c.timeout}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sms request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiError struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiError)
		return fmt.Errorf("sms gateway returned status %d: %s", resp.StatusCode, apiError.Message)
	}

	return nil
}

func maskNumber(number string) string {
	if len(number) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}
