// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"partner-insights/internal/common/config"
	"partner-insights/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// Client wraps the Zeebe gRPC client and tracks the job workers opened on it.
type Client struct {
	client zbc.Client
	config *ClientConfig
	logger logger.Logger

	mu      sync.Mutex
	workers map[string]worker.JobWorker
}

// ClientConfig holds configuration for the Zeebe client.
type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	RetryConfig            *RetryConfig
}

// RetryConfig defines the connect retry schedule.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryConfig = &RetryConfig{
	MaxRetries: 10,
	BaseDelay:  2 * time.Second,
	MaxDelay:   30 * time.Second,
}

// HandlerFunc is the job callback shape the workers expose.
type HandlerFunc func(client worker.JobClient, job entities.Job)

// ConfigFromApp builds a ClientConfig from the application settings.
func ConfigFromApp(cfg config.CamundaConfig) *ClientConfig {
	return &ClientConfig{
		GatewayAddress:         cfg.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.RequestTimeout),
		RetryConfig:            DefaultRetryConfig,
	}
}

// Connect creates the Zeebe client and waits until the broker answers a
// topology request, backing off between attempts on transient failures.
func Connect(ctx context.Context, cfg *ClientConfig, log logger.Logger) (*Client, error) {
	if cfg.RetryConfig == nil {
		cfg.RetryConfig = DefaultRetryConfig
	}
	if cfg.ConnectionTimeout <= 0 {
		cfg.ConnectionTimeout = 10 * time.Second
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         cfg.GatewayAddress,
		UsePlaintextConnection: cfg.UsePlaintextConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	c := &Client{
		client:  zeebeClient,
		config:  cfg,
		logger:  log.WithFields(map[string]interface{}{"component": "zeebe", "gateway": cfg.GatewayAddress}),
		workers: make(map[string]worker.JobWorker),
	}

	for attempt := 0; ; attempt++ {
		err = c.HealthCheck(ctx)
		if err == nil {
			return c, nil
		}
		if !IsRetryable(err) || attempt >= cfg.RetryConfig.MaxRetries {
			_ = zeebeClient.Close()
			return nil, fmt.Errorf("failed to connect to Zeebe broker at %s after %d attempts: %w", cfg.GatewayAddress, attempt+1, err)
		}

		delay := Backoff(cfg.RetryConfig, attempt)
		c.logger.Warn("Zeebe broker not reachable, retrying", map[string]interface{}{
			"attempt":     attempt + 1,
			"maxRetries":  cfg.RetryConfig.MaxRetries,
			"nextRetryIn": delay.String(),
			"error":       err.Error(),
		})

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			_ = zeebeClient.Close()
			return nil, fmt.Errorf("zeebe connect cancelled: %w", ctx.Err())
		}
	}
}

// Backoff returns the delay before retry attempt+1, doubling from BaseDelay
// and capped at MaxDelay.
func Backoff(rc *RetryConfig, attempt int) time.Duration {
	if attempt > 30 {
		return rc.MaxDelay
	}
	delay := rc.BaseDelay * time.Duration(1<<attempt)
	if delay > rc.MaxDelay {
		delay = rc.MaxDelay
	}
	return delay
}

// IsRetryable reports whether err looks like a transient broker failure.
func IsRetryable(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, phrase := range []string{
		"connection refused",
		"connection reset",
		"timeout",
		"deadline exceeded",
		"unavailable",
		"unreachable",
		"broken pipe",
	} {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// StartWorker opens a job worker for taskType unless the worker is disabled.
// It reports whether a worker was opened.
func (c *Client) StartWorker(taskType string, wcfg config.WorkerConfig, handler HandlerFunc) bool {
	if !wcfg.Enabled {
		c.logger.Info("Worker disabled", map[string]interface{}{"taskType": taskType})
		return false
	}

	jobWorker := c.client.NewJobWorker().
		JobType(taskType).
		Handler(worker.JobHandler(handler)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	c.mu.Lock()
	c.workers[taskType] = jobWorker
	c.mu.Unlock()

	c.logger.Info("Worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return true
}

// Workers returns the task types with an open worker.
func (c *Client) Workers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.workers))
	for taskType := range c.workers {
		out = append(out, taskType)
	}
	return out
}

// HealthCheck performs a topology request against the broker.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}

// Close stops every worker, waiting for in-flight jobs, then releases the
// gRPC connection.
func (c *Client) Close() error {
	c.mu.Lock()
	workers := c.workers
	c.workers = make(map[string]worker.JobWorker)
	c.mu.Unlock()

	for taskType, w := range workers {
		w.Close()
		w.AwaitClose()
		c.logger.Info("Worker stopped", map[string]interface{}{"taskType": taskType})
	}
	return c.client.Close()
}
