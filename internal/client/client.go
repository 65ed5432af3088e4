// Package client talks to the remote workflow service's Jobs REST API.
// It only delivers documents; every orchestration semantic (scheduling,
// retries, fan-out) lives on the other side of this HTTP boundary.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"jobforge/internal/domain"
	"jobforge/internal/metrics"
)

const createJobPath = "/api/2.1/jobs/create"

// Config carries the connection settings explicitly. Host and token come
// from configuration, never from ambient process state inside this package.
type Config struct {
	Host    string
	Token   string
	Timeout time.Duration
}

// Client is a thin bearer-authenticated HTTP client for the Jobs API.
type Client struct {
	host   string
	token  string
	httpc  *http.Client
	logger *zap.Logger
}

// New creates a Jobs API client.
func New(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		host:   cfg.Host,
		token:  cfg.Token,
		httpc:  &http.Client{Timeout: timeout},
		logger: logger.With(zap.String("component", "jobs_client")),
	}
}

type createJobResponse struct {
	JobID int64 `json:"job_id"`
}

// CreateJob POSTs a serialized workflow document to the job-creation
// endpoint and returns the remote job ID.
func (c *Client) CreateJob(ctx context.Context, document []byte) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+createJobPath, bytes.NewReader(document))
	if err != nil {
		return 0, domain.NewError(domain.ErrInvalidRequest, "build create-job request").WithCause(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, domain.NewError(domain.ErrUpstreamError, "jobs API unreachable").WithCause(err).WithRetryable(true)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	metrics.JobsAPIRequestDuration.
		WithLabelValues(strconv.Itoa(resp.StatusCode)).
		Observe(time.Since(start).Seconds())
	c.logger.Debug("create-job response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		return 0, mapStatus(resp.StatusCode, body)
	}

	var out createJobResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, domain.NewError(domain.ErrUpstreamError, "jobs API returned malformed response").WithCause(err)
	}
	return out.JobID, nil
}

func mapStatus(status int, body []byte) error {
	message := fmt.Sprintf("jobs API rejected request: %s", truncate(body, 256))
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.NewError(domain.ErrAuthentication, message).WithHTTPStatus(status)
	case status == http.StatusTooManyRequests:
		return domain.NewError(domain.ErrRateLimited, message).WithHTTPStatus(status).WithRetryable(true)
	case status >= 500:
		return domain.NewError(domain.ErrUpstreamError, message).WithHTTPStatus(status).WithRetryable(true)
	default:
		return domain.NewError(domain.ErrInvalidRequest, message).WithHTTPStatus(status)
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
