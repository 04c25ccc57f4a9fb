package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rahul4469/crisis-analyzer/internal/models"
	"go.uber.org/zap"
)

const (
	// DefaultBackendURL is where the analysis orchestrator listens in development
	DefaultBackendURL = "http://localhost:8000"
	// DefaultBackendTimeout bounds the whole /analyze round trip
	DefaultBackendTimeout = 60 * time.Second

	// maxErrorBody caps how much of a failed response is kept for logs
	maxErrorBody = 4 << 10
)

// FailureMessage is the only error text users ever see for a failed analysis.
const FailureMessage = "Failed to analyze situation. Please make sure the backend is running."

// Analyzer is anything that can turn a request into an analysis result.
type Analyzer interface {
	Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error)
}

// BackendClient talks to the external analysis backend. It makes exactly one
// POST per Analyze call and never retries.
type BackendClient struct {
	BaseURL string
	Client  *http.Client
	logger  *zap.Logger
}

func NewBackendClient(baseURL string, timeout time.Duration, logger *zap.Logger) *BackendClient {
	if baseURL == "" {
		baseURL = DefaultBackendURL
	}
	if timeout <= 0 {
		timeout = DefaultBackendTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackendClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Named("backend"),
	}
}

// Analyze posts req to {BaseURL}/analyze. Any non-2xx answer is returned as
// a *models.BackendError.
func (c *BackendClient) Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	jsonBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/analyze", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.Client.Do(httpReq)
	if err != nil {
		c.logger.Warn("analyze request failed",
			zap.String("emergency_type", req.EmergencyType.String()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to call analysis backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("analyze returned error status",
			zap.Int("status", resp.StatusCode),
			zap.Duration("elapsed", time.Since(start)))
		return nil, &models.BackendError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result models.AnalysisResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Info("analysis received",
		zap.String("emergency_type", req.EmergencyType.String()),
		zap.Bool("is_emergency", result.IsEmergency),
		zap.Duration("elapsed", time.Since(start)))
	return &result, nil
}

// Health checks GET {BaseURL}/health.
func (c *BackendClient) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.Client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &models.BackendError{StatusCode: resp.StatusCode}
	}
	return nil
}
