package aadhaarapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"kyc-service/pkg/xerrors"
)

// Metrics
var (
	vendorRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kyc_vendor_requests_total",
			Help: "Total number of verification provider calls",
		},
		[]string{"operation", "status"},
	)

	vendorLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kyc_vendor_request_duration_seconds",
			Help:    "Duration of verification provider calls",
			Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10, 30},
		},
		[]string{"operation"},
	)
)

// Client talks to the identity verification provider. It holds no workflow
// state; every method is a single HTTP round trip with a fixed timeout and
// no automatic retry.
type Client struct {
	BaseURL    string
	APIKey     string
	HttpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HttpClient: &http.Client{Timeout: timeout},
	}
}

// vendorEnvelope is the common wrapper on every provider response.
type vendorEnvelope struct {
	Status    string `json:"status"` // "success" or "failed"
	ErrorCode string `json:"error_code,omitempty"`
	Message   string `json:"message,omitempty"`
}

func (e *vendorEnvelope) ok() bool { return e.Status == "success" }

// postJSON sends one request and decodes the body into out. A transport
// fault or non-2xx response maps to ErrVendorUnavailable; vendor-internal
// rejections are left to the caller, which sees the decoded envelope.
func (c *Client) postJSON(ctx context.Context, operation, path string, payload, out interface{}) error {
	start := time.Now()

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.APIKey)
	req.Header.Set("X-Auth-Type", "API-Key")

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		vendorRequests.WithLabelValues(operation, "transport_error").Inc()
		return fmt.Errorf("%w: %v", xerrors.ErrVendorUnavailable, err)
	}
	defer resp.Body.Close()

	vendorLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		vendorRequests.WithLabelValues(operation, "http_error").Inc()
		return fmt.Errorf("%w: provider returned HTTP %d", xerrors.ErrVendorUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		vendorRequests.WithLabelValues(operation, "decode_error").Inc()
		return fmt.Errorf("%w: malformed provider response: %v", xerrors.ErrVendorUnavailable, err)
	}

	vendorRequests.WithLabelValues(operation, "ok").Inc()
	return nil
}
