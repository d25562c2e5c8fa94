// Package safepath talks to the SafePath crime and route-risk backends.
package safepath

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/safepath-navigator/internal/domain"
	"github.com/couchcryptid/safepath-navigator/internal/observability"
)

// maxErrorBody bounds how much of a failed response is kept for the error.
const maxErrorBody = 512

// CrimeClient implements domain.CrimeSource against the safepath-jdbc servlets.
type CrimeClient struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewCrimeClient creates a crime backend client rooted at baseURL,
// e.g. "http://localhost:8080/safepath-jdbc".
func NewCrimeClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *CrimeClient {
	return &CrimeClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		metrics:    metrics,
		logger:     logger,
	}
}

// CrimeTypes fetches the crime-type catalog.
func (c *CrimeClient) CrimeTypes(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, "types", c.baseURL+"/crimeTypes")
	if err != nil {
		return nil, err
	}
	var types []string
	if err := json.Unmarshal(body, &types); err != nil {
		c.metrics.CrimeRequests.WithLabelValues("types", "error").Inc()
		return nil, fmt.Errorf("decode crime types: %w", err)
	}
	c.metrics.CrimeRequests.WithLabelValues("types", "success").Inc()

	out := types[:0]
	for _, t := range types {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out, nil
}

// FilterQuery runs an action=filter radius query.
func (c *CrimeClient) FilterQuery(ctx context.Context, q domain.CrimeQuery) ([]domain.CrimeRecord, error) {
	return c.records(ctx, "filter", q.Values())
}

// RangeQuery runs an action=range bounding-box query.
func (c *CrimeClient) RangeQuery(ctx context.Context, q domain.RangeQuery) ([]domain.CrimeRecord, error) {
	return c.records(ctx, "range", q.Values())
}

func (c *CrimeClient) records(ctx context.Context, kind string, params url.Values) ([]domain.CrimeRecord, error) {
	body, err := c.get(ctx, kind, c.baseURL+"/crimeReports?"+params.Encode())
	if err != nil {
		return nil, err
	}
	recs, err := domain.DecodeRecords(body)
	if err != nil {
		c.metrics.CrimeRequests.WithLabelValues(kind, "error").Inc()
		return nil, fmt.Errorf("decode %s response: %w", kind, err)
	}
	c.metrics.CrimeRequests.WithLabelValues(kind, "success").Inc()
	c.metrics.RecordsReturned.Observe(float64(len(recs)))
	c.logger.Debug("crime query complete", "query", kind, "records", len(recs))
	return recs, nil
}

// get performs a GET and returns the body of a 2xx response. Failures are
// counted against kind; the caller counts successes after decoding.
func (c *CrimeClient) get(ctx context.Context, kind, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.BackendDuration.WithLabelValues("crimes").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.CrimeRequests.WithLabelValues(kind, "error").Inc()
		return nil, fmt.Errorf("%s crime request: %w", kind, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "crimes/"+kind); err != nil {
		c.metrics.CrimeRequests.WithLabelValues(kind, "error").Inc()
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.CrimeRequests.WithLabelValues(kind, "error").Inc()
		return nil, fmt.Errorf("read %s response: %w", kind, err)
	}
	return body, nil
}

func checkStatus(resp *http.Response, endpoint string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &domain.StatusError{
		Endpoint:   endpoint,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}

// statusLabel is used in log lines for failed calls.
func statusLabel(err error) string {
	var se *domain.StatusError
	if errors.As(err, &se) {
		return strconv.Itoa(se.StatusCode)
	}
	return "transport"
}
