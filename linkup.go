// Package linkup is a Go client for the Linkup search and fetch API.
//
// The client turns queries into typed results (sourced answers, raw search
// results or caller-defined structured data) and translates backend
// rejections into a typed error taxonomy. The openaiwrap subpackage exposes
// the same search capability as a tool inside an OpenAI chat or response
// loop.
package linkup

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/linkup-platform/linkup-go/cache"
	"github.com/linkup-platform/linkup-go/metrics"
)

// Version is reported in the User-Agent of every outbound request.
const Version = "1.2.0"

const (
	defaultBaseURL = "https://api.linkup.so/v1"
	defaultTimeout = 30 * time.Second
)

// Client talks to the Linkup API. It is safe for concurrent use.
type Client struct {
	apiKey   string
	baseURL  string
	client   *http.Client
	logger   *zap.Logger
	metrics  *metrics.Metrics
	cache    *cache.Cache
	cacheTTL time.Duration
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.client = client }
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.client.Timeout = timeout }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithCache serves repeated identical requests from memory for ttl.
func WithCache(store *cache.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = store
		c.cacheTTL = ttl
	}
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: defaultTimeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search runs one query and returns the variant selected by the request's
// output type. Backend rejections come back as *APIError; request shape
// problems fail locally before any network call.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	req = req.withDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	payload, err := req.payload()
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var key string
	if c.cache != nil {
		key = cacheKey(body)
		if cached, ok := c.cache.Get(key); ok {
			if c.metrics != nil {
				c.metrics.RecordCacheHit()
			}
			return cached.(*SearchResponse), nil
		}
		if c.metrics != nil {
			c.metrics.RecordCacheMiss()
		}
	}

	start := time.Now()
	raw, statusCode, err := c.post(ctx, "/search", body)
	if err != nil {
		c.recordSearch(req.OutputType, "error", start)
		return nil, err
	}

	if statusCode != http.StatusOK {
		apiErr := mapAPIError(statusCode, raw)
		c.logger.Warn("search request rejected",
			zap.Int("status", statusCode),
			zap.String("code", apiErr.Code),
		)
		c.recordSearch(req.OutputType, "error", start)
		return nil, apiErr
	}

	resp, err := normalizeResponse(req.OutputType, req.IncludeSources, raw)
	if err != nil {
		c.recordSearch(req.OutputType, "error", start)
		return nil, err
	}

	c.logger.Debug("search completed",
		zap.String("output_type", string(req.OutputType)),
		zap.String("depth", string(req.Depth)),
		zap.Duration("duration", time.Since(start)),
	)
	c.recordSearch(req.OutputType, "ok", start)

	if c.cache != nil {
		c.cache.Set(key, resp, c.cacheTTL)
	}
	return resp, nil
}

// SearchSourcedAnswer is a shorthand for a sourcedAnswer query.
func (c *Client) SearchSourcedAnswer(ctx context.Context, query string) (*SourcedAnswer, error) {
	resp, err := c.Search(ctx, SearchRequest{Query: query, OutputType: OutputSourcedAnswer})
	if err != nil {
		return nil, err
	}
	return resp.SourcedAnswer, nil
}

// SearchStructured is a shorthand for a structured query; the raw payload
// conforms to the supplied schema.
func (c *Client) SearchStructured(ctx context.Context, query string, schema any) (json.RawMessage, error) {
	resp, err := c.Search(ctx, SearchRequest{
		Query:                  query,
		OutputType:             OutputStructured,
		StructuredOutputSchema: schema,
	})
	if err != nil {
		return nil, err
	}
	return resp.Structured, nil
}

// SearchMany runs the given requests with at most limit in flight and
// returns responses in request order. The first failure cancels the rest.
func (c *Client) SearchMany(ctx context.Context, reqs []SearchRequest, limit int) ([]*SearchResponse, error) {
	if limit <= 0 {
		limit = 4
	}

	out := make([]*SearchResponse, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, req := range reqs {
		g.Go(func() error {
			resp, err := c.Search(ctx, req)
			if err != nil {
				return fmt.Errorf("query %q: %w", req.Query, err)
			}
			out[i] = resp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Fetch retrieves one page through the backend and returns it as markdown.
func (c *Client) Fetch(ctx context.Context, req FetchRequest) (*FetchResponse, error) {
	if req.URL == "" {
		return nil, ErrEmptyURL
	}

	body, err := json.Marshal(fetchPayload{
		URL:            req.URL,
		IncludeRawHTML: req.IncludeRawHTML,
		RenderJS:       req.RenderJS,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	start := time.Now()
	raw, statusCode, err := c.post(ctx, "/fetch", body)
	if err != nil {
		c.recordFetch("error", start)
		return nil, err
	}

	if statusCode != http.StatusOK {
		apiErr := mapAPIError(statusCode, raw)
		c.logger.Warn("fetch request rejected",
			zap.Int("status", statusCode),
			zap.String("code", apiErr.Code),
		)
		c.recordFetch("error", start)
		return nil, apiErr
	}

	var resp FetchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.recordFetch("error", start)
		return nil, fmt.Errorf("decode fetch response: %w", err)
	}

	c.recordFetch("ok", start)
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) ([]byte, int, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("User-Agent", "linkup-go/"+Version)
	httpReq.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return raw, resp.StatusCode, nil
}

func (c *Client) recordSearch(outputType OutputType, status string, start time.Time) {
	if c.metrics != nil {
		c.metrics.RecordSearch(string(outputType), status, time.Since(start))
	}
}

func (c *Client) recordFetch(status string, start time.Time) {
	if c.metrics != nil {
		c.metrics.RecordFetch(status, time.Since(start))
	}
}

func cacheKey(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
