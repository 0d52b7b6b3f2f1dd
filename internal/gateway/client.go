package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kingrea/sistema-obras/internal/domain"
)

const (
	// DefaultTimeout bounds a single request when no http.Client is supplied.
	DefaultTimeout = 15 * time.Second

	maxErrorBody = 64 << 10
)

// Client talks to the REST service behind /api.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	logger    Logger
	requestID func() string
}

// Option customizes client construction.
type Option func(*Client)

// WithHTTPClient overrides the underlying transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout on the default transport.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger routes request lines to l.
func WithLogger(l Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRequestIDs lets tests pin the X-Request-ID generator.
func WithRequestIDs(next func() string) Option {
	return func(c *Client) {
		if next != nil {
			c.requestID = next
		}
	}
}

// NewClient builds a client rooted at baseURL (for example
// "http://192.168.0.104:3000/api").
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("gateway: base url is required")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("gateway: parse base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("gateway: base url must be http or https, got %q", parsed.Scheme)
	}
	c := &Client{
		baseURL:   parsed,
		http:      &http.Client{Timeout: DefaultTimeout},
		logger:    nopLogger{},
		requestID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// BaseURL returns the configured root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

type reportRequest struct {
	Email string `json:"email"`
}

func (c *Client) ListWorks(ctx context.Context, params Params) ([]domain.Work, error) {
	var works []domain.Work
	if err := c.do(ctx, http.MethodGet, "/obras", params.values(), nil, &works); err != nil {
		return nil, err
	}
	return works, nil
}

func (c *Client) GetWork(ctx context.Context, id string) (domain.Work, error) {
	var work domain.Work
	if err := requireID(KindWork, id); err != nil {
		return work, err
	}
	err := c.do(ctx, http.MethodGet, "/obras/"+url.PathEscape(id), nil, nil, &work)
	return work, err
}

func (c *Client) CreateWork(ctx context.Context, payload domain.WorkPayload) (domain.Work, error) {
	var work domain.Work
	err := c.do(ctx, http.MethodPost, "/obras", nil, payload, &work)
	return work, err
}

func (c *Client) UpdateWork(ctx context.Context, id string, payload domain.WorkPayload) (domain.Work, error) {
	var work domain.Work
	if err := requireID(KindWork, id); err != nil {
		return work, err
	}
	err := c.do(ctx, http.MethodPut, "/obras/"+url.PathEscape(id), nil, payload, &work)
	return work, err
}

func (c *Client) DeleteWork(ctx context.Context, id string) error {
	if err := requireID(KindWork, id); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, "/obras/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) ListInspections(ctx context.Context, params Params) ([]domain.Inspection, error) {
	var inspections []domain.Inspection
	if err := c.do(ctx, http.MethodGet, "/fiscalizacoes", params.values(), nil, &inspections); err != nil {
		return nil, err
	}
	return inspections, nil
}

func (c *Client) GetInspection(ctx context.Context, id string) (domain.Inspection, error) {
	var inspection domain.Inspection
	if err := requireID(KindInspection, id); err != nil {
		return inspection, err
	}
	err := c.do(ctx, http.MethodGet, "/fiscalizacoes/"+url.PathEscape(id), nil, nil, &inspection)
	return inspection, err
}

func (c *Client) CreateInspection(ctx context.Context, payload domain.InspectionPayload) (domain.Inspection, error) {
	var inspection domain.Inspection
	err := c.do(ctx, http.MethodPost, "/fiscalizacoes", nil, payload, &inspection)
	return inspection, err
}

func (c *Client) UpdateInspection(ctx context.Context, id string, payload domain.InspectionPayload) (domain.Inspection, error) {
	var inspection domain.Inspection
	if err := requireID(KindInspection, id); err != nil {
		return inspection, err
	}
	err := c.do(ctx, http.MethodPut, "/fiscalizacoes/"+url.PathEscape(id), nil, payload, &inspection)
	return inspection, err
}

func (c *Client) DeleteInspection(ctx context.Context, id string) error {
	if err := requireID(KindInspection, id); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, "/fiscalizacoes/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) ListInspectionsOfWork(ctx context.Context, workID string) ([]domain.Inspection, error) {
	if err := requireID(KindWork, workID); err != nil {
		return nil, err
	}
	var inspections []domain.Inspection
	if err := c.do(ctx, http.MethodGet, "/obras/"+url.PathEscape(workID)+"/fiscalizacoes", nil, nil, &inspections); err != nil {
		return nil, err
	}
	return inspections, nil
}

func (c *Client) SendWorkReport(ctx context.Context, workID, recipient string) error {
	if err := requireID(KindWork, workID); err != nil {
		return err
	}
	body := reportRequest{Email: strings.TrimSpace(recipient)}
	return c.do(ctx, http.MethodPost, "/obras/"+url.PathEscape(workID)+"/enviar-email", nil, body, nil)
}

// do issues one request and decodes the {"data": ...} envelope into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	target := *c.baseURL
	target.Path = strings.TrimRight(target.Path, "/") + path
	target.RawQuery = query.Encode()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("gateway: encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return fmt.Errorf("gateway: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID := c.requestID()
	req.Header.Set("X-Request-ID", reqID)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Printf("gateway: %s %s failed after %s [%s]: %v", method, path, time.Since(started).Round(time.Millisecond), reqID, err)
		return fmt.Errorf("gateway: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.logger.Printf("gateway: %s %s -> %d in %s [%s]", method, path, resp.StatusCode, time.Since(started).Round(time.Millisecond), reqID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeRemoteError(method, path, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("gateway: read %s %s: %w", method, path, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("gateway: decode %s %s: %w", method, path, err)
	}
	if len(env.Data) == 0 || bytes.Equal(bytes.TrimSpace(env.Data), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("gateway: decode %s %s data: %w", method, path, err)
	}
	return nil
}

func decodeRemoteError(method, path string, resp *http.Response) error {
	remote := &RemoteError{Method: method, Path: path, Status: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return remote
	}
	var body errorBody
	if json.Unmarshal(raw, &body) == nil {
		remote.Message = strings.TrimSpace(body.Message)
		if remote.Message == "" {
			remote.Message = strings.TrimSpace(body.Error)
		}
	}
	return remote
}
