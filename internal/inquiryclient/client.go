package inquiryclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/vendor-inquiry/internal/inquiry"
	"github.com/wolfman30/vendor-inquiry/pkg/logging"
)

const (
	// InquiriesPath is appended to the configured base URL.
	InquiriesPath = "/api/inquiries"

	defaultUserAgent = "vendor-inquiry-form/1.0"
)

var tracer = otel.Tracer("vendorinquiry.internal.inquiryclient")

// Config controls how the client reaches the intake endpoint.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *logging.Logger
	UserAgent  string
}

// Client posts inquiry drafts to the intake service.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *logging.Logger
	userAgent  string
}

// Response is a successful reply. Body holds the parsed JSON document.
type Response struct {
	StatusCode int
	Body       any
}

// New creates a Client. The base URL is required so the endpoint is never baked in.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("inquiryclient: base URL is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// No client timeout: the call is bounded only by the caller's context.
		httpClient = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		endpoint:   baseURL + InquiriesPath,
		httpClient: httpClient,
		logger:     logger,
		userAgent:  userAgent,
	}, nil
}

// Endpoint returns the full URL submissions are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Submit sends one POST with the draft as JSON. It never retries.
//
// Failures to connect, to read the body or to parse it as JSON yield *inquiry.TransportError.
// A parsed response with a non-2xx status yields *inquiry.ApplicationError.
func (c *Client) Submit(ctx context.Context, draft inquiry.Draft) (*Response, error) {
	ctx, span := tracer.Start(ctx, "inquiry.submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("inquiry.category", draft.Category),
		attribute.String("http.url", c.endpoint),
	)

	payload, err := json.Marshal(draft)
	if err != nil {
		return nil, c.fail(span, &inquiry.TransportError{Err: fmt.Errorf("marshal draft: %w", err)})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, c.fail(span, &inquiry.TransportError{Err: fmt.Errorf("build request: %w", err)})
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.fail(span, &inquiry.TransportError{Err: err})
	}
	data, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if readErr != nil {
		return nil, c.fail(span, &inquiry.TransportError{Err: fmt.Errorf("read response: %w", readErr)})
	}

	// The body is parsed before the status is looked at, so an unparseable
	// error page is a transport problem rather than a rejection.
	var body any
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, c.fail(span, &inquiry.TransportError{
			Err: fmt.Errorf("decode response (status=%d): %w", resp.StatusCode, err),
		})
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		appErr := &inquiry.ApplicationError{StatusCode: resp.StatusCode}
		if obj, ok := body.(map[string]any); ok {
			appErr.Body = obj
		}
		return nil, c.fail(span, appErr)
	}

	c.logger.Debug("inquiry endpoint accepted draft", "status", resp.StatusCode, "category", draft.Category)
	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

func (c *Client) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
