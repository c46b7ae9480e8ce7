package v1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/duynhne/bookreview-service/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const maxRelayBody = 4 << 20

// Relayed is a successful self-call response. Body is always valid JSON:
// non-JSON upstream text is re-encoded as a JSON string.
type Relayed struct {
	Status int
	Body   json.RawMessage
}

// Relay re-issues public read requests against the service's own listening
// address over HTTP and hands back the result.
type Relay struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// NewRelay creates a Relay targeting baseURL (e.g. http://127.0.0.1:5000).
// Each call is bounded by timeout; a non-positive timeout means none.
func NewRelay(baseURL string, timeout time.Duration) *Relay {
	return &Relay{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		timeout: timeout,
	}
}

// CatalogPath is the public route listing the whole catalog.
func CatalogPath() string { return "/" }

// BookPath is the public route returning the book under key.
func BookPath(key string) string { return "/isbn/" + url.PathEscape(key) }

// AuthorPath is the public route returning the books by author.
func AuthorPath(author string) string { return "/author/" + url.PathEscape(author) }

// TitlePath is the public route returning the books titled title.
func TitlePath(title string) string { return "/title/" + url.PathEscape(title) }

// Fetch performs GET baseURL+path. Transport failures and non-2xx responses
// are returned as *UpstreamError.
func (r *Relay) Fetch(ctx context.Context, path string) (*Relayed, error) {
	ctx, span := middleware.StartSpan(ctx, "relay.fetch", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("relay.path", path),
	), trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+path, nil)
	if err != nil {
		return nil, &UpstreamError{Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	middleware.InjectTraceContext(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := r.client.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, &UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRelayBody))
	if err != nil {
		span.RecordError(err)
		return nil, &UpstreamError{Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	span.SetAttributes(attribute.Int("relay.status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: body}
	}

	return &Relayed{Status: resp.StatusCode, Body: asJSON(body)}, nil
}

// FetchAsync starts Fetch in its own goroutine and returns a Promise settled
// with its outcome.
func (r *Relay) FetchAsync(ctx context.Context, path string) *Promise {
	p := newPromise()
	go func() {
		res, err := r.Fetch(ctx, path)
		p.settle(res, err)
	}()
	return p
}

// ErrorDetail returns what a relayed failure reports as its "error" field:
// the upstream JSON body, the upstream text, or the transport error message.
func ErrorDetail(err error) any {
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		return err.Error()
	}
	if len(ue.Body) > 0 {
		if json.Valid(ue.Body) {
			return json.RawMessage(ue.Body)
		}
		return string(ue.Body)
	}
	if ue.Err != nil {
		return ue.Err.Error()
	}
	return http.StatusText(ue.Status)
}

// ErrorStatus returns the upstream status of a relayed failure, or 500.
func ErrorStatus(err error) int {
	var ue *UpstreamError
	if errors.As(err, &ue) && ue.Status != 0 {
		return ue.Status
	}
	return http.StatusInternalServerError
}

func asJSON(body []byte) json.RawMessage {
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	b, _ := json.Marshal(string(body))
	return b
}
