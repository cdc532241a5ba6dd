// Package catalogapi talks to the remote catalog service: paginated product listings,
// similarity search by uploaded image and recommendations for a reference image.
package catalogapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"finitefield.org/catalog-client/internal/catalog"
	"finitefield.org/catalog-client/internal/pagination"
	"finitefield.org/catalog-client/internal/platform/observability"
)

const (
	productsPath        = "/products"
	similarImagesPath   = "/getSimilarImages"
	recommendationsPath = "/getrecommendations"

	uploadField   = "file"
	maxErrorBody  = 1 << 16
	maxResultBody = 32 << 20
)

var tracer = otel.Tracer("finitefield.org/catalog-client/internal/catalogapi")

// ErrMalformedResponse reports a success status whose body could not be decoded.
var ErrMalformedResponse = errors.New("catalogapi: malformed response")

// HTTPClient matches the subset of http.Client used by Client.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("catalogapi: backend error (%d): %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("catalogapi: backend error (%d): %s", e.StatusCode, e.Message)
}

// Client implements the catalog service endpoints over HTTP.
type Client struct {
	base   *url.URL
	client HTTPClient
	logger *zap.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithLogger attaches a logger used for request diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New constructs a Client for the service rooted at baseURL.
func New(baseURL string, client HTTPClient, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("catalogapi: base URL is required")
	}
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("catalogapi: parse base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("catalogapi: base URL %q must be absolute", baseURL)
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}
	if client == nil {
		client = http.DefaultClient
	}
	c := &Client{
		base:   parsed,
		client: client,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.logger = c.logger.Named("catalogapi")
	return c, nil
}

// ListRequest parameterises one catalog page request.
type ListRequest struct {
	Page     int
	PageSize int
	Search   string
	Filters  catalog.FilterCriteria
}

// ListRequestFromQuery builds the request for a query with the fixed page size.
func ListRequestFromQuery(q catalog.Query) ListRequest {
	return ListRequest{
		Page:     q.Page,
		PageSize: pagination.PageSize,
		Search:   q.SearchText,
		Filters:  q.Filters.Clone(),
	}
}

// Values encodes the request as query parameters. Blank search and facets are omitted.
func (r ListRequest) Values() url.Values {
	page := r.Page
	if page < 1 {
		page = 1
	}
	size := r.PageSize
	if size <= 0 {
		size = pagination.PageSize
	}
	values := url.Values{}
	values.Set("page", strconv.Itoa(page))
	values.Set("page_size", strconv.Itoa(size))
	if search := strings.TrimSpace(r.Search); search != "" {
		values.Set("search", search)
	}
	for _, facet := range r.Filters.Active() {
		values.Set(string(facet), r.Filters.Get(facet))
	}
	return values
}

// ListResponse is a decoded catalog page with protocol defaults applied.
type ListResponse struct {
	Items      []catalog.Product
	TotalPages int
	Pages      []int
	Page       int
	PageSize   int
}

type listPayload struct {
	Items      []catalog.Product `json:"items"`
	TotalPages *int              `json:"total_pages"`
	Pages      []int             `json:"pages"`
	Page       *int              `json:"page"`
	PageSize   *int              `json:"page_size"`
}

func (p listPayload) response() ListResponse {
	out := ListResponse{
		Items:    p.Items,
		Pages:    p.Pages,
		Page:     1,
		PageSize: pagination.PageSize,
	}
	if out.Items == nil {
		out.Items = []catalog.Product{}
	}
	if out.Pages == nil {
		out.Pages = []int{}
	}
	if p.TotalPages != nil && *p.TotalPages > 0 {
		out.TotalPages = *p.TotalPages
	}
	if p.Page != nil && *p.Page > 0 {
		out.Page = *p.Page
	}
	if p.PageSize != nil && *p.PageSize > 0 {
		out.PageSize = *p.PageSize
	}
	return out
}

type itemsPayload struct {
	Items []catalog.Product `json:"items"`
}

// ListProducts fetches one page of the catalog.
func (c *Client) ListProducts(ctx context.Context, req ListRequest) (ListResponse, error) {
	ctx, span := tracer.Start(ctx, "catalogapi.ListProducts", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.Int("catalog.page", req.Page),
		attribute.Int("catalog.filters", len(req.Filters.Active())),
		attribute.Bool("catalog.search", strings.TrimSpace(req.Search) != ""),
	)

	httpReq, err := c.newRequest(ctx, http.MethodGet, productsPath, nil)
	if err != nil {
		return ListResponse{}, recordErr(span, err)
	}
	httpReq.URL.RawQuery = req.Values().Encode()

	var payload listPayload
	if err := c.doJSON(httpReq, &payload); err != nil {
		return ListResponse{}, recordErr(span, err)
	}
	resp := payload.response()
	span.SetAttributes(
		attribute.Int("catalog.items", len(resp.Items)),
		attribute.Int("catalog.total_pages", resp.TotalPages),
	)
	return resp, nil
}

// SimilarByImage uploads an image and returns the products the service considers similar.
func (c *Client) SimilarByImage(ctx context.Context, filename, contentType string, data []byte) ([]catalog.Product, error) {
	ctx, span := tracer.Start(ctx, "catalogapi.SimilarByImage", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.Int("upload.bytes", len(data)))

	if len(data) == 0 {
		return nil, recordErr(span, errors.New("catalogapi: image payload is empty"))
	}
	body, formType, err := multipartImage(filename, contentType, data)
	if err != nil {
		return nil, recordErr(span, err)
	}
	httpReq, err := c.newRequest(ctx, http.MethodPost, similarImagesPath, body)
	if err != nil {
		return nil, recordErr(span, err)
	}
	httpReq.Header.Set("Content-Type", formType)

	var payload itemsPayload
	if err := c.doJSON(httpReq, &payload); err != nil {
		return nil, recordErr(span, err)
	}
	return nonNil(payload.Items), nil
}

// Recommendations returns products similar to the reference image at filePath.
func (c *Client) Recommendations(ctx context.Context, filePath string) ([]catalog.Product, error) {
	ctx, span := tracer.Start(ctx, "catalogapi.Recommendations", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	filePath = strings.TrimSpace(filePath)
	if filePath == "" {
		return nil, recordErr(span, errors.New("catalogapi: file path is required"))
	}
	httpReq, err := c.newJSONRequest(ctx, http.MethodPost, recommendationsPath, map[string]string{"file_path": filePath})
	if err != nil {
		return nil, recordErr(span, err)
	}

	var payload itemsPayload
	if err := c.doJSON(httpReq, &payload); err != nil {
		return nil, recordErr(span, err)
	}
	return nonNil(payload.Items), nil
}

func (c *Client) doJSON(req *http.Request, dst any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("catalogapi: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := errorFromResponse(resp)
		c.requestLogger(req.Context()).Debug("catalog service returned error status",
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode),
		)
		return statusErr
	}

	dec := json.NewDecoder(io.LimitReader(resp.Body, maxResultBody))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, req.URL.Path, err)
	}
	return nil
}

// requestLogger prefers the logger carried on ctx (a fetch cycle's) and tags it with the
// cycle id when one is present.
func (c *Client) requestLogger(ctx context.Context) *zap.Logger {
	logger := observability.FromContextOr(ctx, c.logger)
	if logger != c.logger {
		logger = logger.Named("catalogapi")
	}
	if id := observability.CycleID(ctx); id != "" {
		logger = logger.With(zap.String("cycle", id))
	}
	return logger
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.resolve(endpoint), body)
	if err != nil {
		return nil, fmt.Errorf("catalogapi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, endpoint string, payload any) (*http.Request, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return nil, fmt.Errorf("catalogapi: encode payload: %w", err)
	}
	req, err := c.newRequest(ctx, method, endpoint, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) resolve(endpoint string) string {
	ref := &url.URL{Path: strings.TrimPrefix(endpoint, "/")}
	return c.base.ResolveReference(ref).String()
}

func errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	type errorPayload struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	statusErr := &StatusError{StatusCode: resp.StatusCode}
	if len(body) == 0 {
		return statusErr
	}
	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, msg := range []string{payload.Detail, payload.Message, payload.Error} {
			if strings.TrimSpace(msg) != "" {
				statusErr.Message = strings.TrimSpace(msg)
				return statusErr
			}
		}
	}
	statusErr.Message = strings.TrimSpace(string(body))
	return statusErr
}

func multipartImage(filename, contentType string, data []byte) (io.Reader, string, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		filename = "upload"
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, uploadField, filename))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("catalogapi: create upload part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("catalogapi: write upload part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("catalogapi: close upload: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func nonNil(items []catalog.Product) []catalog.Product {
	if items == nil {
		return []catalog.Product{}
	}
	return items
}

func recordErr(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
