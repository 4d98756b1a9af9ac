package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-entity-client/entity"
)

// Default endpoint templates relative to the base endpoint. ":id" is
// replaced with the url-escaped record id.
var defaultEndpoints = map[entity.Operation]string{
	entity.OpList:   "",
	entity.OpGet:    "/:id",
	entity.OpSearch: "/search",
	entity.OpCreate: "",
	entity.OpUpdate: "/:id",
	entity.OpDelete: "/:id",
}

// REST executes entity operations against an HTTP backend following the
// layer's wire conventions: GET {base} for list, GET {base}/:id for get,
// GET {base}/search for search, POST/PUT/DELETE for writes, JSON bodies
// throughout.
type REST[T any] struct {
	base      string
	client    *http.Client
	headers   http.Header
	endpoints map[entity.Operation]string
}

// RESTOption configures a REST transport.
type RESTOption func(*restOptions)

type restOptions struct {
	client    *http.Client
	headers   http.Header
	endpoints map[entity.Operation]string
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) RESTOption {
	return func(o *restOptions) { o.client = c }
}

// WithHeader sets a default header sent on every request. Per-call
// headers attached via WithCallHeaders override it.
func WithHeader(key, value string) RESTOption {
	return func(o *restOptions) { o.headers.Set(key, value) }
}

// WithEndpoint overrides the endpoint template for a single operation,
// leaving the defaults for every other operation in place.
func WithEndpoint(op entity.Operation, template string) RESTOption {
	return func(o *restOptions) { o.endpoints[op] = template }
}

// NewREST builds an HTTP transport rooted at baseEndpoint.
func NewREST[T any](baseEndpoint string, opts ...RESTOption) (*REST[T], error) {
	if baseEndpoint == "" {
		return nil, entity.NewConfigError("rest transport requires a base endpoint")
	}
	if _, err := url.Parse(baseEndpoint); err != nil {
		return nil, entity.NewConfigError("rest transport: invalid base endpoint %q: %v", baseEndpoint, err)
	}

	o := &restOptions{
		client:    http.DefaultClient,
		headers:   http.Header{},
		endpoints: map[entity.Operation]string{},
	}
	for _, opt := range opts {
		opt(o)
	}

	endpoints := make(map[entity.Operation]string, len(defaultEndpoints))
	for op, template := range defaultEndpoints {
		endpoints[op] = template
	}
	for op, template := range o.endpoints {
		endpoints[op] = template
	}

	return &REST[T]{
		base:      strings.TrimRight(baseEndpoint, "/"),
		client:    o.client,
		headers:   o.headers,
		endpoints: endpoints,
	}, nil
}

// Supports reports true for every operation; enabling and disabling HTTP
// operations is the resolver's concern.
func (r *REST[T]) Supports(op entity.Operation) bool { return true }

// EndpointTemplate returns the resolved template for an operation, for
// metadata and diagnostics.
func (r *REST[T]) EndpointTemplate(op entity.Operation) string {
	return r.endpoints[op]
}

func (r *REST[T]) List(ctx context.Context, params entity.ListParams) (entity.ListResult[T], error) {
	q := url.Values{}
	setIfPositive(q, "page", params.Page)
	setIfPositive(q, "limit", params.Limit)
	setIfPresent(q, "sort", params.Sort)
	setIfPresent(q, "order", params.Order)
	setFilters(q, params.Filter)

	var out entity.ListResult[T]
	err := r.do(ctx, http.MethodGet, entity.OpList, "", q, nil, &out)
	return out, err
}

func (r *REST[T]) Get(ctx context.Context, id entity.ID) (T, error) {
	var out T
	err := r.do(ctx, http.MethodGet, entity.OpGet, id, nil, nil, &out)
	return out, err
}

func (r *REST[T]) Search(ctx context.Context, params entity.SearchParams) (entity.SearchResult[T], error) {
	q := url.Values{}
	setIfPresent(q, "query", params.Query)
	setIfPositive(q, "limit", params.Limit)
	setFilters(q, params.Filter)

	var out entity.SearchResult[T]
	err := r.do(ctx, http.MethodGet, entity.OpSearch, "", q, nil, &out)
	return out, err
}

func (r *REST[T]) Create(ctx context.Context, record T) (T, error) {
	var out T
	err := r.do(ctx, http.MethodPost, entity.OpCreate, "", nil, record, &out)
	return out, err
}

func (r *REST[T]) Update(ctx context.Context, id entity.ID, patch entity.Patch) (T, error) {
	var out T
	err := r.do(ctx, http.MethodPut, entity.OpUpdate, id, nil, patch, &out)
	return out, err
}

func (r *REST[T]) Delete(ctx context.Context, id entity.ID) error {
	return r.do(ctx, http.MethodDelete, entity.OpDelete, id, nil, nil, nil)
}

// do issues one request: builds the URL from the operation's template,
// merges headers, encodes the JSON body, and decodes the response into
// out. Non-2xx statuses become GenericError with an HTTP_<status> code.
func (r *REST[T]) do(ctx context.Context, method string, op entity.Operation, id entity.ID, query url.Values, body any, out any) error {
	target := r.base + strings.ReplaceAll(r.endpoints[op], ":id", url.PathEscape(id))
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return entity.NewGenericError("ENCODE_FAILED", err.Error())
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return entity.NewGenericError("REQUEST_FAILED", err.Error())
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range r.headers {
		req.Header[key] = append([]string(nil), values...)
	}
	for key, values := range callHeaders(ctx) {
		req.Header[key] = append([]string(nil), values...)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return entity.NewGenericError("NETWORK_ERROR", err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return entity.NewGenericError(
			fmt.Sprintf("HTTP_%d", resp.StatusCode),
			http.StatusText(resp.StatusCode),
		)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return entity.NewGenericError("DECODE_FAILED", err.Error())
	}
	return nil
}

func setIfPresent(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

func setIfPositive(q url.Values, key string, value int) {
	if value > 0 {
		q.Set(key, strconv.Itoa(value))
	}
}

// setFilters flattens the filter map into filter.<name> query params,
// omitting empty values.
func setFilters(q url.Values, filter map[string]string) {
	for name, value := range filter {
		if value != "" {
			q.Set("filter."+name, value)
		}
	}
}

type callHeadersContextKey struct{}

// WithCallHeaders attaches per-call headers to the context. They override
// the transport's default headers for that request only.
func WithCallHeaders(ctx context.Context, headers http.Header) context.Context {
	if len(headers) == 0 {
		return ctx
	}
	return context.WithValue(ctx, callHeadersContextKey{}, headers)
}

func callHeaders(ctx context.Context) http.Header {
	if h, ok := ctx.Value(callHeadersContextKey{}).(http.Header); ok {
		return h
	}
	return nil
}
