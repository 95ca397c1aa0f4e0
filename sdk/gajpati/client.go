package gajpati

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/net/publicsuffix"
)

// apiPrefix is appended to the configured backend origin for every call.
const apiPrefix = "/api/v1"

const (
	loginEndpoint   = "/users/login"
	refreshEndpoint = "/users/refresh-token"

	contentTypeJSON = "application/json"
)

// Client issues authenticated requests against the Gajpati backend. It
// attaches the persisted bearer token, sends cookies on every call (the
// backend uses a dual cookie+header scheme), and transparently refreshes the
// access token when a request comes back 401.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenStore

	// onAuthExpired fires exactly once per failed refresh so the embedding
	// application can route the operator back to its login surface.
	onAuthExpired func()

	mu         sync.Mutex
	refreshing bool
	waiters    []chan refreshResult
}

// ClientOptions tunes client construction. The zero value is usable.
type ClientOptions struct {
	// HTTPClient overrides the underlying transport. A cookie jar is
	// installed if the supplied client has none.
	HTTPClient *http.Client
	// Timeout bounds each request. Zero imposes no deadline; callers may
	// still cancel through the request context.
	Timeout time.Duration
	// OnAuthExpired is invoked once whenever a token refresh fails.
	OnAuthExpired func()
}

// NewClient constructs a client for the given backend origin. The /api/v1
// prefix is appended internally; pass the bare origin.
func NewClient(baseURL string, tokens TokenStore, opts *ClientOptions) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("gajpati client: backend URL is required")
	}
	if opts == nil {
		opts = &ClientOptions{}
	}
	if tokens == nil {
		tokens = NewMemoryTokenStore()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("gajpati client: cookie jar init failed: %w", err)
		}
		httpClient.Jar = jar
	}

	return &Client{
		baseURL:       baseURL,
		httpClient:    httpClient,
		tokens:        tokens,
		onAuthExpired: opts.OnAuthExpired,
	}, nil
}

// SetOnAuthExpired replaces the hook fired when a token refresh fails. This
// lets embedders wire the hook to state that is constructed after the client.
func (c *Client) SetOnAuthExpired(fn func()) {
	c.mu.Lock()
	c.onAuthExpired = fn
	c.mu.Unlock()
}

// FilePart is one binary attachment in a multipart request.
type FilePart struct {
	Field   string
	Name    string
	Content []byte
}

// RequestOptions describes a single backend call. Method defaults to GET.
// When Files is non-empty the request is encoded as multipart/form-data and
// the JSON content type is omitted; otherwise Body is JSON-encoded.
type RequestOptions struct {
	Method  string
	Body    any
	Fields  map[string]string
	Files   []FilePart
	Headers map[string]string
	Query   url.Values
}

// Request performs a backend call and returns the parsed JSON body. A 401 on
// any endpoint other than login or refresh enters the refresh protocol: the
// token is refreshed (at most once across concurrent callers) and the
// original request is retried with the new token.
func (c *Client) Request(ctx context.Context, endpoint string, opts *RequestOptions) (gjson.Result, error) {
	if opts == nil {
		opts = &RequestOptions{}
	}

	body, contentType, err := encodeBody(opts)
	if err != nil {
		return gjson.Result{}, err
	}

	token, err := c.tokens.Load()
	if err != nil {
		log.Warnf("token load failed, continuing unauthenticated: %v", err)
		token = ""
	}

	res, err := c.do(ctx, endpoint, opts, body, contentType, token)
	if err == nil {
		return res, nil
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.Status == http.StatusUnauthorized &&
		endpoint != refreshEndpoint && endpoint != loginEndpoint {
		newToken, refreshErr := c.awaitRefresh(ctx)
		if refreshErr != nil {
			expired := &AuthExpiredError{Err: refreshErr}
			log.Errorf("request %s failed: %v", endpoint, expired)
			return gjson.Result{}, expired
		}
		res, err = c.do(ctx, endpoint, opts, body, contentType, newToken)
		if err != nil {
			log.Errorf("retry of %s after refresh failed: %v", endpoint, err)
			return gjson.Result{}, err
		}
		return res, nil
	}

	log.Errorf("request %s failed: %v", endpoint, err)
	return gjson.Result{}, err
}

// do executes one HTTP round trip without any refresh handling.
func (c *Client) do(ctx context.Context, endpoint string, opts *RequestOptions, body []byte, contentType, token string) (gjson.Result, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	target := c.baseURL + apiPrefix + endpoint
	if len(opts.Query) > 0 {
		target += "?" + opts.Query.Encode()
	}

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("gajpati client: build request failed: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", contentTypeJSON)
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		netErr := &NetworkError{Err: err}
		log.Errorf("request %s failed: %v", endpoint, netErr)
		return gjson.Result{}, netErr
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		netErr := &NetworkError{Err: err}
		log.Errorf("read response of %s failed: %v", endpoint, netErr)
		return gjson.Result{}, netErr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return gjson.Result{}, responseError(resp.StatusCode, raw)
	}

	if len(raw) == 0 {
		return gjson.Result{}, nil
	}
	return gjson.ParseBytes(raw), nil
}

// responseError shapes a non-2xx response into the error taxonomy. The error
// body is parsed leniently; an unparseable body degrades to an empty message.
func responseError(status int, raw []byte) error {
	message := ""
	if gjson.ValidBytes(raw) {
		parsed := gjson.ParseBytes(raw)
		message = firstString(parsed, "message", "error", "data.message")
	}

	switch status {
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		if message != "" {
			return &ValidationError{Status: status, Message: message}
		}
	}
	return &HTTPError{Status: status, Message: message}
}

// encodeBody pre-encodes the request body to bytes so a retry after refresh
// replays the identical payload.
func encodeBody(opts *RequestOptions) ([]byte, string, error) {
	if len(opts.Files) > 0 {
		buf := &bytes.Buffer{}
		writer := multipart.NewWriter(buf)
		for k, v := range opts.Fields {
			if err := writer.WriteField(k, v); err != nil {
				return nil, "", fmt.Errorf("gajpati client: write form field %s failed: %w", k, err)
			}
		}
		for _, file := range opts.Files {
			part, err := writer.CreateFormFile(file.Field, file.Name)
			if err != nil {
				return nil, "", fmt.Errorf("gajpati client: create form file %s failed: %w", file.Field, err)
			}
			if _, err = part.Write(file.Content); err != nil {
				return nil, "", fmt.Errorf("gajpati client: write form file %s failed: %w", file.Field, err)
			}
		}
		if err := writer.Close(); err != nil {
			return nil, "", fmt.Errorf("gajpati client: finalize multipart body failed: %w", err)
		}
		return buf.Bytes(), writer.FormDataContentType(), nil
	}

	if opts.Body == nil {
		return nil, contentTypeJSON, nil
	}
	switch body := opts.Body.(type) {
	case []byte:
		return body, contentTypeJSON, nil
	case json.RawMessage:
		return body, contentTypeJSON, nil
	default:
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, "", fmt.Errorf("gajpati client: encode body failed: %w", err)
		}
		return encoded, contentTypeJSON, nil
	}
}

// firstString returns the first non-empty string found at the given gjson
// paths. Backend responses sometimes wrap payloads in a data envelope, so
// callers probe both shapes.
func firstString(res gjson.Result, paths ...string) string {
	for _, path := range paths {
		if v := strings.TrimSpace(res.Get(path).String()); v != "" {
			return v
		}
	}
	return ""
}
