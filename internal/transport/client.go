package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	errorMessageRequestFailed  = "transport: request failed"
	errorMessageEncodePayload  = "transport: encode payload"
	errorMessageBuildRequest   = "transport: build request"
	errorMessageResolveURL     = "transport: resolve url"
	errorMessageMalformedJSON  = "malformed JSON response"
	errorMessageUnexpectedCode = "unexpected status"

	defaultClientTimeout   = 15 * time.Second
	defaultMaxResponseSize = 1 << 20
)

var (
	// ErrRequestFailed marks every failure reported to the failure hook.
	ErrRequestFailed = errors.New(errorMessageRequestFailed)
	// ErrEncodePayload indicates a request payload that cannot be serialized.
	ErrEncodePayload = errors.New(errorMessageEncodePayload)
)

// Failure describes one failed request as seen by the failure hook.
type Failure struct {
	Method        string
	URL           string
	StatusCode    int
	Body          []byte
	Err           error
	NotifyOnError bool
}

// FailureHook observes every failed request.
type FailureHook interface {
	HandleFailure(ctx context.Context, failure Failure)
}

// FailureHookFunc adapts a function to FailureHook.
type FailureHookFunc func(ctx context.Context, failure Failure)

// HandleFailure calls hookFunc.
func (hookFunc FailureHookFunc) HandleFailure(ctx context.Context, failure Failure) {
	hookFunc(ctx, failure)
}

// RequestError is returned to callers after the failure hook ran.
type RequestError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
	Err        error
}

func (requestError *RequestError) Error() string {
	detail := fmt.Sprintf("%s %d", errorMessageUnexpectedCode, requestError.StatusCode)
	if requestError.Err != nil {
		detail = requestError.Err.Error()
	}
	return fmt.Sprintf("%s: %s %s: %s", errorMessageRequestFailed, requestError.Method, requestError.URL, detail)
}

// Unwrap exposes ErrRequestFailed and the underlying cause.
func (requestError *RequestError) Unwrap() []error {
	if requestError.Err == nil {
		return []error{ErrRequestFailed}
	}
	return []error{ErrRequestFailed, requestError.Err}
}

type requestSettings struct {
	notifyOnError bool
	headers       http.Header
}

// RequestOption adjusts a single request.
type RequestOption func(*requestSettings)

// WithoutFailureNotification keeps the failure hook from notifying for this
// request; the caller handles the returned error itself.
func WithoutFailureNotification() RequestOption {
	return func(settings *requestSettings) {
		settings.notifyOnError = false
	}
}

// WithHeader sets an extra header on this request.
func WithHeader(name string, value string) RequestOption {
	return func(settings *requestSettings) {
		settings.headers.Set(name, value)
	}
}

// Client issues JSON requests through the bootstrap round tripper.
type Client struct {
	httpClient      *http.Client
	baseURL         *url.URL
	failureHook     FailureHook
	logger          *zap.Logger
	maxResponseSize int64
}

// NewClient builds a client whose transport applies config. A nil hook
// disables failure notification entirely.
func NewClient(config Config, base http.RoundTripper, failureHook FailureHook, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{
			Transport: NewRoundTripper(base, config),
			Timeout:   defaultClientTimeout,
		},
		baseURL:         config.BaseURL,
		failureHook:     failureHook,
		logger:          logger,
		maxResponseSize: defaultMaxResponseSize,
	}
}

// WithTimeout overrides the overall request timeout.
func (client *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		client.httpClient.Timeout = timeout
	}
	return client
}

// WithCookieJar stores response cookies in jar and sends them back.
func (client *Client) WithCookieJar(jar http.CookieJar) *Client {
	client.httpClient.Jar = jar
	return client
}

// PostJSON serializes data as the request body and decodes the JSON response
// into out. A nil out discards the response body.
func (client *Client) PostJSON(ctx context.Context, target string, data any, out any, options ...RequestOption) error {
	payload, encodeErr := json.Marshal(data)
	if encodeErr != nil {
		return fmt.Errorf("%w: %v", ErrEncodePayload, encodeErr)
	}
	return client.send(ctx, http.MethodPost, target, bytes.NewReader(payload), contentTypeJSONBody, out, options)
}

// PostJSONWithoutBody issues a JSON-typed POST with no request body.
func (client *Client) PostJSONWithoutBody(ctx context.Context, target string, out any, options ...RequestOption) error {
	return client.send(ctx, http.MethodPost, target, nil, contentTypeJSONBody, out, options)
}

// GetJSON fetches target and decodes the JSON response into out.
func (client *Client) GetJSON(ctx context.Context, target string, out any, options ...RequestOption) error {
	return client.send(ctx, http.MethodGet, target, nil, "", out, options)
}

func (client *Client) resolve(target string) (*url.URL, error) {
	parsed, parseErr := url.Parse(strings.TrimSpace(target))
	if parseErr != nil {
		return nil, fmt.Errorf("%s: %w", errorMessageResolveURL, parseErr)
	}
	if client.baseURL != nil && !parsed.IsAbs() {
		return client.baseURL.ResolveReference(parsed), nil
	}
	return parsed, nil
}

func (client *Client) send(ctx context.Context, method string, target string, body io.Reader, contentType string, out any, options []RequestOption) error {
	settings := requestSettings{notifyOnError: true, headers: http.Header{}}
	for _, option := range options {
		if option != nil {
			option(&settings)
		}
	}

	resolvedURL, resolveErr := client.resolve(target)
	if resolveErr != nil {
		return resolveErr
	}

	request, requestErr := http.NewRequestWithContext(ctx, method, resolvedURL.String(), body)
	if requestErr != nil {
		return fmt.Errorf("%s: %w", errorMessageBuildRequest, requestErr)
	}
	for name, values := range settings.headers {
		for _, value := range values {
			request.Header.Add(name, value)
		}
	}
	if contentType != "" {
		request.Header.Set(headerContentType, contentType)
	}
	request.Header.Set(headerAccept, acceptJSON)

	response, doErr := client.httpClient.Do(request)
	if doErr != nil {
		return client.fail(ctx, settings, &RequestError{Method: method, URL: resolvedURL.String(), Err: doErr})
	}
	defer func() {
		_ = response.Body.Close()
	}()

	responseBody, readErr := io.ReadAll(io.LimitReader(response.Body, client.maxResponseSize))
	if readErr != nil {
		return client.fail(ctx, settings, &RequestError{Method: method, URL: resolvedURL.String(), StatusCode: response.StatusCode, Body: responseBody, Err: readErr})
	}

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return client.fail(ctx, settings, &RequestError{Method: method, URL: resolvedURL.String(), StatusCode: response.StatusCode, Body: responseBody})
	}

	if out == nil || len(bytes.TrimSpace(responseBody)) == 0 {
		return nil
	}
	if decodeErr := json.Unmarshal(responseBody, out); decodeErr != nil {
		return client.fail(ctx, settings, &RequestError{
			Method:     method,
			URL:        resolvedURL.String(),
			StatusCode: response.StatusCode,
			Body:       responseBody,
			Err:        fmt.Errorf("%s: %w", errorMessageMalformedJSON, decodeErr),
		})
	}
	return nil
}

func (client *Client) fail(ctx context.Context, settings requestSettings, requestError *RequestError) error {
	client.logger.Debug("outbound_request_failed",
		zap.String("method", requestError.Method),
		zap.String("url", requestError.URL),
		zap.Int("status", requestError.StatusCode),
		zap.Bool("notify", settings.notifyOnError),
		zap.Error(requestError.Err),
	)
	if client.failureHook != nil {
		client.failureHook.HandleFailure(ctx, Failure{
			Method:        requestError.Method,
			URL:           requestError.URL,
			StatusCode:    requestError.StatusCode,
			Body:          requestError.Body,
			Err:           requestError.Err,
			NotifyOnError: settings.notifyOnError,
		})
	}
	return requestError
}
