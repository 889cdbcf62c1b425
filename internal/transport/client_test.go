package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testPathPrefix = "/learner"
	testCSRFToken  = "token-123"
)

type recordedRequest struct {
	Method         string
	Path           string
	Body           string
	ContentType    string
	Accept         string
	CSRFToken      string
	MethodOverride string
}

type requestRecorder struct {
	mutex    sync.Mutex
	requests []recordedRequest
}

func (recorder *requestRecorder) handler(status int, responseBody string) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		body, _ := io.ReadAll(request.Body)
		recorder.mutex.Lock()
		recorder.requests = append(recorder.requests, recordedRequest{
			Method:         request.Method,
			Path:           request.URL.Path,
			Body:           string(body),
			ContentType:    request.Header.Get("Content-Type"),
			Accept:         request.Header.Get("Accept"),
			CSRFToken:      request.Header.Get(HeaderCSRFToken),
			MethodOverride: request.Header.Get(HeaderMethodOverride),
		})
		recorder.mutex.Unlock()
		writer.WriteHeader(status)
		_, _ = io.WriteString(writer, responseBody)
	}
}

func (recorder *requestRecorder) last(testingT *testing.T) recordedRequest {
	testingT.Helper()
	recorder.mutex.Lock()
	defer recorder.mutex.Unlock()
	require.NotEmpty(testingT, recorder.requests)
	return recorder.requests[len(recorder.requests)-1]
}

type failureCollector struct {
	mutex    sync.Mutex
	failures []Failure
}

func (collector *failureCollector) HandleFailure(_ context.Context, failure Failure) {
	collector.mutex.Lock()
	defer collector.mutex.Unlock()
	collector.failures = append(collector.failures, failure)
}

func (collector *failureCollector) all() []Failure {
	collector.mutex.Lock()
	defer collector.mutex.Unlock()
	return append([]Failure(nil), collector.failures...)
}

func newTestClient(testingT *testing.T, server *httptest.Server, hook FailureHook, emulate bool) *Client {
	testingT.Helper()
	baseURL, parseErr := url.Parse(server.URL)
	require.NoError(testingT, parseErr)
	return NewClient(Config{
		BaseURL:     baseURL,
		PathPrefix:  testPathPrefix,
		Tokens:      StaticTokenSource(testCSRFToken),
		EmulateHTTP: emulate,
	}, nil, hook, zap.NewNop())
}

func TestPostJSONSendsPrefixedJSONWithCSRFHeader(testingT *testing.T) {
	recorder := &requestRecorder{}
	server := httptest.NewServer(recorder.handler(http.StatusOK, `{"saved":true}`))
	testingT.Cleanup(server.Close)

	collector := &failureCollector{}
	client := newTestClient(testingT, server, collector, false)

	var response struct {
		Saved bool `json:"saved"`
	}
	postErr := client.PostJSON(context.Background(), "/api/progress", map[string]any{"unit": "intro"}, &response)
	require.NoError(testingT, postErr)
	require.True(testingT, response.Saved)

	request := recorder.last(testingT)
	require.Equal(testingT, http.MethodPost, request.Method)
	require.Equal(testingT, testPathPrefix+"/api/progress", request.Path)
	require.JSONEq(testingT, `{"unit":"intro"}`, request.Body)
	require.Equal(testingT, "application/json; charset=utf-8", request.ContentType)
	require.Equal(testingT, "application/json", request.Accept)
	require.Equal(testingT, testCSRFToken, request.CSRFToken)
	require.Empty(testingT, collector.all())
}

func TestPostJSONWithoutBodySendsEmptyBody(testingT *testing.T) {
	recorder := &requestRecorder{}
	server := httptest.NewServer(recorder.handler(http.StatusOK, ""))
	testingT.Cleanup(server.Close)

	client := newTestClient(testingT, server, nil, false)

	require.NoError(testingT, client.PostJSONWithoutBody(context.Background(), "/api/ping", nil))
	request := recorder.last(testingT)
	require.Empty(testingT, request.Body)
	require.Equal(testingT, "application/json; charset=utf-8", request.ContentType)
}

func TestPrefixIsAppliedOnce(testingT *testing.T) {
	recorder := &requestRecorder{}
	server := httptest.NewServer(recorder.handler(http.StatusOK, `{}`))
	testingT.Cleanup(server.Close)

	client := newTestClient(testingT, server, nil, false)

	require.NoError(testingT, client.GetJSON(context.Background(), testPathPrefix+"/api/bundle", &map[string]any{}))
	require.Equal(testingT, testPathPrefix+"/api/bundle", recorder.last(testingT).Path)
}

func TestRoundTripperSkipsPrefixForOtherHosts(testingT *testing.T) {
	recorder := &requestRecorder{}
	server := httptest.NewServer(recorder.handler(http.StatusOK, `{}`))
	testingT.Cleanup(server.Close)

	baseURL, _ := url.Parse("https://lms.example.com")
	client := NewClient(Config{BaseURL: baseURL, PathPrefix: testPathPrefix}, nil, nil, nil)

	require.NoError(testingT, client.GetJSON(context.Background(), server.URL+"/events", nil))
	require.Equal(testingT, "/events", recorder.last(testingT).Path)
}

func TestEmulateHTTPRewritesMethod(testingT *testing.T) {
	recorder := &requestRecorder{}
	server := httptest.NewServer(recorder.handler(http.StatusOK, `{}`))
	testingT.Cleanup(server.Close)

	client := newTestClient(testingT, server, nil, true)
	request, requestErr := http.NewRequest(http.MethodDelete, server.URL+"/api/items/1", nil)
	require.NoError(testingT, requestErr)

	response, doErr := client.httpClient.Do(request)
	require.NoError(testingT, doErr)
	_ = response.Body.Close()

	recorded := recorder.last(testingT)
	require.Equal(testingT, http.MethodPost, recorded.Method)
	require.Equal(testingT, http.MethodDelete, recorded.MethodOverride)
	require.Equal(testingT, http.MethodDelete, request.Method)
}

func TestFailedRequestInvokesHookOnceAndReturnsRequestError(testingT *testing.T) {
	recorder := &requestRecorder{}
	server := httptest.NewServer(recorder.handler(http.StatusInternalServerError, `{"error":"Disk full"}`))
	testingT.Cleanup(server.Close)

	collector := &failureCollector{}
	client := newTestClient(testingT, server, collector, false)

	postErr := client.PostJSON(context.Background(), "/api/progress", map[string]any{}, nil)
	require.ErrorIs(testingT, postErr, ErrRequestFailed)

	var requestError *RequestError
	require.True(testingT, errors.As(postErr, &requestError))
	require.Equal(testingT, http.StatusInternalServerError, requestError.StatusCode)

	failures := collector.all()
	require.Len(testingT, failures, 1)
	require.True(testingT, failures[0].NotifyOnError)
	require.Equal(testingT, `{"error":"Disk full"}`, string(failures[0].Body))
}

func TestFailureNotificationOptOutIsForwarded(testingT *testing.T) {
	recorder := &requestRecorder{}
	server := httptest.NewServer(recorder.handler(http.StatusBadRequest, `{"error":"invalid"}`))
	testingT.Cleanup(server.Close)

	collector := &failureCollector{}
	client := newTestClient(testingT, server, collector, false)

	postErr := client.PostJSON(context.Background(), "/api/track", map[string]any{}, nil, WithoutFailureNotification())
	require.ErrorIs(testingT, postErr, ErrRequestFailed)

	failures := collector.all()
	require.Len(testingT, failures, 1)
	require.False(testingT, failures[0].NotifyOnError)
}

func TestMalformedJSONResponseIsAFailure(testingT *testing.T) {
	recorder := &requestRecorder{}
	server := httptest.NewServer(recorder.handler(http.StatusOK, `<html>oops</html>`))
	testingT.Cleanup(server.Close)

	collector := &failureCollector{}
	client := newTestClient(testingT, server, collector, false)

	var response map[string]any
	getErr := client.GetJSON(context.Background(), "/api/bundle", &response)
	require.ErrorIs(testingT, getErr, ErrRequestFailed)
	require.Len(testingT, collector.all(), 1)
	require.Equal(testingT, http.StatusOK, collector.all()[0].StatusCode)
}

func TestTransportErrorHasNoStatus(testingT *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	serverURL := server.URL
	server.Close()

	collector := &failureCollector{}
	baseURL, _ := url.Parse(serverURL)
	client := NewClient(Config{BaseURL: baseURL}, nil, collector, nil)

	getErr := client.GetJSON(context.Background(), "/api/bundle", nil)
	require.ErrorIs(testingT, getErr, ErrRequestFailed)

	failures := collector.all()
	require.Len(testingT, failures, 1)
	require.Zero(testingT, failures[0].StatusCode)
	require.Empty(testingT, failures[0].Body)
	require.Error(testingT, failures[0].Err)
}

func TestPostJSONRejectsUnencodablePayload(testingT *testing.T) {
	collector := &failureCollector{}
	client := NewClient(Config{}, nil, collector, nil)

	postErr := client.PostJSON(context.Background(), "http://example.invalid", map[string]any{"bad": make(chan int)}, nil)
	require.ErrorIs(testingT, postErr, ErrEncodePayload)
	require.Empty(testingT, collector.all())
}

func TestNormalizePathPrefix(testingT *testing.T) {
	require.Equal(testingT, "", NormalizePathPrefix("  "))
	require.Equal(testingT, "", NormalizePathPrefix("/"))
	require.Equal(testingT, "/learner", NormalizePathPrefix("learner/"))
	require.Equal(testingT, "/a/b", NormalizePathPrefix("/a/b/"))
}

func TestCookieTokenSourceReadsCSRFCookie(testingT *testing.T) {
	jar, jarErr := OpenCookieJar("")
	require.NoError(testingT, jarErr)

	target, _ := url.Parse("https://lms.example.com/dashboard")
	jar.SetCookies(target, []*http.Cookie{{Name: CSRFCookieName, Value: "cookie-token", Path: "/"}})

	source := NewCookieTokenSource(jar)
	request, _ := http.NewRequest(http.MethodGet, "https://lms.example.com/api/bundle", nil)
	token, found := source.Token(request)
	require.True(testingT, found)
	require.Equal(testingT, "cookie-token", token)

	otherHost, _ := http.NewRequest(http.MethodGet, "https://other.example.com/", nil)
	_, found = source.Token(otherHost)
	require.False(testingT, found)
}

func TestStaticTokenSourceIgnoresBlankToken(testingT *testing.T) {
	_, found := StaticTokenSource("  ").Token(nil)
	require.False(testingT, found)
	token, found := StaticTokenSource("abc").Token(nil)
	require.True(testingT, found)
	require.True(testingT, strings.EqualFold("abc", token))
}
