// Package transport issues the dashboard's outbound HTTP calls. Every request
// is rewritten with the configured path prefix, carries the CSRF header and is
// JSON typed; every failure is reported to a single failure hook.
package transport

import (
	"net/http"
	"net/url"
	"strings"
)

const (
	// HeaderCSRFToken carries the CSRF token on every outbound request.
	HeaderCSRFToken = "X-CSRFToken"
	// HeaderMethodOverride carries the original verb when HTTP is emulated.
	HeaderMethodOverride = "X-HTTP-Method-Override"

	headerAccept        = "Accept"
	headerContentType   = "Content-Type"
	acceptJSON          = "application/json"
	contentTypeJSONBody = "application/json; charset=utf-8"
)

var emulatedMethods = map[string]struct{}{
	http.MethodPut:    {},
	http.MethodPatch:  {},
	http.MethodDelete: {},
}

// Config is the process-wide request configuration resolved at bootstrap.
type Config struct {
	BaseURL     *url.URL
	PathPrefix  string
	Tokens      TokenSource
	EmulateHTTP bool
}

// RoundTripper applies Config to every request before delegating.
type RoundTripper struct {
	base   http.RoundTripper
	config Config
	prefix string
}

// NewRoundTripper wraps base; a nil base uses http.DefaultTransport.
func NewRoundTripper(base http.RoundTripper, config Config) *RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &RoundTripper{
		base:   base,
		config: config,
		prefix: NormalizePathPrefix(config.PathPrefix),
	}
}

// NormalizePathPrefix returns "" or a prefix with one leading and no trailing slash.
func NormalizePathPrefix(prefix string) string {
	trimmed := strings.Trim(strings.TrimSpace(prefix), "/")
	if trimmed == "" {
		return ""
	}
	return "/" + trimmed
}

// RoundTrip rewrites a clone of request and sends it.
func (roundTripper *RoundTripper) RoundTrip(request *http.Request) (*http.Response, error) {
	outgoing := request.Clone(request.Context())

	if roundTripper.sameOrigin(outgoing.URL) {
		roundTripper.applyPrefix(outgoing.URL)
	}

	if roundTripper.config.Tokens != nil {
		if token, found := roundTripper.config.Tokens.Token(outgoing); found {
			outgoing.Header.Set(HeaderCSRFToken, token)
		}
	}

	if outgoing.Header.Get(headerAccept) == "" {
		outgoing.Header.Set(headerAccept, acceptJSON)
	}

	if roundTripper.config.EmulateHTTP {
		if _, emulated := emulatedMethods[outgoing.Method]; emulated {
			outgoing.Header.Set(HeaderMethodOverride, outgoing.Method)
			outgoing.Method = http.MethodPost
		}
	}

	return roundTripper.base.RoundTrip(outgoing)
}

func (roundTripper *RoundTripper) sameOrigin(target *url.URL) bool {
	baseURL := roundTripper.config.BaseURL
	if baseURL == nil || baseURL.Host == "" {
		return true
	}
	return strings.EqualFold(baseURL.Host, target.Host)
}

func (roundTripper *RoundTripper) applyPrefix(target *url.URL) {
	prefix := roundTripper.prefix
	if prefix == "" {
		return
	}
	if target.Path == prefix || strings.HasPrefix(target.Path, prefix+"/") {
		return
	}
	path := target.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	target.Path = prefix + path
	if target.RawPath != "" {
		rawPath := target.RawPath
		if !strings.HasPrefix(rawPath, "/") {
			rawPath = "/" + rawPath
		}
		target.RawPath = prefix + rawPath
	}
}
