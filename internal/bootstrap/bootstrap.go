// Package bootstrap builds the process-wide request configuration once and
// hands it to every component that issues outbound calls.
package bootstrap

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	cookiejar "github.com/juju/persistent-cookiejar"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/dom"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/notify"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/transport"
)

const (
	// PathPrefixMetaName names the page meta element carrying the path prefix.
	PathPrefixMetaName = "path_prefix"
	// TouchDeviceClass is added to the body of pages served to touch devices.
	TouchDeviceClass = "touch-based-device"

	defaultRequestTimeout = 15 * time.Second

	errorMessageInvalidBaseURL = "bootstrap: invalid base url"
)

// ErrInvalidBaseURL indicates a base URL that is not absolute.
var ErrInvalidBaseURL = errors.New(errorMessageInvalidBaseURL)

var touchDevicePattern = regexp.MustCompile(`(?i)iPhone|iPod|iPad|Android`)

// Settings are the raw bootstrap inputs.
type Settings struct {
	BaseURL       string
	PathPrefix    string
	CSRFToken     string
	CookieJarPath string
	EmulateHTTP   bool
	Timeout       time.Duration
}

// Bootstrap is the resolved, read-only request configuration.
type Bootstrap struct {
	Config   transport.Config
	Notifier *notify.Notifier
	Client   *transport.Client
	// CookieJar holds upstream cookies; it is written to disk only by Save.
	CookieJar *cookiejar.Jar
}

// New resolves settings into a transport client whose failure hook is the
// notifier. defaultSurface receives notifications raised outside any page.
func New(settings Settings, defaultSurface notify.Surface, logger *zap.Logger) (*Bootstrap, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	config := transport.Config{
		PathPrefix:  transport.NormalizePathPrefix(settings.PathPrefix),
		EmulateHTTP: settings.EmulateHTTP,
	}
	if trimmed := strings.TrimSpace(settings.BaseURL); trimmed != "" {
		baseURL, parseErr := url.Parse(trimmed)
		if parseErr != nil || !baseURL.IsAbs() || baseURL.Host == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, settings.BaseURL)
		}
		config.BaseURL = baseURL
	}

	jar, jarErr := transport.OpenCookieJar(settings.CookieJarPath)
	if jarErr != nil {
		return nil, jarErr
	}
	if token := strings.TrimSpace(settings.CSRFToken); token != "" {
		config.Tokens = transport.StaticTokenSource(token)
	} else {
		config.Tokens = transport.NewCookieTokenSource(jar)
	}

	timeout := settings.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	notifier := notify.NewNotifier(defaultSurface, logger)
	client := transport.NewClient(config, nil, notifier, logger).WithTimeout(timeout).WithCookieJar(jar)

	logger.Info("bootstrap_configured",
		zap.String("path_prefix", config.PathPrefix),
		zap.Bool("emulate_http", config.EmulateHTTP),
		zap.Bool("static_csrf_token", settings.CSRFToken != ""),
	)
	return &Bootstrap{Config: config, Notifier: notifier, Client: client, CookieJar: jar}, nil
}

// ResolvePathPrefix prefers the configured prefix and otherwise reads the
// path_prefix meta element of document.
func ResolvePathPrefix(configured string, document *dom.Document) string {
	if normalized := transport.NormalizePathPrefix(configured); normalized != "" {
		return normalized
	}
	if document == nil {
		return ""
	}
	content, found := document.MetaContent(PathPrefixMetaName)
	if !found {
		return ""
	}
	return transport.NormalizePathPrefix(content)
}

// IsTouchDevice reports whether userAgent belongs to a touch device.
func IsTouchDevice(userAgent string) bool {
	return touchDevicePattern.MatchString(userAgent)
}

// MarkTouchDevice adds TouchDeviceClass to the body of document when
// userAgent is a touch device.
func MarkTouchDevice(document *dom.Document, userAgent string) bool {
	if document == nil || !IsTouchDevice(userAgent) {
		return false
	}
	body := document.Body()
	if body == nil {
		return false
	}
	dom.AddClass(body, TouchDeviceClass)
	return true
}
