package transport

import (
	"fmt"
	"net/http"
	"strings"

	cookiejar "github.com/juju/persistent-cookiejar"
)

// CSRFCookieName is the cookie the CSRF token is read from.
const CSRFCookieName = "csrftoken"

// TokenSource supplies the CSRF token for an outbound request.
type TokenSource interface {
	Token(request *http.Request) (string, bool)
}

// StaticTokenSource always returns the same token.
type StaticTokenSource string

// Token returns the static token when it is not blank.
func (source StaticTokenSource) Token(*http.Request) (string, bool) {
	token := strings.TrimSpace(string(source))
	return token, token != ""
}

// CookieTokenSource reads the csrftoken cookie scoped to the request URL.
type CookieTokenSource struct {
	jar        http.CookieJar
	cookieName string
}

// NewCookieTokenSource reads tokens from jar.
func NewCookieTokenSource(jar http.CookieJar) *CookieTokenSource {
	return &CookieTokenSource{jar: jar, cookieName: CSRFCookieName}
}

// Token looks up the CSRF cookie for the request URL.
func (source *CookieTokenSource) Token(request *http.Request) (string, bool) {
	if source == nil || source.jar == nil || request == nil || request.URL == nil {
		return "", false
	}
	for _, cookie := range source.jar.Cookies(request.URL) {
		if cookie.Name == source.cookieName && strings.TrimSpace(cookie.Value) != "" {
			return cookie.Value, true
		}
	}
	return "", false
}

// OpenCookieJar loads the persistent cookie jar stored at filename. An empty
// filename keeps the jar in memory only.
func OpenCookieJar(filename string) (*cookiejar.Jar, error) {
	trimmed := strings.TrimSpace(filename)
	jar, jarErr := cookiejar.New(&cookiejar.Options{
		Filename:  trimmed,
		NoPersist: trimmed == "",
	})
	if jarErr != nil {
		return nil, fmt.Errorf("transport: open cookie jar: %w", jarErr)
	}
	return jar, nil
}
