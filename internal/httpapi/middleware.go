package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/transport"
)

const (
	errorCodeCSRFFailed = "csrf_failed"
	csrfCookieMaxAge    = 365 * 24 * 60 * 60
)

var csrfSafeMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodHead:    {},
	http.MethodOptions: {},
}

// RequestLogger logs one line per request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(context *gin.Context) {
		start := time.Now()
		context.Next()
		logger.Info("http",
			zap.String("method", context.Request.Method),
			zap.String("path", context.Request.URL.Path),
			zap.Int("status", context.Writer.Status()),
			zap.Duration("dur", time.Since(start)),
			zap.String("ip", context.ClientIP()),
			zap.String("ua", context.Request.UserAgent()),
		)
	}
}

// IssueCSRFCookie gives every visitor a csrftoken cookie readable by the
// page script.
func IssueCSRFCookie(secure bool) gin.HandlerFunc {
	return func(context *gin.Context) {
		if existing, cookieErr := context.Cookie(transport.CSRFCookieName); cookieErr != nil || strings.TrimSpace(existing) == "" {
			context.SetSameSite(http.SameSiteLaxMode)
			context.SetCookie(transport.CSRFCookieName, uuid.NewString(), csrfCookieMaxAge, "/", "", secure, false)
		}
		context.Next()
	}
}

// CSRFProtection rejects unsafe requests whose X-CSRFToken header does not
// match the csrftoken cookie.
func CSRFProtection() gin.HandlerFunc {
	return func(context *gin.Context) {
		if _, safe := csrfSafeMethods[context.Request.Method]; safe {
			context.Next()
			return
		}
		cookieToken, cookieErr := context.Cookie(transport.CSRFCookieName)
		headerToken := strings.TrimSpace(context.GetHeader(transport.HeaderCSRFToken))
		if cookieErr != nil || strings.TrimSpace(cookieToken) == "" || headerToken == "" ||
			subtle.ConstantTimeCompare([]byte(cookieToken), []byte(headerToken)) != 1 {
			context.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": errorCodeCSRFFailed})
			return
		}
		context.Next()
	}
}
