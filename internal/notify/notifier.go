// Package notify turns failed outbound requests into user-facing
// notifications.
package notify

import (
	"context"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/transport"
)

const (
	// TitleSaveFailure is the title of every request failure notification.
	TitleSaveFailure = "We're having trouble saving your work"
	// MessageConnectivity is shown when a failed response carried no body.
	MessageConnectivity = "This may be happening because of an error with our server or your internet connection. Try refreshing the page or making sure you are online."

	maxMessageRunes = 300
	errorBodyField  = "error"
)

// Kind classifies a notification.
type Kind string

const (
	KindError   Kind = "error"
	KindWarning Kind = "warning"
)

// Notification is one message shown to the learner.
type Notification struct {
	ID      string `json:"id"`
	Kind    Kind   `json:"kind"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Surface displays notifications.
type Surface interface {
	Show(ctx context.Context, notification Notification) error
}

type surfaceContextKey struct{}

// WithSurface binds surface to ctx so failures raised while serving ctx show
// up there instead of on the notifier's default surface.
func WithSurface(ctx context.Context, surface Surface) context.Context {
	if surface == nil {
		return ctx
	}
	return context.WithValue(ctx, surfaceContextKey{}, surface)
}

// SurfaceFromContext returns the surface bound by WithSurface.
func SurfaceFromContext(ctx context.Context) (Surface, bool) {
	if ctx == nil {
		return nil, false
	}
	surface, ok := ctx.Value(surfaceContextKey{}).(Surface)
	return surface, ok && surface != nil
}

// Notifier is the failure hook shared by every outbound request.
type Notifier struct {
	defaultSurface Surface
	logger         *zap.Logger
}

// NewNotifier shows notifications on defaultSurface unless the request
// context carries its own surface. A nil defaultSurface logs them.
func NewNotifier(defaultSurface Surface, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultSurface == nil {
		defaultSurface = NewLogSurface(logger)
	}
	return &Notifier{defaultSurface: defaultSurface, logger: logger}
}

// HandleFailure implements transport.FailureHook.
func (notifier *Notifier) HandleFailure(ctx context.Context, failure transport.Failure) {
	if !failure.NotifyOnError {
		return
	}
	notifier.logger.Debug("request_failure_notified",
		zap.String("method", failure.Method),
		zap.String("url", failure.URL),
		zap.Int("status", failure.StatusCode),
	)
	notifier.Notify(ctx, KindError, TitleSaveFailure, MessageForBody(failure.Body))
}

// Notify shows a notification. Surface errors are logged and dropped.
func (notifier *Notifier) Notify(ctx context.Context, kind Kind, title string, message string) {
	notification := Notification{
		ID:      uuid.NewString(),
		Kind:    kind,
		Title:   title,
		Message: message,
	}
	surface := notifier.defaultSurface
	if bound, found := SurfaceFromContext(ctx); found {
		surface = bound
	}
	if showErr := surface.Show(ctx, notification); showErr != nil {
		notifier.logger.Warn("notification_show_failed",
			zap.String("notification_id", notification.ID),
			zap.Error(showErr),
		)
	}
}

// MessageForBody derives the notification message from a failed response
// body: the JSON "error" string when present, else the first 300 characters
// of the body, else the connectivity message for an empty body.
func MessageForBody(body []byte) string {
	if len(body) == 0 {
		return MessageConnectivity
	}
	var payload map[string]any
	if json.Unmarshal(body, &payload) == nil {
		if message, ok := payload[errorBodyField].(string); ok && strings.TrimSpace(message) != "" {
			return message
		}
	}
	return truncate(string(body), maxMessageRunes)
}

func truncate(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit])
}
