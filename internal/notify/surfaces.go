package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"sync"

	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/dom"
)

const (
	// DefaultDocumentAnchor is the page region notifications are appended to.
	DefaultDocumentAnchor = ".notifications"

	errorMessageNoDocument = "notify: document surface has no document"
	errorMessageRender     = "notify: render notification"
)

// ErrNoDocument indicates a DocumentSurface built without a document.
var ErrNoDocument = errors.New(errorMessageNoDocument)

var notificationTemplate = template.Must(template.New("notification").Parse(`<div class="notification notification-{{.Kind}}" role="alert" data-notification-id="{{.ID}}"><h3 class="notification-title">{{.Title}}</h3><p class="notification-message">{{.Message}}</p></div>`))

// LogSurface writes notifications to the structured log.
type LogSurface struct {
	logger *zap.Logger
}

// NewLogSurface logs through logger.
func NewLogSurface(logger *zap.Logger) *LogSurface {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSurface{logger: logger}
}

// Show logs the notification at warn level.
func (surface *LogSurface) Show(_ context.Context, notification Notification) error {
	surface.logger.Warn("notification_shown",
		zap.String("notification_id", notification.ID),
		zap.String("kind", string(notification.Kind)),
		zap.String("title", notification.Title),
		zap.String("message", notification.Message),
	)
	return nil
}

// DocumentSurface appends each notification as its own alert element into
// an anchor of a page document.
type DocumentSurface struct {
	mutex    sync.Mutex
	document *dom.Document
	selector string
}

// NewDocumentSurface targets selector in document; an empty selector uses
// DefaultDocumentAnchor.
func NewDocumentSurface(document *dom.Document, selector string) *DocumentSurface {
	if selector == "" {
		selector = DefaultDocumentAnchor
	}
	return &DocumentSurface{document: document, selector: selector}
}

// Show renders the alert and appends it to the anchor.
func (surface *DocumentSurface) Show(_ context.Context, notification Notification) error {
	if surface.document == nil {
		return ErrNoDocument
	}
	var buffer bytes.Buffer
	if executeErr := notificationTemplate.Execute(&buffer, notification); executeErr != nil {
		return fmt.Errorf("%s: %w", errorMessageRender, executeErr)
	}

	surface.mutex.Lock()
	defer surface.mutex.Unlock()
	anchor, queryErr := surface.document.QueryOne(surface.selector)
	if queryErr != nil {
		return queryErr
	}
	return dom.AppendHTML(anchor, buffer.String())
}

// RecorderSurface keeps notifications in memory.
type RecorderSurface struct {
	mutex         sync.Mutex
	notifications []Notification
}

// NewRecorderSurface returns an empty recorder.
func NewRecorderSurface() *RecorderSurface {
	return &RecorderSurface{}
}

// Show records notification.
func (surface *RecorderSurface) Show(_ context.Context, notification Notification) error {
	surface.mutex.Lock()
	defer surface.mutex.Unlock()
	surface.notifications = append(surface.notifications, notification)
	return nil
}

// Notifications returns a copy of everything recorded so far.
func (surface *RecorderSurface) Notifications() []Notification {
	surface.mutex.Lock()
	defer surface.mutex.Unlock()
	return append([]Notification(nil), surface.notifications...)
}

// MultiSurface shows every notification on each of its surfaces.
type MultiSurface []Surface

// Show forwards to every surface and joins their errors.
func (surfaces MultiSurface) Show(ctx context.Context, notification Notification) error {
	var showErrors []error
	for _, surface := range surfaces {
		if surface == nil {
			continue
		}
		if showErr := surface.Show(ctx, notification); showErr != nil {
			showErrors = append(showErrors, showErr)
		}
	}
	return errors.Join(showErrors...)
}
