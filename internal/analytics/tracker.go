// Package analytics records learner interaction events.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/transport"
)

const (
	// EventProgramCardClicked fires when a program card link is followed.
	EventProgramCardClicked = "edx.bi.programs_listing.program_card.clicked"
	// EventFindXSeriesLinkClicked fires when the explore call-to-action is followed.
	EventFindXSeriesLinkClicked = "edx.bi.programs_listing.find_xseries_link.clicked"
	// CategoryProgramsListing groups dashboard listing events.
	CategoryProgramsListing = "programs_listing"

	PropertyCategory  = "category"
	PropertyLabel     = "label"
	PropertyProgramID = "programId"

	// DefaultEndpoint receives events posted by TransportTracker.
	DefaultEndpoint = "/api/track"

	maxEventNameLength = 200

	errorMessageInvalidEvent = "analytics: invalid event"
	errorMessageTrack        = "analytics: track event"
)

// ErrInvalidEvent indicates an event without a usable name.
var ErrInvalidEvent = errors.New(errorMessageInvalidEvent)

// Event is one named interaction with free-form properties.
type Event struct {
	Name       string         `json:"event"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Validate checks the event name.
func (event Event) Validate() error {
	name := strings.TrimSpace(event.Name)
	if name == "" || len(name) > maxEventNameLength {
		return ErrInvalidEvent
	}
	return nil
}

// Tracker records events.
type Tracker interface {
	Track(ctx context.Context, event Event) error
}

type eventPoster interface {
	PostJSON(ctx context.Context, target string, data any, out any, options ...transport.RequestOption) error
}

// TransportTracker posts events through the shared request transport.
// Tracking failures are never shown to the learner.
type TransportTracker struct {
	poster   eventPoster
	endpoint string
	logger   *zap.Logger
}

// NewTransportTracker posts to endpoint, DefaultEndpoint when empty.
func NewTransportTracker(poster eventPoster, endpoint string, logger *zap.Logger) *TransportTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultEndpoint
	}
	return &TransportTracker{poster: poster, endpoint: endpoint, logger: logger}
}

// Track posts event with failure notification suppressed.
func (tracker *TransportTracker) Track(ctx context.Context, event Event) error {
	if validationErr := event.Validate(); validationErr != nil {
		return validationErr
	}
	postErr := tracker.poster.PostJSON(ctx, tracker.endpoint, event, nil, transport.WithoutFailureNotification())
	if postErr != nil {
		tracker.logger.Debug("analytics_track_failed", zap.String("event", event.Name), zap.Error(postErr))
		return fmt.Errorf("%s: %w", errorMessageTrack, postErr)
	}
	return nil
}

// LogTracker writes events to the structured log.
type LogTracker struct {
	logger *zap.Logger
}

// NewLogTracker logs through logger.
func NewLogTracker(logger *zap.Logger) *LogTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogTracker{logger: logger}
}

// Track validates and logs event.
func (tracker *LogTracker) Track(_ context.Context, event Event) error {
	if validationErr := event.Validate(); validationErr != nil {
		return validationErr
	}
	tracker.logger.Info("analytics_event", zap.String("event", event.Name), zap.Any("properties", event.Properties))
	return nil
}

// NopTracker drops every event.
type NopTracker struct{}

// Track discards the event.
func (NopTracker) Track(context.Context, Event) error { return nil }
