package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/analytics"
)

const (
	errorCodeInvalidEvent = "invalid_event"
	errorCodeTrackFailed  = "track_failed"
	trackStatusRecorded   = "recorded"
)

// TrackHandlers accepts analytics events posted by dashboard pages.
type TrackHandlers struct {
	tracker analytics.Tracker
	logger  *zap.Logger
}

// NewTrackHandlers records events with tracker.
func NewTrackHandlers(tracker analytics.Tracker, logger *zap.Logger) *TrackHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tracker == nil {
		tracker = analytics.NewLogTracker(logger)
	}
	return &TrackHandlers{tracker: tracker, logger: logger}
}

// Track records one {event, properties} document.
func (handlers *TrackHandlers) Track(context *gin.Context) {
	var event analytics.Event
	if bindErr := context.ShouldBindJSON(&event); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{"error": errorCodeInvalidEvent})
		return
	}
	trackErr := handlers.tracker.Track(context.Request.Context(), event)
	if errors.Is(trackErr, analytics.ErrInvalidEvent) {
		context.JSON(http.StatusBadRequest, gin.H{"error": errorCodeInvalidEvent})
		return
	}
	if trackErr != nil {
		handlers.logger.Warn("track_event_failed", zap.String("event", event.Name), zap.Error(trackErr))
		context.JSON(http.StatusBadGateway, gin.H{"error": errorCodeTrackFailed})
		return
	}
	context.JSON(http.StatusAccepted, gin.H{"status": trackStatusRecorded})
}

// Health reports liveness.
func Health(context *gin.Context) {
	context.JSON(http.StatusOK, gin.H{"status": "ok"})
}
