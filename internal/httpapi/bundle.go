package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/bundle"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/storage"
)

const (
	// BundleRoutePath serves stored bundles in the shape the dashboard fetches.
	BundleRoutePath = "/learner_dashboard/:learner/bundle"

	learnerPathParameter      = "learner"
	errorCodeLearnerNotFound  = "learner_not_found"
	errorCodeBundleLoadFailed = "bundle_load_failed"
)

// BundleHandlers exposes learner bundles as JSON.
type BundleHandlers struct {
	source bundle.Source
	logger *zap.Logger
}

// NewBundleHandlers serves bundles loaded from source.
func NewBundleHandlers(source bundle.Source, logger *zap.Logger) *BundleHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BundleHandlers{source: source, logger: logger}
}

// Bundle answers {programsData, certificatesData, sidebarContext}.
func (handlers *BundleHandlers) Bundle(context *gin.Context) {
	learnerID := strings.TrimSpace(context.Param(learnerPathParameter))
	if learnerID == "" {
		context.JSON(http.StatusBadRequest, gin.H{"error": errorCodeMissingLearner})
		return
	}

	learnerBundle, loadErr := handlers.source.Load(context.Request.Context(), learnerID)
	switch {
	case loadErr == nil:
		context.JSON(http.StatusOK, learnerBundle)
	case errors.Is(loadErr, bundle.ErrLearnerNotFound), errors.Is(loadErr, storage.ErrLearnerNotFound):
		context.JSON(http.StatusNotFound, gin.H{"error": errorCodeLearnerNotFound})
	case errors.Is(loadErr, storage.ErrMissingLearnerID):
		context.JSON(http.StatusBadRequest, gin.H{"error": errorCodeMissingLearner})
	default:
		handlers.logger.Error("bundle_load_failed", zap.String("learner_id", learnerID), zap.Error(loadErr))
		context.JSON(http.StatusInternalServerError, gin.H{"error": errorCodeBundleLoadFailed})
	}
}
