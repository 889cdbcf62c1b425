package httpapi

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/dashboard"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/page"
)

const (
	dashboardHTMLContentType = "text/html; charset=utf-8"
	learnerQueryParameter    = "learner"
	errorCodeRenderFailed    = "render_failed"
	errorCodeMissingLearner  = "missing_learner"
)

type pageRenderer interface {
	Render(ctx context.Context, request dashboard.Request, writer io.Writer) error
}

// DashboardHandlers serves the dashboard page layouts.
type DashboardHandlers struct {
	renderer         pageRenderer
	defaultLearnerID string
	logger           *zap.Logger
}

// NewDashboardHandlers renders pages for the learner named by the learner
// query parameter, or defaultLearnerID when absent.
func NewDashboardHandlers(renderer pageRenderer, defaultLearnerID string, logger *zap.Logger) *DashboardHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandlers{
		renderer:         renderer,
		defaultLearnerID: strings.TrimSpace(defaultLearnerID),
		logger:           logger,
	}
}

// ProgramsPage renders the programs layout.
func (handlers *DashboardHandlers) ProgramsPage(context *gin.Context) {
	handlers.renderLayout(context, page.LayoutPrograms)
}

// SidebarPage renders the sidebar layout.
func (handlers *DashboardHandlers) SidebarPage(context *gin.Context) {
	handlers.renderLayout(context, page.LayoutSidebar)
}

func (handlers *DashboardHandlers) renderLayout(context *gin.Context, layout page.Layout) {
	learnerID := strings.TrimSpace(context.Query(learnerQueryParameter))
	if learnerID == "" {
		learnerID = handlers.defaultLearnerID
	}
	if learnerID == "" {
		context.JSON(http.StatusBadRequest, gin.H{"error": errorCodeMissingLearner})
		return
	}

	var buffer bytes.Buffer
	renderErr := handlers.renderer.Render(context.Request.Context(), dashboard.Request{
		Layout:    layout,
		LearnerID: learnerID,
		UserAgent: context.Request.UserAgent(),
	}, &buffer)
	if renderErr != nil {
		handlers.logger.Error("dashboard_render_failed",
			zap.String("layout", string(layout)),
			zap.String("learner_id", learnerID),
			zap.Error(renderErr),
		)
		context.JSON(http.StatusInternalServerError, gin.H{"error": errorCodeRenderFailed})
		return
	}
	context.Data(http.StatusOK, dashboardHTMLContentType, buffer.Bytes())
}
