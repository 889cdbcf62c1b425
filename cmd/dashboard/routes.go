package main

import (
	"net/http"
	"path"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/dashboard"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/httpapi"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/transport"
)

const (
	healthRoute             = "/healthz"
	apiRoutePrefix          = "/api"
	apiRouteTrack           = "/track"
	corsHeaderAccept        = "Accept"
	corsHeaderContentType   = "Content-Type"
	httpMethodGet           = "GET"
	httpMethodOptions       = "OPTIONS"
	httpMethodPost          = "POST"
	corsPreflightCacheHours = 12
)

var (
	corsAllowedMethods = []string{httpMethodPost, httpMethodGet, httpMethodOptions}
	corsAllowedHeaders = []string{corsHeaderAccept, corsHeaderContentType, transport.HeaderCSRFToken}
	corsExposedHeaders = []string{corsHeaderContentType}
)

func buildRouter(serveMode ServeMode, configuration Configuration, components *dashboardComponents, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpapi.RequestLogger(logger))

	if len(configuration.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     configuration.AllowedOrigins,
			AllowMethods:     corsAllowedMethods,
			AllowHeaders:     corsAllowedHeaders,
			ExposeHeaders:    corsExposedHeaders,
			AllowCredentials: true,
			MaxAge:           corsPreflightCacheHours * time.Hour,
		}))
	}

	router.GET(healthRoute, httpapi.Health)

	mounted := router.Group(components.pathPrefix)
	if serveMode.servesPages() {
		dashboardHandlers := httpapi.NewDashboardHandlers(components.renderer, configuration.DefaultLearnerID, logger)
		registerFrontendRoutes(mounted, dashboardHandlers, configuration.SecureCookies)
	}
	if serveMode.servesAPI() {
		trackHandlers := httpapi.NewTrackHandlers(components.tracker, logger)
		bundleHandlers := httpapi.NewBundleHandlers(components.source, logger)
		registerBackendRoutes(mounted, trackHandlers, bundleHandlers)
	}
	return router
}

func registerFrontendRoutes(
	group *gin.RouterGroup,
	dashboardHandlers *httpapi.DashboardHandlers,
	secureCookies bool,
) {
	programsPath := path.Join(group.BasePath(), dashboard.ProgramsPagePath)
	pages := group.Group("", httpapi.IssueCSRFCookie(secureCookies))
	pages.GET("/", func(context *gin.Context) {
		context.Redirect(http.StatusFound, programsPath)
	})
	pages.GET(dashboard.ProgramsPagePath, dashboardHandlers.ProgramsPage)
	pages.GET(dashboard.SidebarPagePath, dashboardHandlers.SidebarPage)
}

func registerBackendRoutes(
	group *gin.RouterGroup,
	trackHandlers *httpapi.TrackHandlers,
	bundleHandlers *httpapi.BundleHandlers,
) {
	apiGroup := group.Group(apiRoutePrefix)
	apiGroup.GET(httpapi.BundleRoutePath, bundleHandlers.Bundle)
	apiGroup.POST(apiRouteTrack, httpapi.CSRFProtection(), trackHandlers.Track)
}
