package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/analytics"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/bootstrap"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/bundle"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/dashboard"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/notify"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/storage"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/task"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/view"
)

const (
	errorContextOpenDatabase = "open_db"
	errorContextAutoMigrate  = "migrate"

	bundleSourceFile     = "file"
	bundleSourceUpstream = "upstream"
	bundleSourceStore    = "store"

	cookieJarSaveInterval = time.Minute
)

// dashboardComponents is the object graph shared by the serve and render
// commands.
type dashboardComponents struct {
	bootstrap  *bootstrap.Bootstrap
	source     bundle.Source
	tracker    analytics.Tracker
	renderer   *dashboard.Renderer
	pathPrefix string
	database   *gorm.DB
	cookies    *task.Scheduler
}

func (components *dashboardComponents) close() {
	if components == nil {
		return
	}
	components.cookies.Stop()
	if components.database == nil {
		return
	}
	if sqlDatabase, sqlErr := components.database.DB(); sqlErr == nil {
		_ = sqlDatabase.Close()
	}
}

func (application *DashboardApplication) buildComponents(configuration Configuration, logger *zap.Logger) (*dashboardComponents, error) {
	shells, shellsErr := dashboard.LoadShells(configuration.ShellsDirectory)
	if shellsErr != nil {
		return nil, shellsErr
	}
	// Routes, the page script and the outbound transport share one prefix.
	pathPrefix := shells.PathPrefix(configuration.PathPrefix)

	dashboardBootstrap, bootstrapErr := bootstrap.New(bootstrap.Settings{
		BaseURL:       configuration.UpstreamURL,
		PathPrefix:    pathPrefix,
		CSRFToken:     configuration.CSRFToken,
		CookieJarPath: configuration.CookieJarPath,
		EmulateHTTP:   configuration.EmulateHTTP,
		Timeout:       configuration.UpstreamTimeout,
	}, notify.NewLogSurface(logger), logger)
	if bootstrapErr != nil {
		return nil, bootstrapErr
	}

	components := &dashboardComponents{
		bootstrap:  dashboardBootstrap,
		pathPrefix: pathPrefix,
	}

	sourceErr := application.openSource(components, configuration, logger)
	if sourceErr != nil {
		return nil, sourceErr
	}

	components.tracker = analytics.NewLogTracker(logger)
	if configuration.ForwardEvents && configuration.UpstreamURL != "" {
		components.tracker = analytics.NewTransportTracker(dashboardBootstrap.Client, analytics.DefaultEndpoint, logger)
	}

	var reflower view.ImageReflower
	if configuration.FallbackBannerURL != "" {
		reflower = view.FallbackBannerReflower{URL: configuration.FallbackBannerURL}
	}

	renderer, rendererErr := dashboard.NewRenderer(dashboard.Config{
		Source:     components.source,
		Shells:     shells,
		Notifier:   dashboardBootstrap.Notifier,
		Tracker:    components.tracker,
		Reflower:   reflower,
		Logger:     logger,
		PathPrefix: components.pathPrefix,
	})
	if rendererErr != nil {
		components.close()
		return nil, rendererErr
	}
	components.renderer = renderer

	if configuration.CookieJarPath != "" {
		components.cookies = task.NewCookieJarPersister(dashboardBootstrap.CookieJar, cookieJarSaveInterval, logger)
		components.cookies.Start(context.Background())
	}
	return components, nil
}

// openSource prefers a bundle file, then the upstream service, then the
// local store.
func (application *DashboardApplication) openSource(components *dashboardComponents, configuration Configuration, logger *zap.Logger) error {
	switch {
	case configuration.BundlePath != "":
		components.source = bundle.NewFileSource(configuration.BundlePath)
		logger.Info("bundle_source_selected", zap.String("kind", bundleSourceFile))
		return nil
	case configuration.UpstreamURL != "":
		components.source = bundle.NewHTTPSource(components.bootstrap.Client, bundle.DefaultEndpointPattern)
		logger.Info("bundle_source_selected", zap.String("kind", bundleSourceUpstream))
		return nil
	}

	database, openErr := application.openStore(configuration)
	if openErr != nil {
		return openErr
	}
	components.database = database
	components.source = bundle.NewStoreSource(storage.NewStore(database))
	logger.Info("bundle_source_selected", zap.String("kind", bundleSourceStore))
	return nil
}

func (application *DashboardApplication) openStore(configuration Configuration) (*gorm.DB, error) {
	database, openErr := application.databaseOpener(storage.Config{
		DriverName:     storage.DriverNameSQLite,
		DataSourceName: configuration.DatabaseDataSourceName,
		Quiet:          true,
	})
	if openErr != nil {
		return nil, fmt.Errorf("%s: %w", errorContextOpenDatabase, openErr)
	}
	if migrateErr := storage.AutoMigrate(database); migrateErr != nil {
		if sqlDatabase, sqlErr := database.DB(); sqlErr == nil {
			_ = sqlDatabase.Close()
		}
		return nil, fmt.Errorf("%s: %w", errorContextAutoMigrate, migrateErr)
	}
	return database, nil
}
