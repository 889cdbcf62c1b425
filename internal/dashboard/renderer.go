// Package dashboard renders complete learner dashboard pages.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/analytics"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/bootstrap"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/bundle"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/model"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/notify"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/page"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/transport"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/view"
	"github.com/MarkoPoloResearchLab/learner_dashboard/pkg/footer"
)

const (
	// TitleLoadFailure titles the notification shown when a bundle cannot be read.
	TitleLoadFailure = "We couldn't load your dashboard"
	// MessageLoadFailure is shown with TitleLoadFailure.
	MessageLoadFailure = "Some of your programs or certificates may be missing. Try refreshing the page."

	// ProgramsPagePath serves the programs layout.
	ProgramsPagePath = "/dashboard/programs"
	// SidebarPagePath serves the sidebar layout.
	SidebarPagePath = "/dashboard/sidebar"

	pageTitlePrograms = "Programs"
	pageTitleSidebar  = "Dashboard"

	footerElementID = "dashboard-footer"
	footerBaseClass = "dashboard-footer"
	footerLinkClass = "dashboard-footer__link"
	footerBrandText = "Learner Dashboard"

	errorMessageMissingSource = "dashboard: missing bundle source"
	errorMessageRender        = "dashboard: render page"
)

var (
	// ErrMissingSource indicates a renderer built without a bundle source.
	ErrMissingSource = errors.New(errorMessageMissingSource)
	// ErrRender wraps failures that prevent a page from being produced.
	ErrRender = errors.New(errorMessageRender)
)

// Config wires a renderer.
type Config struct {
	Source     bundle.Source
	Shells     *Shells
	Notifier   *notify.Notifier
	Tracker    analytics.Tracker
	Reflower   view.ImageReflower
	Logger     *zap.Logger
	PathPrefix string
	// TrackEndpoint is the path the page script posts analytics events to.
	TrackEndpoint string
}

// Request describes one page render.
type Request struct {
	Layout    page.Layout
	LearnerID string
	UserAgent string
}

// Renderer turns a learner's bundle into a full HTML page.
type Renderer struct {
	source        bundle.Source
	shells        *Shells
	notifier      *notify.Notifier
	logger        *zap.Logger
	factories     map[page.Layout]*page.Factory
	pathPrefix    string
	trackEndpoint string
	footer        template.HTML
}

// NewRenderer validates config and prepares one factory per layout.
func NewRenderer(config Config) (*Renderer, error) {
	if config.Source == nil {
		return nil, ErrMissingSource
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	shells := config.Shells
	if shells == nil {
		loaded, loadErr := LoadShells("")
		if loadErr != nil {
			return nil, loadErr
		}
		shells = loaded
	}
	notifier := config.Notifier
	if notifier == nil {
		notifier = notify.NewNotifier(nil, logger)
	}
	trackEndpoint := config.TrackEndpoint
	if trackEndpoint == "" {
		trackEndpoint = analytics.DefaultEndpoint
	}

	factories := make(map[page.Layout]*page.Factory, len(page.Layouts()))
	for _, layout := range page.Layouts() {
		factory, factoryErr := page.NewFactory(layout, page.Options{
			Logger:   logger,
			Tracker:  config.Tracker,
			Reflower: config.Reflower,
		})
		if factoryErr != nil {
			return nil, factoryErr
		}
		factories[layout] = factory
	}

	pathPrefix := transport.NormalizePathPrefix(config.PathPrefix)
	footerHTML, footerErr := footer.Render(footer.Config{
		ElementID:   footerElementID,
		BaseClass:   footerBaseClass,
		BrandText:   footerBrandText,
		BrandURL:    pathPrefix + ProgramsPagePath,
		LinkClass:   footerLinkClass,
		CurrentYear: time.Now().Year(),
		Links: []footer.Link{
			{Label: pageTitlePrograms, URL: pathPrefix + ProgramsPagePath},
			{Label: pageTitleSidebar, URL: pathPrefix + SidebarPagePath},
		},
	})
	if footerErr != nil {
		return nil, footerErr
	}

	return &Renderer{
		source:        config.Source,
		shells:        shells,
		notifier:      notifier,
		logger:        logger,
		factories:     factories,
		pathPrefix:    pathPrefix,
		trackEndpoint: trackEndpoint,
		footer:        footerHTML,
	}, nil
}

// Render writes the page for request to writer. A bundle that cannot be
// loaded still produces the page, with the failure shown in its
// notification region.
func (renderer *Renderer) Render(ctx context.Context, request Request, writer io.Writer) error {
	factory, found := renderer.factories[request.Layout]
	if !found {
		return fmt.Errorf("%w: %q", page.ErrInvalidLayout, request.Layout)
	}

	document, shellErr := renderer.shells.Execute(request.Layout, ShellData{
		Title:         renderer.title(request.Layout),
		PathPrefix:    renderer.pathPrefix,
		TrackEndpoint: renderer.trackEndpoint,
		Footer:        renderer.footer,
	})
	if shellErr != nil {
		return fmt.Errorf("%w: %w", ErrRender, shellErr)
	}
	bootstrap.MarkTouchDevice(document, request.UserAgent)

	ctx = notify.WithSurface(ctx, notify.MultiSurface{
		notify.NewDocumentSurface(document, notify.DefaultDocumentAnchor),
		notify.NewLogSurface(renderer.logger),
	})

	learnerBundle, loadErr := renderer.source.Load(ctx, request.LearnerID)
	if loadErr != nil {
		renderer.logger.Warn("bundle_load_failed",
			zap.String("learner_id", request.LearnerID),
			zap.String("layout", string(request.Layout)),
			zap.Error(loadErr),
		)
		// Transport failures were already shown by the failure hook.
		if !errors.Is(loadErr, transport.ErrRequestFailed) {
			renderer.notifier.Notify(ctx, notify.KindError, TitleLoadFailure, MessageLoadFailure)
		}
		learnerBundle = model.Bundle{}
	}

	if _, buildErr := factory.Build(document, learnerBundle); buildErr != nil {
		return fmt.Errorf("%w: %w", ErrRender, buildErr)
	}
	if renderErr := document.Render(writer); renderErr != nil {
		return fmt.Errorf("%w: %w", ErrRender, renderErr)
	}
	return nil
}

func (renderer *Renderer) title(layout page.Layout) string {
	if layout == page.LayoutSidebar {
		return pageTitleSidebar
	}
	return pageTitlePrograms
}
