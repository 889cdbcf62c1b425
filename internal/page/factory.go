package page

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/analytics"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/dom"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/model"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/view"
)

// Options configures the views a factory builds.
type Options struct {
	Logger   *zap.Logger
	Tracker  analytics.Tracker
	Reflower view.ImageReflower
}

// Result holds the views of one built page.
type Result struct {
	Programs     *view.CollectionListView[*model.Program]
	Sidebar      *view.SidebarView
	Certificates *view.CollectionListView[*model.Certificate]
}

// Factory is the composition root of one page layout.
type Factory struct {
	layout       Layout
	dependencies view.Dependencies
	logger       *zap.Logger
}

// NewFactory normalizes layout and captures options. Unlike ParseLayout it
// rejects a blank layout.
func NewFactory(layout Layout, options Options) (*Factory, error) {
	if strings.TrimSpace(string(layout)) == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLayout, layout)
	}
	normalized, parseErr := ParseLayout(string(layout))
	if parseErr != nil {
		return nil, parseErr
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{
		layout: normalized,
		dependencies: view.Dependencies{
			Tracker:  options.Tracker,
			Reflower: options.Reflower,
			Logger:   logger,
		},
		logger: logger,
	}, nil
}

// Layout returns the factory's layout.
func (factory *Factory) Layout() Layout { return factory.layout }

// Build renders bundle into document for the factory's layout.
func (factory *Factory) Build(document *dom.Document, bundle model.Bundle) (Result, error) {
	var result Result
	programs := bundle.Programs()

	if factory.layout == LayoutPrograms {
		programsView, programsErr := view.NewCollectionListView(document, AnchorProgramCards, programs, view.ProgramCardChild(factory.dependencies)).Render()
		result.Programs = programsView
		if programsErr != nil {
			return result, fmt.Errorf("page: render programs: %w", programsErr)
		}
	}

	result.Sidebar = view.NewSidebarView(document, AnchorSidebar, bundle.Sidebar(), factory.dependencies)
	if sidebarErr := result.Sidebar.Render(); sidebarErr != nil {
		return result, fmt.Errorf("page: render sidebar: %w", sidebarErr)
	}

	certificates, certificatesErr := view.NewCollectionListView(document, factory.layout.CertificateAnchor(), bundle.Certificates(), view.CertificateChild).Render()
	result.Certificates = certificates
	if certificatesErr != nil {
		return result, fmt.Errorf("page: render certificates: %w", certificatesErr)
	}

	factory.logger.Debug("page_built",
		zap.String("layout", string(factory.layout)),
		zap.Int("programs", programs.Len()),
		zap.Int("certificates", len(certificates.Children())),
	)
	return result, nil
}
