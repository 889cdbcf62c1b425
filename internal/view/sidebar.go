package view

import (
	"context"
	"fmt"

	"golang.org/x/net/html"

	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/analytics"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/dom"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/model"
)

const (
	SidebarSelector          = ".sidebar"
	ProgramAdvertiseSelector = ".program-advertise"
)

// ExploreProgramsView fills the program-advertise region. Without an XSeries
// URL it removes that region from the document instead of rendering.
type ExploreProgramsView struct {
	*EntityView[*model.SidebarContext]
	dependencies Dependencies
	removed      bool
}

// NewExploreProgramsView binds context to an existing anchor element.
func NewExploreProgramsView(anchor *html.Node, sidebarContext *model.SidebarContext, dependencies Dependencies) *ExploreProgramsView {
	return &ExploreProgramsView{
		EntityView:   NewEntityView(sidebarContext, anchor, TemplateExploreNewPrograms, PolicyReplace),
		dependencies: dependencies.normalized(),
	}
}

// Render fills the call-to-action, or removes its root when the sidebar
// context has no XSeries link.
func (exploreView *ExploreProgramsView) Render() error {
	if !exploreView.Entity().HasXSeriesLink() {
		dom.Remove(exploreView.Root())
		exploreView.removed = true
		return nil
	}
	return exploreView.EntityView.Render()
}

// Removed reports whether Render took the anchor out of the document.
func (exploreView *ExploreProgramsView) Removed() bool { return exploreView.removed }

// LinkClicked records that the learner followed the explore link.
func (exploreView *ExploreProgramsView) LinkClicked(ctx context.Context) error {
	return exploreView.dependencies.Tracker.Track(ctx, ExploreProgramsClicked())
}

// ExploreProgramsClicked is the analytics event for the explore link.
func ExploreProgramsClicked() analytics.Event {
	return analytics.Event{
		Name:       analytics.EventFindXSeriesLinkClicked,
		Properties: map[string]any{analytics.PropertyCategory: analytics.CategoryProgramsListing},
	}
}

// SidebarView replaces the sidebar anchor and composes the explore view into
// the region its template produced.
type SidebarView struct {
	document       *dom.Document
	selector       string
	sidebarContext *model.SidebarContext
	dependencies   Dependencies
	root           *html.Node
	explore        *ExploreProgramsView
}

// NewSidebarView targets selector, SidebarSelector when empty.
func NewSidebarView(document *dom.Document, selector string, sidebarContext *model.SidebarContext, dependencies Dependencies) *SidebarView {
	if selector == "" {
		selector = SidebarSelector
	}
	if sidebarContext == nil {
		sidebarContext = model.NewSidebarContext(nil)
	}
	return &SidebarView{document: document, selector: selector, sidebarContext: sidebarContext, dependencies: dependencies.normalized()}
}

// Render fills the sidebar anchor, then renders the explore call-to-action
// into its .program-advertise element.
func (sidebarView *SidebarView) Render() error {
	anchor, queryErr := sidebarView.document.QueryOne(sidebarView.selector)
	if queryErr != nil {
		return fmt.Errorf("%w: %s", ErrAnchorNotFound, sidebarView.selector)
	}
	sidebarView.root = anchor

	markup, renderErr := RenderTemplate(TemplateSidebar, sidebarView.sidebarContext.Attributes())
	if renderErr != nil {
		return renderErr
	}
	if applyErr := PolicyReplace.apply(anchor, markup); applyErr != nil {
		return applyErr
	}

	advertise, advertiseErr := dom.QueryOneWithin(anchor, ProgramAdvertiseSelector)
	if advertiseErr != nil {
		return fmt.Errorf("%w: %s", ErrAnchorNotFound, ProgramAdvertiseSelector)
	}
	sidebarView.explore = NewExploreProgramsView(advertise, sidebarView.sidebarContext, sidebarView.dependencies)
	return sidebarView.explore.Render()
}

// Root is nil until Render located the anchor.
func (sidebarView *SidebarView) Root() *html.Node { return sidebarView.root }

// Explore returns the composed explore view after Render.
func (sidebarView *SidebarView) Explore() *ExploreProgramsView { return sidebarView.explore }
