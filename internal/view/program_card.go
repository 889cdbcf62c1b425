package view

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/analytics"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/dom"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/model"
)

const (
	// ProgramCardClass is the class list of every program card root.
	ProgramCardClass = "program-card js-program-card"

	bannerImageSelector = ".program_card .banner-image"
	imageSourceAttr     = "src"
	programIDAttr       = "data-program-id"

	errorMessageNoFallbackImage = "view: no fallback banner image configured"
)

// ErrNoFallbackImage is returned by a FallbackBannerReflower without a URL.
var ErrNoFallbackImage = errors.New(errorMessageNoFallbackImage)

// ImageReflower repairs a banner image that rendered without a source.
type ImageReflower interface {
	Reflow(image *html.Node) error
}

// FallbackBannerReflower points a source-less banner at a fixed image.
type FallbackBannerReflower struct {
	URL string
}

// Reflow points image at the fallback banner.
func (reflower FallbackBannerReflower) Reflow(image *html.Node) error {
	fallbackURL := strings.TrimSpace(reflower.URL)
	if fallbackURL == "" {
		return ErrNoFallbackImage
	}
	if image == nil {
		return dom.ErrNilNode
	}
	dom.SetAttr(image, imageSourceAttr, fallbackURL)
	return nil
}

// ProgramCardView replaces the content of its card root with one program.
type ProgramCardView struct {
	*EntityView[*model.Program]
	dependencies Dependencies
}

// NewProgramCardView builds the card without rendering it.
func NewProgramCardView(program *model.Program, dependencies Dependencies) *ProgramCardView {
	return &ProgramCardView{
		EntityView:   NewEntityView(program, dom.NewElement("div", ProgramCardClass), TemplateProgramCard, PolicyReplace),
		dependencies: dependencies.normalized(),
	}
}

// Render renders the card and then attempts the banner reflow. Reflow
// errors never fail the render.
func (cardView *ProgramCardView) Render() error {
	if renderErr := cardView.EntityView.Render(); renderErr != nil {
		return renderErr
	}
	if identifier, found := cardView.Entity().ID(); found {
		dom.SetAttr(cardView.Root(), programIDAttr, strconv.FormatInt(identifier, 10))
	}
	cardView.reflowBanner()
	return nil
}

func (cardView *ProgramCardView) reflowBanner() {
	if cardView.dependencies.Reflower == nil {
		return
	}
	image, queryErr := dom.QueryOneWithin(cardView.Root(), bannerImageSelector)
	if queryErr != nil {
		return
	}
	if source, found := dom.Attr(image, imageSourceAttr); found && strings.TrimSpace(source) != "" {
		return
	}
	if reflowErr := cardView.dependencies.Reflower.Reflow(image); reflowErr != nil {
		cardView.dependencies.Logger.Debug("banner_reflow_failed",
			zap.String("program", cardView.Entity().Name()),
			zap.Error(reflowErr),
		)
	}
}

// LinkClicked records that the learner followed the card link.
func (cardView *ProgramCardView) LinkClicked(ctx context.Context) error {
	return cardView.dependencies.Tracker.Track(ctx, ProgramCardClicked(cardView.Entity()))
}

// ProgramCardClicked is the analytics event for following a program card.
func ProgramCardClicked(program *model.Program) analytics.Event {
	properties := map[string]any{
		analytics.PropertyCategory: analytics.CategoryProgramsListing,
		analytics.PropertyLabel:    program.Name(),
	}
	if identifier, found := program.ID(); found {
		properties[analytics.PropertyProgramID] = identifier
	}
	return analytics.Event{Name: analytics.EventProgramCardClicked, Properties: properties}
}
