package view

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/net/html"

	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/analytics"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/dom"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/model"
)

const testShellMarkup = `<!DOCTYPE html>
<html><body>
<div class="program-cards-container"></div>
<aside class="sidebar"><p>loading</p></aside>
<div class="certificate"></div>
</body></html>`

type recordingTracker struct {
	events []analytics.Event
}

func (tracker *recordingTracker) Track(_ context.Context, event analytics.Event) error {
	tracker.events = append(tracker.events, event)
	return nil
}

type failingReflower struct {
	calls int
}

func (reflower *failingReflower) Reflow(*html.Node) error {
	reflower.calls++
	return errors.New("reflow unavailable")
}

func parseShell(testingT *testing.T) *dom.Document {
	testingT.Helper()
	document, parseErr := dom.ParseString(testShellMarkup)
	require.NoError(testingT, parseErr)
	return document
}

func sampleProgram(name string, bannerURL string) *model.Program {
	raw := map[string]any{
		"id":            float64(7),
		"name":          name,
		"subtitle":      "Subtitle",
		"category":      "xseries",
		"marketing_url": "https://example.com/programs/" + strings.ToLower(name),
		"organizations": []any{map[string]any{"display_name": "HarvardX"}},
	}
	if bannerURL != "" {
		raw["banner_image_urls"] = map[string]any{model.ProgramBannerImageSize: bannerURL}
	}
	return model.NewProgram(raw)
}

func TestCollectionListViewRendersOneChildPerEntity(testingT *testing.T) {
	document := parseShell(testingT)
	certificates := model.NewCertificates([]map[string]any{
		{"display_name": "Go Basics", "credential_url": "https://example.com/c/1"},
		{"display_name": "Go Basics"},
		{"display_name": "Concurrency", "credential_url": "https://example.com/c/2"},
	})

	listView, renderErr := NewCollectionListView(document, ".certificate", certificates, CertificateChild).Render()
	require.NoError(testingT, renderErr)
	require.Len(testingT, listView.Children(), certificates.Len())

	anchor, _ := document.QueryOne(".certificate")
	require.Len(testingT, dom.ChildElements(anchor), certificates.Len())

	items, _ := document.Query(".certificate .certificate-item")
	require.Len(testingT, items, 3)
	links, _ := document.Query(".certificate a.certificate-link")
	require.Len(testingT, links, 2)
	href, _ := dom.Attr(links[0], "href")
	require.Equal(testingT, "https://example.com/c/1", href)
}

func TestCollectionListViewWithEmptyCollectionLeavesAnchorEmpty(testingT *testing.T) {
	document := parseShell(testingT)

	listView, renderErr := NewCollectionListView(document, ".certificate", model.NewCertificates(nil), CertificateChild).Render()
	require.NoError(testingT, renderErr)
	require.Empty(testingT, listView.Children())

	anchor, _ := document.QueryOne(".certificate")
	require.Empty(testingT, dom.ChildElements(anchor))
}

func TestCollectionListViewRenderTwiceDuplicates(testingT *testing.T) {
	document := parseShell(testingT)
	certificates := model.NewCertificates([]map[string]any{{"display_name": "A"}, {"display_name": "B"}})
	listView := NewCollectionListView(document, ".certificate", certificates, CertificateChild)

	_, firstErr := listView.Render()
	require.NoError(testingT, firstErr)
	_, secondErr := listView.Render()
	require.NoError(testingT, secondErr)

	anchor, _ := document.QueryOne(".certificate")
	require.Len(testingT, dom.ChildElements(anchor), 4)
	require.Len(testingT, listView.Children(), 2)
}

func TestCollectionListViewReportsMissingAnchor(testingT *testing.T) {
	document := parseShell(testingT)

	_, renderErr := NewCollectionListView(document, ".missing", model.NewCertificates(nil), CertificateChild).Render()
	require.ErrorIs(testingT, renderErr, ErrAnchorNotFound)
}

func TestProgramCardsKeepPayloadOrderAndReplaceContent(testingT *testing.T) {
	document := parseShell(testingT)
	programs := model.CollectionOf(sampleProgram("Zeta", "https://example.com/z.jpg"), sampleProgram("Alpha", ""))

	_, renderErr := NewCollectionListView(document, ".program-cards-container", programs, ProgramCardChild(Dependencies{})).Render()
	require.NoError(testingT, renderErr)

	cards, _ := document.Query(".program-cards-container .program-card.js-program-card")
	require.Len(testingT, cards, 2)
	programID, _ := dom.Attr(cards[0], "data-program-id")
	require.Equal(testingT, "7", programID)
	titles, _ := document.Query(".program-card .title")
	require.Len(testingT, titles, 2)
	require.Contains(testingT, renderNode(testingT, titles[0]), "Zeta")
	require.Contains(testingT, renderNode(testingT, titles[1]), "Alpha")

	cardView := NewProgramCardView(sampleProgram("Once", ""), Dependencies{})
	require.NoError(testingT, cardView.Render())
	require.NoError(testingT, cardView.Render())
	inner, _ := dom.QueryWithin(cardView.Root(), ".program_card")
	require.Len(testingT, inner, 1)
}

func TestCertificateViewAppendsOnEachRender(testingT *testing.T) {
	certificateView := NewCertificateView(model.NewCertificate(map[string]any{"display_name": "A"}))
	require.Equal(testingT, PolicyAppend, certificateView.Policy())

	require.NoError(testingT, certificateView.Render())
	require.NoError(testingT, certificateView.Render())
	require.Len(testingT, dom.ChildElements(certificateView.Root()), 2)
}

func TestProgramCardMissingFieldsRenderEmpty(testingT *testing.T) {
	cardView := NewProgramCardView(model.NewProgram(map[string]any{}), Dependencies{})
	require.NoError(testingT, cardView.Render())

	markup := renderNode(testingT, cardView.Root())
	require.NotContains(testingT, markup, "no value")
	require.NotContains(testingT, markup, "subtitle")
	image, queryErr := dom.QueryOneWithin(cardView.Root(), ".banner-image")
	require.NoError(testingT, queryErr)
	_, hasSource := dom.Attr(image, "src")
	require.False(testingT, hasSource)
}

func TestProgramCardReflowFailureIsIgnored(testingT *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	reflower := &failingReflower{}
	cardView := NewProgramCardView(sampleProgram("NoBanner", ""), Dependencies{Reflower: reflower, Logger: zap.New(core)})

	require.NoError(testingT, cardView.Render())
	require.Equal(testingT, 1, reflower.calls)
	require.Equal(testingT, 1, logs.FilterMessage("banner_reflow_failed").Len())
}

func TestProgramCardReflowSkipsBannerWithSource(testingT *testing.T) {
	reflower := &failingReflower{}
	cardView := NewProgramCardView(sampleProgram("Banner", "https://example.com/b.jpg"), Dependencies{Reflower: reflower})

	require.NoError(testingT, cardView.Render())
	require.Zero(testingT, reflower.calls)
}

func TestFallbackBannerReflowerSetsSource(testingT *testing.T) {
	cardView := NewProgramCardView(sampleProgram("NoBanner", ""), Dependencies{Reflower: FallbackBannerReflower{URL: "https://example.com/fallback.jpg"}})
	require.NoError(testingT, cardView.Render())

	image, _ := dom.QueryOneWithin(cardView.Root(), ".banner-image")
	source, _ := dom.Attr(image, "src")
	require.Equal(testingT, "https://example.com/fallback.jpg", source)

	require.ErrorIs(testingT, FallbackBannerReflower{}.Reflow(image), ErrNoFallbackImage)
}

func TestProgramCardLinkClickedTracksEvent(testingT *testing.T) {
	tracker := &recordingTracker{}
	cardView := NewProgramCardView(sampleProgram("Data", ""), Dependencies{Tracker: tracker})

	require.NoError(testingT, cardView.LinkClicked(context.Background()))
	require.Len(testingT, tracker.events, 1)
	require.Equal(testingT, analytics.EventProgramCardClicked, tracker.events[0].Name)
	require.Equal(testingT, "Data", tracker.events[0].Properties[analytics.PropertyLabel])
	require.Equal(testingT, int64(7), tracker.events[0].Properties[analytics.PropertyProgramID])
	require.Equal(testingT, analytics.CategoryProgramsListing, tracker.events[0].Properties[analytics.PropertyCategory])
}

func TestSidebarViewRendersExploreWhenLinkPresent(testingT *testing.T) {
	document := parseShell(testingT)
	tracker := &recordingTracker{}
	sidebarContext := model.NewSidebarContext(map[string]any{
		"xseriesUrl":   "https://example.com/xseries",
		"xseriesImage": "https://example.com/xseries.png",
	})

	sidebarView := NewSidebarView(document, "", sidebarContext, Dependencies{Tracker: tracker})
	require.NoError(testingT, sidebarView.Render())
	require.False(testingT, sidebarView.Explore().Removed())

	require.NotContains(testingT, document.String(), "loading")
	link, queryErr := document.QueryOne(".sidebar .program-advertise .js-explore-programs")
	require.NoError(testingT, queryErr)
	href, _ := dom.Attr(link, "href")
	require.Equal(testingT, "https://example.com/xseries", href)
	_, containerErr := document.QueryOne(".sidebar .certificate-container")
	require.NoError(testingT, containerErr)

	require.NoError(testingT, sidebarView.Explore().LinkClicked(context.Background()))
	require.Equal(testingT, analytics.EventFindXSeriesLinkClicked, tracker.events[0].Name)
}

func TestSidebarViewRemovesExploreWithoutLink(testingT *testing.T) {
	document := parseShell(testingT)

	sidebarView := NewSidebarView(document, "", model.NewSidebarContext(map[string]any{}), Dependencies{})
	require.NoError(testingT, sidebarView.Render())

	require.True(testingT, sidebarView.Explore().Removed())
	require.False(testingT, dom.Attached(sidebarView.Explore().Root()))
	advertise, _ := document.Query(".program-advertise")
	require.Empty(testingT, advertise)
	_, containerErr := document.QueryOne(".sidebar .certificate-container")
	require.NoError(testingT, containerErr)
}

func TestSidebarViewReportsMissingAnchor(testingT *testing.T) {
	document, _ := dom.ParseString(`<html><body></body></html>`)
	require.ErrorIs(testingT, NewSidebarView(document, "", nil, Dependencies{}).Render(), ErrAnchorNotFound)
}

func TestRenderTemplateRejectsUnknownName(testingT *testing.T) {
	_, renderErr := RenderTemplate("missing.tmpl", nil)
	require.ErrorIs(testingT, renderErr, ErrUnknownTemplate)
}

func renderNode(testingT *testing.T, node *html.Node) string {
	testingT.Helper()
	markup, renderErr := dom.OuterHTML(node)
	require.NoError(testingT, renderErr)
	return markup
}
