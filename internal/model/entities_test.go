package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewProgramNormalizesRecognizedFields(testingT *testing.T) {
	program := NewProgram(map[string]any{
		"id":            float64(42),
		"name":          "Data Science",
		"subtitle":      "Learn the basics",
		"category":      "xseries",
		"marketing_url": "https://example.com/xseries/data-science",
		"banner_image_urls": map[string]any{
			"w348h116":  "https://example.com/banner-small.jpg",
			"w1440h480": "https://example.com/banner-large.jpg",
		},
		"organizations": []any{
			map[string]any{"display_name": "HarvardX", "key": "HarvardX"},
			map[string]any{"key": "MITx"},
		},
		"status": "active",
	})

	identifier, found := program.ID()
	require.True(testingT, found)
	require.Equal(testingT, int64(42), identifier)
	require.Equal(testingT, "Data Science", program.Name())
	require.Equal(testingT, "https://example.com/banner-small.jpg", program.BannerImageURL())
	require.Equal(testingT, []string{"HarvardX", "MITx"}, program.Organizations())

	attributes := program.Attributes()
	require.NotContains(testingT, attributes, "status")
	require.Equal(testingT, int64(42), attributes["id"])
	require.Equal(testingT, "https://example.com/xseries/data-science", attributes["marketing_url"])
}

func TestNewProgramDropsMissingAndMistypedFields(testingT *testing.T) {
	program := NewProgram(map[string]any{
		"name":          map[string]any{"unexpected": true},
		"organizations": "not a list",
	})

	_, found := program.ID()
	require.False(testingT, found)
	require.Empty(testingT, program.Name())
	require.Empty(testingT, program.Organizations())
	require.NotContains(testingT, program.Attributes(), "id")
}

func TestProgramAttributesReturnFreshMapping(testingT *testing.T) {
	program := NewProgram(map[string]any{"name": "Original"})

	attributes := program.Attributes()
	attributes["name"] = "Changed"

	require.Equal(testingT, "Original", program.Name())
	require.Equal(testingT, "Original", program.Attributes()["name"])
}

func TestNewCertificateMapsCredentialURL(testingT *testing.T) {
	certificate := NewCertificate(map[string]any{
		"display_name":   "Intro to Go",
		"credential_url": "https://example.com/certificates/1",
		"grade":          "0.98",
	})

	require.Equal(testingT, map[string]any{
		"display_name": "Intro to Go",
		"url":          "https://example.com/certificates/1",
	}, certificate.Attributes())
}

func TestNewSidebarContextReportsXSeriesLink(testingT *testing.T) {
	require.True(testingT, NewSidebarContext(map[string]any{"xseriesUrl": "https://example.com/xseries"}).HasXSeriesLink())
	require.False(testingT, NewSidebarContext(map[string]any{"xseriesUrl": "  "}).HasXSeriesLink())
	require.False(testingT, NewSidebarContext(nil).HasXSeriesLink())
}

func TestCollectionKeepsPayloadOrderWithoutDeduplication(testingT *testing.T) {
	raws := []map[string]any{
		{"display_name": "B"},
		{"display_name": "A"},
		{"display_name": "B"},
	}

	certificates := NewCertificates(raws)

	require.Equal(testingT, len(raws), certificates.Len())
	var names []string
	for _, certificate := range certificates.Items() {
		names = append(names, certificate.DisplayName())
	}
	require.Equal(testingT, []string{"B", "A", "B"}, names)
}

func TestCollectionFromAbsentInputIsEmpty(testingT *testing.T) {
	require.Zero(testingT, NewPrograms(nil).Len())
	require.Zero(testingT, NewCertificates([]map[string]any{}).Len())

	var missing *Collection[*Program]
	require.Zero(testingT, missing.Len())
	require.Nil(testingT, missing.Items())
}

func TestDecodeBundleAcceptsAbsentArrays(testingT *testing.T) {
	bundle, decodeErr := DecodeBundle(strings.NewReader(`{"sidebarContext":{"xseriesUrl":"https://example.com/x"}}`))
	require.NoError(testingT, decodeErr)

	require.Zero(testingT, bundle.Programs().Len())
	require.Zero(testingT, bundle.Certificates().Len())
	require.Equal(testingT, "https://example.com/x", bundle.Sidebar().XSeriesURL())
}

func TestDecodeBundleRejectsMalformedJSON(testingT *testing.T) {
	_, decodeErr := DecodeBundle(strings.NewReader(`[1,2,3]`))
	require.ErrorIs(testingT, decodeErr, ErrInvalidBundle)
}
