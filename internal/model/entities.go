// Package model holds the read-only dashboard entities built from the data
// bundle payloads.
package model

import "strings"

const (
	programFieldID             = "id"
	programFieldName           = "name"
	programFieldSubtitle       = "subtitle"
	programFieldCategory       = "category"
	programFieldMarketingURL   = "marketing_url"
	programFieldBannerImages   = "banner_image_urls"
	programFieldBannerImageURL = "banner_image_url"
	programFieldOrganizations  = "organizations"

	// ProgramBannerImageSize selects the card-sized banner rendition.
	ProgramBannerImageSize = "w348h116"

	certificateFieldDisplayName   = "display_name"
	certificateFieldCredentialURL = "credential_url"
	certificateFieldURL           = "url"

	sidebarFieldXSeriesURL   = "xseriesUrl"
	sidebarFieldXSeriesImage = "xseriesImage"
)

// Entity exposes the flat attribute mapping templates render against.
type Entity interface {
	Attributes() map[string]any
}

type organizationPayload struct {
	DisplayName string `mapstructure:"display_name"`
	Key         string `mapstructure:"key"`
}

// Program is one program the learner is enrolled in.
type Program struct {
	id             *int64
	name           string
	subtitle       string
	category       string
	marketingURL   string
	bannerImageURL string
	organizations  []string
}

// NewProgram copies the recognized program fields from raw.
func NewProgram(raw map[string]any) *Program {
	program := &Program{}
	if raw == nil {
		return program
	}

	var identifier int64
	if decodeField(raw, programFieldID, &identifier) {
		program.id = &identifier
	}
	program.name = decodeString(raw, programFieldName)
	program.subtitle = decodeString(raw, programFieldSubtitle)
	program.category = decodeString(raw, programFieldCategory)
	program.marketingURL = decodeString(raw, programFieldMarketingURL)

	var bannerImages map[string]string
	if decodeField(raw, programFieldBannerImages, &bannerImages) {
		program.bannerImageURL = strings.TrimSpace(bannerImages[ProgramBannerImageSize])
	}

	var organizations []organizationPayload
	if decodeField(raw, programFieldOrganizations, &organizations) {
		for _, organization := range organizations {
			displayName := strings.TrimSpace(organization.DisplayName)
			if displayName == "" {
				displayName = strings.TrimSpace(organization.Key)
			}
			if displayName != "" {
				program.organizations = append(program.organizations, displayName)
			}
		}
	}
	return program
}

// ID returns the program identifier when the payload carried one.
func (program *Program) ID() (int64, bool) {
	if program.id == nil {
		return 0, false
	}
	return *program.id, true
}

// Name returns the program title.
func (program *Program) Name() string { return program.name }

// Subtitle returns the program subtitle, possibly empty.
func (program *Program) Subtitle() string { return program.subtitle }

// Category returns the program type, e.g. XSeries.
func (program *Program) Category() string { return program.category }

// MarketingURL returns the program's marketing page.
func (program *Program) MarketingURL() string { return program.marketingURL }

// BannerImageURL returns the card banner image, possibly empty.
func (program *Program) BannerImageURL() string { return program.bannerImageURL }

// Organizations returns a copy of the organization display names.
func (program *Program) Organizations() []string {
	return append([]string(nil), program.organizations...)
}

// Attributes returns a fresh mapping; absent optional fields are omitted.
func (program *Program) Attributes() map[string]any {
	attributes := map[string]any{
		programFieldName:           program.name,
		programFieldSubtitle:       program.subtitle,
		programFieldCategory:       program.category,
		programFieldMarketingURL:   program.marketingURL,
		programFieldBannerImageURL: program.bannerImageURL,
		programFieldOrganizations:  program.Organizations(),
	}
	if program.id != nil {
		attributes[programFieldID] = *program.id
	}
	return attributes
}

// Certificate is one credential the learner earned.
type Certificate struct {
	displayName string
	url         string
}

// NewCertificate copies display_name and credential_url from raw.
func NewCertificate(raw map[string]any) *Certificate {
	if raw == nil {
		return &Certificate{}
	}
	return &Certificate{
		displayName: decodeString(raw, certificateFieldDisplayName),
		url:         decodeString(raw, certificateFieldCredentialURL),
	}
}

// DisplayName returns the certificate title.
func (certificate *Certificate) DisplayName() string { return certificate.displayName }

// URL returns the credential link.
func (certificate *Certificate) URL() string { return certificate.url }

// Attributes returns the normalized certificate fields.
func (certificate *Certificate) Attributes() map[string]any {
	return map[string]any{
		certificateFieldDisplayName: certificate.displayName,
		certificateFieldURL:         certificate.url,
	}
}

// SidebarContext carries the sidebar's optional call-to-action data.
type SidebarContext struct {
	xseriesURL   string
	xseriesImage string
}

// NewSidebarContext copies xseriesUrl and xseriesImage from raw.
func NewSidebarContext(raw map[string]any) *SidebarContext {
	if raw == nil {
		return &SidebarContext{}
	}
	return &SidebarContext{
		xseriesURL:   strings.TrimSpace(decodeString(raw, sidebarFieldXSeriesURL)),
		xseriesImage: strings.TrimSpace(decodeString(raw, sidebarFieldXSeriesImage)),
	}
}

// XSeriesURL returns the explore call-to-action link.
func (context *SidebarContext) XSeriesURL() string { return context.xseriesURL }

// XSeriesImage returns the explore call-to-action image.
func (context *SidebarContext) XSeriesImage() string { return context.xseriesImage }

// HasXSeriesLink reports whether the explore call-to-action can render.
func (context *SidebarContext) HasXSeriesLink() bool {
	return context.xseriesURL != ""
}

// Attributes returns the sidebar fields under their payload names.
func (context *SidebarContext) Attributes() map[string]any {
	return map[string]any{
		sidebarFieldXSeriesURL:   context.xseriesURL,
		sidebarFieldXSeriesImage: context.xseriesImage,
	}
}
