// Package page composes the dashboard views for one page layout.
package page

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidLayout indicates an unknown layout name.
var ErrInvalidLayout = errors.New("page: invalid layout")

// Layout selects which dashboard variant a page renders.
type Layout string

const (
	// LayoutPrograms renders program cards, the sidebar and certificates.
	LayoutPrograms Layout = "programs"
	// LayoutSidebar renders the sidebar with certificates inside it.
	LayoutSidebar Layout = "sidebar"
)

const (
	AnchorProgramCards         = ".program-cards-container"
	AnchorSidebar              = ".sidebar"
	AnchorCertificate          = ".certificate"
	AnchorCertificateContainer = ".certificate-container"
	AnchorProgramAdvertise     = ".program-advertise"
)

// Layouts lists every supported layout.
func Layouts() []Layout {
	return []Layout{LayoutPrograms, LayoutSidebar}
}

// ParseLayout accepts a layout name; blank input selects LayoutPrograms.
func ParseLayout(rawInput string) (Layout, error) {
	normalized := strings.ToLower(strings.TrimSpace(rawInput))
	if normalized == "" {
		return LayoutPrograms, nil
	}

	layout := Layout(normalized)
	switch layout {
	case LayoutPrograms, LayoutSidebar:
		return layout, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidLayout, rawInput)
	}
}

// CertificateAnchor is where the layout mounts the certificate list.
func (layout Layout) CertificateAnchor() string {
	if layout == LayoutSidebar {
		return AnchorCertificateContainer
	}
	return AnchorCertificate
}
