package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const errorMessageDecodeBundle = "model: decode bundle"

// ErrInvalidBundle indicates a payload that is not a bundle object.
var ErrInvalidBundle = errors.New(errorMessageDecodeBundle)

// Bundle is the data a dashboard page renders from.
type Bundle struct {
	ProgramsData     []map[string]any `json:"programsData"`
	CertificatesData []map[string]any `json:"certificatesData"`
	SidebarContext   map[string]any   `json:"sidebarContext"`
}

// DecodeBundle parses a bundle document. Absent arrays decode as empty.
func DecodeBundle(reader io.Reader) (Bundle, error) {
	var bundle Bundle
	if decodeErr := json.NewDecoder(reader).Decode(&bundle); decodeErr != nil {
		return Bundle{}, fmt.Errorf("%w: %v", ErrInvalidBundle, decodeErr)
	}
	return bundle, nil
}

// Programs builds the program collection of the bundle.
func (bundle Bundle) Programs() *Collection[*Program] {
	return NewPrograms(bundle.ProgramsData)
}

// Certificates builds the certificate collection of the bundle.
func (bundle Bundle) Certificates() *Collection[*Certificate] {
	return NewCertificates(bundle.CertificatesData)
}

// Sidebar builds the sidebar context of the bundle.
func (bundle Bundle) Sidebar() *SidebarContext {
	return NewSidebarContext(bundle.SidebarContext)
}
