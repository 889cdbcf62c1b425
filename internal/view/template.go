// Package view renders dashboard entities into page anchors.
package view

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"

	"golang.org/x/net/html"

	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/dom"
)

const (
	TemplateProgramCard        = "program_card.tmpl"
	TemplateCertificate        = "certificate.tmpl"
	TemplateExploreNewPrograms = "explore_new_programs.tmpl"
	TemplateSidebar            = "sidebar.tmpl"

	errorMessageUnknownTemplate = "view: unknown template"
	errorMessageExecuteTemplate = "view: execute template"
	errorMessageUnknownPolicy   = "view: unknown insertion policy"
)

var (
	// ErrUnknownTemplate indicates a template name that was not embedded.
	ErrUnknownTemplate = errors.New(errorMessageUnknownTemplate)
	// ErrUnknownPolicy indicates an insertion policy outside Append and Replace.
	ErrUnknownPolicy = errors.New(errorMessageUnknownPolicy)
)

//go:embed templates/*.tmpl
var templateFiles embed.FS

var viewTemplates = template.Must(template.New("views").Option("missingkey=zero").ParseFS(templateFiles, "templates/*.tmpl"))

// RenderTemplate executes the named template against attributes. Missing
// attributes render as empty text.
func RenderTemplate(name string, attributes map[string]any) (string, error) {
	viewTemplate := viewTemplates.Lookup(name)
	if viewTemplate == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	var buffer bytes.Buffer
	if executeErr := viewTemplate.Execute(&buffer, attributes); executeErr != nil {
		return "", fmt.Errorf("%s %s: %w", errorMessageExecuteTemplate, name, executeErr)
	}
	return buffer.String(), nil
}

// Policy decides how rendered markup lands in a view's root element.
type Policy int

const (
	// PolicyAppend adds the markup after the root's existing children.
	PolicyAppend Policy = iota
	// PolicyReplace overwrites the root's content.
	PolicyReplace
)

func (policy Policy) String() string {
	switch policy {
	case PolicyAppend:
		return "append"
	case PolicyReplace:
		return "replace"
	default:
		return "unknown"
	}
}

func (policy Policy) apply(root *html.Node, markup string) error {
	switch policy {
	case PolicyAppend:
		return dom.AppendHTML(root, markup)
	case PolicyReplace:
		return dom.ReplaceHTML(root, markup)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownPolicy, int(policy))
	}
}
