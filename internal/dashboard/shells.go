package dashboard

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"strings"

	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/bootstrap"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/dom"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/page"
)

const (
	shellBaseFile     = "base.html"
	shellTemplateName = "shell"

	errorMessageLoadShell    = "dashboard: load page shell"
	errorMessageExecuteShell = "dashboard: execute page shell"
)

//go:embed shells/*.html
var embeddedShells embed.FS

// ShellData is what a page shell renders with before the views run.
type ShellData struct {
	Title         string
	PathPrefix    string
	TrackEndpoint string
	BodyClass     string
	Footer        template.HTML
}

// Shells holds one parsed page shell per layout.
type Shells struct {
	templates map[page.Layout]*template.Template
}

// LoadShells parses base.html plus <layout>.html for every layout from
// directory, or from the embedded shells when directory is empty.
func LoadShells(directory string) (*Shells, error) {
	var files fs.FS
	if trimmed := strings.TrimSpace(directory); trimmed != "" {
		files = os.DirFS(trimmed)
	} else {
		subtree, subErr := fs.Sub(embeddedShells, "shells")
		if subErr != nil {
			return nil, fmt.Errorf("%s: %w", errorMessageLoadShell, subErr)
		}
		files = subtree
	}

	shells := &Shells{templates: make(map[page.Layout]*template.Template, len(page.Layouts()))}
	for _, layout := range page.Layouts() {
		parsed, parseErr := template.ParseFS(files, shellBaseFile, string(layout)+".html")
		if parseErr != nil {
			return nil, fmt.Errorf("%s %s: %w", errorMessageLoadShell, layout, parseErr)
		}
		shells.templates[layout] = parsed
	}
	return shells, nil
}

// Execute renders the shell of layout and parses it into a document.
func (shells *Shells) Execute(layout page.Layout, data ShellData) (*dom.Document, error) {
	shellTemplate, found := shells.templates[layout]
	if !found {
		return nil, fmt.Errorf("%w: %q", page.ErrInvalidLayout, layout)
	}
	var buffer bytes.Buffer
	if executeErr := shellTemplate.ExecuteTemplate(&buffer, shellTemplateName, data); executeErr != nil {
		return nil, fmt.Errorf("%s: %w", errorMessageExecuteShell, executeErr)
	}
	return dom.Parse(&buffer)
}

// PathPrefix resolves the request path prefix: configured wins, otherwise
// the path_prefix meta element of the programs shell.
func (shells *Shells) PathPrefix(configured string) string {
	document, executeErr := shells.Execute(page.LayoutPrograms, ShellData{})
	if executeErr != nil {
		return bootstrap.ResolvePathPrefix(configured, nil)
	}
	return bootstrap.ResolvePathPrefix(configured, document)
}
