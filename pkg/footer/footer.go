// Package footer renders the shared page footer.
package footer

import (
	"bytes"
	"errors"
	"html/template"
	"strings"
)

// ErrMissingElementID indicates a footer configured without an element id.
var ErrMissingElementID = errors.New("footer: missing element id")

// Link is one footer navigation entry.
type Link struct {
	Label string
	URL   string
}

// Config captures the footer markup hooks.
type Config struct {
	ElementID   string
	BaseClass   string
	BrandText   string
	BrandURL    string
	LinkClass   string
	Links       []Link
	CurrentYear int
}

var footerTemplate = template.Must(template.New("footer").Parse(`<footer id="{{.ElementID}}" class="{{.BaseClass}}">
  <div class="{{.BaseClass}}__inner">
    {{if .BrandURL}}<a class="{{.BaseClass}}__brand" href="{{.BrandURL}}">{{.BrandText}}</a>{{else}}<span class="{{.BaseClass}}__brand">{{.BrandText}}</span>{{end}}
    {{with .Links}}<ul class="{{$.BaseClass}}__links">
      {{range .}}<li><a class="{{$.LinkClass}}" href="{{.URL}}">{{.Label}}</a></li>
      {{end}}
    </ul>{{end}}
    {{if .CurrentYear}}<span class="{{.BaseClass}}__copyright">&copy; {{.CurrentYear}} {{.BrandText}}</span>{{end}}
  </div>
</footer>`))

// Render returns the footer HTML for config. Links with a blank label or
// URL are skipped.
func Render(config Config) (template.HTML, error) {
	if strings.TrimSpace(config.ElementID) == "" {
		return "", ErrMissingElementID
	}
	visibleLinks := make([]Link, 0, len(config.Links))
	for _, link := range config.Links {
		if strings.TrimSpace(link.Label) == "" || strings.TrimSpace(link.URL) == "" {
			continue
		}
		visibleLinks = append(visibleLinks, link)
	}
	config.Links = visibleLinks

	var buffer bytes.Buffer
	if err := footerTemplate.Execute(&buffer, config); err != nil {
		return "", err
	}
	return template.HTML(buffer.String()), nil
}
