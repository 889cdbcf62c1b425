package dom

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

const (
	errorMessageEmptySelector   = "dom: empty selector"
	errorMessageInvalidSelector = "dom: invalid selector"
)

var (
	// ErrEmptySelector indicates a blank selector string.
	ErrEmptySelector = errors.New(errorMessageEmptySelector)
	// ErrInvalidSelector indicates a selector that does not parse as CSS.
	ErrInvalidSelector = errors.New(errorMessageInvalidSelector)
)

// Selector is a compiled CSS selector group.
type Selector struct {
	source  string
	matcher cascadia.Selector
}

// Compile parses a CSS selector group.
func Compile(selector string) (Selector, error) {
	trimmed := strings.TrimSpace(selector)
	if trimmed == "" {
		return Selector{}, ErrEmptySelector
	}
	matcher, parseErr := cascadia.Compile(trimmed)
	if parseErr != nil {
		return Selector{}, fmt.Errorf("%w: %q: %v", ErrInvalidSelector, selector, parseErr)
	}
	return Selector{source: trimmed, matcher: matcher}, nil
}

func mustCompile(selector string) Selector {
	compiled, compileErr := Compile(selector)
	if compileErr != nil {
		panic(compileErr)
	}
	return compiled
}

// String returns the selector source.
func (selector Selector) String() string {
	return selector.source
}

// Matches reports whether node satisfies the selector.
func (selector Selector) Matches(node *html.Node) bool {
	if selector.matcher == nil || node == nil {
		return false
	}
	return selector.matcher.Match(node)
}

// QueryAll returns the descendants of root that match, in document order.
// root itself is never part of the result.
func (selector Selector) QueryAll(root *html.Node) []*html.Node {
	if selector.matcher == nil || root == nil {
		return nil
	}
	matches := selector.matcher.MatchAll(root)
	if len(matches) > 0 && matches[0] == root {
		matches = matches[1:]
	}
	return matches
}
