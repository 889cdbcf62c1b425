// Package dom wraps an HTML node tree with the small set of operations the
// dashboard views need: selector queries, markup insertion and removal.
package dom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	errorMessageParseDocument = "dom: parse document"
	errorMessageParseFragment = "dom: parse fragment"
	errorMessageNoMatch       = "dom: no element matches selector"
	errorMessageNilNode       = "dom: nil node"

	metaTagName          = "meta"
	metaNameAttribute    = "name"
	metaContentAttribute = "content"
	classAttribute       = "class"
)

var metaSelector = mustCompile(metaTagName)

var (
	// ErrNoMatch indicates a selector that matched nothing.
	ErrNoMatch = errors.New(errorMessageNoMatch)
	// ErrNilNode indicates an operation on a nil node.
	ErrNilNode = errors.New(errorMessageNilNode)
)

// Document is a parsed HTML page.
type Document struct {
	root *html.Node
}

// Parse reads a full HTML document.
func Parse(reader io.Reader) (*Document, error) {
	root, parseErr := html.Parse(reader)
	if parseErr != nil {
		return nil, fmt.Errorf("%s: %w", errorMessageParseDocument, parseErr)
	}
	return &Document{root: root}, nil
}

// ParseString parses markup held in memory.
func ParseString(markup string) (*Document, error) {
	return Parse(strings.NewReader(markup))
}

// Root returns the document node.
func (document *Document) Root() *html.Node {
	return document.root
}

// Body returns the body element, which the parser always synthesizes.
func (document *Document) Body() *html.Node {
	var body *html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if body != nil {
			return
		}
		if node.Type == html.ElementNode && node.DataAtom == atom.Body {
			body = node
			return
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(document.root)
	return body
}

// Query returns every element matching selector in document order.
func (document *Document) Query(selector string) ([]*html.Node, error) {
	return QueryWithin(document.root, selector)
}

// QueryOne returns the first element matching selector.
func (document *Document) QueryOne(selector string) (*html.Node, error) {
	return QueryOneWithin(document.root, selector)
}

// MetaContent returns the content attribute of <meta name="...">.
func (document *Document) MetaContent(name string) (string, bool) {
	for _, node := range metaSelector.QueryAll(document.root) {
		metaName, _ := Attr(node, metaNameAttribute)
		if metaName != name {
			continue
		}
		return Attr(node, metaContentAttribute)
	}
	return "", false
}

// Render serializes the document.
func (document *Document) Render(writer io.Writer) error {
	return html.Render(writer, document.root)
}

// String serializes the document, returning an empty string on failure.
func (document *Document) String() string {
	var buffer bytes.Buffer
	if renderErr := document.Render(&buffer); renderErr != nil {
		return ""
	}
	return buffer.String()
}

// QueryWithin returns every descendant of root matching selector.
func QueryWithin(root *html.Node, selector string) ([]*html.Node, error) {
	compiled, compileErr := Compile(selector)
	if compileErr != nil {
		return nil, compileErr
	}
	return compiled.QueryAll(root), nil
}

// QueryOneWithin returns the first descendant of root matching selector.
func QueryOneWithin(root *html.Node, selector string) (*html.Node, error) {
	matches, queryErr := QueryWithin(root, selector)
	if queryErr != nil {
		return nil, queryErr
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMatch, selector)
	}
	return matches[0], nil
}

// NewElement creates a detached element with an optional class attribute.
func NewElement(tag string, className string) *html.Node {
	normalizedTag := strings.ToLower(strings.TrimSpace(tag))
	node := &html.Node{
		Type:     html.ElementNode,
		Data:     normalizedTag,
		DataAtom: atom.Lookup([]byte(normalizedTag)),
	}
	if strings.TrimSpace(className) != "" {
		SetAttr(node, classAttribute, className)
	}
	return node
}

// ParseFragment parses markup in the context of parent.
func ParseFragment(parent *html.Node, markup string) ([]*html.Node, error) {
	context := parent
	if context == nil || context.Type != html.ElementNode {
		context = NewElement("body", "")
	}
	nodes, parseErr := html.ParseFragment(strings.NewReader(markup), context)
	if parseErr != nil {
		return nil, fmt.Errorf("%s: %w", errorMessageParseFragment, parseErr)
	}
	return nodes, nil
}

// AppendHTML parses markup and adds it after node's existing children.
func AppendHTML(node *html.Node, markup string) error {
	if node == nil {
		return ErrNilNode
	}
	nodes, parseErr := ParseFragment(node, markup)
	if parseErr != nil {
		return parseErr
	}
	for _, child := range nodes {
		node.AppendChild(child)
	}
	return nil
}

// ReplaceHTML drops node's children and inserts the parsed markup.
func ReplaceHTML(node *html.Node, markup string) error {
	if node == nil {
		return ErrNilNode
	}
	nodes, parseErr := ParseFragment(node, markup)
	if parseErr != nil {
		return parseErr
	}
	Empty(node)
	for _, child := range nodes {
		node.AppendChild(child)
	}
	return nil
}

// Empty removes every child of node.
func Empty(node *html.Node) {
	if node == nil {
		return
	}
	for node.FirstChild != nil {
		node.RemoveChild(node.FirstChild)
	}
}

// Remove detaches node from its parent.
func Remove(node *html.Node) {
	if node == nil || node.Parent == nil {
		return
	}
	node.Parent.RemoveChild(node)
}

// Attached reports whether node is still reachable from a document node.
func Attached(node *html.Node) bool {
	for current := node; current != nil; current = current.Parent {
		if current.Type == html.DocumentNode {
			return true
		}
	}
	return false
}

// Attr returns the value of key on node.
func Attr(node *html.Node, key string) (string, bool) {
	if node == nil {
		return "", false
	}
	for _, attribute := range node.Attr {
		if attribute.Namespace == "" && attribute.Key == key {
			return attribute.Val, true
		}
	}
	return "", false
}

// SetAttr sets or overwrites key on node.
func SetAttr(node *html.Node, key string, value string) {
	if node == nil {
		return
	}
	for index, attribute := range node.Attr {
		if attribute.Namespace == "" && attribute.Key == key {
			node.Attr[index].Val = value
			return
		}
	}
	node.Attr = append(node.Attr, html.Attribute{Key: key, Val: value})
}

// HasClass reports whether className appears in node's class list.
func HasClass(node *html.Node, className string) bool {
	classValue, _ := Attr(node, classAttribute)
	for _, candidate := range strings.Fields(classValue) {
		if candidate == className {
			return true
		}
	}
	return false
}

// AddClass appends className unless already present.
func AddClass(node *html.Node, className string) {
	if node == nil || strings.TrimSpace(className) == "" || HasClass(node, className) {
		return
	}
	classValue, _ := Attr(node, classAttribute)
	SetAttr(node, classAttribute, strings.TrimSpace(classValue+" "+className))
}

// OuterHTML serializes node including itself.
func OuterHTML(node *html.Node) (string, error) {
	if node == nil {
		return "", ErrNilNode
	}
	var buffer bytes.Buffer
	if renderErr := html.Render(&buffer, node); renderErr != nil {
		return "", renderErr
	}
	return buffer.String(), nil
}

// InnerHTML serializes node's children.
func InnerHTML(node *html.Node) (string, error) {
	if node == nil {
		return "", ErrNilNode
	}
	var buffer bytes.Buffer
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if renderErr := html.Render(&buffer, child); renderErr != nil {
			return "", renderErr
		}
	}
	return buffer.String(), nil
}

// ChildElements returns node's direct element children.
func ChildElements(node *html.Node) []*html.Node {
	var children []*html.Node
	if node == nil {
		return children
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode {
			children = append(children, child)
		}
	}
	return children
}
