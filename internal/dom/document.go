// Package dom wraps a parsed HTML document with the operations the visual
// editor needs: selector queries, change application with snapshot capture,
// reversal, and mutation observation with a reentrancy guard.
package dom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/absmartly/domeditor/internal/common"
	"github.com/andybalholm/cascadia"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

// MutationObserver receives a callback after every document mutation.
// internal is true when the mutation was performed by the editor itself;
// observers must not react to those to avoid feedback loops.
type MutationObserver func(revision uint64, internal bool)

// Document is a live HTML document under edit. All methods run on the editor's
// single goroutine.
type Document struct {
	logger zerolog.Logger
	doc    *goquery.Document

	revision      uint64
	internalWrite bool
	observers     []MutationObserver

	styleSheet *StyleSheet
	markerSeq  uint64
}

// Parse builds a Document from raw HTML.
func Parse(htmlContent string, logger zerolog.Logger) (*Document, error) {
	gq, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, common.WrapError(err, "failed to parse HTML content")
	}
	return &Document{
		logger:     logger.With().Str("component", "Document").Logger(),
		doc:        gq,
		styleSheet: NewStyleSheet(),
	}, nil
}

// Query returns the first element matching the selector. The selector must be
// valid CSS and must match at least one element.
func (d *Document) Query(selector string) (*goquery.Selection, error) {
	if selector == "" {
		return nil, common.NewValidationError("selector", selector, "selector must not be empty")
	}
	if _, err := cascadia.Parse(selector); err != nil {
		return nil, common.WrapErrorf(err, "invalid selector %q", selector)
	}

	sel := d.doc.Find(selector)
	if sel.Length() == 0 {
		return nil, common.WrapErrorf(common.ErrNotFound, "no element matches selector %q", selector)
	}
	return sel.First(), nil
}

// QueryAll returns every element matching the selector, possibly empty.
func (d *Document) QueryAll(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// Body returns the document body selection.
func (d *Document) Body() *goquery.Selection {
	return d.doc.Find("body").First()
}

// Selection returns the root document selection.
func (d *Document) Selection() *goquery.Selection {
	return d.doc.Selection
}

// HTML serializes the whole document.
func (d *Document) HTML() (string, error) {
	out, err := d.doc.Html()
	if err != nil {
		return "", common.WrapError(err, "failed to serialize document")
	}
	return out, nil
}

// IsProtected reports whether the selection is the document body or root
// element, which the editor must never serialize or edit directly.
func (d *Document) IsProtected(sel *goquery.Selection) bool {
	if sel == nil || len(sel.Nodes) == 0 {
		return false
	}
	switch goquery.NodeName(sel) {
	case "body", "html":
		return true
	}
	return false
}

// Revision returns the document mutation counter.
func (d *Document) Revision() uint64 {
	return d.revision
}

// Observe registers a mutation observer.
func (d *Document) Observe(fn MutationObserver) {
	d.observers = append(d.observers, fn)
}

// ClearObservers disconnects all registered mutation observers.
func (d *Document) ClearObservers() {
	d.observers = nil
}

// WithInternalWrite marks mutations performed inside fn as editor-initiated so
// observers can ignore them. The flag is a reentrancy guard, not a lock.
func (d *Document) WithInternalWrite(fn func()) {
	prev := d.internalWrite
	d.internalWrite = true
	defer func() { d.internalWrite = prev }()
	fn()
}

// NotifyMutated bumps the revision counter and informs observers. Callers that
// mutate the document outside ApplyChange/RevertChange (the SDK, tests) use
// this to simulate externally-triggered structural changes.
func (d *Document) NotifyMutated() {
	d.revision++
	for _, fn := range d.observers {
		fn(d.revision, d.internalWrite)
	}
}

// OuterHTML serializes an element including its own tag.
func OuterHTML(sel *goquery.Selection) (string, error) {
	out, err := goquery.OuterHtml(sel)
	if err != nil {
		return "", common.WrapError(err, "failed to serialize element")
	}
	return out, nil
}

// ElementChildren returns the element-node children of the selection's first
// node, skipping text and comment nodes.
func ElementChildren(sel *goquery.Selection) []*html.Node {
	if len(sel.Nodes) == 0 {
		return nil
	}
	var out []*html.Node
	for c := sel.Nodes[0].FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// HasElementChildren reports whether the element contains child elements,
// which decides text-vs-html serialization for inline edits.
func HasElementChildren(sel *goquery.Selection) bool {
	return len(ElementChildren(sel)) > 0
}

// ElementIndex returns the node's position among its parent's element
// children, or -1 when detached.
func ElementIndex(n *html.Node) int {
	if n == nil || n.Parent == nil {
		return -1
	}
	idx := 0
	for c := n.Parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if c == n {
			return idx
		}
		idx++
	}
	return -1
}

// SameTagIndex returns the node's 1-based position among same-tag element
// siblings, for nth-of-type style selector fragments.
func SameTagIndex(n *html.Node) int {
	if n == nil || n.Parent == nil {
		return 1
	}
	idx := 1
	for c := n.Parent.FirstChild; c != nil; c = c.NextSibling {
		if c == n {
			return idx
		}
		if c.Type == html.ElementNode && c.Data == n.Data {
			idx++
		}
	}
	return idx
}

// NthChildIndex returns the node's 1-based position among all element
// siblings, for nth-child selector fragments.
func NthChildIndex(n *html.Node) int {
	if n == nil || n.Parent == nil {
		return 1
	}
	idx := 1
	for c := n.Parent.FirstChild; c != nil; c = c.NextSibling {
		if c == n {
			return idx
		}
		if c.Type == html.ElementNode {
			idx++
		}
	}
	return idx
}
