// Package selector derives robust CSS selectors for live DOM elements,
// preferring stable attributes over fragile auto-generated ones.
package selector

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/absmartly/domeditor/internal/common"
	"github.com/absmartly/domeditor/internal/config"
	"github.com/absmartly/domeditor/internal/dom"
	"github.com/absmartly/domeditor/internal/models"
	"github.com/andybalholm/cascadia"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

// Options controls selector generation for a single call. Zero values fall
// back to the generator's configured defaults only for MaxParentLevels.
type Options struct {
	PreferDataAttributes bool
	AvoidAutoGenerated   bool
	IncludeParentContext bool
	MaxParentLevels      int
}

// Stable data attributes tried, in order, before falling back to classes.
var stableDataAttributes = []string{
	"data-testid", "data-test", "data-qa", "data-cy", "data-id", "data-component", "data-name",
}

var cssIdentPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// Generator derives selectors using configurable denylists for transient and
// auto-generated class/id names. The pattern tables are configuration rather
// than hardcoded because the conventions are framework-specific.
type Generator struct {
	logger         zerolog.Logger
	cfg            config.SelectorConfig
	idPatterns     []*regexp.Regexp
	classPatterns  []*regexp.Regexp
	transientNames map[string]struct{}
}

// NewGenerator compiles the configured pattern tables. Patterns that fail to
// compile are skipped with a log entry rather than aborting construction.
func NewGenerator(cfg config.SelectorConfig, logger zerolog.Logger) *Generator {
	g := &Generator{
		logger:         logger.With().Str("component", "SelectorGenerator").Logger(),
		cfg:            cfg,
		transientNames: make(map[string]struct{}, len(cfg.TransientClassNames)),
	}
	for _, name := range cfg.TransientClassNames {
		g.transientNames[name] = struct{}{}
	}
	g.idPatterns = compilePatterns(cfg.AutoGeneratedIDPatterns, g.logger)
	g.classPatterns = compilePatterns(cfg.AutoGeneratedClassPatterns, g.logger)
	return g
}

func compilePatterns(patterns []string, logger zerolog.Logger) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			logger.Error().Err(err).Str("pattern", pattern).Msg("Failed to compile selector pattern, skipping")
			continue
		}
		out = append(out, re)
	}
	return out
}

// DefaultOptions returns the Options implied by the generator's config.
func (g *Generator) DefaultOptions() Options {
	return Options{
		PreferDataAttributes: g.cfg.PreferDataAttributes,
		AvoidAutoGenerated:   g.cfg.AvoidAutoGenerated,
		IncludeParentContext: g.cfg.IncludeParentContext,
		MaxParentLevels:      g.cfg.MaxParentLevels,
	}
}

// Generate derives a selector for the first element of the selection. The
// result is deterministic for a given DOM shape, never includes the editor's
// own marker classes or attributes, and is verified to compile and to resolve
// back to the same element when possible.
func (g *Generator) Generate(sel *goquery.Selection, opts Options) (string, error) {
	if sel == nil || len(sel.Nodes) == 0 {
		return "", common.NewValidationError("element", sel, "cannot generate selector for empty selection")
	}
	node := sel.Nodes[0]
	if node.Type != html.ElementNode {
		return "", common.NewValidationError("element", node.Type, "selector target must be an element node")
	}
	if opts.MaxParentLevels <= 0 {
		opts.MaxParentLevels = g.cfg.MaxParentLevels
	}

	doc := documentFor(node)
	base := g.segmentFor(node, opts)

	candidate := base
	if !g.resolvesTo(doc, candidate, node) && opts.IncludeParentContext {
		parent := node.Parent
		for level := 0; level < opts.MaxParentLevels && parent != nil && parent.Type == html.ElementNode; level++ {
			candidate = g.segmentFor(parent, opts) + " > " + candidate
			if g.resolvesTo(doc, candidate, node) {
				break
			}
			parent = parent.Parent
		}
	}

	if _, err := cascadia.Parse(candidate); err != nil {
		return "", common.WrapErrorf(err, "generated selector %q does not compile", candidate)
	}
	if !g.resolvesTo(doc, candidate, node) {
		g.logger.Warn().Str("selector", candidate).Msg("Generated selector is not unique for its element")
	}

	return candidate, nil
}

// segmentFor builds the selector fragment for one element: stable id, then
// stable data attribute, then filtered classes, then tag with structural
// position among same-tag siblings.
func (g *Generator) segmentFor(node *html.Node, opts Options) string {
	tag := node.Data

	if id := attrValue(node, "id"); id != "" {
		if !opts.AvoidAutoGenerated || !g.isAutoGeneratedID(id) {
			if cssIdentPattern.MatchString(id) {
				return "#" + id
			}
			return fmt.Sprintf("%s[id='%s']", tag, id)
		}
	}

	if opts.PreferDataAttributes {
		for _, attr := range stableDataAttributes {
			if value := attrValue(node, attr); value != "" {
				return fmt.Sprintf("%s[%s='%s']", tag, attr, strings.ReplaceAll(value, "'", "\\'"))
			}
		}
	}

	if classes := g.stableClasses(node, opts); len(classes) > 0 {
		return tag + "." + strings.Join(classes, ".")
	}

	return fmt.Sprintf("%s:nth-of-type(%d)", tag, dom.SameTagIndex(node))
}

// stableClasses filters the element's class list through the transient and
// auto-generated denylists, plus the editor's own marker prefix, keeping at
// most three survivors.
func (g *Generator) stableClasses(node *html.Node, opts Options) []string {
	raw := strings.Fields(attrValue(node, "class"))
	out := make([]string, 0, len(raw))
	for _, class := range raw {
		if !cssIdentPattern.MatchString(class) {
			continue
		}
		if strings.HasPrefix(class, models.MarkerClassPrefix) {
			continue
		}
		if g.isTransientClass(class) {
			continue
		}
		if opts.AvoidAutoGenerated && matchesAny(g.classPatterns, class) {
			continue
		}
		out = append(out, class)
		if len(out) == 3 {
			break
		}
	}
	return out
}

func (g *Generator) isTransientClass(class string) bool {
	if _, hit := g.transientNames[class]; hit {
		return true
	}
	for _, prefix := range g.cfg.TransientClassPrefixes {
		if strings.HasPrefix(class, prefix) {
			return true
		}
	}
	for _, suffix := range g.cfg.TransientClassSuffixes {
		if strings.HasSuffix(class, suffix) {
			return true
		}
	}
	return false
}

func (g *Generator) isAutoGeneratedID(id string) bool {
	return matchesAny(g.idPatterns, id)
}

func matchesAny(patterns []*regexp.Regexp, value string) bool {
	for _, re := range patterns {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}

// resolvesTo reports whether the selector's first match in the document is
// exactly the given node.
func (g *Generator) resolvesTo(doc *goquery.Document, selector string, node *html.Node) bool {
	matches := doc.Find(selector)
	return matches.Length() == 1 && matches.Nodes[0] == node
}

func attrValue(node *html.Node, name string) string {
	for _, attr := range node.Attr {
		if attr.Key == name {
			return strings.TrimSpace(attr.Val)
		}
	}
	return ""
}

// documentFor rebuilds a goquery document from the node's root so uniqueness
// checks see the whole page.
func documentFor(node *html.Node) *goquery.Document {
	root := node
	for root.Parent != nil {
		root = root.Parent
	}
	return goquery.NewDocumentFromNode(root)
}
