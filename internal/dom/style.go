package dom

import (
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/absmartly/domeditor/internal/models"
)

// EditorStyleSheetID is the id of the <style> element the editor injects for
// styleRules changes. Cleanup removes it wholesale.
const EditorStyleSheetID = "absmartly-editor-styles"

// ParseInlineStyle splits a style attribute value into a property map.
// Malformed declarations are skipped.
func ParseInlineStyle(style string) map[string]string {
	out := make(map[string]string)
	for _, decl := range strings.Split(style, ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		name, value, ok := strings.Cut(decl, ":")
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if !ok || name == "" {
			continue
		}
		out[name] = value
	}
	return out
}

// SerializeInlineStyle renders a property map back into a style attribute
// value with sorted property names so output is deterministic.
func SerializeInlineStyle(props map[string]string) string {
	if len(props) == 0 {
		return ""
	}
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(props[name])
	}
	return b.String()
}

// StyleSheet tracks styleRules changes per selector and renders them into the
// editor's injected <style> element.
type StyleSheet struct {
	rules     map[string]map[models.StyleState]map[string]string
	important map[string]bool
	order     []string
}

// NewStyleSheet creates an empty styleRules registry.
func NewStyleSheet() *StyleSheet {
	return &StyleSheet{
		rules:     make(map[string]map[models.StyleState]map[string]string),
		important: make(map[string]bool),
	}
}

// States returns the current states registered for a selector, or nil.
func (ss *StyleSheet) States(selector string) map[models.StyleState]map[string]string {
	return ss.rules[selector]
}

// Set replaces the states registered for a selector. A nil states map removes
// the selector's rules.
func (ss *StyleSheet) Set(selector string, states map[models.StyleState]map[string]string, important bool) {
	if states == nil {
		delete(ss.rules, selector)
		delete(ss.important, selector)
		for i, s := range ss.order {
			if s == selector {
				ss.order = append(ss.order[:i], ss.order[i+1:]...)
				break
			}
		}
		return
	}
	if _, seen := ss.rules[selector]; !seen {
		ss.order = append(ss.order, selector)
	}
	ss.rules[selector] = states
	ss.important[selector] = important
}

// Render produces the CSS text for all registered rules in first-registered
// selector order.
func (ss *StyleSheet) Render() string {
	var b strings.Builder
	for _, selector := range ss.order {
		states := ss.rules[selector]
		for _, state := range []models.StyleState{models.StyleStateNormal, models.StyleStateHover, models.StyleStateActive} {
			props, ok := states[state]
			if !ok || len(props) == 0 {
				continue
			}
			b.WriteString(selectorForState(selector, state))
			b.WriteString(" { ")
			names := make([]string, 0, len(props))
			for name := range props {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				b.WriteString(name)
				b.WriteString(": ")
				b.WriteString(props[name])
				if ss.important[selector] {
					b.WriteString(" !important")
				}
				b.WriteString("; ")
			}
			b.WriteString("}\n")
		}
	}
	return b.String()
}

func selectorForState(selector string, state models.StyleState) string {
	switch state {
	case models.StyleStateHover:
		return selector + ":hover"
	case models.StyleStateActive:
		return selector + ":active"
	default:
		return selector
	}
}

// syncStyleSheet re-renders the registry into the injected <style> element,
// creating it in <head> on first use and removing it when no rules remain.
func (d *Document) syncStyleSheet() {
	existing := d.doc.Find("style#" + EditorStyleSheetID)
	css := d.styleSheet.Render()

	if css == "" {
		existing.Remove()
		return
	}

	if existing.Length() == 0 {
		head := d.doc.Find("head").First()
		if head.Length() == 0 {
			head = d.doc.Selection.Find("html").First()
		}
		head.AppendHtml(`<style id="` + EditorStyleSheetID + `"></style>`)
		existing = d.doc.Find("style#" + EditorStyleSheetID)
	}
	existing.SetText(css)
}

// RemoveEditorStyleSheet drops the injected <style> element and all registered
// rules. Used by cleanup.
func (d *Document) RemoveEditorStyleSheet() {
	d.doc.Find("style#" + EditorStyleSheetID).Remove()
	d.styleSheet = NewStyleSheet()
}

// SetStyleProperties applies a property map to an element's inline style,
// honoring merge/replace mode. An empty value in merge mode removes the
// property. Returns prior values and the properties that were absent.
func SetStyleProperties(sel *goquery.Selection, props map[string]string, mode models.ApplyMode) (prior map[string]string, absent []string) {
	current := ParseInlineStyle(sel.AttrOr("style", ""))

	prior = make(map[string]string)
	if mode == models.ApplyModeReplace {
		for name, value := range current {
			prior[name] = value
		}
		current = make(map[string]string)
		for name := range props {
			if _, had := prior[name]; !had {
				absent = append(absent, name)
			}
		}
	} else {
		for name := range props {
			if value, had := current[name]; had {
				prior[name] = value
			} else {
				absent = append(absent, name)
			}
		}
	}
	sort.Strings(absent)

	for name, value := range props {
		if value == "" {
			delete(current, name)
			continue
		}
		current[name] = value
	}

	writeInlineStyle(sel, current)
	return prior, absent
}

// RestoreStyleProperties reverses SetStyleProperties using its outputs.
func RestoreStyleProperties(sel *goquery.Selection, prior map[string]string, absent []string) {
	current := ParseInlineStyle(sel.AttrOr("style", ""))
	for name, value := range prior {
		current[name] = value
	}
	for _, name := range absent {
		delete(current, name)
	}
	writeInlineStyle(sel, current)
}

func writeInlineStyle(sel *goquery.Selection, props map[string]string) {
	if len(props) == 0 {
		sel.RemoveAttr("style")
		return
	}
	sel.SetAttr("style", SerializeInlineStyle(props))
}
