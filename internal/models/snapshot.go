package models

// Snapshot captures the pre-change state needed to reverse one Change. It is
// kept alongside the change in history and used only for undo; it is never
// persisted to the backend.
//
// A trimmed form of the same shape (text plus recorded styles) is also what
// the editor writes into the data-absmartly-original attribute on touched
// elements for the page-side SDK.
type Snapshot struct {
	Text      *string `json:"text,omitempty"`
	InnerHTML *string `json:"innerHTML,omitempty"`
	OuterHTML *string `json:"outerHTML,omitempty"`

	// Styles holds prior values of inline style properties the change touched.
	// RemovedStyles lists properties that did not exist before the change.
	Styles        map[string]string `json:"styles,omitempty"`
	RemovedStyles []string          `json:"removedStyles,omitempty"`

	// Attributes and RemovedAttributes mirror Styles for attribute changes.
	Attributes        map[string]string `json:"attributes,omitempty"`
	RemovedAttributes []string          `json:"removedAttributes,omitempty"`

	// ClassAttr is the full prior class attribute value, present for class
	// changes. A nil pointer means the element had no class attribute.
	ClassAttr *string `json:"classAttr,omitempty"`

	// States holds the prior styleRules states for a styleRules change, with
	// Important carrying the prior important flag. Nil States means the
	// selector had no rules registered before the change.
	States    map[StyleState]map[string]string `json:"states,omitempty"`
	Important bool                             `json:"important,omitempty"`

	// ElementPath is the structural tag:nth-child path of the changed element,
	// recorded at apply time. Undo resolves the element through it because the
	// user-facing selector may stop matching once the change rewrote the class
	// or id it was built from.
	ElementPath string `json:"elementPath,omitempty"`

	// ParentSelector and SiblingIndex locate where a removed or moved element
	// lived before the change so undo can put it back.
	ParentSelector string `json:"parentSelector,omitempty"`
	SiblingIndex   int    `json:"siblingIndex,omitempty"`

	// MarkerID identifies content added by an insert/create change so undo can
	// find and remove it again.
	MarkerID string `json:"markerId,omitempty"`
}

// Clone returns a structural deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Text = cloneStringPtr(s.Text)
	out.InnerHTML = cloneStringPtr(s.InnerHTML)
	out.OuterHTML = cloneStringPtr(s.OuterHTML)
	out.Styles = cloneStringMap(s.Styles)
	out.RemovedStyles = cloneStringSlice(s.RemovedStyles)
	out.Attributes = cloneStringMap(s.Attributes)
	out.RemovedAttributes = cloneStringSlice(s.RemovedAttributes)
	out.ClassAttr = cloneStringPtr(s.ClassAttr)
	if s.States != nil {
		out.States = make(map[StyleState]map[string]string, len(s.States))
		for state, props := range s.States {
			out.States[state] = cloneStringMap(props)
		}
	}
	return out
}

func cloneStringPtr(in *string) *string {
	if in == nil {
		return nil
	}
	v := *in
	return &v
}

// StringPtr is a small helper for building snapshots.
func StringPtr(s string) *string {
	return &s
}
