package models

import (
	"encoding/json"

	"github.com/absmartly/domeditor/internal/common"
)

// ChangeType identifies the kind of DOM mutation a Change describes.
type ChangeType string

const (
	ChangeTypeText       ChangeType = "text"
	ChangeTypeHTML       ChangeType = "html"
	ChangeTypeStyle      ChangeType = "style"
	ChangeTypeStyleRules ChangeType = "styleRules"
	ChangeTypeClass      ChangeType = "class"
	ChangeTypeAttribute  ChangeType = "attribute"
	ChangeTypeRemove     ChangeType = "remove"
	ChangeTypeInsert     ChangeType = "insert"
	ChangeTypeMove       ChangeType = "move"
	ChangeTypeCreate     ChangeType = "create"
)

// ApplyMode controls whether a style/class/attribute change merges with or
// replaces the existing values on the element.
type ApplyMode string

const (
	ApplyModeMerge   ApplyMode = "merge"
	ApplyModeReplace ApplyMode = "replace"
)

// InsertPosition identifies where inserted, moved or created content lands
// relative to the target element.
type InsertPosition string

const (
	PositionBefore     InsertPosition = "before"
	PositionAfter      InsertPosition = "after"
	PositionFirstChild InsertPosition = "firstChild"
	PositionLastChild  InsertPosition = "lastChild"
)

// StyleState is a pseudo-state key for styleRules changes.
type StyleState string

const (
	StyleStateNormal StyleState = "normal"
	StyleStateHover  StyleState = "hover"
	StyleStateActive StyleState = "active"
)

// Change is the canonical representation of a single DOM mutation. Its JSON
// shape is the wire contract persisted to the backend and exchanged with the
// page-side SDK, so field names must remain exactly as tagged here.
//
// The payload fields are a tagged union keyed by Type: Value carries the string
// payload for text/html, ValueMap the property map for style/attribute. Custom
// JSON marshalling folds both into the single wire field "value".
//
// Payloads must be plain data. A Change never references live DOM nodes.
type Change struct {
	Selector string     `json:"selector"`
	Type     ChangeType `json:"type"`
	Enabled  bool       `json:"enabled"`

	Value    string            `json:"-"`
	ValueMap map[string]string `json:"-"`

	Mode      ApplyMode                        `json:"mode,omitempty"`
	States    map[StyleState]map[string]string `json:"states,omitempty"`
	Important bool                             `json:"important,omitempty"`

	Add    []string `json:"add,omitempty"`
	Remove []string `json:"remove,omitempty"`

	HTML           string         `json:"html,omitempty"`
	Position       InsertPosition `json:"position,omitempty"`
	TargetSelector string         `json:"targetSelector,omitempty"`
	Element        string         `json:"element,omitempty"`
}

// Key returns the squash key for this change: selector + "-" + type.
func (c Change) Key() string {
	return c.Selector + "-" + string(c.Type)
}

// EffectiveMode returns the change's apply mode, defaulting to merge.
func (c Change) EffectiveMode() ApplyMode {
	if c.Mode == "" {
		return ApplyModeMerge
	}
	return c.Mode
}

// Clone returns a structural deep copy of the change. History entries and
// squash output are always clones so live callers never alias stored payloads.
func (c Change) Clone() Change {
	out := c
	out.ValueMap = cloneStringMap(c.ValueMap)
	out.Add = cloneStringSlice(c.Add)
	out.Remove = cloneStringSlice(c.Remove)
	if c.States != nil {
		out.States = make(map[StyleState]map[string]string, len(c.States))
		for state, props := range c.States {
			out.States[state] = cloneStringMap(props)
		}
	}
	return out
}

// Validate rejects malformed changes before they enter history. An empty
// selector on a committed record is a caller bug and surfaces as an error
// rather than a silent skip.
func (c Change) Validate() error {
	if c.Selector == "" {
		return common.NewValidationError("selector", c.Selector, "selector must not be empty")
	}

	switch c.Type {
	case ChangeTypeText, ChangeTypeHTML:
		// Value may legitimately be empty (clearing content).
	case ChangeTypeStyle:
		if len(c.ValueMap) == 0 {
			return common.NewValidationError("value", c.ValueMap, "style change requires at least one property")
		}
	case ChangeTypeStyleRules:
		if len(c.States) == 0 {
			return common.NewValidationError("states", c.States, "styleRules change requires at least one state")
		}
		for state := range c.States {
			if state != StyleStateNormal && state != StyleStateHover && state != StyleStateActive {
				return common.NewValidationError("states", state, "unknown style state")
			}
		}
	case ChangeTypeClass:
		if len(c.Add) == 0 && len(c.Remove) == 0 {
			return common.NewValidationError("add", c.Add, "class change requires add or remove entries")
		}
	case ChangeTypeAttribute:
		if len(c.ValueMap) == 0 {
			return common.NewValidationError("value", c.ValueMap, "attribute change requires at least one attribute")
		}
	case ChangeTypeRemove:
		// Selector only.
	case ChangeTypeInsert:
		if c.HTML == "" {
			return common.NewValidationError("html", c.HTML, "insert change requires html")
		}
		if err := validatePosition(c.Position); err != nil {
			return err
		}
	case ChangeTypeMove:
		if c.TargetSelector == "" {
			return common.NewValidationError("targetSelector", c.TargetSelector, "move change requires a target selector")
		}
		if err := validatePosition(c.Position); err != nil {
			return err
		}
	case ChangeTypeCreate:
		if c.Element == "" {
			return common.NewValidationError("element", c.Element, "create change requires element html")
		}
		if c.TargetSelector == "" {
			return common.NewValidationError("targetSelector", c.TargetSelector, "create change requires a target selector")
		}
		if err := validatePosition(c.Position); err != nil {
			return err
		}
	default:
		return common.NewValidationError("type", c.Type, "unknown change type")
	}

	if c.Mode != "" && c.Mode != ApplyModeMerge && c.Mode != ApplyModeReplace {
		return common.NewValidationError("mode", c.Mode, "mode must be merge or replace")
	}

	return nil
}

func validatePosition(p InsertPosition) error {
	switch p {
	case PositionBefore, PositionAfter, PositionFirstChild, PositionLastChild:
		return nil
	default:
		return common.NewValidationError("position", p, "position must be before, after, firstChild or lastChild")
	}
}

// changeWire mirrors Change for JSON with the union "value" field and an
// optional "enabled" so absent values default to true on the way in.
type changeWire struct {
	Selector string          `json:"selector"`
	Type     ChangeType      `json:"type"`
	Enabled  *bool           `json:"enabled,omitempty"`
	Value    json.RawMessage `json:"value,omitempty"`

	Mode      ApplyMode                        `json:"mode,omitempty"`
	States    map[StyleState]map[string]string `json:"states,omitempty"`
	Important bool                             `json:"important,omitempty"`

	Add    []string `json:"add,omitempty"`
	Remove []string `json:"remove,omitempty"`

	HTML           string         `json:"html,omitempty"`
	Position       InsertPosition `json:"position,omitempty"`
	TargetSelector string         `json:"targetSelector,omitempty"`
	Element        string         `json:"element,omitempty"`
}

// MarshalJSON emits the wire shape, choosing the string or map form of "value"
// based on the change type.
func (c Change) MarshalJSON() ([]byte, error) {
	enabled := c.Enabled
	w := changeWire{
		Selector:       c.Selector,
		Type:           c.Type,
		Enabled:        &enabled,
		Mode:           c.Mode,
		States:         c.States,
		Important:      c.Important,
		Add:            c.Add,
		Remove:         c.Remove,
		HTML:           c.HTML,
		Position:       c.Position,
		TargetSelector: c.TargetSelector,
		Element:        c.Element,
	}

	switch c.Type {
	case ChangeTypeText, ChangeTypeHTML:
		raw, err := json.Marshal(c.Value)
		if err != nil {
			return nil, err
		}
		w.Value = raw
	case ChangeTypeStyle, ChangeTypeAttribute:
		raw, err := json.Marshal(c.ValueMap)
		if err != nil {
			return nil, err
		}
		w.Value = raw
	}

	return json.Marshal(w)
}

// UnmarshalJSON parses the wire shape. Missing "enabled" defaults to true.
func (c *Change) UnmarshalJSON(data []byte) error {
	var w changeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*c = Change{
		Selector:       w.Selector,
		Type:           w.Type,
		Enabled:        true,
		Mode:           w.Mode,
		States:         w.States,
		Important:      w.Important,
		Add:            w.Add,
		Remove:         w.Remove,
		HTML:           w.HTML,
		Position:       w.Position,
		TargetSelector: w.TargetSelector,
		Element:        w.Element,
	}
	if w.Enabled != nil {
		c.Enabled = *w.Enabled
	}

	if len(w.Value) == 0 {
		return nil
	}

	switch w.Type {
	case ChangeTypeStyle, ChangeTypeAttribute:
		return json.Unmarshal(w.Value, &c.ValueMap)
	default:
		return json.Unmarshal(w.Value, &c.Value)
	}
}

func cloneStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneStringSlice(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
