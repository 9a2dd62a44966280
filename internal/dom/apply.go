package dom

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/absmartly/domeditor/internal/common"
	"github.com/absmartly/domeditor/internal/models"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MarkerAttr tags content added by insert/create changes so undo can find and
// remove it again. It is editor bookkeeping, not part of the SDK contract.
const MarkerAttr = "data-absmartly-inserted"

// Attributes never removed by an attribute change in replace mode.
var protectedAttributes = map[string]struct{}{
	"id":                    {},
	"class":                 {},
	"style":                 {},
	models.AttrOriginal:     {},
	models.AttrModified:     {},
	models.AttrExperiment:   {},
	MarkerAttr:              {},
}

// ApplyChange validates the change, captures the pre-change snapshot, applies
// the mutation, and notifies observers with the internal-write flag set so the
// mutation observer does not re-enter on the editor's own writes.
func (d *Document) ApplyChange(change models.Change) (models.Snapshot, error) {
	if err := change.Validate(); err != nil {
		return models.Snapshot{}, err
	}
	if !change.Enabled {
		d.logger.Debug().Str("selector", change.Selector).Str("type", string(change.Type)).Msg("Skipping disabled change")
		return models.Snapshot{}, nil
	}

	var snap models.Snapshot
	var err error
	d.WithInternalWrite(func() {
		snap, err = d.applyChange(change)
		if err == nil {
			d.NotifyMutated()
		}
	})
	if err != nil {
		return models.Snapshot{}, err
	}

	d.logger.Debug().
		Str("selector", change.Selector).
		Str("type", string(change.Type)).
		Uint64("revision", d.revision).
		Msg("Applied change")
	return snap, nil
}

func (d *Document) applyChange(change models.Change) (models.Snapshot, error) {
	var snap models.Snapshot

	switch change.Type {
	case models.ChangeTypeText:
		sel, err := d.Query(change.Selector)
		if err != nil {
			return snap, err
		}
		snap.Text = models.StringPtr(sel.Text())
		snap.ElementPath = structuralPath(sel.Nodes[0])
		sel.SetText(change.Value)

	case models.ChangeTypeHTML:
		sel, err := d.Query(change.Selector)
		if err != nil {
			return snap, err
		}
		if d.IsProtected(sel) {
			return snap, common.WrapErrorf(common.ErrProtectedElement, "refusing html change on <%s>", goquery.NodeName(sel))
		}
		inner, err := sel.Html()
		if err != nil {
			return snap, common.WrapError(err, "failed to capture innerHTML")
		}
		snap.InnerHTML = models.StringPtr(inner)
		snap.ElementPath = structuralPath(sel.Nodes[0])
		sel.SetHtml(change.Value)

	case models.ChangeTypeStyle:
		sel, err := d.Query(change.Selector)
		if err != nil {
			return snap, err
		}
		snap.ElementPath = structuralPath(sel.Nodes[0])
		snap.Styles, snap.RemovedStyles = SetStyleProperties(sel, change.ValueMap, change.EffectiveMode())

	case models.ChangeTypeStyleRules:
		snap.States = cloneStates(d.styleSheet.States(change.Selector))
		snap.Important = d.styleSheet.important[change.Selector]
		d.styleSheet.Set(change.Selector, cloneStates(change.States), change.Important)
		d.syncStyleSheet()

	case models.ChangeTypeClass:
		sel, err := d.Query(change.Selector)
		if err != nil {
			return snap, err
		}
		if classAttr, ok := sel.Attr("class"); ok {
			snap.ClassAttr = models.StringPtr(classAttr)
		}
		snap.ElementPath = structuralPath(sel.Nodes[0])
		if change.EffectiveMode() == models.ApplyModeReplace {
			sel.RemoveAttr("class")
			if len(change.Add) > 0 {
				sel.AddClass(change.Add...)
			}
		} else {
			if len(change.Remove) > 0 {
				sel.RemoveClass(change.Remove...)
			}
			if len(change.Add) > 0 {
				sel.AddClass(change.Add...)
			}
		}

	case models.ChangeTypeAttribute:
		sel, err := d.Query(change.Selector)
		if err != nil {
			return snap, err
		}
		snap.ElementPath = structuralPath(sel.Nodes[0])
		snap.Attributes, snap.RemovedAttributes = setAttributes(sel, change.ValueMap, change.EffectiveMode())

	case models.ChangeTypeRemove:
		sel, err := d.Query(change.Selector)
		if err != nil {
			return snap, err
		}
		if d.IsProtected(sel) {
			return snap, common.WrapErrorf(common.ErrProtectedElement, "refusing to remove <%s>", goquery.NodeName(sel))
		}
		outer, err := OuterHTML(sel)
		if err != nil {
			return snap, err
		}
		snap.OuterHTML = models.StringPtr(outer)
		snap.ParentSelector = structuralPath(sel.Nodes[0].Parent)
		snap.SiblingIndex = ElementIndex(sel.Nodes[0])
		sel.Remove()

	case models.ChangeTypeInsert:
		sel, err := d.Query(change.Selector)
		if err != nil {
			return snap, err
		}
		markerID, err := d.insertMarkedHTML(sel, change.HTML, change.Position)
		if err != nil {
			return snap, err
		}
		snap.MarkerID = markerID

	case models.ChangeTypeMove:
		sel, err := d.Query(change.Selector)
		if err != nil {
			return snap, err
		}
		if d.IsProtected(sel) {
			return snap, common.WrapErrorf(common.ErrProtectedElement, "refusing to move <%s>", goquery.NodeName(sel))
		}
		target, err := d.Query(change.TargetSelector)
		if err != nil {
			return snap, common.WrapError(err, "move target")
		}
		snap.ParentSelector = structuralPath(sel.Nodes[0].Parent)
		snap.SiblingIndex = ElementIndex(sel.Nodes[0])
		moveSelection(target, sel, change.Position)
		// Recorded after the move so undo can find the element where it landed.
		snap.ElementPath = structuralPath(sel.Nodes[0])

	case models.ChangeTypeCreate:
		target, err := d.Query(change.TargetSelector)
		if err != nil {
			return snap, common.WrapError(err, "create target")
		}
		markerID, err := d.insertMarkedHTML(target, change.Element, change.Position)
		if err != nil {
			return snap, err
		}
		snap.MarkerID = markerID

	default:
		return snap, common.NewError("unknown change type %q", change.Type)
	}

	return snap, nil
}

// RevertChange applies the inverse of a change using the snapshot captured
// when it was applied. Observers see the reversal as an internal write.
func (d *Document) RevertChange(change models.Change, snap models.Snapshot) error {
	var err error
	d.WithInternalWrite(func() {
		err = d.revertChange(change, snap)
		if err == nil {
			d.NotifyMutated()
		}
	})
	if err != nil {
		return err
	}

	d.logger.Debug().
		Str("selector", change.Selector).
		Str("type", string(change.Type)).
		Msg("Reverted change")
	return nil
}

// revertTarget locates the element a revert operates on. The structural path
// recorded at apply time takes precedence because the user-facing selector may
// no longer match once the change rewrote the class or id it was built from.
func (d *Document) revertTarget(change models.Change, snap models.Snapshot) (*goquery.Selection, error) {
	if snap.ElementPath != "" {
		if sel, err := d.Query(snap.ElementPath); err == nil {
			return sel, nil
		}
	}
	return d.Query(change.Selector)
}

func (d *Document) revertChange(change models.Change, snap models.Snapshot) error {
	switch change.Type {
	case models.ChangeTypeText:
		sel, err := d.revertTarget(change, snap)
		if err != nil {
			return err
		}
		if snap.Text != nil {
			sel.SetText(*snap.Text)
		}

	case models.ChangeTypeHTML:
		sel, err := d.revertTarget(change, snap)
		if err != nil {
			return err
		}
		if snap.InnerHTML != nil {
			sel.SetHtml(*snap.InnerHTML)
		}

	case models.ChangeTypeStyle:
		sel, err := d.revertTarget(change, snap)
		if err != nil {
			return err
		}
		RestoreStyleProperties(sel, snap.Styles, snap.RemovedStyles)

	case models.ChangeTypeStyleRules:
		d.styleSheet.Set(change.Selector, cloneStates(snap.States), snap.Important)
		d.syncStyleSheet()

	case models.ChangeTypeClass:
		sel, err := d.revertTarget(change, snap)
		if err != nil {
			return err
		}
		if snap.ClassAttr == nil {
			sel.RemoveAttr("class")
		} else {
			sel.SetAttr("class", *snap.ClassAttr)
		}

	case models.ChangeTypeAttribute:
		sel, err := d.revertTarget(change, snap)
		if err != nil {
			return err
		}
		for name, value := range snap.Attributes {
			sel.SetAttr(name, value)
		}
		for _, name := range snap.RemovedAttributes {
			sel.RemoveAttr(name)
		}

	case models.ChangeTypeRemove:
		if snap.OuterHTML == nil {
			return common.NewError("remove snapshot is missing outerHTML")
		}
		return d.insertAtIndex(snap.ParentSelector, snap.SiblingIndex, *snap.OuterHTML)

	case models.ChangeTypeInsert, models.ChangeTypeCreate:
		if snap.MarkerID == "" {
			return common.NewError("insert snapshot is missing marker id")
		}
		d.QueryAll(markerSelector(snap.MarkerID)).Remove()

	case models.ChangeTypeMove:
		sel, err := d.revertTarget(change, snap)
		if err != nil {
			return err
		}
		parent, err := d.Query(snap.ParentSelector)
		if err != nil {
			return common.WrapError(err, "move revert parent")
		}
		// Exclude the moved element itself so the recorded index lines up when
		// the move stayed within the same parent.
		children := parent.Children().NotSelection(sel)
		if snap.SiblingIndex >= 0 && snap.SiblingIndex < children.Length() {
			children.Eq(snap.SiblingIndex).BeforeSelection(sel)
		} else {
			parent.AppendSelection(sel)
		}

	default:
		return common.NewError("unknown change type %q", change.Type)
	}

	return nil
}

// insertMarkedHTML parses the fragment, stamps the marker attribute on its
// top-level elements, and inserts it relative to the reference element.
func (d *Document) insertMarkedHTML(ref *goquery.Selection, fragment string, position models.InsertPosition) (string, error) {
	d.markerSeq++
	markerID := fmt.Sprintf("m%d", d.markerSeq)

	marked, err := markFragment(fragment, markerID)
	if err != nil {
		return "", err
	}

	switch position {
	case models.PositionBefore:
		ref.BeforeHtml(marked)
	case models.PositionAfter:
		ref.AfterHtml(marked)
	case models.PositionFirstChild:
		ref.PrependHtml(marked)
	case models.PositionLastChild:
		ref.AppendHtml(marked)
	default:
		return "", common.NewValidationError("position", position, "unknown insert position")
	}
	return markerID, nil
}

func moveSelection(target, moved *goquery.Selection, position models.InsertPosition) {
	switch position {
	case models.PositionBefore:
		target.BeforeSelection(moved)
	case models.PositionAfter:
		target.AfterSelection(moved)
	case models.PositionFirstChild:
		target.PrependSelection(moved)
	case models.PositionLastChild:
		target.AppendSelection(moved)
	}
}

// insertAtIndex re-inserts serialized HTML among the element children of the
// parent located by its structural path.
func (d *Document) insertAtIndex(parentSelector string, index int, outerHTML string) error {
	parent, err := d.Query(parentSelector)
	if err != nil {
		return common.WrapError(err, "restore parent")
	}
	children := parent.Children()
	if index >= 0 && index < children.Length() {
		children.Eq(index).BeforeHtml(outerHTML)
		return nil
	}
	parent.AppendHtml(outerHTML)
	return nil
}

// markFragment parses an HTML fragment and stamps MarkerAttr on each top-level
// element node, returning the re-serialized fragment.
func markFragment(fragment, markerID string) (string, error) {
	context := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), context)
	if err != nil {
		return "", common.WrapError(err, "failed to parse HTML fragment")
	}

	var b strings.Builder
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			n.Attr = append(n.Attr, html.Attribute{Key: MarkerAttr, Val: markerID})
		}
		if err := html.Render(&b, n); err != nil {
			return "", common.WrapError(err, "failed to render HTML fragment")
		}
	}
	return b.String(), nil
}

func markerSelector(markerID string) string {
	return "[" + MarkerAttr + "='" + markerID + "']"
}

// structuralPath derives a deterministic tag:nth-child path for a node. It is
// used only inside snapshots to relocate parents during undo, never exposed as
// a user-facing selector.
func structuralPath(n *html.Node) string {
	if n == nil {
		return ""
	}
	var segments []string
	for cur := n; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		switch cur.Data {
		case "html", "body", "head":
			segments = append(segments, cur.Data)
		default:
			segments = append(segments, fmt.Sprintf("%s:nth-child(%d)", cur.Data, NthChildIndex(cur)))
		}
	}
	// Reverse into document order.
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return strings.Join(segments, " > ")
}

// setAttributes applies an attribute map honoring merge/replace mode. In merge
// mode an empty value removes the attribute. In replace mode all attributes
// except id, class, style and the editor/SDK bookkeeping attributes are
// cleared first; a protected attribute the incoming map itself rewrites still
// has its prior value recorded so undo can put it back.
func setAttributes(sel *goquery.Selection, attrs map[string]string, mode models.ApplyMode) (prior map[string]string, absent []string) {
	prior = make(map[string]string)

	if mode == models.ApplyModeReplace && len(sel.Nodes) > 0 {
		for _, attr := range sel.Nodes[0].Attr {
			if _, protected := protectedAttributes[attr.Key]; protected {
				if _, incoming := attrs[attr.Key]; !incoming {
					continue
				}
			}
			prior[attr.Key] = attr.Val
		}
		for name := range prior {
			sel.RemoveAttr(name)
		}
		for name := range attrs {
			if _, had := prior[name]; !had {
				absent = append(absent, name)
			}
		}
	} else {
		for name := range attrs {
			if value, had := sel.Attr(name); had {
				prior[name] = value
			} else {
				absent = append(absent, name)
			}
		}
	}
	sort.Strings(absent)

	for name, value := range attrs {
		if value == "" && mode != models.ApplyModeReplace {
			sel.RemoveAttr(name)
			continue
		}
		sel.SetAttr(name, value)
	}
	return prior, absent
}

func cloneStates(in map[models.StyleState]map[string]string) map[models.StyleState]map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[models.StyleState]map[string]string, len(in))
	for state, props := range in {
		cp := make(map[string]string, len(props))
		for k, v := range props {
			cp[k] = v
		}
		out[state] = cp
	}
	return out
}
