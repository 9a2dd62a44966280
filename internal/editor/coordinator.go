// Package editor implements the event and edit-mode coordinator: it turns
// discrete user actions into committed change records, keeps the live
// document, the session state and the undo/redo history consistent, and tears
// everything down again on exit.
package editor

import (
	"encoding/json"

	"github.com/PuerkitoBio/goquery"
	"github.com/absmartly/domeditor/internal/common"
	"github.com/absmartly/domeditor/internal/config"
	"github.com/absmartly/domeditor/internal/differ"
	"github.com/absmartly/domeditor/internal/dom"
	"github.com/absmartly/domeditor/internal/history"
	"github.com/absmartly/domeditor/internal/models"
	"github.com/absmartly/domeditor/internal/sanitizer"
	"github.com/absmartly/domeditor/internal/selector"
	"github.com/atotto/clipboard"
	"github.com/rs/zerolog"
)

// EditorUIAttr marks DOM nodes owned by the editor UI (menus, banners,
// tooltips, placeholders, resize handles) so cleanup can remove them by
// attribute.
const EditorUIAttr = "data-absmartly-editor-ui"

// ActiveAttr marks the document body while an editing session is active.
const ActiveAttr = "data-absmartly-editor-active"

// HiddenAttr stores the prior inline display value of page chrome the editor
// hid (e.g. a preview banner), so cleanup can restore it.
const HiddenAttr = "data-absmartly-editor-hidden"

// editableClass is the marker class stamped on elements while the session is
// active. Selector resolution filters the marker prefix, so it never leaks
// into generated selectors.
const editableClass = models.MarkerClassPrefix + "editable"

// Coordinator owns one editing session over one document. All methods run on
// the editor's single goroutine.
type Coordinator struct {
	logger zerolog.Logger
	cfg    config.EditorConfig

	doc       *dom.Document
	history   *history.Manager
	selectors *selector.Generator
	sanitize  *sanitizer.Sanitizer
	diff      *differ.ContentDiffer

	dialogs  Dialogs
	notifier Notifier

	session *Session

	// clipboardWrite is injectable so tests do not touch the system clipboard.
	clipboardWrite func(text string) error

	// editing holds the original state captured when an inline edit began.
	// Nil outside the TextEditing phase.
	editing *originalState

	// openDialog names the dialog type currently showing. Only one dialog may
	// be open at a time per session.
	openDialog string

	// htmlEdited records selectors that received a committed html change, the
	// only elements RestoreElement may restore innerHTML on.
	htmlEdited map[string]struct{}

	// teardowns are closures registered during setup and invoked, each
	// individually fault-tolerant, during cleanup.
	teardowns []func() error
}

// NewCoordinator builds a coordinator for one editing session.
func NewCoordinator(
	cfg config.EditorConfig,
	doc *dom.Document,
	selectors *selector.Generator,
	sanitize *sanitizer.Sanitizer,
	dialogs Dialogs,
	logger zerolog.Logger,
) *Coordinator {
	componentLogger := logger.With().Str("component", "Coordinator").Logger()
	return &Coordinator{
		logger:         componentLogger,
		cfg:            cfg,
		doc:            doc,
		history:        history.NewManager(cfg.HistoryMaxStackSize, logger),
		selectors:      selectors,
		sanitize:       sanitize,
		diff:           differ.NewContentDiffer(logger),
		dialogs:        dialogs,
		notifier:       nopNotifier{},
		session:        NewSession(),
		clipboardWrite: clipboard.WriteAll,
		htmlEdited:     make(map[string]struct{}),
	}
}

// SetNotifier replaces the notice sink. Nil restores the no-op default.
func (c *Coordinator) SetNotifier(n Notifier) {
	if n == nil {
		n = nopNotifier{}
	}
	c.notifier = n
}

// SetClipboardWriter replaces the clipboard sink, used by tests.
func (c *Coordinator) SetClipboardWriter(fn func(string) error) {
	if fn != nil {
		c.clipboardWrite = fn
	}
}

// Session exposes the shared session state for UI collaborators.
func (c *Coordinator) Session() *Session {
	return c.session
}

// History exposes the undo/redo manager, mainly for counters and tests.
func (c *Coordinator) History() *history.Manager {
	return c.history
}

// Document returns the document under edit.
func (c *Coordinator) Document() *dom.Document {
	return c.doc
}

// SelectElement resolves the selector, makes its first match the current
// selection and stamps the original-snapshot attribute if not already present.
func (c *Coordinator) SelectElement(sel string) error {
	if !c.session.IsActive() {
		return common.ErrSessionInactive
	}
	if c.session.listenersSuspended {
		c.logger.Debug().Str("selector", sel).Msg("Selection ignored while listeners are suspended")
		return nil
	}
	if c.session.Phase() == PhaseTextEditing {
		c.logger.Debug().Str("selector", sel).Msg("Selection ignored during inline edit")
		return nil
	}

	target, err := c.doc.Query(sel)
	if err != nil {
		return err
	}
	c.stampOriginal(target)
	c.session.setSelected(target, sel)
	c.logger.Debug().Str("selector", sel).Msg("Element selected")
	return nil
}

// HoverElement updates the hover target used by tooltip collaborators.
func (c *Coordinator) HoverElement(sel string) error {
	if !c.session.IsActive() || c.session.listenersSuspended {
		return nil
	}
	target, err := c.doc.Query(sel)
	if err != nil {
		return err
	}
	c.session.setHovered(target, sel)
	return nil
}

// ClearSelection drops the current selection and hover target.
func (c *Coordinator) ClearSelection() {
	c.session.setSelected(nil, "")
	c.session.setHovered(nil, "")
}

// Ancestor is one entry of the relative-reselection chain.
type Ancestor struct {
	Selector string
	Tag      string
}

// AncestorChain returns the selection's ancestors from the nearest non-body
// ancestor up to and including body, for the relative-reselection panel.
func (c *Coordinator) AncestorChain() ([]Ancestor, error) {
	sel, _ := c.session.Selected()
	if sel == nil {
		return nil, common.NewValidationError("selection", nil, "no element is selected")
	}

	var chain []Ancestor
	for parent := sel.Parent(); parent.Length() > 0; parent = parent.Parent() {
		tag := goquery.NodeName(parent)
		if tag == "html" || tag == "#document" {
			break
		}
		ancestorSelector, err := c.selectors.Generate(parent, c.selectors.DefaultOptions())
		if err != nil {
			return nil, common.WrapError(err, "failed to resolve ancestor selector")
		}
		chain = append(chain, Ancestor{Selector: ancestorSelector, Tag: tag})
		if tag == "body" {
			break
		}
	}
	return chain, nil
}

// SelectAncestor moves the selection to an ancestor chosen from the chain,
// stamping it with the original snapshot if needed.
func (c *Coordinator) SelectAncestor(ancestorSelector string) error {
	target, err := c.doc.Query(ancestorSelector)
	if err != nil {
		return err
	}
	c.stampOriginal(target)
	c.session.setSelected(target, ancestorSelector)
	c.logger.Debug().Str("selector", ancestorSelector).Msg("Reselected ancestor")
	return nil
}

// Apply validates and applies a change to the document, records it in history
// and stamps the touched element with the SDK bookkeeping attributes. This is
// the single commit path every edit flow funnels through.
func (c *Coordinator) Apply(change models.Change) error {
	if !c.session.IsActive() {
		return common.ErrSessionInactive
	}

	// Stamp the original snapshot before mutating so it records pre-change
	// state. Insert/create have no pre-existing element at the selector.
	switch change.Type {
	case models.ChangeTypeInsert, models.ChangeTypeCreate:
	default:
		if target, err := c.doc.Query(change.Selector); err == nil {
			c.stampOriginal(target)
		}
	}

	snap, err := c.doc.ApplyChange(change)
	if err != nil {
		return err
	}
	c.commit(change, snap)
	return nil
}

// commit records an already-applied change and refreshes bookkeeping.
func (c *Coordinator) commit(change models.Change, snap models.Snapshot) {
	c.history.AddChange(change, snap)
	if change.Type == models.ChangeTypeHTML {
		c.htmlEdited[change.Selector] = struct{}{}
	}

	// Remove and move leave nothing (or a relocated element) to stamp at the
	// original selector; insert/create content carries the marker attribute.
	switch change.Type {
	case models.ChangeTypeRemove, models.ChangeTypeInsert, models.ChangeTypeCreate:
	default:
		if target, err := c.doc.Query(change.Selector); err == nil {
			c.stampModified(target)
		}
	}

	c.session.Changes = c.history.SquashChanges()
}

// Undo reverts the most recent change on the document. A false result means
// there was nothing to undo.
func (c *Coordinator) Undo() (bool, error) {
	record := c.history.Undo()
	if record == nil {
		return false, nil
	}
	if err := c.doc.RevertChange(record.Change, record.OldValue); err != nil {
		return false, common.WrapError(err, "undo failed to revert document")
	}
	c.session.Changes = c.history.SquashChanges()
	return true, nil
}

// Redo reapplies the most recently undone change. A false result means there
// was no redo tail.
func (c *Coordinator) Redo() (bool, error) {
	record := c.history.Redo()
	if record == nil {
		return false, nil
	}
	if _, err := c.doc.ApplyChange(record.Change); err != nil {
		return false, common.WrapError(err, "redo failed to reapply change")
	}
	c.session.Changes = c.history.SquashChanges()
	return true, nil
}

// SquashChanges returns the minimal persistable changeset for the session.
func (c *Coordinator) SquashChanges() []models.Change {
	return c.history.SquashChanges()
}

// CopySelector copies the current selection's resolved selector to the
// clipboard.
func (c *Coordinator) CopySelector() error {
	_, sel := c.session.Selected()
	if sel == "" {
		return common.NewValidationError("selection", nil, "no element is selected")
	}
	if err := c.clipboardWrite(sel); err != nil {
		return common.WrapError(err, "failed to copy selector to clipboard")
	}
	c.notifier.Info("Selector copied to clipboard")
	return nil
}

// experimentID returns the value stamped into the experiment attribute,
// falling back to the preview sentinel for sessions without a persisted
// experiment.
func (c *Coordinator) experimentID() string {
	if c.cfg.ExperimentID != "" {
		return c.cfg.ExperimentID
	}
	return models.ExperimentPreviewSentinel
}

// stampOriginal writes the original-snapshot attribute if the element does not
// carry one yet. The snapshot is the trimmed text+styles form the page SDK
// reads, not the full reversal snapshot held in history.
func (c *Coordinator) stampOriginal(sel *goquery.Selection) {
	if c.doc.IsProtected(sel) {
		return
	}
	if _, has := sel.Attr(models.AttrOriginal); has {
		return
	}
	snapshot := models.Snapshot{
		Text:   models.StringPtr(sel.Text()),
		Styles: stampedStyles(sel),
	}
	if inner, err := sel.Html(); err == nil {
		snapshot.InnerHTML = models.StringPtr(inner)
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to marshal original snapshot")
		return
	}
	c.doc.WithInternalWrite(func() {
		sel.SetAttr(models.AttrOriginal, string(payload))
	})
}

// stampModified marks an element as touched by this session.
func (c *Coordinator) stampModified(sel *goquery.Selection) {
	c.stampOriginal(sel)
	c.doc.WithInternalWrite(func() {
		sel.SetAttr(models.AttrModified, "true")
		sel.SetAttr(models.AttrExperiment, c.experimentID())
	})
}

// stampedStyles records the inline width/height at snapshot time; these are
// the only style properties bulk cleanup restores.
func stampedStyles(sel *goquery.Selection) map[string]string {
	style, _ := sel.Attr("style")
	if style == "" {
		return nil
	}
	props := dom.ParseInlineStyle(style)
	out := make(map[string]string, 2)
	for _, name := range []string{"width", "height"} {
		if value, ok := props[name]; ok {
			out[name] = value
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
