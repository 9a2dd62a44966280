package editor

import (
	"context"
	"fmt"

	"github.com/absmartly/domeditor/internal/common"
	"github.com/absmartly/domeditor/internal/dom"
	"github.com/absmartly/domeditor/internal/models"
)

// MenuAction is the closed set of context-menu actions. Unknown values reach
// the dispatch default case and are a hard error, never silently ignored.
type MenuAction int

const (
	ActionEditText MenuAction = iota
	ActionEditHTML
	ActionInsertBlock
	ActionMoveUp
	ActionMoveDown
	ActionHide
	ActionDelete
	ActionCopy
	ActionCopySelectorPath
	ActionChangeImageSource
)

func (a MenuAction) String() string {
	switch a {
	case ActionEditText:
		return "editText"
	case ActionEditHTML:
		return "editHTML"
	case ActionInsertBlock:
		return "insertBlock"
	case ActionMoveUp:
		return "moveUp"
	case ActionMoveDown:
		return "moveDown"
	case ActionHide:
		return "hide"
	case ActionDelete:
		return "delete"
	case ActionCopy:
		return "copy"
	case ActionCopySelectorPath:
		return "copySelectorPath"
	case ActionChangeImageSource:
		return "changeImageSource"
	default:
		return fmt.Sprintf("MenuAction(%d)", int(a))
	}
}

// HandleMenuAction routes a context-menu action. The currently selected
// element always wins over the element the menu was invoked on, so actions
// triggered from the ancestor panel operate on the right target.
func (c *Coordinator) HandleMenuAction(ctx context.Context, action MenuAction, invokedOn string) error {
	if !c.session.IsActive() {
		return common.ErrSessionInactive
	}

	if _, selected := c.session.Selected(); selected == "" && invokedOn != "" {
		if err := c.SelectElement(invokedOn); err != nil {
			return err
		}
	}

	c.logger.Debug().Str("action", action.String()).Msg("Dispatching menu action")

	switch action {
	case ActionEditText:
		return c.BeginTextEdit()
	case ActionEditHTML:
		_, err := c.EditHTML(ctx)
		return err
	case ActionInsertBlock:
		_, err := c.InsertBlock(ctx)
		return err
	case ActionMoveUp:
		return c.moveSelected(true)
	case ActionMoveDown:
		return c.moveSelected(false)
	case ActionHide:
		return c.hideSelected()
	case ActionDelete:
		return c.DeleteSelected()
	case ActionCopy:
		return c.copySelectedHTML()
	case ActionCopySelectorPath:
		return c.CopySelector()
	case ActionChangeImageSource:
		_, err := c.ChangeImageSource(ctx)
		return err
	default:
		return common.NewError("unknown menu action %q", action.String())
	}
}

// DeleteSelected removes the selected element and commits a remove change.
// The pre-removal outerHTML snapshot captured during apply makes it undoable.
func (c *Coordinator) DeleteSelected() error {
	sel, selStr := c.session.Selected()
	if sel == nil {
		return common.NewValidationError("selection", nil, "no element is selected")
	}
	if c.session.Phase() == PhaseTextEditing {
		return common.NewValidationError("phase", c.session.Phase().String(), "cannot delete during an inline edit")
	}

	change := models.Change{
		Selector: selStr,
		Type:     models.ChangeTypeRemove,
		Enabled:  true,
	}
	if err := c.Apply(change); err != nil {
		return err
	}
	c.ClearSelection()
	return nil
}

// moveSelected swaps the selected element with its previous or next element
// sibling via a move change. At the edge of the parent it is a no-op notice.
func (c *Coordinator) moveSelected(up bool) error {
	sel, selStr := c.session.Selected()
	if sel == nil {
		return common.NewValidationError("selection", nil, "no element is selected")
	}

	var sibling = sel.Prev()
	var position = models.PositionBefore
	if !up {
		sibling = sel.Next()
		position = models.PositionAfter
	}
	if sibling.Length() == 0 {
		c.notifier.Info("Element is already at the edge of its parent")
		return nil
	}

	siblingSelector, err := c.selectors.Generate(sibling, c.selectors.DefaultOptions())
	if err != nil {
		return common.WrapError(err, "failed to resolve sibling selector")
	}

	change := models.Change{
		Selector:       selStr,
		Type:           models.ChangeTypeMove,
		Enabled:        true,
		TargetSelector: siblingSelector,
		Position:       position,
	}
	return c.Apply(change)
}

// hideSelected hides the element with a display:none style change in merge
// mode, keeping it in the DOM so it stays selectable from the ancestor panel.
func (c *Coordinator) hideSelected() error {
	_, selStr := c.session.Selected()
	if selStr == "" {
		return common.NewValidationError("selection", nil, "no element is selected")
	}

	change := models.Change{
		Selector: selStr,
		Type:     models.ChangeTypeStyle,
		Enabled:  true,
		ValueMap: map[string]string{"display": "none"},
		Mode:     models.ApplyModeMerge,
	}
	return c.Apply(change)
}

// copySelectedHTML copies the selected element's outerHTML to the clipboard.
func (c *Coordinator) copySelectedHTML() error {
	sel, _ := c.session.Selected()
	if sel == nil {
		return common.NewValidationError("selection", nil, "no element is selected")
	}
	outer, err := dom.OuterHTML(sel)
	if err != nil {
		return err
	}
	if err := c.clipboardWrite(outer); err != nil {
		return common.WrapError(err, "failed to copy element HTML to clipboard")
	}
	c.notifier.Info("Element HTML copied to clipboard")
	return nil
}
