package editor

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"github.com/absmartly/domeditor/internal/common"
	"github.com/absmartly/domeditor/internal/dom"
	"github.com/absmartly/domeditor/internal/messaging"
)

// ExitMessageType is the cross-context message that tears the editor down,
// posted by the sidebar when the user exits from outside the page.
const ExitMessageType = "exit-visual-editor"

// SetupAll activates the editing session: wires the history changed-callback,
// starts the mutation observer, marks page elements editable and installs the
// activation marker. The session moves Inactive to Active.
func (c *Coordinator) SetupAll() error {
	if c.session.IsActive() {
		return common.NewValidationError("phase", c.session.Phase().String(), "session is already active")
	}

	c.history.SetOnChanged(func(undoCount, redoCount int) {
		c.session.UndoCount = undoCount
		c.session.RedoCount = redoCount
		c.logger.Debug().Int("undo", undoCount).Int("redo", redoCount).Msg("History counters changed")
	})

	c.doc.Observe(c.onMutation)

	c.doc.WithInternalWrite(func() {
		c.doc.Body().SetAttr(ActiveAttr, "true")
		c.markEditable()
	})

	c.registerTeardown(func() error {
		c.doc.WithInternalWrite(c.unmarkEditable)
		return nil
	})

	c.session.phase = PhaseActive
	c.logger.Info().Msg("Editing session activated")
	return nil
}

// TeardownAll deactivates the session: Cleanup runs first, then a redundant
// safety-net pass re-removes the observer, the editable marking and the UI
// nodes in case a collaborator never registered its teardown.
func (c *Coordinator) TeardownAll(restoreOriginalValues bool) error {
	if !c.session.IsActive() {
		return nil
	}

	err := c.Cleanup(restoreOriginalValues)

	c.doc.ClearObservers()
	c.doc.WithInternalWrite(func() {
		c.unmarkEditable()
		c.doc.QueryAll("[" + EditorUIAttr + "]").Remove()
		c.doc.Body().RemoveAttr(ActiveAttr)
	})

	c.logger.Info().Bool("restore", restoreOriginalValues).Msg("Editing session deactivated")
	return err
}

// RegisterExitHandler subscribes the coordinator to the exit message on the
// given bus destination. Any other message type passes through unanswered.
func (c *Coordinator) RegisterExitHandler(bus *messaging.LocalBus, destination string) {
	bus.Register(destination, func(ctx context.Context, msg messaging.Envelope) (*messaging.Envelope, error) {
		if msg.Type != ExitMessageType {
			return nil, nil
		}
		c.logger.Info().Str("from", msg.From).Msg("Exit requested via message")
		return nil, c.TeardownAll(c.cfg.ExitRestoresChanges)
	})
}

// HidePageChrome hides an element (e.g. a preview banner) for the duration of
// the session, recording its prior display value for cleanup to restore.
func (c *Coordinator) HidePageChrome(selectorStr string) error {
	sel, err := c.doc.Query(selectorStr)
	if err != nil {
		return err
	}
	c.doc.WithInternalWrite(func() {
		style, _ := sel.Attr("style")
		props := dom.ParseInlineStyle(style)
		sel.SetAttr(HiddenAttr, props["display"])
		props["display"] = "none"
		sel.SetAttr("style", dom.SerializeInlineStyle(props))
	})
	return nil
}

// onMutation receives every document mutation. Editor-initiated writes are
// ignored to avoid feedback loops. External structural changes are observed
// but not reconciled; this stays an extension point.
func (c *Coordinator) onMutation(revision uint64, internal bool) {
	if internal {
		return
	}
	c.logger.Debug().Uint64("revision", revision).Msg("External DOM mutation observed")
}

// markEditable stamps the editable marker class on every element under body.
func (c *Coordinator) markEditable() {
	c.doc.Body().Find("*").Each(func(_ int, sel *goquery.Selection) {
		if _, owned := sel.Attr(EditorUIAttr); owned {
			return
		}
		sel.AddClass(editableClass)
	})
}

func (c *Coordinator) unmarkEditable() {
	c.doc.QueryAll("." + editableClass).RemoveClass(editableClass)
}
