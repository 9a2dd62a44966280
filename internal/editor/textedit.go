package editor

import (
	"github.com/absmartly/domeditor/internal/common"
	"github.com/absmartly/domeditor/internal/dom"
	"github.com/absmartly/domeditor/internal/models"
)

// EditOutcome states how an edit flow ended.
type EditOutcome string

const (
	OutcomeCommitted EditOutcome = "committed"
	OutcomeCancelled EditOutcome = "cancelled"
)

// EditResult is the explicit result of an edit flow. Cancelled results carry
// no change and leave history untouched.
type EditResult struct {
	Outcome EditOutcome
	Change  *models.Change
}

func committed(change models.Change) EditResult {
	return EditResult{Outcome: OutcomeCommitted, Change: &change}
}

func cancelled() EditResult {
	return EditResult{Outcome: OutcomeCancelled}
}

// originalState is the content captured when an inline edit begins, used for
// the blur-commit old/new pair and for Escape cancellation.
type originalState struct {
	selector    string
	textContent string
	innerHTML   string
	hasChildren bool
}

// BeginTextEdit enters the inline editing sub-state on the current selection,
// capturing its content as the original state.
func (c *Coordinator) BeginTextEdit() error {
	if !c.session.IsActive() {
		return common.ErrSessionInactive
	}
	if c.session.Phase() == PhaseTextEditing {
		return common.NewValidationError("phase", c.session.Phase().String(), "an inline edit is already in progress")
	}
	sel, selStr := c.session.Selected()
	if sel == nil {
		return common.NewValidationError("selection", nil, "no element is selected")
	}

	inner, err := sel.Html()
	if err != nil {
		return common.WrapError(err, "failed to capture innerHTML for inline edit")
	}
	c.editing = &originalState{
		selector:    selStr,
		textContent: sel.Text(),
		innerHTML:   inner,
		hasChildren: dom.HasElementChildren(sel),
	}
	c.session.phase = PhaseTextEditing
	c.logger.Debug().Str("selector", selStr).Msg("Inline edit started")
	return nil
}

// CommitTextEdit ends the inline edit with the element's final content. When
// the element had child elements the commit is an html change to preserve
// structure; otherwise it is a text change. Unchanged content commits nothing.
func (c *Coordinator) CommitTextEdit(newContent string) (EditResult, error) {
	state, err := c.endTextEdit()
	if err != nil {
		return cancelled(), err
	}

	var change models.Change
	if state.hasChildren {
		if newContent == state.innerHTML {
			return cancelled(), nil
		}
		change = models.Change{
			Selector: state.selector,
			Type:     models.ChangeTypeHTML,
			Enabled:  true,
			Value:    newContent,
		}
	} else {
		if newContent == state.textContent {
			return cancelled(), nil
		}
		change = models.Change{
			Selector: state.selector,
			Type:     models.ChangeTypeText,
			Enabled:  true,
			Value:    newContent,
		}
	}

	if err := c.Apply(change); err != nil {
		return cancelled(), err
	}
	return committed(change), nil
}

// CancelTextEdit ends the inline edit restoring the original text content
// without recording a change.
func (c *Coordinator) CancelTextEdit() error {
	state, err := c.endTextEdit()
	if err != nil {
		return err
	}

	sel, queryErr := c.doc.Query(state.selector)
	if queryErr != nil {
		return common.WrapError(queryErr, "cancel could not relocate the edited element")
	}
	c.doc.WithInternalWrite(func() {
		sel.SetText(state.textContent)
		c.doc.NotifyMutated()
	})
	c.logger.Debug().Str("selector", state.selector).Msg("Inline edit cancelled")
	return nil
}

func (c *Coordinator) endTextEdit() (*originalState, error) {
	if c.session.Phase() != PhaseTextEditing || c.editing == nil {
		return nil, common.NewValidationError("phase", c.session.Phase().String(), "no inline edit is in progress")
	}
	state := c.editing
	c.editing = nil
	c.session.phase = PhaseActive
	return state, nil
}
