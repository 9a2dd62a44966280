package editor

import "strings"

// KeyEvent is a normalized keyboard event as delivered by the host
// environment. Key carries the logical key name ("z", "Escape", "Delete").
type KeyEvent struct {
	Key   string
	Ctrl  bool
	Meta  bool
	Shift bool
}

func (e KeyEvent) primary() bool {
	return e.Ctrl || e.Meta
}

// HandleKey dispatches keyboard shortcuts. It reports whether the event was
// consumed so the host can decide whether to propagate it to the page.
//
// Shortcuts: Ctrl/Cmd+Shift+C copies the selection's selector, Ctrl/Cmd+Z
// undoes, Ctrl/Cmd+Y or Ctrl/Cmd+Shift+Z redoes, Delete removes the selection,
// Escape exits the editor unless an inline edit is in progress, in which case
// the edit consumes it as a cancel. The exit's cleanup mode follows
// ExitRestoresChanges so preview sessions keep their applied values.
func (c *Coordinator) HandleKey(ev KeyEvent) (bool, error) {
	if !c.session.IsActive() {
		return false, nil
	}

	key := strings.ToLower(ev.Key)

	switch {
	case key == "escape":
		if c.session.Phase() == PhaseTextEditing {
			return true, c.CancelTextEdit()
		}
		return true, c.TeardownAll(c.cfg.ExitRestoresChanges)

	case key == "c" && ev.primary() && ev.Shift:
		return true, c.CopySelector()

	case key == "z" && ev.primary() && !ev.Shift:
		_, err := c.Undo()
		return true, err

	case (key == "y" && ev.primary()) || (key == "z" && ev.primary() && ev.Shift):
		_, err := c.Redo()
		return true, err

	case key == "delete":
		if c.session.Phase() == PhaseTextEditing {
			return false, nil
		}
		if sel, _ := c.session.Selected(); sel == nil {
			return false, nil
		}
		return true, c.DeleteSelected()
	}

	return false, nil
}
