package editor

import "context"

// Dialog is the contract with the external dialog collaborators (HTML editor,
// block inserter, image-source prompt). Show presents the dialog for the
// element identified by selector with its current content prefilled and blocks
// until the user confirms or cancels. ok is false on cancel (Escape, Cancel
// button, backdrop click), which always means "no change". Validation of
// user-supplied content happens inline inside the dialog; Show only errors on
// infrastructure failure, never on user input.
type Dialog interface {
	Show(ctx context.Context, selector, current string) (content string, ok bool, err error)
}

// Dialogs bundles the dialog collaborators the coordinator dispatches to.
// A nil entry disables the corresponding flow.
type Dialogs struct {
	HTMLEditor    Dialog
	BlockInserter Dialog
	ImageSource   Dialog
}

// Notifier surfaces transient user-visible notices (warnings for protected
// elements, confirmations). The default implementation only logs.
type Notifier interface {
	Warn(message string)
	Info(message string)
}

type nopNotifier struct{}

func (nopNotifier) Warn(string) {}
func (nopNotifier) Info(string) {}

// dialogFunc adapts a plain function to the Dialog interface, mainly for
// tests and scripted flows.
type dialogFunc func(ctx context.Context, selector, current string) (string, bool, error)

func (f dialogFunc) Show(ctx context.Context, selector, current string) (string, bool, error) {
	return f(ctx, selector, current)
}

// DialogFunc wraps a function as a Dialog.
func DialogFunc(f func(ctx context.Context, selector, current string) (string, bool, error)) Dialog {
	return dialogFunc(f)
}
