package editor

import (
	"context"
	"testing"

	"github.com/absmartly/domeditor/internal/config"
	"github.com/absmartly/domeditor/internal/dom"
	"github.com/absmartly/domeditor/internal/models"
	"github.com/absmartly/domeditor/internal/sanitizer"
	"github.com/absmartly/domeditor/internal/selector"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPage = `<html><head><title>t</title></head><body>
<div id="wrap">
	<h1 class="title">A</h1>
	<div id="box"><p>0</p></div>
	<img id="pic" src="/a.png">
</div>
</body></html>`

type recordingNotifier struct {
	warnings []string
	infos    []string
}

func (n *recordingNotifier) Warn(msg string) { n.warnings = append(n.warnings, msg) }
func (n *recordingNotifier) Info(msg string) { n.infos = append(n.infos, msg) }

func newTestCoordinator(t *testing.T, dialogs Dialogs) (*Coordinator, *recordingNotifier) {
	t.Helper()
	return newTestCoordinatorWithConfig(t, config.NewDefaultEditorConfig(), dialogs)
}

func newTestCoordinatorWithConfig(t *testing.T, cfg config.EditorConfig, dialogs Dialogs) (*Coordinator, *recordingNotifier) {
	t.Helper()
	doc, err := dom.Parse(testPage, zerolog.Nop())
	require.NoError(t, err)

	c := NewCoordinator(
		cfg,
		doc,
		selector.NewGenerator(config.NewDefaultSelectorConfig(), zerolog.Nop()),
		sanitizer.New(config.NewDefaultSanitizerConfig(), zerolog.Nop()),
		dialogs,
		zerolog.Nop(),
	)
	notifier := &recordingNotifier{}
	c.SetNotifier(notifier)
	c.SetClipboardWriter(func(string) error { return nil })
	require.NoError(t, c.SetupAll())
	return c, notifier
}

func staticDialog(content string, ok bool) Dialog {
	return DialogFunc(func(ctx context.Context, selector, current string) (string, bool, error) {
		return content, ok, nil
	})
}

func TestSimpleTextEditSquash(t *testing.T) {
	c, _ := newTestCoordinator(t, Dialogs{})

	require.NoError(t, c.SelectElement(".title"))
	require.NoError(t, c.BeginTextEdit())
	result, err := c.CommitTextEdit("B")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCommitted, result.Outcome)

	squashed := c.SquashChanges()
	require.Len(t, squashed, 1)
	assert.Equal(t, ".title", squashed[0].Selector)
	assert.Equal(t, models.ChangeTypeText, squashed[0].Type)
	assert.Equal(t, "B", squashed[0].Value)
	assert.True(t, squashed[0].Enabled)

	sel, err := c.Document().Query(".title")
	require.NoError(t, err)
	assert.Equal(t, "B", sel.Text())
}

func TestSequentialHTMLEditsSquashToOne(t *testing.T) {
	c, _ := newTestCoordinator(t, Dialogs{})

	for _, value := range []string{"<p>1</p>", "<p>2</p>", "<p>3</p>"} {
		require.NoError(t, c.Apply(models.Change{
			Selector: "#box",
			Type:     models.ChangeTypeHTML,
			Enabled:  true,
			Value:    value,
		}))
	}
	assert.Equal(t, 3, c.History().GetUndoCount())

	squashed := c.SquashChanges()
	require.Len(t, squashed, 1)
	assert.Equal(t, "#box", squashed[0].Selector)
	assert.Equal(t, "<p>3</p>", squashed[0].Value)
}

func TestInlineEditEscapeCancels(t *testing.T) {
	c, _ := newTestCoordinator(t, Dialogs{})

	require.NoError(t, c.SelectElement(".title"))
	require.NoError(t, c.BeginTextEdit())
	assert.Equal(t, PhaseTextEditing, c.Session().Phase())

	// Escape is consumed by the text edit, not the exit shortcut.
	handled, err := c.HandleKey(KeyEvent{Key: "Escape"})
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, PhaseActive, c.Session().Phase())
	assert.True(t, c.Session().IsActive())

	sel, err := c.Document().Query(".title")
	require.NoError(t, err)
	assert.Equal(t, "A", sel.Text())
	assert.Equal(t, 0, c.History().GetUndoCount())
}

func TestInlineEditCommitsHTMLWhenElementHasChildren(t *testing.T) {
	c, _ := newTestCoordinator(t, Dialogs{})

	require.NoError(t, c.SelectElement("#box"))
	require.NoError(t, c.BeginTextEdit())
	result, err := c.CommitTextEdit("<p>edited</p>")
	require.NoError(t, err)
	require.NotNil(t, result.Change)
	assert.Equal(t, models.ChangeTypeHTML, result.Change.Type)
}

func TestInlineEditUnchangedContentCommitsNothing(t *testing.T) {
	c, _ := newTestCoordinator(t, Dialogs{})

	require.NoError(t, c.SelectElement(".title"))
	require.NoError(t, c.BeginTextEdit())
	result, err := c.CommitTextEdit("A")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCancelled, result.Outcome)
	assert.Equal(t, 0, c.History().GetUndoCount())
}

func TestHTMLEditProtectedElementRefused(t *testing.T) {
	dialogCalled := false
	c, notifier := newTestCoordinator(t, Dialogs{
		HTMLEditor: DialogFunc(func(ctx context.Context, selector, current string) (string, bool, error) {
			dialogCalled = true
			return "<p>x</p>", true, nil
		}),
	})

	require.NoError(t, c.SelectElement("body"))
	result, err := c.EditHTML(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeCancelled, result.Outcome)
	assert.False(t, dialogCalled)
	assert.NotEmpty(t, notifier.warnings)
	assert.Equal(t, 0, c.History().GetUndoCount())
}

func TestHTMLEditCancelledDialogIsNoOp(t *testing.T) {
	c, _ := newTestCoordinator(t, Dialogs{HTMLEditor: staticDialog("", false)})

	require.NoError(t, c.SelectElement("#box"))
	before, err := mustQueryHTML(c, "#box")
	require.NoError(t, err)

	result, err := c.EditHTML(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeCancelled, result.Outcome)

	after, err := mustQueryHTML(c, "#box")
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, 0, c.History().GetUndoCount())
}

func TestHTMLEditUnchangedContentIsNoOp(t *testing.T) {
	c, _ := newTestCoordinator(t, Dialogs{
		HTMLEditor: DialogFunc(func(ctx context.Context, selector, current string) (string, bool, error) {
			return current, true, nil
		}),
	})

	require.NoError(t, c.SelectElement("#box"))
	result, err := c.EditHTML(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeCancelled, result.Outcome)
	assert.Equal(t, 0, c.History().GetUndoCount())
}

func TestHTMLEditSanitizesScripts(t *testing.T) {
	c, notifier := newTestCoordinator(t, Dialogs{
		HTMLEditor: staticDialog(`<p>safe</p><script>alert(1)</script>`, true),
	})

	require.NoError(t, c.SelectElement("#box"))
	result, err := c.EditHTML(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutcomeCommitted, result.Outcome)

	html, err := mustQueryHTML(c, "#box")
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "safe")
	assert.NotEmpty(t, notifier.warnings)
}

func TestDialogSuspendsSelectionListeners(t *testing.T) {
	// Declared ahead of construction so the dialog closure can capture it.
	var c *Coordinator

	c, _ = newTestCoordinator(t, Dialogs{
		HTMLEditor: DialogFunc(func(ctx context.Context, selector, current string) (string, bool, error) {
			// Selection attempts while the dialog is up are ignored.
			require.NoError(t, c.SelectElement(".title"))
			_, selected := c.Session().Selected()
			assert.Equal(t, "#box", selected)
			return "", false, nil
		}),
	})

	require.NoError(t, c.SelectElement("#box"))
	_, err := c.EditHTML(context.Background())
	require.NoError(t, err)

	// Listeners resume after the dialog closes regardless of outcome.
	require.NoError(t, c.SelectElement(".title"))
	_, selected := c.Session().Selected()
	assert.Equal(t, ".title", selected)
}

func TestUndoRedoThroughKeyboard(t *testing.T) {
	c, _ := newTestCoordinator(t, Dialogs{})

	require.NoError(t, c.Apply(models.Change{
		Selector: ".title", Type: models.ChangeTypeText, Enabled: true, Value: "B",
	}))

	handled, err := c.HandleKey(KeyEvent{Key: "z", Ctrl: true})
	require.NoError(t, err)
	assert.True(t, handled)

	sel, err := c.Document().Query(".title")
	require.NoError(t, err)
	assert.Equal(t, "A", sel.Text())

	handled, err = c.HandleKey(KeyEvent{Key: "z", Meta: true, Shift: true})
	require.NoError(t, err)
	assert.True(t, handled)

	sel, err = c.Document().Query(".title")
	require.NoError(t, err)
	assert.Equal(t, "B", sel.Text())
}

func TestEscapeExitRestoresByDefault(t *testing.T) {
	c, _ := newTestCoordinator(t, Dialogs{})

	require.NoError(t, c.Apply(models.Change{
		Selector: ".title", Type: models.ChangeTypeText, Enabled: true, Value: "B",
	}))

	handled, err := c.HandleKey(KeyEvent{Key: "Escape"})
	require.NoError(t, err)
	assert.True(t, handled)
	assert.False(t, c.Session().IsActive())

	sel, err := c.Document().Query("h1")
	require.NoError(t, err)
	assert.Equal(t, "A", sel.Text())
}

func TestEscapeExitHonorsConfiguredCleanupMode(t *testing.T) {
	cfg := config.NewDefaultEditorConfig()
	cfg.ExitRestoresChanges = false
	c, _ := newTestCoordinatorWithConfig(t, cfg, Dialogs{})

	require.NoError(t, c.Apply(models.Change{
		Selector: ".title", Type: models.ChangeTypeText, Enabled: true, Value: "B",
	}))

	handled, err := c.HandleKey(KeyEvent{Key: "Escape"})
	require.NoError(t, err)
	assert.True(t, handled)
	assert.False(t, c.Session().IsActive())

	// Preview sessions keep the applied value for the page SDK.
	sel, err := c.Document().Query("h1")
	require.NoError(t, err)
	assert.Equal(t, "B", sel.Text())
	_, hasOriginal := sel.Attr(models.AttrOriginal)
	assert.True(t, hasOriginal)
}

func TestCopySelectorShortcut(t *testing.T) {
	c, _ := newTestCoordinator(t, Dialogs{})

	var copied string
	c.SetClipboardWriter(func(text string) error {
		copied = text
		return nil
	})

	require.NoError(t, c.SelectElement(".title"))
	handled, err := c.HandleKey(KeyEvent{Key: "c", Meta: true, Shift: true})
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, ".title", copied)
}

func TestDeleteSelected(t *testing.T) {
	c, _ := newTestCoordinator(t, Dialogs{})

	require.NoError(t, c.SelectElement("#pic"))
	handled, err := c.HandleKey(KeyEvent{Key: "Delete"})
	require.NoError(t, err)
	assert.True(t, handled)

	assert.Equal(t, 0, c.Document().QueryAll("#pic").Length())
	assert.Equal(t, 1, c.History().GetUndoCount())

	// Undo brings the element back.
	_, err = c.Undo()
	require.NoError(t, err)
	assert.Equal(t, 1, c.Document().QueryAll("#pic").Length())
}

func TestMenuActionDispatch(t *testing.T) {
	c, _ := newTestCoordinator(t, Dialogs{})
	ctx := context.Background()

	require.NoError(t, c.SelectElement("#box"))

	require.NoError(t, c.HandleMenuAction(ctx, ActionHide, ""))
	sel, err := c.Document().Query("#box")
	require.NoError(t, err)
	style, _ := sel.Attr("style")
	assert.Contains(t, style, "display: none")

	err = c.HandleMenuAction(ctx, MenuAction(99), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown menu action")
}

func TestMenuActionPrefersSelectedElement(t *testing.T) {
	c, _ := newTestCoordinator(t, Dialogs{})
	ctx := context.Background()

	// The menu was invoked on #pic, but .title is selected and wins.
	require.NoError(t, c.SelectElement(".title"))
	require.NoError(t, c.HandleMenuAction(ctx, ActionHide, "#pic"))

	sel, err := c.Document().Query(".title")
	require.NoError(t, err)
	style, _ := sel.Attr("style")
	assert.Contains(t, style, "display: none")

	pic, err := c.Document().Query("#pic")
	require.NoError(t, err)
	_, hasStyle := pic.Attr("style")
	assert.False(t, hasStyle)
}

func TestMoveUpAndDown(t *testing.T) {
	c, notifier := newTestCoordinator(t, Dialogs{})
	ctx := context.Background()

	require.NoError(t, c.SelectElement("#box"))
	require.NoError(t, c.HandleMenuAction(ctx, ActionMoveUp, ""))

	box, err := c.Document().Query("#box")
	require.NoError(t, err)
	assert.Equal(t, 0, dom.ElementIndex(box.Nodes[0]))

	// Already at the top edge: a notice, no change.
	before := c.History().GetUndoCount()
	require.NoError(t, c.HandleMenuAction(ctx, ActionMoveUp, ""))
	assert.Equal(t, before, c.History().GetUndoCount())
	assert.NotEmpty(t, notifier.infos)
}

func TestImageSourceChange(t *testing.T) {
	c, _ := newTestCoordinator(t, Dialogs{ImageSource: staticDialog("/new.png", true)})
	ctx := context.Background()

	require.NoError(t, c.SelectElement("#pic"))
	result, err := c.ChangeImageSource(ctx)
	require.NoError(t, err)
	require.Equal(t, OutcomeCommitted, result.Outcome)
	assert.Equal(t, models.ChangeTypeAttribute, result.Change.Type)

	sel, err := c.Document().Query("#pic")
	require.NoError(t, err)
	src, _ := sel.Attr("src")
	assert.Equal(t, "/new.png", src)

	// Non-image targets get a background-image style change instead.
	require.NoError(t, c.SelectElement("#box"))
	result, err = c.ChangeImageSource(ctx)
	require.NoError(t, err)
	require.Equal(t, OutcomeCommitted, result.Outcome)
	assert.Equal(t, models.ChangeTypeStyle, result.Change.Type)
	assert.Equal(t, "url('/new.png')", result.Change.ValueMap["background-image"])
}

func TestAncestorChainAndReselection(t *testing.T) {
	c, _ := newTestCoordinator(t, Dialogs{})

	require.NoError(t, c.SelectElement(".title"))
	chain, err := c.AncestorChain()
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, "div", chain[0].Tag)
	assert.Equal(t, "body", chain[1].Tag)

	require.NoError(t, c.SelectAncestor(chain[0].Selector))
	sel, selected := c.Session().Selected()
	assert.Equal(t, chain[0].Selector, selected)
	_, hasSnapshot := sel.Attr(models.AttrOriginal)
	assert.True(t, hasSnapshot)
}

func TestCommitStampsSDKAttributes(t *testing.T) {
	c, _ := newTestCoordinator(t, Dialogs{})

	require.NoError(t, c.Apply(models.Change{
		Selector: ".title", Type: models.ChangeTypeText, Enabled: true, Value: "B",
	}))

	sel, err := c.Document().Query(".title")
	require.NoError(t, err)

	modified, _ := sel.Attr(models.AttrModified)
	assert.Equal(t, "true", modified)
	experiment, _ := sel.Attr(models.AttrExperiment)
	assert.Equal(t, models.ExperimentPreviewSentinel, experiment)
	_, hasOriginal := sel.Attr(models.AttrOriginal)
	assert.True(t, hasOriginal)
}

func mustQueryHTML(c *Coordinator, selectorStr string) (string, error) {
	sel, err := c.Document().Query(selectorStr)
	if err != nil {
		return "", err
	}
	return sel.Html()
}
