package editor

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/absmartly/domeditor/internal/common"
	"github.com/absmartly/domeditor/internal/dom"
	"github.com/absmartly/domeditor/internal/models"
)

const (
	dialogHTMLEditor    = "htmlEditor"
	dialogBlockInserter = "blockInserter"
	dialogImageSource   = "imageSource"
)

// EditHTML runs the dialog-based HTML edit flow on the current selection.
// Cancel and unchanged content are no-ops. Returned HTML is sanitized before
// it touches the document. Editing body or html is refused with a warning and
// no mutation.
func (c *Coordinator) EditHTML(ctx context.Context) (EditResult, error) {
	sel, selStr := c.session.Selected()
	if sel == nil {
		return cancelled(), common.NewValidationError("selection", nil, "no element is selected")
	}
	if c.doc.IsProtected(sel) {
		c.notifier.Warn(fmt.Sprintf("Cannot edit the page <%s> element directly", goquery.NodeName(sel)))
		return cancelled(), nil
	}
	if c.dialogs.HTMLEditor == nil {
		return cancelled(), common.NewError("no HTML editor dialog is configured")
	}

	current, err := sel.Html()
	if err != nil {
		return cancelled(), common.WrapError(err, "failed to read current innerHTML")
	}

	newHTML, ok, err := c.showDialog(ctx, dialogHTMLEditor, c.dialogs.HTMLEditor, selStr, current)
	if err != nil {
		return cancelled(), err
	}
	if !ok || newHTML == current {
		return cancelled(), nil
	}

	clean, sanitized := c.sanitize.Sanitize(newHTML)
	if sanitized {
		c.notifier.Warn("Disallowed content was removed from the edited HTML")
	}
	if clean == current {
		return cancelled(), nil
	}

	editDiff := c.diff.GenerateDiff(current, clean)
	c.logger.Debug().
		Str("selector", selStr).
		Int("inserted", editDiff.CharsInserted).
		Int("deleted", editDiff.CharsDeleted).
		Msg("Committing HTML edit")

	change := models.Change{
		Selector: selStr,
		Type:     models.ChangeTypeHTML,
		Enabled:  true,
		Value:    clean,
	}
	if err := c.Apply(change); err != nil {
		return cancelled(), err
	}
	return committed(change), nil
}

// InsertBlock runs the block-inserter dialog and commits an insert change
// placing the sanitized block after the current selection.
func (c *Coordinator) InsertBlock(ctx context.Context) (EditResult, error) {
	_, selStr := c.session.Selected()
	if selStr == "" {
		return cancelled(), common.NewValidationError("selection", nil, "no element is selected")
	}
	if c.dialogs.BlockInserter == nil {
		return cancelled(), common.NewError("no block inserter dialog is configured")
	}

	blockHTML, ok, err := c.showDialog(ctx, dialogBlockInserter, c.dialogs.BlockInserter, selStr, "")
	if err != nil {
		return cancelled(), err
	}
	if !ok || blockHTML == "" {
		return cancelled(), nil
	}

	clean, sanitized := c.sanitize.Sanitize(blockHTML)
	if sanitized {
		c.notifier.Warn("Disallowed content was removed from the inserted block")
	}
	if clean == "" {
		return cancelled(), nil
	}

	change := models.Change{
		Selector: selStr,
		Type:     models.ChangeTypeInsert,
		Enabled:  true,
		HTML:     clean,
		Position: models.PositionAfter,
	}
	if err := c.Apply(change); err != nil {
		return cancelled(), err
	}
	return committed(change), nil
}

// ChangeImageSource runs the image-source dialog. For an img element the new
// URL commits as a src attribute change in merge mode; for anything else it
// commits as a background-image style change in merge mode.
func (c *Coordinator) ChangeImageSource(ctx context.Context) (EditResult, error) {
	sel, selStr := c.session.Selected()
	if sel == nil {
		return cancelled(), common.NewValidationError("selection", nil, "no element is selected")
	}
	if c.dialogs.ImageSource == nil {
		return cancelled(), common.NewError("no image source dialog is configured")
	}

	isImage := goquery.NodeName(sel) == "img"
	var current string
	if isImage {
		current, _ = sel.Attr("src")
	} else {
		current = backgroundImage(sel)
	}

	newSrc, ok, err := c.showDialog(ctx, dialogImageSource, c.dialogs.ImageSource, selStr, current)
	if err != nil {
		return cancelled(), err
	}
	if !ok || newSrc == current {
		return cancelled(), nil
	}

	var change models.Change
	if isImage {
		change = models.Change{
			Selector: selStr,
			Type:     models.ChangeTypeAttribute,
			Enabled:  true,
			ValueMap: map[string]string{"src": newSrc},
			Mode:     models.ApplyModeMerge,
		}
	} else {
		change = models.Change{
			Selector: selStr,
			Type:     models.ChangeTypeStyle,
			Enabled:  true,
			ValueMap: map[string]string{"background-image": fmt.Sprintf("url('%s')", newSrc)},
			Mode:     models.ApplyModeMerge,
		}
	}
	if err := c.Apply(change); err != nil {
		return cancelled(), err
	}
	return committed(change), nil
}

// showDialog runs one dialog with the session's one-dialog-at-a-time rule:
// the context menu closes, hover/selection listeners suspend for the duration,
// and a still-open previous dialog of any type is torn down first.
func (c *Coordinator) showDialog(ctx context.Context, kind string, dialog Dialog, selector, current string) (string, bool, error) {
	c.closeContextMenu()
	if c.openDialog != "" {
		c.logger.Debug().Str("previous", c.openDialog).Str("next", kind).Msg("Closing previous dialog")
	}
	c.openDialog = kind
	c.session.listenersSuspended = true
	defer func() {
		c.openDialog = ""
		c.session.listenersSuspended = false
	}()

	return dialog.Show(ctx, selector, current)
}

// closeContextMenu removes any open editor context menu node.
func (c *Coordinator) closeContextMenu() {
	menus := c.doc.QueryAll("[" + EditorUIAttr + "='context-menu']")
	if menus.Length() == 0 {
		return
	}
	c.doc.WithInternalWrite(func() {
		menus.Remove()
	})
}

// backgroundImage extracts the inline background-image value, if any.
func backgroundImage(sel *goquery.Selection) string {
	style, _ := sel.Attr("style")
	if style == "" {
		return ""
	}
	return dom.ParseInlineStyle(style)["background-image"]
}
