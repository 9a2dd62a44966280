package editor

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/absmartly/domeditor/internal/common"
	"github.com/absmartly/domeditor/internal/dom"
	"github.com/absmartly/domeditor/internal/models"
)

// Cleanup reverses all editor markup and bookkeeping on the page. Every step
// is best-effort: one element's failure is logged and collected, never allowed
// to abort the remaining restorations.
//
// With restoreOriginalValues false (preview mode) the SDK bookkeeping
// attributes and applied values are deliberately left on the page; the
// page-resident SDK owns them and reverts the preview itself later.
func (c *Coordinator) Cleanup(restoreOriginalValues bool) error {
	collector := &common.ErrorCollector{}
	c.logger.Info().Bool("restore", restoreOriginalValues).Msg("Cleaning up editing session")

	c.doc.WithInternalWrite(func() {
		// 1. Strip editor marker classes everywhere.
		c.stripMarkerClasses()

		// 2. Remove editor-owned UI nodes.
		c.doc.QueryAll("[" + EditorUIAttr + "]").Remove()

		// 3. Restore snapshots and drop bookkeeping attributes, or leave both
		// intact for the SDK in preview mode.
		if restoreOriginalValues {
			c.restoreSnapshots(collector)
			c.doc.QueryAll("[" + dom.MarkerAttr + "]").RemoveAttr(dom.MarkerAttr)
		}
	})

	// 4. Run registered teardown closures, swallowing individual failures.
	for _, teardown := range c.teardowns {
		if err := teardown(); err != nil {
			collector.AddWithContext(err, "teardown closure failed")
			c.logger.Warn().Err(err).Msg("Teardown closure failed, continuing")
		}
	}
	c.teardowns = nil

	// 5. Disconnect the mutation observer.
	c.doc.ClearObservers()

	// 6. Deactivate the shared session state.
	c.session.reset()
	c.editing = nil
	c.openDialog = ""

	c.doc.WithInternalWrite(func() {
		// 7. Restore page chrome the editor had hidden.
		c.restoreHiddenChrome()

		// 8. Remove the activation marker and the injected stylesheet.
		c.doc.Body().RemoveAttr(ActiveAttr)
		c.doc.RemoveEditorStyleSheet()
	})

	if collector.HasErrors() {
		c.logger.Warn().Int("failures", len(collector.Errors())).Msg("Cleanup finished with per-element failures")
	}
	return collector.Error()
}

// RestoreElement restores a single element from its original snapshot,
// including innerHTML when this element was actually HTML-edited in this
// session. Bulk cleanup never restores innerHTML; intervening structural
// mutations make blind restoration unsafe, so it is allowed only on this
// explicit per-element path.
func (c *Coordinator) RestoreElement(selectorStr string) error {
	sel, err := c.doc.Query(selectorStr)
	if err != nil {
		return err
	}

	raw, has := sel.Attr(models.AttrOriginal)
	if !has {
		return common.WrapErrorf(common.ErrNotFound, "element %q has no original snapshot", selectorStr)
	}
	var snap models.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return common.WrapErrorf(err, "corrupt original snapshot on %q", selectorStr)
	}

	_, htmlEdited := c.htmlEdited[selectorStr]

	c.doc.WithInternalWrite(func() {
		if htmlEdited && snap.InnerHTML != nil {
			sel.SetHtml(*snap.InnerHTML)
		} else if snap.Text != nil {
			sel.SetText(*snap.Text)
		}
		restoreRecordedStyles(sel, snap.Styles)
		removeBookkeeping(sel)
		c.doc.NotifyMutated()
	})
	delete(c.htmlEdited, selectorStr)
	return nil
}

// registerTeardown records a closure for cleanup to invoke. Collaborators
// register their own listener detachment here during setup.
func (c *Coordinator) registerTeardown(fn func() error) {
	c.teardowns = append(c.teardowns, fn)
}

// stripMarkerClasses removes every editor-injected class from the document.
func (c *Coordinator) stripMarkerClasses() {
	c.doc.QueryAll("[class*='" + models.MarkerClassPrefix + "']").Each(func(_ int, sel *goquery.Selection) {
		classAttr, _ := sel.Attr("class")
		kept := make([]string, 0)
		for _, class := range strings.Fields(classAttr) {
			if !strings.HasPrefix(class, models.MarkerClassPrefix) {
				kept = append(kept, class)
			}
		}
		if len(kept) == 0 {
			sel.RemoveAttr("class")
			return
		}
		sel.SetAttr("class", strings.Join(kept, " "))
	})
}

// restoreSnapshots walks every element carrying an original snapshot,
// restoring text and the recorded style properties, then removing the
// bookkeeping attributes. Corrupt snapshots are logged per element.
func (c *Coordinator) restoreSnapshots(collector *common.ErrorCollector) {
	c.doc.QueryAll("[" + models.AttrOriginal + "]").Each(func(_ int, sel *goquery.Selection) {
		raw, _ := sel.Attr(models.AttrOriginal)

		var snap models.Snapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			collector.AddWithContext(err, "corrupt original snapshot")
			c.logger.Warn().Err(err).Str("element", goquery.NodeName(sel)).Msg("Skipping element with corrupt snapshot")
			removeBookkeeping(sel)
			return
		}

		if snap.Text != nil {
			sel.SetText(*snap.Text)
		}
		restoreRecordedStyles(sel, snap.Styles)
		removeBookkeeping(sel)
	})
}

// restoreRecordedStyles writes back the width/height properties recorded at
// snapshot time, leaving all other inline styles alone.
func restoreRecordedStyles(sel *goquery.Selection, styles map[string]string) {
	if len(styles) == 0 {
		return
	}
	current, _ := sel.Attr("style")
	props := dom.ParseInlineStyle(current)
	for name, value := range styles {
		props[name] = value
	}
	sel.SetAttr("style", dom.SerializeInlineStyle(props))
}

func removeBookkeeping(sel *goquery.Selection) {
	sel.RemoveAttr(models.AttrOriginal)
	sel.RemoveAttr(models.AttrModified)
	sel.RemoveAttr(models.AttrExperiment)
}

// restoreHiddenChrome unhides page chrome the editor hid during the session,
// restoring the display value saved in the hidden-marker attribute.
func (c *Coordinator) restoreHiddenChrome() {
	c.doc.QueryAll("[" + HiddenAttr + "]").Each(func(_ int, sel *goquery.Selection) {
		prior, _ := sel.Attr(HiddenAttr)
		style, _ := sel.Attr("style")
		props := dom.ParseInlineStyle(style)
		if prior == "" {
			delete(props, "display")
		} else {
			props["display"] = prior
		}
		if len(props) == 0 {
			sel.RemoveAttr("style")
		} else {
			sel.SetAttr("style", dom.SerializeInlineStyle(props))
		}
		sel.RemoveAttr(HiddenAttr)
	})
}
