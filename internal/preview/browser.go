// Package preview applies a squashed changeset to a live page in a headless
// browser, the same way the page-resident SDK would, so a changeset can be
// verified outside an editing session.
package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/absmartly/domeditor/internal/common"
	"github.com/absmartly/domeditor/internal/config"
	"github.com/absmartly/domeditor/internal/models"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"
)

// BrowserManager owns a headless browser instance for preview runs.
type BrowserManager struct {
	config    config.PreviewConfig
	logger    zerolog.Logger
	browser   *rod.Browser
	launcher  *launcher.Launcher
	isRunning bool
}

// NewBrowserManager creates a new preview browser manager.
func NewBrowserManager(cfg config.PreviewConfig, logger zerolog.Logger) *BrowserManager {
	return &BrowserManager{
		config: cfg,
		logger: logger.With().Str("component", "PreviewBrowser").Logger(),
	}
}

// Start launches the browser.
func (bm *BrowserManager) Start() error {
	if bm.isRunning {
		return nil
	}
	if !bm.config.Enabled {
		bm.logger.Info().Msg("Preview browser is disabled in config")
		return nil
	}

	l := launcher.New()
	if bm.config.ChromePath != "" {
		l = l.Bin(bm.config.ChromePath)
	}
	if bm.config.UserDataDir != "" {
		l = l.UserDataDir(bm.config.UserDataDir)
	}
	l = l.
		Set("no-sandbox").
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-first-run").
		Set("disable-default-apps").
		Set("disable-sync")

	controlURL, err := l.Launch()
	if err != nil {
		return common.WrapError(err, "failed to launch browser")
	}
	bm.launcher = l

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return common.WrapError(err, "failed to connect to browser")
	}
	bm.browser = browser
	bm.isRunning = true
	bm.logger.Info().Msg("Preview browser started")
	return nil
}

// Stop closes the browser and the launcher.
func (bm *BrowserManager) Stop() {
	if !bm.isRunning {
		return
	}
	if bm.browser != nil {
		_ = bm.browser.Close()
	}
	if bm.launcher != nil {
		bm.launcher.Cleanup()
	}
	bm.isRunning = false
	bm.logger.Info().Msg("Preview browser stopped")
}

// IsEnabled reports whether preview is enabled.
func (bm *BrowserManager) IsEnabled() bool {
	return bm.config.Enabled
}

// Result carries the page state after a preview run.
type Result struct {
	URL          string
	HTML         string
	AppliedCount int
	FailedCount  int
}

// PreviewChanges navigates to the URL, applies the changeset in the page via
// the same apply semantics the SDK uses, stamps the SDK bookkeeping
// attributes, and returns the resulting HTML.
func (bm *BrowserManager) PreviewChanges(ctx context.Context, url string, changes []models.Change, experimentID string) (*Result, error) {
	if !bm.config.Enabled || !bm.isRunning {
		return nil, common.NewError("preview browser is not running or disabled")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(bm.config.PageLoadTimeoutSecs)*time.Second)
	defer cancel()

	page, err := bm.browser.Context(timeoutCtx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, common.WrapError(err, "failed to create page")
	}
	defer page.Close()

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  bm.config.WindowWidth,
		Height: bm.config.WindowHeight,
	}); err != nil {
		bm.logger.Warn().Err(err).Msg("Failed to set viewport")
	}

	if err := page.Navigate(url); err != nil {
		return nil, common.WrapErrorf(err, "failed to navigate to %s", url)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, common.WrapErrorf(err, "page load timeout for %s", url)
	}
	if bm.config.WaitAfterLoadMs > 0 {
		time.Sleep(time.Duration(bm.config.WaitAfterLoadMs) * time.Millisecond)
	}

	if experimentID == "" {
		experimentID = models.ExperimentPreviewSentinel
	}

	applied, failed := 0, 0
	for _, change := range changes {
		if !change.Enabled {
			continue
		}
		if err := bm.applyInPage(page, change, experimentID); err != nil {
			failed++
			bm.logger.Warn().Err(err).
				Str("selector", change.Selector).
				Str("type", string(change.Type)).
				Msg("Failed to apply change in page")
			continue
		}
		applied++
	}

	html, err := page.HTML()
	if err != nil {
		return nil, common.WrapError(err, "failed to read page HTML")
	}

	finalURL := url
	if info, err := page.Info(); err == nil {
		finalURL = info.URL
	}

	bm.logger.Info().
		Str("url", finalURL).
		Int("applied", applied).
		Int("failed", failed).
		Msg("Preview run finished")

	return &Result{URL: finalURL, HTML: html, AppliedCount: applied, FailedCount: failed}, nil
}

// applyInPage evaluates the change against the live page. The JS mirrors the
// SDK's apply semantics for each change type and stamps the bookkeeping
// attributes on the touched element.
func (bm *BrowserManager) applyInPage(page *rod.Page, change models.Change, experimentID string) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return common.WrapError(err, "failed to marshal change")
	}

	script := fmt.Sprintf(applyChangeScript, models.AttrOriginal, models.AttrModified, models.AttrExperiment)
	result, err := page.Eval(script, string(payload), experimentID)
	if err != nil {
		return common.WrapError(err, "page eval failed")
	}
	if !result.Value.Bool() {
		return common.NewError("no element matches selector %q", change.Selector)
	}
	return nil
}

// applyChangeScript is parameterized with the three SDK attribute names.
const applyChangeScript = `(raw, experimentId) => {
	const change = JSON.parse(raw);
	const stamp = (el) => {
		if (!el.hasAttribute('%[1]s')) {
			el.setAttribute('%[1]s', JSON.stringify({ text: el.textContent }));
		}
		el.setAttribute('%[2]s', 'true');
		el.setAttribute('%[3]s', experimentId);
	};
	const place = (ref, html, position) => {
		const map = { before: 'beforebegin', after: 'afterend', firstChild: 'afterbegin', lastChild: 'beforeend' };
		ref.insertAdjacentHTML(map[position] || 'afterend', html);
	};
	const el = document.querySelector(change.selector);
	switch (change.type) {
	case 'text':
		if (!el) return false;
		stamp(el); el.textContent = change.value; return true;
	case 'html':
		if (!el) return false;
		stamp(el); el.innerHTML = change.value; return true;
	case 'style':
		if (!el) return false;
		stamp(el);
		for (const [k, v] of Object.entries(change.value || {})) {
			if (v === '') { el.style.removeProperty(k); } else { el.style.setProperty(k, v); }
		}
		return true;
	case 'styleRules': {
		const sheet = document.createElement('style');
		let css = '';
		for (const [state, props] of Object.entries(change.states || {})) {
			const suffix = state === 'normal' ? '' : ':' + state;
			const body = Object.entries(props)
				.map(([k, v]) => k + ': ' + v + (change.important ? ' !important' : '') + ';')
				.join(' ');
			css += change.selector + suffix + ' { ' + body + ' }\n';
		}
		sheet.textContent = css;
		document.head.appendChild(sheet);
		return true;
	}
	case 'class':
		if (!el) return false;
		stamp(el);
		(change.remove || []).forEach(c => el.classList.remove(c));
		(change.add || []).forEach(c => el.classList.add(c));
		return true;
	case 'attribute':
		if (!el) return false;
		stamp(el);
		for (const [k, v] of Object.entries(change.value || {})) {
			if (v === '') { el.removeAttribute(k); } else { el.setAttribute(k, v); }
		}
		return true;
	case 'remove':
		if (!el) return false;
		el.remove(); return true;
	case 'insert':
		if (!el) return false;
		place(el, change.html, change.position); return true;
	case 'move': {
		if (!el) return false;
		const target = document.querySelector(change.targetSelector);
		if (!target) return false;
		if (change.position === 'before') target.before(el);
		else if (change.position === 'firstChild') target.prepend(el);
		else if (change.position === 'lastChild') target.append(el);
		else target.after(el);
		return true;
	}
	case 'create': {
		const target = document.querySelector(change.targetSelector);
		if (!target) return false;
		place(target, change.element, change.position); return true;
	}
	default:
		return false;
	}
}`
