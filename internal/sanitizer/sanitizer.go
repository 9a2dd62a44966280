// Package sanitizer neutralizes script-executing constructs in user-supplied
// HTML before the editor assigns it to the live document.
package sanitizer

import (
	"strings"

	"github.com/absmartly/domeditor/internal/config"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
)

// Sanitizer wraps a bluemonday policy tuned for edited page fragments.
type Sanitizer struct {
	logger zerolog.Logger
	policy *bluemonday.Policy
}

// New builds a sanitizer from configuration.
func New(cfg config.SanitizerConfig, logger zerolog.Logger) *Sanitizer {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class", "id").Globally()
	if cfg.AllowStyleAttribute {
		policy.AllowAttrs("style").Globally()
	}
	if cfg.AllowDataAttributes {
		policy.AllowDataAttributes()
	}
	policy.AllowImages()
	policy.AllowLists()
	policy.AllowTables()

	return &Sanitizer{
		logger: logger.With().Str("component", "Sanitizer").Logger(),
		policy: policy,
	}
}

// Sanitize returns the cleaned fragment and whether sanitization changed it.
// A changed result means the input carried disallowed content; dialogs surface
// that as an inline validation message rather than an error.
func (s *Sanitizer) Sanitize(fragment string) (clean string, changed bool) {
	clean = s.policy.Sanitize(fragment)
	changed = normalize(clean) != normalize(fragment)
	if changed {
		s.logger.Warn().Msg("Sanitizer removed disallowed content from HTML fragment")
	}
	return clean, changed
}

// normalize smooths over whitespace-only differences the sanitizer introduces
// so they do not count as content changes.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
