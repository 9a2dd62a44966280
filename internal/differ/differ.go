// Package differ summarizes the difference between the old and new content of
// an edit, for dialog previews and logs.
package differ

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// EditDiff is the structured result of comparing an element's content before
// and after an edit.
type EditDiff struct {
	IsIdentical    bool   `json:"is_identical"`
	CharsInserted  int    `json:"chars_inserted"`
	CharsDeleted   int    `json:"chars_deleted"`
	Summary        string `json:"summary"`
}

// ContentDiffer generates edit diffs.
type ContentDiffer struct {
	logger zerolog.Logger
	dmp    *diffmatchpatch.DiffMatchPatch
}

// NewContentDiffer creates a new instance of ContentDiffer.
func NewContentDiffer(logger zerolog.Logger) *ContentDiffer {
	return &ContentDiffer{
		logger: logger.With().Str("component", "ContentDiffer").Logger(),
		dmp:    diffmatchpatch.New(),
	}
}

// GenerateDiff compares two content strings and returns a structured summary.
func (cd *ContentDiffer) GenerateDiff(oldContent, newContent string) EditDiff {
	if oldContent == newContent {
		return EditDiff{IsIdentical: true}
	}

	diffs := cd.dmp.DiffMain(oldContent, newContent, false)
	diffs = cd.dmp.DiffCleanupSemantic(diffs)

	result := EditDiff{}
	var summary strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			result.CharsInserted += len(d.Text)
			summary.WriteString("+[")
			summary.WriteString(truncate(d.Text, 40))
			summary.WriteString("]")
		case diffmatchpatch.DiffDelete:
			result.CharsDeleted += len(d.Text)
			summary.WriteString("-[")
			summary.WriteString(truncate(d.Text, 40))
			summary.WriteString("]")
		}
	}
	result.Summary = summary.String()

	cd.logger.Debug().
		Int("inserted", result.CharsInserted).
		Int("deleted", result.CharsDeleted).
		Msg("Generated edit diff")
	return result
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
