package differ

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestGenerateDiffIdentical(t *testing.T) {
	cd := NewContentDiffer(zerolog.Nop())

	diff := cd.GenerateDiff("<p>same</p>", "<p>same</p>")
	assert.True(t, diff.IsIdentical)
	assert.Zero(t, diff.CharsInserted)
	assert.Zero(t, diff.CharsDeleted)
	assert.Empty(t, diff.Summary)
}

func TestGenerateDiffCounts(t *testing.T) {
	cd := NewContentDiffer(zerolog.Nop())

	diff := cd.GenerateDiff("hello world", "hello brave world")
	assert.False(t, diff.IsIdentical)
	assert.Equal(t, len("brave "), diff.CharsInserted)
	assert.Zero(t, diff.CharsDeleted)
	assert.Contains(t, diff.Summary, "+[")
}

func TestGenerateDiffDeletion(t *testing.T) {
	cd := NewContentDiffer(zerolog.Nop())

	diff := cd.GenerateDiff("<p>old text</p>", "<p></p>")
	assert.False(t, diff.IsIdentical)
	assert.Equal(t, len("old text"), diff.CharsDeleted)
	assert.Contains(t, diff.Summary, "-[")
}

func TestGenerateDiffTruncatesLongSegments(t *testing.T) {
	cd := NewContentDiffer(zerolog.Nop())

	long := ""
	for i := 0; i < 10; i++ {
		long += "0123456789"
	}
	diff := cd.GenerateDiff("", long)
	assert.Equal(t, 100, diff.CharsInserted)
	assert.Contains(t, diff.Summary, "...")
}
