package history

import (
	"fmt"
	"testing"

	"github.com/absmartly/domeditor/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textChange(selector, value string) models.Change {
	return models.Change{
		Selector: selector,
		Type:     models.ChangeTypeText,
		Enabled:  true,
		Value:    value,
	}
}

func TestAddChangeLinearity(t *testing.T) {
	m := NewManager(100, zerolog.Nop())

	const n = 7
	for i := 0; i < n; i++ {
		m.AddChange(textChange(fmt.Sprintf(".el%d", i), "v"), models.Snapshot{})
	}
	assert.Equal(t, n, m.GetUndoCount())
	assert.Equal(t, 0, m.GetRedoCount())

	const k = 3
	for i := 0; i < k; i++ {
		require.NotNil(t, m.Undo())
	}
	assert.Equal(t, n-k, m.GetUndoCount())
	assert.Equal(t, k, m.GetRedoCount())

	// A new change while undos are pending discards the whole redo tail.
	m.AddChange(textChange(".fresh", "v"), models.Snapshot{})
	assert.Equal(t, n-k+1, m.GetUndoCount())
	assert.Equal(t, 0, m.GetRedoCount())
	assert.False(t, m.CanRedo())
}

func TestUndoRedoBoundaries(t *testing.T) {
	m := NewManager(10, zerolog.Nop())

	assert.Nil(t, m.Undo())
	assert.Equal(t, 0, m.GetUndoCount())
	assert.Nil(t, m.Redo())
	assert.False(t, m.CanUndo())
	assert.False(t, m.CanRedo())

	m.AddChange(textChange(".a", "1"), models.Snapshot{})
	assert.Nil(t, m.Redo())
	assert.True(t, m.CanUndo())
}

func TestUndoRedoRoundTrip(t *testing.T) {
	m := NewManager(10, zerolog.Nop())
	m.AddChange(textChange(".a", "1"), models.Snapshot{})
	m.AddChange(textChange(".b", "2"), models.Snapshot{})

	undone := m.Undo()
	require.NotNil(t, undone)
	redone := m.Redo()
	require.NotNil(t, redone)

	assert.Equal(t, undone.Change, redone.Change)
	assert.Equal(t, ".b", redone.Change.Selector)
	assert.Equal(t, 2, m.GetUndoCount())
	assert.Equal(t, 0, m.GetRedoCount())
}

func TestCapacityEviction(t *testing.T) {
	const maxSize = 10
	m := NewManager(maxSize, zerolog.Nop())

	for i := 0; i < maxSize+5; i++ {
		m.AddChange(textChange(fmt.Sprintf(".el%d", i), "v"), models.Snapshot{})
	}
	assert.Equal(t, maxSize, m.GetUndoCount())

	// The oldest 5 entries are gone: undoing everything stops at .el5.
	var last *Record
	for m.CanUndo() {
		last = m.Undo()
	}
	require.NotNil(t, last)
	assert.Equal(t, ".el5", last.Change.Selector)
}

func TestSquashIdempotence(t *testing.T) {
	m := NewManager(100, zerolog.Nop())
	m.AddChange(textChange(".title", "A"), models.Snapshot{})
	m.AddChange(textChange(".title", "B"), models.Snapshot{})

	first := m.SquashChanges()
	second := m.SquashChanges()
	assert.Equal(t, first, second)

	require.Len(t, first, 1)
	assert.Equal(t, ".title", first[0].Selector)
	assert.Equal(t, "B", first[0].Value)
}

func TestSquashFirstSeenKeyOrder(t *testing.T) {
	m := NewManager(100, zerolog.Nop())
	m.AddChange(textChange(".a", "1"), models.Snapshot{})
	m.AddChange(textChange(".b", "1"), models.Snapshot{})
	m.AddChange(textChange(".a", "2"), models.Snapshot{})
	m.AddChange(models.Change{
		Selector: ".a",
		Type:     models.ChangeTypeStyle,
		Enabled:  true,
		ValueMap: map[string]string{"color": "red"},
	}, models.Snapshot{})

	squashed := m.SquashChanges()
	require.Len(t, squashed, 3)
	assert.Equal(t, ".a", squashed[0].Selector)
	assert.Equal(t, models.ChangeTypeText, squashed[0].Type)
	assert.Equal(t, "2", squashed[0].Value)
	assert.Equal(t, ".b", squashed[1].Selector)
	assert.Equal(t, models.ChangeTypeStyle, squashed[2].Type)
}

func TestSquashRespectsUndoPointer(t *testing.T) {
	m := NewManager(100, zerolog.Nop())
	m.AddChange(textChange(".a", "1"), models.Snapshot{})
	m.AddChange(textChange(".a", "2"), models.Snapshot{})

	require.NotNil(t, m.Undo())
	squashed := m.SquashChanges()
	require.Len(t, squashed, 1)
	assert.Equal(t, "1", squashed[0].Value)

	m.Clear()
	assert.Empty(t, m.SquashChanges())
	assert.Equal(t, 0, m.GetUndoCount())
}

func TestDeepCopyIsolation(t *testing.T) {
	m := NewManager(100, zerolog.Nop())

	change := models.Change{
		Selector: ".a",
		Type:     models.ChangeTypeStyle,
		Enabled:  true,
		ValueMap: map[string]string{"color": "red"},
	}
	m.AddChange(change, models.Snapshot{Styles: map[string]string{"color": "blue"}})

	// Mutating the caller's maps must not leak into history.
	change.ValueMap["color"] = "green"

	record := m.Undo()
	require.NotNil(t, record)
	assert.Equal(t, "red", record.Change.ValueMap["color"])
	assert.Equal(t, "blue", record.OldValue.Styles["color"])

	// Mutating the returned copy must not leak back either.
	record.Change.ValueMap["color"] = "purple"
	redone := m.Redo()
	require.NotNil(t, redone)
	assert.Equal(t, "red", redone.Change.ValueMap["color"])
}

func TestOnChangedFiresOnlyOnCountChange(t *testing.T) {
	m := NewManager(100, zerolog.Nop())

	calls := 0
	m.SetOnChanged(func(undoCount, redoCount int) { calls++ })

	m.AddChange(textChange(".a", "1"), models.Snapshot{})
	assert.Equal(t, 1, calls)

	// Boundary undo/redo do not move the counts and must not notify.
	m.Undo()
	assert.Equal(t, 2, calls)
	assert.Nil(t, m.Undo())
	assert.Equal(t, 2, calls)

	m.Redo()
	assert.Equal(t, 3, calls)
	assert.Nil(t, m.Redo())
	assert.Equal(t, 3, calls)
}

func TestZeroMaxStackSizeFallsBackToDefault(t *testing.T) {
	m := NewManager(0, zerolog.Nop())
	for i := 0; i < DefaultMaxStackSize+1; i++ {
		m.AddChange(textChange(".a", "v"), models.Snapshot{})
	}
	assert.Equal(t, DefaultMaxStackSize, m.GetUndoCount())
}
