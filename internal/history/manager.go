// Package history implements the linear undo/redo stack over change records.
package history

import (
	"github.com/absmartly/domeditor/internal/models"
	"github.com/rs/zerolog"
)

// DefaultMaxStackSize bounds undo depth when no explicit limit is configured.
const DefaultMaxStackSize = 100

// Record pairs a committed change with the snapshot needed to reverse it.
type Record struct {
	Change   models.Change
	OldValue models.Snapshot
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	return Record{
		Change:   r.Change.Clone(),
		OldValue: r.OldValue.Clone(),
	}
}

// Manager is the undo/redo history for one editing session.
//
// entries[0..currentIndex] are the applied changes; entries beyond currentIndex
// are the redo tail, valid only until the next AddChange. currentIndex == -1
// means the initial empty state. All operations run on the editor's single
// goroutine, so the manager is not synchronized.
type Manager struct {
	logger       zerolog.Logger
	entries      []Record
	currentIndex int
	maxStackSize int

	onChanged     func(undoCount, redoCount int)
	reportedUndos int
	reportedRedos int
}

// NewManager creates a history manager with the given capacity.
func NewManager(maxStackSize int, logger zerolog.Logger) *Manager {
	if maxStackSize <= 0 {
		maxStackSize = DefaultMaxStackSize
	}
	return &Manager{
		logger:       logger.With().Str("component", "History").Logger(),
		entries:      make([]Record, 0, maxStackSize),
		currentIndex: -1,
		maxStackSize: maxStackSize,
	}
}

// SetOnChanged registers the callback that refreshes UI counters. It fires
// only when the undo/redo counts actually changed, so listeners can re-render
// unconditionally without causing redundant render storms.
func (m *Manager) SetOnChanged(fn func(undoCount, redoCount int)) {
	m.onChanged = fn
	m.reportedUndos = m.GetUndoCount()
	m.reportedRedos = m.GetRedoCount()
}

// AddChange deep-copies the change and snapshot into history, discarding any
// redo tail, and evicts the oldest entry when over capacity. It never fails;
// malformed changes must be rejected by the caller before they get here.
func (m *Manager) AddChange(change models.Change, oldValue models.Snapshot) {
	if m.currentIndex < len(m.entries)-1 {
		discarded := len(m.entries) - 1 - m.currentIndex
		m.entries = m.entries[:m.currentIndex+1]
		m.logger.Debug().Int("discarded", discarded).Msg("Truncated redo tail")
	}

	m.entries = append(m.entries, Record{
		Change:   change.Clone(),
		OldValue: oldValue.Clone(),
	})
	m.currentIndex++

	if len(m.entries) > m.maxStackSize {
		evicted := len(m.entries) - m.maxStackSize
		m.entries = m.entries[evicted:]
		m.currentIndex -= evicted
		m.logger.Debug().Int("evicted", evicted).Msg("Evicted oldest history entries")
	}

	m.logger.Debug().
		Str("selector", change.Selector).
		Str("type", string(change.Type)).
		Int("index", m.currentIndex).
		Int("count", len(m.entries)).
		Msg("Recorded change")

	m.notifyChanged()
}

// Undo moves the pointer back and returns a deep copy of the record to revert,
// or nil when there is nothing to undo. Applying the reversal to the live DOM
// with the record's OldValue is the caller's responsibility.
func (m *Manager) Undo() *Record {
	if m.currentIndex < 0 {
		return nil
	}

	record := m.entries[m.currentIndex].Clone()
	m.currentIndex--
	m.logger.Debug().
		Str("selector", record.Change.Selector).
		Str("type", string(record.Change.Type)).
		Int("index", m.currentIndex+1).
		Msg("Undo")

	m.notifyChanged()
	return &record
}

// Redo moves the pointer forward and returns a deep copy of the record to
// reapply, or nil when there is no redo tail. The caller applies the record's
// Change, not its OldValue.
func (m *Manager) Redo() *Record {
	if m.currentIndex >= len(m.entries)-1 {
		return nil
	}

	m.currentIndex++
	record := m.entries[m.currentIndex].Clone()
	m.logger.Debug().
		Str("selector", record.Change.Selector).
		Str("type", string(record.Change.Type)).
		Int("index", m.currentIndex).
		Msg("Redo")

	m.notifyChanged()
	return &record
}

// CanUndo reports whether any applied change remains to undo.
func (m *Manager) CanUndo() bool {
	return m.currentIndex >= 0
}

// CanRedo reports whether a redo tail exists.
func (m *Manager) CanRedo() bool {
	return m.currentIndex < len(m.entries)-1
}

// GetUndoCount returns the number of applied changes.
func (m *Manager) GetUndoCount() int {
	return m.currentIndex + 1
}

// GetRedoCount returns the length of the redo tail.
func (m *Manager) GetRedoCount() int {
	return len(m.entries) - m.currentIndex - 1
}

// SquashChanges collapses entries 0..currentIndex into the minimal persistable
// change list: one entry per selector+type key holding the latest change value,
// emitted in first-seen-key order. The first-seen oldValue per key is retained
// in history for reversal but is not part of the output.
func (m *Manager) SquashChanges() []models.Change {
	if m.currentIndex < 0 {
		return []models.Change{}
	}

	latest := make(map[string]models.Change)
	order := make([]string, 0, m.currentIndex+1)

	for i := 0; i <= m.currentIndex; i++ {
		change := m.entries[i].Change
		key := change.Key()
		if _, seen := latest[key]; !seen {
			order = append(order, key)
		}
		latest[key] = change
	}

	out := make([]models.Change, 0, len(order))
	for _, key := range order {
		out = append(out, latest[key].Clone())
	}

	m.logger.Debug().
		Int("entries", m.currentIndex+1).
		Int("squashed", len(out)).
		Msg("Squashed changes")
	return out
}

// Clear resets the history to the empty initial state.
func (m *Manager) Clear() {
	m.entries = m.entries[:0]
	m.currentIndex = -1
	m.logger.Debug().Msg("History cleared")
	m.notifyChanged()
}

func (m *Manager) notifyChanged() {
	if m.onChanged == nil {
		return
	}
	undos, redos := m.GetUndoCount(), m.GetRedoCount()
	if undos == m.reportedUndos && redos == m.reportedRedos {
		return
	}
	m.reportedUndos, m.reportedRedos = undos, redos
	m.onChanged(undos, redos)
}
