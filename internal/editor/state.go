package editor

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/absmartly/domeditor/internal/models"
)

// Phase is the editor session state. TextEditing is a sub-state of an active
// session: while it holds, selection changes and the global Escape-exits
// shortcut are suppressed.
type Phase int

const (
	PhaseInactive Phase = iota
	PhaseActive
	PhaseTextEditing
)

func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseTextEditing:
		return "textEditing"
	default:
		return "inactive"
	}
}

// Session is the shared editing-session state the coordinator and its
// collaborators read. One Session exists per editor activation; it is plain
// instance state, never a package-level registry.
type Session struct {
	phase Phase

	selected         *goquery.Selection
	selectedSelector string
	hovered          *goquery.Selection
	hoveredSelector  string

	// listenersSuspended suppresses hover and selection handling while a
	// dialog overlay is up.
	listenersSuspended bool

	// Changes mirrors the current squashed changeset for UI display.
	Changes []models.Change

	// UndoCount and RedoCount back the UI badges. They are refreshed by the
	// history changed-callback only when the counts actually moved.
	UndoCount int
	RedoCount int
}

// NewSession creates an inactive session.
func NewSession() *Session {
	return &Session{phase: PhaseInactive}
}

// Phase returns the current session phase.
func (s *Session) Phase() Phase {
	return s.phase
}

// IsActive reports whether the session accepts edit operations.
func (s *Session) IsActive() bool {
	return s.phase != PhaseInactive
}

// Selected returns the current selection and its resolved selector.
func (s *Session) Selected() (*goquery.Selection, string) {
	return s.selected, s.selectedSelector
}

// Hovered returns the current hover target and its resolved selector.
func (s *Session) Hovered() (*goquery.Selection, string) {
	return s.hovered, s.hoveredSelector
}

func (s *Session) setSelected(sel *goquery.Selection, selector string) {
	s.selected = sel
	s.selectedSelector = selector
}

func (s *Session) setHovered(sel *goquery.Selection, selector string) {
	s.hovered = sel
	s.hoveredSelector = selector
}

// reset returns the session to its initial inactive state.
func (s *Session) reset() {
	s.phase = PhaseInactive
	s.selected = nil
	s.selectedSelector = ""
	s.hovered = nil
	s.hoveredSelector = ""
	s.listenersSuspended = false
	s.Changes = nil
	s.UndoCount = 0
	s.RedoCount = 0
}
