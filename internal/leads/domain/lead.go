// Package domain holds the lead model and its state-transition policy.
package domain

import (
	"time"

	"leadbot_backend/platform/ai/gemini"

	"github.com/google/uuid"
)

// Status is the lead lifecycle state.
type Status string

const (
	// StatusNew is the state of a freshly created lead, before any analysis.
	StatusNew Status = "new"
	// StatusWarm is set by a successful non-escalating analysis.
	StatusWarm Status = "warm"
	// StatusHot is set by a successful escalating analysis.
	StatusHot Status = "hot"
	// StatusHumanNeeded is reserved for manual triage flows; no automated
	// transition currently produces it.
	StatusHumanNeeded Status = "human_needed"
)

// Lead is the durable record tracking a prospective student, keyed by phone.
// Name is write-once: inference only fires while it is nil and the store
// refuses to overwrite a non-null value.
type Lead struct {
	ID          uuid.UUID
	Phone       string
	Name        *string
	Status      Status
	Score       float64
	Category    *string
	ChatSummary *string
	LastMessage *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DisplayName returns the inferred name or the phone number as a fallback.
func (l *Lead) DisplayName() string {
	if l.Name != nil && *l.Name != "" {
		return *l.Name
	}
	return l.Phone
}

// ApplyAnalysis overwrites score, category and summary wholesale from a
// successful analysis and derives the next status. A lead never reverts to
// new. With stickyHot enabled a hot lead stays hot across later
// non-escalating analyses; otherwise it follows each analysis verdict and
// may cool back to warm.
func (l *Lead) ApplyAnalysis(analysis gemini.Analysis, lastMessage string, stickyHot bool) {
	l.Score = analysis.Score
	category := analysis.Category
	l.Category = &category
	summary := analysis.Summary
	l.ChatSummary = &summary
	message := lastMessage
	l.LastMessage = &message

	next := StatusWarm
	if analysis.NeedsHuman {
		next = StatusHot
	}
	if stickyHot && l.Status == StatusHot {
		next = StatusHot
	}
	l.Status = next
}
