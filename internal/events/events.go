// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"leadbot_backend/platform/events"
	"leadbot_backend/platform/logger"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// InMemoryBus is a type alias to the platform InMemoryBus
type InMemoryBus = events.InMemoryBus

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadEscalated is published when a successful analysis flags a lead for
// human follow-up. The payload carries the post-update lead snapshot plus
// the analysis reason and summary, so alert handlers need no extra reads.
type LeadEscalated struct {
	BaseEvent
	Phone    string  `json:"phone"`
	Name     string  `json:"name,omitempty"`
	Category string  `json:"category"`
	Score    float64 `json:"score"`
	Reason   string  `json:"reason"`
	Summary  string  `json:"summary"`
}

func (e LeadEscalated) EventName() string { return "leads.escalated" }
