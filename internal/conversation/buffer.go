// Package conversation holds the process-wide, sender-keyed accumulation of
// inbound message text. Buffers are memory-resident only; the durable lead
// record is derived from them but they are not persisted themselves.
package conversation

import (
	"context"
	"strings"
	"sync"
	"time"
)

// leadLinePrefix tags every buffered line as originating from the lead.
// The analysis provider is prompted with the accumulated text verbatim, so
// this prefix is part of the prompt contract.
const leadLinePrefix = "Lead: "

type entry struct {
	mu         sync.Mutex
	transcript strings.Builder
	count      int
	touchedAt  time.Time
}

// Buffer accumulates conversation text per sender identity. Appends for the
// same identity are serialized by a per-entry mutex; appends for different
// identities proceed concurrently.
type Buffer struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
}

// New creates a Buffer. A zero ttl disables eviction and buffers are retained
// for the life of the process.
func New(ttl time.Duration) *Buffer {
	return &Buffer{
		entries: make(map[string]*entry),
		ttl:     ttl,
	}
}

// Append records one inbound message for the identity and returns the full
// accumulated transcript plus the running message count.
func (b *Buffer) Append(identity, text string) (string, int) {
	e := b.entryFor(identity)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.transcript.WriteString(leadLinePrefix)
	e.transcript.WriteString(text)
	e.transcript.WriteString("\n")
	e.count++
	e.touchedAt = time.Now()

	return e.transcript.String(), e.count
}

func (b *Buffer) entryFor(identity string) *entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[identity]
	if !ok {
		e = &entry{}
		b.entries[identity] = e
	}
	return e
}

// Len returns the number of identities currently buffered.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Run sweeps idle buffers until the context is cancelled. It is a no-op when
// the TTL is zero.
func (b *Buffer) Run(ctx context.Context) {
	if b.ttl <= 0 {
		return
	}

	ticker := time.NewTicker(b.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.evictIdle(time.Now())
		}
	}
}

func (b *Buffer) evictIdle(now time.Time) {
	if b.ttl <= 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for identity, e := range b.entries {
		e.mu.Lock()
		idle := now.Sub(e.touchedAt) > b.ttl
		e.mu.Unlock()
		if idle {
			delete(b.entries, identity)
		}
	}
}
