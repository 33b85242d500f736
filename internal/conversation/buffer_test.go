package conversation

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestAppendAccumulatesTaggedLines(t *testing.T) {
	buf := New(0)

	messages := []string{"hi", "I want MBA", "budget is 20k"}
	var transcript string
	var count int

	for i, msg := range messages {
		transcript, count = buf.Append("+15551234567", msg)
		if count != i+1 {
			t.Fatalf("after %d appends count = %d, want %d", i+1, count, i+1)
		}
	}

	lines := strings.Split(strings.TrimSuffix(transcript, "\n"), "\n")
	if len(lines) != len(messages) {
		t.Fatalf("transcript has %d lines, want %d:\n%s", len(lines), len(messages), transcript)
	}
	for i, line := range lines {
		want := "Lead: " + messages[i]
		if line != want {
			t.Errorf("line %d = %q, want %q", i, line, want)
		}
	}
}

func TestAppendIsolatesIdentities(t *testing.T) {
	buf := New(0)

	buf.Append("alice", "hello")
	transcript, count := buf.Append("bob", "hey there")

	if count != 1 {
		t.Errorf("bob's count = %d, want 1", count)
	}
	if strings.Contains(transcript, "hello") {
		t.Errorf("bob's transcript leaked alice's message: %q", transcript)
	}
}

func TestAppendConcurrentSameIdentity(t *testing.T) {
	buf := New(0)
	const n = 100

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf.Append("racer", "message body")
		}()
	}
	wg.Wait()

	transcript, count := buf.Append("racer", "final")
	if count != n+1 {
		t.Fatalf("count = %d, want %d", count, n+1)
	}

	lines := strings.Split(strings.TrimSuffix(transcript, "\n"), "\n")
	if len(lines) != n+1 {
		t.Fatalf("transcript has %d lines, want %d", len(lines), n+1)
	}
	for i, line := range lines[:n] {
		if line != "Lead: message body" {
			t.Fatalf("line %d is torn or interleaved: %q", i, line)
		}
	}
}

func TestEvictIdleRespectsTTL(t *testing.T) {
	buf := New(time.Minute)

	buf.Append("stale", "old message")
	buf.Append("fresh", "new message")

	// Backdate the stale entry past the TTL.
	buf.mu.Lock()
	buf.entries["stale"].touchedAt = time.Now().Add(-2 * time.Minute)
	buf.mu.Unlock()

	buf.evictIdle(time.Now())

	if buf.Len() != 1 {
		t.Fatalf("after eviction Len() = %d, want 1", buf.Len())
	}
	if _, count := buf.Append("fresh", "still here"); count != 2 {
		t.Errorf("fresh buffer was evicted, count = %d, want 2", count)
	}
}

func TestZeroTTLNeverEvicts(t *testing.T) {
	buf := New(0)
	buf.Append("keeper", "message")

	buf.evictIdle(time.Now().Add(24 * time.Hour))

	if buf.Len() != 1 {
		t.Fatalf("zero-TTL buffer evicted an entry, Len() = %d", buf.Len())
	}
}
