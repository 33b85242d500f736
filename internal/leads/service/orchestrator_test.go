package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"leadbot_backend/internal/conversation"
	"leadbot_backend/internal/events"
	"leadbot_backend/internal/intent"
	"leadbot_backend/internal/leads/domain"
	"leadbot_backend/internal/leads/repository"
	"leadbot_backend/platform/ai/gemini"
	"leadbot_backend/platform/logger"
)

type fakeStore struct {
	leads     map[string]domain.Lead
	logs      []repository.CreateCallLogParams
	createErr error
	updateErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{leads: make(map[string]domain.Lead)}
}

func (s *fakeStore) GetOrCreate(_ context.Context, phone string) (domain.Lead, error) {
	if s.createErr != nil {
		return domain.Lead{}, s.createErr
	}
	if lead, ok := s.leads[phone]; ok {
		return lead, nil
	}
	lead := domain.Lead{Phone: phone, Status: domain.StatusNew}
	s.leads[phone] = lead
	return lead, nil
}

func (s *fakeStore) SetName(_ context.Context, phone, name string) error {
	lead := s.leads[phone]
	if lead.Name == nil {
		lead.Name = &name
		s.leads[phone] = lead
	}
	return nil
}

func (s *fakeStore) Update(_ context.Context, lead domain.Lead) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.leads[lead.Phone] = lead
	return nil
}

func (s *fakeStore) InsertCallLog(_ context.Context, params repository.CreateCallLogParams) error {
	s.logs = append(s.logs, params)
	return nil
}

func (s *fakeStore) logsOfType(messageType string) []repository.CreateCallLogParams {
	var out []repository.CreateCallLogParams
	for _, l := range s.logs {
		if l.MessageType == messageType {
			out = append(out, l)
		}
	}
	return out
}

type fakeAnalyzer struct {
	result      gemini.Analysis
	err         error
	calls       int
	transcripts []string
}

func (a *fakeAnalyzer) Analyze(_ context.Context, transcript string) (gemini.Analysis, error) {
	a.calls++
	a.transcripts = append(a.transcripts, transcript)
	if a.err != nil {
		return gemini.Analysis{}, a.err
	}
	return a.result, nil
}

type fakeBus struct {
	published []events.Event
}

func (b *fakeBus) Publish(_ context.Context, event events.Event)          { b.published = append(b.published, event) }
func (b *fakeBus) PublishSync(_ context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}
func (b *fakeBus) Subscribe(string, events.Handler) {}

type fakeOrchestratorConfig struct {
	threshold int
	timeout   time.Duration
	stickyHot bool
}

func (c fakeOrchestratorConfig) GetAnalysisThreshold() int          { return c.threshold }
func (c fakeOrchestratorConfig) GetAnalysisTimeout() time.Duration  { return c.timeout }
func (c fakeOrchestratorConfig) GetStickyHotLeads() bool            { return c.stickyHot }

func newTestOrchestrator(store *fakeStore, analyzer *fakeAnalyzer, bus *fakeBus) *Orchestrator {
	return NewOrchestrator(
		store,
		conversation.New(0),
		analyzer,
		bus,
		fakeOrchestratorConfig{threshold: 3, timeout: time.Second},
		logger.New("test"),
	)
}

func TestHandleBelowThresholdSkipsAnalysis(t *testing.T) {
	store := newFakeStore()
	analyzer := &fakeAnalyzer{}
	o := newTestOrchestrator(store, analyzer, &fakeBus{})

	reply := o.Handle(context.Background(), "+15551234567", "hi there")
	if analyzer.calls != 0 {
		t.Fatalf("analyzer called %d times below threshold, want 0", analyzer.calls)
	}
	if !strings.Contains(reply, "Education AI Assistant") {
		t.Errorf("reply = %q, want greeting", reply)
	}

	o.Handle(context.Background(), "+15551234567", "I want to do an MBA")
	if analyzer.calls != 0 {
		t.Fatalf("analyzer called after 2 messages, want threshold 3")
	}
}

func TestHandleAnalyzesAtThresholdAndEveryMessageAfter(t *testing.T) {
	store := newFakeStore()
	analyzer := &fakeAnalyzer{result: gemini.Analysis{Score: 60, Category: "MBA"}}
	o := newTestOrchestrator(store, analyzer, &fakeBus{})

	for _, msg := range []string{"hi", "I want MBA", "what about fees", "any scholarships"} {
		o.Handle(context.Background(), "+15551234567", msg)
	}
	if analyzer.calls != 2 {
		t.Fatalf("analyzer calls = %d, want 2 (messages 3 and 4)", analyzer.calls)
	}

	transcript := analyzer.transcripts[0]
	want := "Lead: hi\nLead: I want MBA\nLead: what about fees\n"
	if transcript != want {
		t.Errorf("transcript = %q, want %q", transcript, want)
	}
}

func TestHandleEscalation(t *testing.T) {
	store := newFakeStore()
	analyzer := &fakeAnalyzer{result: gemini.Analysis{
		Score:      85,
		Category:   "MBA",
		NeedsHuman: true,
		Reason:     "budget and urgency stated",
		Summary:    "wants an MBA within a year, 20k budget",
	}}
	bus := &fakeBus{}
	o := newTestOrchestrator(store, analyzer, bus)

	phone := "+15551234567"
	o.Handle(context.Background(), phone, "hi")
	o.Handle(context.Background(), phone, "I want MBA")
	reply := o.Handle(context.Background(), phone, "budget is 20k")

	if reply != HandoffReply {
		t.Errorf("reply = %q, want handoff reply", reply)
	}

	lead := store.leads[phone]
	if lead.Status != domain.StatusHot {
		t.Errorf("status = %q, want hot", lead.Status)
	}
	if lead.Score != 85 {
		t.Errorf("score = %v, want 85", lead.Score)
	}
	if lead.LastMessage == nil || *lead.LastMessage != "budget is 20k" {
		t.Errorf("last message = %v, want current inbound text", lead.LastMessage)
	}

	if len(bus.published) != 1 {
		t.Fatalf("published %d events, want 1", len(bus.published))
	}
	escalated, ok := bus.published[0].(events.LeadEscalated)
	if !ok {
		t.Fatalf("published event type = %T, want LeadEscalated", bus.published[0])
	}
	if escalated.Phone != phone {
		t.Errorf("event phone = %q, want %q", escalated.Phone, phone)
	}
	if escalated.Reason != "budget and urgency stated" {
		t.Errorf("event reason = %q", escalated.Reason)
	}
	if escalated.Summary != "wants an MBA within a year, 20k budget" {
		t.Errorf("event summary = %q", escalated.Summary)
	}
}

func TestHandleNonEscalatingAnalysisWarmsLead(t *testing.T) {
	store := newFakeStore()
	analyzer := &fakeAnalyzer{result: gemini.Analysis{Score: 45, Category: "IELTS"}}
	bus := &fakeBus{}
	o := newTestOrchestrator(store, analyzer, bus)

	phone := "+15551234567"
	o.Handle(context.Background(), phone, "hi")
	o.Handle(context.Background(), phone, "ielts info please")
	reply := o.Handle(context.Background(), phone, "what is the fee")

	if reply == HandoffReply {
		t.Errorf("non-escalating analysis must not return the handoff reply")
	}
	if !strings.Contains(reply, "budget") {
		t.Errorf("reply = %q, want budget canned reply", reply)
	}
	if store.leads[phone].Status != domain.StatusWarm {
		t.Errorf("status = %q, want warm", store.leads[phone].Status)
	}
	if len(bus.published) != 0 {
		t.Errorf("published %d events, want none", len(bus.published))
	}
}

func TestHandleAnalysisFailureLeavesLeadUntouched(t *testing.T) {
	store := newFakeStore()
	analyzer := &fakeAnalyzer{err: errors.New("provider unavailable")}
	bus := &fakeBus{}
	o := newTestOrchestrator(store, analyzer, bus)

	phone := "+15551234567"
	o.Handle(context.Background(), phone, "hi")
	o.Handle(context.Background(), phone, "I want MBA")
	before := store.leads[phone]
	reply := o.Handle(context.Background(), phone, "tell me about fees")

	if !strings.Contains(reply, "budget") {
		t.Errorf("reply = %q, want normal intent reply despite analysis failure", reply)
	}
	after := store.leads[phone]
	if after.Status != before.Status || after.Score != before.Score {
		t.Errorf("lead changed after failed analysis: before=%+v after=%+v", before, after)
	}
	if len(bus.published) != 0 {
		t.Errorf("published %d events after failed analysis, want none", len(bus.published))
	}

	failures := store.logsOfType(repository.MessageTypeLLMAnalysis)
	if len(failures) != 1 {
		t.Fatalf("llm_analysis logs = %d, want 1", len(failures))
	}
	if failures[0].APISuccess {
		t.Errorf("failure log marked successful")
	}
	if failures[0].APIError == nil || !strings.Contains(*failures[0].APIError, "provider unavailable") {
		t.Errorf("failure log error = %v", failures[0].APIError)
	}
}

func TestHandleUpdateFailureCancelsEscalation(t *testing.T) {
	store := newFakeStore()
	store.updateErr = errors.New("connection reset")
	analyzer := &fakeAnalyzer{result: gemini.Analysis{Score: 90, NeedsHuman: true}}
	bus := &fakeBus{}
	o := newTestOrchestrator(store, analyzer, bus)

	phone := "+15551234567"
	o.Handle(context.Background(), phone, "hi")
	o.Handle(context.Background(), phone, "I want MBA")
	reply := o.Handle(context.Background(), phone, "budget is 20k")

	if reply == HandoffReply {
		t.Errorf("escalation reply sent without a durable lead update")
	}
	if len(bus.published) != 0 {
		t.Errorf("escalation published without a durable lead update")
	}
}

func TestHandleInfersNameOnce(t *testing.T) {
	store := newFakeStore()
	o := newTestOrchestrator(store, &fakeAnalyzer{}, &fakeBus{})

	phone := "+15551234567"
	o.Handle(context.Background(), phone, "My name is john smith")
	lead := store.leads[phone]
	if lead.Name == nil || *lead.Name != "John Smith" {
		t.Fatalf("name = %v, want John Smith", lead.Name)
	}

	o.Handle(context.Background(), phone, "my name is someone else")
	if *store.leads[phone].Name != "John Smith" {
		t.Errorf("name overwritten to %q, want write-once", *store.leads[phone].Name)
	}
}

func TestHandleLogsReceivedAndReplied(t *testing.T) {
	store := newFakeStore()
	o := newTestOrchestrator(store, &fakeAnalyzer{}, &fakeBus{})

	o.Handle(context.Background(), "+15551234567", "hello")

	if got := len(store.logsOfType(repository.MessageTypeReceived)); got != 1 {
		t.Errorf("received logs = %d, want 1", got)
	}
	replied := store.logsOfType(repository.MessageTypeReplied)
	if len(replied) != 1 {
		t.Fatalf("replied logs = %d, want 1", len(replied))
	}
	if replied[0].ResponseTimeMs == nil {
		t.Errorf("replied log missing response time")
	}
}

func TestHandleStoreFailureStillReplies(t *testing.T) {
	store := newFakeStore()
	store.createErr = errors.New("database down")
	o := newTestOrchestrator(store, &fakeAnalyzer{}, &fakeBus{})

	reply := o.Handle(context.Background(), "+15551234567", "thanks")
	if reply != intent.Reply("thanks") {
		t.Errorf("reply = %q, want gratitude canned reply despite store failure", reply)
	}
}
