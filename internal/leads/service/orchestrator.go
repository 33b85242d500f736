// Package service contains the conversation orchestrator: the per-message
// state machine that turns inbound chat messages into lead state, analysis
// calls, escalations and replies.
package service

import (
	"context"
	"encoding/json"
	"time"

	"leadbot_backend/internal/conversation"
	"leadbot_backend/internal/events"
	"leadbot_backend/internal/intent"
	"leadbot_backend/internal/leads/domain"
	"leadbot_backend/internal/leads/repository"
	"leadbot_backend/platform/ai/gemini"
	"leadbot_backend/platform/config"
	"leadbot_backend/platform/logger"
)

// HandoffReply is the fixed reply sent when an analysis escalates the lead.
const HandoffReply = "Thank you! A human consultant will contact you shortly to discuss your goals."

// LeadStore is the persistence surface the orchestrator needs.
// Satisfied by repository.Repository.
type LeadStore interface {
	GetOrCreate(ctx context.Context, phone string) (domain.Lead, error)
	SetName(ctx context.Context, phone string, name string) error
	Update(ctx context.Context, lead domain.Lead) error
	InsertCallLog(ctx context.Context, params repository.CreateCallLogParams) error
}

// Analyzer scores and summarizes a conversation transcript.
// Satisfied by gemini.Client.
type Analyzer interface {
	Analyze(ctx context.Context, transcript string) (gemini.Analysis, error)
}

// Orchestrator handles one inbound message end to end. Every step is
// failure-isolated: no internal fault may prevent a reply.
type Orchestrator struct {
	store    LeadStore
	buffer   *conversation.Buffer
	analyzer Analyzer
	bus      events.Bus
	cfg      config.OrchestratorConfig
	log      *logger.Logger
}

// NewOrchestrator creates the conversation orchestrator.
func NewOrchestrator(store LeadStore, buffer *conversation.Buffer, analyzer Analyzer, bus events.Bus, cfg config.OrchestratorConfig, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		store:    store,
		buffer:   buffer,
		analyzer: analyzer,
		bus:      bus,
		cfg:      cfg,
		log:      log,
	}
}

// Handle processes one inbound message for a sender and returns the reply
// text. The sequence is: received log, fetch-or-create lead, buffer append,
// name inference, conditional analysis, reply selection, replied log.
func (o *Orchestrator) Handle(ctx context.Context, phone, message string) string {
	start := time.Now()

	if err := o.store.InsertCallLog(ctx, repository.CreateCallLogParams{
		Phone:       phone,
		MessageType: repository.MessageTypeReceived,
		APISuccess:  true,
	}); err != nil {
		o.log.DatabaseError("insert received log", err)
	}

	// Without a lead row there is nothing to analyze or update, but the
	// conversation still accumulates and the sender still gets a reply.
	lead, leadErr := o.store.GetOrCreate(ctx, phone)
	if leadErr != nil {
		o.log.DatabaseError("get or create lead", leadErr)
	}

	transcript, count := o.buffer.Append(phone, message)

	if leadErr == nil && lead.Name == nil {
		if name, ok := intent.InferName(message); ok {
			if err := o.store.SetName(ctx, phone, name); err != nil {
				o.log.DatabaseError("set lead name", err)
			} else {
				lead.Name = &name
			}
		}
	}

	escalated := false
	var analysis gemini.Analysis
	if leadErr == nil && count >= o.cfg.GetAnalysisThreshold() {
		analysis, escalated = o.runAnalysis(ctx, &lead, transcript, message)
	}

	var reply string
	if escalated {
		o.publishEscalation(ctx, lead, analysis)
		reply = HandoffReply
	} else {
		reply = intent.Reply(message)
	}

	o.logReplied(ctx, phone, start)
	return reply
}

// runAnalysis invokes the analysis provider under a deadline and applies a
// successful result to the lead. It returns whether the (committed) result
// escalates the lead. Provider failure of any kind skips the lead update and
// is recorded to the interaction log only.
func (o *Orchestrator) runAnalysis(ctx context.Context, lead *domain.Lead, transcript, message string) (gemini.Analysis, bool) {
	callCtx := ctx
	if timeout := o.cfg.GetAnalysisTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	analysis, err := o.analyzer.Analyze(callCtx, transcript)
	elapsedMs := float64(time.Since(start).Microseconds()) / 1000

	if err != nil {
		o.log.AnalysisEvent(lead.Phone, false, elapsedMs, err)
		errText := err.Error()
		o.appendAnalysisLog(ctx, lead.Phone, transcript, nil, &errText, elapsedMs)
		return gemini.Analysis{}, false
	}

	lead.ApplyAnalysis(analysis, message, o.cfg.GetStickyHotLeads())
	if err := o.store.Update(ctx, *lead); err != nil {
		// The lead update must be durable before escalation; treat a failed
		// commit like an analysis failure for everything downstream.
		o.log.DatabaseError("apply analysis to lead", err)
		errText := err.Error()
		o.appendAnalysisLog(ctx, lead.Phone, transcript, nil, &errText, elapsedMs)
		return gemini.Analysis{}, false
	}

	o.log.AnalysisEvent(lead.Phone, true, elapsedMs, nil)
	payload, _ := json.Marshal(analysis)
	response := string(payload)
	o.appendAnalysisLog(ctx, lead.Phone, transcript, &response, nil, elapsedMs)

	return analysis, analysis.NeedsHuman
}

func (o *Orchestrator) publishEscalation(ctx context.Context, lead domain.Lead, analysis gemini.Analysis) {
	event := events.LeadEscalated{
		BaseEvent: events.NewBaseEvent(),
		Phone:     lead.Phone,
		Category:  analysis.Category,
		Score:     analysis.Score,
		Reason:    analysis.Reason,
		Summary:   analysis.Summary,
	}
	if lead.Name != nil {
		event.Name = *lead.Name
	}
	o.bus.Publish(ctx, event)
}

func (o *Orchestrator) appendAnalysisLog(ctx context.Context, phone, prompt string, response, apiError *string, elapsedMs float64) {
	params := repository.CreateCallLogParams{
		Phone:          phone,
		MessageType:    repository.MessageTypeLLMAnalysis,
		LLMPrompt:      &prompt,
		LLMResponse:    response,
		APISuccess:     apiError == nil,
		APIError:       apiError,
		ResponseTimeMs: &elapsedMs,
	}
	if err := o.store.InsertCallLog(ctx, params); err != nil {
		o.log.DatabaseError("insert analysis log", err)
	}
}

func (o *Orchestrator) logReplied(ctx context.Context, phone string, start time.Time) {
	elapsedMs := float64(time.Since(start).Microseconds()) / 1000
	if err := o.store.InsertCallLog(ctx, repository.CreateCallLogParams{
		Phone:          phone,
		MessageType:    repository.MessageTypeReplied,
		APISuccess:     true,
		ResponseTimeMs: &elapsedMs,
	}); err != nil {
		o.log.DatabaseError("insert replied log", err)
	}
}
