package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"leadbot_backend/internal/events"
	"leadbot_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
)

type fakeAlertConfig struct {
	enabled bool
}

func (c fakeAlertConfig) GetSMTPHost() string       { return "smtp.example.com" }
func (c fakeAlertConfig) GetSMTPPort() int          { return 587 }
func (c fakeAlertConfig) GetSMTPUser() string       { return "bot@example.com" }
func (c fakeAlertConfig) GetSMTPPassword() string   { return "secret" }
func (c fakeAlertConfig) GetAlertRecipient() string { return "consultants@example.com" }
func (c fakeAlertConfig) GetAlertFromName() string  { return "Education AI Bot" }
func (c fakeAlertConfig) GetAlertsEnabled() bool    { return c.enabled }

type fakeDeliverer struct {
	sent []HotLeadPayload
	err  error
}

func (d *fakeDeliverer) SendHotLeadAlert(_ context.Context, payload HotLeadPayload) error {
	d.sent = append(d.sent, payload)
	return d.err
}

type fakeEnqueuer struct {
	queued []HotLeadPayload
	err    error
}

func (e *fakeEnqueuer) EnqueueHotLeadAlert(_ context.Context, payload HotLeadPayload) error {
	if e.err != nil {
		return e.err
	}
	e.queued = append(e.queued, payload)
	return nil
}

func escalationEvent() events.LeadEscalated {
	return events.LeadEscalated{
		BaseEvent: events.NewBaseEvent(),
		Phone:     "+15551234567",
		Name:      "John Smith",
		Category:  "MBA",
		Score:     85,
		Reason:    "budget and urgency stated",
		Summary:   "wants an MBA within a year",
	}
}

func TestDispatcherPrefersQueue(t *testing.T) {
	queue := &fakeEnqueuer{}
	sender := &fakeDeliverer{}
	d := NewDispatcher(queue, sender, fakeAlertConfig{enabled: true}, logger.New("test"))

	if err := d.handleLeadEscalated(context.Background(), escalationEvent()); err != nil {
		t.Fatalf("handleLeadEscalated() error = %v", err)
	}
	if len(queue.queued) != 1 {
		t.Fatalf("queued = %d, want 1", len(queue.queued))
	}
	if len(sender.sent) != 0 {
		t.Errorf("inline delivery used despite working queue")
	}
	if queue.queued[0].Summary != "wants an MBA within a year" {
		t.Errorf("payload summary = %q", queue.queued[0].Summary)
	}
}

func TestDispatcherFallsBackInline(t *testing.T) {
	queue := &fakeEnqueuer{err: errors.New("redis down")}
	sender := &fakeDeliverer{}
	d := NewDispatcher(queue, sender, fakeAlertConfig{enabled: true}, logger.New("test"))

	if err := d.handleLeadEscalated(context.Background(), escalationEvent()); err != nil {
		t.Fatalf("handleLeadEscalated() error = %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("inline deliveries = %d, want 1 after enqueue failure", len(sender.sent))
	}
}

func TestDispatcherInlineWithoutQueue(t *testing.T) {
	sender := &fakeDeliverer{}
	d := NewDispatcher(nil, sender, fakeAlertConfig{enabled: true}, logger.New("test"))

	if err := d.handleLeadEscalated(context.Background(), escalationEvent()); err != nil {
		t.Fatalf("handleLeadEscalated() error = %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("inline deliveries = %d, want 1", len(sender.sent))
	}
}

func TestDispatcherSwallowsDeliveryFailure(t *testing.T) {
	sender := &fakeDeliverer{err: errors.New("smtp timeout")}
	d := NewDispatcher(nil, sender, fakeAlertConfig{enabled: true}, logger.New("test"))

	if err := d.handleLeadEscalated(context.Background(), escalationEvent()); err != nil {
		t.Errorf("delivery failure must be swallowed, got %v", err)
	}
}

func TestDispatcherDisabled(t *testing.T) {
	queue := &fakeEnqueuer{}
	sender := &fakeDeliverer{}
	d := NewDispatcher(queue, sender, fakeAlertConfig{enabled: false}, logger.New("test"))

	if err := d.handleLeadEscalated(context.Background(), escalationEvent()); err != nil {
		t.Fatalf("handleLeadEscalated() error = %v", err)
	}
	if len(queue.queued) != 0 || len(sender.sent) != 0 {
		t.Errorf("disabled dispatcher still dispatched")
	}
}

type fakeSchedulerConfig struct {
	redisURL string
}

func (c fakeSchedulerConfig) GetRedisURL() string       { return c.redisURL }
func (c fakeSchedulerConfig) GetRedisTLSInsecure() bool { return false }
func (c fakeSchedulerConfig) GetAsynqQueueName() string { return "default" }
func (c fakeSchedulerConfig) GetAsynqConcurrency() int  { return 1 }

func TestClientEnqueuesHotLeadAlert(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(fakeSchedulerConfig{redisURL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer client.Close()

	payload := HotLeadPayload{Phone: "+15551234567", Name: "John Smith", Score: 85}
	if err := client.EnqueueHotLeadAlert(context.Background(), payload); err != nil {
		t.Fatalf("EnqueueHotLeadAlert() error = %v", err)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer inspector.Close()

	tasks, err := inspector.ListPendingTasks("default")
	if err != nil {
		t.Fatalf("ListPendingTasks() error = %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("pending tasks = %d, want 1", len(tasks))
	}
	if tasks[0].Type != TaskHotLeadAlert {
		t.Errorf("task type = %q, want %q", tasks[0].Type, TaskHotLeadAlert)
	}

	var got HotLeadPayload
	if err := json.Unmarshal(tasks[0].Payload, &got); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if got != payload {
		t.Errorf("payload = %+v, want %+v", got, payload)
	}
}

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(fakeSchedulerConfig{}); err == nil {
		t.Fatal("NewClient() with empty redis url must fail")
	}
}
