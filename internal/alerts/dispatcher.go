package alerts

import (
	"context"
	"fmt"
	"time"

	"leadbot_backend/internal/events"
	"leadbot_backend/platform/config"
	"leadbot_backend/platform/logger"
)

const inlineDeliveryTimeout = 30 * time.Second

// Deliverer sends one rendered alert. Satisfied by Sender.
type Deliverer interface {
	SendHotLeadAlert(ctx context.Context, payload HotLeadPayload) error
}

// Enqueuer queues one alert for asynchronous delivery. Satisfied by Client.
type Enqueuer interface {
	EnqueueHotLeadAlert(ctx context.Context, payload HotLeadPayload) error
}

// Dispatcher routes escalation events to the alert queue, falling back to
// inline SMTP delivery when no queue is configured. Delivery failures are
// logged and swallowed so an alert problem never disturbs conversations.
type Dispatcher struct {
	queue   Enqueuer
	sender  Deliverer
	enabled bool
	log     *logger.Logger
}

// NewDispatcher creates the escalation event handler. queue may be nil.
func NewDispatcher(queue Enqueuer, sender Deliverer, cfg config.AlertConfig, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		queue:   queue,
		sender:  sender,
		enabled: cfg.GetAlertsEnabled(),
		log:     log,
	}
}

// RegisterHandlers subscribes the dispatcher to escalation events.
func (d *Dispatcher) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadEscalated{}.EventName(), events.HandlerFunc(d.handleLeadEscalated))
}

func (d *Dispatcher) handleLeadEscalated(ctx context.Context, event events.Event) error {
	escalated, ok := event.(events.LeadEscalated)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	if !d.enabled {
		d.log.Info("alerts disabled; skipping hot lead alert", "phone", escalated.Phone)
		return nil
	}

	payload := HotLeadPayload{
		Phone:    escalated.Phone,
		Name:     escalated.Name,
		Category: escalated.Category,
		Score:    escalated.Score,
		Reason:   escalated.Reason,
		Summary:  escalated.Summary,
	}

	if d.queue != nil {
		if err := d.queue.EnqueueHotLeadAlert(ctx, payload); err == nil {
			return nil
		} else {
			d.log.AlertFailure(payload.Phone, err)
		}
		// Fall through to inline delivery on enqueue failure.
	}

	deliverCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), inlineDeliveryTimeout)
	defer cancel()
	if err := d.sender.SendHotLeadAlert(deliverCtx, payload); err != nil {
		d.log.AlertFailure(payload.Phone, err)
	}
	return nil
}
