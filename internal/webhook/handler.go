// Package webhook is the inbound message bounded context: it receives Twilio
// WhatsApp form posts, filters them, and hands the message text to the
// conversation orchestrator.
package webhook

import (
	"context"

	"leadbot_backend/platform/config"
	"leadbot_backend/platform/logger"
	"leadbot_backend/platform/phone"
	"leadbot_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// inboundMessage is the subset of Twilio's webhook form fields this service
// consumes.
type inboundMessage struct {
	Body string `form:"Body" validate:"required"`
	From string `form:"From" validate:"required"`
	To   string `form:"To" validate:"required"`
}

// MessageHandler processes one inbound message and returns the reply text.
// Satisfied by service.Orchestrator.
type MessageHandler interface {
	Handle(ctx context.Context, phone, message string) string
}

// Handler handles inbound webhook HTTP requests.
type Handler struct {
	orchestrator MessageHandler
	botNumber    string
	val          *validator.Validator
	log          *logger.Logger
}

// NewHandler creates a new webhook handler.
func NewHandler(orchestrator MessageHandler, cfg config.WebhookConfig, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		botNumber:    cfg.GetBotNumber(),
		val:          val,
		log:          log,
	}
}

// HandleInbound processes an inbound Twilio WhatsApp message.
// POST /webhook
// Twilio delivers application/x-www-form-urlencoded with Body, From and To.
// Messages addressed to a different destination than the configured bot
// number are dropped: empty TwiML, no reply, no log entry.
func (h *Handler) HandleInbound(c *gin.Context) {
	var msg inboundMessage
	if err := c.ShouldBind(&msg); err != nil {
		writeTwiML(c)
		return
	}

	if msg.To != h.botNumber {
		h.log.Debug("dropping message for unknown destination", "to", msg.To)
		writeTwiML(c)
		return
	}
	if err := h.val.Struct(msg); err != nil {
		writeTwiML(c)
		return
	}

	sender := phone.NormalizeE164(msg.From)
	reply := h.orchestrator.Handle(c.Request.Context(), sender, msg.Body)
	writeTwiML(c, reply)
}
