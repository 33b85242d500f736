// Package webhook provides the inbound message bounded context module.
package webhook

import (
	apphttp "leadbot_backend/internal/http"
	"leadbot_backend/platform/config"
	"leadbot_backend/platform/logger"
	"leadbot_backend/platform/validator"
)

// Module is the webhook bounded context module implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule creates and initializes the webhook module.
func NewModule(orchestrator MessageHandler, cfg config.WebhookConfig, val *validator.Validator, log *logger.Logger) *Module {
	return &Module{
		handler: NewHandler(orchestrator, cfg, val, log),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts the public Twilio webhook. No JWT: Twilio cannot
// carry one. The per-IP rate limit is the only gate.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Engine.POST("/webhook", ctx.WebhookRateLimit, m.handler.HandleInbound)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
