package reports

import (
	apphttp "leadbot_backend/internal/http"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the reporting bounded context module implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule creates and initializes the reports module.
func NewModule(pool *pgxpool.Pool) *Module {
	return &Module{
		handler: NewHandler(NewRepository(pool)),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "reports"
}

// RegisterRoutes mounts the JWT-protected reporting routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/leads", m.handler.HandleListLeads)
	ctx.Protected.GET("/leads/export", m.handler.HandleExportLeads)
	ctx.Protected.GET("/logs", m.handler.HandleListLogs)
	ctx.Protected.GET("/logs/stats", m.handler.HandleGetStats)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
