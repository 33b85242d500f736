package reports

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"leadbot_backend/internal/leads/domain"
	"leadbot_backend/internal/leads/repository"
	"leadbot_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const csvTimeLayout = "2006-01-02 15:04:05"

// Handler serves the JWT-protected reporting endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a new reports handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// LeadResponse is the lead listing payload.
type LeadResponse struct {
	ID          uuid.UUID `json:"id"`
	Phone       string    `json:"phone"`
	Name        *string   `json:"name"`
	Status      string    `json:"status"`
	Score       float64   `json:"score"`
	Category    *string   `json:"category"`
	ChatSummary *string   `json:"chatSummary"`
	LastMessage *string   `json:"lastMessage"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toLeadResponse(lead domain.Lead) LeadResponse {
	return LeadResponse{
		ID:          lead.ID,
		Phone:       lead.Phone,
		Name:        lead.Name,
		Status:      string(lead.Status),
		Score:       lead.Score,
		Category:    lead.Category,
		ChatSummary: lead.ChatSummary,
		LastMessage: lead.LastMessage,
		CreatedAt:   lead.CreatedAt,
		UpdatedAt:   lead.UpdatedAt,
	}
}

// HandleListLeads lists all leads, newest activity first.
// GET /api/v1/leads
func (h *Handler) HandleListLeads(c *gin.Context) {
	leads, err := h.repo.ListLeads(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]LeadResponse, 0, len(leads))
	for _, lead := range leads {
		out = append(out, toLeadResponse(lead))
	}
	httpkit.OK(c, gin.H{"leads": out})
}

// HandleExportLeads streams the lead list as CSV.
// GET /api/v1/leads/export
func (h *Handler) HandleExportLeads(c *gin.Context) {
	leads, err := h.repo.ListLeads(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=leads.csv")

	writer := csv.NewWriter(c.Writer)
	if err := writer.Write([]string{"phone", "name", "status", "score", "category", "summary", "last_message", "updated_at"}); err != nil {
		return
	}
	for _, lead := range leads {
		record := []string{
			lead.Phone,
			strValue(lead.Name),
			string(lead.Status),
			strconv.FormatFloat(lead.Score, 'f', 1, 64),
			strValue(lead.Category),
			strValue(lead.ChatSummary),
			strValue(lead.LastMessage),
			lead.UpdatedAt.UTC().Format(csvTimeLayout),
		}
		if err := writer.Write(record); err != nil {
			return
		}
	}
	writer.Flush()
}

// CallLogResponse is the interaction log listing payload.
type CallLogResponse struct {
	ID             uuid.UUID `json:"id"`
	Phone          string    `json:"phone"`
	MessageType    string    `json:"messageType"`
	APISuccess     bool      `json:"apiSuccess"`
	APIError       *string   `json:"apiError"`
	ResponseTimeMs *float64  `json:"responseTimeMs"`
	CreatedAt      time.Time `json:"createdAt"`
}

func toCallLogResponse(log repository.CallLog) CallLogResponse {
	return CallLogResponse{
		ID:             log.ID,
		Phone:          log.Phone,
		MessageType:    log.MessageType,
		APISuccess:     log.APISuccess,
		APIError:       log.APIError,
		ResponseTimeMs: log.ResponseTimeMs,
		CreatedAt:      log.CreatedAt,
	}
}

// HandleListLogs lists recent interaction log entries.
// GET /api/v1/logs?limit=200
func (h *Handler) HandleListLogs(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLogLimit)))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid limit", nil)
		return
	}

	logs, err := h.repo.ListCallLogs(c.Request.Context(), limit)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]CallLogResponse, 0, len(logs))
	for _, log := range logs {
		out = append(out, toCallLogResponse(log))
	}
	httpkit.OK(c, gin.H{"logs": out})
}

// HandleGetStats returns aggregate interaction log counters.
// GET /api/v1/logs/stats
func (h *Handler) HandleGetStats(c *gin.Context) {
	stats, err := h.repo.GetStats(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, stats)
}

func strValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
