// Package reports is the read-only dashboard bounded context: lead listings,
// interaction log listings and aggregate API statistics.
package reports

import (
	"context"

	"leadbot_backend/internal/leads/domain"
	"leadbot_backend/internal/leads/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultLogLimit = 200

// Repository provides read access for the reporting endpoints.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new reports repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListLeads returns all leads, most recently touched first.
func (r *Repository) ListLeads(ctx context.Context) ([]domain.Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, phone, name, status, score, category, chat_summary, last_message, created_at, updated_at
		FROM leads
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Lead, error) {
		var lead domain.Lead
		err := row.Scan(
			&lead.ID, &lead.Phone, &lead.Name, &lead.Status, &lead.Score,
			&lead.Category, &lead.ChatSummary, &lead.LastMessage, &lead.CreatedAt, &lead.UpdatedAt,
		)
		return lead, err
	})
}

// ListCallLogs returns the most recent interaction log entries.
func (r *Repository) ListCallLogs(ctx context.Context, limit int) ([]repository.CallLog, error) {
	if limit < 1 || limit > 1000 {
		limit = defaultLogLimit
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, phone, message_type, llm_prompt, llm_response, api_success, api_error, response_time_ms, created_at
		FROM api_logs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (repository.CallLog, error) {
		var log repository.CallLog
		err := row.Scan(
			&log.ID, &log.Phone, &log.MessageType, &log.LLMPrompt, &log.LLMResponse,
			&log.APISuccess, &log.APIError, &log.ResponseTimeMs, &log.CreatedAt,
		)
		return log, err
	})
}

// Stats aggregates the interaction log for the dashboard.
type Stats struct {
	MessagesReceived int64    `json:"messagesReceived"`
	MessagesReplied  int64    `json:"messagesReplied"`
	Unanswered       int64    `json:"unanswered"`
	AnalysisRuns     int64    `json:"analysisRuns"`
	AnalysisFailures int64    `json:"analysisFailures"`
	AvgAnalysisMs    *float64 `json:"avgAnalysisMs"`
}

// GetStats computes aggregate counters over the whole interaction log.
func (r *Repository) GetStats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE message_type = 'received'),
			COUNT(*) FILTER (WHERE message_type = 'replied'),
			COUNT(*) FILTER (WHERE message_type = 'unanswered'),
			COUNT(*) FILTER (WHERE message_type = 'llm_analysis'),
			COUNT(*) FILTER (WHERE message_type = 'llm_analysis' AND NOT api_success),
			AVG(response_time_ms) FILTER (WHERE message_type = 'llm_analysis')
		FROM api_logs
	`).Scan(
		&stats.MessagesReceived, &stats.MessagesReplied, &stats.Unanswered,
		&stats.AnalysisRuns, &stats.AnalysisFailures, &stats.AvgAnalysisMs,
	)
	return stats, err
}
