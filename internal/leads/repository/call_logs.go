package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Interaction log message types. The unanswered kind is reserved for a
// future withheld-reply branch; no current code path produces it, but the
// reporting surface still counts it.
const (
	MessageTypeReceived    = "received"
	MessageTypeReplied     = "replied"
	MessageTypeUnanswered  = "unanswered"
	MessageTypeLLMAnalysis = "llm_analysis"
)

// CallLog is one append-only interaction log row.
type CallLog struct {
	ID             uuid.UUID
	Phone          string
	MessageType    string
	LLMPrompt      *string
	LLMResponse    *string
	APISuccess     bool
	APIError       *string
	ResponseTimeMs *float64
	CreatedAt      time.Time
}

// CreateCallLogParams contains the parameters for appending a log entry.
type CreateCallLogParams struct {
	Phone          string
	MessageType    string
	LLMPrompt      *string
	LLMResponse    *string
	APISuccess     bool
	APIError       *string
	ResponseTimeMs *float64
}

// InsertCallLog appends one interaction log entry. Rows are never updated
// or deleted afterwards.
func (r *Repository) InsertCallLog(ctx context.Context, params CreateCallLogParams) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO api_logs (phone, message_type, llm_prompt, llm_response, api_success, api_error, response_time_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		params.Phone, params.MessageType, params.LLMPrompt, params.LLMResponse,
		params.APISuccess, params.APIError, params.ResponseTimeMs,
	)
	return err
}
