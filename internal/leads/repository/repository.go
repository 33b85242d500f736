// Package repository provides data access for leads and the interaction log.
package repository

import (
	"context"
	"errors"

	"leadbot_backend/internal/leads/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a lead does not exist.
var ErrNotFound = errors.New("lead not found")

const leadColumns = "id, phone, name, status, score, category, chat_summary, last_message, created_at, updated_at"

// Repository provides data access for leads.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new leads repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetOrCreate fetches the lead for a phone number, creating it with status
// "new" on first contact. Creation is idempotent under concurrent first
// messages: the unique constraint on phone plus re-fetch resolves the race.
func (r *Repository) GetOrCreate(ctx context.Context, phone string) (domain.Lead, error) {
	var lead domain.Lead
	err := r.pool.QueryRow(ctx, `
		INSERT INTO leads (phone)
		VALUES ($1)
		ON CONFLICT (phone) DO NOTHING
		RETURNING `+leadColumns+`
	`, phone).Scan(
		&lead.ID, &lead.Phone, &lead.Name, &lead.Status, &lead.Score,
		&lead.Category, &lead.ChatSummary, &lead.LastMessage, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		// Lost the insert race; the row exists now.
		return r.GetByPhone(ctx, phone)
	}
	return lead, err
}

// GetByPhone fetches a lead by its phone number.
func (r *Repository) GetByPhone(ctx context.Context, phone string) (domain.Lead, error) {
	var lead domain.Lead
	err := r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE phone = $1
	`, phone).Scan(
		&lead.ID, &lead.Phone, &lead.Name, &lead.Status, &lead.Score,
		&lead.Category, &lead.ChatSummary, &lead.LastMessage, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return lead, err
}

// SetName records the inferred name. The guard on name IS NULL enforces the
// write-once invariant at the store level; a lost race is not an error.
func (r *Repository) SetName(ctx context.Context, phone string, name string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET name = $2, updated_at = now()
		WHERE phone = $1 AND name IS NULL
	`, phone, name)
	return err
}

// Update overwrites the analysis-derived columns of a lead.
func (r *Repository) Update(ctx context.Context, lead domain.Lead) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET status = $2, score = $3, category = $4, chat_summary = $5, last_message = $6, updated_at = now()
		WHERE id = $1
	`, lead.ID, lead.Status, lead.Score, lead.Category, lead.ChatSummary, lead.LastMessage)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
