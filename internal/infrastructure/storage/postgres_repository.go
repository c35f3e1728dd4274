package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"DailyBrief/internal/domain"
	"DailyBrief/internal/ports"
)

const briefsTable = "briefs"

// PostgresRepository persists generated briefs into Postgres.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.BriefRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Save upserts the brief snapshot.
func (r *PostgresRepository) Save(ctx context.Context, userID string, brief domain.Brief) error {
	if r.db == nil {
		return nil
	}

	payload, err := json.Marshal(brief)
	if err != nil {
		return fmt.Errorf("encode brief %s: %w", brief.ID, err)
	}

	query, args, err := r.builder.
		Insert(briefsTable).
		Columns("id", "user_id", "generated_at", "mode", "item_count", "total_read_time_seconds", "payload").
		Values(brief.ID, userID, brief.GeneratedAt, brief.Mode.Name, len(brief.Items), brief.TotalReadTimeSeconds, payload).
		Suffix(`ON CONFLICT (id) DO UPDATE
              SET payload = EXCLUDED.payload,
                  item_count = EXCLUDED.item_count,
                  total_read_time_seconds = EXCLUDED.total_read_time_seconds,
                  updated_at = NOW()`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert brief: %w", err)
	}

	return nil
}

// Get loads one brief by id.
func (r *PostgresRepository) Get(ctx context.Context, briefID string) (domain.Brief, error) {
	if r.db == nil {
		return domain.Brief{}, ports.ErrNotFound
	}

	query, args, err := r.builder.
		Select("payload").
		From(briefsTable).
		Where(sq.Eq{"id": briefID}).
		ToSql()
	if err != nil {
		return domain.Brief{}, fmt.Errorf("build select: %w", err)
	}

	var payload []byte
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Brief{}, ports.ErrNotFound
	}
	if err != nil {
		return domain.Brief{}, fmt.Errorf("query brief: %w", err)
	}

	return decodeBrief(payload)
}

// Recent returns up to limit briefs of userID, newest first.
func (r *PostgresRepository) Recent(ctx context.Context, userID string, limit int) ([]domain.Brief, error) {
	if r.db == nil {
		return []domain.Brief{}, nil
	}

	builder := r.builder.
		Select("payload").
		From(briefsTable).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("generated_at DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query briefs: %w", err)
	}

	result := make([]domain.Brief, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan brief: %w", err)
		}
		brief, err := decodeBrief(payload)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		result = append(result, brief)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}

func decodeBrief(payload []byte) (domain.Brief, error) {
	var brief domain.Brief
	if err := json.Unmarshal(payload, &brief); err != nil {
		return domain.Brief{}, fmt.Errorf("decode brief: %w", err)
	}
	return brief, nil
}
