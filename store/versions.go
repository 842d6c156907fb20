package store

import (
	"context"
	"errors"

	"docledger/types"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

const versionColumns = `id, document_id, version_number, status, summary_text, summary_type, summary_confidence, created_at`

// LatestVersion returns the version with the highest number, whatever its
// status.
func (p *PostgresStore) LatestVersion(ctx context.Context, docID uuid.UUID) (*types.ProcessingVersion, error) {
	return p.scanVersion(p.pool.QueryRow(ctx, `
		SELECT `+versionColumns+`
		FROM processing_versions
		WHERE document_id = $1
		ORDER BY version_number DESC
		LIMIT 1`, docID))
}

func (p *PostgresStore) VersionByNumber(ctx context.Context, docID uuid.UUID, number int) (*types.ProcessingVersion, error) {
	return p.scanVersion(p.pool.QueryRow(ctx, `
		SELECT `+versionColumns+`
		FROM processing_versions
		WHERE document_id = $1 AND version_number = $2`, docID, number))
}

func (p *PostgresStore) scanVersion(row pgx.Row) (*types.ProcessingVersion, error) {
	v := &types.ProcessingVersion{}
	err := row.Scan(&v.ID, &v.DocumentID, &v.VersionNumber, &v.Status,
		&v.SummaryText, &v.SummaryType, &v.SummaryConfidence, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (p *PostgresStore) ActionItems(ctx context.Context, versionID uuid.UUID) ([]types.ActionItem, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, processing_version_id, task_text, original_text, assignee_name, due_date, priority, confidence, created_at
		FROM action_items
		WHERE processing_version_id = $1
		ORDER BY created_at ASC, id ASC`, versionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []types.ActionItem{}
	for rows.Next() {
		var a types.ActionItem
		if err := rows.Scan(&a.ID, &a.VersionID, &a.TaskText, &a.OriginalText, &a.Assignee,
			&a.DueDate, &a.Priority, &a.Confidence, &a.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (p *PostgresStore) Chunks(ctx context.Context, versionID uuid.UUID) ([]types.Chunk, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, processing_version_id, text_content, speaker, position, token_count, embedding
		FROM chunks
		WHERE processing_version_id = $1
		ORDER BY position ASC`, versionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chunks := []types.Chunk{}
	for rows.Next() {
		var (
			c         types.Chunk
			embedding *pgvector.Vector
		)
		if err := rows.Scan(&c.ID, &c.VersionID, &c.TextContent, &c.Speaker, &c.Position, &c.TokenCount, &embedding); err != nil {
			return nil, err
		}
		if embedding != nil {
			c.Embedding = embedding.Slice()
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}
