package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"docledger/types"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ErrNotFound signals absence of the requested row. Any other error from the
// store is an infrastructure failure.
var ErrNotFound = errors.New("not found")

// ErrVersionConflict is returned when a version number was taken by a
// concurrent ingestion despite the document lock.
var ErrVersionConflict = errors.New("version number already allocated")

type DBStorer interface {
	IngestVersion(context.Context, types.IngestRecord) (types.IngestResult, error)
	ReprocessVersion(context.Context, uuid.UUID, []types.SeedExample) (types.IngestResult, error)

	GetDocumentByID(context.Context, uuid.UUID) (*types.Document, error)
	LatestVersion(context.Context, uuid.UUID) (*types.ProcessingVersion, error)
	VersionByNumber(context.Context, uuid.UUID, int) (*types.ProcessingVersion, error)
	ActionItems(context.Context, uuid.UUID) ([]types.ActionItem, error)
	Chunks(context.Context, uuid.UUID) ([]types.Chunk, error)

	Search(context.Context, []float32, int) ([]types.ChunkSearchResult, error)
	Graph(context.Context, uuid.UUID) (types.GraphResult, error)
	SaveFeedback(context.Context, types.Feedback) error
	Ping(context.Context) error
}

type PostgresStore struct {
	pool         *pgxpool.Pool
	embeddingDim int
	logger       *slog.Logger
}

func NewPostgresStore(ctx context.Context, connStr string, embeddingDim int) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{
		pool:         pool,
		embeddingDim: embeddingDim,
		logger:       slog.Default(),
	}, nil
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresStore) GetDocumentByID(ctx context.Context, docID uuid.UUID) (*types.Document, error) {
	doc := &types.Document{}
	err := p.pool.QueryRow(ctx,
		`SELECT id, content_fingerprint, created_at, updated_at FROM documents WHERE id = $1`, docID,
	).Scan(&doc.ID, &doc.ContentFingerprint, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (p *PostgresStore) Search(ctx context.Context, queryVec []float32, limit int) ([]types.ChunkSearchResult, error) {
	if len(queryVec) == 0 {
		return nil, fmt.Errorf("empty query vector")
	}

	query := `
		SELECT pv.document_id, pv.id, pv.version_number, c.text_content, c.position,
		       c.embedding <=> $1 AS distance
		FROM chunks c
		JOIN processing_versions pv ON c.processing_version_id = pv.id
		WHERE c.embedding IS NOT NULL
		ORDER BY distance ASC
		LIMIT $2
	`
	rows, err := p.pool.Query(ctx, query, pgvector.NewVector(queryVec), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]types.ChunkSearchResult, 0, limit)
	for rows.Next() {
		var r types.ChunkSearchResult
		if err := rows.Scan(&r.DocumentID, &r.VersionID, &r.VersionNumber, &r.TextContent, &r.Position, &r.Distance); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Graph returns the entities and relationships extracted for the latest
// version of a document. A document without versions has an empty graph.
func (p *PostgresStore) Graph(ctx context.Context, docID uuid.UUID) (types.GraphResult, error) {
	result := types.GraphResult{Nodes: []types.GraphNode{}, Edges: []types.GraphEdge{}}

	latest, err := p.LatestVersion(ctx, docID)
	if errors.Is(err, ErrNotFound) {
		return result, nil
	}
	if err != nil {
		return result, err
	}

	rows, err := p.pool.Query(ctx, `
		SELECT DISTINCT e.id, e.name, e.entity_type
		FROM entities e
		JOIN entity_mentions em ON e.id = em.entity_id
		WHERE em.processing_version_id = $1
		ORDER BY e.name`, latest.ID)
	if err != nil {
		return result, err
	}
	for rows.Next() {
		var n types.GraphNode
		if err := rows.Scan(&n.ID, &n.Label, &n.NodeType); err != nil {
			rows.Close()
			return result, err
		}
		result.Nodes = append(result.Nodes, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return result, err
	}

	rows, err = p.pool.Query(ctx, `
		SELECT source_entity_id, target_entity_id, relationship_type
		FROM relationships
		WHERE processing_version_id = $1`, latest.ID)
	if err != nil {
		return result, err
	}
	defer rows.Close()
	for rows.Next() {
		var e types.GraphEdge
		if err := rows.Scan(&e.Source, &e.Target, &e.Label); err != nil {
			return result, err
		}
		result.Edges = append(result.Edges, e)
	}
	return result, rows.Err()
}

func (p *PostgresStore) SaveFeedback(ctx context.Context, f types.Feedback) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO feedback (id, prediction_id, prediction_type, feedback_type, original_data, corrected_data, user_context, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		f.ID, f.PredictionID, f.PredictionType, f.FeedbackType, nullJSON(f.OriginalData), f.CorrectedData, f.UserContext, f.CreatedAt,
	)
	return err
}

func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

func (p *PostgresStore) Init(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, schema(p.embeddingDim))
	return err
}

func (p *PostgresStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
		p.logger.Info("postgres connection pool closed")
	}
	return nil
}
