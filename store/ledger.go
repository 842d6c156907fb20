package store

import (
	"context"
	"errors"
	"fmt"

	"docledger/types"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// IngestVersion resolves (or creates) the document for the record's
// fingerprint and appends a new Processing version with its raw artifact
// and seed examples. Everything happens in one transaction.
func (p *PostgresStore) IngestVersion(ctx context.Context, rec types.IngestRecord) (types.IngestResult, error) {
	var res types.IngestResult
	err := p.inTx(ctx, func(tx pgx.Tx) error {
		docID, err := resolveDocument(ctx, tx, rec.Fingerprint)
		if err != nil {
			return err
		}
		res, err = appendVersion(ctx, tx, docID)
		if err != nil {
			return err
		}
		if err := insertRawFile(ctx, tx, res.VersionID, rec.Artifact); err != nil {
			return err
		}
		return insertExamples(ctx, tx, res.VersionID, rec.Examples)
	})
	return res, err
}

// ReprocessVersion appends a new version to an existing document, copying
// the raw artifact of its latest version.
func (p *PostgresStore) ReprocessVersion(ctx context.Context, docID uuid.UUID, examples []types.SeedExample) (types.IngestResult, error) {
	var res types.IngestResult
	err := p.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockDocument(ctx, tx, docID); err != nil {
			return err
		}

		var sourceVersion uuid.UUID
		err := tx.QueryRow(ctx, `
			SELECT id FROM processing_versions
			WHERE document_id = $1
			ORDER BY version_number DESC LIMIT 1`, docID).Scan(&sourceVersion)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("find latest version: %w", err)
		}

		res, err = appendVersion(ctx, tx, docID)
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `
			INSERT INTO raw_files (id, processing_version_id, file_name, mime_type, size_bytes, page_count, content)
			SELECT $1, $2, file_name, mime_type, size_bytes, page_count, content
			FROM raw_files WHERE processing_version_id = $3`,
			uuid.New(), res.VersionID, sourceVersion)
		if err != nil {
			return fmt.Errorf("copy raw file: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("copy raw file: version %s has no raw artifact", sourceVersion)
		}
		return insertExamples(ctx, tx, res.VersionID, examples)
	})
	return res, err
}

func (p *PostgresStore) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	// no-op once committed
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// resolveDocument inserts the document if its fingerprint is new and returns
// its id with the row locked. A concurrent insert of the same fingerprint
// blocks on the unique index until the first transaction finishes, so both
// converge on one id.
func resolveDocument(ctx context.Context, tx pgx.Tx, fingerprint string) (uuid.UUID, error) {
	_, err := tx.Exec(ctx, `
		INSERT INTO documents (id, content_fingerprint, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		ON CONFLICT (content_fingerprint) DO NOTHING`, uuid.New(), fingerprint)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert document: %w", err)
	}

	var docID uuid.UUID
	err = tx.QueryRow(ctx,
		`SELECT id FROM documents WHERE content_fingerprint = $1 FOR UPDATE`, fingerprint,
	).Scan(&docID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("resolve document: %w", err)
	}
	return docID, nil
}

func lockDocument(ctx context.Context, tx pgx.Tx, docID uuid.UUID) error {
	var id uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM documents WHERE id = $1 FOR UPDATE`, docID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock document: %w", err)
	}
	return nil
}

// appendVersion allocates the next version number. The caller must hold the
// document row lock; that lock serialises allocation per document.
func appendVersion(ctx context.Context, tx pgx.Tx, docID uuid.UUID) (types.IngestResult, error) {
	res := types.IngestResult{DocumentID: docID, VersionID: uuid.New()}

	err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(version_number), 0) + 1 FROM processing_versions WHERE document_id = $1`, docID,
	).Scan(&res.VersionNumber)
	if err != nil {
		return res, fmt.Errorf("allocate version number: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO processing_versions (id, document_id, version_number, status, created_at)
		VALUES ($1, $2, $3, $4, now())`,
		res.VersionID, docID, res.VersionNumber, types.StatusProcessing)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return res, fmt.Errorf("%w: document %s version %d", ErrVersionConflict, docID, res.VersionNumber)
		}
		return res, fmt.Errorf("insert version: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE documents SET updated_at = now() WHERE id = $1`, docID); err != nil {
		return res, fmt.Errorf("touch document: %w", err)
	}
	return res, nil
}

func insertRawFile(ctx context.Context, tx pgx.Tx, versionID uuid.UUID, a types.RawArtifact) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO raw_files (id, processing_version_id, file_name, mime_type, size_bytes, page_count, content)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New(), versionID, a.FileName, a.MimeType, a.SizeBytes, a.PageCount, a.Content)
	if err != nil {
		return fmt.Errorf("insert raw file: %w", err)
	}
	return nil
}

func insertExamples(ctx context.Context, tx pgx.Tx, versionID uuid.UUID, examples []types.SeedExample) error {
	if len(examples) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, ex := range examples {
		batch.Queue(`
			INSERT INTO classification_examples (id, processing_version_id, example_text, example_label)
			VALUES ($1, $2, $3, $4)`, uuid.New(), versionID, ex.Text, ex.Label)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert classification examples: %w", err)
	}
	return nil
}
