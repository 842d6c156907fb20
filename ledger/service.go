// Package ledger orchestrates ingestion, version lookups and diffs on top of
// the store.
package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"docledger/diff"
	"docledger/metrics"
	"docledger/queue"
	"docledger/store"
	"docledger/types"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Store is the subset of store.DBStorer the ledger needs.
type Store interface {
	IngestVersion(context.Context, types.IngestRecord) (types.IngestResult, error)
	ReprocessVersion(context.Context, uuid.UUID, []types.SeedExample) (types.IngestResult, error)
	GetDocumentByID(context.Context, uuid.UUID) (*types.Document, error)
	LatestVersion(context.Context, uuid.UUID) (*types.ProcessingVersion, error)
	VersionByNumber(context.Context, uuid.UUID, int) (*types.ProcessingVersion, error)
	ActionItems(context.Context, uuid.UUID) ([]types.ActionItem, error)
	Chunks(context.Context, uuid.UUID) ([]types.Chunk, error)
}

type Service struct {
	store     Store
	publisher queue.JobPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewService(s Store, p queue.JobPublisher, m *metrics.Metrics) *Service {
	return &Service{
		store:     s,
		publisher: p,
		metrics:   m,
		logger:    slog.Default(),
	}
}

// Fingerprint identifies content independently of its file name.
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Ingest stores the artifact as a new Processing version of the document
// with the same content, creating the document on first sight, and then
// enqueues the extraction job.
func (s *Service) Ingest(ctx context.Context, artifact types.RawArtifact, examples []types.SeedExample) (types.IngestResult, error) {
	errs := map[string]string{}
	if len(artifact.Content) == 0 {
		errs["file"] = "file is required"
	}
	meta := types.IngestMetadata{Examples: examples}
	for k, v := range meta.Validate() {
		errs[k] = v
	}
	if len(errs) > 0 {
		s.metrics.RecordIngestion("ingest", metrics.StatusInvalid)
		return types.IngestResult{}, types.NewValidationError(errs)
	}

	res, err := s.store.IngestVersion(ctx, types.IngestRecord{
		Fingerprint: Fingerprint(artifact.Content),
		Artifact:    artifact,
		Examples:    examples,
	})
	if err != nil {
		s.metrics.RecordIngestion("ingest", metrics.StatusError)
		return types.IngestResult{}, fmt.Errorf("ingest version: %w", err)
	}
	s.logger.Info("version created",
		"document_id", res.DocumentID,
		"version_id", res.VersionID,
		"version_number", res.VersionNumber,
		"file_name", artifact.FileName,
	)

	if err := s.publish(ctx, res); err != nil {
		s.metrics.RecordIngestion("ingest", metrics.StatusError)
		return types.IngestResult{}, err
	}
	s.metrics.RecordIngestion("ingest", metrics.StatusSuccess)
	return res, nil
}

// Reprocess appends a new version to an existing document from the raw
// artifact of its latest version.
func (s *Service) Reprocess(ctx context.Context, docID uuid.UUID, examples []types.SeedExample) (types.IngestResult, error) {
	params := types.ReprocessParams{Examples: examples}
	if errs := types.Validate(&params); len(errs) > 0 {
		s.metrics.RecordIngestion("reprocess", metrics.StatusInvalid)
		return types.IngestResult{}, types.NewValidationError(errs)
	}

	res, err := s.store.ReprocessVersion(ctx, docID, examples)
	if errors.Is(err, store.ErrNotFound) {
		s.metrics.RecordIngestion("reprocess", metrics.StatusNotFound)
		return types.IngestResult{}, ErrDocumentNotFound
	}
	if err != nil {
		s.metrics.RecordIngestion("reprocess", metrics.StatusError)
		return types.IngestResult{}, fmt.Errorf("reprocess document %s: %w", docID, err)
	}
	s.logger.Info("version created for reprocessing",
		"document_id", res.DocumentID,
		"version_id", res.VersionID,
		"version_number", res.VersionNumber,
	)

	if err := s.publish(ctx, res); err != nil {
		s.metrics.RecordIngestion("reprocess", metrics.StatusError)
		return types.IngestResult{}, err
	}
	s.metrics.RecordIngestion("reprocess", metrics.StatusSuccess)
	return res, nil
}

// publish runs after commit. A failure leaves the version in Processing
// with no job; it is logged and counted, not repaired.
func (s *Service) publish(ctx context.Context, res types.IngestResult) error {
	job := types.IngestionJob{DocumentID: res.DocumentID, VersionID: res.VersionID}
	if err := s.publisher.PublishIngestionJob(ctx, job); err != nil {
		s.metrics.RecordOrphanedVersion()
		s.logger.Error("ingestion job not published, version orphaned",
			"document_id", res.DocumentID,
			"version_id", res.VersionID,
			"version_number", res.VersionNumber,
			"error", err,
		)
		return fmt.Errorf("publish ingestion job for version %s: %w", res.VersionID, err)
	}
	return nil
}

// Document returns the document with its latest version, whatever that
// version's status, and the version's action items.
func (s *Service) Document(ctx context.Context, docID uuid.UUID) (types.DocumentView, error) {
	doc, err := s.store.GetDocumentByID(ctx, docID)
	if errors.Is(err, store.ErrNotFound) {
		return types.DocumentView{}, ErrDocumentNotFound
	}
	if err != nil {
		return types.DocumentView{}, fmt.Errorf("get document %s: %w", docID, err)
	}

	latest, err := s.store.LatestVersion(ctx, docID)
	if errors.Is(err, store.ErrNotFound) {
		return types.DocumentView{}, ErrDocumentNotFound
	}
	if err != nil {
		return types.DocumentView{}, fmt.Errorf("latest version of %s: %w", docID, err)
	}

	items, err := s.store.ActionItems(ctx, latest.ID)
	if err != nil {
		return types.DocumentView{}, fmt.Errorf("action items of version %s: %w", latest.ID, err)
	}
	return types.DocumentView{Document: *doc, Version: *latest, ActionItems: items}, nil
}

func (s *Service) Version(ctx context.Context, docID uuid.UUID, number int) (types.VersionView, error) {
	if number < 1 {
		return types.VersionView{}, types.NewValidationError(map[string]string{
			"number": "must be 1 or greater",
		})
	}
	snap, err := s.resolve(ctx, docID, number)
	if err != nil {
		return types.VersionView{}, err
	}
	return types.VersionView{Version: *snap.version, ActionItems: snap.items, Chunks: snap.chunks}, nil
}

// Diff compares two versions of a document. When both are missing the
// from side is reported.
func (s *Service) Diff(ctx context.Context, docID uuid.UUID, params types.DiffParams) (diff.Report, error) {
	start := time.Now()
	if errs := types.Validate(&params); len(errs) > 0 {
		s.metrics.RecordDiff(metrics.StatusInvalid, 0, 0, 0)
		return diff.Report{}, types.NewValidationError(errs)
	}

	var from, to *snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		from, err = s.resolveOrMissing(gctx, docID, params.FromVersion)
		return err
	})
	g.Go(func() error {
		var err error
		to, err = s.resolveOrMissing(gctx, docID, params.ToVersion)
		return err
	})
	if err := g.Wait(); err != nil {
		s.metrics.RecordDiff(metrics.StatusError, 0, 0, 0)
		return diff.Report{}, err
	}

	for _, side := range []struct {
		snap   *snapshot
		number int
	}{{from, params.FromVersion}, {to, params.ToVersion}} {
		if side.snap == nil {
			s.metrics.RecordDiff(metrics.StatusNotFound, 0, 0, 0)
			return diff.Report{}, &VersionNotFoundError{Number: side.number}
		}
	}

	report := diff.Compare(
		params.FromVersion, params.ToVersion,
		from.items, to.items,
		from.chunks, to.chunks,
	)
	s.metrics.RecordDiff(metrics.StatusSuccess, time.Since(start), len(report.ActionItemsDiff), len(report.ChunksDiff))
	s.logger.Debug("diff computed",
		"document_id", docID,
		"from_version", params.FromVersion,
		"to_version", params.ToVersion,
		"action_items", len(report.ActionItemsDiff),
		"chunks", len(report.ChunksDiff),
	)
	return report, nil
}

type snapshot struct {
	version *types.ProcessingVersion
	items   []types.ActionItem
	chunks  []types.Chunk
}

// resolveOrMissing returns a nil snapshot when the version does not exist.
func (s *Service) resolveOrMissing(ctx context.Context, docID uuid.UUID, number int) (*snapshot, error) {
	snap, err := s.resolve(ctx, docID, number)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return snap, err
}

func (s *Service) resolve(ctx context.Context, docID uuid.UUID, number int) (*snapshot, error) {
	v, err := s.store.VersionByNumber(ctx, docID, number)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &VersionNotFoundError{Number: number}
	}
	if err != nil {
		return nil, fmt.Errorf("version %d of %s: %w", number, docID, err)
	}

	items, err := s.store.ActionItems(ctx, v.ID)
	if err != nil {
		return nil, fmt.Errorf("action items of version %s: %w", v.ID, err)
	}
	chunks, err := s.store.Chunks(ctx, v.ID)
	if err != nil {
		return nil, fmt.Errorf("chunks of version %s: %w", v.ID, err)
	}
	return &snapshot{version: v, items: items, chunks: chunks}, nil
}
