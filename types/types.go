package types

import (
	"time"

	"github.com/google/uuid"
)

type VersionStatus string

const (
	StatusProcessing VersionStatus = "Processing"
	StatusCompleted  VersionStatus = "Completed"
	StatusFailed     VersionStatus = "Failed"
)

// Document is the deduplicated identity of uploaded content.
type Document struct {
	ID                 uuid.UUID `json:"id"`
	ContentFingerprint string    `json:"content_fingerprint"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ProcessingVersion is one numbered processing attempt of a document.
// Only the extraction worker changes Status and the summary fields.
type ProcessingVersion struct {
	ID                uuid.UUID     `json:"id"`
	DocumentID        uuid.UUID     `json:"document_id"`
	VersionNumber     int           `json:"version_number"`
	Status            VersionStatus `json:"status"`
	SummaryText       *string       `json:"summary_text,omitempty"`
	SummaryType       *string       `json:"summary_type,omitempty"`
	SummaryConfidence *float32      `json:"summary_confidence,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
}

type ActionItem struct {
	ID           uuid.UUID  `json:"id"`
	VersionID    uuid.UUID  `json:"processing_version_id"`
	TaskText     string     `json:"task_text"`
	OriginalText *string    `json:"original_text,omitempty"`
	Assignee     *string    `json:"assignee_name,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	Priority     *string    `json:"priority,omitempty"`
	Confidence   *float32   `json:"confidence,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type Chunk struct {
	ID          uuid.UUID `json:"id"`
	VersionID   uuid.UUID `json:"processing_version_id"`
	TextContent *string   `json:"text_content,omitempty"`
	Speaker     *string   `json:"speaker,omitempty"`
	Position    int       `json:"position"`
	TokenCount  int       `json:"token_count"`
	Embedding   []float32 `json:"-"`
}

// RawArtifact is the uploaded payload stored alongside a version.
type RawArtifact struct {
	FileName  string
	MimeType  string
	SizeBytes int64
	PageCount *int
	Content   []byte
}

// IngestRecord is everything the ingestion transaction writes for new content.
type IngestRecord struct {
	Fingerprint string
	Artifact    RawArtifact
	Examples    []SeedExample
}

type IngestResult struct {
	DocumentID    uuid.UUID `json:"document_id"`
	VersionID     uuid.UUID `json:"version_id"`
	VersionNumber int       `json:"version_number"`
}

// IngestionJob is the message handed to the extraction worker.
type IngestionJob struct {
	DocumentID uuid.UUID `json:"document_id"`
	VersionID  uuid.UUID `json:"processing_version_id"`
}

type DocumentView struct {
	Document    Document          `json:"document"`
	Version     ProcessingVersion `json:"version"`
	ActionItems []ActionItem      `json:"action_items"`
}

type VersionView struct {
	Version     ProcessingVersion `json:"version"`
	ActionItems []ActionItem      `json:"action_items"`
	Chunks      []Chunk           `json:"chunks"`
}

type ChunkSearchResult struct {
	DocumentID    uuid.UUID `json:"document_id"`
	VersionID     uuid.UUID `json:"version_id"`
	VersionNumber int       `json:"version_number"`
	TextContent   *string   `json:"text_content,omitempty"`
	Position      int       `json:"position"`
	Distance      float64   `json:"distance"`
}

type GraphNode struct {
	ID       uuid.UUID `json:"id"`
	Label    string    `json:"label"`
	NodeType string    `json:"node_type"`
}

type GraphEdge struct {
	Source uuid.UUID `json:"source"`
	Target uuid.UUID `json:"target"`
	Label  string    `json:"label"`
}

type GraphResult struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

type Feedback struct {
	ID             uuid.UUID
	PredictionID   uuid.UUID
	PredictionType string
	FeedbackType   string
	OriginalData   []byte
	CorrectedData  []byte
	UserContext    *string
	CreatedAt      time.Time
}
