package store

import "fmt"

func schema(embeddingDim int) string {
	return fmt.Sprintf(`
	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS documents (
		id UUID PRIMARY KEY,
		content_fingerprint TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS processing_versions (
		id UUID PRIMARY KEY,
		document_id UUID NOT NULL REFERENCES documents(id),
		version_number INTEGER NOT NULL CHECK (version_number > 0),
		status TEXT NOT NULL CHECK (status IN ('Processing', 'Completed', 'Failed')),
		summary_text TEXT,
		summary_type TEXT,
		summary_confidence REAL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
		UNIQUE (document_id, version_number)
	);

	CREATE TABLE IF NOT EXISTS raw_files (
		id UUID PRIMARY KEY,
		processing_version_id UUID NOT NULL UNIQUE REFERENCES processing_versions(id),
		file_name TEXT NOT NULL,
		mime_type TEXT NOT NULL,
		size_bytes BIGINT NOT NULL,
		page_count INTEGER,
		content BYTEA NOT NULL
	);

	CREATE TABLE IF NOT EXISTS classification_examples (
		id UUID PRIMARY KEY,
		processing_version_id UUID NOT NULL REFERENCES processing_versions(id),
		example_text TEXT NOT NULL,
		example_label TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS action_items (
		id UUID PRIMARY KEY,
		processing_version_id UUID NOT NULL REFERENCES processing_versions(id),
		task_text TEXT NOT NULL,
		original_text TEXT,
		assignee_name TEXT,
		due_date DATE,
		priority TEXT,
		confidence REAL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS chunks (
		id UUID PRIMARY KEY,
		processing_version_id UUID NOT NULL REFERENCES processing_versions(id),
		text_content TEXT,
		speaker TEXT,
		position INTEGER NOT NULL,
		token_count INTEGER NOT NULL DEFAULT 0,
		embedding vector(%d),
		UNIQUE (processing_version_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_embedding ON chunks USING hnsw (embedding vector_cosine_ops);

	CREATE INDEX IF NOT EXISTS idx_action_items_version ON action_items(processing_version_id);
	CREATE INDEX IF NOT EXISTS idx_examples_version ON classification_examples(processing_version_id);

	CREATE TABLE IF NOT EXISTS entities (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		UNIQUE (name, entity_type)
	);

	CREATE TABLE IF NOT EXISTS entity_mentions (
		id UUID PRIMARY KEY,
		processing_version_id UUID NOT NULL REFERENCES processing_versions(id),
		chunk_id UUID REFERENCES chunks(id),
		entity_id UUID NOT NULL REFERENCES entities(id),
		mentioned_text TEXT,
		confidence INTEGER
	);

	CREATE TABLE IF NOT EXISTS relationships (
		id UUID PRIMARY KEY,
		processing_version_id UUID NOT NULL REFERENCES processing_versions(id),
		source_entity_id UUID NOT NULL REFERENCES entities(id),
		target_entity_id UUID NOT NULL REFERENCES entities(id),
		relationship_type TEXT NOT NULL,
		context_snippet TEXT
	);

	CREATE TABLE IF NOT EXISTS feedback (
		id UUID PRIMARY KEY,
		prediction_id UUID NOT NULL,
		prediction_type TEXT NOT NULL,
		feedback_type TEXT NOT NULL,
		original_data JSONB,
		corrected_data JSONB NOT NULL,
		user_context TEXT,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
	);
	`, embeddingDim)
}
