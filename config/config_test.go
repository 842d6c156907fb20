package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getenv(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(getenv(map[string]string{
		"PG_HOST":    "localhost",
		"PG_USER":    "postgres",
		"PG_PASS":    "secret",
		"PG_DB_NAME": "docledger",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.ServerAddr)
	assert.Equal(t, 384, cfg.EmbeddingDim)
	assert.Equal(t, "ingestion_queue", cfg.IngestionQueue)
	assert.Equal(t, "vectorize", cfg.EmbeddingProvider)
	assert.Equal(t, 25*1024*1024, cfg.MaxUploadBytes())
	assert.Equal(t, "host=localhost port=5432 user=postgres password=secret dbname=docledger sslmode=disable", cfg.ConnString())
}

func TestFromEnv_DatabaseURLWins(t *testing.T) {
	cfg, err := FromEnv(getenv(map[string]string{
		"DATABASE_URL": "postgres://u:p@db:5432/ledger",
	}))
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db:5432/ledger", cfg.ConnString())
}

func TestFromEnv_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"no database":        {},
		"bad port":           {"DATABASE_URL": "postgres://x", "PG_PORT": "five"},
		"openai without key": {"DATABASE_URL": "postgres://x", "EMBEDDING_PROVIDER": "openai"},
		"unknown provider":   {"DATABASE_URL": "postgres://x", "EMBEDDING_PROVIDER": "bert"},
		"zero dim":           {"DATABASE_URL": "postgres://x", "EMBEDDING_DIM": "0"},
		"bad log format":     {"DATABASE_URL": "postgres://x", "LOG_FORMAT": "xml"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromEnv(getenv(vars))
			assert.Error(t, err)
		})
	}
}

func TestFromEnv_OpenAI(t *testing.T) {
	cfg, err := FromEnv(getenv(map[string]string{
		"DATABASE_URL":       "postgres://x",
		"EMBEDDING_PROVIDER": "OpenAI",
		"OPENAI_API_KEY":     "sk-test",
		"EMBEDDING_MODEL":    "text-embedding-3-small",
	}))
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.EmbeddingProvider)
}
