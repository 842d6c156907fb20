package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"docledger/diff"
	"docledger/ledger"
	"docledger/types"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLedger struct {
	ingested  *types.RawArtifact
	examples  []types.SeedExample
	diffCalls int
	result    types.IngestResult
	report    diff.Report
	err       error
}

func (f *fakeLedger) Ingest(_ context.Context, a types.RawArtifact, ex []types.SeedExample) (types.IngestResult, error) {
	f.ingested = &a
	f.examples = ex
	return f.result, f.err
}

func (f *fakeLedger) Reprocess(_ context.Context, _ uuid.UUID, ex []types.SeedExample) (types.IngestResult, error) {
	f.examples = ex
	return f.result, f.err
}

func (f *fakeLedger) Document(_ context.Context, id uuid.UUID) (types.DocumentView, error) {
	return types.DocumentView{Document: types.Document{ID: id}}, f.err
}

func (f *fakeLedger) Version(_ context.Context, _ uuid.UUID, n int) (types.VersionView, error) {
	return types.VersionView{Version: types.ProcessingVersion{VersionNumber: n}}, f.err
}

func (f *fakeLedger) Diff(_ context.Context, _ uuid.UUID, p types.DiffParams) (diff.Report, error) {
	f.diffCalls++
	if f.err != nil {
		return diff.Report{}, f.err
	}
	return f.report, nil
}

func newDocumentApp(l Ledger) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	h := NewDocumentHandler(l)
	app.Post("/documents", h.HandleIngest)
	app.Get("/documents/:id", h.HandleGetDocument)
	app.Post("/documents/:id/versions", h.HandleReprocess)
	app.Get("/documents/:id/versions/:number", h.HandleGetVersion)
	app.Get("/documents/:id/diff", h.HandleDiff)
	return app
}

func multipartUpload(t *testing.T, content []byte, metadata string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if content != nil {
		part, err := w.CreateFormFile("file", "notes.txt")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	if metadata != "" {
		require.NoError(t, w.WriteField("metadata", metadata))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/documents", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, v), string(body))
}

func TestHandleIngest(t *testing.T) {
	res := types.IngestResult{DocumentID: uuid.New(), VersionID: uuid.New(), VersionNumber: 1}
	l := &fakeLedger{result: res}
	app := newDocumentApp(l)

	meta := `{"classification_examples":[{"example_text":"revenue grew","example_label":"finance"}]}`
	resp, err := app.Test(multipartUpload(t, []byte("Maria will send the plan."), meta))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	var got types.IngestResult
	decode(t, resp, &got)
	assert.Equal(t, res, got)

	require.NotNil(t, l.ingested)
	assert.Equal(t, "notes.txt", l.ingested.FileName)
	assert.Equal(t, "text/plain", l.ingested.MimeType)
	assert.Equal(t, []types.SeedExample{{Text: "revenue grew", Label: "finance"}}, l.examples)
}

func TestHandleIngest_BadRequests(t *testing.T) {
	app := newDocumentApp(&fakeLedger{})

	resp, err := app.Test(multipartUpload(t, nil, ""))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(multipartUpload(t, []byte("x"), "{not json"))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleIngest_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"validation", types.NewValidationError(map[string]string{"file": "file is required"}), fiber.StatusUnprocessableEntity},
		{"internal", errors.New("pq: connection refused"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newDocumentApp(&fakeLedger{err: tc.err})
			resp, err := app.Test(multipartUpload(t, []byte("x"), ""))
			require.NoError(t, err)
			assert.Equal(t, tc.code, resp.StatusCode)
		})
	}
}

func TestInternalErrorIsOpaque(t *testing.T) {
	app := newDocumentApp(&fakeLedger{err: errors.New("password authentication failed for user postgres")})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/documents/"+uuid.NewString(), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":500,"error":"internal error"}`, string(body))
}

func TestHandleGetDocument(t *testing.T) {
	id := uuid.New()

	resp, err := newDocumentApp(&fakeLedger{}).Test(httptest.NewRequest(http.MethodGet, "/documents/"+id.String(), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var view types.DocumentView
	decode(t, resp, &view)
	assert.Equal(t, id, view.Document.ID)

	resp, err = newDocumentApp(&fakeLedger{err: ledger.ErrDocumentNotFound}).Test(httptest.NewRequest(http.MethodGet, "/documents/"+id.String(), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = newDocumentApp(&fakeLedger{}).Test(httptest.NewRequest(http.MethodGet, "/documents/not-a-uuid", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleReprocess(t *testing.T) {
	l := &fakeLedger{result: types.IngestResult{VersionNumber: 2}}
	app := newDocumentApp(l)
	url := "/documents/" + uuid.NewString() + "/versions"

	req := httptest.NewRequest(http.MethodPost, url, bytes.NewBufferString(`{"classification_examples":[{"example_text":"t","example_label":"l"}]}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	assert.Len(t, l.examples, 1)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, url, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	assert.Empty(t, l.examples)
}

func TestHandleGetVersion(t *testing.T) {
	id := uuid.NewString()

	resp, err := newDocumentApp(&fakeLedger{}).Test(httptest.NewRequest(http.MethodGet, "/documents/"+id+"/versions/3", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = newDocumentApp(&fakeLedger{}).Test(httptest.NewRequest(http.MethodGet, "/documents/"+id+"/versions/three", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = newDocumentApp(&fakeLedger{err: &ledger.VersionNotFoundError{Number: 3}}).Test(httptest.NewRequest(http.MethodGet, "/documents/"+id+"/versions/3", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	var apiErr Error
	decode(t, resp, &apiErr)
	assert.Equal(t, "version 3 not found", apiErr.Message)
}

func TestHandleDiff(t *testing.T) {
	dist := 0.25
	from := types.Chunk{Position: 1, TextContent: strPtr("budget")}
	l := &fakeLedger{report: diff.Report{
		FromVersion: 1,
		ToVersion:   2,
		ActionItemsDiff: []diff.Entry[types.ActionItem]{
			{Status: diff.Unchanged, Item: types.ActionItem{TaskText: "book venue"}},
		},
		ChunksDiff: []diff.Entry[types.Chunk]{
			{Status: diff.Added, Item: types.Chunk{Position: 2}},
			{Status: diff.Modified, Item: types.Chunk{Position: 1, TextContent: strPtr("budget v2")}, ModifiedFrom: &from, SemanticDistance: &dist},
		},
	}}
	app := newDocumentApp(l)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/documents/"+uuid.NewString()+"/diff?from_version=1&to_version=2", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]any
	decode(t, resp, &body)
	assert.Equal(t, float64(1), body["from_version"])
	assert.Equal(t, float64(2), body["to_version"])

	chunks := body["chunks_diff"].([]any)
	added := chunks[0].(map[string]any)
	assert.Equal(t, "Added", added["status"])
	assert.NotContains(t, added, "modified_from")
	assert.NotContains(t, added, "semantic_distance")

	modified := chunks[1].(map[string]any)
	assert.Equal(t, "Modified", modified["status"])
	assert.Contains(t, modified, "modified_from")
	assert.Equal(t, 0.25, modified["semantic_distance"])
}

func TestHandleDiff_ErrorMapping(t *testing.T) {
	id := uuid.NewString()

	l := &fakeLedger{}
	resp, err := newDocumentApp(l).Test(httptest.NewRequest(http.MethodGet, "/documents/"+id+"/diff?from_version=abc&to_version=2", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, l.diffCalls)

	l = &fakeLedger{err: types.NewValidationError(map[string]string{"from_version": "failed on 'required' tag"})}
	resp, err = newDocumentApp(l).Test(httptest.NewRequest(http.MethodGet, "/documents/"+id+"/diff?to_version=2", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	l = &fakeLedger{err: &ledger.VersionNotFoundError{Number: 9}}
	resp, err = newDocumentApp(l).Test(httptest.NewRequest(http.MethodGet, "/documents/"+id+"/diff?from_version=1&to_version=9", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	var apiErr Error
	decode(t, resp, &apiErr)
	assert.Equal(t, "version 9 not found", apiErr.Message)
}

func strPtr(s string) *string { return &s }
