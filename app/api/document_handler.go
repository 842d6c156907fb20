package api

import (
	"context"
	"encoding/json"
	"io"

	"docledger/diff"
	"docledger/loader"
	"docledger/types"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Ledger is implemented by *ledger.Service.
type Ledger interface {
	Ingest(context.Context, types.RawArtifact, []types.SeedExample) (types.IngestResult, error)
	Reprocess(context.Context, uuid.UUID, []types.SeedExample) (types.IngestResult, error)
	Document(context.Context, uuid.UUID) (types.DocumentView, error)
	Version(context.Context, uuid.UUID, int) (types.VersionView, error)
	Diff(context.Context, uuid.UUID, types.DiffParams) (diff.Report, error)
}

type DocumentHandler struct {
	ledger Ledger
}

func NewDocumentHandler(l Ledger) *DocumentHandler {
	return &DocumentHandler{ledger: l}
}

// HandleIngest accepts a multipart upload with a required "file" part and
// an optional "metadata" JSON part carrying classification examples.
func (h *DocumentHandler) HandleIngest(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return ErrMissingFile()
	}

	var meta types.IngestMetadata
	if raw := c.FormValue("metadata"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			return NewError(fiber.StatusBadRequest, "invalid metadata JSON")
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	artifact := loader.Inspect(fileHeader.Filename, fileHeader.Header.Get(fiber.HeaderContentType), data)
	res, err := h.ledger.Ingest(c.UserContext(), artifact, meta.Examples)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(res)
}

func (h *DocumentHandler) HandleReprocess(c *fiber.Ctx) error {
	docID, err := parseID(c)
	if err != nil {
		return err
	}

	var params types.ReprocessParams
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&params); err != nil {
			return ErrBadRequest()
		}
	}

	res, err := h.ledger.Reprocess(c.UserContext(), docID, params.Examples)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(res)
}

func (h *DocumentHandler) HandleGetDocument(c *fiber.Ctx) error {
	docID, err := parseID(c)
	if err != nil {
		return err
	}

	view, err := h.ledger.Document(c.UserContext(), docID)
	if err != nil {
		return err
	}
	return c.JSON(view)
}

func (h *DocumentHandler) HandleGetVersion(c *fiber.Ctx) error {
	docID, err := parseID(c)
	if err != nil {
		return err
	}
	number, err := c.ParamsInt("number")
	if err != nil {
		return NewError(fiber.StatusBadRequest, "invalid version number")
	}

	view, err := h.ledger.Version(c.UserContext(), docID, number)
	if err != nil {
		return err
	}
	return c.JSON(view)
}

func (h *DocumentHandler) HandleDiff(c *fiber.Ctx) error {
	docID, err := parseID(c)
	if err != nil {
		return err
	}

	var params types.DiffParams
	if err := c.QueryParser(&params); err != nil {
		return NewError(fiber.StatusBadRequest, "from_version and to_version must be integers")
	}

	report, err := h.ledger.Diff(c.UserContext(), docID, params)
	if err != nil {
		return err
	}
	return c.JSON(report)
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, ErrInvalidID()
	}
	return id, nil
}
