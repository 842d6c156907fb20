// Package loader inspects uploaded files before they are stored as raw
// artifacts.
package loader

import (
	"log/slog"
	"path/filepath"
	"strings"

	"docledger/loader/internal"
	"docledger/types"

	"github.com/gabriel-vasile/mimetype"
)

const (
	mimePDF     = "application/pdf"
	mimeUnknown = "application/octet-stream"
	defaultName = "upload"
)

// Inspect builds the raw artifact for an upload. The MIME type is sniffed
// from the content; the client's declared type is used only when sniffing
// finds nothing better. PDF page count is best effort.
func Inspect(fileName, declaredMime string, data []byte) types.RawArtifact {
	a := types.RawArtifact{
		FileName:  cleanFileName(fileName),
		MimeType:  detectMime(declaredMime, data),
		SizeBytes: int64(len(data)),
		Content:   data,
	}

	if a.MimeType == mimePDF {
		n, err := internal.PageCount(data)
		if err != nil {
			slog.Warn("could not count PDF pages", "file_name", a.FileName, "error", err)
		} else {
			a.PageCount = &n
		}
	}
	return a
}

func detectMime(declared string, data []byte) string {
	sniffed := mimetype.Detect(data)
	if sniffed.Is(mimeUnknown) && declared != "" {
		return declared
	}
	// drop parameters such as "; charset=utf-8"
	mime, _, _ := strings.Cut(sniffed.String(), ";")
	return mime
}

func cleanFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return defaultName
	}
	return name
}
