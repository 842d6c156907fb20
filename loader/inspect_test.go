package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInspect_PlainText(t *testing.T) {
	data := []byte("Maria: send the media plan by Friday.\n")

	a := Inspect("notes.txt", "application/octet-stream", data)

	assert.Equal(t, "notes.txt", a.FileName)
	assert.Equal(t, "text/plain", a.MimeType)
	assert.Equal(t, int64(len(data)), a.SizeBytes)
	assert.Nil(t, a.PageCount)
	assert.Equal(t, data, a.Content)
}

func TestInspect_UnknownBinaryKeepsDeclaredType(t *testing.T) {
	data := []byte{0x00, 0x01, 0x02, 0x03, 0xfe, 0xff}

	a := Inspect("blob.bin", "application/x-custom", data)
	assert.Equal(t, "application/x-custom", a.MimeType)

	a = Inspect("blob.bin", "", data)
	assert.Equal(t, "application/octet-stream", a.MimeType)
}

func TestInspect_BrokenPDFHasNoPageCount(t *testing.T) {
	data := []byte("%PDF-1.7\nthis is not really a pdf\n")

	a := Inspect("report.pdf", "application/pdf", data)

	assert.Equal(t, "application/pdf", a.MimeType)
	assert.Nil(t, a.PageCount)
}

func TestCleanFileName(t *testing.T) {
	cases := map[string]string{
		"notes.txt":               "notes.txt",
		"../../etc/passwd":        "passwd",
		`C:\Users\maria\plan.pdf`: "plan.pdf",
		"":                        "upload",
		"/":                       "upload",
	}
	for in, want := range cases {
		assert.Equal(t, want, cleanFileName(in), in)
	}
}
