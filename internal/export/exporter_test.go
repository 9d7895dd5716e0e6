package export

import (
	"bytes"
	"compress/zlib"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursecraft/coursecraft-api/internal/domain"
)

func newExporter(t *testing.T) *Exporter {
	t.Helper()
	e, err := New(t.TempDir())
	require.NoError(t, err)
	return e
}

func TestWriteAndReadText(t *testing.T) {
	e := newExporter(t)
	content := "Module 1: Basics\n\nLearning objectives:\n- understand testing\n"

	id, err := e.Write("Intro to Testing", content, FormatText)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := e.Read(id, FormatText)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))
}

func TestWritePDF_Header(t *testing.T) {
	e := newExporter(t)

	id, err := e.Write("Intro to Testing", strings.Repeat("Some course text. ", 500), FormatPDF)
	require.NoError(t, err)

	got, err := e.Read(id, FormatPDF)
	require.NoError(t, err)
	require.Greater(t, len(got), 4)
	assert.Equal(t, "%PDF-", string(got[:5]))
}

func TestWritePDF_ContainsTitleText(t *testing.T) {
	e := newExporter(t)

	id, err := e.Write("Advanced Go Concurrency", "Channels, goroutines and select.", FormatPDF)
	require.NoError(t, err)

	got, err := e.Read(id, FormatPDF)
	require.NoError(t, err)

	text := pdfStreamText(t, got)
	assert.Contains(t, text, "Advanced Go Concurrency")
	assert.Contains(t, text, "Channels, goroutines and select.")
	assert.Contains(t, text, "Generated by CourseCraft AI")
}

// pdfStreamText inflates the content streams so assertions can see the page
// text as it was written.
func pdfStreamText(t *testing.T, pdf []byte) string {
	t.Helper()
	var out strings.Builder
	rest := pdf
	for {
		i := bytes.Index(rest, []byte("stream"))
		if i < 0 {
			break
		}
		if i >= 3 && bytes.Equal(rest[i-3:i], []byte("end")) {
			rest = rest[i+len("stream"):]
			continue
		}
		body := bytes.TrimLeft(rest[i+len("stream"):], "\r\n")
		j := bytes.Index(body, []byte("endstream"))
		if j < 0 {
			break
		}
		if zr, err := zlib.NewReader(bytes.NewReader(body[:j])); err == nil {
			if b, err := io.ReadAll(zr); err == nil {
				out.Write(b)
			}
			zr.Close()
		} else {
			out.Write(body[:j])
		}
		rest = body[j+len("endstream"):]
	}
	return out.String()
}

func TestWrite_InvalidFormat(t *testing.T) {
	e := newExporter(t)
	_, err := e.Write("t", "c", "docx")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRead_MissingArtifact(t *testing.T) {
	e := newExporter(t)
	_, err := e.Read(uuid.NewString(), FormatText)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRead_WrongFormatPair(t *testing.T) {
	e := newExporter(t)
	id, err := e.Write("t", "content", FormatText)
	require.NoError(t, err)

	// exact id+format match only
	_, err = e.Read(id, FormatPDF)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPath_RejectsTraversal(t *testing.T) {
	e := newExporter(t)
	_, err := e.Path("../../etc/passwd", FormatText)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestArtifactsAreFlatFiles(t *testing.T) {
	dir := t.TempDir()
	e, err := New(dir)
	require.NoError(t, err)

	id, err := e.Write("t", "content", FormatText)
	require.NoError(t, err)

	_, err = os.Stat(dir + "/" + id + ".txt")
	assert.NoError(t, err)
}
