package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func makeDOCX(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body + `</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDOCXText(t *testing.T) {
	data := makeDOCX(t, `<w:p><w:r><w:t>First</w:t></w:r><w:r><w:t xml:space="preserve"> paragraph</w:t></w:r></w:p>`+
		`<w:p><w:r><w:t>Second</w:t><w:br/><w:t>line</w:t></w:r></w:p>`)

	text, err := Document(MIMEDOCX, data)
	require.NoError(t, err)
	assert.Equal(t, "First paragraph\n\nSecond\nline", text)
}

func TestDOCXText_MissingBody(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, _ = zw.Create("other.xml")
	require.NoError(t, zw.Close())
	_, err := DOCXText(buf.Bytes())
	assert.Error(t, err)
}

func TestXLSXText(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "metric"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "value"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "churn"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", 0.12))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	text, err := Document(MIMEXLSX, buf.Bytes())
	require.NoError(t, err)
	assert.Contains(t, text, "Sheet1")
	assert.Contains(t, text, "metric value")
	assert.Contains(t, text, "churn 0.12")
}

func TestPDFText_Invalid(t *testing.T) {
	_, err := Document(MIMEPDF, []byte("not a pdf"))
	assert.Error(t, err)
}

func TestDocument_PlainAndMarkdown(t *testing.T) {
	text, err := Document("text/plain; charset=utf-8", []byte("  hello \n\n\n world "))
	require.NoError(t, err)
	assert.Equal(t, "hello\n\nworld", text)

	text, err = Document(MIMEMarkdown, []byte("# Title\n\nBody"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "# Title"))
}

func TestDocument_Unsupported(t *testing.T) {
	_, err := Document("image/png", nil)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	assert.False(t, Supported("application/zip"))
	assert.True(t, Supported(MIMEPDF))
}

func TestMIMEFromName(t *testing.T) {
	assert.Equal(t, MIMEDOCX, MIMEFromName("Report.DOCX"))
	assert.Equal(t, MIMEMarkdown, MIMEFromName("notes.md"))
	assert.Equal(t, "", MIMEFromName("archive.tar"))
}
