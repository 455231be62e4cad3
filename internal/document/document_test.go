package document

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
	`<w:p><w:r><w:t>Иван Петров</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t>Навыки:</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t>Go, PostgreSQL &amp; Kafka</w:t></w:r></w:p>` +
	`</w:body></w:document>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

func buildDocx(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for name, body := range map[string]string{
		"word/document.xml":            documentXML,
		"word/_rels/document.xml.rels": relsXML,
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}

	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDetect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		filename    string
		contentType string
		data        []byte
		expect      Format
		unsupported bool
	}{
		{name: "pdf content type", filename: "cv", contentType: "application/pdf", expect: FormatPDF},
		{name: "docx content type", filename: "cv", contentType: mimeDOCX, expect: FormatDOCX},
		{name: "text with charset", filename: "cv", contentType: "text/plain; charset=utf-8", expect: FormatText},
		{name: "extension wins over octet-stream", filename: "CV.DOCX", contentType: "application/octet-stream", expect: FormatDOCX},
		{name: "pdf magic", filename: "upload", data: []byte("%PDF-1.7\n"), expect: FormatPDF},
		{name: "plain bytes", filename: "upload", data: []byte("Опыт работы: 5 лет"), expect: FormatText},
		{name: "bare zip", filename: "upload", data: []byte("PK\x03\x04rest"), unsupported: true},
		{name: "legacy doc", filename: "cv.doc", contentType: "application/msword", data: []byte{0xd0, 0xcf, 0x11, 0xe0}, unsupported: true},
		{name: "image", filename: "photo.png", contentType: "image/png", data: []byte("\x89PNG\r\n\x1a\n"), unsupported: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Detect(tt.filename, tt.contentType, tt.data)
			if tt.unsupported {
				require.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expect, got)
		})
	}
}

func TestExtractPlainText(t *testing.T) {
	t.Parallel()

	data := []byte("\xef\xbb\xbfИван   Петров\r\n\r\n\r\n\r\nНавыки:\t Go ,  SQL  \n")
	text, err := Extract("cv.txt", "", data)
	require.NoError(t, err)
	assert.Equal(t, "Иван Петров\n\nНавыки: Go , SQL", text)
}

func TestExtractInvalidUTF8(t *testing.T) {
	t.Parallel()

	_, err := Extract("cv.txt", "text/plain", []byte{0xff, 0xfe, 0xfd})
	require.ErrorIs(t, err, ErrUnreadable)
}

func TestExtractDocx(t *testing.T) {
	t.Parallel()

	text, err := Extract("cv.docx", "", buildDocx(t))
	require.NoError(t, err)
	assert.Equal(t, "Иван Петров\nНавыки:\nGo, PostgreSQL & Kafka", text)
}

func TestExtractBrokenDocx(t *testing.T) {
	t.Parallel()

	_, err := Extract("cv.docx", "", []byte("not a zip"))
	require.ErrorIs(t, err, ErrUnreadable)
}

func TestExtractBrokenPDF(t *testing.T) {
	t.Parallel()

	_, err := Extract("cv.pdf", "application/pdf", []byte("%PDF-1.4\nthis is not a pdf body"))
	require.ErrorIs(t, err, ErrUnreadable)
}

func TestExtractUnsupported(t *testing.T) {
	t.Parallel()

	_, err := Extract("photo.png", "image/png", []byte("\x89PNG\r\n\x1a\n"))
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestXMLText(t *testing.T) {
	t.Parallel()

	got := XMLText(`<w:p><w:r><w:t>a</w:t><w:tab/><w:t>b</w:t><w:br/><w:t>&lt;c&gt;</w:t></w:r></w:p>`)
	assert.Equal(t, "a\tb\n<c>\n", got)
}
