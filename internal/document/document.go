// Package document turns uploaded resumes and vacancies into plain text.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"mime"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// Format is a supported document format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatText Format = "text"

	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrUnreadable        = errors.New("document is unreadable")

	pdfMagic = []byte("%PDF-")
	zipMagic = []byte("PK\x03\x04")
	utf8BOM  = []byte("\xef\xbb\xbf")

	docxBreaks = strings.NewReplacer(
		"</w:p>", "\n",
		"<w:br/>", "\n",
		"<w:cr/>", "\n",
		"<w:tab/>", "\t",
	)
	xmlTag     = regexp.MustCompile(`<[^>]*>`)
	blankLines = regexp.MustCompile(`\n{3,}`)
	inlineGaps = regexp.MustCompile(`[ \t\x{00a0}]+`)
)

// Detect picks the format from the content type, then the file extension, then
// the leading bytes of data.
func Detect(filename, contentType string, data []byte) (Format, error) {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch {
		case mediaType == mimePDF:
			return FormatPDF, nil
		case mediaType == mimeDOCX:
			return FormatDOCX, nil
		case strings.HasPrefix(mediaType, "text/"):
			return FormatText, nil
		}
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDOCX, nil
	case ".txt", ".md", ".text":
		return FormatText, nil
	}

	switch {
	case bytes.HasPrefix(data, pdfMagic):
		return FormatPDF, nil
	case bytes.HasPrefix(data, zipMagic):
		// A bare zip archive may be anything; only trust it with a docx name.
		return "", fmt.Errorf("%w: zip archive %q", ErrUnsupportedFormat, filename)
	case strings.HasPrefix(http.DetectContentType(data), "text/plain"):
		return FormatText, nil
	}

	return "", fmt.Errorf("%w: %q (%s)", ErrUnsupportedFormat, filename, contentType)
}

// Extract returns the text of the document with its line structure kept.
func Extract(filename, contentType string, data []byte) (string, error) {
	format, err := Detect(filename, contentType, data)
	if err != nil {
		return "", err
	}

	var text string
	switch format {
	case FormatPDF:
		text, err = pdfText(data)
	case FormatDOCX:
		text, err = docxText(data)
	default:
		text, err = plainText(data)
	}
	if err != nil {
		return "", err
	}

	return Clean(text), nil
}

// Clean collapses runs of spaces inside lines and of blank lines between them.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(inlineGaps.ReplaceAllString(line, " "))
	}

	return strings.TrimSpace(blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}

func plainText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: text is not valid UTF-8", ErrUnreadable)
	}
	return string(data), nil
}

func pdfText(data []byte) (text string, err error) {
	// The pdf reader panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: pdf: %v", ErrUnreadable, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: pdf: %w", ErrUnreadable, err)
	}

	var builder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: pdf page %d: %w", ErrUnreadable, i, err)
		}
		builder.WriteString(pageText)
		builder.WriteString("\n")
	}

	return builder.String(), nil
}

func docxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: docx: %w", ErrUnreadable, err)
	}
	defer doc.Close()

	return XMLText(doc.Editable().GetContent()), nil
}

// XMLText converts WordprocessingML to plain text: paragraphs and breaks become
// new lines, tabs stay tabs, every other tag is dropped.
func XMLText(content string) string {
	content = docxBreaks.Replace(content)
	content = xmlTag.ReplaceAllString(content, "")
	return html.UnescapeString(content)
}
