package document

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ErrUnsupported is returned for document types that cannot be read as text.
var ErrUnsupported = errors.New("unsupported document type")

// Document is the text content of one source file.
type Document struct {
	Name string
	Text string
	// Encoding is "utf-8" or "latin-1", whichever decoded the content.
	Encoding string
}

var textExtensions = map[string]bool{
	".txt":  true,
	".text": true,
	".md":   true,
	".csv":  true,
	".xml":  true,
	".json": true,
	".html": true,
	".htm":  true,
}

// IsSupported reports whether name looks like a text document, judged by
// its MIME type when given and otherwise by extension.
func IsSupported(name, mimeType string) bool {
	if mimeType != "" {
		if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
			if strings.HasPrefix(mt, "text/") || mt == "application/json" || mt == "application/xml" {
				return true
			}
			if mt != "application/octet-stream" {
				return false
			}
		}
	}
	return textExtensions[strings.ToLower(filepath.Ext(name))]
}

// Decode turns raw bytes into text. Content that is not valid UTF-8 is read
// as Latin-1.
func Decode(name, mimeType string, content []byte) (Document, error) {
	if !IsSupported(name, mimeType) {
		return Document{}, fmt.Errorf("%w: %s", ErrUnsupported, name)
	}

	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	if utf8.Valid(content) {
		return Document{Name: name, Text: string(content), Encoding: "utf-8"}, nil
	}

	text, err := charmap.ISO8859_1.NewDecoder().Bytes(content)
	if err != nil {
		return Document{}, fmt.Errorf("failed to decode %s as latin-1: %w", name, err)
	}
	return Document{Name: name, Text: string(text), Encoding: "latin-1"}, nil
}

// ReadFile loads and decodes a document from disk.
func ReadFile(path string) (Document, error) {
	if !IsSupported(path, "") {
		return Document{}, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Decode(filepath.Base(path), "", content)
}
