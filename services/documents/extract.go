package documents

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// ErrUndecodable is returned when a file cannot be read as text in any supported way.
var ErrUndecodable = errors.New("file is not decodable as text")

// ExtractionError reports which file failed and why.
type ExtractionError struct {
	Path string
	Ext  string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s (%s): %v", e.Path, e.Ext, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Extractor reads text out of uploaded files.
type Extractor struct{}

func NewExtractor() *Extractor { return &Extractor{} }

// SupportedExtensions lists the formats with a dedicated reader.
var SupportedExtensions = []string{".txt", ".md", ".csv", ".json", ".pdf", ".docx"}

// ExtractText returns the text of the file at path. Unknown extensions are
// decoded as plain text.
func (e *Extractor) ExtractText(path, ext string) (string, error) {
	ext = normalizeExt(ext)
	var (
		text string
		err  error
	)
	switch ext {
	case ".pdf":
		text, err = extractPDF(path)
	case ".docx":
		text, err = extractDOCX(path)
	default:
		text, err = extractPlain(path)
	}
	if err != nil {
		return "", &ExtractionError{Path: path, Ext: ext, Err: err}
	}
	return text, nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func extractPlain(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return "", ErrUndecodable
	}
	return string(data), nil
}

func extractPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// extractDOCX walks word/document.xml, emitting w:t runs and a newline per paragraph.
func extractDOCX(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", err
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		return readDocumentXML(rc)
	}
	return "", errors.New("word/document.xml not found")
}

func readDocumentXML(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		sb     strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
