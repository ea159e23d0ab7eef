package documents

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExtractPlainText(t *testing.T) {
	e := NewExtractor()
	path := writeFile(t, "notes.txt", []byte("\xef\xbb\xbfRefunds within 30 days."))
	got, err := e.ExtractText(path, ".txt")
	if err != nil || got != "Refunds within 30 days." {
		t.Fatalf("ExtractText = %q, %v", got, err)
	}
}

func TestExtractUnknownExtensionFallsBackToText(t *testing.T) {
	path := writeFile(t, "data.xyz", []byte("plain content"))
	got, err := NewExtractor().ExtractText(path, "XYZ")
	if err != nil || got != "plain content" {
		t.Fatalf("ExtractText = %q, %v", got, err)
	}
}

func TestExtractUndecodableReturnsTypedError(t *testing.T) {
	path := writeFile(t, "blob.bin", []byte{0xff, 0xfe, 0x00, 0xc3})
	_, err := NewExtractor().ExtractText(path, ".bin")
	var ee *ExtractionError
	if !errors.As(err, &ee) || !errors.Is(err, ErrUndecodable) {
		t.Fatalf("err = %v, want ExtractionError wrapping ErrUndecodable", err)
	}
}

func TestExtractDOCX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, _ := zw.Create("word/document.xml")
	w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:r><w:t>Refund</w:t></w:r><w:r><w:t xml:space="preserve"> policy</w:t></w:r></w:p>
<w:p><w:r><w:t>Thirty days.</w:t></w:r></w:p>
</w:body></w:document>`))
	zw.Close()
	f.Close()

	got, err := NewExtractor().ExtractText(path, ".docx")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "Refund policy") || !strings.Contains(got, "Thirty days.") {
		t.Errorf("docx text = %q", got)
	}
}

func TestExtractBrokenPDF(t *testing.T) {
	path := writeFile(t, "broken.pdf", []byte("not a pdf"))
	_, err := NewExtractor().ExtractText(path, ".pdf")
	var ee *ExtractionError
	if !errors.As(err, &ee) {
		t.Fatalf("err = %v, want ExtractionError", err)
	}
}
