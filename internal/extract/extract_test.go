package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/clauselens/clauselens/internal/domain/corpus"
	"github.com/clauselens/clauselens/internal/faults"
	"github.com/clauselens/clauselens/pkg/logger_i"
)

func TestMain(m *testing.M) {
	logger_i.Init()
	os.Exit(m.Run())
}

func TestDocTypeOf(t *testing.T) {
	tests := []struct {
		path     string
		expected corpus.DocType
	}{
		{"lease.pdf", corpus.PDF},
		{"NDA.DOCX", corpus.WORD},
		{"notes.txt", corpus.WORD},
		{"contract.odt", corpus.WORD},
		{"old.rtf", corpus.WORD},
		{"scan.png", corpus.ERR},
	}

	for _, tt := range tests {
		if got := DocTypeOf(tt.path); got != tt.expected {
			t.Errorf("DocTypeOf(%s) = %v; want %v", tt.path, got, tt.expected)
		}
	}
}

func TestExtract_PlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agreement.txt")
	content := "This Agreement is made between the parties on the date below."
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	doc, err := NewAdapter().Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if doc.RawText != content {
		t.Errorf("RawText got %q, want %q", doc.RawText, content)
	}
	if doc.Name != "agreement.txt" || doc.SourcePath != path {
		t.Errorf("metadata mismatch: %+v", doc)
	}
	if doc.ExtractedAt.IsZero() {
		t.Error("ExtractedAt not set")
	}
}

func TestExtract_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blank.txt")
	if err := os.WriteFile(path, []byte("   \n\t  "), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := NewAdapter().Extract(context.Background(), path)
	if !faults.IsKind(err, faults.EmptyExtraction) {
		t.Errorf("expected EmptyExtraction fault, got %v", err)
	}
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	_, err := NewAdapter().Extract(context.Background(), "slides.pptx")
	if !faults.IsKind(err, faults.UnsupportedFormat) {
		t.Errorf("expected UnsupportedFormat fault, got %v", err)
	}
}
