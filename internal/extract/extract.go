package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/clauselens/clauselens/internal/domain/corpus"
	"github.com/clauselens/clauselens/internal/faults"
	"github.com/clauselens/clauselens/pkg/logger_i"
	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
)

// Adapter turns a raw file into a Document with plain text. The extraction
// libraries are the only part of the system that touches file formats.
type Adapter interface {
	Extract(ctx context.Context, path string) (corpus.Document, error)
}

type fileAdapter struct {
	logger *logger_i.Logger
}

func NewAdapter() Adapter {
	return &fileAdapter{logger: logger_i.NewLogger("extract")}
}

func DocTypeOf(path string) corpus.DocType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return corpus.PDF
	case ".docx", ".doc", ".txt", ".rtf", ".odt":
		return corpus.WORD
	default:
		return corpus.ERR
	}
}

func (a *fileAdapter) Extract(ctx context.Context, path string) (corpus.Document, error) {
	docType := DocTypeOf(path)
	a.logger.Debug("extracting document", "path", path, "type", docType)

	var text string
	var err error
	switch docType {
	case corpus.PDF:
		text, err = a.extractPDF(ctx, path)
	case corpus.WORD:
		text, err = a.extractWithCat(path)
	default:
		return corpus.Document{}, faults.New(faults.UnsupportedFormat,
			fmt.Sprintf("unsupported file format: %s", filepath.Ext(path)))
	}
	if err != nil {
		return corpus.Document{}, err
	}

	if strings.TrimSpace(text) == "" {
		// never silently categorize unreadable input
		return corpus.Document{}, faults.New(faults.EmptyExtraction,
			fmt.Sprintf("no text extracted from %s", filepath.Base(path)))
	}

	return corpus.Document{
		SourcePath:  path,
		Name:        filepath.Base(path),
		RawText:     text,
		ContentType: docType,
		ExtractedAt: time.Now(),
	}, nil
}

func (a *fileAdapter) extractPDF(ctx context.Context, path string) (string, error) {
	f, err := pdf.Open(path)
	if err != nil {
		a.logger.Error("failed opening pdf", "path", path, "error", err)
		return "", faults.Wrap(faults.CorruptFile, "failed to open pdf", err)
	}

	var pages []string
	numPages := f.NumPage()
	a.logger.Debug("extractPDF", "pages", numPages)
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := protectExtract(ctx, page)
		if err != nil {
			// a bad page should not sink the document
			a.logger.Error("error parsing page content", "page", i, "error", err)
			continue
		}
		pages = append(pages, content)
	}
	return strings.Join(pages, "\n\n"), nil
}

// extractWithCat reads a .docx, .doc, .odt, .rtf or plaintext file.
func (a *fileAdapter) extractWithCat(path string) (string, error) {
	text, err := cat.File(path)
	if err != nil {
		a.logger.Error("error extracting document content", "path", path, "error", err)
		return "", faults.Wrap(faults.CorruptFile, "failed to extract document text", err)
	}
	return text, nil
}

// protectExtract guards against pdf pages that hang the parser.
func protectExtract(ctx context.Context, page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(10 * time.Second):
		return "", errors.New("page extraction timeout")
	}
}
