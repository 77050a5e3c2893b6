package categorize

import (
	"context"
	"errors"
	"testing"

	"github.com/clauselens/clauselens/internal/domain/corpus"
	"github.com/clauselens/clauselens/internal/faults"
	"github.com/clauselens/clauselens/pkg/logger_i"
)

func TestMain(m *testing.M) {
	logger_i.Init()
	m.Run()
}

type mockProvider struct {
	generateFunc func(ctx context.Context, system string, prompt string) (string, error)
}

func (m *mockProvider) Generate(ctx context.Context, system string, prompt string) (string, error) {
	return m.generateFunc(ctx, system, prompt)
}

type mockRecorder struct {
	records []corpus.CategorizationRecord
}

func (m *mockRecorder) Append(ctx context.Context, record corpus.CategorizationRecord) error {
	m.records = append(m.records, record)
	return nil
}

func TestCategorize_Heuristic(t *testing.T) {
	rec := &mockRecorder{}
	c := NewCategorizer(nil, rec, true)

	doc := corpus.Document{
		SourcePath: "/docs/office_lease.pdf",
		Name:       "office_lease.pdf",
		RawText:    "LEASE AGREEMENT between the Landlord and the Tenant for the premises at 1 Main St.",
	}

	record, err := c.Categorize(context.Background(), doc)
	if err != nil {
		t.Fatalf("Categorize failed: %v", err)
	}
	if record.AssignedCategory != "Lease" {
		t.Errorf("Expected Lease, got %s", record.AssignedCategory)
	}
	if len(rec.records) != 1 || rec.records[0].DocumentPath != doc.SourcePath {
		t.Errorf("Expected one recorded categorization for %s", doc.SourcePath)
	}
}

func TestCategorize_HeuristicNoMatch(t *testing.T) {
	c := NewCategorizer(nil, nil, true)

	record, err := c.Categorize(context.Background(), corpus.Document{
		Name:    "notes.txt",
		RawText: "Meeting notes from Tuesday. Nothing contractual here.",
	})
	if err != nil {
		t.Fatalf("Categorize failed: %v", err)
	}
	if record.AssignedCategory != Uncategorized {
		t.Errorf("Expected %s, got %s", Uncategorized, record.AssignedCategory)
	}
}

func TestCategorize_EmptyText(t *testing.T) {
	c := NewCategorizer(nil, nil, true)

	_, err := c.Categorize(context.Background(), corpus.Document{Name: "blank.pdf", RawText: "   \n "})
	if !faults.IsKind(err, faults.EmptyExtraction) {
		t.Errorf("Expected EmptyExtraction fault, got %v", err)
	}
}

func TestCategorize_ModelFallback(t *testing.T) {
	provider := &mockProvider{
		generateFunc: func(ctx context.Context, system string, prompt string) (string, error) {
			return "Loan", nil
		},
	}
	c := NewCategorizer(provider, nil, false)

	record, err := c.Categorize(context.Background(), corpus.Document{
		Name:    "agreement.pdf",
		RawText: "This document sets out repayment terms agreed between the parties.",
	})
	if err != nil {
		t.Fatalf("Categorize failed: %v", err)
	}
	if record.AssignedCategory != "Loan" {
		t.Errorf("Expected Loan from model, got %s", record.AssignedCategory)
	}
}

func TestCategorize_ModelReplyOutsideLabelSet(t *testing.T) {
	provider := &mockProvider{
		generateFunc: func(ctx context.Context, system string, prompt string) (string, error) {
			return "Maritime Charter", nil
		},
	}
	c := NewCategorizer(provider, nil, false)

	record, err := c.Categorize(context.Background(), corpus.Document{
		Name:    "charter.pdf",
		RawText: "An agreement of a kind the label set does not cover.",
	})
	if err != nil {
		t.Fatalf("Categorize failed: %v", err)
	}
	if record.AssignedCategory != Uncategorized {
		t.Errorf("Expected %s for off-list reply, got %s", Uncategorized, record.AssignedCategory)
	}
}

func TestCategorize_ModelFailureIsNotFatal(t *testing.T) {
	provider := &mockProvider{
		generateFunc: func(ctx context.Context, system string, prompt string) (string, error) {
			return "", errors.New("provider down")
		},
	}
	c := NewCategorizer(provider, nil, false)

	record, err := c.Categorize(context.Background(), corpus.Document{
		Name:    "mystery.pdf",
		RawText: "Some contractual text the heuristics cannot place.",
	})
	if err != nil {
		t.Fatalf("Expected fallback, got error: %v", err)
	}
	if record.AssignedCategory != Uncategorized {
		t.Errorf("Expected %s after provider failure, got %s", Uncategorized, record.AssignedCategory)
	}
}

func TestMatchLabel(t *testing.T) {
	cases := map[string]string{
		"NDA":                  "NDA",
		" lease. ":             "Lease",
		`"Service Agreement"`:  "Service Agreement",
		"something unexpected": "",
	}
	for reply, want := range cases {
		if got := matchLabel(reply); got != want {
			t.Errorf("matchLabel(%q) = %q, want %q", reply, got, want)
		}
	}
}
