package report

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/clauselens/clauselens/internal/config"
	"github.com/clauselens/clauselens/internal/domain/corpus"
	"github.com/clauselens/clauselens/internal/faults"
	"github.com/clauselens/clauselens/pkg/logger_i"
)

// Recorder receives one record per ingested document.
type Recorder interface {
	Append(ctx context.Context, record corpus.CategorizationRecord) error
}

// Log is the append-only categorization record log: one JSONL line per
// document on disk, mirrored in memory for reporting. Records are never
// mutated after creation.
type Log struct {
	mu      sync.Mutex
	path    string
	records []corpus.CategorizationRecord
	logger  *logger_i.Logger
}

func NewLog(path string) (*Log, error) {
	l := &Log{path: path, logger: logger_i.NewLogger("categorization_log")}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	if err := l.replay(); err != nil {
		return nil, err
	}
	return l, nil
}

// replay loads previously persisted records; corrupt lines are skipped, not
// fatal.
func (l *Log) replay() error {
	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening categorization log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	skipped := 0
	for scanner.Scan() {
		var record corpus.CategorizationRecord
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			skipped++
			continue
		}
		l.records = append(l.records, record)
	}
	if skipped > 0 {
		l.logger.Warn("skipped corrupt categorization log lines", "count", skipped)
	}
	return scanner.Err()
}

func (l *Log) Append(ctx context.Context, record corpus.CategorizationRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
	if err != nil {
		return fmt.Errorf("opening categorization log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("appending categorization record: %w", err)
	}

	l.records = append(l.records, record)
	return nil
}

// Records returns the log in insertion order.
func (l *Log) Records() []corpus.CategorizationRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]corpus.CategorizationRecord, len(l.records))
	copy(out, l.records)
	return out
}

type exportedReport struct {
	GeneratedAt      time.Time                     `json:"generated_at"`
	TotalDocuments   int                           `json:"total_documents"`
	CountsByCategory map[string]int                `json:"counts_by_category"`
	Records          []corpus.CategorizationRecord `json:"records"`
}

// Export serializes the record log to a structured JSON report and returns
// the written path. An empty path picks a timestamped file under ReportDir.
func (l *Log) Export(path string) (string, error) {
	records := l.Records()

	counts := make(map[string]int)
	for _, r := range records {
		counts[r.AssignedCategory]++
	}

	if path == "" {
		path = filepath.Join(config.ReportDir,
			fmt.Sprintf("%s_%s.json", config.ReportFilenamePrefix, time.Now().Format("20060102_150405")))
	}

	data, err := json.MarshalIndent(exportedReport{
		GeneratedAt:      time.Now(),
		TotalDocuments:   len(records),
		CountsByCategory: counts,
		Records:          records,
	}, "", "  ")
	if err != nil {
		return "", faults.Wrap(faults.ExportIO, "could not serialize report", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return "", faults.Wrap(faults.ExportIO, "could not create report directory", err)
	}
	if err := os.WriteFile(path, data, 0640); err != nil {
		return "", faults.Wrap(faults.ExportIO, "could not write report", err)
	}

	l.logger.Info("exported categorization report", "path", path, "records", len(records))
	return path, nil
}
