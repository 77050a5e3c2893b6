package categorize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clauselens/clauselens/internal/config"
	"github.com/clauselens/clauselens/internal/domain/corpus"
	"github.com/clauselens/clauselens/internal/faults"
	"github.com/clauselens/clauselens/internal/rag/llm"
	"github.com/clauselens/clauselens/internal/report"
	"github.com/clauselens/clauselens/pkg/logger_i"
)

// Uncategorized is the explicit bucket for documents no label matches.
// Uncategorized documents still get a store and stay queryable.
const Uncategorized = "Uncategorized"

// Labels is the closed set of categories a document can be assigned to.
// Everything downstream (store names, filters, reports) keys off these.
var Labels = []string{
	"NDA",
	"Lease",
	"Employment",
	"Service Agreement",
	"License",
	"Loan",
	"Purchase",
	"Insurance",
}

// keyword signals checked against the head of the document, strongest first.
// The heuristic pass keeps obvious documents off the LLM entirely.
var keywordLabels = []struct {
	label    string
	keywords []string
}{
	{"NDA", []string{"non-disclosure", "nondisclosure", "confidentiality agreement", "confidential information"}},
	{"Lease", []string{"lease agreement", "landlord", "tenant", "premises", "rent"}},
	{"Employment", []string{"employment agreement", "employee", "employer", "salary", "termination of employment"}},
	{"Service Agreement", []string{"service agreement", "services agreement", "statement of work", "service provider"}},
	{"License", []string{"license agreement", "licensor", "licensee", "licensed software"}},
	{"Loan", []string{"loan agreement", "lender", "borrower", "principal amount", "promissory note"}},
	{"Purchase", []string{"purchase agreement", "buyer", "seller", "purchase price", "bill of sale"}},
	{"Insurance", []string{"insurance policy", "insurer", "insured", "policyholder", "coverage"}},
}

// how much of the document the heuristic pass reads; titles and preambles
// carry nearly all of the signal.
const headWindow = 4000

type Categorizer interface {
	Categorize(ctx context.Context, doc corpus.Document) (corpus.CategorizationRecord, error)
}

type categorizer struct {
	provider      llm.Provider
	recorder      report.Recorder
	heuristicOnly bool
	logger        *logger_i.Logger
}

// NewCategorizer builds the two-stage classifier: keyword heuristics first,
// model fallback second. A nil provider (or heuristicOnly) skips the model
// stage and sends unmatched documents straight to Uncategorized.
func NewCategorizer(provider llm.Provider, recorder report.Recorder, heuristicOnly bool) Categorizer {
	return &categorizer{
		provider:      provider,
		recorder:      recorder,
		heuristicOnly: heuristicOnly || provider == nil,
		logger:        logger_i.NewLogger("categorizer"),
	}
}

func (c *categorizer) Categorize(ctx context.Context, doc corpus.Document) (corpus.CategorizationRecord, error) {
	if strings.TrimSpace(doc.RawText) == "" {
		return corpus.CategorizationRecord{}, faults.New(faults.EmptyExtraction, fmt.Sprintf("no text extracted from %s", doc.Name))
	}

	record := corpus.CategorizationRecord{
		DocumentPath: doc.SourcePath,
		Timestamp:    time.Now(),
	}

	if label, matched, reason := heuristicLabel(doc.RawText); matched {
		record.AssignedCategory = label
		record.Reasoning = reason
	} else if c.heuristicOnly {
		record.AssignedCategory = Uncategorized
		record.Reasoning = "no keyword signal matched"
	} else {
		label, reason, err := c.modelLabel(ctx, doc)
		if err != nil {
			// classification failure is not ingestion failure
			c.logger.Warn("model categorization failed, using fallback bucket", "document", doc.Name, "error", err)
			label = Uncategorized
			reason = "model categorization unavailable"
		}
		record.AssignedCategory = label
		record.Reasoning = reason
	}

	if c.recorder != nil {
		if err := c.recorder.Append(ctx, record); err != nil {
			c.logger.Error("failed to record categorization", "document", doc.Name, "error", err)
		}
	}

	c.logger.Info("categorized document", "document", doc.Name, "category", record.AssignedCategory)
	return record, nil
}

// heuristicLabel scores each label by keyword hits in the document head and
// picks the strongest. Earlier labels win ties.
func heuristicLabel(text string) (string, bool, string) {
	head := strings.ToLower(text)
	if len(head) > headWindow {
		head = head[:headWindow]
	}

	best := ""
	bestHits := 0
	bestKeyword := ""
	for _, candidate := range keywordLabels {
		hits := 0
		first := ""
		for _, kw := range candidate.keywords {
			if strings.Contains(head, kw) {
				hits++
				if first == "" {
					first = kw
				}
			}
		}
		if hits > bestHits {
			best = candidate.label
			bestHits = hits
			bestKeyword = first
		}
	}

	// a single weak hit ("rent" in an employment contract) is not enough
	if bestHits < 2 {
		return "", false, ""
	}
	return best, true, fmt.Sprintf("keyword match %q (%d signals)", bestKeyword, bestHits)
}

const categorizePrompt = "Classify the legal document excerpt below into exactly one of these categories: %s. " +
	"Respond with the category name only, nothing else.\n\nExcerpt:\n%s"

// modelLabel asks the provider for a label, retrying once. Replies outside
// the label set land in Uncategorized rather than creating surprise stores.
func (c *categorizer) modelLabel(ctx context.Context, doc corpus.Document) (string, string, error) {
	excerpt := doc.RawText
	if len(excerpt) > headWindow {
		excerpt = excerpt[:headWindow]
	}
	prompt := fmt.Sprintf(categorizePrompt, strings.Join(Labels, ", "), excerpt)

	var reply string
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(config.ProviderRetryBackoff):
			case <-ctx.Done():
				return "", "", ctx.Err()
			}
		}
		genCtx, cancel := context.WithTimeout(ctx, config.GenerationTimeout)
		reply, err = c.provider.Generate(genCtx, config.ModelContext, prompt)
		cancel()
		if err == nil {
			break
		}
	}
	if err != nil {
		return "", "", err
	}

	label := matchLabel(reply)
	if label == "" {
		return Uncategorized, fmt.Sprintf("model reply %q not in label set", strings.TrimSpace(reply)), nil
	}
	return label, "model classification", nil
}

func matchLabel(reply string) string {
	cleaned := strings.ToLower(strings.Trim(strings.TrimSpace(reply), `."'`))
	for _, label := range Labels {
		if cleaned == strings.ToLower(label) {
			return label
		}
	}
	return ""
}
