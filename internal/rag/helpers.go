package rag

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/clauselens/clauselens/internal/config"
	"github.com/clauselens/clauselens/internal/domain/corpus"
	"github.com/clauselens/clauselens/internal/faults"
)

// buildContextWindow packs hits into the prompt most-relevant-first until the
// character budget runs out, and collects cited sources in first-seen order.
func buildContextWindow(hits []corpus.SearchHit) (string, []string) {
	var b strings.Builder
	var sources []string
	seen := make(map[string]bool)

	for _, h := range hits {
		entry := fmt.Sprintf("[source: %s]\n%s\n\n", filepath.Base(h.SourcePath), h.Text)
		if b.Len()+len(entry) > config.ContextCharBudget {
			break
		}
		b.WriteString(entry)
		if !seen[h.SourcePath] {
			seen[h.SourcePath] = true
			sources = append(sources, filepath.Base(h.SourcePath))
		}
	}
	return strings.TrimRight(b.String(), "\n"), sources
}

// historyBlock renders prior turns for prompt injection. Empty history
// renders to nothing, the prompt template tolerates that.
func historyBlock(history []corpus.Turn) string {
	if len(history) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\nConversation so far:\n")
	for _, turn := range history {
		b.WriteString(fmt.Sprintf("%s: %s\n", turn.Role, turn.Content))
	}
	return b.String()
}

// generateWithRetry gives the provider one second chance before surfacing a
// GenerationFailed fault. Context cancellation wins over the backoff.
func (s *service) generateWithRetry(ctx context.Context, prompt string) (string, error) {
	var reply string
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			s.logger.Warn("generation failed, retrying once", "error", err)
			select {
			case <-time.After(config.ProviderRetryBackoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		genCtx, cancel := context.WithTimeout(ctx, config.GenerationTimeout)
		reply, err = s.provider.Generate(genCtx, config.ModelContext, prompt)
		cancel()
		if err == nil && strings.TrimSpace(reply) != "" {
			return reply, nil
		}
		if err == nil {
			err = faults.New(faults.GenerationFailed, "model returned an empty answer")
		}
	}
	return "", faults.Wrap(faults.GenerationFailed, "could not generate an answer", err)
}
