package rag

import (
	"context"
	"fmt"

	"github.com/clauselens/clauselens/internal/domain/corpus"
	"github.com/clauselens/clauselens/internal/faults"
	"github.com/clauselens/clauselens/internal/rag/llm"
	"github.com/clauselens/clauselens/internal/rag/retrieve"
	"github.com/clauselens/clauselens/pkg/logger_i"
)

// Answer is a grounded model response plus the documents it drew from.
type Answer struct {
	Text    string   `json:"answer"`
	Sources []string `json:"sources"`
}

// Retriever is the scoped search the synthesizer builds its evidence from.
type Retriever interface {
	Retrieve(ctx context.Context, question string, scope retrieve.Scope) ([]corpus.SearchHit, error)
}

// Service turns retrieval hits into cited answers. Every operation retrieves
// first and generates second; no answer is produced without evidence.
type Service interface {
	Ask(ctx context.Context, question string, scope retrieve.Scope, history []corpus.Turn) (Answer, error)
	Compare(ctx context.Context, question string, sideA Side, sideB Side) (Answer, error)
	CompareObligations(ctx context.Context, sideA Side, sideB Side) (Answer, error)
	CompareTermination(ctx context.Context, sideA Side, sideB Side) (Answer, error)
	CompareClauses(ctx context.Context, clause string, sideA Side, sideB Side) (Answer, error)
	Summarize(ctx context.Context, scope retrieve.Scope) (Answer, error)
	FindObligations(ctx context.Context, scope retrieve.Scope) (Answer, error)
	FindTermination(ctx context.Context, scope retrieve.Scope) (Answer, error)
	ExplainClause(ctx context.Context, clause string, scope retrieve.Scope) (Answer, error)
}

// Side labels one half of a comparison: the scope to retrieve from and the
// name used for it in the prompt and the response.
type Side struct {
	Label string
	Scope retrieve.Scope
}

type service struct {
	retriever Retriever
	provider  llm.Provider
	logger    *logger_i.Logger
}

func NewService(retriever Retriever, provider llm.Provider) Service {
	return &service{
		retriever: retriever,
		provider:  provider,
		logger:    logger_i.NewLogger("rag_service"),
	}
}

func (s *service) Ask(ctx context.Context, question string, scope retrieve.Scope, history []corpus.Turn) (Answer, error) {
	hits, err := s.retriever.Retrieve(ctx, question, scope)
	if err != nil {
		return Answer{}, err
	}
	if len(hits) == 0 {
		return Answer{}, faults.New(faults.InsufficientEvidence, "no relevant excerpts found for the question")
	}

	window, sources := buildContextWindow(hits)
	prompt := fmt.Sprintf(answerPrompt, historyBlock(history), window, question)

	text, err := s.generateWithRetry(ctx, prompt)
	if err != nil {
		return Answer{}, err
	}
	return Answer{Text: text, Sources: sources}, nil
}

// Compare retrieves each side independently with the same question. Both
// sides must yield evidence; comparing against nothing is refused rather
// than hallucinated.
func (s *service) Compare(ctx context.Context, question string, sideA Side, sideB Side) (Answer, error) {
	hitsA, err := s.retriever.Retrieve(ctx, question, sideA.Scope)
	if err != nil {
		return Answer{}, err
	}
	hitsB, err := s.retriever.Retrieve(ctx, question, sideB.Scope)
	if err != nil {
		return Answer{}, err
	}
	if len(hitsA) == 0 || len(hitsB) == 0 {
		missing := sideA.Label
		if len(hitsA) > 0 {
			missing = sideB.Label
		}
		return Answer{}, faults.New(faults.InsufficientEvidence,
			fmt.Sprintf("no relevant excerpts found for %s", missing))
	}

	windowA, sourcesA := buildContextWindow(hitsA)
	windowB, sourcesB := buildContextWindow(hitsB)
	prompt := fmt.Sprintf(comparePrompt, question, sideA.Label, windowA, sideB.Label, windowB)

	text, err := s.generateWithRetry(ctx, prompt)
	if err != nil {
		return Answer{}, err
	}
	return Answer{Text: text, Sources: append(sourcesA, sourcesB...)}, nil
}

func (s *service) CompareObligations(ctx context.Context, sideA Side, sideB Side) (Answer, error) {
	return s.Compare(ctx, "What obligations does each party have? "+obligationsQuestion, sideA, sideB)
}

func (s *service) CompareTermination(ctx context.Context, sideA Side, sideB Side) (Answer, error) {
	return s.Compare(ctx, "How can the agreement be terminated? "+terminationQuestion, sideA, sideB)
}

func (s *service) CompareClauses(ctx context.Context, clause string, sideA Side, sideB Side) (Answer, error) {
	if clause == "" {
		return Answer{}, faults.New(faults.InvalidInput, "empty clause topic")
	}
	return s.Compare(ctx, fmt.Sprintf("How does each document handle the %q clause?", clause), sideA, sideB)
}

func (s *service) Summarize(ctx context.Context, scope retrieve.Scope) (Answer, error) {
	return s.intentAnswer(ctx, summaryQuestion, scope, func(window string) string {
		return fmt.Sprintf(summaryPrompt, window)
	})
}

func (s *service) FindObligations(ctx context.Context, scope retrieve.Scope) (Answer, error) {
	return s.intentAnswer(ctx, obligationsQuestion, scope, func(window string) string {
		return fmt.Sprintf(obligationsPrompt, window)
	})
}

func (s *service) FindTermination(ctx context.Context, scope retrieve.Scope) (Answer, error) {
	return s.intentAnswer(ctx, terminationQuestion, scope, func(window string) string {
		return fmt.Sprintf(terminationPrompt, window)
	})
}

func (s *service) ExplainClause(ctx context.Context, clause string, scope retrieve.Scope) (Answer, error) {
	if clause == "" {
		return Answer{}, faults.New(faults.InvalidInput, "empty clause topic")
	}
	return s.intentAnswer(ctx, clause, scope, func(window string) string {
		return fmt.Sprintf(explainClausePrompt, clause, window)
	})
}

// intentAnswer is the shared retrieve-then-render path for the fixed-intent
// operations: the retrieval question is canned, the prompt varies.
func (s *service) intentAnswer(ctx context.Context, question string, scope retrieve.Scope, render func(window string) string) (Answer, error) {
	hits, err := s.retriever.Retrieve(ctx, question, scope)
	if err != nil {
		return Answer{}, err
	}
	if len(hits) == 0 {
		return Answer{}, faults.New(faults.InsufficientEvidence, "no relevant excerpts found")
	}

	window, sources := buildContextWindow(hits)
	text, err := s.generateWithRetry(ctx, render(window))
	if err != nil {
		return Answer{}, err
	}
	return Answer{Text: text, Sources: sources}, nil
}
