package llm

import "context"

// Provider generates text from a system instruction and a fully assembled
// prompt. Prompt construction lives with the caller; providers stay dumb.
type Provider interface {
	Generate(ctx context.Context, system string, prompt string) (string, error)
}
