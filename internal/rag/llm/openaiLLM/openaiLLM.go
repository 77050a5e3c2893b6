package openaiLLM

import (
	"context"
	"sync"

	"github.com/clauselens/clauselens/internal/faults"
	"github.com/clauselens/clauselens/internal/rag/llm"
	"github.com/clauselens/clauselens/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type llmClient struct {
	oai   openai.Client
	model string
}

var logger *logger_i.Logger
var openaiClient *llmClient
var once sync.Once

func GetOpenAIClient(ctx context.Context, modelName string, apikey string) llm.Provider {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_openai")
		if apikey == "" {
			logger.Error("missing OpenAI API key")
			return
		}
		openaiClient = &llmClient{
			oai:   openai.NewClient(option.WithAPIKey(apikey)),
			model: modelName,
		}
		logger.Info("OpenAI client created", "model", modelName)
	})

	if openaiClient == nil {
		return nil
	}
	return openaiClient
}

func (c *llmClient) Generate(ctx context.Context, system string, prompt string) (string, error) {
	resp, err := c.oai.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		logger.Error("OpenAI generation failed", "error", err)
		return "", faults.Wrap(faults.Provider, "generation provider failure", err)
	}
	if len(resp.Choices) == 0 {
		return "", faults.New(faults.Provider, "generation provider returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
