package mcpserver

import (
	"context"

	"github.com/clauselens/clauselens/internal/pipeline"
	"github.com/clauselens/clauselens/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Serve exposes the pipeline over MCP stdio so agent clients can query the
// corpus without going through HTTP. Blocks until the context ends.
func Serve(ctx context.Context, p *pipeline.Pipeline, version string) error {
	logger := logger_i.NewLogger("mcp")

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "clauselens",
		Version: version,
	}, nil)

	type queryIn struct {
		Question string `json:"question" jsonschema:"the question to answer from the indexed documents"`
		Category string `json:"category,omitempty" jsonschema:"restrict retrieval to one category"`
		FilePath string `json:"file_path,omitempty" jsonschema:"restrict retrieval to one indexed file"`
	}
	type queryOut struct {
		Answer  string   `json:"answer"`
		Sources []string `json:"sources"`
	}
	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_corpus",
		Description: "Answer a question from the indexed legal documents, with cited sources",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in queryIn) (*mcp.CallToolResult, queryOut, error) {
		answer, err := p.Query(ctx, "mcp", in.Question, pipeline.Target{Category: in.Category, FilePath: in.FilePath})
		if err != nil {
			return nil, queryOut{}, err
		}
		return nil, queryOut{Answer: answer.Text, Sources: answer.Sources}, nil
	})

	type emptyIn struct{}
	type categoriesOut struct {
		Categories map[string]int `json:"categories"`
	}
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_categories",
		Description: "List document categories with their indexed chunk counts",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in emptyIn) (*mcp.CallToolResult, categoriesOut, error) {
		return nil, categoriesOut{Categories: p.Categories()}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "pipeline_status",
		Description: "Report pipeline readiness, active store prefix and per-category counts",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in emptyIn) (*mcp.CallToolResult, pipeline.StatusReport, error) {
		return nil, p.Status(), nil
	})

	logger.Info("mcp server listening on stdio")
	return server.Run(ctx, &mcp.StdioTransport{})
}
