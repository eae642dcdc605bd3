package tools

import (
	"context"
	"encoding/json"
	"strings"

	"minder/docs"
	"minder/llm"
)

type searchDocsTool struct{}

func (t *searchDocsTool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        "search_docs",
		Description: "Search the bundled documentation topics by keyword.",
		Parameters: objectSchema(map[string]any{
			"query": stringProperty("Keyword or phrase to search for."),
		}, "query"),
	}
}

func (t *searchDocsTool) Execute(ctx context.Context, args json.RawMessage) (Result, error) {
	var params struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return FailureResultf("invalid arguments: %v", err), nil
	}
	if strings.TrimSpace(params.Query) == "" {
		return FailureResult("query must not be empty"), nil
	}

	names := docs.Search(params.Query)
	if len(names) == 0 {
		return SuccessResult(map[string]any{
			"matches": names,
			"note":    "no topics matched; use search_docs with a broader term or get_doc with an exact name",
		}), nil
	}
	return SuccessResult(map[string]any{"matches": names}), nil
}

type getDocTool struct{}

func (t *getDocTool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        "get_doc",
		Description: "Fetch a documentation topic by exact name.",
		Parameters: objectSchema(map[string]any{
			"name": stringProperty("Exact topic name, e.g. \"getting-started\"."),
		}, "name"),
	}
}

func (t *getDocTool) Execute(ctx context.Context, args json.RawMessage) (Result, error) {
	var params struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return FailureResultf("invalid arguments: %v", err), nil
	}

	topic, err := docs.Get(params.Name)
	if err != nil {
		available := make([]string, 0)
		for _, t := range docs.All() {
			available = append(available, t.Name)
		}
		return FailureResultf("no topic named %q; available: %s", params.Name, strings.Join(available, ", ")), nil
	}
	return SuccessResult(map[string]any{
		"name": topic.Name,
		"body": topic.Body,
	}), nil
}
