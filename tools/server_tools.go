// Managed server tools: status, start, stop, logs.
//
// Process side effects are delegated to the server.Manager
// collaborator; nothing here touches a process directly.

package tools

import (
	"context"
	"encoding/json"

	"minder/llm"
	"minder/server"
)

type getStatusTool struct {
	manager server.Manager
}

func (t *getStatusTool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        "get_status",
		Description: "Report whether the managed inference server is running, and its process id.",
		Parameters:  objectSchema(map[string]any{}),
	}
}

func (t *getStatusTool) Execute(ctx context.Context, args json.RawMessage) (Result, error) {
	running := t.manager.IsRunning()
	fields := map[string]any{"running": running}
	if running {
		fields["pid"] = t.manager.GetPid()
	}
	return SuccessResult(fields), nil
}

type startServerTool struct {
	manager server.Manager
}

func (t *startServerTool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        "start_server",
		Description: "Start the managed inference server with the current configuration.",
		Parameters: objectSchema(map[string]any{
			"model": stringProperty("Optional model override for this launch."),
		}),
	}
}

func (t *startServerTool) Execute(ctx context.Context, args json.RawMessage) (Result, error) {
	var params struct {
		Model string `json:"model"`
	}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &params); err != nil {
			return FailureResultf("invalid arguments: %v", err), nil
		}
	}

	if err := t.manager.Start(ctx, server.StartOptions{Model: params.Model}); err != nil {
		return Result{}, err
	}
	return SuccessResult(map[string]any{
		"running": true,
		"pid":     t.manager.GetPid(),
	}), nil
}

type stopServerTool struct {
	manager server.Manager
}

func (t *stopServerTool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        "stop_server",
		Description: "Stop the managed inference server.",
		Parameters:  objectSchema(map[string]any{}),
	}
}

func (t *stopServerTool) Execute(ctx context.Context, args json.RawMessage) (Result, error) {
	if err := t.manager.Stop(); err != nil {
		return Result{}, err
	}
	return SuccessMessage("server stopped"), nil
}

type getLogsTool struct {
	manager server.Manager
}

func (t *getLogsTool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        "get_logs",
		Description: "Fetch trailing lines from the managed server's log.",
		Parameters: objectSchema(map[string]any{
			"lines": integerProperty("Number of trailing lines to fetch (default 50)."),
		}),
	}
}

func (t *getLogsTool) Execute(ctx context.Context, args json.RawMessage) (Result, error) {
	var params struct {
		Lines int `json:"lines"`
	}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &params); err != nil {
			return FailureResultf("invalid arguments: %v", err), nil
		}
	}
	if params.Lines <= 0 {
		params.Lines = 50
	}

	logs, err := t.manager.ReadLogs(params.Lines)
	if err != nil {
		return Result{}, err
	}
	return SuccessResult(map[string]any{"logs": logs}), nil
}
