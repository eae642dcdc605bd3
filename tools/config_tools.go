// Configuration tools.
//
// These are the only tools that can expose configuration values to the
// model, so every value passes through the redaction policy first. The
// full-listing form returns a bounded summary - an allow-listed subset
// of non-sensitive keys plus provider-configured flags plus the key
// list - never arbitrary values.

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"minder/llm"
	"minder/redact"
	"minder/server"
)

// Non-sensitive keys whose values may appear in the summary.
var summaryAllowList = []string{
	"host",
	"port",
	"model",
	"model_dir",
	"context_size",
	"gpu_layers",
	"threads",
	"log_level",
	"server_binary",
}

// Vendors reported as configured/unconfigured in the summary.
var summaryVendors = []string{"openai", "anthropic", "gemini"}

type getConfigTool struct {
	manager server.Manager
}

func (t *getConfigTool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        "get_config",
		Description: "Read the managed server configuration. With a key, returns that entry (sensitive values are redacted); without a key, returns a summary of non-sensitive settings.",
		Parameters: objectSchema(map[string]any{
			"key": stringProperty("Configuration key to read. Omit for a full summary."),
		}),
	}
}

func (t *getConfigTool) Execute(ctx context.Context, args json.RawMessage) (Result, error) {
	var params struct {
		Key string `json:"key"`
	}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &params); err != nil {
			return FailureResultf("invalid arguments: %v", err), nil
		}
	}

	if params.Key == "" {
		return t.summary(), nil
	}

	value, err := t.manager.GetConfig(params.Key)
	if err != nil {
		if errors.Is(err, server.ErrKeyNotFound) {
			return FailureResultf("config key %q is not set", params.Key), nil
		}
		return Result{}, err
	}
	return SuccessResult(map[string]any{
		"key":   params.Key,
		"value": redact.Display(params.Key, value),
	}), nil
}

// summary builds the bounded configuration view safe to hand a model.
func (t *getConfigTool) summary() Result {
	all := t.manager.ListConfig()

	settings := make(map[string]any)
	for _, key := range summaryAllowList {
		if value, ok := all[key]; ok && value != "" {
			settings[key] = value
		}
	}

	providers := make(map[string]any)
	for _, vendor := range summaryVendors {
		_, ok := all[vendor+"_api_key"]
		providers[vendor+"_configured"] = ok && all[vendor+"_api_key"] != ""
	}

	keys := make([]string, 0, len(all))
	for key := range all {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return SuccessResult(map[string]any{
		"settings":  settings,
		"providers": providers,
		"keys":      keys,
	})
}

type setConfigTool struct {
	manager server.Manager
}

func (t *setConfigTool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        "set_config",
		Description: "Write one managed server configuration key. The change persists immediately; a running server must be restarted to pick it up.",
		Parameters: objectSchema(map[string]any{
			"key":   stringProperty("Configuration key to write."),
			"value": stringProperty("New value for the key."),
		}, "key", "value"),
	}
}

func (t *setConfigTool) Execute(ctx context.Context, args json.RawMessage) (Result, error) {
	var params struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return FailureResultf("invalid arguments: %v", err), nil
	}
	if strings.TrimSpace(params.Key) == "" {
		return FailureResult("key must not be empty"), nil
	}

	if err := t.manager.SetConfig(params.Key, params.Value); err != nil {
		return Result{}, err
	}

	// Echo the stored value back through the redaction policy so a
	// just-written secret never round-trips to the model.
	return Result{
		Success: true,
		Message: fmt.Sprintf("set %s to %s", params.Key, redact.Display(params.Key, params.Value)),
	}, nil
}
