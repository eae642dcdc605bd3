// Package cli implements the command surfaces: the chat REPL, backend
// detection, and the managed-server commands.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"minder/chat"
	"minder/config"
	"minder/detect"
	"minder/llm"
	"minder/server"
	"minder/tools"
)

// Options carries the global CLI flags.
type Options struct {
	Model   string
	Verbose bool
}

const systemPrompt = `You are minder, an assistant that helps the user run and configure a local LLM inference server.

You can read and change the server configuration, start and stop the server, read its logs, and search the bundled documentation. Use the tools for anything that touches the server; never guess at configuration values. Secrets in tool output are already masked; do not try to recover them.

Keep answers short and concrete.`

// noBackendMessage enumerates every way the operator can make a
// backend available.
func noBackendMessage() string {
	return fmt.Sprintf(`No usable model backend was found. You can:
  - start Ollama (http://127.0.0.1:11434)
  - start LM Studio's local server (http://127.0.0.1:1234)
  - start a llama.cpp server (http://127.0.0.1:8080)
  - point CUSTOM_ENDPOINT_URL at any OpenAI-compatible endpoint
  - set %s, %s, or %s
  - run 'minder start' to launch the managed server`,
		config.APIKeyEnvFor("openai"),
		config.APIKeyEnvFor("anthropic"),
		config.APIKeyEnvFor("gemini"))
}

// newManager builds the managed-server collaborator rooted at the
// user's config directory.
func newManager() (*server.LocalManager, error) {
	dir, err := server.DefaultDir()
	if err != nil {
		return nil, err
	}
	return server.NewLocalManager(dir)
}

// pickBackend runs detection and returns the best available backend.
func pickBackend(ctx context.Context, settings config.Settings, manager server.Manager, out io.Writer) (*detect.Descriptor, error) {
	detector := detect.New(settings, manager, out)
	found := detector.DetectAll(ctx)
	best := detect.Best(found)
	if best == nil {
		return nil, fmt.Errorf("%s", noBackendMessage())
	}
	return best, nil
}

// Chat runs the interactive REPL against the best detected backend.
func Chat(ctx context.Context, opts Options) error {
	settings, err := config.New()
	if err != nil {
		return err
	}

	manager, err := newManager()
	if err != nil {
		return err
	}

	progress := io.Discard
	if opts.Verbose {
		progress = os.Stderr
	}
	backend, err := pickBackend(ctx, settings, manager, progress)
	if err != nil {
		return err
	}
	if opts.Model != "" {
		backend.DefaultModel = opts.Model
	}

	provider, err := llm.NewProvider(*backend, settings)
	if err != nil {
		return err
	}

	registry, err := tools.NewDefaultRegistry(manager)
	if err != nil {
		return err
	}
	if opts.Verbose {
		fmt.Fprintf(os.Stderr, "Tools: %s\n", strings.Join(registry.Names(), ", "))
	}

	hooks := chat.Hooks{
		OnText: func(delta string) { fmt.Print(delta) },
		OnToolCall: func(call llm.ToolCall) {
			fmt.Printf("\n[%s %s]\n", call.Name, call.Arguments)
		},
		OnToolResult: func(call llm.ToolCall, result tools.Result) {
			if opts.Verbose {
				fmt.Printf("[%s -> %s]\n", call.Name, result.JSON())
				return
			}
			outcome := "ok"
			if !result.Success {
				outcome = "failed"
			}
			line := fmt.Sprintf("[%s %s", call.Name, outcome)
			if result.Message != "" {
				line += ": " + result.Message
			}
			line += "]"
			fmt.Println(line)
			if result.Note != "" {
				fmt.Printf("[hint: %s]\n", result.Note)
			}
		},
	}

	session := chat.NewSession(provider, registry, systemPrompt, settings.Chat.MaxModelTurns, hooks)

	fmt.Printf("Chatting via %s (%s). Type 'exit' to quit.\n\n", backend.Name, provider.Model())

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			break
		}

		if _, err := session.Respond(ctx, input); err != nil {
			fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
			if hint := tools.RemediationHint(err.Error()); hint != "" {
				fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
			}
			fmt.Fprintln(os.Stderr)
			continue
		}
		fmt.Print("\n\n")
	}

	return scanner.Err()
}

// Detect probes all candidate backends and prints what was found.
func Detect(ctx context.Context) error {
	settings, err := config.New()
	if err != nil {
		return err
	}

	manager, err := newManager()
	if err != nil {
		return err
	}

	detector := detect.New(settings, manager, os.Stdout)
	found := detector.DetectAll(ctx)
	if len(found) == 0 {
		fmt.Println()
		fmt.Println(noBackendMessage())
		return nil
	}

	fmt.Println()
	for _, desc := range found {
		line := fmt.Sprintf("%d. %s (model: %s", desc.Priority, desc.Name, desc.DefaultModel)
		if desc.Local {
			line += ", local"
		}
		if desc.Free {
			line += ", free"
		}
		line += ")"
		fmt.Println(line)
	}

	best := detect.Best(found)
	fmt.Printf("\nSelected: %s\n", best.Name)
	return nil
}
