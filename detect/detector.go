// Backend detection.
//
// Probes a fixed, ordered list of candidate backends: the three
// well-known local inference servers, a user-supplied custom endpoint,
// the cloud vendors (gated on credential presence), and the managed
// companion server. A probe failure is an absence signal, never an
// error.

package detect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"minder/config"
	"minder/server"
)

// Probe timeouts. Local servers answer fast or not at all; the custom
// endpoint may be remote.
const (
	localProbeTimeout  = 1 * time.Second
	remoteProbeTimeout = 5 * time.Second
)

// Vendor model catalogs offered when only a credential is known.
var (
	openaiModels    = []string{"gpt-4o", "gpt-4o-mini", "gpt-4.1"}
	anthropicModels = []string{"claude-sonnet-4-20250514", "claude-3-5-haiku-20241022"}
	geminiModels    = []string{"gemini-2.5-flash", "gemini-2.5-pro"}
)

// Detector probes candidate backends. The zero value is not usable;
// create one with New.
type Detector struct {
	settings config.Settings
	manager  server.Manager // May be nil when no managed server exists.
	out      io.Writer      // Progress lines; io.Discard silences them.
}

// New creates a detector. Progress lines are written to out as probing
// proceeds; they are observational only.
func New(settings config.Settings, manager server.Manager, out io.Writer) *Detector {
	if out == nil {
		out = io.Discard
	}
	return &Detector{settings: settings, manager: manager, out: out}
}

// DetectAll probes every candidate in fixed priority order and returns
// a freshly constructed slice of reachable backends, ordered by
// ascending priority. Unreachable candidates are simply absent.
func (d *Detector) DetectAll(ctx context.Context) []Descriptor {
	endpoints := d.settings.Endpoints
	var found []Descriptor

	locals := []struct {
		name     string
		kind     Kind
		baseURL  string
		priority int
	}{
		{"Ollama", KindOllama, endpoints.OllamaURL, 1},
		{"LM Studio", KindLMStudio, endpoints.LMStudioURL, 2},
		{"llama.cpp", KindLlamaCpp, endpoints.LlamaCppURL, 3},
	}
	for _, candidate := range locals {
		fmt.Fprintf(d.out, "Probing %s at %s...\n", candidate.name, candidate.baseURL)
		models, ok := probeModels(ctx, candidate.baseURL, localProbeTimeout)
		if !ok {
			fmt.Fprintf(d.out, "  not detected\n")
			continue
		}
		fmt.Fprintf(d.out, "  found (%d models)\n", len(models))
		found = append(found, Descriptor{
			Name:         candidate.name,
			Kind:         candidate.kind,
			BaseURL:      candidate.baseURL,
			Models:       models,
			DefaultModel: firstOr(models, "default"),
			Free:         true,
			Local:        true,
			Priority:     candidate.priority,
		})
	}

	if endpoints.CustomURL != "" {
		fmt.Fprintf(d.out, "Probing custom endpoint at %s...\n", endpoints.CustomURL)
		models, ok := probeModels(ctx, endpoints.CustomURL, remoteProbeTimeout)
		if !ok {
			fmt.Fprintf(d.out, "  not detected\n")
		} else {
			fmt.Fprintf(d.out, "  found\n")
			defaultModel := endpoints.CustomModel
			if len(models) > 0 && defaultModel == "default" {
				defaultModel = models[0]
			}
			found = append(found, Descriptor{
				Name:         "Custom endpoint",
				Kind:         KindCustom,
				BaseURL:      endpoints.CustomURL,
				APIKey:       endpoints.CustomKey,
				Models:       models,
				DefaultModel: defaultModel,
				Priority:     4,
			})
		}
	}

	cloudVendors := []struct {
		name     string
		kind     Kind
		vendor   string
		models   []string
		model    string
		priority int
	}{
		{"OpenAI", KindOpenAI, "openai", openaiModels, endpoints.OpenAIModel, 5},
		{"Anthropic", KindAnthropic, "anthropic", anthropicModels, endpoints.AnthropicModel, 6},
		{"Google Gemini", KindGemini, "gemini", geminiModels, endpoints.GeminiModel, 7},
	}
	for _, candidate := range cloudVendors {
		key := config.APIKeyFor(candidate.vendor)
		if key == "" {
			fmt.Fprintf(d.out, "%s: no credential in environment\n", candidate.name)
			continue
		}
		fmt.Fprintf(d.out, "%s: credential present\n", candidate.name)
		found = append(found, Descriptor{
			Name:         candidate.name,
			Kind:         candidate.kind,
			APIKey:       key,
			Models:       candidate.models,
			DefaultModel: candidate.model,
			Priority:     candidate.priority,
		})
	}

	if d.manager != nil && d.manager.IsRunning() {
		baseURL := managedBaseURL(d.manager)
		fmt.Fprintf(d.out, "Probing managed server at %s...\n", baseURL)
		if models, ok := probeModels(ctx, baseURL, localProbeTimeout); ok {
			fmt.Fprintf(d.out, "  found\n")
			found = append(found, Descriptor{
				Name:         "Managed server",
				Kind:         KindManaged,
				BaseURL:      baseURL,
				Models:       models,
				DefaultModel: firstOr(models, "default"),
				Free:         true,
				Local:        true,
				Priority:     8,
			})
		} else {
			fmt.Fprintf(d.out, "  not detected\n")
		}
	}

	return found
}

// Best returns the reachable backend with the lowest priority number,
// or nil when none were detected. Pure selection over already-detected
// results; no new probes.
func Best(found []Descriptor) *Descriptor {
	var best *Descriptor
	for i := range found {
		if best == nil || found[i].Priority < best.Priority {
			best = &found[i]
		}
	}
	return best
}

// probeModels issues GET {base}/models and returns the advertised model
// ids. Any failure (timeout, refused connection, non-2xx, bad body)
// reports the candidate as absent.
func probeModels(ctx context.Context, baseURL string, timeout time.Duration) ([]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := strings.TrimSuffix(baseURL, "/") + "/models"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, false
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, false
	}

	var parsed struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		// Reachable but not a models listing; still counts as present.
		return nil, true
	}
	models := make([]string, 0, len(parsed.Data))
	for _, m := range parsed.Data {
		if m.ID != "" {
			models = append(models, m.ID)
		}
	}
	return models, true
}

func managedBaseURL(m server.Manager) string {
	type addresser interface{ BaseURL() string }
	if a, ok := m.(addresser); ok {
		return a.BaseURL()
	}
	return "http://127.0.0.1:8080/v1"
}

func firstOr(values []string, fallback string) string {
	if len(values) > 0 {
		return values[0]
	}
	return fallback
}
