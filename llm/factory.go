// Provider factory.
//
// Maps a detected endpoint onto one of the three backend families. The
// mapping is a closed switch evaluated once at session start; after
// that, all per-event behavior lives inside the selected provider.

package llm

import (
	"fmt"

	"minder/config"
	"minder/detect"
)

// NewProvider creates the provider for a detected backend.
func NewProvider(desc detect.Descriptor, settings config.Settings) (Provider, error) {
	maxTokens := settings.LLM.MaxTokens
	temperature := float32(settings.LLM.Temperature)

	switch desc.Kind {
	case detect.KindOpenAI:
		return NewOpenAIProvider(desc.APIKey, desc.DefaultModel, maxTokens, temperature), nil
	case detect.KindOllama, detect.KindLMStudio, detect.KindLlamaCpp, detect.KindCustom, detect.KindManaged:
		return NewOpenAICompatProvider(string(desc.Kind), desc.BaseURL, desc.APIKey, desc.DefaultModel, maxTokens, temperature), nil
	case detect.KindAnthropic:
		return NewAnthropicProvider(desc.APIKey, desc.DefaultModel, maxTokens, temperature), nil
	case detect.KindGemini:
		return NewGeminiProvider(desc.APIKey, desc.DefaultModel, maxTokens, temperature), nil
	default:
		return nil, fmt.Errorf("unknown backend kind: %q", desc.Kind)
	}
}
