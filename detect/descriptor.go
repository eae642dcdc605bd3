// Package detect probes candidate LLM backends and ranks the reachable ones.
package detect

// Kind identifies a backend type.
type Kind string

const (
	KindOllama    Kind = "ollama"
	KindLMStudio  Kind = "lmstudio"
	KindLlamaCpp  Kind = "llamacpp"
	KindCustom    Kind = "custom"
	KindOpenAI    Kind = "openai"
	KindAnthropic Kind = "anthropic"
	KindGemini    Kind = "gemini"
	KindManaged   Kind = "managed"
)

// Descriptor describes one reachable backend. Immutable once
// constructed; a new detection pass builds fresh descriptors.
type Descriptor struct {
	Name         string
	Kind         Kind
	BaseURL      string
	APIKey       string
	Models       []string
	DefaultModel string
	Free         bool
	Local        bool
	Priority     int // Lower is preferred.
}
