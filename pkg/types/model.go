// Package types defines the wire-level types shared between the server,
// its clients, and the LLM adapter.
package types

import (
	"fmt"
	"strings"
)

// Provider identifies an LLM provider.
type Provider string

// Supported providers.
const (
	ProviderAnthropic    Provider = "anthropic"
	ProviderAWSAnthropic Provider = "aws_anthropic"
	ProviderOpenAI       Provider = "openai"
	ProviderAzureOpenAI  Provider = "azure_openai"
	ProviderGoogle       Provider = "google"
	ProviderDeepSeek     Provider = "deepseek"
	ProviderAWSMeta      Provider = "aws_meta"
	ProviderMistralAI    Provider = "mistralai"
	ProviderOllama       Provider = "ollama"
	ProviderXAI          Provider = "xai"
)

var providers = map[Provider]bool{
	ProviderAnthropic:    true,
	ProviderAWSAnthropic: true,
	ProviderOpenAI:       true,
	ProviderAzureOpenAI:  true,
	ProviderGoogle:       true,
	ProviderDeepSeek:     true,
	ProviderAWSMeta:      true,
	ProviderMistralAI:    true,
	ProviderOllama:       true,
	ProviderXAI:          true,
}

// ParseProvider parses a provider tag (case-insensitive).
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	if !providers[p] {
		return "", fmt.Errorf("unknown provider: %q", s)
	}
	return p, nil
}

// defaultModelNames maps each provider to the model used when a session
// does not name one explicitly.
var defaultModelNames = map[Provider]string{
	ProviderAnthropic:    "claude-sonnet-4-20250514",
	ProviderAWSAnthropic: "anthropic.claude-sonnet-4-20250514-v1:0",
	ProviderOpenAI:       "gpt-4o-mini",
	ProviderAzureOpenAI:  "gpt-4o-mini",
	ProviderGoogle:       "gemini-2.0-flash",
	ProviderDeepSeek:     "deepseek-chat",
	ProviderAWSMeta:      "us.meta.llama3-3-70b-instruct-v1:0",
	ProviderMistralAI:    "mistral-small-latest",
	ProviderOllama:       "mistral-small3.1",
	ProviderXAI:          "grok-3-mini",
}

// Model is a (provider, name) pair.
type Model struct {
	Provider Provider `json:"provider"`
	Name     string   `json:"name"`
}

// NewModel builds a Model, substituting the provider default when name is
// empty.
func NewModel(provider Provider, name string) Model {
	if name == "" {
		name = defaultModelNames[provider]
	}
	return Model{Provider: provider, Name: name}
}

// ParseModel parses "provider" or "provider/name".
func ParseModel(s string) (Model, error) {
	providerPart, name, _ := strings.Cut(s, "/")
	provider, err := ParseProvider(providerPart)
	if err != nil {
		return Model{}, err
	}
	return NewModel(provider, name), nil
}

func (m Model) String() string {
	return string(m.Provider) + "/" + m.Name
}

// Platform identifies the UI driver family a session targets.
type Platform string

// Supported platforms.
const (
	PlatformChromium     Platform = "chromium"
	PlatformXCUITest     Platform = "xcuitest"
	PlatformUIAutomator2 Platform = "uiautomator2"
)

// ParsePlatform parses a platform tag.
func ParsePlatform(s string) (Platform, error) {
	switch p := Platform(strings.ToLower(strings.TrimSpace(s))); p {
	case PlatformChromium, PlatformXCUITest, PlatformUIAutomator2:
		return p, nil
	default:
		return "", fmt.Errorf("unknown platform: %q", s)
	}
}
