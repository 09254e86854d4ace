// Package agent implements the six specialized agents: planner, actor,
// retriever, area, locator and changes analyzer. Each is a prompt template
// plus a structured-output binding invoked through the session's LLM
// handle.
package agent

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/sudoCommit/alumnium/internal/llm"
	"github.com/sudoCommit/alumnium/internal/logging"
	"github.com/sudoCommit/alumnium/pkg/types"
)

// ListSeparator delimits multi-value outputs in unstructured mode.
const ListSeparator = "<SEP>"

//go:embed prompts
var promptFS embed.FS

// Prompt directory per provider; both Anthropic flavors share one set.
// Providers without an entry use the openai prompts.
var providerPromptDirs = map[types.Provider]string{
	types.ProviderAnthropic:    "anthropic",
	types.ProviderAWSAnthropic: "anthropic",
	types.ProviderGoogle:       "google",
	types.ProviderDeepSeek:     "deepseek",
	types.ProviderAWSMeta:      "meta",
	types.ProviderMistralAI:    "mistralai",
	types.ProviderOllama:       "ollama",
	types.ProviderXAI:          "xai",
}

// base carries what all agents share: the LLM handle, loaded prompts and
// running token totals. Usage counters are guarded by the session lock, not
// internally.
type base struct {
	handle  *llm.Handle
	prompts map[string]string
	usage   types.TokenUsage
	log     zerolog.Logger
}

func newBase(kind string, handle *llm.Handle, promptDir string) (base, error) {
	prompts, err := loadPrompts(kind, handle.Model().Provider, promptDir)
	if err != nil {
		return base{}, err
	}
	return base{
		handle:  handle,
		prompts: prompts,
		log:     logging.Component(kind),
	}, nil
}

// loadPrompts reads every markdown file of the provider's prompt directory,
// falling back to the openai set when the provider has none. An override
// directory on disk takes precedence over the embedded prompts.
func loadPrompts(kind string, provider types.Provider, overrideDir string) (map[string]string, error) {
	dir := providerPromptDirs[provider]
	if dir == "" {
		dir = "openai"
	}

	if overrideDir != "" {
		if prompts, err := readPromptDir(os.DirFS(overrideDir), kind+"/"+dir); err == nil {
			return prompts, nil
		}
		if prompts, err := readPromptDir(os.DirFS(overrideDir), kind+"/openai"); err == nil {
			return prompts, nil
		}
	}

	if prompts, err := readPromptDir(promptFS, "prompts/"+kind+"/"+dir); err == nil {
		return prompts, nil
	}
	prompts, err := readPromptDir(promptFS, "prompts/"+kind+"/openai")
	if err != nil {
		return nil, fmt.Errorf("no prompts for agent %s: %w", kind, err)
	}
	return prompts, nil
}

func readPromptDir(fsys fs.FS, dir string) (map[string]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	prompts := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		data, err := fs.ReadFile(fsys, dir+"/"+entry.Name())
		if err != nil {
			return nil, err
		}
		prompts[strings.TrimSuffix(entry.Name(), ".md")] = string(data)
	}
	if len(prompts) == 0 {
		return nil, fmt.Errorf("empty prompt directory %s", dir)
	}
	return prompts, nil
}

// render substitutes {name} placeholders in a prompt template.
func render(template string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for key, value := range vars {
		pairs = append(pairs, "{"+key+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// invoke runs one model call and accumulates usage, skipping cache hits:
// a hit substitutes for a call, so it counts toward the cache tally only.
func (b *base) invoke(ctx context.Context, req llm.Request) (*llm.Response, error) {
	resp, err := b.handle.Invoke(ctx, req)
	if err != nil {
		return nil, err
	}
	if !resp.Cached {
		b.usage.Add(resp.Usage)
	}
	return resp, nil
}

// Usage returns the agent's running totals.
func (b *base) Usage() types.TokenUsage {
	return b.usage
}

// normalizeSeparators cleans up separator-delimited model output: stray
// leading/trailing separators are stripped and near-miss separators (the
// closing rune replaced by something else) are coerced. Applied to all
// unstructured-mode outputs, not just the models observed drifting.
func normalizeSeparators(s string) string {
	s = strings.TrimSpace(s)
	open := ListSeparator[:len(ListSeparator)-1]
	var out strings.Builder
	for i := 0; i < len(s); {
		if strings.HasPrefix(s[i:], open) && i+len(open) < len(s) {
			_, size := utf8.DecodeRuneInString(s[i+len(open):])
			out.WriteString(ListSeparator)
			i += len(open) + size
			continue
		}
		out.WriteByte(s[i])
		i++
	}
	s = out.String()
	s = strings.TrimPrefix(s, ListSeparator)
	s = strings.TrimSuffix(s, ListSeparator)
	return strings.TrimSpace(s)
}

// splitSeparated splits a separator-delimited value, dropping blanks.
func splitSeparated(s string) []string {
	parts := strings.Split(s, ListSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
