package agent

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/sudoCommit/alumnium/internal/llm"
)

// ChangesAnalyzer summarizes a structural tree diff into a single line.
type ChangesAnalyzer struct {
	base
}

// NewChangesAnalyzer builds the changes analyzer.
func NewChangesAnalyzer(handle *llm.Handle, promptDir string) (*ChangesAnalyzer, error) {
	b, err := newBase("changes_analyzer", handle, promptDir)
	if err != nil {
		return nil, err
	}
	return &ChangesAnalyzer{base: b}, nil
}

// Invoke describes what the diff changed on screen.
func (c *ChangesAnalyzer) Invoke(ctx context.Context, diff string) (string, error) {
	c.log.Info().Msg("starting changes analysis")
	c.log.Debug().Str("diff", diff).Send()

	resp, err := c.invoke(ctx, llm.Request{
		Messages: []*schema.Message{
			schema.SystemMessage(c.prompts["system"]),
			schema.UserMessage(render(c.prompts["user"], map[string]string{"diff": diff})),
		},
	})
	if err != nil {
		return "", err
	}

	result := strings.ReplaceAll(resp.Content, "\n\n", " ")
	c.log.Info().Str("result", result).Any("usage", resp.Usage).Msg("changes analyzed")
	return result, nil
}
