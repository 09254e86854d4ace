package agent

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/sudoCommit/alumnium/internal/llm"
)

// RetrievedInformation is the retriever's structured output.
type RetrievedInformation struct {
	Explanation string `json:"explanation"`
	Value       string `json:"value"`
}

var retrievedSchema = llm.MustStructuredSchema(
	"RetrievedInformation",
	"Retrieved information.",
	`{
		"type": "object",
		"properties": {
			"explanation": {
				"type": "string",
				"description": "Explanation how information was retrieved and why it's related to the requested information. Always include the requested information and its value in the explanation."
			},
			"value": {
				"type": "string",
				"description": "The precise retrieved information value without additional data. If the information is not present in context, reply NOOP."
			}
		},
		"required": ["explanation", "value"]
	}`,
)

// Retriever answers information requests against the current screen. The
// result is a single string or, when the model separates values, a list.
type Retriever struct {
	base
}

// NewRetriever builds the retriever.
func NewRetriever(handle *llm.Handle, promptDir string) (*Retriever, error) {
	b, err := newBase("retriever", handle, promptDir)
	if err != nil {
		return nil, err
	}
	return &Retriever{base: b}, nil
}

// Invoke retrieves the requested information. With a screenshot the image
// is attached as a separate modality and the tree text is omitted from the
// prompt body.
func (r *Retriever) Invoke(ctx context.Context, information, accessibilityTreeXML, title, url, screenshot string) (string, any, error) {
	r.log.Info().Str("information", information).Msg("starting retrieval")
	r.log.Debug().Str("accessibility_tree", accessibilityTreeXML).Str("title", title).Str("url", url).Send()

	var prompt strings.Builder
	if screenshot == "" {
		prompt.WriteString(render(r.prompts["user_text"], map[string]string{
			"accessibility_tree": accessibilityTreeXML,
			"title":              title,
			"url":                url,
		}))
	}
	prompt.WriteString("\nRetrieve the following information: ")
	prompt.WriteString(information)

	user := schema.UserMessage(prompt.String())
	if screenshot != "" {
		user = &schema.Message{
			Role: schema.User,
			MultiContent: []schema.ChatMessagePart{
				{Type: schema.ChatMessagePartTypeText, Text: prompt.String()},
				{
					Type: schema.ChatMessagePartTypeImageURL,
					ImageURL: &schema.ChatMessageImageURL{
						URL: "data:image/png;base64," + screenshot,
					},
				},
			},
		}
	}

	req := llm.Request{
		Messages: []*schema.Message{
			schema.SystemMessage(render(r.prompts["system"], map[string]string{"separator": ListSeparator})),
			user,
		},
	}
	if !r.handle.Unstructured() {
		req.Schema = retrievedSchema
	}

	resp, err := r.invoke(ctx, req)
	if err != nil {
		return "", nil, err
	}

	explanation := ""
	rawValue := resp.Content
	if !r.handle.Unstructured() {
		var info RetrievedInformation
		if err := resp.DecodeStructured(&info); err != nil {
			return "", nil, err
		}
		explanation = info.Explanation
		rawValue = info.Value
	}

	value := normalizeSeparators(rawValue)
	r.log.Info().Str("value", value).Any("usage", resp.Usage).Msg("retrieved")

	if strings.Contains(value, ListSeparator) {
		return explanation, splitSeparated(value), nil
	}
	return explanation, value, nil
}
