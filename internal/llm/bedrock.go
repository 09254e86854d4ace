package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// bedrockRuntime is the subset of *bedrockruntime.Client the chat model
// needs, so any implementation of Converse can stand in for the client.
type bedrockRuntime interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// bedrockChatModel adapts the AWS Bedrock Converse API to the Eino chat
// model interface. It carries the non-Anthropic Bedrock families (Meta
// Llama); Anthropic-on-Bedrock goes through the Claude component instead.
type bedrockChatModel struct {
	runtime bedrockRuntime
	modelID string
	tools   []*schema.ToolInfo
}

func newBedrockChatModel(runtime bedrockRuntime, modelID string) *bedrockChatModel {
	return &bedrockChatModel{runtime: runtime, modelID: modelID}
}

// WithTools returns a copy bound to the given tools.
func (m *bedrockChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return &bedrockChatModel{runtime: m.runtime, modelID: m.modelID, tools: tools}, nil
}

// Generate performs one Converse round trip.
func (m *bedrockChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	converseInput, err := m.buildInput(input)
	if err != nil {
		return nil, err
	}
	output, err := m.runtime.Converse(ctx, converseInput)
	if err != nil {
		return nil, fmt.Errorf("bedrock converse: %w", err)
	}
	return translateConverseOutput(output)
}

// Stream satisfies the chat model interface by wrapping the non-streaming
// response; the adapter only consumes complete messages.
func (m *bedrockChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *bedrockChatModel) buildInput(messages []*schema.Message) (*bedrockruntime.ConverseInput, error) {
	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(m.modelID),
	}

	for _, msg := range messages {
		switch msg.Role {
		case schema.System:
			input.System = append(input.System, &brtypes.SystemContentBlockMemberText{Value: msg.Content})
		case schema.User, schema.Assistant:
			role := brtypes.ConversationRoleUser
			if msg.Role == schema.Assistant {
				role = brtypes.ConversationRoleAssistant
			}
			content := msg.Content
			if content == "" && len(msg.MultiContent) > 0 {
				for _, part := range msg.MultiContent {
					if part.Type == schema.ChatMessagePartTypeText {
						content += part.Text
					}
				}
			}
			input.Messages = append(input.Messages, brtypes.Message{
				Role:    role,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: content}},
			})
		default:
			return nil, fmt.Errorf("unsupported message role for bedrock: %s", msg.Role)
		}
	}

	if len(m.tools) > 0 {
		toolConfig := &brtypes.ToolConfiguration{}
		for _, t := range m.tools {
			spec, err := toolSpecification(t)
			if err != nil {
				return nil, err
			}
			toolConfig.Tools = append(toolConfig.Tools, spec)
		}
		input.ToolConfig = toolConfig
	}
	return input, nil
}

func toolSpecification(t *schema.ToolInfo) (brtypes.Tool, error) {
	openAPISchema, err := t.ParamsOneOf.ToOpenAPIV3()
	if err != nil {
		return nil, fmt.Errorf("tool %s: %w", t.Name, err)
	}
	encoded, err := json.Marshal(openAPISchema)
	if err != nil {
		return nil, fmt.Errorf("tool %s: %w", t.Name, err)
	}
	var params map[string]any
	if err := json.Unmarshal(encoded, &params); err != nil {
		return nil, fmt.Errorf("tool %s: %w", t.Name, err)
	}

	return &brtypes.ToolMemberToolSpec{
		Value: brtypes.ToolSpecification{
			Name:        aws.String(t.Name),
			Description: aws.String(t.Desc),
			InputSchema: &brtypes.ToolInputSchemaMemberJson{
				Value: document.NewLazyDocument(params),
			},
		},
	}, nil
}

func translateConverseOutput(output *bedrockruntime.ConverseOutput) (*schema.Message, error) {
	msg := &schema.Message{Role: schema.Assistant}

	outMsg, ok := output.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return nil, fmt.Errorf("bedrock converse: unexpected output type %T", output.Output)
	}

	for _, block := range outMsg.Value.Content {
		switch b := block.(type) {
		case *brtypes.ContentBlockMemberText:
			msg.Content += b.Value
		case *brtypes.ContentBlockMemberReasoningContent:
			if reasoning, ok := b.Value.(*brtypes.ReasoningContentBlockMemberReasoningText); ok {
				msg.ReasoningContent += aws.ToString(reasoning.Value.Text)
			}
		case *brtypes.ContentBlockMemberToolUse:
			args, err := b.Value.Input.MarshalSmithyDocument()
			if err != nil {
				return nil, fmt.Errorf("bedrock converse: tool input: %w", err)
			}
			msg.ToolCalls = append(msg.ToolCalls, schema.ToolCall{
				ID: aws.ToString(b.Value.ToolUseId),
				Function: schema.FunctionCall{
					Name:      aws.ToString(b.Value.Name),
					Arguments: string(args),
				},
			})
		}
	}

	if output.Usage != nil {
		msg.ResponseMeta = &schema.ResponseMeta{
			Usage: &schema.TokenUsage{
				PromptTokens:     int(aws.ToInt32(output.Usage.InputTokens)),
				CompletionTokens: int(aws.ToInt32(output.Usage.OutputTokens)),
				TotalTokens:      int(aws.ToInt32(output.Usage.TotalTokens)),
			},
		}
	}
	return msg, nil
}
