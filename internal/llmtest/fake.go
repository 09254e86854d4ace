// Package llmtest provides a fake Eino chat model for agent, session and
// handler tests. No network, deterministic responses.
package llmtest

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// FakeChatModel implements model.ToolCallingChatModel. Responses are served
// from a queue; when the queue runs dry the last response repeats. Errors
// are served before responses, one per call.
type FakeChatModel struct {
	mu        sync.Mutex
	responses []*schema.Message
	errs      []error

	// Calls records the message lists of every Generate invocation.
	Calls [][]*schema.Message
	// BoundTools records the last WithTools binding.
	BoundTools []*schema.ToolInfo
}

// New creates a fake that answers with the given responses in order.
func New(responses ...*schema.Message) *FakeChatModel {
	return &FakeChatModel{responses: responses}
}

// FailWith queues errors returned before any response is served.
func (f *FakeChatModel) FailWith(errs ...error) *FakeChatModel {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, errs...)
	return f
}

// Enqueue appends responses to the queue.
func (f *FakeChatModel) Enqueue(responses ...*schema.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, responses...)
}

// CallCount returns the number of Generate invocations.
func (f *FakeChatModel) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

// Generate serves the next queued error or response.
func (f *FakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, input)

	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}

	if len(f.responses) == 0 {
		return Text("", 0, 0), nil
	}
	msg := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return msg, nil
}

// Stream wraps Generate in a single-message stream.
func (f *FakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// WithTools records the binding and returns the same fake so call history
// stays observable.
func (f *FakeChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.BoundTools = tools
	return f, nil
}

// Text builds an assistant text message with usage.
func Text(content string, inputTokens, outputTokens int) *schema.Message {
	return &schema.Message{
		Role:    schema.Assistant,
		Content: content,
		ResponseMeta: &schema.ResponseMeta{
			Usage: &schema.TokenUsage{
				PromptTokens:     inputTokens,
				CompletionTokens: outputTokens,
				TotalTokens:      inputTokens + outputTokens,
			},
		},
	}
}

// Structured builds an assistant message answering a structured-output
// binding by calling the schema tool with the given JSON arguments.
func Structured(schemaName, argsJSON string, inputTokens, outputTokens int) *schema.Message {
	msg := Text("", inputTokens, outputTokens)
	msg.ToolCalls = []schema.ToolCall{{
		ID:       "call_1",
		Function: schema.FunctionCall{Name: schemaName, Arguments: argsJSON},
	}}
	return msg
}

// ToolCalls builds an assistant message carrying real tool calls.
func ToolCalls(inputTokens, outputTokens int, calls ...schema.ToolCall) *schema.Message {
	msg := Text("", inputTokens, outputTokens)
	msg.ToolCalls = calls
	return msg
}
