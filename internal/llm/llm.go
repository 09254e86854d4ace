// Package llm normalizes chat, tool-calling and structured-output calls
// across providers into a single response shape, built on the Eino chat
// model abstraction. Each session owns one Handle binding a chat model, the
// session cache and the retry policy.
package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"github.com/sudoCommit/alumnium/internal/cache"
	"github.com/sudoCommit/alumnium/internal/logging"
	"github.com/sudoCommit/alumnium/pkg/types"
)

// Request is a single adapter invocation.
type Request struct {
	Messages []*schema.Message
	// Tools are bound for tool-calling calls (the actor).
	Tools []*schema.ToolInfo
	// Schema requests structured output. Ignored for providers in the
	// unstructured set.
	Schema *StructuredSchema
}

// Response is the provider-independent response shape.
type Response struct {
	// Content is the plain text answer.
	Content string `json:"content"`
	// Reasoning is the provider-exposed chain of thought, when any.
	Reasoning string `json:"reasoning,omitempty"`
	// Structured is the schema-validated structured output as raw JSON
	// (see DecodeStructured), nil when not requested or when the provider
	// runs unstructured.
	Structured json.RawMessage `json:"structured,omitempty"`
	// ToolCalls are the actions the model requested.
	ToolCalls []types.ToolCall `json:"tool_calls,omitempty"`
	// Usage is this call's token consumption.
	Usage types.TokenUsage `json:"usage"`
	// Cached reports that the response was served from the cache and its
	// usage must not count toward agent totals.
	Cached bool `json:"-"`
}

// DecodeStructured unmarshals the structured payload into v.
func (r *Response) DecodeStructured(v any) error {
	if r.Structured == nil {
		return fmt.Errorf("response has no structured output")
	}
	return json.Unmarshal(r.Structured, v)
}

// Providers that cannot bind an output schema; callers parse separator-
// delimited text instead.
var unstructuredProviders = map[types.Provider]bool{
	types.ProviderOllama: true,
}

// Handle is a session's entry point to its model. All agents of a session
// share one Handle and therefore one cache.
type Handle struct {
	model     model.ToolCallingChatModel
	modelSpec types.Model
	cache     *cache.Cache
	log       zerolog.Logger
}

// NewHandle binds a chat model to a session cache.
func NewHandle(chatModel model.ToolCallingChatModel, modelSpec types.Model, c *cache.Cache) *Handle {
	return &Handle{
		model:     chatModel,
		modelSpec: modelSpec,
		cache:     c,
		log:       logging.Component("llm").With().Str("model", modelSpec.String()).Logger(),
	}
}

// Model returns the model the handle speaks to.
func (h *Handle) Model() types.Model {
	return h.modelSpec
}

// Unstructured reports whether the handle's provider runs without schema
// binding (Mode B).
func (h *Handle) Unstructured() bool {
	return unstructuredProviders[h.modelSpec.Provider]
}

// Invoke performs one model call: cache lookup, structured-output binding,
// bounded retry, response normalization, cache fill.
func (h *Handle) Invoke(ctx context.Context, req Request) (*Response, error) {
	key := h.cacheKey(req)
	if entry, ok := h.cache.Get(key); ok {
		var resp Response
		if err := json.Unmarshal(entry.Payload, &resp); err == nil {
			resp.Cached = true
			h.log.Debug().Str("key", key[:12]).Msg("cache hit")
			return &resp, nil
		}
	}

	chatModel := h.model
	tools := req.Tools
	if req.Schema != nil && !h.Unstructured() {
		tools = append(append([]*schema.ToolInfo(nil), tools...), req.Schema.toolInfo())
	}
	if len(tools) > 0 {
		var err error
		chatModel, err = chatModel.WithTools(tools)
		if err != nil {
			return nil, fmt.Errorf("failed to bind tools: %w", err)
		}
	}

	msg, err := generateWithRetry(ctx, chatModel, req.Messages)
	if err != nil {
		return nil, err
	}

	resp, err := h.normalize(msg, req.Schema)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(resp); err == nil {
		h.cache.Put(key, cache.Entry{Payload: payload, Usage: resp.Usage})
	}
	return resp, nil
}

func (h *Handle) cacheKey(req Request) string {
	toolNames := make([]string, 0, len(req.Tools))
	for _, t := range req.Tools {
		toolNames = append(toolNames, t.Name+"\n"+t.Desc)
	}
	var schemaRaw json.RawMessage
	if req.Schema != nil {
		schemaRaw = req.Schema.Raw
	}
	return cache.Key(req.Messages, toolNames, schemaRaw, h.modelSpec.Provider, h.modelSpec.Name)
}

// normalize translates an Eino message into the adapter response shape and
// extracts structured output when a schema was bound.
func (h *Handle) normalize(msg *schema.Message, structured *StructuredSchema) (*Response, error) {
	resp := &Response{
		Content:   msg.Content,
		Reasoning: msg.ReasoningContent,
	}

	if msg.ResponseMeta != nil && msg.ResponseMeta.Usage != nil {
		resp.Usage = types.TokenUsage{
			InputTokens:  msg.ResponseMeta.Usage.PromptTokens,
			OutputTokens: msg.ResponseMeta.Usage.CompletionTokens,
			TotalTokens:  msg.ResponseMeta.Usage.TotalTokens,
		}
	}

	for _, call := range msg.ToolCalls {
		if structured != nil && call.Function.Name == structured.Name {
			payload, err := structured.validate([]byte(call.Function.Arguments))
			if err != nil {
				return nil, fmt.Errorf("structured output rejected: %w", err)
			}
			resp.Structured = payload
			continue
		}
		args := make(map[string]any)
		if call.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("malformed tool call arguments for %s: %w", call.Function.Name, err)
			}
		}
		resp.ToolCalls = append(resp.ToolCalls, types.ToolCall{
			Tool: call.Function.Name,
			Args: args,
		})
	}

	// Some models answer the schema inline instead of calling the bound
	// tool; accept the content when it validates.
	if structured != nil && resp.Structured == nil && !h.Unstructured() {
		if payload, err := structured.validate([]byte(msg.Content)); err == nil {
			resp.Structured = payload
		} else {
			return nil, fmt.Errorf("model returned no structured output: %w", err)
		}
	}

	return resp, nil
}
