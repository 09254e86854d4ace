// Package session holds the per-client session state machine and the
// registry managing it.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/rs/zerolog"

	"github.com/sudoCommit/alumnium/internal/agent"
	"github.com/sudoCommit/alumnium/internal/axtree"
	"github.com/sudoCommit/alumnium/internal/cache"
	"github.com/sudoCommit/alumnium/internal/llm"
	"github.com/sudoCommit/alumnium/internal/logging"
	"github.com/sudoCommit/alumnium/pkg/types"
)

// Options configures session construction.
type Options struct {
	// PromptDir overrides the embedded agent prompts.
	PromptDir string
	// CacheStoreFor returns the cache backing store for a model; nil (or
	// a nil return) keeps the session cache memory-only.
	CacheStoreFor func(types.Model) cache.Store
	// ChatModel overrides provider construction, used by tests and
	// embedders supplying their own model.
	ChatModel model.ToolCallingChatModel
}

// Session owns one client's model, cache, agents and learned examples. All
// agents share the session's LLM handle and therefore its cache. Mutable
// state (usage counters, examples, cache) is serialized by mu: concurrent
// requests against one session are permitted but take turns.
type Session struct {
	ID             string
	Model          types.Model
	Platform       types.Platform
	PlannerEnabled bool

	mu    sync.Mutex
	cache *cache.Cache
	llm   *llm.Handle

	planner   *agent.Planner
	actor     *agent.Actor
	retriever *agent.Retriever
	area      *agent.AreaAgent
	locator   *agent.LocatorAgent
	changes   *agent.ChangesAnalyzer

	examples []types.Example

	log zerolog.Logger
}

// New constructs a session with all six agents wired to one LLM handle.
func New(ctx context.Context, id string, m types.Model, platform types.Platform, tools []types.ToolSchema, plannerEnabled bool, opts Options) (*Session, error) {
	chatModel := opts.ChatModel
	if chatModel == nil {
		var err error
		chatModel, err = llm.NewChatModel(ctx, m)
		if err != nil {
			return nil, fmt.Errorf("failed to create chat model: %w", err)
		}
	}

	var store cache.Store
	if opts.CacheStoreFor != nil {
		store = opts.CacheStoreFor(m)
	}
	c, err := cache.New(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	handle := llm.NewHandle(chatModel, m, c)

	s := &Session{
		ID:             id,
		Model:          m,
		Platform:       platform,
		PlannerEnabled: plannerEnabled,
		cache:          c,
		llm:            handle,
		log:            logging.Component("session").With().Str("session_id", id).Logger(),
	}

	if s.planner, err = agent.NewPlanner(handle, tools, opts.PromptDir); err != nil {
		return nil, err
	}
	if s.actor, err = agent.NewActor(handle, tools, opts.PromptDir); err != nil {
		return nil, err
	}
	if s.retriever, err = agent.NewRetriever(handle, opts.PromptDir); err != nil {
		return nil, err
	}
	if s.area, err = agent.NewAreaAgent(handle, opts.PromptDir); err != nil {
		return nil, err
	}
	if s.locator, err = agent.NewLocatorAgent(handle, opts.PromptDir); err != nil {
		return nil, err
	}
	if s.changes, err = agent.NewChangesAnalyzer(handle, opts.PromptDir); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("model", m.String()).
		Str("platform", string(platform)).
		Bool("planner", plannerEnabled).
		Msg("created session")
	return s, nil
}

// ProcessTree parses raw platform tree text for this session's platform.
// The returned tree is request-scoped.
func (s *Session) ProcessTree(raw string) (*axtree.Tree, error) {
	return axtree.New(s.Platform, raw)
}

// Plan outlines the steps for a goal. With the planner disabled the goal
// passes through as the single step without any LLM call.
func (s *Session) Plan(ctx context.Context, goal, rawTree string) (string, []string, error) {
	if !s.PlannerEnabled {
		return goal, []string{goal}, nil
	}

	tree, err := s.ProcessTree(rawTree)
	if err != nil {
		return "", nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.planner.Invoke(ctx, goal, tree.Render(), s.examples)
}

// ExecuteStep turns one step into driver-ready tool calls: the actor emits
// calls referencing opaque IDs, which are rewritten to raw IDs before they
// leave the server.
func (s *Session) ExecuteStep(ctx context.Context, goal, step, rawTree string) (string, []types.ToolCall, error) {
	tree, err := s.ProcessTree(rawTree)
	if err != nil {
		return "", nil, err
	}

	s.mu.Lock()
	explanation, actions, err := s.actor.Invoke(ctx, goal, step, tree.Render())
	s.mu.Unlock()
	if err != nil {
		return "", nil, err
	}
	return explanation, tree.MapToolCallsToRawID(actions), nil
}

// Retrieve answers an information request against the current screen.
func (s *Session) Retrieve(ctx context.Context, statement, rawTree, title, url, screenshot string) (string, any, error) {
	tree, err := s.ProcessTree(rawTree)
	if err != nil {
		return "", nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retriever.Invoke(ctx, statement, tree.Render(), title, url, screenshot)
}

// AreaResult is a located area with its raw driver ID.
type AreaResult struct {
	ID          any    `json:"id"`
	Explanation string `json:"explanation"`
}

// FindArea locates the subtree matching the description and resolves its
// raw driver ID.
func (s *Session) FindArea(ctx context.Context, description, rawTree string) (*AreaResult, error) {
	tree, err := s.ProcessTree(rawTree)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	area, err := s.area.Invoke(ctx, description, tree.Render())
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	rawID, err := tree.RawID(area.ID)
	if err != nil {
		return nil, err
	}
	return &AreaResult{ID: rawID, Explanation: area.Explanation}, nil
}

// ElementResult is a located element with its raw driver ID.
type ElementResult struct {
	ID          any    `json:"id"`
	Explanation string `json:"explanation"`
}

// FindElements locates elements matching the description, raw IDs resolved.
func (s *Session) FindElements(ctx context.Context, description, rawTree string) ([]ElementResult, error) {
	tree, err := s.ProcessTree(rawTree)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	located, err := s.locator.Invoke(ctx, description, tree.Render())
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	elements := make([]ElementResult, 0, len(located))
	for _, l := range located {
		rawID, err := tree.RawID(l.ID)
		if err != nil {
			return nil, err
		}
		elements = append(elements, ElementResult{ID: rawID, Explanation: l.Explanation})
	}
	return elements, nil
}

// ChangeState is one side of a before/after comparison.
type ChangeState struct {
	Tree string
	URL  string
}

// AnalyzeChanges diffs two screen states and produces a human summary. A
// URL-change sentence is prepended when both states carry URLs.
func (s *Session) AnalyzeChanges(ctx context.Context, before, after ChangeState) (string, error) {
	beforeTree, err := s.ProcessTree(before.Tree)
	if err != nil {
		return "", err
	}
	afterTree, err := s.ProcessTree(after.Tree)
	if err != nil {
		return "", err
	}

	diff := axtree.Diff(beforeTree.RenderWithoutIDs(), afterTree.RenderWithoutIDs())

	analysis := ""
	if before.URL != "" && after.URL != "" {
		if before.URL != after.URL {
			analysis = fmt.Sprintf("URL changed to %s. ", after.URL)
		} else {
			analysis = "URL did not change. "
		}
	}

	s.mu.Lock()
	summary, err := s.changes.Invoke(ctx, diff)
	s.mu.Unlock()
	if err != nil {
		return "", err
	}
	return analysis + summary, nil
}

// AddExample appends a learned example to the planner's few-shot slot.
func (s *Session) AddExample(example types.Example) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.examples = append(s.examples, example)
}

// ClearExamples drops all learned examples. Idempotent.
func (s *Session) ClearExamples() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.examples = nil
}

// SaveCache flushes the session cache to its backing store.
func (s *Session) SaveCache(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Save(ctx)
}

// DiscardCache drops uncommitted cache entries.
func (s *Session) DiscardCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Discard()
}

// Stats sums the agents' real token usage and reports the cache tally
// alongside.
func (s *Session) Stats() types.SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total types.TokenUsage
	total.Add(s.planner.Usage())
	total.Add(s.actor.Usage())
	total.Add(s.retriever.Usage())
	total.Add(s.area.Usage())
	total.Add(s.locator.Usage())
	total.Add(s.changes.Usage())

	return types.SessionStats{
		Total: total,
		Cache: s.cache.Usage(),
	}
}
