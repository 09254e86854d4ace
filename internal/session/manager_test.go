package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudoCommit/alumnium/internal/llmtest"
	"github.com/sudoCommit/alumnium/pkg/types"
)

func newTestManager() *Manager {
	return NewManager(Options{ChatModel: llmtest.New()})
}

func createSession(t *testing.T, m *Manager) string {
	t.Helper()
	id, err := m.Create(context.Background(),
		types.NewModel(types.ProviderOpenAI, ""), types.PlatformChromium, testTools, true)
	require.NoError(t, err)
	return id
}

func TestManagerLifecycle(t *testing.T) {
	m := newTestManager()

	id := createSession(t, m)
	assert.NotNil(t, m.Get(id))
	assert.Contains(t, m.List(), id)

	assert.True(t, m.Delete(id))
	assert.Nil(t, m.Get(id))
	assert.NotContains(t, m.List(), id)

	assert.False(t, m.Delete(id), "second delete reports missing")
	assert.False(t, m.Delete("never-existed"))
}

func TestManagerListMatchesCreations(t *testing.T) {
	m := newTestManager()

	first := createSession(t, m)
	second := createSession(t, m)
	assert.NotEqual(t, first, second, "every session gets a fresh UUID")

	assert.ElementsMatch(t, []string{first, second}, m.List())

	m.Delete(first)
	assert.ElementsMatch(t, []string{second}, m.List())
}

func TestManagerTotalStatsAggregates(t *testing.T) {
	m := newTestManager()
	createSession(t, m)
	createSession(t, m)

	stats := m.TotalStats()
	assert.Zero(t, stats.Total.TotalTokens)
	assert.Zero(t, stats.Cache.TotalTokens)
}
