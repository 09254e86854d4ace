package cache

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudoCommit/alumnium/pkg/types"
)

func entry(payload string, in, out int) Entry {
	return Entry{
		Payload: json.RawMessage(payload),
		Usage:   types.TokenUsage{InputTokens: in, OutputTokens: out, TotalTokens: in + out},
	}
}

func TestKeyIsStable(t *testing.T) {
	a := Key("messages", []string{"tool"}, "schema", "openai", "gpt-4o-mini")
	b := Key("messages", []string{"tool"}, "schema", "openai", "gpt-4o-mini")
	assert.Equal(t, a, b)

	c := Key("messages", []string{"tool"}, "schema", "openai", "gpt-4o")
	assert.NotEqual(t, a, c, "model identity participates in the key")
}

func TestHitAccumulatesCacheUsage(t *testing.T) {
	c, err := New(context.Background(), nil)
	require.NoError(t, err)

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Zero(t, c.Usage().TotalTokens, "misses do not touch the tally")

	c.Put("k", entry(`{"content":"hi"}`, 100, 20))

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, json.RawMessage(`{"content":"hi"}`), got.Payload)
	assert.Equal(t, types.TokenUsage{InputTokens: 100, OutputTokens: 20, TotalTokens: 120}, c.Usage())

	c.Get("k")
	assert.Equal(t, 240, c.Usage().TotalTokens, "every hit counts what it substituted for")
}

func TestDiscardDropsUncommittedOnly(t *testing.T) {
	ctx := context.Background()
	c, err := New(ctx, nil)
	require.NoError(t, err)

	c.Put("committed", entry(`1`, 1, 1))
	require.NoError(t, c.Save(ctx))

	c.Put("pending", entry(`2`, 1, 1))
	c.Discard()

	_, ok := c.Get("committed")
	assert.True(t, ok)
	_, ok = c.Get("pending")
	assert.False(t, ok)
}

func TestSaveWithoutStoreIsNoOp(t *testing.T) {
	c, err := New(context.Background(), nil)
	require.NoError(t, err)
	c.Put("k", entry(`1`, 1, 1))
	assert.NoError(t, c.Save(context.Background()))
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	store := NewRedisStore(client, "openai/gpt-4o-mini")

	c, err := New(ctx, store)
	require.NoError(t, err)
	c.Put("k1", entry(`{"content":"one"}`, 10, 2))
	c.Put("k2", entry(`{"content":"two"}`, 20, 4))
	require.NoError(t, c.Save(ctx))

	// A fresh cache against the same store sees the flushed entries.
	reloaded, err := New(ctx, store)
	require.NoError(t, err)
	got, ok := reloaded.Get("k1")
	require.True(t, ok)
	assert.Equal(t, json.RawMessage(`{"content":"one"}`), got.Payload)
	assert.Equal(t, 12, reloaded.Usage().TotalTokens)

	// Other namespaces stay isolated.
	other, err := New(ctx, NewRedisStore(client, "openai/gpt-4o"))
	require.NoError(t, err)
	_, ok = other.Get("k1")
	assert.False(t, ok)
}
