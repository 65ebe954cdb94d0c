package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("t:", 0)

	_, err := c.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)
	assert.True(t, IsNotFound(err))

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	st, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "memory", st.Driver)
	assert.Equal(t, int64(1), st.Keys)

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)

	st, err = c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), st.Keys)
	assert.Equal(t, int64(1), st.Hits)
	assert.Equal(t, int64(2), st.Misses)
}

func TestMemory_TTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("", 0)

	require.NoError(t, c.Set(ctx, "k", "v", 20*time.Millisecond))
	_, err := c.Get(ctx, "k")
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)
	_, err = c.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_Incr(t *testing.T) {
	c := NewMemory("", 0)

	n, exp := c.Incr("ip", time.Minute)
	assert.Equal(t, int64(1), n)
	assert.WithinDuration(t, time.Now().Add(time.Minute), exp, time.Second)

	n, _ = c.Incr("ip", time.Minute)
	assert.Equal(t, int64(2), n)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("", 0)

	type point struct{ Lat, Lng float64 }
	require.NoError(t, SetJSON(ctx, c, "p", point{1.5, -2}, time.Minute))

	var got point
	hit, err := GetJSON(ctx, c, "p", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, point{1.5, -2}, got)

	require.NoError(t, c.Set(ctx, "bad", "{", 0))
	hit, err = GetJSON(ctx, c, "bad", &got)
	require.NoError(t, err)
	assert.False(t, hit)
	_, err = c.Get(ctx, "bad")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNew_Kinds(t *testing.T) {
	c, err := New(Config{Kind: "none"})
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotFound)

	c, err = New(Config{Kind: "memory"})
	require.NoError(t, err)
	require.NoError(t, c.Ping(context.Background()))
}

func TestParseInfo(t *testing.T) {
	info := "# Memory\r\nused_memory:1048576\r\nused_memory_human:1.00M\r\n\r\n# Stats\r\nkeyspace_hits:42\r\nkeyspace_misses:7\r\n"
	got := parseInfo(info)
	assert.Equal(t, "1.00M", got["used_memory_human"])
	assert.Equal(t, "42", got["keyspace_hits"])
	assert.Equal(t, "7", got["keyspace_misses"])
	assert.NotContains(t, got, "# Memory")
}
