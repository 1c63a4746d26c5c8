package handle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/executive/internal/kernel/memory"
)

func newTable(t *testing.T) (*Table[string], *memory.Arena) {
	t.Helper()
	arena, err := memory.NewArena(0x100000, 4096)
	require.NoError(t, err)
	return New[string](arena, 0), arena
}

func TestTakeIsSingleUse(t *testing.T) {
	table, arena := newTable(t)

	h, err := table.Put("file:///background.bmp")
	require.NoError(t, err)
	assert.NotZero(t, h)
	assert.Equal(t, 1, table.Live())
	assert.Equal(t, 1, arena.Stats().Live)

	v, err := table.Take(h)
	require.NoError(t, err)
	assert.Equal(t, "file:///background.bmp", v)
	assert.Equal(t, 0, table.Live())
	assert.Equal(t, 0, arena.Stats().Live, "slot is freed on take")

	_, err = table.Take(h)
	assert.True(t, errors.Is(err, ErrUnknownHandle))
}

func TestLoadBorrows(t *testing.T) {
	table, _ := newTable(t)

	h, err := table.Put("memory:")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		v, err := table.Load(h)
		require.NoError(t, err)
		assert.Equal(t, "memory:", v)
	}
	assert.Equal(t, 1, table.Live())

	_, err = table.Load(Handle(0x42))
	assert.True(t, errors.Is(err, ErrUnknownHandle))
}

func TestHandlesAreDistinct(t *testing.T) {
	table, _ := newTable(t)
	seen := make(map[Handle]bool)
	for i := 0; i < 10; i++ {
		h, err := table.Put("x")
		require.NoError(t, err)
		assert.False(t, seen[h])
		seen[h] = true
	}
}

func TestPutOutOfMemory(t *testing.T) {
	arena, err := memory.NewArena(0x1000, 16)
	require.NoError(t, err)
	table := New[int](arena, 16)

	_, err = table.Put(1)
	require.NoError(t, err)
	_, err = table.Put(2)
	assert.True(t, errors.Is(err, memory.ErrOutOfMemory))
}

func TestTakeIfMatchesValue(t *testing.T) {
	table, arena := newTable(t)

	h, err := table.Put("mine")
	require.NoError(t, err)

	_, ok := table.TakeIf(h, func(v string) bool { return v == "theirs" })
	assert.False(t, ok)
	assert.Equal(t, 1, table.Live())

	v, ok := table.TakeIf(h, func(v string) bool { return v == "mine" })
	assert.True(t, ok)
	assert.Equal(t, "mine", v)
	assert.Zero(t, table.Live())
	assert.Zero(t, arena.Stats().Live)

	_, ok = table.TakeIf(h, func(string) bool { return true })
	assert.False(t, ok)
}
