package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	pb, err := OpenPebble(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = pb.Close() })
	return map[string]Store{
		"memory": NewMemory(),
		"pebble": pb,
	}
}

func TestSetOperations(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			members, err := store.SetMembers("empty")
			require.NoError(t, err)
			assert.Empty(t, members)

			require.NoError(t, store.SetAdd("s", "b"))
			require.NoError(t, store.SetAdd("s", "a"))
			require.NoError(t, store.SetAdd("s", "a"))
			require.NoError(t, store.SetAdd("other", "x"))

			members, err = store.SetMembers("s")
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, members)

			require.NoError(t, store.SetRemove("s", "a"))
			require.NoError(t, store.SetRemove("s", "missing"))
			members, err = store.SetMembers("s")
			require.NoError(t, err)
			assert.Equal(t, []string{"b"}, members)
		})
	}
}

func TestHashOperations(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := store.HashGet("h", "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.HashSet("h", "f1", "v1"))
			require.NoError(t, store.HashSet("h", "f2", "v2"))
			require.NoError(t, store.HashSet("h", "f1", "v1b"))

			got, ok, err := store.HashGet("h", "f1")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "v1b", got)

			all, err := store.HashGetAll("h")
			require.NoError(t, err)
			assert.Equal(t, map[string]string{"f1": "v1b", "f2": "v2"}, all)
		})
	}
}

func TestListOperations(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			items, err := store.ListRange("empty")
			require.NoError(t, err)
			assert.Empty(t, items)

			require.NoError(t, store.ListPush("l", []byte("first")))
			require.NoError(t, store.ListPush("l", []byte("second")))
			require.NoError(t, store.ListPush("l", []byte("third")))

			items, err = store.ListRange("l")
			require.NoError(t, err)
			require.Len(t, items, 3)
			assert.Equal(t, "first", string(items[0]))
			assert.Equal(t, "second", string(items[1]))
			assert.Equal(t, "third", string(items[2]))

			n, err := store.ListLen("l")
			require.NoError(t, err)
			assert.Equal(t, 3, n)
		})
	}
}

func TestFlushWipesEverything(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.SetAdd("s", "a"))
			require.NoError(t, store.HashSet("h", "f", "v"))
			require.NoError(t, store.ListPush("l", []byte("x")))

			require.NoError(t, store.Flush())

			members, err := store.SetMembers("s")
			require.NoError(t, err)
			assert.Empty(t, members)

			_, ok, err := store.HashGet("h", "f")
			require.NoError(t, err)
			assert.False(t, ok)

			n, err := store.ListLen("l")
			require.NoError(t, err)
			assert.Equal(t, 0, n)
		})
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	m := NewMemory()
	payload := []byte("original")
	require.NoError(t, m.ListPush("l", payload))
	payload[0] = 'X'

	items, err := m.ListRange("l")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "original", string(items[0]))

	items[0][0] = 'Y'
	again, err := m.ListRange("l")
	require.NoError(t, err)
	assert.Equal(t, "original", string(again[0]))
}

func TestPebbleSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	pb, err := OpenPebble(dir)
	require.NoError(t, err)
	require.NoError(t, pb.SetAdd("s", "a"))
	require.NoError(t, pb.HashSet("h", "f", "v"))
	require.NoError(t, pb.ListPush("l", []byte("x")))
	require.NoError(t, pb.Close())

	pb, err = OpenPebble(dir)
	require.NoError(t, err)
	defer func() { _ = pb.Close() }()

	members, err := pb.SetMembers("s")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, members)

	got, ok, err := pb.HashGet("h", "f")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", got)

	items, err := pb.ListRange("l")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "x", string(items[0]))
}
