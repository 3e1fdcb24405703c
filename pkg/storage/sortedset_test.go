package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTreeSet(t *testing.T) {
	t.Run("empty_tree", func(t *testing.T) {
		tree := NewSortedSet()
		assert.Empty(t, tree.Min())
		assert.Empty(t, tree.Max())
		assert.Equal(t, []string{}, tree.Values())
		assert.Equal(t, 0, tree.Size())
		assert.False(t, tree.Exists("1"))
		assert.Empty(t, tree.ValuesFrom("", 10))
	})

	t.Run("non-empty_tree", func(t *testing.T) {
		tree := NewSortedSet()
		tree.Add("3")
		tree.Add("2")
		tree.Add("1")

		assert.Equal(t, "1", tree.Min())
		assert.Equal(t, "3", tree.Max())
		assert.Equal(t, []string{"1", "2", "3"}, tree.Values())
		assert.Equal(t, 3, tree.Size())
		assert.True(t, tree.Exists("1"))
		assert.True(t, tree.Exists("2"))
		assert.True(t, tree.Exists("3"))
		assert.False(t, tree.Exists("4"))
	})

	t.Run("duplicate_adds_are_ignored", func(t *testing.T) {
		tree := NewSortedSet()
		tree.Add("a")
		tree.Add("a")

		assert.Equal(t, 1, tree.Size())
	})

	t.Run("remove", func(t *testing.T) {
		tree := NewSortedSet()
		tree.Add("1")
		tree.Add("2")
		tree.Remove("1")
		tree.Remove("missing")

		assert.Equal(t, []string{"2"}, tree.Values())
		assert.False(t, tree.Exists("1"))
	})

	t.Run("values_from", func(t *testing.T) {
		tree := NewSortedSet()
		for _, key := range []string{"5", "1", "3", "4", "2"} {
			tree.Add(key)
		}

		assert.Equal(t, []string{"1", "2", "3"}, tree.ValuesFrom("", 3))
		assert.Equal(t, []string{"3", "4", "5"}, tree.ValuesFrom("3", 10))
		assert.Equal(t, []string{"3", "4"}, tree.ValuesFrom("25", 2))
		assert.Empty(t, tree.ValuesFrom("9", 10))
	})
}
