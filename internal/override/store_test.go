package override

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Update(t *testing.T) {
	t.Run("Should create a patch holding only the written field", func(t *testing.T) {
		s := NewStore()
		require.NoError(t, s.Update("m1", FieldSets, 5))

		p, ok := s.Patch("m1")
		require.True(t, ok)
		assert.Equal(t, Patch{FieldSets: 5}, p)
		assert.True(t, s.Has("m1"))
	})

	t.Run("Should prune the patch when the last field is cleared", func(t *testing.T) {
		s := NewStore()
		require.NoError(t, s.Update("m1", FieldSets, 5))
		require.NoError(t, s.Update("m1", FieldSets, nil))

		assert.False(t, s.Has("m1"))
		_, ok := s.Patch("m1")
		assert.False(t, ok)
		assert.Equal(t, 0, s.Len())
	})

	t.Run("Should remove the key instead of storing an empty value", func(t *testing.T) {
		s := NewStore()
		require.NoError(t, s.Update("m1", FieldSets, 5))
		require.NoError(t, s.Update("m1", FieldReps, 12))
		require.NoError(t, s.Update("m1", FieldSets, (*int)(nil)))

		p, _ := s.Patch("m1")
		_, present := p[FieldSets]
		assert.False(t, present)
		assert.Equal(t, 12, p[FieldReps])
	})

	t.Run("Should ignore clearing a field that was never set", func(t *testing.T) {
		s := NewStore()
		require.NoError(t, s.Update("m1", FieldNotes, nil))
		assert.Equal(t, 0, s.Len())
	})

	t.Run("Should normalize integral floats from JSON", func(t *testing.T) {
		s := NewStore()
		require.NoError(t, s.Update("m1", FieldReps, float64(8)))
		v, _ := s.Get("m1", FieldReps)
		assert.Equal(t, 8, v)
	})

	t.Run("Should reject mismatched value types", func(t *testing.T) {
		s := NewStore()
		assert.ErrorIs(t, s.Update("m1", FieldSets, "five"), ErrInvalidValue)
		assert.ErrorIs(t, s.Update("m1", FieldSets, 2.5), ErrInvalidValue)
		assert.ErrorIs(t, s.Update("m1", FieldNotes, 3), ErrInvalidValue)
		assert.ErrorIs(t, s.Update("m1", FieldHidden, true), ErrUnknownField)
		assert.ErrorIs(t, s.Update("", FieldSets, 1), ErrEmptyID)
		assert.Equal(t, 0, s.Len())
	})
}

func TestStore_ResetAndCustomImages(t *testing.T) {
	t.Run("Should drop the whole patch on reset", func(t *testing.T) {
		s := NewStore()
		require.NoError(t, s.Update("m1", FieldSets, 5))
		require.NoError(t, s.Update("m1", FieldNotes, "slow"))
		s.Reset("m1")
		assert.False(t, s.Has("m1"))
	})

	t.Run("Should append custom images once", func(t *testing.T) {
		s := NewStore()
		require.NoError(t, s.AppendCustomImage("m1", "a.png"))
		require.NoError(t, s.AppendCustomImage("m1", "b.png"))
		require.NoError(t, s.AppendCustomImage("m1", "a.png"))
		v, _ := s.Get("m1", FieldCustomImages)
		assert.Equal(t, []string{"a.png", "b.png"}, v)
	})
}

func TestExclusionSet(t *testing.T) {
	t.Run("Should toggle membership", func(t *testing.T) {
		e := NewExclusionSet()
		assert.True(t, e.Toggle("m1"))
		assert.True(t, e.Contains("m1"))
		assert.False(t, e.Toggle("m1"))
		assert.False(t, e.Contains("m1"))
	})

	t.Run("Should list ids in sorted order", func(t *testing.T) {
		e := NewExclusionSet()
		e.Add("b")
		e.Add("a")
		assert.Equal(t, []string{"a", "b"}, e.IDs())
	})
}
