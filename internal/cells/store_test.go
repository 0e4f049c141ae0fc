package cells

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AllocateGetSet(t *testing.T) {
	s := NewStore()
	h := Allocate(s, 1)

	v, err := Get(s, h)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v1, ok := s.Version(h.ID())
	require.True(t, ok)

	require.NoError(t, Set(s, h, 2))
	v, err = Get(s, h)
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	v2, _ := s.Version(h.ID())
	assert.Greater(t, v2, v1)
}

func TestStore_UpdateBumpsOnce(t *testing.T) {
	s := NewStore()
	h := Allocate(s, 10)
	before, _ := s.Version(h.ID())

	require.NoError(t, Update(s, h, func(n int) int { return n + 5 }))

	after, _ := s.Version(h.ID())
	assert.Equal(t, before+1, after)
	v, _ := Get(s, h)
	assert.Equal(t, 15, v)
}

func TestStore_ReleasedHandleIsStale(t *testing.T) {
	s := NewStore()
	h := Allocate(s, "x")
	require.NoError(t, s.Release(h.ID()))

	_, err := Get(s, h)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, ErrStaleHandle)
	assert.ErrorIs(t, Set(s, h, "y"), ErrStaleHandle)
	assert.ErrorIs(t, s.Release(h.ID()), ErrNotFound)

	_, ok := s.Version(h.ID())
	assert.False(t, ok)
}

func TestStore_TypeMismatch(t *testing.T) {
	s := NewStore()
	h := Allocate(s, 42)

	_, err := Get(s, HandleOf[string](h.ID()))
	assert.ErrorIs(t, err, ErrTypeMismatch)
	assert.ErrorIs(t, Set(s, HandleOf[string](h.ID()), "nope"), ErrTypeMismatch)

	// The original value is untouched.
	v, err := Get(s, h)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestStore_ScopedRelease(t *testing.T) {
	s := NewStore()
	owner := Owner(7)

	a := AllocateScoped(s, owner, 1)
	b := AllocateScoped(s, owner, "b")
	free := Allocate(s, true)

	assert.Equal(t, 2, s.Owned(owner))
	assert.Equal(t, 2, s.ReleaseOwner(owner))

	assert.False(t, s.Alive(a.ID()))
	assert.False(t, s.Alive(b.ID()))
	assert.True(t, s.Alive(free.ID()), "unscoped cells survive owner release")
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 0, s.ReleaseOwner(Unscoped))
}

func TestStore_ReleaseScopedIndividually(t *testing.T) {
	s := NewStore()
	owner := Owner(3)
	a := AllocateScoped(s, owner, 1)
	b := AllocateScoped(s, owner, 2)

	require.NoError(t, s.Release(a.ID()))
	assert.Equal(t, 1, s.Owned(owner))
	assert.Equal(t, 1, s.ReleaseOwner(owner))
	assert.False(t, s.Alive(b.ID()))
}

func TestStore_DrainChanged(t *testing.T) {
	s := NewStore()
	a := Allocate(s, 1)
	b := Allocate(s, 2)
	assert.Nil(t, s.DrainChanged(), "allocation is not a change")

	require.NoError(t, Set(s, b, 3))
	require.NoError(t, Set(s, a, 4))
	require.NoError(t, Set(s, a, 5))

	assert.Equal(t, []ID{a.ID(), b.ID()}, s.DrainChanged())
	assert.Nil(t, s.DrainChanged())
}

func TestHandle_Zero(t *testing.T) {
	var h Handle[int]
	assert.True(t, h.IsZero())
	assert.Equal(t, "c0", h.ID().String())
}
