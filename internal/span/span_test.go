package span

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/roach88/weft/internal/host"
)

func ids(n ...uint64) []host.EntityID {
	out := make([]host.EntityID, len(n))
	for i, v := range n {
		out[i] = host.EntityID(v)
	}
	return out
}

func TestSpan_Empty(t *testing.T) {
	var zero Span
	assert.True(t, zero.IsEmpty())
	assert.Nil(t, zero.Flatten())
	assert.True(t, zero.Equal(Empty()))
	assert.Equal(t, "[]", Empty().String())
}

func TestSpan_FragmentFlattening(t *testing.T) {
	// Three children with spans of length 2, 0 and 3.
	first := Fragment(Node(1), Node(2))
	second := Empty()
	third := Fragment(Node(3), Fragment(Node(4), Empty()), Node(5))

	s := Fragment(first, second, third)

	assert.Equal(t, 5, s.Count())
	if diff := cmp.Diff(ids(1, 2, 3, 4, 5), s.Flatten()); diff != "" {
		t.Errorf("Flatten() mismatch (-want +got):\n%s", diff)
	}
}

func TestSpan_SinglePartFragmentCollapses(t *testing.T) {
	s := Fragment(Node(7))
	assert.Equal(t, Node(7), s)
	assert.Equal(t, Empty(), Fragment())
}

func TestSpan_EqualIgnoresNesting(t *testing.T) {
	a := Fragment(Node(1), Fragment(Node(2), Node(3)))
	b := Fragment(Fragment(Node(1), Node(2)), Empty(), Node(3))
	c := Fragment(Node(1), Node(3), Node(2))

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, Node(1).Equal(Node(2)))
}

func TestSpan_AppendToReusesBuffer(t *testing.T) {
	buf := make([]host.EntityID, 0, 8)
	buf = Node(9).AppendTo(buf)
	buf = Fragment(Node(10), Node(11)).AppendTo(buf)

	assert.Equal(t, ids(9, 10, 11), buf)
}

func TestSpan_EachStopsEarly(t *testing.T) {
	s := Fragment(Node(1), Node(2), Node(3))
	var seen []host.EntityID
	completed := s.Each(func(id host.EntityID) bool {
		seen = append(seen, id)
		return id != 2
	})

	assert.False(t, completed)
	assert.Equal(t, ids(1, 2), seen)
}

func TestSpan_Contains(t *testing.T) {
	s := Fragment(Node(4), Fragment(Node(5)))
	assert.True(t, s.Contains(5))
	assert.False(t, s.Contains(6))
	assert.False(t, Empty().Contains(0))
}

func TestSpan_String(t *testing.T) {
	assert.Equal(t, "[e1 e2]", Fragment(Node(1), Node(2)).String())
}
