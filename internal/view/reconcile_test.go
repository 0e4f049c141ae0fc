package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strs(ss ...string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func eqAny(a, b any) bool { return a == b }

func TestDiff(t *testing.T) {
	tests := []struct {
		name  string
		old   []any
		new   []any
		from  []int
		moved int
	}{
		{"identical", strs("a", "b"), strs("a", "b"), []int{0, 1}, 0},
		{"append", strs("a"), strs("a", "b"), []int{0, -1}, 0},
		{"remove middle", strs("a", "b", "c"), strs("a", "c"), []int{0, 2}, 0},
		{"reverse", strs("a", "b", "c"), strs("c", "b", "a"), []int{2, 1, 0}, 2},
		{"rotate with insert", strs("a", "b", "c"), strs("c", "a", "d"), []int{2, 0, -1}, 1},
		{"to empty", strs("a"), nil, []int{}, 0},
		{"from empty", nil, strs("a"), []int{-1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, moved, err := diff(tt.old, tt.new, eqAny, false)
			require.NoError(t, err)
			assert.Equal(t, tt.from, from)
			assert.Equal(t, tt.moved, moved)
		})
	}
}

func TestDiff_AsymmetricComparator(t *testing.T) {
	less := func(a, b any) bool { return a.(int) <= b.(int) }
	_, _, err := diff([]any{1}, []any{2}, less, true)
	assert.ErrorIs(t, err, ErrReconciliation)
}

func TestListView_Validate(t *testing.T) {
	assert.NoError(t, ForEach([]int{1, 2, 3}, nil).validate())
	assert.ErrorIs(t, ForEach([]int{1, 2, 1}, nil).validate(), ErrReconciliation)
	assert.NoError(t, ForIndex([]int{1, 1}, nil).validate())

	same := func(a, b int) bool { return a%2 == b%2 }
	assert.ErrorIs(t, ForEachFunc([]int{1, 3}, same, nil).validate(), ErrReconciliation)
	assert.NoError(t, ForEachFunc([]int{1, 2}, same, nil).validate())
}
