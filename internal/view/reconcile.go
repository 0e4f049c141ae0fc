package view

import "fmt"

// diff matches new items against old ones. from[j] is the old index whose
// slot the j-th new item keeps, or -1 when the item needs a new slot.
//
// Slots on a longest common subsequence of old and new keep their relative
// order. Remaining new items that equal an unmatched old item are moves:
// the slot is kept and only re-sequenced.
func diff(old, new []any, eq func(a, b any) bool, symmetric bool) (from []int, moved int, err error) {
	m, n := len(old), len(new)
	match := make([][]bool, m)
	for i := range old {
		match[i] = make([]bool, n)
		for j := range new {
			match[i][j] = eq(old[i], new[j])
			if symmetric && match[i][j] != eq(new[j], old[i]) {
				return nil, 0, fmt.Errorf("comparator is not symmetric for old %d and new %d: %w", i, j, ErrReconciliation)
			}
		}
	}

	// lcs[i][j] is the LCS length of old[i:] and new[j:].
	lcs := make([][]int, m+1)
	for i := range lcs {
		lcs[i] = make([]int, n+1)
	}
	for i := m - 1; i >= 0; i-- {
		for j := n - 1; j >= 0; j-- {
			if match[i][j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else {
				lcs[i][j] = max(lcs[i+1][j], lcs[i][j+1])
			}
		}
	}

	from = make([]int, n)
	for j := range from {
		from[j] = -1
	}
	used := make([]bool, m)
	for i, j := 0, 0; i < m && j < n; {
		switch {
		case match[i][j]:
			from[j] = i
			used[i] = true
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			i++
		default:
			j++
		}
	}

	for j := range new {
		if from[j] >= 0 {
			continue
		}
		for i := range old {
			if !used[i] && match[i][j] {
				from[j] = i
				used[i] = true
				moved++
				break
			}
		}
	}
	return from, moved, nil
}
