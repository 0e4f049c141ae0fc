package view

import (
	"fmt"
	"reflect"
)

type listPolicy uint8

const (
	policyKeyed listPolicy = iota + 1
	policyComparator
	policyIndexed
)

func (p listPolicy) String() string {
	switch p {
	case policyKeyed:
		return "keyed"
	case policyComparator:
		return "comparator"
	case policyIndexed:
		return "indexed"
	default:
		return "unknown"
	}
}

// ListView renders one child per item.
type ListView struct {
	policy   listPolicy
	items    []any
	eq       func(a, b any) bool
	each     func(item any, index int) View
	fallback View
}

// ForEach renders each(item, index) per item, keyed by the item itself.
// Items that survive a patch keep their nodes (and hook state) even when
// they move; duplicate items are a reconciliation error.
func ForEach[T comparable](items []T, each func(item T, index int) View) ListView {
	return ListView{
		policy: policyKeyed,
		items:  boxed(items),
		eq:     func(a, b any) bool { return a.(T) == b.(T) },
		each:   func(item any, i int) View { return each(item.(T), i) },
	}
}

// ForEachFunc is ForEach for items that are not comparable, or whose
// identity is narrower than ==. eq must be symmetric and must not report
// two items of the same list as equal.
func ForEachFunc[T any](items []T, eq func(a, b T) bool, each func(item T, index int) View) ListView {
	return ListView{
		policy: policyComparator,
		items:  boxed(items),
		eq:     func(a, b any) bool { return eq(a.(T), b.(T)) },
		each:   func(item any, i int) View { return each(item.(T), i) },
	}
}

// ForIndex keys items by position. A slot whose item changed (by
// reflect.DeepEqual) is razed and rebuilt, so inserting at the front
// rebuilds every slot after it.
func ForIndex[T any](items []T, each func(item T, index int) View) ListView {
	return ListView{
		policy: policyIndexed,
		items:  boxed(items),
		eq:     func(a, b any) bool { return reflect.DeepEqual(a, b) },
		each:   func(item any, i int) View { return each(item.(T), i) },
	}
}

// Fallback returns a copy of l that shows v while the list is empty.
func (l ListView) Fallback(v View) ListView {
	l.fallback = v
	return l
}

// Len returns the number of items.
func (l ListView) Len() int { return len(l.items) }

func (ListView) Kind() Kind { return KindList }
func (ListView) sealed()    {}

func boxed[T any](items []T) []any {
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out
}

// validate checks the new item list before any node is touched. A panic
// from a comparator, or from hashing an item whose dynamic type hides an
// incomparable value, is reported as a reconciliation error.
func (l ListView) validate() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("list validation panicked: %v: %w", r, ErrReconciliation)
		}
	}()
	switch l.policy {
	case policyKeyed:
		seen := make(map[any]int, len(l.items))
		for i, it := range l.items {
			if ty := reflect.TypeOf(it); ty != nil && !ty.Comparable() {
				return fmt.Errorf("item %d: %s cannot be a key: %w", i, ty, ErrReconciliation)
			}
			if j, dup := seen[it]; dup {
				return fmt.Errorf("duplicate key %v at %d and %d: %w", it, j, i, ErrReconciliation)
			}
			seen[it] = i
		}
	case policyComparator:
		for i := range l.items {
			for j := i + 1; j < len(l.items); j++ {
				if l.eq(l.items[i], l.items[j]) || l.eq(l.items[j], l.items[i]) {
					return fmt.Errorf("items %d and %d compare equal: %w", i, j, ErrReconciliation)
				}
			}
		}
	}
	return nil
}

// ListStats describes the last reconciliation of a list node.
type ListStats struct {
	Retained int // slots kept, including moved ones
	Moved    int // retained slots outside the longest common subsequence
	Built    int
	Razed    int
}
