package view

import (
	"errors"
	"fmt"
)

var (
	// ErrReconciliation is recorded when a list cannot be diffed: duplicate
	// keys in the new item list, or a comparator that is not symmetric. The
	// list keeps its previous state.
	ErrReconciliation = errors.New("list reconciliation failed")

	// ErrUnknownNode is returned for ids that are not (or no longer) in the
	// tree.
	ErrUnknownNode = errors.New("unknown view node")
)

// NodeError is a failure isolated to one node. The pass that produced it
// continues with the node's siblings.
type NodeError struct {
	Node NodeID
	Kind Kind
	Err  error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Node, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}
