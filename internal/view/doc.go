// Package view holds the view tree: the declarative descriptions a template
// returns (View) and the retained nodes that realize them on a host.World
// (Tree).
//
// A View is one of a closed set of variants:
//
//   - Element: one display entity with components and child views
//   - Text: one display entity holding a host.Text component
//   - Fragment: the concatenation of its children, no entity of its own
//   - Cond: one of two branches
//   - List (ForEach, ForEachFunc, ForIndex): one child per item, with an
//     optional fallback for the empty list
//   - Use / Func: a Template, the only variant with reactive state
//   - Empty: nothing
//
// Tree.Construct builds a node for a view. Template nodes record what they
// read through their reactive.Cx; Tree.Dirty lists the template nodes whose
// recorded versions no longer match the host store and cell store, and
// Tree.Patch re-renders one of them, reconciling the new description against
// the retained subtree. Nodes whose description is unchanged and whose
// dependencies are current cause no host mutation.
//
// The output of every node is a span.Span. Spans of fragments, lists and
// conditionals are composed from their children; when a span changes the
// nearest enclosing Element re-attaches its flattened children, or, at the
// root, the attach target given to Construct does.
//
// A Tree is not safe for concurrent use.
package view
