// Package reactive records what a view read while it was being built.
//
// Every construct or patch of a template runs inside a fresh Cx. Reads of
// host resources, host components and mutable cells made through the Cx are
// appended to its dependency Set together with the version observed at read
// time. When the invocation finishes, the Set replaces the node's previous
// dependencies wholesale; the driver later compares recorded versions with
// current ones to decide which nodes are dirty.
//
// Hooks (CreateMutable, Memo, Effect, CreateChildEntity) are addressed by
// call position: the n-th hook call in an invocation reuses the n-th slot of
// the node's Scope. Templates must therefore call hooks in the same order on
// every pass, as in any hook-based UI framework.
package reactive
