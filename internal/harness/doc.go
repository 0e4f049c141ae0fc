// Package harness runs declarative reconciliation scenarios.
//
// A scenario is a YAML document naming host resources, templates built from
// a small view vocabulary, and steps. Each step changes resources or state
// cells, runs one pass of the engine driver over an in-memory host and
// checks what the pass did: counters from the PassReport, error codes and
// the resulting display tree.
//
//	name: greeting
//	resources:
//	  who: world
//	templates:
//	  app:
//	    view:
//	      element: p
//	      children: ["hello {{res:who}}"]
//	root: app
//	steps:
//	  - name: initial
//	    expect:
//	      tree: |
//	        p
//	          "hello world"
//	  - name: rename
//	    set: {who: there}
//	    expect:
//	      inserted: 1
//
// Documents are checked against the schema package before decoding.
// RunWithGolden additionally compares the whole run against a golden file.
package harness
