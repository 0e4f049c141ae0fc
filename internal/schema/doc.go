// Package schema validates scenario documents against an embedded CUE
// definition before the harness decodes them.
//
// The YAML is extracted by CUE itself, so violations carry the line and
// column of the offending value in the scenario file:
//
//	if err := schema.Validate("list.yaml", data); err != nil {
//	    // scenarios/list.yaml:12:9: steps.0.expect.built: conflicting values ...
//	}
package schema
