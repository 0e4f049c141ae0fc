package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validScenario = `
name: todo
description: keyed list
resources:
  items: [a, b, c]
  title: Todos
templates:
  app:
    state:
      count: 0
    view:
      element: div
      attrs:
        class: app
      children:
        - element: h1
          children: ["{{res:title}}"]
        - for: res:items
          key: item
          each:
            element: li
            children: ["{{item}}"]
          fallback: nothing
        - if: cell:count
          then: {use: badge}
  badge:
    view: {empty: true}
root: app
steps:
  - name: initial
    expect:
      built: 9
  - name: reorder
    set:
      items: [c, a, d]
    remove: [title]
    write:
      count: 1
    expect:
      errors: [RECONCILIATION]
`

func TestValidateAcceptsScenario(t *testing.T) {
	assert.NoError(t, Validate("todo.yaml", []byte(validScenario)))
	assert.Empty(t, Check("todo.yaml", []byte(validScenario)))
}

func TestValidateRejectsUnknownField(t *testing.T) {
	doc := strings.Replace(validScenario, "root: app", "root: app\nrooot: app", 1)

	errs := Check("typo.yaml", []byte(doc))
	require.NotEmpty(t, errs)

	var found bool
	for _, e := range errs {
		if strings.Contains(e.Field, "rooot") {
			found = true
		}
	}
	assert.True(t, found, "expected a violation naming rooot, got %v", errs)
}

func TestValidateRejectsNegativeCount(t *testing.T) {
	doc := strings.Replace(validScenario, "built: 9", "built: -1", 1)

	err := Validate("bad.yaml", []byte(doc))
	require.Error(t, err)

	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Field, "built")
	assert.Equal(t, "bad.yaml", se.Pos.Filename())
}

func TestValidateRejectsUnknownErrorCode(t *testing.T) {
	doc := strings.Replace(validScenario, "[RECONCILIATION]", "[EXPLODED]", 1)
	assert.Error(t, Validate("bad.yaml", []byte(doc)))
}

func TestValidateRejectsBadExpression(t *testing.T) {
	doc := strings.Replace(validScenario, "for: res:items", "for: items", 1)
	assert.Error(t, Validate("bad.yaml", []byte(doc)))
}

func TestValidateRequiresSteps(t *testing.T) {
	doc := validScenario[:strings.Index(validScenario, "steps:")] + "steps: []\n"
	assert.Error(t, Validate("empty.yaml", []byte(doc)))
}

func TestValidateReportsYAMLSyntax(t *testing.T) {
	errs := Check("broken.yaml", []byte("name: [unterminated\n"))
	require.NotEmpty(t, errs)
	assert.Equal(t, "yaml", errs[0].Field)
}

func TestSchemaErrorFormat(t *testing.T) {
	e := &SchemaError{Field: "steps.0.name", Message: "incomplete value"}
	assert.Equal(t, "steps.0.name: incomplete value", e.Error())
}

func TestSourceDefinesScenario(t *testing.T) {
	assert.Contains(t, Source(), "#Scenario")
}
