package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExpr(t *testing.T) {
	tests := []struct {
		in   string
		want expr
	}{
		{"res:title", expr{kind: exprResource, arg: "title"}},
		{"cell:count", expr{kind: exprCell, arg: "count"}},
		{"inherit:attr:theme", expr{kind: exprInherit, arg: "attr:theme"}},
		{"index", expr{kind: exprIndex}},
		{"item", expr{kind: exprItem}},
		{"item.owner.name", expr{kind: exprItem, path: []string{"owner", "name"}}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseExpr(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "res:", "items", "item.", "item..x", "cell:"} {
		_, err := parseExpr(bad)
		assert.Error(t, err, bad)
	}
}

func TestTruthy(t *testing.T) {
	for _, v := range []any{true, 1, 0.5, "x", []any{1}, map[string]any{"a": 1}} {
		assert.True(t, truthy(v), "%#v", v)
	}
	for _, v := range []any{nil, false, 0, 0.0, "", []any{}, map[string]any{}} {
		assert.False(t, truthy(v), "%#v", v)
	}
}

func TestPlaceholder(t *testing.T) {
	got := placeholder.FindAllStringSubmatch("{{ res:a }} and {{item.b}}", -1)
	require.Len(t, got, 2)
	assert.Equal(t, "res:a", got[0][1])
	assert.Equal(t, "item.b", got[1][1])
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "", format(nil))
	assert.Equal(t, "x", format("x"))
	assert.Equal(t, "42", format(42))
	assert.Equal(t, "[a b]", format([]any{"a", "b"}))
}
