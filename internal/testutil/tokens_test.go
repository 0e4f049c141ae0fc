package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeqTokens(t *testing.T) {
	g := NewSeqTokens("")
	assert.Equal(t, "pass-1", g.Generate())
	assert.Equal(t, "pass-2", g.Generate())

	named := NewSeqTokens("todo")
	assert.Equal(t, "todo-1", named.Generate())
}

func TestDiscardLogger(t *testing.T) {
	log := DiscardLogger()
	log.Error("dropped", "k", "v")
	assert.NotNil(t, log)
}
