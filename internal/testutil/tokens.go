package testutil

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// SeqTokens issues "<prefix>-1", "<prefix>-2", ... as pass tokens. Unlike
// engine.FixedGenerator it never runs out, which suits scenarios whose pass
// count is not known up front.
type SeqTokens struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSeqTokens creates a generator. An empty prefix becomes "pass".
func NewSeqTokens(prefix string) *SeqTokens {
	if prefix == "" {
		prefix = "pass"
	}
	return &SeqTokens{prefix: prefix}
}

// Generate implements engine.PassTokenGenerator.
func (g *SeqTokens) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// DiscardLogger returns a logger that drops everything, for tests that
// exercise failure paths without flooding the output.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
