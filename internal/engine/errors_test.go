package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/weft/internal/reactive"
	"github.com/roach88/weft/internal/view"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want PassErrorCode
	}{
		{fmt.Errorf("read: %w", reactive.ErrStaleHandle), ErrCodeStaleHandle},
		{fmt.Errorf("read: %w", reactive.ErrTypeMismatch), ErrCodeTypeMismatch},
		{fmt.Errorf("read: %w", reactive.ErrMissingSource), ErrCodeMissingSource},
		{fmt.Errorf("diff: %w", view.ErrReconciliation), ErrCodeReconciliation},
		{errors.New("boom"), ErrCodeTemplate},
	}
	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestPassError(t *testing.T) {
	ne := view.NodeError{Node: 4, Kind: view.KindList, Err: fmt.Errorf("duplicate key a: %w", view.ErrReconciliation)}
	pe := NewPassError("pass-9", ne)

	assert.Equal(t, "RECONCILIATION: duplicate key a: list reconciliation failed (pass=pass-9, node=n4)", pe.Error())
	assert.True(t, IsReconciliation(fmt.Errorf("wrapped: %w", pe)))
	assert.False(t, IsStaleHandle(pe))
	assert.ErrorIs(t, pe, view.ErrReconciliation)

	pe.PassToken = ""
	assert.Equal(t, "RECONCILIATION: duplicate key a: list reconciliation failed (node=n4)", pe.Error())
}
