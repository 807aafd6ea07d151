package mover

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsUserError(t *testing.T) {
	errEmpty := NewUserError("empty")

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"user error", errEmpty, true},
		{"wrapped", fmt.Errorf("create: %w", errEmpty), true},
		{"plain", errors.New("upstream down"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsUserError(tt.err))
		})
	}

	require.ErrorIs(t, fmt.Errorf("x: %w", errEmpty), errEmpty)
}
