package cmd

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExitCodeFor(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"generic", errors.New("boom"), 1},
		{"cli error", newCLIError("bad input: %s", "x"), 2},
		{"wrapped cli error", fmt.Errorf("context: %w", newCLIError("bad")), 2},
		{"cancelled", context.Canceled, 130},
		{"wrapped cancelled", fmt.Errorf("build: %w", context.Canceled), 130},
		{"forwarded child code", exitCodeError{code: 7, err: errors.New("exit status 7")}, 7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ExitCodeFor(tc.err))
		})
	}
}

func TestCLIError_Unwrap(t *testing.T) {
	inner := errors.New("schema invalid")
	err := newCLIError("%w", inner)
	var cli cliError
	require.True(t, errors.As(err, &cli))
	require.ErrorIs(t, err, inner)
}
