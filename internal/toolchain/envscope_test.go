package toolchain

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnvScope_ActivateAndRestore(t *testing.T) {
	const key = "FORGE_TEST_ENVSCOPE_VAR"
	require.NoError(t, os.Unsetenv(key))

	scope := NewEnvScope()
	scope.Activate(map[string]string{key: "active"})
	require.Equal(t, "active", os.Getenv(key))

	scope.Restore()
	_, ok := os.LookupEnv(key)
	require.False(t, ok)
}

func TestEnvScope_RestoresPriorValue(t *testing.T) {
	const key = "FORGE_TEST_ENVSCOPE_PRIOR"
	require.NoError(t, os.Setenv(key, "before"))
	defer os.Unsetenv(key)

	scope := NewEnvScope()
	scope.Activate(map[string]string{key: "after"})
	require.Equal(t, "after", os.Getenv(key))

	scope.Restore()
	require.Equal(t, "before", os.Getenv(key))
}
