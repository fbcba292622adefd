//go:build unit

package bootstrap_test

import (
	"testing"

	"mentorbook/cmd/bootstrap"

	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
)

// Validates the dependency graph without connecting to anything; a missing
// provider or binding fails here instead of at startup.
func TestDependencyGraphResolves(t *testing.T) {
	require.NoError(t, fx.ValidateApp(bootstrap.Module))
}
