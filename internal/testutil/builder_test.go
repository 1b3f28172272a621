package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilder_InsertsFixturesInOrder(t *testing.T) {
	db := NewDB(t)

	NewBuilder(t, db).
		WithRegistry("core", "file:///core.yaml").
		WithPackage("core", "tool", "1.0.0",
			WithDescription("a tool"),
			WithSource("https://example.com/tool-1.0.0.tar.gz"),
			WithBuild("make install"),
			WithArtifacts("bin/tool")).
		WithPackage("core", "tool", "1.1.0").
		WithWorkspace("dev").
		WithBinding("dev", "tool", "1.0.0", "~1").
		WithInstalled("tool", "1.0.0").
		Build()

	reg, err := db.Registries().FindByName("core")
	require.NoError(t, err)
	require.Equal(t, "file:///core.yaml", reg.URI)

	pkg, err := db.KnownPackages().Find("tool", "1.0.0")
	require.NoError(t, err)
	require.Equal(t, "a tool", pkg.Description)
	require.Equal(t, []string{"bin/tool"}, pkg.Artifacts)

	binding, err := db.Workspaces().FindBinding("dev", "tool")
	require.NoError(t, err)
	require.Equal(t, "tool@1.0.0 (resolved from ~1)", binding.Display())

	exists, err := db.Installed().Exists("tool", "1.0.0")
	require.NoError(t, err)
	require.True(t, exists)
}
