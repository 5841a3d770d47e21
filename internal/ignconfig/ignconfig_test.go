package ignconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveDataRootEnvOverride(t *testing.T) {
	t.Setenv("IGNITE_DATA_ROOT", "/tmp/ignite-data-override")
	require.Equal(t, "/tmp/ignite-data-override", ResolveDataRoot())
}

func TestResolveDataRootXDGFallback(t *testing.T) {
	t.Setenv("IGNITE_DATA_ROOT", "")
	t.Setenv("XDG_DATA_HOME", "/tmp/xdgdata")
	require.Equal(t, filepath.Join("/tmp/xdgdata", "padlokk", "ignite"), ResolveDataRoot())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	require.NotEmpty(t, cfg.DataRoot)
}

func TestLoadOverlaysTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`data_root = "/custom/root"`+"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/custom/root", cfg.DataRoot)
}

func TestLoadCommonPasswordsMissingIsNil(t *testing.T) {
	list, err := LoadCommonPasswords("")
	require.NoError(t, err)
	require.Nil(t, list)
}

func TestLoadCommonPasswordsYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "common.yaml")
	require.NoError(t, os.WriteFile(path, []byte("common_passwords:\n  - hunter2\n  - letmein\n"), 0o644))

	list, err := LoadCommonPasswords(path)
	require.NoError(t, err)
	require.Equal(t, []string{"hunter2", "letmein"}, list)
}
