package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_ShowsHelp(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()

	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "vaultsearch")
	assert.Contains(t, output, "Usage:")
}

func TestRootCmd_ShowsVersion(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--version"})

	err := cmd.Execute()

	require.NoError(t, err)
	output := buf.String()
	hasVersion := strings.Contains(output, "0.") || strings.Contains(output, "dev")
	assert.True(t, hasVersion, "version output should contain a version number or 'dev'")
	assert.Contains(t, output, "vaultsearch")
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	cmd := NewRootCmd()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}

	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "index")
	assert.Contains(t, names, "search")
	assert.Contains(t, names, "archaeology")
	assert.Contains(t, names, "stats")
	assert.Contains(t, names, "status")
	assert.Contains(t, names, "config")
	assert.Contains(t, names, "version")
}

func TestRootCmd_HasOfflineFlag(t *testing.T) {
	cmd := NewRootCmd()
	flag := cmd.Flags().Lookup("offline")
	assert.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}

func TestRootCmd_HasReindexFlag(t *testing.T) {
	cmd := NewRootCmd()
	flag := cmd.Flags().Lookup("reindex")
	assert.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}

func TestSearchCmd_ShowsHelp(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"search", "--help"})

	err := cmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "search")
}

func TestArchaeologyCmd_ShowsHelp(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"archaeology", "--help"})

	err := cmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "archaeology")
}

func TestResolveVaultRoot_ExplicitFlagWins(t *testing.T) {
	dir := t.TempDir()

	root, err := resolveVaultRoot(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, root)
}

func TestResolveVaultRoot_FindsExistingStoreDirUpward(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, ".vaultsearch"), 0o755))
	sub := filepath.Join(base, "notes", "nested")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	oldDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(sub))
	defer func() { _ = os.Chdir(oldDir) }()

	root, err := resolveVaultRoot("")
	require.NoError(t, err)
	assert.Equal(t, base, root)
}

func TestResolveVaultRoot_FallsBackToCwd(t *testing.T) {
	dir := t.TempDir()
	oldDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(oldDir) }()

	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)

	root, err := resolveVaultRoot("")
	require.NoError(t, err)
	rootResolved, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	assert.Equal(t, resolved, rootResolved)
}
