package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("EHS_DATABASE_PATH", filepath.Join(dir, "ehs.db"))
	t.Setenv("EHS_EVIDENCE_BASE_DIR", filepath.Join(dir, "evidence"))
	t.Setenv("EHS_LOGGER_OUTPUT_PATH", filepath.Join(dir, "ehs.log"))

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", "", "--env-file", ""}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrateCommand(t *testing.T) {
	out, err := runCmd(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "migrations applied (sqlite)")
}

func TestRolesCommands(t *testing.T) {
	out, err := runCmd(t, "roles", "set", "u1", "admin")
	require.NoError(t, err)
	assert.Contains(t, out, "u1 -> admin")

	_, err = runCmd(t, "roles", "profile", "u1")
	assert.Error(t, err, "client is required")
}

func TestRoleSetArgs(t *testing.T) {
	_, err := runCmd(t, "roles", "set", "only-user")
	assert.Error(t, err)
}
