package main

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const accessLog = `10.0.0.5 - - [10/Oct/2023:13:55:36] "GET / HTTP/1.1" 200
10.0.0.5 - - [10/Oct/2023:13:55:37] "GET /a HTTP/1.1" 200
10.0.0.6 - - [10/Oct/2023:13:55:38] "GET /b HTTP/1.1" 404
10.0.0.5 - - [10/Oct/2023:13:55:39] "GET /c HTTP/1.1" 200
`

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "access.log")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	return out.String(), err
}

func TestTallyPrintsGroups(t *testing.T) {
	path := writeLog(t, accessLog)

	out, err := execute(t, "--log", path)
	require.NoError(t, err)
	assert.Equal(t, "5 subnetwork has the following ip addresses\n"+
		"10.0.0.5 = 3\n"+
		"\n"+
		"6 subnetwork has the following ip addresses\n"+
		"10.0.0.6 = 1\n"+
		"\n", out)
}

func TestTallyPositionalLogAndTable(t *testing.T) {
	path := writeLog(t, accessLog)

	out, err := execute(t, path, "--layout", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "10.0.0.5")
	assert.Contains(t, out, "10.0.0.6")
}

func TestTallyEmptyLog(t *testing.T) {
	out, err := execute(t, "--log", writeLog(t, ""))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestTallyMissingLog(t *testing.T) {
	_, err := execute(t, "--log", filepath.Join(t.TempDir(), "missing.log"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestTallyStoresToSQLite(t *testing.T) {
	path := writeLog(t, accessLog)
	dir := t.TempDir()
	t.Setenv("HARVESTER_STORAGE_PATH", dir)

	_, err := execute(t, "--log", path, "--storage", "sqlite")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "harvester.db"))
}

func TestTallyWritesReport(t *testing.T) {
	path := writeLog(t, accessLog)
	report := filepath.Join(t.TempDir(), "tally.csv")

	_, err := execute(t, "--log", path, "--format", "csv", "--output", report)
	require.NoError(t, err)

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Equal(t, "subnet_key,ip,count\n5,10.0.0.5,3\n6,10.0.0.6,1\n", string(data))
}
