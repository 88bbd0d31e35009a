package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const nspFixture = "%DataLog%\nTime,RPM,MAP\n0,800,95\n10,1200,100\n20,1600,105\n"

func writeFixtureLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "a.csv")
	require.NoError(t, os.WriteFile(path, []byte(nspFixture), 0o644))
	return path
}

// writeConfigDir writes an ultralog.yaml pointing data_dir at a fresh temp
// directory, so commands that touch the computed-channel library never
// write outside the test sandbox.
func writeConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ultralog.yaml"), []byte("data_dir: "+dataDir+"\n"), 0o644))
	return dir
}

// runCmd executes root with args against a fresh config dir and returns
// combined stdout/stderr.
func runCmd(t *testing.T, configDir string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(append([]string{"--config-dir", configDir}, args...))
	err := root.Execute()
	return buf.String(), err
}
