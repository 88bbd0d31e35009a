package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLibraryCommand_AddListRemoveRoundTrip(t *testing.T) {
	dir := writeConfigDir(t)

	out, err := runCmd(t, dir, "library", "add", "--name", "BOOST", "--formula", "MAP-100", "--unit", "kPa")
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	out, err = runCmd(t, dir, "library", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "BOOST")
	assert.Contains(t, out, "MAP-100")

	_, err = runCmd(t, dir, "library", "remove", id)
	require.NoError(t, err)

	out, err = runCmd(t, dir, "library", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "BOOST")
}

func TestLibraryCommand_ApplyInstantiatesCompatibleTemplates(t *testing.T) {
	dir := writeConfigDir(t)
	path := writeFixtureLog(t)

	_, err := runCmd(t, dir, "library", "add", "--name", "DELTA", "--formula", "MAP-RPM", "--unit", "x")
	require.NoError(t, err)

	out, err := runCmd(t, dir, "library", "apply", path)
	require.NoError(t, err)
	assert.Contains(t, out, "DELTA")
}
