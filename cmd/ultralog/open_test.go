package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCommand_ReportsChannelCount(t *testing.T) {
	dir := writeConfigDir(t)
	path := writeFixtureLog(t)

	out, err := runCmd(t, dir, "open", path)
	require.NoError(t, err)
	assert.Contains(t, out, "2 channels")
	assert.Contains(t, out, "3 records")
}

func TestOpenCommand_MissingFileErrors(t *testing.T) {
	dir := writeConfigDir(t)

	_, err := runCmd(t, dir, "open", "/no/such/file.csv")
	assert.Error(t, err)
}
