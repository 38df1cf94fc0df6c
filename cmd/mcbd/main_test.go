package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandHomeLeavesAbsolutePathUnchanged(t *testing.T) {
	got, err := expandHome("/data/mcb.db")
	require.NoError(t, err)
	assert.Equal(t, "/data/mcb.db", got)
}

func TestExpandHomeResolvesTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandHome("~/.config/contextd/mcb.db")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config/contextd/mcb.db"), got)
}
