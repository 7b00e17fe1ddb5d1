package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/extfs-project/extfs"
	"github.com/extfs-project/extfs/internal/geometry"
	fixtures "github.com/extfs-project/extfs/testing"
)

func TestShellLoopBasicCommands(t *testing.T) {
	geom, err := geometry.Preset("tiny")
	require.NoError(t, err)

	stream := fixtures.NewMemoryImage(geom)
	require.NoError(t, extfs.Format(stream, geom))

	script := strings.Join([]string{
		"mkdir docs",
		"cd docs",
		"cf readme txt hello",
		"rf readme.txt",
		"cd ..",
		"ls",
		"fsck",
		"exit",
	}, "\n") + "\n"

	var out bytes.Buffer
	require.NoError(t, runShellLoop(stream, strings.NewReader(script), &out))

	transcript := out.String()
	require.Contains(t, transcript, "hello")
	require.Contains(t, transcript, "docs")
	require.Contains(t, transcript, "no problems found")
}

func TestShellLoopUnknownCommandReportsError(t *testing.T) {
	geom, err := geometry.Preset("tiny")
	require.NoError(t, err)

	stream := fixtures.NewMemoryImage(geom)
	require.NoError(t, extfs.Format(stream, geom))

	var out bytes.Buffer
	require.NoError(t, runShellLoop(stream, strings.NewReader("bogus\nexit\n"), &out))
	require.Contains(t, out.String(), "unknown command")
}

// rm -d always removes recursively, so a directory holding a file is
// removed cleanly rather than rejected.
func TestShellLoopRemoveDirectoryRecursively(t *testing.T) {
	geom, err := geometry.Preset("tiny")
	require.NoError(t, err)

	stream := fixtures.NewMemoryImage(geom)
	require.NoError(t, extfs.Format(stream, geom))

	script := strings.Join([]string{
		"mkdir d",
		"cd d",
		"cf x txt hi",
		"cd ..",
		"rm -d d",
		"ls",
		"exit",
	}, "\n") + "\n"

	var out bytes.Buffer
	require.NoError(t, runShellLoop(stream, strings.NewReader(script), &out))
	require.NotContains(t, out.String(), "error:")
	require.NotContains(t, out.String(), " d\n")
}
