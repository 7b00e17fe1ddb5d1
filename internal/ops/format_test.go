package ops_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/extfs-project/extfs/internal/inode"
)

// S1: formatting a fresh image leaves the root directory at inode 0,
// file_type directory, a minimal "."/".." block, exactly one data block
// allocated, and the free-inode/used-dirs counters reflecting it.
func TestFormatRootDirectory(t *testing.T) {
	state := newFormattedState(t)

	root, err := state.Table.Read(0)
	require.NoError(t, err)
	require.True(t, root.IsDirectory())
	require.Equal(t, uint64(4+2*264), root.FileSize)
	require.NotZero(t, root.Blocks[0])
	for _, b := range root.Blocks[1:] {
		require.Zero(t, b)
	}
	require.Zero(t, root.SingleIndirect)
	require.Zero(t, root.DoubleIndirect)

	require.Equal(t, state.Geom.InodesCount-1, state.GD.FreeInodesCount)
	require.Equal(t, uint32(1), state.GD.UsedDirsCount)

	block, _, err := state.ReadDirectory(0)
	require.NoError(t, err)
	require.Len(t, block.Entries, 2)
	require.Equal(t, ".", block.Entries[0].Name)
	require.Equal(t, uint32(0), block.Entries[0].Inode)
	require.Equal(t, "..", block.Entries[1].Name)
	require.Equal(t, uint32(0), block.Entries[1].Inode)
	require.Equal(t, inode.FileTypeDirectory, block.Entries[0].FileType)
}

func TestFormatInvariants(t *testing.T) {
	state := newFormattedState(t)

	report, err := state.CheckConsistency()
	require.NoError(t, err)
	require.True(t, report.OK(), "%v", report.Problems)
}
