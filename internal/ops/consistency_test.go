package ops_test

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckConsistencyDetectsCounterDrift(t *testing.T) {
	state := newFormattedState(t)

	_, err := state.CreateFile(0, "f", "txt", 0o644, []byte("hello"))
	require.NoError(t, err)

	state.GD.FreeInodesCount++ // corrupt the counter without touching the bitmap

	report, err := state.CheckConsistency()
	require.NoError(t, err)
	require.False(t, report.OK())

	found := false
	for _, p := range report.Problems {
		if p.Code == "free-inodes-count-mismatch" {
			found = true
		}
	}
	require.True(t, found, "%v", report.Problems)
}

func TestCheckConsistencyDetectsSharedBlock(t *testing.T) {
	state := newFormattedState(t)

	aInode, err := state.CreateFile(0, "a", "txt", 0o644, []byte("hello"))
	require.NoError(t, err)
	bInode, err := state.CreateFile(0, "b", "txt", 0o644, []byte("world"))
	require.NoError(t, err)

	aNode, err := state.Table.Read(aInode)
	require.NoError(t, err)
	bNode, err := state.Table.Read(bInode)
	require.NoError(t, err)

	bNode.Blocks[0] = aNode.Blocks[0] // force a collision
	require.NoError(t, state.Table.Write(bInode, bNode))

	report, err := state.CheckConsistency()
	require.NoError(t, err)
	require.False(t, report.OK())

	found := false
	for _, p := range report.Problems {
		if p.Code == "shared-data-block" {
			found = true
		}
	}
	require.True(t, found, "%v", report.Problems)
}
