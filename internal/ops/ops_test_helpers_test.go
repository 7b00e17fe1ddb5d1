package ops_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/extfs-project/extfs/internal/blockio"
	"github.com/extfs-project/extfs/internal/geometry"
	"github.com/extfs-project/extfs/internal/ops"
	fixtures "github.com/extfs-project/extfs/testing"
)

// newFormattedState formats a fresh "tiny" image and loads its state,
// giving each test a small, fast, independent filesystem to operate on.
func newFormattedState(t *testing.T) *ops.State {
	t.Helper()

	geom, err := geometry.Preset("tiny")
	require.NoError(t, err)

	stream := fixtures.NewMemoryImage(geom)
	dev := blockio.New(stream, geom.BlockSize, geom.BlocksCount)

	require.NoError(t, ops.Format(dev, geom))

	state, err := ops.LoadState(dev)
	require.NoError(t, err)
	return state
}
