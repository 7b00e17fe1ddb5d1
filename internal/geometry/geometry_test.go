package geometry_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/extfs-project/extfs/internal/geometry"
)

func TestDefaultGeometryLayout(t *testing.T) {
	g := geometry.DefaultGeometry()
	require.NoError(t, g.Validate())

	require.Equal(t, uint32(176), g.InodeTableBlocks())
	require.Equal(t, uint32(181), g.FirstDataBlock())
	require.Equal(t, uint32(32768-181), g.TotalDataBlocks())
}

func TestDataBlockIDRoundTrip(t *testing.T) {
	g := geometry.DefaultGeometry()
	physical := g.DataBlockIDToPhysical(5)
	require.Equal(t, g.FirstDataBlock()+5, physical)
	require.Equal(t, uint32(5), g.PhysicalToDataBlockID(physical))
}

func TestPresets(t *testing.T) {
	g, err := geometry.Preset("default")
	require.NoError(t, err)
	require.Equal(t, geometry.DefaultGeometry().BlocksCount, g.BlocksCount)

	_, err = geometry.Preset("nonexistent")
	require.Error(t, err)
}

func TestInvalidGeometry(t *testing.T) {
	g := geometry.Geometry{}
	require.Error(t, g.Validate())
}
