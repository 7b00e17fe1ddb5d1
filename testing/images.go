// Package testing provides shared fixtures for extfs's own tests: in-memory
// disk images sized to a geometry, and compressed-fixture loading for tests
// that ship a packed reference image.
package testing

import (
	"bytes"
	"io"
	"testing"

	"github.com/extfs-project/extfs/internal/geometry"
	"github.com/extfs-project/extfs/utilities/compression"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

// NewMemoryImage allocates a zeroed in-memory stream sized exactly to hold
// geom's geometry, suitable for passing straight to extfs.Format or
// ops.Format in a test.
func NewMemoryImage(geom geometry.Geometry) io.ReadWriteSeeker {
	size := uint64(geom.BlockSize) * uint64(geom.BlocksCount)
	return bytesextra.NewReadWriteSeeker(make([]byte, size))
}

// LoadDiskImage takes a compressed disk image and returns a stream to access the
// uncompressed data.
//
//   - Writes to the stream do not affect `compressedImageBytes`.
//   - While the stream can be written to, its size is fixed to `sectorSize * totalSectors`.
//     Attempting to write past the end of this buffer will trigger an error.
func LoadDiskImage(
	t *testing.T, compressedImageBytes []byte, sectorSize, totalSectors uint,
) io.ReadWriteSeeker {
	compressedBuf := bytes.NewBuffer(compressedImageBytes)
	require.Greater(t, len(compressedImageBytes), 0, "compressed image is empty")

	imageBytes, err := compression.DecompressImageToBytes(compressedBuf)
	require.NoError(t, err)

	require.Equal(
		t,
		totalSectors*sectorSize,
		uint(len(imageBytes)),
		"uncompressed image is wrong size",
	)
	return bytesextra.NewReadWriteSeeker(imageBytes)
}
