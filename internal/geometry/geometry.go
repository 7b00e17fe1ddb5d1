// Package geometry defines the constant disk layout of an extfs image:
// block size, block and inode counts, and the derived on-disk offsets
// these imply. Format-time configuration is passed around as a Geometry
// value rather than as raw magic numbers, per the redesign direction in
// the specification (replace initialize_descriptor_block's raw constants
// with an enumerated configuration).
//
// Modeled on file_systems/unixv1/format.go's Format(stat disko.FSStat),
// which takes a configuration value instead of literal numbers.
package geometry

import "fmt"

const MagicNumber uint32 = 0xEF53

// Geometry is the constant geometry record written once at format time and
// validated on every subsequent mount.
type Geometry struct {
	BlockSize      uint32
	BlocksCount    uint32
	InodesCount    uint32
	InodeSize      uint32
	BlocksPerGroup uint32
	InodesPerGroup uint32
	VolumeName     string
}

// DefaultGeometry returns the geometry mandated by the specification: a
// 128 MiB image with 4096-byte blocks and 8192 inodes.
func DefaultGeometry() Geometry {
	return Geometry{
		BlockSize:      4096,
		BlocksCount:    32768,
		InodesCount:    8192,
		InodeSize:      88,
		BlocksPerGroup: 32768,
		InodesPerGroup: 8192,
	}
}

// ceilDiv divides a by b, rounding up.
func ceilDiv(a, b uint32) uint32 {
	return (a + b - 1) / b
}

// InodeTableBlocks returns the number of blocks occupied by the inode table.
func (g Geometry) InodeTableBlocks() uint32 {
	return ceilDiv(g.InodesCount*g.InodeSize, g.BlockSize)
}

// FirstDataBlock returns the first block id available for directory and
// file data: 4 fixed blocks (superblock, group descriptor, two bitmaps),
// then the inode table, then one reserved/padding block.
func (g Geometry) FirstDataBlock() uint32 {
	return 4 + g.InodeTableBlocks() + 1
}

// TotalDataBlocks returns the number of data-block ids in [0, N), i.e. the
// length the data-block bitmap must cover.
func (g Geometry) TotalDataBlocks() uint32 {
	return g.BlocksCount - g.FirstDataBlock()
}

// Validate checks internal consistency: there must be room for the fixed
// blocks, the inode table, and at least one data block.
func (g Geometry) Validate() error {
	if g.BlockSize == 0 || g.InodesCount == 0 || g.BlocksCount == 0 || g.InodeSize == 0 {
		return fmt.Errorf("geometry fields must be non-zero")
	}
	if g.FirstDataBlock() >= g.BlocksCount {
		return fmt.Errorf(
			"geometry leaves no room for data blocks: first data block %d >= total blocks %d",
			g.FirstDataBlock(), g.BlocksCount)
	}
	if len(g.VolumeName) > 31 {
		return fmt.Errorf("volume name %q exceeds 31 bytes", g.VolumeName)
	}
	return nil
}

// DataBlockIDToPhysical converts a data-block id (a data-bitmap index) to
// the physical block address it represents on the image.
func (g Geometry) DataBlockIDToPhysical(id uint32) uint32 {
	return g.FirstDataBlock() + id
}

// PhysicalToDataBlockID is the inverse of DataBlockIDToPhysical.
func (g Geometry) PhysicalToDataBlockID(physical uint32) uint32 {
	return physical - g.FirstDataBlock()
}
