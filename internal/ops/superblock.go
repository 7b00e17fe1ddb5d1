// Package ops implements the filesystem operations: format,
// create/delete/list directories, create/read/write/delete files, and the
// allocation, indirect-addressing, and directory-codec machinery they
// share. Operations read and write inode records and data blocks on the
// image directly; the group descriptor and both bitmaps are held in a
// State that LoadState reads once and that is written back only by
// State.Save, not at the end of each operation.
//
// Grounded on drivers/common/basedriver/driver.go's CommonDriver (path
// resolution, recursive deletion, scoped-buffer-with-rollback shape) and
// file_systems/unixv1/format.go (format-time layout via bytewriter).
package ops

import (
	"bytes"
	"encoding/binary"

	"github.com/extfs-project/extfs/internal/blockio"
	"github.com/extfs-project/extfs/internal/geometry"
	"github.com/extfs-project/extfs/internal/xerrors"
)

const SuperblockBlock = 0

// RawSuperblock is the packed on-disk superblock record.
type RawSuperblock struct {
	TotalBlocks    uint32
	TotalInodes    uint32
	BlockSize      uint32
	InodeSize      uint32
	BlocksPerGroup uint32
	InodesPerGroup uint32
	FirstDataBlock uint32
	FSUUID         [16]byte
	VolumeName     [32]byte
	MagicNumber    uint32
}

// Superblock is the constant geometry record, written once at format time
// and validated on every subsequent mount.
type Superblock struct {
	Geometry geometry.Geometry
	FSUUID   [16]byte
}

func superblockToRaw(sb Superblock) RawSuperblock {
	raw := RawSuperblock{
		TotalBlocks:    sb.Geometry.BlocksCount,
		TotalInodes:    sb.Geometry.InodesCount,
		BlockSize:      sb.Geometry.BlockSize,
		InodeSize:      sb.Geometry.InodeSize,
		BlocksPerGroup: sb.Geometry.BlocksPerGroup,
		InodesPerGroup: sb.Geometry.InodesPerGroup,
		FirstDataBlock: sb.Geometry.FirstDataBlock(),
		FSUUID:         sb.FSUUID,
		MagicNumber:    geometry.MagicNumber,
	}
	copy(raw.VolumeName[:], sb.Geometry.VolumeName)
	return raw
}

func rawToSuperblock(raw RawSuperblock) Superblock {
	return Superblock{
		Geometry: geometry.Geometry{
			BlocksCount:    raw.TotalBlocks,
			InodesCount:    raw.TotalInodes,
			BlockSize:      raw.BlockSize,
			InodeSize:      raw.InodeSize,
			BlocksPerGroup: raw.BlocksPerGroup,
			InodesPerGroup: raw.InodesPerGroup,
			VolumeName:     cstring(raw.VolumeName[:]),
		},
		FSUUID: raw.FSUUID,
	}
}

func cstring(b []byte) string {
	n := bytes.IndexByte(b, 0)
	if n < 0 {
		return string(b)
	}
	return string(b[:n])
}

// WriteSuperblock serializes sb into block 0.
func WriteSuperblock(dev *blockio.Device, sb Superblock) error {
	raw := superblockToRaw(sb)
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.LittleEndian, &raw); err != nil {
		return xerrors.EIO.WrapError(err)
	}
	block := make([]byte, dev.BlockSize())
	copy(block, buf.Bytes())
	return dev.WriteBlock(SuperblockBlock, block)
}

// ReadSuperblock reads and validates block 0, failing with EINVAL if the
// magic number doesn't match.
func ReadSuperblock(dev *blockio.Device) (Superblock, error) {
	block, err := dev.ReadBlock(SuperblockBlock)
	if err != nil {
		return Superblock{}, err
	}

	var raw RawSuperblock
	size := binary.Size(raw)
	if err := binary.Read(bytes.NewReader(block[:size]), binary.LittleEndian, &raw); err != nil {
		return Superblock{}, xerrors.EIO.WrapError(err)
	}
	if raw.MagicNumber != geometry.MagicNumber {
		return Superblock{}, xerrors.EINVAL.WithMessage("bad magic number: image is not an extfs filesystem")
	}
	return rawToSuperblock(raw), nil
}
