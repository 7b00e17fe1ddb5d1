// Package inode implements the on-disk inode record and the inode table:
// a fixed-size array of inode records persisted in a contiguous run of
// blocks, plus packed little-endian marshaling matching the specification's
// 88-byte record layout.
//
// Modeled on drivers/unixv1/inode.go's RawInode / Inode pair and its
// RawInodeToInode / InodeToRawInode conversion functions, generalized from
// the UNIX v1 8-direct-block layout to the spec's 12-direct +
// single-indirect + double-indirect layout.
package inode

import (
	"bytes"
	"encoding/binary"

	"github.com/extfs-project/extfs/internal/xerrors"
)

const (
	DirectBlockCount = 12
	Size             = 88

	FileTypeRegular   = uint8(0)
	FileTypeDirectory = uint8(1)
)

// RawInode is the exact 88-byte packed on-disk representation of an inode.
type RawInode struct {
	InodeNumber    uint32
	FileSize       uint64
	Blocks         [DirectBlockCount]uint32
	SingleIndirect uint32
	DoubleIndirect uint32
	FileType       uint8
	Permissions    uint32
	Reserved       [15]byte
}

// Inode is the in-memory, easier-to-work-with form of a RawInode.
type Inode struct {
	InodeNumber    uint32
	FileSize       uint64
	Blocks         [DirectBlockCount]uint32
	SingleIndirect uint32
	DoubleIndirect uint32
	FileType       uint8
	Permissions    uint32
}

func (n Inode) IsDirectory() bool {
	return n.FileType == FileTypeDirectory
}

func (n Inode) IsRegular() bool {
	return n.FileType == FileTypeRegular
}

// looksEmpty reports whether this inode slot has zero size and no block
// pointers. An unallocated slot is entirely zeroed, but inode numbers are
// 0-origin and a freshly allocated inode also has zero size and no blocks,
// so this local signal cannot tell an allocated slot from a free one —
// callers must consult the inode bitmap to know whether a slot is
// allocated. Nothing in the module calls this helper.
func (n Inode) looksEmpty() bool {
	if n.FileSize != 0 || n.SingleIndirect != 0 || n.DoubleIndirect != 0 {
		return false
	}
	for _, b := range n.Blocks {
		if b != 0 {
			return false
		}
	}
	return true
}

func ToRaw(n Inode) RawInode {
	return RawInode{
		InodeNumber:    n.InodeNumber,
		FileSize:       n.FileSize,
		Blocks:         n.Blocks,
		SingleIndirect: n.SingleIndirect,
		DoubleIndirect: n.DoubleIndirect,
		FileType:       n.FileType,
		Permissions:    n.Permissions,
	}
}

func FromRaw(raw RawInode) Inode {
	return Inode{
		InodeNumber:    raw.InodeNumber,
		FileSize:       raw.FileSize,
		Blocks:         raw.Blocks,
		SingleIndirect: raw.SingleIndirect,
		DoubleIndirect: raw.DoubleIndirect,
		FileType:       raw.FileType,
		Permissions:    raw.Permissions,
	}
}

// Marshal serializes an inode to its exact 88-byte on-disk form.
func Marshal(n Inode) []byte {
	raw := ToRaw(n)
	buf := &bytes.Buffer{}
	// RawInode's field sizes are fixed-width regardless of host alignment,
	// so binary.Write always produces exactly Size bytes.
	if err := binary.Write(buf, binary.LittleEndian, &raw); err != nil {
		panic("inode: marshal of fixed-size struct cannot fail: " + err.Error())
	}
	return buf.Bytes()
}

// Unmarshal parses an 88-byte on-disk inode record.
func Unmarshal(data []byte) (Inode, error) {
	if len(data) != Size {
		return Inode{}, xerrors.EINVAL.WithMessage("inode record must be exactly 88 bytes")
	}
	var raw RawInode
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &raw); err != nil {
		return Inode{}, xerrors.EIO.WrapError(err)
	}
	return FromRaw(raw), nil
}
