package inode

import (
	"github.com/extfs-project/extfs/internal/blockio"
	"github.com/extfs-project/extfs/internal/xerrors"
)

// Table is a view over the inode table's fixed-size array of inode
// records, persisted in a contiguous run of blocks starting at
// firstBlock. Inode records don't divide evenly into blocks, so all
// access goes through blockio's byte-range (not block-bounded) I/O.
type Table struct {
	dev        *blockio.Device
	firstBlock uint32
	count      uint32
}

func NewTable(dev *blockio.Device, firstBlock, count uint32) *Table {
	return &Table{dev: dev, firstBlock: firstBlock, count: count}
}

func (t *Table) byteOffset(index uint32) int64 {
	return int64(t.firstBlock)*int64(t.dev.BlockSize()) + int64(index)*Size
}

func (t *Table) checkIndex(index uint32) error {
	if index >= t.count {
		return xerrors.ERANGE.WithMessage("inode index out of range")
	}
	return nil
}

// Read returns the inode record at index.
func (t *Table) Read(index uint32) (Inode, error) {
	if err := t.checkIndex(index); err != nil {
		return Inode{}, err
	}
	buf := make([]byte, Size)
	if err := t.dev.ReadRange(t.byteOffset(index), buf); err != nil {
		return Inode{}, err
	}
	return Unmarshal(buf)
}

// Write persists the inode record at index.
func (t *Table) Write(index uint32, n Inode) error {
	if err := t.checkIndex(index); err != nil {
		return err
	}
	return t.dev.WriteRange(t.byteOffset(index), Marshal(n))
}

// Clear zeroes out the inode record at index, used when an inode is
// deallocated.
func (t *Table) Clear(index uint32) error {
	if err := t.checkIndex(index); err != nil {
		return err
	}
	return t.dev.WriteRange(t.byteOffset(index), make([]byte, Size))
}

// Count returns the total number of inode slots.
func (t *Table) Count() uint32 {
	return t.count
}
