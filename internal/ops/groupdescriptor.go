package ops

import (
	"bytes"
	"encoding/binary"

	"github.com/extfs-project/extfs/internal/blockio"
	"github.com/extfs-project/extfs/internal/xerrors"
)

const GroupDescriptorBlock = 1
const DataBitmapBlock = 2
const InodeBitmapBlock = 3

// GroupDescriptor holds the mutable counters and fixed pointers to the two
// bitmaps and the inode table for the filesystem's single block group.
type GroupDescriptor struct {
	BlockBitmapBlock uint32
	InodeBitmapBlock uint32
	InodeTableBlock  uint32
	FreeBlocksCount  uint32
	FreeInodesCount  uint32
	UsedDirsCount    uint32
}

func WriteGroupDescriptor(dev *blockio.Device, gd GroupDescriptor) error {
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.LittleEndian, &gd); err != nil {
		return xerrors.EIO.WrapError(err)
	}
	block := make([]byte, dev.BlockSize())
	copy(block, buf.Bytes())
	return dev.WriteBlock(GroupDescriptorBlock, block)
}

func ReadGroupDescriptor(dev *blockio.Device) (GroupDescriptor, error) {
	block, err := dev.ReadBlock(GroupDescriptorBlock)
	if err != nil {
		return GroupDescriptor{}, err
	}
	var gd GroupDescriptor
	size := binary.Size(gd)
	if err := binary.Read(bytes.NewReader(block[:size]), binary.LittleEndian, &gd); err != nil {
		return GroupDescriptor{}, xerrors.EIO.WrapError(err)
	}
	return gd, nil
}
