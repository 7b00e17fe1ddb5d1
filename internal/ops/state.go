package ops

import (
	"github.com/extfs-project/extfs/internal/bitmap"
	"github.com/extfs-project/extfs/internal/blockio"
	"github.com/extfs-project/extfs/internal/geometry"
	"github.com/extfs-project/extfs/internal/inode"
)

// State is the in-memory image of everything a filesystem operation needs:
// the group descriptor, both allocation bitmaps, and a handle to the inode
// table. LoadState reads it once; operations then change the group
// descriptor and bitmaps in memory only, and those reach the image when
// Save runs (at the end of Format, and on extfs.Session.Close). Operations
// do not reload it at entry or save it at exit. Inode records and data
// blocks are read from and written to the image directly as each
// operation runs.
type State struct {
	Dev         *blockio.Device
	Geom        geometry.Geometry
	GD          GroupDescriptor
	DataBitmap  *bitmap.Bitmap
	InodeBitmap *bitmap.Bitmap
	Table       *inode.Table
}

// LoadState reads the group descriptor, both bitmaps, and attaches an
// inode table view, validating the superblock along the way.
func LoadState(dev *blockio.Device) (*State, error) {
	sb, err := ReadSuperblock(dev)
	if err != nil {
		return nil, err
	}
	geom := sb.Geometry

	gd, err := ReadGroupDescriptor(dev)
	if err != nil {
		return nil, err
	}

	dataBitmapBlock, err := dev.ReadBlock(gd.BlockBitmapBlock)
	if err != nil {
		return nil, err
	}
	inodeBitmapBlock, err := dev.ReadBlock(gd.InodeBitmapBlock)
	if err != nil {
		return nil, err
	}

	dataBitmap := bitmap.FromBytes(dataBitmapBlock, int(geom.TotalDataBlocks()))
	inodeBitmap := bitmap.FromBytes(inodeBitmapBlock, int(geom.InodesCount))

	table := inode.NewTable(dev, gd.InodeTableBlock, geom.InodesCount)

	return &State{
		Dev:         dev,
		Geom:        geom,
		GD:          gd,
		DataBitmap:  dataBitmap,
		InodeBitmap: inodeBitmap,
		Table:       table,
	}, nil
}

// Save writes back the group descriptor and both bitmaps. The inode table
// is written incrementally by callers (via Table.Write/Clear) as they
// mutate specific slots, so it has no bulk save step here.
func (s *State) Save() error {
	if err := WriteGroupDescriptor(s.Dev, s.GD); err != nil {
		return err
	}
	if err := s.Dev.WriteBlock(s.GD.BlockBitmapBlock, padToBlockSize(s.DataBitmap.Bytes(), s.Dev.BlockSize())); err != nil {
		return err
	}
	if err := s.Dev.WriteBlock(s.GD.InodeBitmapBlock, padToBlockSize(s.InodeBitmap.Bytes(), s.Dev.BlockSize())); err != nil {
		return err
	}
	return nil
}

func padToBlockSize(data []byte, blockSize uint32) []byte {
	if uint32(len(data)) == blockSize {
		return data
	}
	out := make([]byte, blockSize)
	copy(out, data)
	return out
}
