// The format operation: lay down a fresh superblock, group descriptor,
// zeroed bitmaps, and an empty inode table onto a blank image, then
// allocate and materialize the root directory.
//
// Grounded on file_systems/unixv1/format.go's Format, which writes a
// superblock-equivalent preamble with bytewriter and then seeds the root
// directory; FSUUID generation is new here (the teacher has no UUID of
// its own) and borrows github.com/google/uuid, the identifier library the
// rest of the example pack (direktiv-vorteil, diskfs-go-diskfs) reaches
// for whenever a filesystem needs a stable random identifier.
package ops

import (
	"github.com/google/uuid"

	"github.com/extfs-project/extfs/internal/bitmap"
	"github.com/extfs-project/extfs/internal/blockio"
	"github.com/extfs-project/extfs/internal/directory"
	"github.com/extfs-project/extfs/internal/geometry"
	"github.com/extfs-project/extfs/internal/inode"
)

// Format lays out geom onto dev: superblock, group descriptor, zeroed
// bitmaps, an empty inode table, and a root directory at inode 0.
func Format(dev *blockio.Device, geom geometry.Geometry) error {
	if err := geom.Validate(); err != nil {
		return err
	}

	id := uuid.New()
	var fsUUID [16]byte
	copy(fsUUID[:], id[:])

	sb := Superblock{Geometry: geom, FSUUID: fsUUID}
	if err := WriteSuperblock(dev, sb); err != nil {
		return err
	}

	gd := GroupDescriptor{
		BlockBitmapBlock: DataBitmapBlock,
		InodeBitmapBlock: InodeBitmapBlock,
		InodeTableBlock:  4,
		FreeBlocksCount:  geom.TotalDataBlocks(),
		FreeInodesCount:  geom.InodesCount,
		UsedDirsCount:    0,
	}

	if err := dev.ZeroBlock(DataBitmapBlock); err != nil {
		return err
	}
	if err := dev.ZeroBlock(InodeBitmapBlock); err != nil {
		return err
	}

	tableBlocks := geom.InodeTableBlocks()
	for i := uint32(0); i < tableBlocks; i++ {
		if err := dev.ZeroBlock(4 + i); err != nil {
			return err
		}
	}
	if err := dev.ZeroBlock(4 + tableBlocks); err != nil { // the reserved/padding block
		return err
	}

	if err := WriteGroupDescriptor(dev, gd); err != nil {
		return err
	}

	table := inode.NewTable(dev, gd.InodeTableBlock, geom.InodesCount)
	state := &State{
		Dev:         dev,
		Geom:        geom,
		GD:          gd,
		DataBitmap:  bitmap.New(int(geom.TotalDataBlocks())),
		InodeBitmap: bitmap.New(int(geom.InodesCount)),
		Table:       table,
	}

	root, err := state.AllocateInode(inode.FileTypeDirectory, 0o755)
	if err != nil {
		return err
	}
	if root.InodeNumber != 0 {
		panic("format: root directory must be allocated as inode 0 on a freshly zeroed bitmap")
	}

	rootBlock := directory.Marshal(directory.NewMinimal(root.InodeNumber, root.InodeNumber))
	if err := state.WritePayloadIntoBlocks(&root, rootBlock); err != nil {
		return err
	}
	if err := state.Table.Write(root.InodeNumber, root); err != nil {
		return err
	}

	return state.Save()
}
