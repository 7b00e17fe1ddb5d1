// Allocation: allocate_inode, deallocate_inode, allocate_data_block,
// free_data_block. Grounded on drivers/common/allocatormap.go's Allocator
// (linear-scan-from-start allocation coupled to a free counter) and
// drivers/unixv1/driver.go's BlockFreeMap usage.
package ops

import (
	"github.com/extfs-project/extfs/internal/inode"
	"github.com/extfs-project/extfs/internal/xerrors"
)

// AllocateInode finds the first free inode bit starting at index 0, marks
// it allocated, and initializes the inode slot. Inode numbers are
// 0-origin and index 0 is the root directory, not a reserved slot.
func (s *State) AllocateInode(fileType uint8, permissions uint32) (inode.Inode, error) {
	if s.GD.FreeInodesCount == 0 {
		return inode.Inode{}, xerrors.ENOSPC.WithMessage("no free inodes")
	}

	index, ok := s.InodeBitmap.FindFirstFree(0)
	if !ok {
		return inode.Inode{}, xerrors.ENOSPC.WithMessage("inode bitmap has no free bits despite nonzero free count")
	}

	if err := s.InodeBitmap.Set(index); err != nil {
		return inode.Inode{}, err
	}

	n := inode.Inode{
		InodeNumber: uint32(index),
		FileType:    fileType,
		Permissions: permissions,
	}
	if err := s.Table.Write(uint32(index), n); err != nil {
		// Roll back the bitmap bit: this inode is not actually allocated.
		_ = s.InodeBitmap.Clear(index)
		return inode.Inode{}, err
	}

	s.GD.FreeInodesCount--
	if fileType == inode.FileTypeDirectory {
		s.GD.UsedDirsCount++
	}
	return n, nil
}

// DeallocateInode clears the inode's bitmap bit, zeroes its table slot, and
// updates the free-inode and used-directory counters. Deallocating an
// already-free inode is reported as NotAllocated but otherwise has no
// effect — callers may treat it as non-fatal, per the specification.
func (s *State) DeallocateInode(n uint32) error {
	if n >= s.Geom.InodesCount {
		return xerrors.ERANGE.WithMessage("inode number out of range")
	}

	allocated, err := s.InodeBitmap.Test(int(n))
	if err != nil {
		return err
	}
	if !allocated {
		return xerrors.EIDRM.WithMessage("inode is not allocated")
	}

	existing, err := s.Table.Read(n)
	if err != nil {
		return err
	}

	if err := s.InodeBitmap.Clear(int(n)); err != nil {
		return err
	}
	if err := s.Table.Clear(n); err != nil {
		return err
	}

	// The bitmap bit count just went down by one, so the free-inode
	// counter must go up by one to preserve the invariant
	// free_inodes_count + popcount(inode bitmap) == INODES_COUNT.
	s.GD.FreeInodesCount++
	if existing.IsDirectory() {
		s.GD.UsedDirsCount--
	}
	return nil
}

// AllocateDataBlock scans the data-block bitmap starting at id 1 (id 0 is
// reserved and never handed out) and returns the first free data-block id.
func (s *State) AllocateDataBlock() (uint32, error) {
	if s.GD.FreeBlocksCount == 0 {
		return 0, xerrors.ENOSPC.WithMessage("no free data blocks")
	}

	index, ok := s.DataBitmap.FindFirstFree(1)
	if !ok {
		return 0, xerrors.ENOSPC.WithMessage("data-block bitmap has no free bits despite nonzero free count")
	}

	if err := s.DataBitmap.Set(index); err != nil {
		return 0, err
	}
	s.GD.FreeBlocksCount--
	return uint32(index), nil
}

// FreeDataBlock clears the bitmap bit for data-block id and increments the
// free-block counter.
func (s *State) FreeDataBlock(id uint32) error {
	if err := s.DataBitmap.Clear(int(id)); err != nil {
		return err
	}
	s.GD.FreeBlocksCount++
	return nil
}
