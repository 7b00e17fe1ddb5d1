// Indirect-block addressing: mapping a logical block index of an inode to
// a physical data block, allocating direct / single-indirect /
// double-indirect spine blocks as needed, and enumerating or releasing the
// whole spine. There is no teacher file implementing ext-style double
// indirection (the pack's FAT/LBR drivers use cluster chains instead), so
// this is built directly from the specification, composed the way
// drivers/common/allocatormap.go's allocator and drivers/unixv1/inode.go's
// block-list handling do: small, bitmap-backed, bounds-checked steps.
package ops

import (
	"github.com/extfs-project/extfs/internal/inode"
	"github.com/extfs-project/extfs/internal/xerrors"
)

// pointersPerBlock is the number of uint32 block-id pointers that fit in
// one spine block: BLOCK_SIZE / 4.
func (s *State) pointersPerBlock() uint32 {
	return s.Geom.BlockSize / 4
}

// MaxLogicalBlocks returns N_MAX: the number of logical blocks addressable
// through 12 direct slots plus a single-indirect and a double-indirect
// region.
func (s *State) MaxLogicalBlocks() uint32 {
	r := s.pointersPerBlock()
	return inode.DirectBlockCount + r + r*r
}

// region identifies which part of the spine a logical index falls in.
type region int

const (
	regionDirect region = iota
	regionSingle
	regionDouble
)

func (s *State) classify(n uint32) (region, uint32, uint32, error) {
	r := s.pointersPerBlock()
	if n < inode.DirectBlockCount {
		return regionDirect, n, 0, nil
	}
	n -= inode.DirectBlockCount
	if n < r {
		return regionSingle, n, 0, nil
	}
	n -= r
	if n < r*r {
		return regionDouble, n / r, n % r, nil
	}
	return 0, 0, 0, xerrors.ERANGE.WithMessage("logical block index exceeds indirect spine capacity")
}

// ResolveBlock returns the physical data-block id backing logical block n
// of node, or 0 if that logical block has never been allocated (a "hole"
// in spec terms — read_inode_data treats this as the end of valid data).
func (s *State) ResolveBlock(node inode.Inode, n uint32) (uint32, error) {
	reg, a, b, err := s.classify(n)
	if err != nil {
		return 0, err
	}

	switch reg {
	case regionDirect:
		return node.Blocks[a], nil
	case regionSingle:
		if node.SingleIndirect == 0 {
			return 0, nil
		}
		id, err := s.Dev.ReadUint32(s.Geom.DataBlockIDToPhysical(node.SingleIndirect), a)
		if err != nil {
			return 0, err
		}
		return id, nil
	default: // regionDouble
		if node.DoubleIndirect == 0 {
			return 0, nil
		}
		singleID, err := s.Dev.ReadUint32(s.Geom.DataBlockIDToPhysical(node.DoubleIndirect), a)
		if err != nil {
			return 0, err
		}
		if singleID == 0 {
			return 0, nil
		}
		id, err := s.Dev.ReadUint32(s.Geom.DataBlockIDToPhysical(singleID), b)
		if err != nil {
			return 0, err
		}
		return id, nil
	}
}

// AllocateBlockForInode allocates a fresh data block for logical index n of
// node, creating whatever spine blocks (single- or double-indirect) are
// needed along the way, and returns the new block's data-block id. On any
// failure partway through spine construction, the freshly allocated
// payload block is released before the error is returned. Spine blocks
// that this call already linked into node (SingleIndirect, DoubleIndirect,
// or an entry of the double-indirect block) stay allocated; only a new
// single-indirect block that could not be stored into the double-indirect
// block is released as well.
func (s *State) AllocateBlockForInode(node *inode.Inode, n uint32) (uint32, error) {
	reg, a, b, err := s.classify(n)
	if err != nil {
		return 0, err
	}

	payload, err := s.AllocateDataBlock()
	if err != nil {
		return 0, err
	}
	if err := s.Dev.ZeroBlock(s.Geom.DataBlockIDToPhysical(payload)); err != nil {
		_ = s.FreeDataBlock(payload)
		return 0, err
	}

	rollback := func(extra ...uint32) (uint32, error) {
		_ = s.FreeDataBlock(payload)
		for _, id := range extra {
			_ = s.FreeDataBlock(id)
		}
		return 0, err
	}

	switch reg {
	case regionDirect:
		node.Blocks[a] = payload
		return payload, nil

	case regionSingle:
		if node.SingleIndirect == 0 {
			spine, allocErr := s.allocateZeroedSpineBlock()
			if allocErr != nil {
				err = allocErr
				return rollback()
			}
			node.SingleIndirect = spine
		}
		if writeErr := s.Dev.WriteUint32(s.Geom.DataBlockIDToPhysical(node.SingleIndirect), a, payload); writeErr != nil {
			err = writeErr
			return rollback()
		}
		return payload, nil

	default: // regionDouble
		if node.DoubleIndirect == 0 {
			dd, allocErr := s.allocateZeroedSpineBlock()
			if allocErr != nil {
				err = allocErr
				return rollback()
			}
			node.DoubleIndirect = dd
		}

		singleID, readErr := s.Dev.ReadUint32(s.Geom.DataBlockIDToPhysical(node.DoubleIndirect), a)
		if readErr != nil {
			err = readErr
			return rollback()
		}

		if singleID == 0 {
			newSingle, allocErr := s.allocateZeroedSpineBlock()
			if allocErr != nil {
				err = allocErr
				return rollback()
			}
			if writeErr := s.Dev.WriteUint32(s.Geom.DataBlockIDToPhysical(node.DoubleIndirect), a, newSingle); writeErr != nil {
				err = writeErr
				return rollback(newSingle)
			}
			singleID = newSingle
		}

		if writeErr := s.Dev.WriteUint32(s.Geom.DataBlockIDToPhysical(singleID), b, payload); writeErr != nil {
			err = writeErr
			return rollback()
		}
		return payload, nil
	}
}

func (s *State) allocateZeroedSpineBlock() (uint32, error) {
	id, err := s.AllocateDataBlock()
	if err != nil {
		return 0, err
	}
	if err := s.Dev.ZeroBlock(s.Geom.DataBlockIDToPhysical(id)); err != nil {
		_ = s.FreeDataBlock(id)
		return 0, err
	}
	return id, nil
}

// FreeAllBlocks releases every data and spine block reachable from node
// and zeroes its block-pointer fields. Direct slots are freed first, then
// each single-indirect entry (and the single-indirect block itself), then
// each double-indirect entry's single-indirect block and its entries (and
// finally the double-indirect block itself).
func (s *State) FreeAllBlocks(node *inode.Inode) error {
	for i := range node.Blocks {
		if node.Blocks[i] != 0 {
			if err := s.FreeDataBlock(node.Blocks[i]); err != nil {
				return err
			}
			node.Blocks[i] = 0
		}
	}

	if node.SingleIndirect != 0 {
		if err := s.freeSingleIndirectChain(node.SingleIndirect); err != nil {
			return err
		}
		node.SingleIndirect = 0
	}

	if node.DoubleIndirect != 0 {
		r := s.pointersPerBlock()
		for i := uint32(0); i < r; i++ {
			singleID, err := s.Dev.ReadUint32(s.Geom.DataBlockIDToPhysical(node.DoubleIndirect), i)
			if err != nil {
				return err
			}
			if singleID == 0 {
				continue
			}
			if err := s.freeSingleIndirectChain(singleID); err != nil {
				return err
			}
		}
		if err := s.FreeDataBlock(node.DoubleIndirect); err != nil {
			return err
		}
		node.DoubleIndirect = 0
	}

	return nil
}

// freeSingleIndirectChain frees every payload block pointed to by the
// single-indirect block singleID, then the single-indirect block itself.
func (s *State) freeSingleIndirectChain(singleID uint32) error {
	r := s.pointersPerBlock()
	for i := uint32(0); i < r; i++ {
		payload, err := s.Dev.ReadUint32(s.Geom.DataBlockIDToPhysical(singleID), i)
		if err != nil {
			return err
		}
		if payload == 0 {
			continue
		}
		if err := s.FreeDataBlock(payload); err != nil {
			return err
		}
	}
	return s.FreeDataBlock(singleID)
}
