// Inode data transfer: read_inode_data and write_payload_into_blocks.
package ops

import (
	"github.com/extfs-project/extfs/internal/inode"
)

// ReadInodeData reads up to size bytes from node's data blocks, following
// the direct/single/double spine one logical block at a time. It stops
// early (a short read) if it encounters an unallocated (zero) spine entry
// before reaching size bytes.
func (s *State) ReadInodeData(node inode.Inode, size uint64) ([]byte, error) {
	out := make([]byte, 0, size)
	blockSize := uint64(s.Geom.BlockSize)

	for logical := uint32(0); uint64(len(out)) < size; logical++ {
		physicalID, err := s.ResolveBlock(node, logical)
		if err != nil {
			return out, err
		}
		if physicalID == 0 {
			break
		}

		block, err := s.Dev.ReadBlock(s.Geom.DataBlockIDToPhysical(physicalID))
		if err != nil {
			return out, err
		}

		remaining := size - uint64(len(out))
		take := blockSize
		if remaining < take {
			take = remaining
		}
		out = append(out, block[:take]...)
	}

	return out, nil
}

// WritePayloadIntoBlocks sets node.FileSize to len(payload) and allocates
// and writes however many blocks are needed to hold it, zero-padding the
// final block so no residual bytes from a prior tenant survive.
func (s *State) WritePayloadIntoBlocks(node *inode.Inode, payload []byte) error {
	node.FileSize = uint64(len(payload))
	blockSize := int(s.Geom.BlockSize)
	needed := (len(payload) + blockSize - 1) / blockSize

	for i := 0; i < needed; i++ {
		dataBlockID, err := s.AllocateBlockForInode(node, uint32(i))
		if err != nil {
			return err
		}

		start := i * blockSize
		end := start + blockSize
		var chunk []byte
		if end <= len(payload) {
			chunk = payload[start:end]
		} else {
			chunk = make([]byte, blockSize)
			copy(chunk, payload[start:])
		}

		if err := s.Dev.WriteBlock(s.Geom.DataBlockIDToPhysical(dataBlockID), chunk); err != nil {
			return err
		}
	}

	return nil
}
