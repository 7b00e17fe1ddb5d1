// Filesystem operations over directories: create_directory, read_directory,
// update_directory, delete_directory (recursive), lookup_in_dir, list_dir.
//
// Grounded on drivers/common/basedriver/driver.go's CommonDriver.Mkdir /
// CommonDriver.removeDirectory (recursive, depth-first deletion, stopping
// on the first error) generalized from a path-based multi-driver interface
// down to this engine's inode-number-based one.
package ops

import (
	"github.com/hashicorp/go-multierror"

	"github.com/extfs-project/extfs/internal/directory"
	"github.com/extfs-project/extfs/internal/inode"
	"github.com/extfs-project/extfs/internal/xerrors"
)

// ReadDirectory loads and decodes the directory block for inodeNumber.
func (s *State) ReadDirectory(inodeNumber uint32) (directory.Block, inode.Inode, error) {
	if inodeNumber >= s.Geom.InodesCount {
		return directory.Block{}, inode.Inode{}, xerrors.ERANGE.WithMessage("inode number out of range")
	}

	node, err := s.Table.Read(inodeNumber)
	if err != nil {
		return directory.Block{}, inode.Inode{}, err
	}
	if !node.IsDirectory() {
		return directory.Block{}, inode.Inode{}, xerrors.ENOTDIR.WithMessage("inode is not a directory")
	}
	if node.FileSize == 0 {
		return directory.Block{}, node, xerrors.EINVAL.WithMessage("directory has zero size")
	}

	data, err := s.ReadInodeData(node, node.FileSize)
	if err != nil {
		return directory.Block{}, node, err
	}
	block, err := directory.Unmarshal(data)
	return block, node, err
}

// UpdateDirectory frees the directory inode's existing data blocks and
// rewrites it to hold newBlock. Any previously stored entries not present
// in newBlock are lost, matching the specification's replace-in-full
// semantics for this operation.
func (s *State) UpdateDirectory(inodeNumber uint32, newBlock directory.Block) error {
	node, err := s.Table.Read(inodeNumber)
	if err != nil {
		return err
	}
	if !node.IsDirectory() {
		return xerrors.ENOTDIR.WithMessage("inode is not a directory")
	}

	if err := s.FreeAllBlocks(&node); err != nil {
		return err
	}
	if err := s.WritePayloadIntoBlocks(&node, directory.Marshal(newBlock)); err != nil {
		return err
	}
	return s.Table.Write(inodeNumber, node)
}

// LookupInDir resolves name within the directory at dirInode.
func (s *State) LookupInDir(dirInode uint32, name string) (directory.Entry, error) {
	block, _, err := s.ReadDirectory(dirInode)
	if err != nil {
		return directory.Entry{}, err
	}
	entry, ok := block.Lookup(name)
	if !ok {
		return directory.Entry{}, xerrors.ENOENT.WithMessage("no such entry: " + name)
	}
	return entry, nil
}

// ListDir returns every entry in the directory at dirInode, including "."
// and "..", in insertion order.
func (s *State) ListDir(dirInode uint32) ([]directory.Entry, error) {
	block, _, err := s.ReadDirectory(dirInode)
	if err != nil {
		return nil, err
	}
	return block.Entries, nil
}

// CreateDirectory allocates a new directory inode named name inside
// parentInode, writes its minimal "."/".." block, and links it into the
// parent. Any failure after the inode is allocated rolls back the new
// inode and any blocks allocated for it; rollback failures are attached to
// the returned error rather than silently discarded.
func (s *State) CreateDirectory(parentInode uint32, name string, permissions uint32) (uint32, error) {
	parentNode, err := s.Table.Read(parentInode)
	if err != nil {
		return 0, err
	}
	if !parentNode.IsDirectory() {
		return 0, xerrors.ENOTDIR.WithMessage("parent is not a directory")
	}

	newNode, err := s.AllocateInode(inode.FileTypeDirectory, permissions)
	if err != nil {
		return 0, err
	}

	rollback := func(cause error) (uint32, error) {
		var result *multierror.Error
		result = multierror.Append(result, cause)
		if err := s.FreeAllBlocks(&newNode); err != nil {
			result = multierror.Append(result, err)
		}
		if err := s.DeallocateInode(newNode.InodeNumber); err != nil {
			result = multierror.Append(result, err)
		}
		return 0, result
	}

	block := directory.NewMinimal(newNode.InodeNumber, parentInode)
	if err := s.WritePayloadIntoBlocks(&newNode, directory.Marshal(block)); err != nil {
		return rollback(err)
	}
	if err := s.Table.Write(newNode.InodeNumber, newNode); err != nil {
		return rollback(err)
	}

	parentBlock, _, err := s.ReadDirectory(parentInode)
	if err != nil {
		return rollback(err)
	}
	parentBlock, err = parentBlock.Add(newNode.InodeNumber, name, inode.FileTypeDirectory)
	if err != nil {
		return rollback(err)
	}
	if err := s.UpdateDirectory(parentInode, parentBlock); err != nil {
		return rollback(err)
	}

	return newNode.InodeNumber, nil
}

// DeleteDirectory recursively removes every entry inside inodeNumber
// (files are freed and deallocated directly, subdirectories recurse
// first), then frees the directory's own blocks, deallocates its inode,
// and unlinks it from parentInode.
func (s *State) DeleteDirectory(inodeNumber, parentInode uint32) error {
	block, node, err := s.ReadDirectory(inodeNumber)
	if err != nil {
		return err
	}

	for _, entry := range block.Entries {
		if entry.Name == directory.SelfName || entry.Name == directory.ParentName {
			continue
		}

		childNode, err := s.Table.Read(entry.Inode)
		if err != nil {
			return err
		}
		if childNode.FileType != entry.FileType {
			return xerrors.EINVAL.WithMessage("directory entry file_type does not match its inode's file_type")
		}

		if entry.FileType == inode.FileTypeDirectory {
			if err := s.DeleteDirectory(entry.Inode, inodeNumber); err != nil {
				return err
			}
		} else {
			if err := s.FreeAllBlocks(&childNode); err != nil {
				return err
			}
			if err := s.DeallocateInode(childNode.InodeNumber); err != nil {
				return err
			}
		}
	}

	if err := s.FreeAllBlocks(&node); err != nil {
		return err
	}
	if err := s.DeallocateInode(inodeNumber); err != nil {
		return err
	}

	if inodeNumber == parentInode {
		// Deleting the root is never requested by any caller (the root has
		// no parent entry to unlink), but guard against it defensively.
		return nil
	}

	parentBlock, _, err := s.ReadDirectory(parentInode)
	if err != nil {
		return err
	}
	parentBlock, err = parentBlock.Remove(inodeNumber)
	if err != nil {
		return err
	}
	return s.UpdateDirectory(parentInode, parentBlock)
}
