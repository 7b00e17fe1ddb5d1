// CheckConsistency: a read-only fsck-style scan over the testable
// invariants of the specification (bitmap/table agreement, data-block
// ownership disjointness, the two free-counter invariants, used_dirs_count,
// and the "." / ".." shape of every directory).
//
// Grounded on original_source/check_drive.c, which walks the bitmaps and
// inode table comparing counters against popcounts and flags doubly
// referenced blocks; restructured here as a single forward scan that
// collects every Problem instead of aborting at the first one, the way
// drivers/common/basedriver/driver.go's removeDirectory collects rollback
// errors with go-multierror rather than stopping short.
package ops

import (
	"fmt"

	"github.com/extfs-project/extfs/internal/directory"
	"github.com/extfs-project/extfs/internal/inode"
)

// Problem describes a single inconsistency found by CheckConsistency.
type Problem struct {
	Code    string
	Message string
}

// Report is the full result of a consistency scan.
type Report struct {
	Problems []Problem
}

func (r *Report) add(code, format string, args ...interface{}) {
	r.Problems = append(r.Problems, Problem{Code: code, Message: fmt.Sprintf(format, args...)})
}

// OK reports whether the scan found zero problems.
func (r Report) OK() bool {
	return len(r.Problems) == 0
}

// CheckConsistency walks every allocated inode and reports any violation
// of the filesystem's invariants. It does not modify the image.
func (s *State) CheckConsistency() (Report, error) {
	var report Report

	seenBlocks := make(map[uint32]uint32) // data-block id -> owning inode
	usedDirs := uint32(0)

	for i := uint32(0); i < s.Geom.InodesCount; i++ {
		allocated, err := s.InodeBitmap.Test(int(i))
		if err != nil {
			return report, err
		}
		if !allocated {
			continue
		}

		node, err := s.Table.Read(i)
		if err != nil {
			return report, err
		}
		if node.InodeNumber != i {
			report.add("inode-number-mismatch",
				"inode slot %d holds a record claiming inode_number %d", i, node.InodeNumber)
		}
		if node.IsDirectory() {
			usedDirs++
		}

		if err := s.checkInodeBlocks(&report, node, seenBlocks); err != nil {
			return report, err
		}

		if node.IsDirectory() {
			if err := s.checkDirectoryShape(&report, i, node); err != nil {
				return report, err
			}
		}
	}

	if err := s.checkCounters(&report, usedDirs); err != nil {
		return report, err
	}

	return report, nil
}

// checkInodeBlocks verifies that every data block holding node's content
// (one per logical block within file_size) is set in the data-block bitmap
// and not already claimed by a different inode (spec.md §8 invariants 1
// and 2). The spine blocks themselves (single-indirect, double-indirect,
// and the single-indirect blocks under the double-indirect block) are not
// checked for either property.
func (s *State) checkInodeBlocks(report *Report, node inode.Inode, seenBlocks map[uint32]uint32) error {
	blockSize := uint64(s.Geom.BlockSize)
	needed := (node.FileSize + blockSize - 1) / blockSize

	for logical := uint32(0); uint64(logical) < needed; logical++ {
		id, err := s.ResolveBlock(node, logical)
		if err != nil {
			return err
		}
		if id == 0 {
			report.add("hole-in-allocated-range",
				"inode %d: logical block %d within file_size has no allocated block", node.InodeNumber, logical)
			continue
		}

		set, err := s.DataBitmap.Test(int(id))
		if err != nil {
			return err
		}
		if !set {
			report.add("unmarked-data-block",
				"inode %d: data block id %d is referenced but not marked allocated in the bitmap", node.InodeNumber, id)
		}

		if owner, exists := seenBlocks[id]; exists {
			report.add("shared-data-block",
				"data block id %d is referenced by both inode %d and inode %d", id, owner, node.InodeNumber)
		} else {
			seenBlocks[id] = node.InodeNumber
		}
	}

	return nil
}

// checkDirectoryShape verifies the first entry of a directory is "."
// pointing at the directory itself, the second entry is named "..", and
// every entry name is unique (spec.md §8 invariants 6 and 7). The inode
// that ".." points at is not checked against the directory's parent.
func (s *State) checkDirectoryShape(report *Report, inodeNumber uint32, node inode.Inode) error {
	if node.FileSize == 0 {
		report.add("empty-directory", "directory inode %d has file_size 0, missing its \".\"/\"..\" entries", inodeNumber)
		return nil
	}

	data, err := s.ReadInodeData(node, node.FileSize)
	if err != nil {
		return err
	}
	block, err := directory.Unmarshal(data)
	if err != nil {
		report.add("corrupt-directory", "directory inode %d: %s", inodeNumber, err.Error())
		return nil
	}

	if len(block.Entries) < 2 || block.Entries[0].Name != directory.SelfName || block.Entries[0].Inode != inodeNumber {
		report.add("missing-self-entry", "directory inode %d: first entry is not a correct \".\"", inodeNumber)
	}
	if len(block.Entries) < 2 || block.Entries[1].Name != directory.ParentName {
		report.add("missing-parent-entry", "directory inode %d: second entry is not \"..\"", inodeNumber)
	}

	seenNames := make(map[string]bool, len(block.Entries))
	for _, e := range block.Entries {
		if seenNames[e.Name] {
			report.add("duplicate-entry-name", "directory inode %d: name %q appears more than once", inodeNumber, e.Name)
		}
		seenNames[e.Name] = true
	}

	return nil
}

// checkCounters verifies the two free-counter invariants and
// used_dirs_count (spec.md §8 invariants 3, 4, 5).
func (s *State) checkCounters(report *Report, actualUsedDirs uint32) error {
	if s.GD.FreeBlocksCount+uint32(s.DataBitmap.Popcount()) != s.Geom.TotalDataBlocks() {
		report.add("free-blocks-count-mismatch",
			"free_blocks_count (%d) + popcount(data bitmap) (%d) != %d",
			s.GD.FreeBlocksCount, s.DataBitmap.Popcount(), s.Geom.TotalDataBlocks())
	}
	if s.GD.FreeInodesCount+uint32(s.InodeBitmap.Popcount()) != s.Geom.InodesCount {
		report.add("free-inodes-count-mismatch",
			"free_inodes_count (%d) + popcount(inode bitmap) (%d) != %d",
			s.GD.FreeInodesCount, s.InodeBitmap.Popcount(), s.Geom.InodesCount)
	}
	if s.GD.UsedDirsCount != actualUsedDirs {
		report.add("used-dirs-count-mismatch",
			"used_dirs_count (%d) != actual allocated directory count (%d)", s.GD.UsedDirsCount, actualUsedDirs)
	}
	return nil
}
