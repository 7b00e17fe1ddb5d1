// Package extfs is the public handle-based API over the on-disk engine in
// internal/ops: format an image, open a session against one, and perform
// directory/file operations relative to a tracked working directory.
//
// Generalized from api.go's ObjectHandle/DriverImplementation/FSStat/
// MountFlags — a generic interface meant to be implemented by many
// different on-disk formats — down to the single concrete engine this
// module builds: Session plays the role ObjectHandle/DriverImplementation
// played there, but talks directly to internal/ops instead of through an
// interface boundary nothing else in this module implements.
package extfs

import (
	"io"
	"strings"

	"github.com/extfs-project/extfs/internal/blockio"
	"github.com/extfs-project/extfs/internal/directory"
	"github.com/extfs-project/extfs/internal/geometry"
	"github.com/extfs-project/extfs/internal/inode"
	"github.com/extfs-project/extfs/internal/ops"
	"github.com/extfs-project/extfs/internal/xerrors"
)

// WriteMode selects how Session.WriteFile combines new bytes with a
// file's existing content.
type WriteMode = ops.WriteMode

const (
	WriteOverwrite = ops.WriteOverwrite
	WriteAppend    = ops.WriteAppend
)

// DirEntry is the public, name-resolved form of a directory.Entry.
type DirEntry struct {
	Name        string
	InodeNumber uint32
	IsDir       bool
}

// FSStat summarizes a filesystem's capacity and usage, analogous to
// api.go's FSStat but trimmed to the fields this engine actually tracks.
type FSStat struct {
	BlockSize   uint32
	TotalBlocks uint32
	BlocksFree  uint32
	TotalInodes uint32
	InodesFree  uint32
	UsedDirs    uint32
	VolumeName  string
}

// Format writes a brand new filesystem described by geom onto stream.
func Format(stream io.ReadWriteSeeker, geom geometry.Geometry) error {
	dev := blockio.New(stream, geom.BlockSize, geom.BlocksCount)
	return ops.Format(dev, geom)
}

// Session is an open handle onto a formatted image, tracking a current
// working directory the way a shell process does.
type Session struct {
	dev       *blockio.Device
	state     *ops.State
	cwd       uint32
	pathStack []string
}

// Open reads the superblock off stream to discover its geometry, then
// loads the rest of the filesystem state. The working directory starts
// at the root.
//
// The superblock's own geometry fields aren't known until it's been read,
// so Open bootstraps with a throwaway one-block device spanning the whole
// image (wide enough to contain the fixed-size superblock record
// regardless of the real block size), then builds the real device once
// the geometry is in hand.
func Open(stream io.ReadWriteSeeker) (*Session, error) {
	end, err := stream.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, xerrors.EIO.WrapError(err)
	}
	if _, err := stream.Seek(0, io.SeekStart); err != nil {
		return nil, xerrors.EIO.WrapError(err)
	}

	bootstrap := blockio.New(stream, uint32(end), 1)
	sb, err := ops.ReadSuperblock(bootstrap)
	if err != nil {
		return nil, err
	}

	dev := blockio.New(stream, sb.Geometry.BlockSize, sb.Geometry.BlocksCount)
	state, err := ops.LoadState(dev)
	if err != nil {
		return nil, err
	}

	return &Session{dev: dev, state: state, cwd: 0}, nil
}

// Close flushes the group descriptor and both bitmaps back to the image.
// Individual operations already persist their own inode/block writes as
// they happen, so Close's only remaining job is the counters and bitmaps
// State doesn't write incrementally.
func (s *Session) Close() error {
	return s.state.Save()
}

// Getwd returns the absolute path of the session's current directory.
func (s *Session) Getwd() string {
	if len(s.pathStack) == 0 {
		return "/"
	}
	return "/" + strings.Join(s.pathStack, "/")
}

// Chdir moves the session's working directory to name, which must name a
// subdirectory of the current directory, ".", or "..".
func (s *Session) Chdir(name string) error {
	if name == "." || name == "" {
		return nil
	}
	if name == ".." {
		if len(s.pathStack) > 0 {
			entry, err := s.state.LookupInDir(s.cwd, directory.ParentName)
			if err != nil {
				return err
			}
			s.cwd = entry.Inode
			s.pathStack = s.pathStack[:len(s.pathStack)-1]
		}
		return nil
	}

	entry, err := s.state.LookupInDir(s.cwd, name)
	if err != nil {
		return err
	}
	if entry.FileType != inode.FileTypeDirectory {
		return xerrors.ENOTDIR.WithMessage(name + " is not a directory")
	}
	s.cwd = entry.Inode
	s.pathStack = append(append([]string{}, s.pathStack...), name)
	return nil
}

// List returns the current directory's entries, "." and ".." included.
func (s *Session) List() ([]DirEntry, error) {
	entries, err := s.state.ListDir(s.cwd)
	if err != nil {
		return nil, err
	}
	out := make([]DirEntry, len(entries))
	for i, e := range entries {
		out[i] = DirEntry{Name: e.Name, InodeNumber: e.Inode, IsDir: e.FileType == inode.FileTypeDirectory}
	}
	return out, nil
}

// Mkdir creates a subdirectory named name inside the current directory.
func (s *Session) Mkdir(name string, permissions uint32) (uint32, error) {
	return s.state.CreateDirectory(s.cwd, name, permissions)
}

// Rmdir removes the subdirectory named name. If it contains entries other
// than "." and "..", recursive must be true or this fails with
// ENOTEMPTY.
func (s *Session) Rmdir(name string, recursive bool) error {
	entry, err := s.state.LookupInDir(s.cwd, name)
	if err != nil {
		return err
	}
	if entry.FileType != inode.FileTypeDirectory {
		return xerrors.ENOTDIR.WithMessage(name + " is not a directory")
	}

	if !recursive {
		entries, err := s.state.ListDir(entry.Inode)
		if err != nil {
			return err
		}
		if len(entries) > 2 {
			return xerrors.ENOTEMPTY.WithMessage(name + " is not empty; use the recursive form to remove it")
		}
	}

	return s.state.DeleteDirectory(entry.Inode, s.cwd)
}

// CreateFile creates a regular file named "name.extension" in the current
// directory with the given contents.
func (s *Session) CreateFile(name, extension string, permissions uint32, data []byte) (uint32, error) {
	return s.state.CreateFile(s.cwd, name, extension, permissions, data)
}

// ReadFile reads the full payload of the regular file named name in the
// current directory.
func (s *Session) ReadFile(name string) (ops.Payload, error) {
	entry, err := s.state.LookupInDir(s.cwd, name)
	if err != nil {
		return ops.Payload{}, err
	}
	return s.state.ReadFile(entry.Inode)
}

// WriteFile overwrites or appends to the regular file named name in the
// current directory.
func (s *Session) WriteFile(name string, data []byte, mode WriteMode) error {
	entry, err := s.state.LookupInDir(s.cwd, name)
	if err != nil {
		return err
	}
	return s.state.WriteFile(entry.Inode, data, mode)
}

// DeleteFile removes the regular file named name from the current
// directory.
func (s *Session) DeleteFile(name string) error {
	entry, err := s.state.LookupInDir(s.cwd, name)
	if err != nil {
		return err
	}
	if entry.FileType == inode.FileTypeDirectory {
		return xerrors.EISDIR.WithMessage(name + " is a directory")
	}
	return s.state.DeleteFile(entry.Inode, s.cwd)
}

// Stat summarizes the filesystem's capacity and current usage.
func (s *Session) Stat() FSStat {
	return FSStat{
		BlockSize:   s.state.Geom.BlockSize,
		TotalBlocks: s.state.Geom.BlocksCount,
		BlocksFree:  s.state.GD.FreeBlocksCount,
		TotalInodes: s.state.Geom.InodesCount,
		InodesFree:  s.state.GD.FreeInodesCount,
		UsedDirs:    s.state.GD.UsedDirsCount,
		VolumeName:  s.state.Geom.VolumeName,
	}
}

// CheckConsistency runs a read-only fsck-style scan over the whole image.
func (s *Session) CheckConsistency() (ops.Report, error) {
	return s.state.CheckConsistency()
}
