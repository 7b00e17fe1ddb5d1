// Package directory implements the directory block codec: an ordered list
// of directory entries serialized as {entries_count, entry[entries_count]},
// where each entry is a fixed 264-byte record {inode, rec_len, name_len,
// file_type, name[256]}.
//
// Mutations are out-of-place (add/remove return a fresh entry list), per
// the redesign direction away from the source's flexible-array-member
// realloc dance and toward an ordered in-memory list that's serialized
// only at write time. Byte assembly uses github.com/noxer/bytewriter, the
// same helper file_systems/unixv1/format.go uses to build its on-disk
// preamble.
package directory

import (
	"bytes"
	"encoding/binary"

	"github.com/noxer/bytewriter"

	"github.com/extfs-project/extfs/internal/inode"
	"github.com/extfs-project/extfs/internal/xerrors"
)

const (
	MaxNameLen = 255
	EntrySize  = 4 + 2 + 1 + 1 + 256 // 264

	SelfName   = "."
	ParentName = ".."
)

// Entry is one directory entry: a name bound to an inode number and the
// type of the inode it refers to.
type Entry struct {
	Inode    uint32
	Name     string
	FileType uint8
}

// Block is the in-memory, ordered representation of a directory's
// contents. Insertion order is preserved across Add/Remove so that
// listings are reproducible.
type Block struct {
	Entries []Entry
}

// NewMinimal builds the directory block written for a freshly created
// directory: "." pointing at self, then ".." pointing at parent (or self,
// for the root).
func NewMinimal(self, parent uint32) Block {
	return Block{
		Entries: []Entry{
			{Inode: self, Name: SelfName, FileType: inode.FileTypeDirectory},
			{Inode: parent, Name: ParentName, FileType: inode.FileTypeDirectory},
		},
	}
}

// Lookup performs a linear scan for name, returning the matching entry.
// Comparison uses the full name, including any file extension.
func (b Block) Lookup(name string) (Entry, bool) {
	for _, e := range b.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Add returns a new Block with entry appended. Names longer than
// MaxNameLen are truncated. Fails with EEXIST if the name is already
// present, preserving the uniqueness-by-name invariant.
func (b Block) Add(inodeNumber uint32, name string, fileType uint8) (Block, error) {
	if len(name) > MaxNameLen {
		name = name[:MaxNameLen]
	}
	if _, exists := b.Lookup(name); exists {
		return Block{}, xerrors.EEXIST.WithMessage("duplicate directory entry name: " + name)
	}

	next := make([]Entry, len(b.Entries), len(b.Entries)+1)
	copy(next, b.Entries)
	next = append(next, Entry{Inode: inodeNumber, Name: name, FileType: fileType})
	return Block{Entries: next}, nil
}

// Remove returns a new Block with the first entry whose Inode matches
// inodeNumber removed. Fails with ENOENT if no such entry exists.
func (b Block) Remove(inodeNumber uint32) (Block, error) {
	for i, e := range b.Entries {
		if e.Inode == inodeNumber {
			next := make([]Entry, 0, len(b.Entries)-1)
			next = append(next, b.Entries[:i]...)
			next = append(next, b.Entries[i+1:]...)
			return Block{Entries: next}, nil
		}
	}
	return Block{}, xerrors.ENOENT.WithMessage("directory entry not found")
}

// SerializedSize returns the number of bytes Marshal will produce.
func (b Block) SerializedSize() int {
	return 4 + len(b.Entries)*EntrySize
}

// Marshal serializes the block as {entries_count, entry[entries_count]}.
func Marshal(b Block) []byte {
	out := make([]byte, b.SerializedSize())
	writer := bytewriter.New(out)

	binary.Write(writer, binary.LittleEndian, uint32(len(b.Entries)))
	for _, e := range b.Entries {
		nameBytes := []byte(e.Name)
		if len(nameBytes) > MaxNameLen {
			nameBytes = nameBytes[:MaxNameLen]
		}

		binary.Write(writer, binary.LittleEndian, e.Inode)
		binary.Write(writer, binary.LittleEndian, uint16(EntrySize))
		binary.Write(writer, binary.LittleEndian, uint8(len(nameBytes)))
		binary.Write(writer, binary.LittleEndian, e.FileType)

		nameField := make([]byte, 256)
		copy(nameField, nameBytes)
		writer.Write(nameField)
	}
	return out
}

// Unmarshal parses a serialized directory block.
func Unmarshal(data []byte) (Block, error) {
	if len(data) < 4 {
		return Block{}, xerrors.EINVAL.WithMessage("directory block too short")
	}
	reader := bytes.NewReader(data)

	var count uint32
	if err := binary.Read(reader, binary.LittleEndian, &count); err != nil {
		return Block{}, xerrors.EIO.WrapError(err)
	}

	expected := 4 + int(count)*EntrySize
	if len(data) < expected {
		return Block{}, xerrors.EINVAL.WithMessage("directory block shorter than entries_count implies")
	}

	entries := make([]Entry, 0, count)
	for i := uint32(0); i < count; i++ {
		var inodeNum uint32
		var recLen uint16
		var nameLen uint8
		var fileType uint8
		if err := binary.Read(reader, binary.LittleEndian, &inodeNum); err != nil {
			return Block{}, xerrors.EIO.WrapError(err)
		}
		if err := binary.Read(reader, binary.LittleEndian, &recLen); err != nil {
			return Block{}, xerrors.EIO.WrapError(err)
		}
		if err := binary.Read(reader, binary.LittleEndian, &nameLen); err != nil {
			return Block{}, xerrors.EIO.WrapError(err)
		}
		if err := binary.Read(reader, binary.LittleEndian, &fileType); err != nil {
			return Block{}, xerrors.EIO.WrapError(err)
		}

		nameField := make([]byte, 256)
		if _, err := reader.Read(nameField); err != nil {
			return Block{}, xerrors.EIO.WrapError(err)
		}
		if int(nameLen) > len(nameField) {
			return Block{}, xerrors.EINVAL.WithMessage("corrupt directory entry: name_len exceeds field width")
		}

		entries = append(entries, Entry{
			Inode:    inodeNum,
			Name:     string(nameField[:nameLen]),
			FileType: fileType,
		})
	}

	return Block{Entries: entries}, nil
}
