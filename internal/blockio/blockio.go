// Package blockio implements positioned reads and writes on the backing
// image file at block granularity and at byte granularity within a block.
// Every higher layer routes through here rather than computing file offsets
// itself; callers provide (block id, within-block offset) pairs.
//
// Modeled on drivers/common/blockdevice.go's BlockDevice: a thin wrapper
// around an io.ReadWriteSeeker that knows the block size and bounds-checks
// every access.
package blockio

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/extfs-project/extfs/internal/xerrors"
)

// Device is a positioned reader/writer over a fixed-size disk image.
type Device struct {
	stream    io.ReadWriteSeeker
	blockSize uint32
	numBlocks uint32
}

// New wraps stream as a Device with the given block size and total block
// count. stream must already be sized to blockSize*numBlocks bytes.
func New(stream io.ReadWriteSeeker, blockSize, numBlocks uint32) *Device {
	return &Device{stream: stream, blockSize: blockSize, numBlocks: numBlocks}
}

func (d *Device) BlockSize() uint32 { return d.blockSize }
func (d *Device) NumBlocks() uint32 { return d.numBlocks }

func (d *Device) checkBlock(block uint32) error {
	if block >= d.numBlocks {
		return xerrors.ERANGE.WithMessage(
			fmt.Sprintf("block id %d not in range [0, %d)", block, d.numBlocks))
	}
	return nil
}

func (d *Device) offsetOf(block uint32, within uint32) (int64, error) {
	if err := d.checkBlock(block); err != nil {
		return 0, err
	}
	if within >= d.blockSize {
		return 0, xerrors.ERANGE.WithMessage(
			fmt.Sprintf("within-block offset %d not in range [0, %d)", within, d.blockSize))
	}
	return int64(block)*int64(d.blockSize) + int64(within), nil
}

// ReadAt fills buf with len(buf) bytes starting at (block, within). The
// read must not cross the end of the block.
func (d *Device) ReadAt(block, within uint32, buf []byte) error {
	if uint64(within)+uint64(len(buf)) > uint64(d.blockSize) {
		return xerrors.ERANGE.WithMessage("read extends past end of block")
	}
	offset, err := d.offsetOf(block, within)
	if err != nil {
		return err
	}
	if _, err := d.stream.Seek(offset, io.SeekStart); err != nil {
		return xerrors.EIO.WrapError(err)
	}
	n, err := io.ReadFull(d.stream, buf)
	if err != nil {
		return xerrors.EIO.WrapError(err)
	}
	if n != len(buf) {
		return xerrors.EIO.WithMessage("short read")
	}
	return nil
}

// WriteAt writes data to (block, within). The write must not cross the end
// of the block.
func (d *Device) WriteAt(block, within uint32, data []byte) error {
	if uint64(within)+uint64(len(data)) > uint64(d.blockSize) {
		return xerrors.ERANGE.WithMessage("write extends past end of block")
	}
	offset, err := d.offsetOf(block, within)
	if err != nil {
		return err
	}
	if _, err := d.stream.Seek(offset, io.SeekStart); err != nil {
		return xerrors.EIO.WrapError(err)
	}
	n, err := d.stream.Write(data)
	if err != nil {
		return xerrors.EIO.WrapError(err)
	}
	if n != len(data) {
		return xerrors.EIO.WithMessage("short write")
	}
	return nil
}

// ReadBlock reads an entire block's contents.
func (d *Device) ReadBlock(block uint32) ([]byte, error) {
	buf := make([]byte, d.blockSize)
	if err := d.ReadAt(block, 0, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteBlock writes exactly one block's worth of data, which must be
// blockSize bytes long.
func (d *Device) WriteBlock(block uint32, data []byte) error {
	if uint32(len(data)) != d.blockSize {
		return xerrors.EINVAL.WithMessage(
			fmt.Sprintf("block write must be exactly %d bytes, got %d", d.blockSize, len(data)))
	}
	return d.WriteAt(block, 0, data)
}

// ZeroBlock writes blockSize zero bytes to block.
func (d *Device) ZeroBlock(block uint32) error {
	return d.WriteBlock(block, make([]byte, d.blockSize))
}

// ReadRange reads len(buf) bytes starting at an absolute byte offset from
// the start of the image, without regard to block boundaries. This backs
// the inode table, whose 88-byte records don't divide evenly into 4096-byte
// blocks and so routinely span two blocks.
func (d *Device) ReadRange(byteOffset int64, buf []byte) error {
	if err := d.checkRange(byteOffset, len(buf)); err != nil {
		return err
	}
	if _, err := d.stream.Seek(byteOffset, io.SeekStart); err != nil {
		return xerrors.EIO.WrapError(err)
	}
	n, err := io.ReadFull(d.stream, buf)
	if err != nil {
		return xerrors.EIO.WrapError(err)
	}
	if n != len(buf) {
		return xerrors.EIO.WithMessage("short read")
	}
	return nil
}

// WriteRange writes data starting at an absolute byte offset from the start
// of the image, without regard to block boundaries.
func (d *Device) WriteRange(byteOffset int64, data []byte) error {
	if err := d.checkRange(byteOffset, len(data)); err != nil {
		return err
	}
	if _, err := d.stream.Seek(byteOffset, io.SeekStart); err != nil {
		return xerrors.EIO.WrapError(err)
	}
	n, err := d.stream.Write(data)
	if err != nil {
		return xerrors.EIO.WrapError(err)
	}
	if n != len(data) {
		return xerrors.EIO.WithMessage("short write")
	}
	return nil
}

func (d *Device) checkRange(byteOffset int64, length int) error {
	total := int64(d.blockSize) * int64(d.numBlocks)
	if byteOffset < 0 || byteOffset+int64(length) > total {
		return xerrors.ERANGE.WithMessage(
			fmt.Sprintf("byte range [%d, %d) outside image of size %d", byteOffset, byteOffset+int64(length), total))
	}
	return nil
}

// ReadUint32 reads a little-endian uint32 stored at (block, entryIndex*4).
// This is how spine blocks (arrays of block-id pointers) are read one entry
// at a time.
func (d *Device) ReadUint32(block uint32, entryIndex uint32) (uint32, error) {
	buf := make([]byte, 4)
	if err := d.ReadAt(block, entryIndex*4, buf); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

// WriteUint32 writes a little-endian uint32 at (block, entryIndex*4).
func (d *Device) WriteUint32(block uint32, entryIndex uint32, value uint32) error {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, value)
	return d.WriteAt(block, entryIndex*4, buf)
}
