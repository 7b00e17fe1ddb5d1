// Package bitmap implements the fixed-width bit array used for the
// data-block and inode allocation bitmaps: {init, test, set, clear,
// find-first-free-from}. It wraps github.com/boljen/go-bitmap, the same
// library the teacher's allocator and unixv1 driver use for their free maps.
package bitmap

import (
	"fmt"

	bbitmap "github.com/boljen/go-bitmap"

	"github.com/extfs-project/extfs/internal/xerrors"
)

// Bitmap is a bit array of fixed length N, with bit i meaning "allocated".
type Bitmap struct {
	bits bbitmap.Bitmap
	n    int
}

// New returns a zeroed bitmap able to hold n bits.
func New(n int) *Bitmap {
	return &Bitmap{bits: bbitmap.New(n), n: n}
}

// FromBytes wraps an existing byte slice (as read from a disk image block)
// as a bitmap of n bits. The slice is used directly, not copied.
func FromBytes(data []byte, n int) *Bitmap {
	return &Bitmap{bits: bbitmap.Bitmap(data), n: n}
}

func (b *Bitmap) checkBounds(i int) error {
	if i < 0 || i >= b.n {
		return xerrors.ERANGE.WithMessage(
			fmt.Sprintf("bit index %d not in range [0, %d)", i, b.n))
	}
	return nil
}

// Test reports whether bit i is set.
func (b *Bitmap) Test(i int) (bool, error) {
	if err := b.checkBounds(i); err != nil {
		return false, err
	}
	return b.bits.Get(i), nil
}

// Set marks bit i as allocated.
func (b *Bitmap) Set(i int) error {
	if err := b.checkBounds(i); err != nil {
		return err
	}
	b.bits.Set(i, true)
	return nil
}

// Clear marks bit i as free.
func (b *Bitmap) Clear(i int) error {
	if err := b.checkBounds(i); err != nil {
		return err
	}
	b.bits.Set(i, false)
	return nil
}

// FindFirstFree scans forward from start (inclusive) for the first clear
// bit, returning its index. It returns ok=false if every bit from start to
// the end of the bitmap is set.
func (b *Bitmap) FindFirstFree(start int) (index int, ok bool) {
	for i := start; i < b.n; i++ {
		if !b.bits.Get(i) {
			return i, true
		}
	}
	return 0, false
}

// Popcount returns the number of set bits.
func (b *Bitmap) Popcount() int {
	count := 0
	for i := 0; i < b.n; i++ {
		if b.bits.Get(i) {
			count++
		}
	}
	return count
}

// Len returns the number of bits the bitmap holds.
func (b *Bitmap) Len() int {
	return b.n
}

// Bytes returns the raw backing bytes, suitable for writing to a disk
// block verbatim.
func (b *Bitmap) Bytes() []byte {
	return b.bits.Data(false)
}
