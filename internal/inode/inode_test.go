package inode_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"

	"github.com/extfs-project/extfs/internal/blockio"
	"github.com/extfs-project/extfs/internal/inode"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	n := inode.Inode{
		InodeNumber: 3,
		FileSize:    1234,
		FileType:    inode.FileTypeDirectory,
		Permissions: 0755,
	}
	n.Blocks[0] = 181
	n.SingleIndirect = 500

	data := inode.Marshal(n)
	require.Len(t, data, inode.Size)

	got, err := inode.Unmarshal(data)
	require.NoError(t, err)
	require.Equal(t, n, got)
}

func TestTableReadWrite(t *testing.T) {
	blockSize := uint32(4096)
	numBlocks := uint32(16)
	buf := make([]byte, blockSize*numBlocks)
	dev := blockio.New(bytesextra.NewReadWriteSeeker(buf), blockSize, numBlocks)

	table := inode.NewTable(dev, 4, 8)

	n := inode.Inode{InodeNumber: 2, FileSize: 42, FileType: inode.FileTypeRegular}
	require.NoError(t, table.Write(2, n))

	got, err := table.Read(2)
	require.NoError(t, err)
	require.Equal(t, n, got)

	require.NoError(t, table.Clear(2))
	got, err = table.Read(2)
	require.NoError(t, err)
	require.Equal(t, inode.Inode{}, got)

	_, err = table.Read(8)
	require.Error(t, err)
}
