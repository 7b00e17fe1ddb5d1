// Regular file payload codec: {name[256], extension[16], size(8), inode(4),
// data[]}. The payload is the file's metadata followed by its raw bytes;
// this 284-byte header is written into the inode's data blocks themselves,
// it is not separate metadata.
package ops

import (
	"encoding/binary"

	"github.com/extfs-project/extfs/internal/xerrors"
)

const PayloadHeaderSize = 256 + 16 + 8 + 4 // 284

// Payload is the in-memory form of a regular file's on-disk payload.
type Payload struct {
	Name      string
	Extension string
	Size      uint64
	Inode     uint32
	Data      []byte
}

func MarshalPayload(p Payload) []byte {
	out := make([]byte, PayloadHeaderSize+len(p.Data))

	copy(out[0:256], p.Name)
	copy(out[256:272], p.Extension)
	binary.LittleEndian.PutUint64(out[272:280], p.Size)
	binary.LittleEndian.PutUint32(out[280:284], p.Inode)
	copy(out[284:], p.Data)

	return out
}

func UnmarshalPayload(data []byte) (Payload, error) {
	if len(data) < PayloadHeaderSize {
		return Payload{}, xerrors.EINVAL.WithMessage("file payload shorter than its 284-byte header")
	}

	payloadData := make([]byte, len(data)-PayloadHeaderSize)
	copy(payloadData, data[284:])

	return Payload{
		Name:      cstring(data[0:256]),
		Extension: cstring(data[256:272]),
		Size:      binary.LittleEndian.Uint64(data[272:280]),
		Inode:     binary.LittleEndian.Uint32(data[280:284]),
		Data:      payloadData,
	}, nil
}
