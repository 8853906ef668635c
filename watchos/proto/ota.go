// Package proto defines the frames exchanged between a firmware pusher and
// the device's update transport.
package proto

import "encoding/binary"

// Kind identifies an update frame.
type Kind uint8

const (
	KindBegin Kind = iota + 1
	KindChunk
	KindEnd
	KindAbort
)

func (k Kind) String() string {
	switch k {
	case KindBegin:
		return "begin"
	case KindChunk:
		return "chunk"
	case KindEnd:
		return "end"
	case KindAbort:
		return "abort"
	default:
		return "unknown"
	}
}

// DigestSize is the length of the BLAKE2b-256 image digest.
const DigestSize = 32

// MaxChunk is the largest data payload a single chunk frame may carry.
const MaxChunk = 4096

// FrameKind returns the kind of an encoded frame.
func FrameKind(b []byte) (Kind, bool) {
	if len(b) < 1 {
		return 0, false
	}
	k := Kind(b[0])
	if k < KindBegin || k > KindAbort {
		return 0, false
	}
	return k, true
}

// BeginFrame announces an image.
//
// Layout (little-endian):
//   - u8: KindBegin
//   - u32: image size in bytes
//   - [32]byte: BLAKE2b-256 digest of the image
func BeginFrame(size uint32, digest [DigestSize]byte) []byte {
	b := make([]byte, 1+4+DigestSize)
	b[0] = byte(KindBegin)
	binary.LittleEndian.PutUint32(b[1:5], size)
	copy(b[5:], digest[:])
	return b
}

func DecodeBeginFrame(b []byte) (size uint32, digest [DigestSize]byte, ok bool) {
	if len(b) != 1+4+DigestSize || Kind(b[0]) != KindBegin {
		return 0, digest, false
	}
	size = binary.LittleEndian.Uint32(b[1:5])
	copy(digest[:], b[5:])
	return size, digest, true
}

// ChunkFrame carries image bytes starting at offset.
//
// Layout (little-endian):
//   - u8: KindChunk
//   - u32: offset
//   - bytes: data (1..MaxChunk)
func ChunkFrame(offset uint32, data []byte) []byte {
	b := make([]byte, 5+len(data))
	b[0] = byte(KindChunk)
	binary.LittleEndian.PutUint32(b[1:5], offset)
	copy(b[5:], data)
	return b
}

// DecodeChunkFrame returns a view into b; callers copy data if they keep it.
func DecodeChunkFrame(b []byte) (offset uint32, data []byte, ok bool) {
	if len(b) < 6 || len(b)-5 > MaxChunk || Kind(b[0]) != KindChunk {
		return 0, nil, false
	}
	return binary.LittleEndian.Uint32(b[1:5]), b[5:], true
}

// EndFrame marks the image complete.
func EndFrame() []byte { return []byte{byte(KindEnd)} }

// AbortFrame cancels the transfer in progress.
func AbortFrame() []byte { return []byte{byte(KindAbort)} }

// Split cuts an image into chunk frames of at most size bytes.
func Split(image []byte, size int) [][]byte {
	if size <= 0 || size > MaxChunk {
		size = MaxChunk
	}
	frames := make([][]byte, 0, (len(image)+size-1)/size)
	for off := 0; off < len(image); off += size {
		end := off + size
		if end > len(image) {
			end = len(image)
		}
		frames = append(frames, ChunkFrame(uint32(off), image[off:end]))
	}
	return frames
}
