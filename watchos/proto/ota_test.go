package proto

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestBeginFrame(t *testing.T) {
	c := qt.New(t)
	var digest [DigestSize]byte
	for i := range digest {
		digest[i] = byte(i)
	}
	b := BeginFrame(123456, digest)
	k, ok := FrameKind(b)
	c.Assert(ok, qt.IsTrue)
	c.Assert(k, qt.Equals, KindBegin)

	size, got, ok := DecodeBeginFrame(b)
	c.Assert(ok, qt.IsTrue)
	c.Assert(size, qt.Equals, uint32(123456))
	c.Assert(got, qt.Equals, digest)

	_, _, ok = DecodeBeginFrame(b[:10])
	c.Assert(ok, qt.IsFalse)
}

func TestChunkFrameRejectsEmptyAndOversize(t *testing.T) {
	c := qt.New(t)
	_, _, ok := DecodeChunkFrame(ChunkFrame(0, nil))
	c.Assert(ok, qt.IsFalse)
	_, _, ok = DecodeChunkFrame(ChunkFrame(0, make([]byte, MaxChunk+1)))
	c.Assert(ok, qt.IsFalse)

	off, data, ok := DecodeChunkFrame(ChunkFrame(42, []byte("abc")))
	c.Assert(ok, qt.IsTrue)
	c.Assert(off, qt.Equals, uint32(42))
	c.Assert(string(data), qt.Equals, "abc")
}

func TestFrameKindUnknown(t *testing.T) {
	c := qt.New(t)
	_, ok := FrameKind(nil)
	c.Assert(ok, qt.IsFalse)
	_, ok = FrameKind([]byte{0x7f})
	c.Assert(ok, qt.IsFalse)
	k, ok := FrameKind(AbortFrame())
	c.Assert(ok, qt.IsTrue)
	c.Assert(k.String(), qt.Equals, "abort")
}

func TestSplit(t *testing.T) {
	c := qt.New(t)
	image := make([]byte, 10)
	for i := range image {
		image[i] = byte(i)
	}
	frames := Split(image, 4)
	c.Assert(frames, qt.HasLen, 3)

	var rebuilt []byte
	for _, f := range frames {
		off, data, ok := DecodeChunkFrame(f)
		c.Assert(ok, qt.IsTrue)
		c.Assert(int(off), qt.Equals, len(rebuilt))
		rebuilt = append(rebuilt, data...)
	}
	c.Assert(rebuilt, qt.DeepEquals, image)
}
