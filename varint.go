package tsfile

import (
	"bufio"
	"encoding/binary"
	"io"
)

// This file implements the binary codec primitives component of spec.md
// §2: fixed-width, var-int, and length-prefixed string I/O over a byte
// stream. All fixed-width integers are big-endian; variable-length
// integers use unsigned LEB128 (var-uint) or zig-zag LEB128 (var-int), per
// spec.md §6.

type byteWriter interface {
	io.Writer
	WriteByte(byte) error
}

// writeUvarint writes v as unsigned LEB128.
func writeUvarint(w byteWriter, v uint64) error {
	for v >= 0x80 {
		if err := w.WriteByte(byte(v) | 0x80); err != nil {
			return err
		}
		v >>= 7
	}
	return w.WriteByte(byte(v))
}

// writeVarint writes v as zig-zag LEB128.
func writeVarint(w byteWriter, v int64) error {
	return writeUvarint(w, encodeZigZag(v))
}

func encodeZigZag(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

func decodeZigZag(v uint64) int64 {
	return int64(v>>1) ^ -(int64(v & 1))
}

type byteReader interface {
	io.Reader
	io.ByteReader
}

// readUvarint reads an unsigned LEB128 value.
func readUvarint(r byteReader) (uint64, error) {
	return binary.ReadUvarint(r)
}

// readVarint reads a zig-zag LEB128 value.
func readVarint(r byteReader) (int64, error) {
	u, err := readUvarint(r)
	if err != nil {
		return 0, err
	}
	return decodeZigZag(u), nil
}

// writeString writes a var-uint length prefix followed by the UTF-8 bytes
// of s (spec.md's var-str).
func writeString(w byteWriter, s string) error {
	if err := writeUvarint(w, uint64(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

// readString reads a var-str.
func readString(r byteReader) (string, error) {
	n, err := readUvarint(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// writeI64BE writes a fixed-width big-endian int64.
func writeI64BE(w io.Writer, v int64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	_, err := w.Write(b[:])
	return err
}

func readI64BE(r io.Reader) (int64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b[:])), nil
}

func writeU32BE(w io.Writer, v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func readU32BE(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func writeByteVal(w byteWriter, v byte) error {
	return w.WriteByte(v)
}

func readByteVal(r byteReader) (byte, error) {
	return r.ReadByte()
}

// newByteReader adapts an io.Reader lacking ReadByte (e.g. a plain
// *bytes.Reader already satisfies it, but a bounded io.LimitReader does
// not) into a byteReader.
func newByteReader(r io.Reader) byteReader {
	if br, ok := r.(byteReader); ok {
		return br
	}
	return bufio.NewReader(r)
}
