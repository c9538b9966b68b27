package tsfile

import (
	"bytes"
	"compress/gzip"
	"io"

	"github.com/golang/snappy"
)

// compress applies the page-level byte-in/byte-out transform named by
// kind. Compression is an external collaborator per spec.md §1 — it has a
// fixed contract (encode/decode, nothing else) and no opinion about the
// bytes it's given.
func compress(kind Compression, data []byte) ([]byte, error) {
	switch kind {
	case CompressionUncompressed:
		return data, nil
	case CompressionSnappy:
		return snappy.Encode(nil, data), nil
	case CompressionGzip:
		buf := &bytes.Buffer{}
		gw := gzip.NewWriter(buf)
		if _, err := gw.Write(data); err != nil {
			return nil, err
		}
		if err := gw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, newErr(ErrCodeInvalidArg, "unknown compression kind")
	}
}

// decompress reverses compress.
func decompress(kind Compression, data []byte) ([]byte, error) {
	switch kind {
	case CompressionUncompressed:
		return data, nil
	case CompressionSnappy:
		return snappy.Decode(nil, data)
	case CompressionGzip:
		gr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer gr.Close()
		return io.ReadAll(gr)
	default:
		return nil, newErr(ErrCodeInvalidArg, "unknown compression kind")
	}
}
