package tsfile

import "bytes"

// pageHeader is the PageHeader of spec.md §3/§6: the sizes of a page's
// compressed payload, plus its statistics — omitted for the sole page of
// a single-page chunk (the single-page chunk invariant of spec.md §9).
type pageHeader struct {
	UncompressedSize int
	CompressedSize   int
	Statistics       Statistics // zero value (Count == 0) when omitted
	HasStatistics    bool
}

func writePageHeader(w *bytes.Buffer, h pageHeader) error {
	if err := writeUvarint(w, uint64(h.UncompressedSize)); err != nil {
		return err
	}
	if err := writeUvarint(w, uint64(h.CompressedSize)); err != nil {
		return err
	}
	if !h.HasStatistics {
		return nil
	}
	return writeStatistics(w, h.Statistics)
}

func readPageHeader(r byteReader, dt DataType, hasStatistics bool) (pageHeader, error) {
	uSize, err := readUvarint(r)
	if err != nil {
		return pageHeader{}, err
	}
	cSize, err := readUvarint(r)
	if err != nil {
		return pageHeader{}, err
	}
	h := pageHeader{UncompressedSize: int(uSize), CompressedSize: int(cSize), HasStatistics: hasStatistics}
	if hasStatistics {
		stats, err := readStatistics(r, dt)
		if err != nil {
			return h, err
		}
		h.Statistics = stats
	}
	return h, nil
}

// sealedPage is one chunk-writer page buffered entirely in memory until
// the owning chunk is flushed, at which point the chunk decides (based on
// its final page count) whether to emit per-page statistics.
type sealedPage struct {
	stats      Statistics
	compressed []byte
	rawSize    int
}

// buildValuePage encodes and compresses count rows of a non-aligned value
// chunk: time column followed by value column, both length-prefixed.
func buildValuePage(times []int64, values any, dt DataType, enc Encoding, comp Compression) ([]byte, int, error) {
	timeBytes, _, err := encodeValues(TypeTime, EncodingTS2Diff, times)
	if err != nil {
		return nil, 0, err
	}
	valueBytes, _, err := encodeValues(dt, enc, values)
	if err != nil {
		return nil, 0, err
	}

	buf := &bytes.Buffer{}
	if err := writeUvarint(buf, uint64(len(times))); err != nil {
		return nil, 0, err
	}
	if err := writeUvarint(buf, uint64(len(timeBytes))); err != nil {
		return nil, 0, err
	}
	buf.Write(timeBytes)
	if err := writeUvarint(buf, uint64(len(valueBytes))); err != nil {
		return nil, 0, err
	}
	buf.Write(valueBytes)

	raw := buf.Bytes()
	compressed, err := compress(comp, raw)
	if err != nil {
		return nil, 0, err
	}
	return compressed, len(raw), nil
}

// buildTimeOnlyPage encodes and compresses the shared time column of an
// aligned family's TIME_ONLY chunk.
func buildTimeOnlyPage(times []int64, comp Compression) ([]byte, int, error) {
	timeBytes, _, err := encodeValues(TypeTime, EncodingTS2Diff, times)
	if err != nil {
		return nil, 0, err
	}
	buf := &bytes.Buffer{}
	if err := writeUvarint(buf, uint64(len(times))); err != nil {
		return nil, 0, err
	}
	if err := writeUvarint(buf, uint64(len(timeBytes))); err != nil {
		return nil, 0, err
	}
	buf.Write(timeBytes)

	raw := buf.Bytes()
	compressed, err := compress(comp, raw)
	if err != nil {
		return nil, 0, err
	}
	return compressed, len(raw), nil
}

// buildAlignedValuePage encodes and compresses an aligned value chunk's
// page: a not-null bitmap over all positions (including nulls, to stay
// row-aligned with the TIME_ONLY chunk's page of the same index), followed
// by the encoded non-null values only.
func buildAlignedValuePage(notNull []bool, nonNullValues any, dt DataType, enc Encoding, comp Compression) ([]byte, int, error) {
	valueBytes, _, err := encodeValues(dt, enc, nonNullValues)
	if err != nil {
		return nil, 0, err
	}
	bitmap := packBitmap(notNull)

	buf := &bytes.Buffer{}
	if err := writeUvarint(buf, uint64(len(notNull))); err != nil {
		return nil, 0, err
	}
	buf.Write(bitmap)
	if err := writeUvarint(buf, uint64(len(valueBytes))); err != nil {
		return nil, 0, err
	}
	buf.Write(valueBytes)

	raw := buf.Bytes()
	compressed, err := compress(comp, raw)
	if err != nil {
		return nil, 0, err
	}
	return compressed, len(raw), nil
}

// decodedPage is the caller-facing decoded unit. A non-aligned value page
// fills Times and a Values slice of the same length; a TIME_ONLY page
// fills Times only; an aligned value page leaves Times empty and fills
// NotNull (one flag per position) and Values (the non-null values only).
type decodedPage struct {
	Times   []int64
	Values  any
	NotNull []bool // set only for aligned value pages
}

func decodeValuePage(raw []byte, dt DataType, enc Encoding) (decodedPage, error) {
	r := bytes.NewReader(raw)
	count, err := readUvarint(r)
	if err != nil {
		return decodedPage{}, err
	}
	timeLen, err := readUvarint(r)
	if err != nil {
		return decodedPage{}, err
	}
	timeBytes := make([]byte, timeLen)
	if _, err := r.Read(timeBytes); err != nil && timeLen > 0 {
		return decodedPage{}, err
	}
	times, err := decodeValues(TypeTime, EncodingTS2Diff, timeBytes, int(count))
	if err != nil {
		return decodedPage{}, err
	}
	valLen, err := readUvarint(r)
	if err != nil {
		return decodedPage{}, err
	}
	valBytes := make([]byte, valLen)
	if _, err := r.Read(valBytes); err != nil && valLen > 0 {
		return decodedPage{}, err
	}
	values, err := decodeValues(dt, enc, valBytes, int(count))
	if err != nil {
		return decodedPage{}, err
	}
	return decodedPage{Times: times.([]int64), Values: values}, nil
}

func decodeTimeOnlyPage(raw []byte) ([]int64, error) {
	r := bytes.NewReader(raw)
	count, err := readUvarint(r)
	if err != nil {
		return nil, err
	}
	timeLen, err := readUvarint(r)
	if err != nil {
		return nil, err
	}
	timeBytes := make([]byte, timeLen)
	if _, err := r.Read(timeBytes); err != nil && timeLen > 0 {
		return nil, err
	}
	times, err := decodeValues(TypeTime, EncodingTS2Diff, timeBytes, int(count))
	if err != nil {
		return nil, err
	}
	return times.([]int64), nil
}

func decodeAlignedValuePage(raw []byte, dt DataType, enc Encoding) (decodedPage, error) {
	r := bytes.NewReader(raw)
	count, err := readUvarint(r)
	if err != nil {
		return decodedPage{}, err
	}
	bitmapLen := (int(count) + 7) / 8
	bitmapBytes := make([]byte, bitmapLen)
	if bitmapLen > 0 {
		if _, err := r.Read(bitmapBytes); err != nil {
			return decodedPage{}, err
		}
	}
	notNull := unpackBitmap(bitmapBytes, int(count))

	valLen, err := readUvarint(r)
	if err != nil {
		return decodedPage{}, err
	}
	valBytes := make([]byte, valLen)
	if _, err := r.Read(valBytes); err != nil && valLen > 0 {
		return decodedPage{}, err
	}
	nonNullCount := 0
	for _, b := range notNull {
		if b {
			nonNullCount++
		}
	}
	values, err := decodeValues(dt, enc, valBytes, nonNullCount)
	if err != nil {
		return decodedPage{}, err
	}
	return decodedPage{Values: values, NotNull: notNull}, nil
}

func packBitmap(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

func unpackBitmap(data []byte, count int) []bool {
	out := make([]bool, count)
	for i := 0; i < count; i++ {
		out[i] = data[i/8]&(1<<uint(i%8)) != 0
	}
	return out
}
