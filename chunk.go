package tsfile

import (
	"bytes"
	"reflect"
)

// Chunk marker bytes, written as the first byte of a serialized chunk.
// chunkHeaderMarker is the common case; onlyOnePageChunkHeaderMarker flags
// the single-page optimization so a reader can tell, before even looking
// at num_pages, that this chunk's sole page omits its statistics block.
const (
	chunkHeaderMarker            byte = 1
	onlyOnePageChunkHeaderMarker byte = 5
)

// Chunk mask bits: maskNormal is an ordinary (non-aligned) value chunk
// carrying both time and value columns per page. maskTimeOnly is the
// shared time column of an aligned family, written once per chunk group.
// maskAlignedValue is one field column of an aligned family: values only,
// aligned to the TIME_ONLY chunk's page boundaries via a not-null bitmap.
const (
	maskNormal       byte = 0
	maskTimeOnly     byte = 1
	maskAlignedValue byte = 2
)

// chunkWriter accumulates rows for one (device, measurement) into pages,
// buffering every sealed page in memory until the owning chunk is
// serialized — only then is the final page count known, which decides
// whether the sole page of a single-page chunk omits its statistics.
type chunkWriter struct {
	measurement string
	dataType    DataType
	encoding    Encoding
	compression Compression
	mask        byte

	maxPointsPerPage int

	curTimes   []int64
	curValues  any    // typed slice matching dataType; nil for maskTimeOnly
	curNotNull []bool // only populated for maskAlignedValue

	pages      []sealedPage
	chunkStats Statistics
}

func newChunkWriter(measurement string, dt DataType, enc Encoding, comp Compression, mask byte, maxPointsPerPage int) *chunkWriter {
	return &chunkWriter{
		measurement:      measurement,
		dataType:         dt,
		encoding:         enc,
		compression:      comp,
		mask:             mask,
		maxPointsPerPage: maxPointsPerPage,
		curValues:        newTypedSlice(dt),
		chunkStats:       NewStatistics(dt),
	}
}

func newTypedSlice(dt DataType) any {
	switch dt {
	case TypeBool:
		return []bool{}
	case TypeInt32:
		return []int32{}
	case TypeInt64, TypeTime:
		return []int64{}
	case TypeFloat32:
		return []float32{}
	case TypeFloat64:
		return []float64{}
	case TypeString:
		return []string{}
	default:
		return nil
	}
}

func appendTyped(dst any, v any) any {
	return reflect.Append(reflect.ValueOf(dst), reflect.ValueOf(v)).Interface()
}

// Write appends one row to a non-aligned value chunk or to the shared
// time chunk of an aligned family (value is ignored when mask ==
// maskTimeOnly).
func (w *chunkWriter) Write(time int64, value any) error {
	w.curTimes = append(w.curTimes, time)
	if w.mask == maskTimeOnly {
		w.chunkStats.ExtendRange(time)
	} else {
		w.curValues = appendTyped(w.curValues, value)
		w.chunkStats.Update(time, value)
	}
	if len(w.curTimes) >= w.maxPointsPerPage {
		return w.sealPage()
	}
	return nil
}

// WriteAligned appends one row of an aligned value chunk. isNull rows
// still advance the chunk's row position (tracked via curNotNull) so
// pages stay row-aligned with the family's TIME_ONLY chunk, but do not
// fold into chunkStats and contribute no value byte.
func (w *chunkWriter) WriteAligned(time int64, value any, isNull bool) error {
	w.curTimes = append(w.curTimes, time)
	w.curNotNull = append(w.curNotNull, !isNull)
	w.chunkStats.ExtendRange(time)
	if !isNull {
		w.curValues = appendTyped(w.curValues, value)
		w.chunkStats.Update(time, value)
	}
	if len(w.curNotNull) >= w.maxPointsPerPage {
		return w.sealPage()
	}
	return nil
}

func (w *chunkWriter) sealPage() error {
	var (
		compressed []byte
		rawSize    int
		err        error
		stats      Statistics
	)
	switch w.mask {
	case maskTimeOnly:
		compressed, rawSize, err = buildTimeOnlyPage(w.curTimes, w.compression)
		stats = NewStatistics(TypeTime)
		for _, t := range w.curTimes {
			stats.Update(t, t)
		}
	case maskAlignedValue:
		compressed, rawSize, err = buildAlignedValuePage(w.curNotNull, w.curValues, w.dataType, w.encoding, w.compression)
		stats = pageStatsFromAlignedValues(w.dataType, w.curTimes, w.curNotNull, w.curValues)
	default:
		compressed, rawSize, err = buildValuePage(w.curTimes, w.curValues, w.dataType, w.encoding, w.compression)
		stats = pageStatsFromTimedValues(w.dataType, w.curTimes, w.curValues)
	}
	if err != nil {
		return err
	}
	w.pages = append(w.pages, sealedPage{stats: stats, compressed: compressed, rawSize: rawSize})
	w.curTimes = nil
	w.curNotNull = nil
	w.curValues = newTypedSlice(w.dataType)
	return nil
}

func pageStatsFromTimedValues(dt DataType, times []int64, values any) Statistics {
	s := NewStatistics(dt)
	rv := reflect.ValueOf(values)
	for i := range times {
		s.Update(times[i], rv.Index(i).Interface())
	}
	return s
}

// pageStatsFromAlignedValues folds only the non-null (time, value) pairs
// of an aligned value page, using the page's positional not-null bitmap
// to line up curTimes (one entry per position, including nulls) with
// curValues (one entry per non-null position).
func pageStatsFromAlignedValues(dt DataType, times []int64, notNull []bool, values any) Statistics {
	s := NewStatistics(dt)
	rv := reflect.ValueOf(values)
	vi := 0
	for i, ok := range notNull {
		s.ExtendRange(times[i])
		if !ok {
			continue
		}
		s.Update(times[i], rv.Index(vi).Interface())
		vi++
	}
	return s
}

// pendingRows reports the number of rows buffered in the current,
// not-yet-sealed page — used by the chunk group to estimate memory
// pressure.
func (w *chunkWriter) pendingRows() int {
	if w.mask == maskAlignedValue {
		return len(w.curNotNull)
	}
	return len(w.curTimes)
}

// serialize seals any remaining partial page and writes the full chunk
// (header + every page) to buf, returning the chunk's merged statistics.
func (w *chunkWriter) serialize(buf *bytes.Buffer) (Statistics, error) {
	if w.pendingRows() > 0 {
		if err := w.sealPage(); err != nil {
			return Statistics{}, err
		}
	}

	marker := chunkHeaderMarker
	if len(w.pages) == 1 {
		marker = onlyOnePageChunkHeaderMarker
	}

	var pagesBuf bytes.Buffer
	hasStats := len(w.pages) != 1
	for _, p := range w.pages {
		if err := writePageHeader(&pagesBuf, pageHeader{
			UncompressedSize: p.rawSize,
			CompressedSize:   len(p.compressed),
			Statistics:       p.stats,
			HasStatistics:    hasStats,
		}); err != nil {
			return Statistics{}, err
		}
		pagesBuf.Write(p.compressed)
	}

	if err := buf.WriteByte(marker); err != nil {
		return Statistics{}, err
	}
	if err := writeString(buf, w.measurement); err != nil {
		return Statistics{}, err
	}
	if err := writeUvarint(buf, uint64(pagesBuf.Len())); err != nil {
		return Statistics{}, err
	}
	if err := buf.WriteByte(byte(w.dataType)); err != nil {
		return Statistics{}, err
	}
	if err := buf.WriteByte(byte(w.compression)); err != nil {
		return Statistics{}, err
	}
	if err := buf.WriteByte(byte(w.encoding)); err != nil {
		return Statistics{}, err
	}
	if err := buf.WriteByte(w.mask); err != nil {
		return Statistics{}, err
	}
	if err := writeUvarint(buf, uint64(len(w.pages))); err != nil {
		return Statistics{}, err
	}
	buf.Write(pagesBuf.Bytes())

	return w.chunkStats, nil
}

// chunkHeader is the parsed, read-side view of a serialized chunk's
// header: marker, measurement name, data size, type/codec bytes, mask and
// page count.
type chunkHeader struct {
	Measurement   string
	TotalDataSize int
	DataType      DataType
	Compression   Compression
	Encoding      Encoding
	Mask          byte
	NumPages      int
	SinglePage    bool
}

func readChunkHeader(r byteReader) (chunkHeader, error) {
	marker, err := r.ReadByte()
	if err != nil {
		return chunkHeader{}, err
	}
	measurement, err := readString(r)
	if err != nil {
		return chunkHeader{}, err
	}
	totalSize, err := readUvarint(r)
	if err != nil {
		return chunkHeader{}, err
	}
	dtByte, err := r.ReadByte()
	if err != nil {
		return chunkHeader{}, err
	}
	compByte, err := r.ReadByte()
	if err != nil {
		return chunkHeader{}, err
	}
	encByte, err := r.ReadByte()
	if err != nil {
		return chunkHeader{}, err
	}
	mask, err := r.ReadByte()
	if err != nil {
		return chunkHeader{}, err
	}
	numPages, err := readUvarint(r)
	if err != nil {
		return chunkHeader{}, err
	}
	return chunkHeader{
		Measurement:   measurement,
		TotalDataSize: int(totalSize),
		DataType:      DataType(dtByte),
		Compression:   Compression(compByte),
		Encoding:      Encoding(encByte),
		Mask:          mask,
		NumPages:      int(numPages),
		SinglePage:    marker == onlyOnePageChunkHeaderMarker,
	}, nil
}

// readChunkPages decodes every page of a chunk whose header has just been
// read from r, decompressing and decoding each in turn.
func readChunkPages(r byteReader, h chunkHeader) ([]decodedPage, error) {
	hasStats := !h.SinglePage
	out := make([]decodedPage, 0, h.NumPages)
	for i := 0; i < h.NumPages; i++ {
		ph, err := readPageHeader(r, h.DataType, hasStats)
		if err != nil {
			return nil, err
		}
		raw := make([]byte, ph.CompressedSize)
		if _, err := readFull(r, raw); err != nil {
			return nil, err
		}
		payload, err := decompress(h.Compression, raw)
		if err != nil {
			return nil, err
		}
		var dp decodedPage
		switch h.Mask {
		case maskTimeOnly:
			times, err := decodeTimeOnlyPage(payload)
			if err != nil {
				return nil, err
			}
			dp = decodedPage{Times: times}
		case maskAlignedValue:
			dp, err = decodeAlignedValuePage(payload, h.DataType, h.Encoding)
			if err != nil {
				return nil, err
			}
		default:
			dp, err = decodeValuePage(payload, h.DataType, h.Encoding)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, dp)
	}
	return out, nil
}

func readFull(r byteReader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}
