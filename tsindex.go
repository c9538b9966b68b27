package tsfile

import (
	"bytes"
	"sort"
)

// ChunkMeta is one chunk's entry in a timeseries index: enough to locate
// and prune the chunk without reading its pages.
type ChunkMeta struct {
	Measurement string
	Offset      int64
	DataType    DataType
	Mask        byte
	Statistics  Statistics
}

// TimeseriesIndex is the ordered list of ChunkMeta for one measurement
// within one device's chunk groups, plus their merged statistics. This is
// the leaf payload a measurement-tree leaf node in the metadata index
// points at.
type TimeseriesIndex struct {
	Measurement string
	DataType    DataType
	Mask        byte
	Chunks      []ChunkMeta
	Merged      Statistics
}

// buildTimeseriesIndex sorts chunks by offset and folds their statistics
// into one merged summary.
func buildTimeseriesIndex(measurement string, dt DataType, mask byte, chunks []ChunkMeta) TimeseriesIndex {
	sorted := make([]ChunkMeta, len(chunks))
	copy(sorted, chunks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Offset < sorted[j].Offset })

	merged := NewStatistics(dt)
	for _, c := range sorted {
		merged = Merge(merged, c.Statistics)
	}
	return TimeseriesIndex{Measurement: measurement, DataType: dt, Mask: mask, Chunks: sorted, Merged: merged}
}

// writeTimeseriesIndex serializes idx. Per-chunk statistics are only
// written when more than one chunk exists for this measurement — with a
// single chunk, its statistics are identical to the merged summary and
// would be redundant.
func writeTimeseriesIndex(w *bytes.Buffer, idx TimeseriesIndex) error {
	if err := writeString(w, idx.Measurement); err != nil {
		return err
	}
	if err := w.WriteByte(byte(idx.DataType)); err != nil {
		return err
	}
	if err := w.WriteByte(idx.Mask); err != nil {
		return err
	}
	if err := writeUvarint(w, uint64(len(idx.Chunks))); err != nil {
		return err
	}

	multi := len(idx.Chunks) > 1
	if multi {
		if err := w.WriteByte(1); err != nil {
			return err
		}
	} else {
		if err := w.WriteByte(0); err != nil {
			return err
		}
	}

	var prevOffset int64
	for _, c := range idx.Chunks {
		if err := writeVarint(w, c.Offset-prevOffset); err != nil {
			return err
		}
		prevOffset = c.Offset
	}
	if err := writeStatistics(w, idx.Merged); err != nil {
		return err
	}
	if multi {
		for _, c := range idx.Chunks {
			if err := writeStatistics(w, c.Statistics); err != nil {
				return err
			}
		}
	}
	return nil
}

// readTimeseriesIndex deserializes a TimeseriesIndex.
func readTimeseriesIndex(r byteReader) (TimeseriesIndex, error) {
	measurement, err := readString(r)
	if err != nil {
		return TimeseriesIndex{}, err
	}
	dtByte, err := r.ReadByte()
	if err != nil {
		return TimeseriesIndex{}, err
	}
	mask, err := r.ReadByte()
	if err != nil {
		return TimeseriesIndex{}, err
	}
	dt := DataType(dtByte)
	numChunks, err := readUvarint(r)
	if err != nil {
		return TimeseriesIndex{}, err
	}
	tsType, err := r.ReadByte()
	if err != nil {
		return TimeseriesIndex{}, err
	}
	multi := tsType == 1

	offsets := make([]int64, numChunks)
	var prevOffset int64
	for i := range offsets {
		delta, err := readVarint(r)
		if err != nil {
			return TimeseriesIndex{}, err
		}
		prevOffset += delta
		offsets[i] = prevOffset
	}
	merged, err := readStatistics(r, dt)
	if err != nil {
		return TimeseriesIndex{}, err
	}

	chunks := make([]ChunkMeta, numChunks)
	if multi {
		for i := range chunks {
			stats, err := readStatistics(r, dt)
			if err != nil {
				return TimeseriesIndex{}, err
			}
			chunks[i] = ChunkMeta{Measurement: measurement, Offset: offsets[i], DataType: dt, Mask: mask, Statistics: stats}
		}
	} else {
		for i := range chunks {
			chunks[i] = ChunkMeta{Measurement: measurement, Offset: offsets[i], DataType: dt, Mask: mask, Statistics: merged}
		}
	}

	return TimeseriesIndex{Measurement: measurement, DataType: dt, Mask: mask, Chunks: chunks, Merged: merged}, nil
}
