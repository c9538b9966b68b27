package tsfile

import "bytes"

// chunkGroupMarker precedes every chunk group on the wire: one byte
// followed by the var-str DeviceID the group belongs to.
const chunkGroupMarker byte = 0x00

// writtenChunk is one chunk's metadata as produced by serializing a chunk
// group, with an offset relative to the start of that group's byte
// segment. The caller translates this into an absolute file offset (and
// from there, the delta-encoded offset the timeseries index stores) once
// it knows where the group landed in the file.
type writtenChunk struct {
	Measurement   string
	DataType      DataType
	Mask          byte
	Stats         Statistics
	OffsetInGroup int
}

// chunkGroupWriter buffers every chunk of one device between flushes. For
// an aligned table it holds one TIME_ONLY chunk writer plus one
// maskAlignedValue writer per field; for a non-aligned table it holds one
// maskNormal writer per field actually written to by this device.
type chunkGroupWriter struct {
	device DeviceID
	schema TableSchema

	order      []string // measurement names, in order of first write
	timeWriter *chunkWriter
	fields     map[string]*chunkWriter

	cfg WriterConfig
}

func newChunkGroupWriter(device DeviceID, schema TableSchema, cfg WriterConfig) *chunkGroupWriter {
	g := &chunkGroupWriter{
		device: device,
		schema: schema,
		fields: make(map[string]*chunkWriter),
		cfg:    cfg,
	}
	if schema.Aligned {
		g.timeWriter = newChunkWriter("", TypeTime, EncodingTS2Diff, CompressionUncompressed, maskTimeOnly, cfg.MaxPointsPerPage)
	}
	return g
}

// writerFor returns (creating if necessary) the chunk writer for column,
// appending its name to g.order on creation so Serialize emits chunks in
// first-write order. For an aligned table every row writes every field,
// so that order is schema field order; for a non-aligned table it follows
// which fields the device's tablets carried first.
func (g *chunkGroupWriter) writerFor(column ColumnSchema) *chunkWriter {
	w, ok := g.fields[column.Name]
	if ok {
		return w
	}
	mask := maskNormal
	if g.schema.Aligned {
		mask = maskAlignedValue
	}
	w = newChunkWriter(column.Name, column.Type, column.Encoding, column.Compression, mask, g.cfg.MaxPointsPerPage)
	g.fields[column.Name] = w
	g.order = append(g.order, column.Name)
	return w
}

// WriteRow appends one (time, field values) row for this device. isNull
// is consulted only for aligned tables, where every field writer must
// advance in lockstep with the shared time chunk.
func (g *chunkGroupWriter) WriteRow(time int64, column ColumnSchema, value any, isNull bool) error {
	w := g.writerFor(column)
	if g.schema.Aligned {
		return w.WriteAligned(time, value, isNull)
	}
	if isNull {
		return nil
	}
	return w.Write(time, value)
}

// WriteTimeOnly advances the shared time chunk of an aligned device. It
// must be called exactly once per row, after every field's WriteRow call
// for that row.
func (g *chunkGroupWriter) WriteTimeOnly(time int64) error {
	return g.timeWriter.Write(time, nil)
}

// EstimatedSize returns a rough byte estimate of everything buffered in
// this chunk group, used by the writer's memory-pressure flush policy.
func (g *chunkGroupWriter) EstimatedSize() int {
	size := 0
	if g.timeWriter != nil {
		size += g.timeWriter.pendingRows() * 8
		for _, p := range g.timeWriter.pages {
			size += len(p.compressed)
		}
	}
	for _, name := range g.order {
		w := g.fields[name]
		size += w.pendingRows() * 8
		for _, p := range w.pages {
			size += len(p.compressed)
		}
	}
	return size
}

// Serialize writes the chunk-group marker, device id, and every buffered
// chunk (time chunk first for an aligned device) to buf, returning one
// writtenChunk per chunk in wire order.
func (g *chunkGroupWriter) Serialize(buf *bytes.Buffer) ([]writtenChunk, error) {
	if err := buf.WriteByte(chunkGroupMarker); err != nil {
		return nil, err
	}
	if err := writeString(buf, g.device.String()); err != nil {
		return nil, err
	}

	var out []writtenChunk
	if g.timeWriter != nil {
		offset := buf.Len()
		stats, err := g.timeWriter.serialize(buf)
		if err != nil {
			return nil, err
		}
		out = append(out, writtenChunk{Measurement: "", DataType: TypeTime, Mask: maskTimeOnly, Stats: stats, OffsetInGroup: offset})
	}
	for _, name := range g.order {
		w := g.fields[name]
		offset := buf.Len()
		stats, err := w.serialize(buf)
		if err != nil {
			return nil, err
		}
		out = append(out, writtenChunk{Measurement: name, DataType: w.dataType, Mask: w.mask, Stats: stats, OffsetInGroup: offset})
	}
	return out, nil
}
