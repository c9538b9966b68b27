package tsfile

import (
	"bytes"
	"log/slog"
	"reflect"
	"sort"
)

// Writer appends tables to a single tsfile. Tables must be registered
// before any Tablet referencing them is written; device chunk groups
// accumulate in memory and flush to disk on memory pressure, on an
// explicit Flush, or at Close.
type Writer struct {
	fw      *fileWriter
	cfg     WriterConfig
	log     *slog.Logger
	schemas map[string]TableSchema

	// groups[table][deviceKey] is the active, unflushed chunk group for
	// that device.
	groups map[string]map[string]*chunkGroupWriter
	// deviceIDs[table][deviceKey] recovers the original DeviceID segments.
	deviceIDs map[string]map[string]DeviceID
	// chunkMetas[table][deviceKey][measurement] accumulates ChunkMeta
	// across every flush of that device's chunk group.
	chunkMetas map[string]map[string]map[string][]ChunkMeta

	rowsSinceCheck int
	closed         bool
}

// OpenWriter creates (truncating) the tsfile at path and returns a Writer
// ready to accept RegisterTable and WriteTable calls.
func OpenWriter(path string, cfg WriterConfig) (*Writer, error) {
	cfg.applyDefaults()
	fw, err := openFileWriter(path)
	if err != nil {
		return nil, err
	}
	if err := writeFileHeader(fw); err != nil {
		fw.Close()
		return nil, err
	}
	return &Writer{
		fw:         fw,
		cfg:        cfg,
		log:        slog.With("component", "tsfile.Writer", "path", path),
		schemas:    make(map[string]TableSchema),
		groups:     make(map[string]map[string]*chunkGroupWriter),
		deviceIDs:  make(map[string]map[string]DeviceID),
		chunkMetas: make(map[string]map[string]map[string][]ChunkMeta),
	}, nil
}

// RegisterTable declares a table's schema. It must be called exactly once
// per table name before any Tablet for that table is written.
func (w *Writer) RegisterTable(schema TableSchema) error {
	if _, exists := w.schemas[schema.Name]; exists {
		return newErr(ErrCodeTableAlreadyExists, "table already registered: "+schema.Name)
	}
	w.schemas[schema.Name] = schema
	w.groups[schema.Name] = make(map[string]*chunkGroupWriter)
	w.deviceIDs[schema.Name] = make(map[string]DeviceID)
	w.chunkMetas[schema.Name] = make(map[string]map[string][]ChunkMeta)
	w.log.Debug("table registered", "table", schema.Name, "aligned", schema.Aligned, "columns", len(schema.Columns))
	return nil
}

// WriteTable appends tablet's rows, dispatching each contiguous run of
// rows sharing a device identity to that device's chunk group.
func (w *Writer) WriteTable(tablet *Tablet) error {
	if w.closed {
		return newErr(ErrCodeInvalidArg, "writer is closed")
	}
	schema, ok := w.schemas[tablet.Table]
	if !ok {
		return newErr(ErrCodeTableNotRegistered, "table not registered: "+tablet.Table)
	}
	if err := tablet.validate(schema); err != nil {
		return err
	}

	tagCols := schema.TagColumns()
	fieldCols := schema.FieldColumns()

	for row := 0; row < tablet.RowCount(); row++ {
		device := make(DeviceID, len(tagCols))
		for i, tc := range tagCols {
			vals, ok := tablet.Values[tc.Name].([]string)
			if !ok {
				return newErr(ErrCodeTypeMismatch, "tag column "+tc.Name+" must be []string")
			}
			device[i] = vals[row]
		}
		deviceKey := device.String()

		group := w.groupFor(schema, deviceKey, device)
		time := tablet.Timestamps[row]

		for _, fc := range fieldCols {
			if !containsString(tablet.Columns, fc.Name) {
				// For an aligned table, every field chunk must advance in
				// lockstep with the shared TIME_ONLY chunk even when this
				// tablet carries only a subset of the table's columns;
				// otherwise a later tablet that does supply fc desyncs its
				// value chunk's row positions from the time chunk's.
				if schema.Aligned {
					if err := group.WriteRow(time, fc, nil, true); err != nil {
						return err
					}
				}
				continue
			}
			value, err := columnValueAt(tablet, fc, row)
			if err != nil {
				return err
			}
			isNull := tablet.IsNull(fc.Name, row)
			if err := group.WriteRow(time, fc, value, isNull); err != nil {
				return err
			}
		}
		if schema.Aligned {
			if err := group.WriteTimeOnly(time); err != nil {
				return err
			}
		}

		w.rowsSinceCheck++
		if w.rowsSinceCheck >= w.cfg.RecordCountForNextMemCheck {
			w.rowsSinceCheck = 0
			if err := w.flushOverThreshold(); err != nil {
				return err
			}
		}
	}
	return nil
}

func columnValueAt(t *Tablet, col ColumnSchema, row int) (any, error) {
	vals, ok := t.Values[col.Name]
	if !ok {
		return nil, newErr(ErrCodeColumnUnknown, "no values for column "+col.Name)
	}
	rv := reflect.ValueOf(vals)
	if row >= rv.Len() {
		return nil, newErr(ErrCodeInvalidArg, "row index out of range for column "+col.Name)
	}
	return rv.Index(row).Interface(), nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (w *Writer) groupFor(schema TableSchema, deviceKey string, device DeviceID) *chunkGroupWriter {
	groups := w.groups[schema.Name]
	g, ok := groups[deviceKey]
	if !ok {
		g = newChunkGroupWriter(device, schema, w.cfg)
		groups[deviceKey] = g
		w.deviceIDs[schema.Name][deviceKey] = device
	}
	return g
}

func (w *Writer) flushOverThreshold() error {
	for table, groups := range w.groups {
		for deviceKey, g := range groups {
			if g.EstimatedSize() >= w.cfg.ChunkGroupSizeThreshold {
				if err := w.flushGroup(table, deviceKey); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// flushGroup serializes one device's active chunk group to disk and
// records its chunks' absolute offsets, replacing the group with a fresh
// one so later rows for the same device start a new chunk group.
func (w *Writer) flushGroup(table, deviceKey string) error {
	g := w.groups[table][deviceKey]
	if g == nil {
		return nil
	}

	buf := &bytes.Buffer{}
	written, err := g.Serialize(buf)
	if err != nil {
		return err
	}
	baseOffset, err := w.fw.Append(buf.Bytes())
	if err != nil {
		return err
	}

	perMeasurement := w.chunkMetas[table][deviceKey]
	if perMeasurement == nil {
		perMeasurement = make(map[string][]ChunkMeta)
		w.chunkMetas[table][deviceKey] = perMeasurement
	}
	for _, wc := range written {
		meta := ChunkMeta{
			Measurement: wc.Measurement,
			Offset:      baseOffset + int64(wc.OffsetInGroup),
			DataType:    wc.DataType,
			Mask:        wc.Mask,
			Statistics:  wc.Stats,
		}
		perMeasurement[wc.Measurement] = append(perMeasurement[wc.Measurement], meta)
	}

	delete(w.groups[table], deviceKey)
	return nil
}

// Flush writes every active chunk group to disk, regardless of size, in
// ascending table-name then device-key order.
func (w *Writer) Flush() error {
	for _, table := range sortedTableNames(w.schemas) {
		deviceKeys := make([]string, 0, len(w.groups[table]))
		for deviceKey := range w.groups[table] {
			deviceKeys = append(deviceKeys, deviceKey)
		}
		sort.Strings(deviceKeys)
		for _, deviceKey := range deviceKeys {
			if err := w.flushGroup(table, deviceKey); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close flushes remaining data, writes the timeseries indexes, the
// two-tier metadata index, the schema dictionary, the device bloom
// filter, and the trailer, then closes the underlying file.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.Flush(); err != nil {
		return err
	}

	bloomKeys := make([][]byte, 0)
	for table, devices := range w.chunkMetas {
		for deviceKey := range devices {
			bloomKeys = append(bloomKeys, []byte(table+"\x00"+deviceKey))
		}
	}
	m, k := estimateBloomParameters(uint64(len(bloomKeys)), w.cfg.BloomFilterFalsePositiveRate)
	bloom := newBloomFilter(m, k)
	for _, key := range bloomKeys {
		bloom.Insert(key)
	}

	tw := &treeWriter{appendBytes: w.fw.Append}
	deviceTreeRoots := make(map[string]int64)

	tableNames := sortedTableNames(w.schemas)
	for _, tableName := range tableNames {
		deviceKeys := sortedDeviceKeys(w.chunkMetas[tableName])
		if len(deviceKeys) == 0 {
			deviceTreeRoots[tableName] = -1
			continue
		}

		deviceLeaves := make([]metaIndexChild, 0, len(deviceKeys))
		for _, deviceKey := range deviceKeys {
			perMeasurement := w.chunkMetas[tableName][deviceKey]
			measurementNames := sortedMeasurementNames(perMeasurement)

			measurementLeaves := make([]metaIndexChild, 0, len(measurementNames))
			for _, name := range measurementNames {
				chunks := perMeasurement[name]
				dt := chunks[0].DataType
				mask := chunks[0].Mask
				idx := buildTimeseriesIndex(name, dt, mask, chunks)

				idxBuf := &bytes.Buffer{}
				if err := writeTimeseriesIndex(idxBuf, idx); err != nil {
					return err
				}
				offset, err := w.fw.Append(idxBuf.Bytes())
				if err != nil {
					return err
				}
				measurementLeaves = append(measurementLeaves, metaIndexChild{Key: name, Offset: offset})
			}

			measurementRoot, err := tw.buildTree(leafMeasurement, internalMeasurement, measurementLeaves, w.cfg.MaxDegreeOfIndexNode)
			if err != nil {
				return err
			}
			deviceLeaves = append(deviceLeaves, metaIndexChild{Key: deviceKey, Offset: measurementRoot})
		}

		deviceRoot, err := tw.buildTree(leafDevice, internalDevice, deviceLeaves, w.cfg.MaxDegreeOfIndexNode)
		if err != nil {
			return err
		}
		deviceTreeRoots[tableName] = deviceRoot
	}

	meta := tsFileMeta{
		Schemas:         w.schemas,
		DeviceTreeRoots: deviceTreeRoots,
		Bloom:           bloom,
		Properties:      map[string]string{"writer_version": "1"},
	}
	metaBuf := &bytes.Buffer{}
	if err := writeFileMeta(metaBuf, meta); err != nil {
		return err
	}
	metaOffset, err := w.fw.Append(metaBuf.Bytes())
	if err != nil {
		return err
	}
	if err := writeFileTrailer(w.fw, metaOffset, uint32(metaBuf.Len())); err != nil {
		return err
	}

	if err := w.fw.Sync(); err != nil {
		return err
	}
	return w.fw.Close()
}

func sortedTableNames(m map[string]TableSchema) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedDeviceKeys(m map[string]map[string][]ChunkMeta) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedMeasurementNames(m map[string][]ChunkMeta) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
