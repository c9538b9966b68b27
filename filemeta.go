package tsfile

import (
	"bytes"
	"sort"
)

// fileMagic opens and closes every tsfile; fileVersion is bumped whenever
// the wire format changes in an incompatible way.
const (
	fileMagic   = "TsFile"
	fileVersion = byte(4)
)

// tsFileMeta is the whole-file metadata block written once, at Close,
// after every chunk group has been flushed to disk: per-table schema, the
// offset of each table's device-tree root, the device bloom filter, and
// free-form properties.
type tsFileMeta struct {
	Schemas         map[string]TableSchema
	DeviceTreeRoots map[string]int64 // table name -> device-tree root offset
	Bloom           *bloomFilter
	Properties      map[string]string
}

func writeFileHeader(fw *fileWriter) error {
	_, err := fw.Append(append([]byte(fileMagic), fileVersion))
	return err
}

func writeTableSchema(w *bytes.Buffer, s TableSchema) error {
	if err := writeString(w, s.Name); err != nil {
		return err
	}
	if err := w.WriteByte(boolByte(s.Aligned)); err != nil {
		return err
	}
	if err := writeUvarint(w, uint64(len(s.Columns))); err != nil {
		return err
	}
	for _, c := range s.Columns {
		if err := writeString(w, c.Name); err != nil {
			return err
		}
		if err := w.WriteByte(byte(c.Type)); err != nil {
			return err
		}
		if err := w.WriteByte(byte(c.Encoding)); err != nil {
			return err
		}
		if err := w.WriteByte(byte(c.Compression)); err != nil {
			return err
		}
		if err := w.WriteByte(byte(c.Category)); err != nil {
			return err
		}
	}
	return nil
}

func readTableSchema(r byteReader) (TableSchema, error) {
	name, err := readString(r)
	if err != nil {
		return TableSchema{}, err
	}
	alignedByte, err := r.ReadByte()
	if err != nil {
		return TableSchema{}, err
	}
	numCols, err := readUvarint(r)
	if err != nil {
		return TableSchema{}, err
	}
	cols := make([]ColumnSchema, numCols)
	for i := range cols {
		cname, err := readString(r)
		if err != nil {
			return TableSchema{}, err
		}
		dt, err := r.ReadByte()
		if err != nil {
			return TableSchema{}, err
		}
		enc, err := r.ReadByte()
		if err != nil {
			return TableSchema{}, err
		}
		comp, err := r.ReadByte()
		if err != nil {
			return TableSchema{}, err
		}
		cat, err := r.ReadByte()
		if err != nil {
			return TableSchema{}, err
		}
		cols[i] = ColumnSchema{Name: cname, Type: DataType(dt), Encoding: Encoding(enc), Compression: Compression(comp), Category: ColumnCategory(cat)}
	}
	return TableSchema{Name: name, Columns: cols, Aligned: alignedByte != 0}, nil
}

func writeFileMeta(w *bytes.Buffer, m tsFileMeta) error {
	if err := writeUvarint(w, uint64(len(m.Schemas))); err != nil {
		return err
	}
	// Deterministic order: sort table names.
	names := sortedKeys(m.Schemas)
	for _, name := range names {
		if err := writeTableSchema(w, m.Schemas[name]); err != nil {
			return err
		}
		if err := writeVarint(w, m.DeviceTreeRoots[name]); err != nil {
			return err
		}
	}
	if err := writeBloomFilter(w, m.Bloom); err != nil {
		return err
	}
	propKeys := sortedKeysString(m.Properties)
	if err := writeUvarint(w, uint64(len(propKeys))); err != nil {
		return err
	}
	for _, k := range propKeys {
		if err := writeString(w, k); err != nil {
			return err
		}
		if err := writeString(w, m.Properties[k]); err != nil {
			return err
		}
	}
	return nil
}

func readFileMeta(r byteReader) (tsFileMeta, error) {
	numTables, err := readUvarint(r)
	if err != nil {
		return tsFileMeta{}, err
	}
	m := tsFileMeta{Schemas: make(map[string]TableSchema), DeviceTreeRoots: make(map[string]int64)}
	for i := uint64(0); i < numTables; i++ {
		schema, err := readTableSchema(r)
		if err != nil {
			return tsFileMeta{}, err
		}
		root, err := readVarint(r)
		if err != nil {
			return tsFileMeta{}, err
		}
		m.Schemas[schema.Name] = schema
		m.DeviceTreeRoots[schema.Name] = root
	}
	bloom, err := readBloomFilter(r)
	if err != nil {
		return tsFileMeta{}, err
	}
	m.Bloom = bloom
	numProps, err := readUvarint(r)
	if err != nil {
		return tsFileMeta{}, err
	}
	m.Properties = make(map[string]string, numProps)
	for i := uint64(0); i < numProps; i++ {
		k, err := readString(r)
		if err != nil {
			return tsFileMeta{}, err
		}
		v, err := readString(r)
		if err != nil {
			return tsFileMeta{}, err
		}
		m.Properties[k] = v
	}
	return m, nil
}

func writeFileTrailer(fw *fileWriter, metaOffset int64, metaSize uint32) error {
	buf := &bytes.Buffer{}
	if err := writeI64BE(buf, metaOffset); err != nil {
		return err
	}
	if err := writeU32BE(buf, metaSize); err != nil {
		return err
	}
	buf.WriteString(fileMagic)
	_, err := fw.Append(buf.Bytes())
	return err
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func sortedKeys(m map[string]TableSchema) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedKeysString(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
