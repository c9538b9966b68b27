package tsfile

import (
	"bytes"
	"log/slog"
	"strings"
)

// trailerSize is the fixed-width trailer: an int64 BE meta offset, a
// uint32 BE meta size, and the magic string.
const trailerSize = 8 + 4 + len(fileMagic)

// Reader opens a tsfile for querying. Reader holds only the whole-file
// metadata block in memory; the two-tier index and chunk data are read
// lazily, on demand, per query.
type Reader struct {
	fr   *fileReader
	meta tsFileMeta
	mr   *metaIndexReader
	log  *slog.Logger
}

// OpenReader reads path's trailer and whole-file metadata block.
func OpenReader(path string) (*Reader, error) {
	fr, err := openFileReader(path)
	if err != nil {
		return nil, err
	}
	size, err := fr.Size()
	if err != nil {
		fr.Close()
		return nil, err
	}
	if size < int64(trailerSize)+int64(len(fileMagic))+1 {
		fr.Close()
		return nil, newErr(ErrCodeCorrupted, "file too small to be a tsfile")
	}

	trailer := make([]byte, trailerSize)
	if _, err := fr.ReadAt(trailer, size-int64(trailerSize)); err != nil {
		fr.Close()
		return nil, err
	}
	tr := newByteReader(bytes.NewReader(trailer))
	metaOffset, err := readI64BE(tr)
	if err != nil {
		fr.Close()
		return nil, err
	}
	metaSize, err := readU32BE(tr)
	if err != nil {
		fr.Close()
		return nil, err
	}
	magicBuf := make([]byte, len(fileMagic))
	if err := readExact(tr, magicBuf); err != nil {
		fr.Close()
		return nil, err
	}
	if string(magicBuf) != fileMagic {
		fr.Close()
		return nil, newErr(ErrCodeCorrupted, "trailer magic mismatch")
	}

	metaBytes := make([]byte, metaSize)
	if _, err := fr.ReadAt(metaBytes, metaOffset); err != nil {
		fr.Close()
		return nil, err
	}
	meta, err := readFileMeta(newByteReader(bytes.NewReader(metaBytes)))
	if err != nil {
		fr.Close()
		return nil, err
	}

	return &Reader{
		fr:   fr,
		meta: meta,
		mr:   &metaIndexReader{src: fr, fileSize: size},
		log:  slog.With("component", "tsfile.Reader", "path", path),
	}, nil
}

func readExact(r byteReader, buf []byte) error {
	_, err := readFull(r, buf)
	return err
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	return r.fr.Close()
}

// TableSchema returns the registered schema for table.
func (r *Reader) TableSchema(table string) (TableSchema, bool) {
	s, ok := r.meta.Schemas[table]
	return s, ok
}

// QueryTable scans table for the requested columns within [tMin, tMax],
// visiting every device in ascending device-key order (DEVICE ordering).
// columns may mix TAG and FIELD names; TAG values come from the device
// identity rather than from any chunk. TIME ordering is not supported.
func (r *Reader) QueryTable(table string, columns []string, tMin, tMax int64, ordering Ordering) (*ResultSet, error) {
	if ordering == OrderingTime {
		return nil, newErr(ErrCodeUnsupportedOrdering, "TIME ordering is not supported")
	}
	schema, ok := r.meta.Schemas[table]
	if !ok {
		return nil, newErr(ErrCodeTableNotRegistered, "table not registered: "+table)
	}
	for _, col := range columns {
		if _, ok := schema.Column(col); !ok {
			return nil, newErr(ErrCodeColumnUnknown, "column "+col+" not in table "+table)
		}
	}

	rs := &ResultSet{schema: schema, columns: columns, pos: -1}
	rootOffset, ok := r.meta.DeviceTreeRoots[table]
	if !ok || rootOffset < 0 {
		return rs, nil
	}

	deviceLeaves, err := r.mr.walkAllLeaves(rootOffset)
	if err != nil {
		return nil, err
	}

	tagCols := schema.TagColumns()
	requestedFields := requestedFieldNames(schema, columns)

	for _, leaf := range deviceLeaves {
		tags := tagValuesFromKey(tagCols, leaf.Key)
		measurementLeaves, err := r.mr.walkAllLeaves(leaf.Offset)
		if err != nil {
			return nil, err
		}
		offsetByName := make(map[string]int64, len(measurementLeaves))
		for _, m := range measurementLeaves {
			offsetByName[m.Key] = m.Offset
		}

		fields := make(map[string]scannedSeries, len(requestedFields))
		for _, name := range requestedFields {
			offset, ok := offsetByName[name]
			if !ok {
				continue
			}
			series, err := scanTimeseriesIndex(r.fr, offset, tMin, tMax)
			if err != nil {
				return nil, err
			}
			fields[name] = series
		}

		var rows []resultRow
		if schema.Aligned {
			timeOffset, ok := offsetByName[""]
			if !ok {
				continue
			}
			timeSeries, err := scanTimeseriesIndex(r.fr, timeOffset, tMin, tMax)
			if err != nil {
				return nil, err
			}
			rows = assembleAligned(tags, requestedFields, timeSeries.Times, fields, tMin, tMax)
		} else {
			rows = assembleIndependent(tags, requestedFields, fields, tMin, tMax)
		}
		rs.rows = append(rs.rows, rows...)
	}

	return rs, nil
}

// HasDevice reports whether device may exist within table. It first probes
// the whole-file bloom filter — a negative there is definitive and avoids
// any index-tree descent — then confirms a positive with an exact descent
// to the device-tree leaf that would hold device.
func (r *Reader) HasDevice(table string, device DeviceID) (bool, error) {
	if _, ok := r.meta.Schemas[table]; !ok {
		return false, newErr(ErrCodeTableNotRegistered, "table not registered: "+table)
	}
	deviceKey := device.String()
	if r.meta.Bloom != nil && !r.meta.Bloom.MaybeContains([]byte(table+"\x00"+deviceKey)) {
		return false, nil
	}
	rootOffset, ok := r.meta.DeviceTreeRoots[table]
	if !ok || rootOffset < 0 {
		return false, nil
	}
	leaf, err := r.mr.descend(rootOffset, deviceKey)
	if err != nil {
		if fe, isFE := err.(*FileError); isFE && fe.Code == ErrCodeNotExist {
			return false, nil
		}
		return false, err
	}
	_, found := binarySearchChildren(leaf.Children, deviceKey, true)
	return found, nil
}

// ScanSeries resolves one (device, measurement) pair by descending the
// device tree to the device's measurement-tree root, then descending that
// tree to the measurement's TimeseriesIndex, exactly as a SeriesScan
// iterator would; a bare NOT_EXIST from either descent is lowered to the
// caller-facing DEVICE_NOT_EXIST or MEASUREMENT_NOT_EXIST code. It then
// decodes every chunk of that series overlapping [tMin, tMax]. For a field
// of an aligned table, Times is read from the device's time column.
func (r *Reader) ScanSeries(table string, device DeviceID, measurement string, tMin, tMax int64) (scannedSeries, error) {
	if _, ok := r.meta.Schemas[table]; !ok {
		return scannedSeries{}, newErr(ErrCodeTableNotRegistered, "table not registered: "+table)
	}
	deviceKey := device.String()
	rootOffset, ok := r.meta.DeviceTreeRoots[table]
	if !ok || rootOffset < 0 {
		return scannedSeries{}, newErr(ErrCodeDeviceNotExist, "device not found: "+deviceKey)
	}

	deviceLeaf, err := r.mr.descend(rootOffset, deviceKey)
	if err != nil {
		return scannedSeries{}, lowerNotExist(err, ErrCodeDeviceNotExist)
	}
	deviceChild, found := binarySearchChildren(deviceLeaf.Children, deviceKey, true)
	if !found {
		return scannedSeries{}, newErr(ErrCodeDeviceNotExist, "device not found: "+deviceKey)
	}

	measurementLeaf, err := r.mr.descend(deviceChild.Offset, measurement)
	if err != nil {
		return scannedSeries{}, lowerNotExist(err, ErrCodeMeasurementNotExist)
	}
	measurementChild, found := binarySearchChildren(measurementLeaf.Children, measurement, true)
	if !found {
		return scannedSeries{}, newErr(ErrCodeMeasurementNotExist, "measurement not found: "+measurement)
	}

	series, err := scanTimeseriesIndex(r.fr, measurementChild.Offset, tMin, tMax)
	if err != nil || series.Mask != maskAlignedValue {
		return series, err
	}
	timeLeaf, err := r.mr.descend(deviceChild.Offset, "")
	if err != nil {
		return scannedSeries{}, err
	}
	timeChild, found := binarySearchChildren(timeLeaf.Children, "", true)
	if !found {
		return scannedSeries{}, newErr(ErrCodeCorrupted, "aligned device has no time column index")
	}
	timeSeries, err := scanTimeseriesIndex(r.fr, timeChild.Offset, tMin, tMax)
	series.Times = timeSeries.Times
	return series, err
}

func requestedFieldNames(schema TableSchema, columns []string) []string {
	tagSet := make(map[string]bool)
	for _, c := range schema.TagColumns() {
		tagSet[c.Name] = true
	}
	var out []string
	for _, c := range columns {
		if !tagSet[c] {
			out = append(out, c)
		}
	}
	return out
}

func tagValuesFromKey(tagCols []ColumnSchema, key string) map[string]string {
	segments := strings.Split(key, "\x00")
	out := make(map[string]string, len(tagCols))
	for i, tc := range tagCols {
		if i < len(segments) {
			out[tc.Name] = segments[i]
		}
	}
	return out
}
