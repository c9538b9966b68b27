package tsfile

import "reflect"

// scannedSeries is the fully decoded, time-filtered content of one
// measurement's chunks for a single device.
type scannedSeries struct {
	DataType DataType
	Mask     byte
	Times    []int64 // filled here for maskNormal and maskTimeOnly; ScanSeries also fills it for maskAlignedValue
	Values   any     // nil for maskTimeOnly
	NotNull  []bool  // full length, only for maskAlignedValue
}

// scanTimeseriesIndex reads the TimeseriesIndex at offset, then decodes
// every chunk whose statistics overlap [tMin, tMax] — chunks entirely
// outside the range are skipped without reading their pages.
func scanTimeseriesIndex(fr *fileReader, offset int64, tMin, tMax int64) (scannedSeries, error) {
	size, err := fr.Size()
	if err != nil {
		return scannedSeries{}, err
	}
	idx, err := readTimeseriesIndex(fr.SectionReader(offset, size-offset))
	if err != nil {
		return scannedSeries{}, err
	}

	out := scannedSeries{DataType: idx.DataType, Mask: idx.Mask}
	for _, cm := range idx.Chunks {
		if !cm.Statistics.OverlapsTimeRange(tMin, tMax) {
			continue
		}
		hdr, pages, err := readChunkAt(fr, cm.Offset)
		if err != nil {
			return scannedSeries{}, err
		}
		appendDecodedPages(&out, hdr, pages)
	}
	return out, nil
}

func readChunkAt(fr *fileReader, offset int64) (chunkHeader, []decodedPage, error) {
	size, err := fr.Size()
	if err != nil {
		return chunkHeader{}, nil, err
	}
	r := fr.SectionReader(offset, size-offset)
	hdr, err := readChunkHeader(r)
	if err != nil {
		return chunkHeader{}, nil, err
	}
	pages, err := readChunkPages(r, hdr)
	if err != nil {
		return chunkHeader{}, nil, err
	}
	return hdr, pages, nil
}

func appendDecodedPages(out *scannedSeries, hdr chunkHeader, pages []decodedPage) {
	switch hdr.Mask {
	case maskTimeOnly:
		for _, p := range pages {
			out.Times = append(out.Times, p.Times...)
		}
	case maskAlignedValue:
		if out.Values == nil {
			out.Values = newTypedSlice(hdr.DataType)
		}
		for _, p := range pages {
			values, notNull := expandAligned(hdr.DataType, p)
			out.Values = concatTyped(out.Values, values)
			out.NotNull = append(out.NotNull, notNull...)
		}
	default:
		if out.Values == nil {
			out.Values = newTypedSlice(hdr.DataType)
		}
		for _, p := range pages {
			out.Times = append(out.Times, p.Times...)
			out.Values = concatTyped(out.Values, p.Values)
		}
	}
}

// expandAligned reconstructs a page's full-length value slice (one entry
// per position, including nulls) from its decoded non-null-only values
// and not-null bitmap.
func expandAligned(dt DataType, p decodedPage) (any, []bool) {
	full := newTypedSlice(dt)
	rv := reflect.ValueOf(p.Values)
	zero := reflect.Zero(rv.Type().Elem())
	srcIdx := 0
	for _, notNull := range p.NotNull {
		if notNull {
			full = appendTyped(full, rv.Index(srcIdx).Interface())
			srcIdx++
		} else {
			full = appendTyped(full, zero.Interface())
		}
	}
	return full, p.NotNull
}

func concatTyped(dst, src any) any {
	return reflect.AppendSlice(reflect.ValueOf(dst), reflect.ValueOf(src)).Interface()
}
