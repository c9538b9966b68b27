package tsfile

import (
	"bytes"
	"testing"
)

func TestChunkWriterSinglePageOmitsStatistics(t *testing.T) {
	w := newChunkWriter("usage", TypeFloat64, EncodingGorilla, CompressionSnappy, maskNormal, 100)
	for i := 0; i < 5; i++ {
		if err := w.Write(int64(i), float64(i)*1.5); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	buf := &bytes.Buffer{}
	stats, err := w.serialize(buf)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if stats.Count != 5 {
		t.Fatalf("chunk stats count = %d, want 5", stats.Count)
	}

	r := newByteReader(bytes.NewReader(buf.Bytes()))
	hdr, err := readChunkHeader(r)
	if err != nil {
		t.Fatalf("read header: %v", err)
	}
	if !hdr.SinglePage {
		t.Fatal("a chunk sealed with exactly one page must be marked SinglePage")
	}
	pages, err := readChunkPages(r, hdr)
	if err != nil {
		t.Fatalf("read pages: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(pages))
	}
	if len(pages[0].Times) != 5 {
		t.Fatalf("got %d rows, want 5", len(pages[0].Times))
	}
}

func TestChunkWriterMultiPageCarriesPerPageStatistics(t *testing.T) {
	w := newChunkWriter("usage", TypeInt64, EncodingTS2Diff, CompressionUncompressed, maskNormal, 3)
	for i := 0; i < 7; i++ {
		if err := w.Write(int64(i), int64(i*10)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if len(w.pages) != 2 {
		t.Fatalf("expected 2 sealed pages before serialize, got %d", len(w.pages))
	}

	buf := &bytes.Buffer{}
	if _, err := w.serialize(buf); err != nil {
		t.Fatalf("serialize: %v", err)
	}

	r := newByteReader(bytes.NewReader(buf.Bytes()))
	hdr, err := readChunkHeader(r)
	if err != nil {
		t.Fatalf("read header: %v", err)
	}
	if hdr.SinglePage {
		t.Fatal("a 3-page chunk must not be marked SinglePage")
	}
	pages, err := readChunkPages(r, hdr)
	if err != nil {
		t.Fatalf("read pages: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(pages))
	}
	total := 0
	for _, p := range pages {
		total += len(p.Times)
	}
	if total != 7 {
		t.Fatalf("total rows across pages = %d, want 7", total)
	}
}

func TestChunkWriterAlignedNullRowsAdvancePageBoundary(t *testing.T) {
	w := newChunkWriter("temp", TypeFloat64, EncodingPlain, CompressionUncompressed, maskAlignedValue, 4)
	rows := []struct {
		time   int64
		value  float64
		isNull bool
	}{
		{1, 10, false},
		{2, 0, true},
		{3, 30, false},
		{4, 0, true},
		{5, 50, false},
	}
	for _, r := range rows {
		if err := w.WriteAligned(r.time, r.value, r.isNull); err != nil {
			t.Fatalf("write aligned: %v", err)
		}
	}
	if len(w.pages) != 1 {
		t.Fatalf("expected one sealed page after 4 rows reached maxPointsPerPage, got %d", len(w.pages))
	}
	if w.chunkStats.Count != 3 {
		t.Fatalf("chunk stats count = %d, want 3 (non-null rows only)", w.chunkStats.Count)
	}
	if !w.chunkStats.HasRange || w.chunkStats.StartTime != 1 {
		t.Fatalf("chunk stats range should start at row 1 regardless of null rows: %+v", w.chunkStats)
	}

	buf := &bytes.Buffer{}
	if _, err := w.serialize(buf); err != nil {
		t.Fatalf("serialize: %v", err)
	}
	r := newByteReader(bytes.NewReader(buf.Bytes()))
	hdr, err := readChunkHeader(r)
	if err != nil {
		t.Fatalf("read header: %v", err)
	}
	pages, err := readChunkPages(r, hdr)
	if err != nil {
		t.Fatalf("read pages: %v", err)
	}
	total := 0
	for _, p := range pages {
		total += len(p.NotNull)
	}
	if total != 5 {
		t.Fatalf("total positions across pages = %d, want 5 (nulls included)", total)
	}
}

func TestChunkWriterTimeOnlyChunkStatisticsHasRangeWithZeroCount(t *testing.T) {
	w := newChunkWriter("", TypeTime, EncodingTS2Diff, CompressionUncompressed, maskTimeOnly, 100)
	for _, tm := range []int64{100, 200, 300} {
		if err := w.Write(tm, nil); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if w.chunkStats.Count != 0 {
		t.Fatalf("a TIME_ONLY chunk's stats must never fold a value, count = %d", w.chunkStats.Count)
	}
	if !w.chunkStats.HasRange || w.chunkStats.StartTime != 100 || w.chunkStats.EndTime != 300 {
		t.Fatalf("stats range = %+v, want HasRange with [100,300]", w.chunkStats)
	}
	if !w.chunkStats.OverlapsTimeRange(250, 400) {
		t.Fatal("a TIME_ONLY chunk with Count == 0 must still overlap its real time span")
	}
}
