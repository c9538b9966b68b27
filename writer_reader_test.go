package tsfile

import (
	"path/filepath"
	"testing"
)

func TestWriterReaderRoundTripAligned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aligned.tsfile")

	w, err := OpenWriter(path, DefaultWriterConfig())
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}
	schema := alignedSchema()
	if err := w.RegisterTable(schema); err != nil {
		t.Fatalf("register: %v", err)
	}

	tablet := &Tablet{
		Table:      "sensors",
		Columns:    []string{"host", "temp", "humidity"},
		Timestamps: []int64{10, 20, 30, 40},
		Values: map[string]any{
			"host":     []string{"rack-a", "rack-a", "rack-a", "rack-a"},
			"temp":     []float64{21.5, 21.7, 21.9, 22.0},
			"humidity": []float64{40.0, 0, 41.5, 0},
		},
		NotNull: map[string][]bool{
			"humidity": {true, false, true, false},
		},
	}
	if err := w.WriteTable(tablet); err != nil {
		t.Fatalf("write table: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	r, err := OpenReader(path)
	if err != nil {
		t.Fatalf("open reader: %v", err)
	}
	defer r.Close()

	rs, err := r.QueryTable("sensors", []string{"host", "temp", "humidity"}, 0, 1000, OrderingDevice)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rs.Close()

	var gotTimes []int64
	var gotTemps []float64
	var gotHumidityNull []bool
	for rs.Next() {
		gotTimes = append(gotTimes, rs.Time())
		gotTemps = append(gotTemps, rs.GetFloat64("temp"))
		gotHumidityNull = append(gotHumidityNull, rs.IsNull("humidity"))
		if rs.GetString("host") != "rack-a" {
			t.Fatalf("host = %q, want rack-a", rs.GetString("host"))
		}
	}
	wantTimes := []int64{10, 20, 30, 40}
	if !equalI64Slice(gotTimes, wantTimes) {
		t.Fatalf("times = %v, want %v", gotTimes, wantTimes)
	}
	wantTemps := []float64{21.5, 21.7, 21.9, 22.0}
	for i, v := range wantTemps {
		if gotTemps[i] != v {
			t.Fatalf("temp[%d] = %v, want %v", i, gotTemps[i], v)
		}
	}
	wantHumidityNull := []bool{false, true, false, true}
	if !equalBoolSlice(gotHumidityNull, wantHumidityNull) {
		t.Fatalf("humidity null flags = %v, want %v", gotHumidityNull, wantHumidityNull)
	}

	has, err := r.HasDevice("sensors", DeviceID{"rack-a"})
	if err != nil || !has {
		t.Fatalf("HasDevice(rack-a) = %v, %v, want true, nil", has, err)
	}
	has, err = r.HasDevice("sensors", DeviceID{"rack-z"})
	if err != nil || has {
		t.Fatalf("HasDevice(rack-z) = %v, %v, want false, nil", has, err)
	}

	series, err := r.ScanSeries("sensors", DeviceID{"rack-a"}, "temp", 0, 1000)
	if err != nil {
		t.Fatalf("ScanSeries: %v", err)
	}
	if !equalI64Slice(series.Times, wantTimes) {
		t.Fatalf("ScanSeries times = %v, want %v", series.Times, wantTimes)
	}

	_, err = r.ScanSeries("sensors", DeviceID{"rack-z"}, "temp", 0, 1000)
	fe, ok := err.(*FileError)
	if !ok || fe.Code != ErrCodeDeviceNotExist {
		t.Fatalf("ScanSeries on an absent device = %v, want ErrCodeDeviceNotExist", err)
	}

	_, err = r.ScanSeries("sensors", DeviceID{"rack-a"}, "bogus", 0, 1000)
	fe, ok = err.(*FileError)
	if !ok || fe.Code != ErrCodeMeasurementNotExist {
		t.Fatalf("ScanSeries on an absent measurement = %v, want ErrCodeMeasurementNotExist", err)
	}
}

func independentFieldsSchema() TableSchema {
	return TableSchema{
		Name: "metrics",
		Columns: []ColumnSchema{
			{Name: "host", Category: CategoryTag, Type: TypeString},
			{Name: "usage", Category: CategoryField, Type: TypeFloat64},
			{Name: "errors", Category: CategoryField, Type: TypeInt64, Encoding: EncodingTS2Diff},
		},
	}
}

// Non-aligned field columns are independent time series: usage is sampled
// at {1,2,3}, errors at {2,4}, and a query must full-outer-join them on
// time, nulling whichever field is absent at a given timestamp.
func TestWriterReaderRoundTripNonAlignedIndependentTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonaligned.tsfile")

	w, err := OpenWriter(path, DefaultWriterConfig())
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}
	schema := independentFieldsSchema()
	if err := w.RegisterTable(schema); err != nil {
		t.Fatalf("register: %v", err)
	}

	usageTablet := &Tablet{
		Table:      "metrics",
		Columns:    []string{"host", "usage"},
		Timestamps: []int64{1, 2, 3},
		Values: map[string]any{
			"host":  []string{"server-01", "server-01", "server-01"},
			"usage": []float64{10, 20, 30},
		},
	}
	if err := w.WriteTable(usageTablet); err != nil {
		t.Fatalf("write usage: %v", err)
	}
	errorsTablet := &Tablet{
		Table:      "metrics",
		Columns:    []string{"host", "errors"},
		Timestamps: []int64{2, 4},
		Values: map[string]any{
			"host":   []string{"server-01", "server-01"},
			"errors": []int64{1, 2},
		},
	}
	if err := w.WriteTable(errorsTablet); err != nil {
		t.Fatalf("write errors: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	r, err := OpenReader(path)
	if err != nil {
		t.Fatalf("open reader: %v", err)
	}
	defer r.Close()

	rs, err := r.QueryTable("metrics", []string{"host", "usage", "errors"}, 0, 100, OrderingDevice)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rs.Close()

	type row struct {
		time       int64
		usageNull  bool
		errorsNull bool
	}
	var got []row
	for rs.Next() {
		got = append(got, row{time: rs.Time(), usageNull: rs.IsNull("usage"), errorsNull: rs.IsNull("errors")})
	}
	// Merged timestamps: 1 (usage only), 2 (both), 3 (usage only), 4 (errors only).
	want := []row{
		{1, false, true},
		{2, false, false},
		{3, false, true},
		{4, true, false},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d rows, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("row[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestWriteTableRejectsFieldTypeMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "type-mismatch.tsfile")
	w, err := OpenWriter(path, DefaultWriterConfig())
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}
	defer w.Close()
	if err := w.RegisterTable(cpuSchema()); err != nil {
		t.Fatalf("register: %v", err)
	}

	tablet := &Tablet{
		Table:      "cpu",
		Columns:    []string{"host", "usage"},
		Timestamps: []int64{1},
		Values: map[string]any{
			"host":  []string{"a"},
			"usage": []int64{5}, // schema declares usage as f64
		},
	}
	err = w.WriteTable(tablet)
	if err == nil {
		t.Fatal("expected an error writing a field column with the wrong element type")
	}
	fe, ok := err.(*FileError)
	if !ok || fe.Code != ErrCodeTypeMismatch {
		t.Fatalf("got %v, want ErrCodeTypeMismatch", err)
	}
}

// A device whose field columns arrive split across multiple tablets must
// keep every field chunk row-aligned with the shared TIME_ONLY chunk: a
// row where a field is absent from the tablet still has to advance that
// field's chunk as a null, or the field chunk ends up shorter than the
// time chunk and later values land on the wrong timestamps.
func TestWriteTableAlignedSubsetTabletsStayRowAligned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aligned-subset.tsfile")
	w, err := OpenWriter(path, DefaultWriterConfig())
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}
	if err := w.RegisterTable(alignedSchema()); err != nil {
		t.Fatalf("register: %v", err)
	}

	tempOnly := &Tablet{
		Table:      "sensors",
		Columns:    []string{"host", "temp"},
		Timestamps: []int64{1, 2},
		Values: map[string]any{
			"host": []string{"rack-a", "rack-a"},
			"temp": []float64{10, 11},
		},
	}
	if err := w.WriteTable(tempOnly); err != nil {
		t.Fatalf("write temp-only: %v", err)
	}

	both := &Tablet{
		Table:      "sensors",
		Columns:    []string{"host", "temp", "humidity"},
		Timestamps: []int64{3},
		Values: map[string]any{
			"host":     []string{"rack-a"},
			"temp":     []float64{12},
			"humidity": []float64{50},
		},
	}
	if err := w.WriteTable(both); err != nil {
		t.Fatalf("write both: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	r, err := OpenReader(path)
	if err != nil {
		t.Fatalf("open reader: %v", err)
	}
	defer r.Close()

	rs, err := r.QueryTable("sensors", []string{"host", "temp", "humidity"}, 0, 1000, OrderingDevice)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	var gotTimes []int64
	var gotHumidityNull []bool
	var gotHumidity []float64
	for rs.Next() {
		gotTimes = append(gotTimes, rs.Time())
		gotHumidityNull = append(gotHumidityNull, rs.IsNull("humidity"))
		gotHumidity = append(gotHumidity, rs.GetFloat64("humidity"))
	}
	wantTimes := []int64{1, 2, 3}
	if !equalI64Slice(gotTimes, wantTimes) {
		t.Fatalf("times = %v, want %v", gotTimes, wantTimes)
	}
	wantHumidityNull := []bool{true, true, false}
	if !equalBoolSlice(gotHumidityNull, wantHumidityNull) {
		t.Fatalf("humidity null flags = %v, want %v (rows from the temp-only tablet must read back null, not shift onto later timestamps)", gotHumidityNull, wantHumidityNull)
	}
	if gotHumidity[2] != 50 {
		t.Fatalf("humidity at time 3 = %v, want 50", gotHumidity[2])
	}
}

func TestQueryTableRejectsTimeOrdering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.tsfile")
	w, err := OpenWriter(path, DefaultWriterConfig())
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}
	if err := w.RegisterTable(cpuSchema()); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	r, err := OpenReader(path)
	if err != nil {
		t.Fatalf("open reader: %v", err)
	}
	defer r.Close()

	_, err = r.QueryTable("cpu", []string{"host", "usage"}, 0, 100, OrderingTime)
	if err == nil {
		t.Fatal("expected an error for TIME ordering")
	}
	fe, ok := err.(*FileError)
	if !ok || fe.Code != ErrCodeUnsupportedOrdering {
		t.Fatalf("got %v, want ErrCodeUnsupportedOrdering", err)
	}
}

func TestQueryTableOnTableWithNoDevicesReturnsEmptyResultSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no-devices.tsfile")
	w, err := OpenWriter(path, DefaultWriterConfig())
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}
	if err := w.RegisterTable(cpuSchema()); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	r, err := OpenReader(path)
	if err != nil {
		t.Fatalf("open reader: %v", err)
	}
	defer r.Close()

	rs, err := r.QueryTable("cpu", []string{"host", "usage"}, 0, 100, OrderingDevice)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if rs.Next() {
		t.Fatal("expected no rows for a table with no written devices")
	}
}

func TestWriteTableRejectsUnregisteredTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unregistered.tsfile")
	w, err := OpenWriter(path, DefaultWriterConfig())
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}
	defer w.Close()

	tablet := &Tablet{
		Table:      "ghost",
		Columns:    []string{"host"},
		Timestamps: []int64{1},
		Values:     map[string]any{"host": []string{"a"}},
	}
	if err := w.WriteTable(tablet); err == nil {
		t.Fatal("expected an error writing to an unregistered table")
	}
}

func TestMultipleDevicesFlushAndQueryIndependently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "multi-device.tsfile")
	w, err := OpenWriter(path, DefaultWriterConfig())
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}
	if err := w.RegisterTable(cpuSchema()); err != nil {
		t.Fatalf("register: %v", err)
	}

	tablet := &Tablet{
		Table:      "cpu",
		Columns:    []string{"host", "usage"},
		Timestamps: []int64{1, 2, 1, 2},
		Values: map[string]any{
			"host":  []string{"server-01", "server-01", "server-02", "server-02"},
			"usage": []float64{10, 11, 90, 91},
		},
	}
	if err := w.WriteTable(tablet); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	r, err := OpenReader(path)
	if err != nil {
		t.Fatalf("open reader: %v", err)
	}
	defer r.Close()

	rs, err := r.QueryTable("cpu", []string{"host", "usage"}, 0, 100, OrderingDevice)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	byHost := map[string][]float64{}
	for rs.Next() {
		byHost[rs.GetString("host")] = append(byHost[rs.GetString("host")], rs.GetFloat64("usage"))
	}
	if len(byHost["server-01"]) != 2 || len(byHost["server-02"]) != 2 {
		t.Fatalf("expected 2 rows per device, got %v", byHost)
	}
	if byHost["server-01"][0] != 10 || byHost["server-02"][0] != 90 {
		t.Fatalf("device rows crossed over: %v", byHost)
	}
}
