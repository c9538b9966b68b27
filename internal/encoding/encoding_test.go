package encoding

import (
	"math"
	"testing"
)

func TestPlainRoundTrip(t *testing.T) {
	bools := []bool{true, false, false, true}
	if got, _ := DecodePlainBool(EncodePlainBool(bools)); !equalBool(got, bools) {
		t.Fatalf("bool round trip: got %v want %v", got, bools)
	}

	ints := []int64{-5, 0, 5, math.MaxInt64, math.MinInt64}
	got64, err := DecodePlainInt64(EncodePlainInt64(ints))
	if err != nil || !equalInt64(got64, ints) {
		t.Fatalf("int64 round trip: got %v err %v want %v", got64, err, ints)
	}

	floats := []float64{-1.5, 0, 3.25, math.Inf(1)}
	gotF, err := DecodePlainFloat64(EncodePlainFloat64(floats))
	if err != nil || !equalFloat64(gotF, floats) {
		t.Fatalf("float64 round trip: got %v err %v want %v", gotF, err, floats)
	}

	strs := []string{"a", "", "hello world", "三"}
	gotS, err := DecodePlainString(EncodePlainString(strs), len(strs))
	if err != nil || !equalString(gotS, strs) {
		t.Fatalf("string round trip: got %v err %v want %v", gotS, err, strs)
	}
}

func TestTS2DiffRoundTrip(t *testing.T) {
	values := []int64{100, 101, 103, 103, 103, 200, -50, -50, -50}
	got, err := DecodeTS2Diff(EncodeTS2Diff(values))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !equalInt64(got, values) {
		t.Fatalf("got %v want %v", got, values)
	}
}

func TestTS2DiffEmpty(t *testing.T) {
	got, err := DecodeTS2Diff(EncodeTS2Diff(nil))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty, got %v", got)
	}
}

func TestGorillaRoundTrip(t *testing.T) {
	values := []float64{1.0, 1.0, 1.5, 1.5, 2.25, -3.75, 0, 100000.125}
	got, err := DecodeGorilla(EncodeGorilla(values))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !equalFloat64(got, values) {
		t.Fatalf("got %v want %v", got, values)
	}
}

func equalBool(a, b []bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalInt64(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalFloat64(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] && !(math.IsInf(a[i], 1) && math.IsInf(b[i], 1)) {
			return false
		}
	}
	return true
}

func equalString(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
