package tsfile

import (
	"bytes"
	"math"
)

// writeStatistics serializes s per spec.md §6: count (var-uint),
// start_time and end_time (i64 BE), then type-specific fields. For
// integers: min, max, first, last, sum. For string: only first/last
// payloads (length-prefixed) — min/max/sum are not meaningful and are
// omitted.
func writeStatistics(w *bytes.Buffer, s Statistics) error {
	if err := writeUvarint(w, uint64(s.Count)); err != nil {
		return err
	}
	if err := writeI64BE(w, s.StartTime); err != nil {
		return err
	}
	if err := writeI64BE(w, s.EndTime); err != nil {
		return err
	}
	if s.Count == 0 {
		return nil
	}

	switch s.Type {
	case TypeBool:
		writeBoolStat(w, s.MinValue.(bool))
		writeBoolStat(w, s.MaxValue.(bool))
		writeBoolStat(w, s.FirstValue.(bool))
		writeBoolStat(w, s.LastValue.(bool))
		return writeI64BE(w, s.SumInt)
	case TypeInt32:
		if err := writeI64BE(w, int64(s.MinValue.(int32))); err != nil {
			return err
		}
		if err := writeI64BE(w, int64(s.MaxValue.(int32))); err != nil {
			return err
		}
		if err := writeI64BE(w, int64(s.FirstValue.(int32))); err != nil {
			return err
		}
		if err := writeI64BE(w, int64(s.LastValue.(int32))); err != nil {
			return err
		}
		return writeI64BE(w, s.SumInt)
	case TypeInt64, TypeTime:
		if err := writeI64BE(w, s.MinValue.(int64)); err != nil {
			return err
		}
		if err := writeI64BE(w, s.MaxValue.(int64)); err != nil {
			return err
		}
		if err := writeI64BE(w, s.FirstValue.(int64)); err != nil {
			return err
		}
		if err := writeI64BE(w, s.LastValue.(int64)); err != nil {
			return err
		}
		return writeI64BE(w, s.SumInt)
	case TypeFloat32:
		if err := writeF64BE(w, float64(s.MinValue.(float32))); err != nil {
			return err
		}
		if err := writeF64BE(w, float64(s.MaxValue.(float32))); err != nil {
			return err
		}
		if err := writeF64BE(w, float64(s.FirstValue.(float32))); err != nil {
			return err
		}
		if err := writeF64BE(w, float64(s.LastValue.(float32))); err != nil {
			return err
		}
		return writeF64BE(w, s.SumFloat)
	case TypeFloat64:
		if err := writeF64BE(w, s.MinValue.(float64)); err != nil {
			return err
		}
		if err := writeF64BE(w, s.MaxValue.(float64)); err != nil {
			return err
		}
		if err := writeF64BE(w, s.FirstValue.(float64)); err != nil {
			return err
		}
		if err := writeF64BE(w, s.LastValue.(float64)); err != nil {
			return err
		}
		return writeF64BE(w, s.SumFloat)
	case TypeString:
		if err := writeString(w, s.FirstValue.(string)); err != nil {
			return err
		}
		return writeString(w, s.LastValue.(string))
	default:
		return newErr(ErrCodeInvalidArg, "unsupported statistics type")
	}
}

func writeBoolStat(w *bytes.Buffer, v bool) {
	if v {
		w.WriteByte(1)
	} else {
		w.WriteByte(0)
	}
}

func writeF64BE(w *bytes.Buffer, v float64) error {
	return writeI64BE(w, int64(math.Float64bits(v)))
}

// readStatistics deserializes a Statistics block for the given data type.
func readStatistics(r byteReader, dt DataType) (Statistics, error) {
	count, err := readUvarint(r)
	if err != nil {
		return Statistics{}, err
	}
	start, err := readI64BE(r)
	if err != nil {
		return Statistics{}, err
	}
	end, err := readI64BE(r)
	if err != nil {
		return Statistics{}, err
	}
	s := Statistics{Type: dt, Count: int64(count), StartTime: start, EndTime: end, HasRange: true}
	if count == 0 {
		return s, nil
	}

	switch dt {
	case TypeBool:
		minV, _ := readBoolStat(r)
		maxV, _ := readBoolStat(r)
		firstV, _ := readBoolStat(r)
		lastV, err := readBoolStat(r)
		if err != nil {
			return s, err
		}
		sum, err := readI64BE(r)
		if err != nil {
			return s, err
		}
		s.MinValue, s.MaxValue, s.FirstValue, s.LastValue, s.SumInt = minV, maxV, firstV, lastV, sum
	case TypeInt32:
		minV, err := readI64BE(r)
		if err != nil {
			return s, err
		}
		maxV, err := readI64BE(r)
		if err != nil {
			return s, err
		}
		firstV, err := readI64BE(r)
		if err != nil {
			return s, err
		}
		lastV, err := readI64BE(r)
		if err != nil {
			return s, err
		}
		sum, err := readI64BE(r)
		if err != nil {
			return s, err
		}
		s.MinValue, s.MaxValue, s.FirstValue, s.LastValue = int32(minV), int32(maxV), int32(firstV), int32(lastV)
		s.SumInt = sum
	case TypeInt64, TypeTime:
		minV, err := readI64BE(r)
		if err != nil {
			return s, err
		}
		maxV, err := readI64BE(r)
		if err != nil {
			return s, err
		}
		firstV, err := readI64BE(r)
		if err != nil {
			return s, err
		}
		lastV, err := readI64BE(r)
		if err != nil {
			return s, err
		}
		sum, err := readI64BE(r)
		if err != nil {
			return s, err
		}
		s.MinValue, s.MaxValue, s.FirstValue, s.LastValue, s.SumInt = minV, maxV, firstV, lastV, sum
	case TypeFloat32:
		minV, err := readF64BE(r)
		if err != nil {
			return s, err
		}
		maxV, err := readF64BE(r)
		if err != nil {
			return s, err
		}
		firstV, err := readF64BE(r)
		if err != nil {
			return s, err
		}
		lastV, err := readF64BE(r)
		if err != nil {
			return s, err
		}
		sum, err := readF64BE(r)
		if err != nil {
			return s, err
		}
		s.MinValue, s.MaxValue, s.FirstValue, s.LastValue = float32(minV), float32(maxV), float32(firstV), float32(lastV)
		s.SumFloat = sum
	case TypeFloat64:
		minV, err := readF64BE(r)
		if err != nil {
			return s, err
		}
		maxV, err := readF64BE(r)
		if err != nil {
			return s, err
		}
		firstV, err := readF64BE(r)
		if err != nil {
			return s, err
		}
		lastV, err := readF64BE(r)
		if err != nil {
			return s, err
		}
		sum, err := readF64BE(r)
		if err != nil {
			return s, err
		}
		s.MinValue, s.MaxValue, s.FirstValue, s.LastValue, s.SumFloat = minV, maxV, firstV, lastV, sum
	case TypeString:
		first, err := readString(r)
		if err != nil {
			return s, err
		}
		last, err := readString(r)
		if err != nil {
			return s, err
		}
		s.FirstValue, s.LastValue = first, last
	default:
		return s, newErr(ErrCodeInvalidArg, "unsupported statistics type")
	}
	return s, nil
}

func readBoolStat(r byteReader) (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

func readF64BE(r byteReader) (float64, error) {
	v, err := readI64BE(r)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(uint64(v)), nil
}
