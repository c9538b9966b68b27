package tsfile

// Statistics is the per-type monoid spec.md §3 defines over a page or
// chunk's rows: count, time bounds, min/max, first/last, and (for numeric
// types) a sum. The identity value is a zero Statistics with Count == 0;
// Merge is commutative and associative over non-identity values.
type Statistics struct {
	Type       DataType
	Count      int64
	StartTime  int64
	EndTime    int64
	MinValue   any
	MaxValue   any
	FirstValue any
	LastValue  any
	SumInt     int64
	SumFloat   float64

	// HasRange is true once StartTime/EndTime hold a real span. It is
	// tracked separately from Count because an aligned value chunk's time
	// span covers every row of its family's shared time column, including
	// rows where this particular field is null and so never folds into
	// Count/Min/Max/Sum — see ExtendRange.
	HasRange bool
}

// NewStatistics returns the identity statistics for dt.
func NewStatistics(dt DataType) Statistics {
	return Statistics{Type: dt}
}

// Update folds one (time, value) observation into the statistics. Callers
// must supply observations in ascending time order within a single
// page/chunk — the writer never calls Update out of order, since Tablet
// rows are pre-sorted per device run.
func (s *Statistics) Update(time int64, value any) {
	if s.Count == 0 {
		s.MinValue = value
		s.MaxValue = value
		s.FirstValue = value
		s.LastValue = value
	} else {
		if cmpValue(s.Type, value, s.MinValue) < 0 {
			s.MinValue = value
		}
		if cmpValue(s.Type, value, s.MaxValue) > 0 {
			s.MaxValue = value
		}
		if time >= s.EndTime {
			s.LastValue = value
		}
	}
	s.ExtendRange(time)
	s.Count++
	addSum(s, value)
}

// ExtendRange widens the statistics' time span to include time, without
// touching Count, Min/Max, or Sum. A chunk writer calls this for every
// row of an aligned family — including rows where a given field is null
// — so a field chunk's time span always matches its family's shared time
// column, and Update separately for only the non-null rows.
func (s *Statistics) ExtendRange(time int64) {
	if !s.HasRange {
		s.StartTime = time
		s.EndTime = time
		s.HasRange = true
		return
	}
	if time < s.StartTime {
		s.StartTime = time
	}
	if time > s.EndTime {
		s.EndTime = time
	}
}

func addSum(s *Statistics, value any) {
	switch s.Type {
	case TypeInt32:
		s.SumInt += int64(value.(int32))
	case TypeInt64, TypeTime:
		s.SumInt += value.(int64)
	case TypeFloat32:
		s.SumFloat += float64(value.(float32))
	case TypeFloat64:
		s.SumFloat += value.(float64)
	case TypeBool:
		if value.(bool) {
			s.SumInt++
		}
	}
}

// Merge returns a ⊕ b, the monoid combination of two statistics over the
// same (device, measurement) — e.g. across pages within a chunk, or across
// chunks of one timeseries index.
func Merge(a, b Statistics) Statistics {
	if !a.HasRange {
		return b
	}
	if !b.HasRange {
		return a
	}

	out := Statistics{
		Type:      a.Type,
		Count:     a.Count + b.Count,
		StartTime: minI64(a.StartTime, b.StartTime),
		EndTime:   maxI64(a.EndTime, b.EndTime),
		SumInt:    a.SumInt + b.SumInt,
		SumFloat:  a.SumFloat + b.SumFloat,
		HasRange:  true,
	}

	switch {
	case a.Count == 0:
		out.FirstValue, out.LastValue, out.MinValue, out.MaxValue = b.FirstValue, b.LastValue, b.MinValue, b.MaxValue
		return out
	case b.Count == 0:
		out.FirstValue, out.LastValue, out.MinValue, out.MaxValue = a.FirstValue, a.LastValue, a.MinValue, a.MaxValue
		return out
	}

	if a.StartTime <= b.StartTime {
		out.FirstValue = a.FirstValue
	} else {
		out.FirstValue = b.FirstValue
	}
	if a.EndTime >= b.EndTime {
		out.LastValue = a.LastValue
	} else {
		out.LastValue = b.LastValue
	}

	if a.Type != TypeString {
		if cmpValue(a.Type, a.MinValue, b.MinValue) <= 0 {
			out.MinValue = a.MinValue
		} else {
			out.MinValue = b.MinValue
		}
		if cmpValue(a.Type, a.MaxValue, b.MaxValue) >= 0 {
			out.MaxValue = a.MaxValue
		} else {
			out.MaxValue = b.MaxValue
		}
	}

	return out
}

// OverlapsTimeRange reports whether this statistics block's time span
// intersects [min, max] — the pruning predicate applied at the
// timeseries-index, chunk, and page levels (spec.md §4.5).
func (s Statistics) OverlapsTimeRange(min, max int64) bool {
	if !s.HasRange {
		return false
	}
	return s.StartTime <= max && s.EndTime >= min
}

func cmpValue(dt DataType, a, b any) int {
	switch dt {
	case TypeInt32:
		return cmpOrdered(a.(int32), b.(int32))
	case TypeInt64, TypeTime:
		return cmpOrdered(a.(int64), b.(int64))
	case TypeFloat32:
		return cmpOrdered(a.(float32), b.(float32))
	case TypeFloat64:
		return cmpOrdered(a.(float64), b.(float64))
	case TypeBool:
		return cmpOrdered(boolRank(a.(bool)), boolRank(b.(bool)))
	default:
		return 0
	}
}

func boolRank(v bool) int {
	if v {
		return 1
	}
	return 0
}

func cmpOrdered[T int32 | int64 | float32 | float64 | int](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func minI64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
