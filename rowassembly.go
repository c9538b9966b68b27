package tsfile

import "reflect"

// resultRow is one assembled output row: a device's tag values (constant
// across all of its rows) plus one timestamp and a value/null flag per
// requested field column.
type resultRow struct {
	Time        int64
	TagValues   map[string]string
	FieldValues map[string]any
	FieldNull   map[string]bool
}

func pruneByTimeRange(times []int64, values any, notNull []bool, tMin, tMax int64) ([]int64, any, []bool) {
	outTimes := make([]int64, 0, len(times))
	outValues := reflect.MakeSlice(reflect.TypeOf(values), 0, len(times))
	var outNotNull []bool
	if notNull != nil {
		outNotNull = make([]bool, 0, len(times))
	}
	rv := reflect.ValueOf(values)
	for i, t := range times {
		if t < tMin || t > tMax {
			continue
		}
		outTimes = append(outTimes, t)
		outValues = reflect.Append(outValues, rv.Index(i))
		if notNull != nil {
			outNotNull = append(outNotNull, notNull[i])
		}
	}
	return outTimes, outValues.Interface(), outNotNull
}

// assembleAligned builds one row per position of the shared time column,
// filtered to [tMin, tMax]. fields holds one fully-expanded scannedSeries
// per requested field column, each already the same length as times.
func assembleAligned(tags map[string]string, requestedFields []string, times []int64, fields map[string]scannedSeries, tMin, tMax int64) []resultRow {
	rows := make([]resultRow, 0, len(times))
	for i, t := range times {
		if t < tMin || t > tMax {
			continue
		}
		row := resultRow{Time: t, TagValues: tags, FieldValues: map[string]any{}, FieldNull: map[string]bool{}}
		for _, name := range requestedFields {
			row.FieldNull[name] = true
		}
		for name, s := range fields {
			if i < len(s.NotNull) && s.NotNull[i] {
				row.FieldValues[name] = reflect.ValueOf(s.Values).Index(i).Interface()
				row.FieldNull[name] = false
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// assembleIndependent k-way merges each field's independently-timestamped
// series by time, producing one row per distinct timestamp with a null
// flag for every field absent at that timestamp. Each field's series is
// first pruned to [tMin, tMax] and is assumed sorted ascending by time.
func assembleIndependent(tags map[string]string, requestedFields []string, fields map[string]scannedSeries, tMin, tMax int64) []resultRow {
	names := make([]string, 0, len(fields))
	prunedTimes := make(map[string][]int64, len(fields))
	prunedValues := make(map[string]any, len(fields))
	cursor := make(map[string]int, len(fields))

	for name, s := range fields {
		t, v, _ := pruneByTimeRange(s.Times, s.Values, nil, tMin, tMax)
		names = append(names, name)
		prunedTimes[name] = t
		prunedValues[name] = v
		cursor[name] = 0
	}

	var rows []resultRow
	for {
		minTime := int64(0)
		found := false
		for _, name := range names {
			c := cursor[name]
			ts := prunedTimes[name]
			if c >= len(ts) {
				continue
			}
			if !found || ts[c] < minTime {
				minTime = ts[c]
				found = true
			}
		}
		if !found {
			break
		}

		row := resultRow{Time: minTime, TagValues: tags, FieldValues: map[string]any{}, FieldNull: map[string]bool{}}
		for _, name := range requestedFields {
			row.FieldNull[name] = true
		}
		for _, name := range names {
			c := cursor[name]
			ts := prunedTimes[name]
			if c < len(ts) && ts[c] == minTime {
				row.FieldValues[name] = reflect.ValueOf(prunedValues[name]).Index(c).Interface()
				row.FieldNull[name] = false
				cursor[name] = c + 1
			} else {
				row.FieldNull[name] = true
			}
		}
		rows = append(rows, row)
	}
	return rows
}
