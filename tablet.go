package tsfile

import "reflect"

// MaxTabletRowNum bounds the number of rows a single Tablet may carry.
const MaxTabletRowNum = 1_000_000

// Tablet is a row batch bound to a table: the table name, a column list
// (subset or permutation of the table's columns), one int64 timestamp per
// row, a column-major value matrix, and a per-column not-null bitmap.
//
// Invariant: within the row range [0, RowCount), timestamps belonging to
// the same device must be strictly increasing. WriteTable does not re-sort
// rows; it dispatches each row directly to its device's chunk group by
// device key, so rows for one device need not be contiguous within a
// Tablet or across Tablets, but out-of-order timestamps within a device
// will corrupt that device's per-chunk statistics (see DESIGN.md).
type Tablet struct {
	Table      string
	Columns    []string
	Timestamps []int64

	// Values holds one entry per name in Columns, each a concrete
	// column-major slice matching that column's ColumnSchema.Type:
	// bool -> []bool, i32 -> []int32, i64 -> []int64, f32 -> []float32,
	// f64 -> []float64, string -> []string. Tag columns are always
	// []string regardless of a declared type, since device identity
	// segments are strings.
	Values map[string]any

	// NotNull holds one bitmap per FIELD column in Columns: NotNull[name][i]
	// is true when row i has a non-null value for that column. A column
	// absent from this map is treated as fully non-null. TAG columns are
	// never null.
	NotNull map[string][]bool
}

// RowCount returns the number of rows in the tablet.
func (t *Tablet) RowCount() int { return len(t.Timestamps) }

// IsNull reports whether row i of column name is null.
func (t *Tablet) IsNull(name string, row int) bool {
	bm, ok := t.NotNull[name]
	if !ok {
		return false
	}
	if row >= len(bm) {
		return false
	}
	return !bm[row]
}

// validate checks the tablet's structural invariants against schema,
// independent of any writer state: column membership, value-slice
// lengths, FIELD element types and the row-count bound. Per-device
// timestamp order is not checked, here or by WriteTable.
func (t *Tablet) validate(schema TableSchema) error {
	if t.RowCount() > MaxTabletRowNum {
		return newErr(ErrCodeInvalidArg, "tablet exceeds max row count")
	}
	for _, name := range t.Columns {
		col, ok := schema.Column(name)
		if !ok {
			return newErr(ErrCodeColumnUnknown, "column "+name+" not in schema "+schema.Name)
		}
		vals, ok := t.Values[name]
		if !ok {
			return newErr(ErrCodeInvalidArg, "missing values for column "+name)
		}
		if reflect.ValueOf(vals).Len() != t.RowCount() {
			return newErr(ErrCodeInvalidArg, "column "+name+" length mismatch")
		}
		if col.Category == CategoryField {
			want := reflect.TypeOf(newTypedSlice(col.Type))
			got := reflect.TypeOf(vals)
			if got != want {
				return newErr(ErrCodeTypeMismatch, "column "+name+" has type "+got.String()+", want "+want.String()+" for declared type "+col.Type.String())
			}
		}
	}
	return nil
}
