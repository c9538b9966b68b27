package tsfile

// ResultSet is a materialized, cursor-based view over the rows a table
// query produced. Call Next before the first Get call and after every
// row.
type ResultSet struct {
	schema  TableSchema
	columns []string
	rows    []resultRow
	pos     int
}

// Next advances the cursor and reports whether a row is available.
func (rs *ResultSet) Next() bool {
	rs.pos++
	return rs.pos < len(rs.rows)
}

func (rs *ResultSet) current() resultRow {
	return rs.rows[rs.pos]
}

// Time returns the current row's timestamp.
func (rs *ResultSet) Time() int64 { return rs.current().Time }

// IsNull reports whether column is null on the current row. Tag columns
// are never null.
func (rs *ResultSet) IsNull(column string) bool {
	return rs.current().FieldNull[column]
}

// Value returns the current row's value for column, boxed as any. Tag
// columns return their string segment; field columns return the
// concrete typed value, or nil if null.
func (rs *ResultSet) Value(column string) any {
	row := rs.current()
	if v, ok := row.TagValues[column]; ok {
		return v
	}
	return row.FieldValues[column]
}

func (rs *ResultSet) GetBool(column string) bool {
	v, _ := rs.Value(column).(bool)
	return v
}

func (rs *ResultSet) GetInt32(column string) int32 {
	v, _ := rs.Value(column).(int32)
	return v
}

func (rs *ResultSet) GetInt64(column string) int64 {
	v, _ := rs.Value(column).(int64)
	return v
}

func (rs *ResultSet) GetFloat32(column string) float32 {
	v, _ := rs.Value(column).(float32)
	return v
}

func (rs *ResultSet) GetFloat64(column string) float64 {
	v, _ := rs.Value(column).(float64)
	return v
}

func (rs *ResultSet) GetString(column string) string {
	v, _ := rs.Value(column).(string)
	return v
}

// timeColumnSchema is the synthetic schema entry for the implicit
// per-row timestamp, which never appears in a TableSchema's Columns.
var timeColumnSchema = ColumnSchema{Name: "time", Type: TypeTime, Category: CategoryField}

// Metadata returns the requested column schemas in query order, with the
// implicit time column always first.
func (rs *ResultSet) Metadata() []ColumnSchema {
	out := make([]ColumnSchema, 0, len(rs.columns)+1)
	out = append(out, timeColumnSchema)
	for _, name := range rs.columns {
		if c, ok := rs.schema.Column(name); ok {
			out = append(out, c)
		}
	}
	return out
}

// Close releases the result set. Rows are already materialized, so this
// is a no-op kept for API symmetry with a streaming cursor.
func (rs *ResultSet) Close() error { return nil }
