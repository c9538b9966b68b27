package tsfile

// DataType enumerates the primitive wire types a column may hold, plus the
// pseudo-types Time and Vector from spec.md §3.
type DataType uint8

const (
	TypeBool DataType = iota
	TypeInt32
	TypeInt64
	TypeFloat32
	TypeFloat64
	TypeString
	// TypeTime is the pseudo-type of the implicit per-row timestamp: a
	// monotonic int64, never stored as an ordinary column.
	TypeTime
	// TypeVector marks a grouped-column family used to represent an
	// aligned device: a shared time column plus N value columns.
	TypeVector
)

func (t DataType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt32:
		return "i32"
	case TypeInt64:
		return "i64"
	case TypeFloat32:
		return "f32"
	case TypeFloat64:
		return "f64"
	case TypeString:
		return "string"
	case TypeTime:
		return "time"
	case TypeVector:
		return "vector"
	default:
		return "unknown"
	}
}

// ColumnCategory is TAG or FIELD. Tag columns participate in device
// identity; field columns carry values. The one implicit time column of a
// table never appears in a ColumnSchema list and has no category value of
// its own: ResultSet.Metadata reports it with CategoryField.
type ColumnCategory uint8

const (
	CategoryTag ColumnCategory = iota
	CategoryField
)

func (c ColumnCategory) String() string {
	if c == CategoryTag {
		return "TAG"
	}
	return "FIELD"
}

// Encoding names one of the three fixed codec primitives the format
// supports. Compression and Encoding are orthogonal: Encoding transforms
// values into a smaller or more regular byte stream; Compression is a
// further byte-in/byte-out transform applied to the encoded page payload.
type Encoding uint8

const (
	EncodingPlain Encoding = iota
	EncodingTS2Diff
	EncodingGorilla
)

func (e Encoding) String() string {
	switch e {
	case EncodingPlain:
		return "PLAIN"
	case EncodingTS2Diff:
		return "TS2DIFF"
	case EncodingGorilla:
		return "GORILLA"
	default:
		return "UNKNOWN"
	}
}

// Compression names a byte-in/byte-out page transform.
type Compression uint8

const (
	CompressionUncompressed Compression = iota
	CompressionSnappy
	CompressionGzip
)

func (c Compression) String() string {
	switch c {
	case CompressionUncompressed:
		return "UNCOMPRESSED"
	case CompressionSnappy:
		return "SNAPPY"
	case CompressionGzip:
		return "GZIP"
	default:
		return "UNKNOWN"
	}
}

// ColumnSchema describes one column of a table: its name, its primitive
// type, the codec and compression applied to its pages, and whether it
// participates in device identity (TAG) or carries values (FIELD).
type ColumnSchema struct {
	Name        string
	Type        DataType
	Encoding    Encoding
	Compression Compression
	Category    ColumnCategory
}

// TableSchema is a table name plus an ordered list of column schemas. By
// convention tag columns are listed first; their ordered tuple of per-row
// values forms a row's DeviceID.
//
// Aligned marks the table as an aligned (vector) family: every device's
// field columns share one time column, written as a single TIME_ONLY chunk
// per chunk group plus one value chunk per field (spec.md §3, §9).
type TableSchema struct {
	Name    string
	Columns []ColumnSchema
	Aligned bool
}

// TagColumns returns the schema's TAG columns in declaration order.
func (s TableSchema) TagColumns() []ColumnSchema {
	var out []ColumnSchema
	for _, c := range s.Columns {
		if c.Category == CategoryTag {
			out = append(out, c)
		}
	}
	return out
}

// FieldColumns returns the schema's FIELD columns in declaration order.
func (s TableSchema) FieldColumns() []ColumnSchema {
	var out []ColumnSchema
	for _, c := range s.Columns {
		if c.Category == CategoryField {
			out = append(out, c)
		}
	}
	return out
}

// Column looks up a column by name.
func (s TableSchema) Column(name string) (ColumnSchema, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSchema{}, false
}
