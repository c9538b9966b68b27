package tsfile

import (
	"os"

	"gopkg.in/yaml.v3"
)

// WriterConfig controls the flush, paging, and index fan-out policy of a
// Writer. Zero values of the numeric fields are replaced with
// DefaultWriterConfig's by OpenWriter. DefaultCompression is not
// defaulted and is not read by the writer: each chunk uses its column's
// own ColumnSchema.Compression.
type WriterConfig struct {
	// ChunkGroupSizeThreshold is the estimated in-memory byte size of one
	// device's buffered chunk group that triggers a flush to disk.
	ChunkGroupSizeThreshold int `yaml:"chunk_group_size_threshold"`

	// RecordCountForNextMemCheck is how many rows WriteTable processes
	// between two memory-pressure estimates of the active chunk group —
	// estimating on every row would dominate write cost.
	RecordCountForNextMemCheck int `yaml:"record_count_for_next_mem_check"`

	// MaxPointsPerPage bounds how many rows a chunk writer buffers before
	// sealing the current page and starting a new one.
	MaxPointsPerPage int `yaml:"max_points_per_page"`

	// MaxDegreeOfIndexNode bounds the fan-out of one metadata index node.
	MaxDegreeOfIndexNode int `yaml:"max_degree_of_index_node"`

	// BloomFilterFalsePositiveRate is the target false-positive rate used
	// to size the per-table-file device bloom filter.
	BloomFilterFalsePositiveRate float64 `yaml:"bloom_filter_false_positive_rate"`

	DefaultCompression Compression `yaml:"-"`
}

// DefaultWriterConfig returns the configuration a Writer uses when none is
// supplied.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		ChunkGroupSizeThreshold:      128 * 1024 * 1024,
		RecordCountForNextMemCheck:   1000,
		MaxPointsPerPage:             10000,
		MaxDegreeOfIndexNode:         256,
		BloomFilterFalsePositiveRate: 0.01,
		DefaultCompression:           CompressionSnappy,
	}
}

func (c *WriterConfig) applyDefaults() {
	def := DefaultWriterConfig()
	if c.ChunkGroupSizeThreshold == 0 {
		c.ChunkGroupSizeThreshold = def.ChunkGroupSizeThreshold
	}
	if c.RecordCountForNextMemCheck == 0 {
		c.RecordCountForNextMemCheck = def.RecordCountForNextMemCheck
	}
	if c.MaxPointsPerPage == 0 {
		c.MaxPointsPerPage = def.MaxPointsPerPage
	}
	if c.MaxDegreeOfIndexNode == 0 {
		c.MaxDegreeOfIndexNode = def.MaxDegreeOfIndexNode
	}
	if c.BloomFilterFalsePositiveRate == 0 {
		c.BloomFilterFalsePositiveRate = def.BloomFilterFalsePositiveRate
	}
}

// ReaderConfig holds a query ordering setting. OpenReader takes no
// ReaderConfig; QueryTable receives its ordering as an argument.
type ReaderConfig struct {
	// Ordering selects DEVICE (supported) or TIME (rejected with
	// ErrCodeUnsupportedOrdering — see DESIGN.md).
	Ordering Ordering `yaml:"ordering"`
}

// Ordering is the row ordering a TableQueryExecutor produces.
type Ordering uint8

const (
	OrderingDevice Ordering = iota
	OrderingTime
)

// LoadConfig reads a WriterConfig from a YAML file at path.
func LoadConfig(path string) (WriterConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return WriterConfig{}, wrapErr(ErrCodeFileOpen, "reading config", err)
	}
	var cfg WriterConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return WriterConfig{}, wrapErr(ErrCodeInvalidArg, "parsing config", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}
