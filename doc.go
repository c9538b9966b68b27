// Package tsfile implements a self-describing, append-only, columnar file
// format for time-series data.
//
// A file holds one or more tables. Each table's rows are partitioned first
// by device identity (the tuple of tag-column values that identifies a
// series group) and then by measurement (a field column). Writers accept
// column batches (Tablet) and append chunk groups, timeseries indexes, and
// a tail metadata-index tree; readers open a file, load the tail, and
// traverse the index without any external bookkeeping.
//
// The writer and reader are single-threaded and cooperative: neither
// spawns goroutines, and callers must serialize their own concurrent
// access. See Writer and Reader for the entry points.
package tsfile
