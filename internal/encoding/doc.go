// Package encoding implements the three fixed codec primitives spec.md
// treats as black-box, fixed-interface building blocks:
//
//   - Plain: fixed-width values with no transform.
//   - TS2Diff: delta-of-delta bit-packing for integer/time columns.
//   - Gorilla: XOR bit-packing for floating-point columns.
//
// Each codec exposes an Encode/Decode pair over a typed Go slice; the
// caller (tsfile's page writer) chooses which codec applies per
// ColumnSchema.Encoding and is responsible for any further compression of
// the resulting bytes.
package encoding
