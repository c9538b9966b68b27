package encoding

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
)

// EncodePlainBool encodes bool values one byte each, no transform.
func EncodePlainBool(values []bool) []byte {
	out := make([]byte, len(values))
	for i, v := range values {
		if v {
			out[i] = 1
		}
	}
	return out
}

// DecodePlainBool decodes bool values encoded by EncodePlainBool.
func DecodePlainBool(data []byte) ([]bool, error) {
	out := make([]bool, len(data))
	for i, b := range data {
		out[i] = b != 0
	}
	return out, nil
}

// EncodePlainInt32 encodes int32 values as fixed-width big-endian words.
func EncodePlainInt32(values []int32) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint32(out[i*4:], uint32(v))
	}
	return out
}

// DecodePlainInt32 decodes int32 values encoded by EncodePlainInt32.
func DecodePlainInt32(data []byte) ([]int32, error) {
	if len(data)%4 != 0 {
		return nil, errors.New("plain: int32 data not word aligned")
	}
	out := make([]int32, len(data)/4)
	for i := range out {
		out[i] = int32(binary.BigEndian.Uint32(data[i*4:]))
	}
	return out, nil
}

// EncodePlainInt64 encodes int64 values as fixed-width big-endian words.
func EncodePlainInt64(values []int64) []byte {
	out := make([]byte, 8*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint64(out[i*8:], uint64(v))
	}
	return out
}

// DecodePlainInt64 decodes int64 values encoded by EncodePlainInt64.
func DecodePlainInt64(data []byte) ([]int64, error) {
	if len(data)%8 != 0 {
		return nil, errors.New("plain: int64 data not word aligned")
	}
	out := make([]int64, len(data)/8)
	for i := range out {
		out[i] = int64(binary.BigEndian.Uint64(data[i*8:]))
	}
	return out, nil
}

// EncodePlainFloat32 encodes float32 values as fixed-width big-endian words.
func EncodePlainFloat32(values []float32) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

// DecodePlainFloat32 decodes float32 values encoded by EncodePlainFloat32.
func DecodePlainFloat32(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, errors.New("plain: float32 data not word aligned")
	}
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.BigEndian.Uint32(data[i*4:]))
	}
	return out, nil
}

// EncodePlainFloat64 encodes float64 values as fixed-width big-endian words.
func EncodePlainFloat64(values []float64) []byte {
	out := make([]byte, 8*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint64(out[i*8:], math.Float64bits(v))
	}
	return out
}

// DecodePlainFloat64 decodes float64 values encoded by EncodePlainFloat64.
func DecodePlainFloat64(data []byte) ([]float64, error) {
	if len(data)%8 != 0 {
		return nil, errors.New("plain: float64 data not word aligned")
	}
	out := make([]float64, len(data)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.BigEndian.Uint64(data[i*8:]))
	}
	return out, nil
}

// EncodePlainString encodes string values as a sequence of var-uint
// length prefixes followed by raw bytes.
func EncodePlainString(values []string) []byte {
	buf := &bytes.Buffer{}
	for _, s := range values {
		var lenBuf [binary.MaxVarintLen64]byte
		n := binary.PutUvarint(lenBuf[:], uint64(len(s)))
		buf.Write(lenBuf[:n])
		buf.WriteString(s)
	}
	return buf.Bytes()
}

// DecodePlainString decodes count string values encoded by
// EncodePlainString.
func DecodePlainString(data []byte, count int) ([]string, error) {
	r := bytes.NewReader(data)
	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		n, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, err
		}
		b := make([]byte, n)
		if _, err := r.Read(b); err != nil && n > 0 {
			return nil, err
		}
		out = append(out, string(b))
	}
	return out, nil
}
