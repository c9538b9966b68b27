package tsfile

import "github.com/tsfile-go/tsfile/internal/encoding"

// encodeValues dispatches a typed column slice to the codec named by enc,
// per dt. PLAIN is valid for every type; TS2DIFF only for i32/i64/time;
// GORILLA only for f32/f64. An invalid combination falls back to PLAIN.
// The returned Encoding names the codec actually used, but the page
// writer discards it and the ChunkHeader records the column's declared
// Encoding; decodeValues applies the same per-type fallback, so the
// declared Encoding still decodes the page correctly.
func encodeValues(dt DataType, enc Encoding, values any) ([]byte, Encoding, error) {
	switch dt {
	case TypeBool:
		return encoding.EncodePlainBool(values.([]bool)), EncodingPlain, nil
	case TypeInt32:
		vs := values.([]int32)
		if enc == EncodingTS2Diff {
			widened := make([]int64, len(vs))
			for i, v := range vs {
				widened[i] = int64(v)
			}
			return encoding.EncodeTS2Diff(widened), EncodingTS2Diff, nil
		}
		return encoding.EncodePlainInt32(vs), EncodingPlain, nil
	case TypeInt64, TypeTime:
		vs := values.([]int64)
		if enc == EncodingTS2Diff {
			return encoding.EncodeTS2Diff(vs), EncodingTS2Diff, nil
		}
		return encoding.EncodePlainInt64(vs), EncodingPlain, nil
	case TypeFloat32:
		vs := values.([]float32)
		if enc == EncodingGorilla {
			widened := make([]float64, len(vs))
			for i, v := range vs {
				widened[i] = float64(v)
			}
			return encoding.EncodeGorilla(widened), EncodingGorilla, nil
		}
		return encoding.EncodePlainFloat32(vs), EncodingPlain, nil
	case TypeFloat64:
		vs := values.([]float64)
		if enc == EncodingGorilla {
			return encoding.EncodeGorilla(vs), EncodingGorilla, nil
		}
		return encoding.EncodePlainFloat64(vs), EncodingPlain, nil
	case TypeString:
		return encoding.EncodePlainString(values.([]string)), EncodingPlain, nil
	default:
		return nil, EncodingPlain, newErr(ErrCodeInvalidArg, "unsupported data type for encoding")
	}
}

// decodeValues reverses encodeValues, given the count of values the page
// (or chunk, for a single-page chunk) declares.
func decodeValues(dt DataType, enc Encoding, data []byte, count int) (any, error) {
	switch dt {
	case TypeBool:
		return encoding.DecodePlainBool(data)
	case TypeInt32:
		if enc == EncodingTS2Diff {
			widened, err := encoding.DecodeTS2Diff(data)
			if err != nil {
				return nil, err
			}
			out := make([]int32, len(widened))
			for i, v := range widened {
				out[i] = int32(v)
			}
			return out, nil
		}
		return encoding.DecodePlainInt32(data)
	case TypeInt64, TypeTime:
		if enc == EncodingTS2Diff {
			return encoding.DecodeTS2Diff(data)
		}
		return encoding.DecodePlainInt64(data)
	case TypeFloat32:
		if enc == EncodingGorilla {
			widened, err := encoding.DecodeGorilla(data)
			if err != nil {
				return nil, err
			}
			out := make([]float32, len(widened))
			for i, v := range widened {
				out[i] = float32(v)
			}
			return out, nil
		}
		return encoding.DecodePlainFloat32(data)
	case TypeFloat64:
		if enc == EncodingGorilla {
			return encoding.DecodeGorilla(data)
		}
		return encoding.DecodePlainFloat64(data)
	case TypeString:
		return encoding.DecodePlainString(data, count)
	default:
		return nil, newErr(ErrCodeInvalidArg, "unsupported data type for decoding")
	}
}
