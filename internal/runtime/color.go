package runtime

// NormalizeColor turns an RGB triple into RGBA with alpha 1.0.
// Anything that is not a sequence of exactly three numbers is returned unchanged.
func NormalizeColor(v any) any {
	fs, ok := numbers(v)
	if !ok || len(fs) != 3 {
		return v
	}
	return []float64{fs[0], fs[1], fs[2], 1.0}
}

// rgba pads a color to four components with 1.0.
func rgba(v any) ([4]float64, bool) {
	out := [4]float64{1, 1, 1, 1}
	fs, ok := numbers(v)
	if !ok || len(fs) == 0 || len(fs) > 4 {
		return out, false
	}
	copy(out[:], fs)
	return out, true
}

func numbers(v any) ([]float64, bool) {
	switch s := v.(type) {
	case []float64:
		return s, true
	case [3]float64:
		return s[:], true
	case [4]float64:
		return s[:], true
	case []float32:
		out := make([]float64, len(s))
		for i, f := range s {
			out[i] = float64(f)
		}
		return out, true
	case []int:
		out := make([]float64, len(s))
		for i, n := range s {
			out[i] = float64(n)
		}
		return out, true
	case []any:
		out := make([]float64, len(s))
		for i, item := range s {
			f, ok := number(item)
			if !ok {
				return nil, false
			}
			out[i] = f
		}
		return out, true
	}
	return nil, false
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
