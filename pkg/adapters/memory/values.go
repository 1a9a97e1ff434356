package memory

import (
	"fmt"
	"strconv"

	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/ports"
)

// Vector is a fixed-length float array such as a location or a color.
type Vector []float64

// GetIndexed returns one component.
func (v Vector) GetIndexed(k ports.Key) (any, error) {
	i, err := v.index(k)
	if err != nil {
		return nil, err
	}
	return v[i], nil
}

// SetIndexed assigns one component.
func (v Vector) SetIndexed(k ports.Key, value any) error {
	i, err := v.index(k)
	if err != nil {
		return err
	}
	f, err := toFloat(value)
	if err != nil {
		return err
	}
	v[i] = f
	return nil
}

func (v Vector) index(k ports.Key) (int, error) {
	if k.Named || k.Index < -len(v) || k.Index >= len(v) {
		return 0, fmt.Errorf("%w: index %s out of range for vector of %d", domain.ErrNotAssignable, k, len(v))
	}
	if k.Index < 0 {
		return len(v) + k.Index, nil
	}
	return k.Index, nil
}

// assign copies value into v, which must hold exactly len(v) numbers.
func (v Vector) assign(value any) error {
	fs, err := toFloats(value)
	if err != nil {
		return err
	}
	if len(fs) != len(v) {
		return fmt.Errorf("%w: expected %d values, got %d", domain.ErrNotAssignable, len(v), len(fs))
	}
	copy(v, fs)
	return nil
}

// Collection exposes an ordered list of named host values by index or name.
type Collection[T interface{ Name() string }] struct {
	items func() []T
}

// GetIndexed looks an element up by position or name.
func (c Collection[T]) GetIndexed(k ports.Key) (any, error) {
	items := c.items()
	if k.Named {
		for _, it := range items {
			if it.Name() == k.Name {
				return it, nil
			}
		}
		return nil, fmt.Errorf("no element named %q", k.Name)
	}
	i := k.Index
	if i < 0 {
		i += len(items)
	}
	if i < 0 || i >= len(items) {
		return nil, fmt.Errorf("index %d out of range for collection of %d", k.Index, len(items))
	}
	return items[i], nil
}

// SetIndexed is not supported: collections change through commands only.
func (c Collection[T]) SetIndexed(k ports.Key, _ any) error {
	return fmt.Errorf("%w: collection element %s is read-only", domain.ErrNotAssignable, k)
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", domain.ErrNotAssignable, n)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%w: %T is not a number", domain.ErrNotAssignable, v)
}

func toFloats(v any) ([]float64, error) {
	switch s := v.(type) {
	case []float64:
		return s, nil
	case Vector:
		return s, nil
	case [4]float64:
		return s[:], nil
	case [3]float64:
		return s[:], nil
	case []int:
		out := make([]float64, len(s))
		for i, n := range s {
			out[i] = float64(n)
		}
		return out, nil
	case []any:
		out := make([]float64, len(s))
		for i, item := range s {
			f, err := toFloat(item)
			if err != nil {
				return nil, err
			}
			out[i] = f
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %T is not a sequence of numbers", domain.ErrNotAssignable, v)
}

func toInt(v any) (int, error) {
	f, err := toFloat(v)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return strconv.ParseBool(b)
	}
	f, err := toFloat(v)
	if err != nil {
		return false, err
	}
	return f != 0, nil
}

func toString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %T is not a string", domain.ErrNotAssignable, v)
	}
	return s, nil
}

func unknownAttr(owner, name string) error {
	return fmt.Errorf("%w: %s has no attribute %q", domain.ErrNotAssignable, owner, name)
}
