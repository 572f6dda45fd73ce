package algorithms

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"intensity-lab/internal/models"
	"intensity-lab/internal/processing/kernels"
)

// Params holds the merged parameters of one step. Values come from YAML,
// flags or code, so the getters accept every numeric type those produce.
type Params map[string]interface{}

func toFloat(name string, v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s=%q is not a number", models.ErrInvalidParameter, name, x)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: %s has type %T, want a number", models.ErrInvalidParameter, name, v)
	}
}

func (p Params) lookup(name string) (interface{}, error) {
	v, ok := p[name]
	if !ok {
		return nil, fmt.Errorf("%w: missing parameter %s", models.ErrInvalidParameter, name)
	}
	return v, nil
}

func (p Params) Float(name string) (float64, error) {
	v, err := p.lookup(name)
	if err != nil {
		return 0, err
	}
	return toFloat(name, v)
}

// Int rejects values with a fractional part.
func (p Params) Int(name string) (int, error) {
	f, err := p.Float(name)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s=%g is not an integer", models.ErrInvalidParameter, name, f)
	}
	return int(f), nil
}

func (p Params) String(name string) (string, error) {
	v, err := p.lookup(name)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s has type %T, want a string", models.ErrInvalidParameter, name, v)
	}
	return s, nil
}

// Kernel accepts a list of rows or the "a,b;c,d" text form.
func (p Params) Kernel(name string) (*models.Kernel, error) {
	v, err := p.lookup(name)
	if err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case *models.Kernel:
		return x, nil
	case string:
		return kernels.Parse(x)
	case [][]float64:
		return models.KernelFromRows(x)
	case []interface{}:
		rows := make([][]float64, len(x))
		for i, r := range x {
			cells, ok := r.([]interface{})
			if !ok {
				return nil, fmt.Errorf("%w: %s row %d has type %T, want a list", models.ErrInvalidParameter, name, i, r)
			}
			rows[i] = make([]float64, len(cells))
			for j, c := range cells {
				f, err := toFloat(fmt.Sprintf("%s[%d][%d]", name, i, j), c)
				if err != nil {
					return nil, err
				}
				rows[i][j] = f
			}
		}
		return models.KernelFromRows(rows)
	default:
		return nil, fmt.Errorf("%w: %s has type %T, want a kernel", models.ErrInvalidParameter, name, v)
	}
}

// Uint64 reads seeds.
func (p Params) Uint64(name string) (uint64, error) {
	v, err := p.lookup(name)
	if err != nil {
		return 0, err
	}
	if u, ok := v.(uint64); ok {
		return u, nil
	}
	n, err := p.Int(name)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative, got %d", models.ErrInvalidParameter, name, n)
	}
	return uint64(n), nil
}

func (p Params) Boundary() (models.BoundaryPolicy, error) {
	s, err := p.String("boundary")
	if err != nil {
		return 0, err
	}
	return models.ParseBoundaryPolicy(s)
}

func (p Params) clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
