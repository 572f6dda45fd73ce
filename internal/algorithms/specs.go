package algorithms

import (
	"fmt"
	"sort"

	"intensity-lab/internal/models"
	"intensity-lab/internal/processing/chain"
	"intensity-lab/internal/processing/enhance"
	"intensity-lab/internal/processing/filters"
	"intensity-lab/internal/processing/rank"
	"intensity-lab/internal/processing/spatial"
)

type buildFunc func(p Params, env Environment) (chain.ProcessingStep, error)

// filterSpec is the Algorithm behind every registered step.
type filterSpec struct {
	name     string
	defaults Params
	ranges   map[string]models.ParameterRange
	build    buildFunc
}

func (f *filterSpec) GetName() string {
	return f.name
}

func (f *filterSpec) GetDefaultParameters() map[string]interface{} {
	return f.defaults.clone()
}

func (f *filterSpec) GetParameterRanges() map[string]models.ParameterRange {
	out := make(map[string]models.ParameterRange, len(f.ranges))
	for k, v := range f.ranges {
		out[k] = v
	}
	return out
}

func (f *filterSpec) ValidateParameters(params map[string]interface{}) error {
	_, err := f.Build(params, Environment{})
	return err
}

func (f *filterSpec) Build(params map[string]interface{}, env Environment) (chain.ProcessingStep, error) {
	merged, err := f.merge(params)
	if err != nil {
		return nil, err
	}
	step, err := f.build(merged, env)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.name, err)
	}
	return step, nil
}

func (f *filterSpec) merge(params map[string]interface{}) (Params, error) {
	merged := f.defaults.clone()
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, known := f.defaults[name]; !known {
			return nil, fmt.Errorf("%w: %s has no parameter %q", models.ErrInvalidParameter, f.name, name)
		}
		merged[name] = params[name]
	}
	for _, name := range names {
		r, ok := f.ranges[name]
		if !ok {
			continue
		}
		v, err := merged.Float(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.name, err)
		}
		if err := r.Validate(name, v); err != nil {
			return nil, fmt.Errorf("%s: %w", f.name, err)
		}
	}
	return merged, nil
}

var (
	windowRange = models.ParameterRange{Min: 1, Max: 31, Step: 2, Odd: true}
	sigmaRange  = models.ParameterRange{Min: 0, Max: 20, Step: 0.1}
	weightRange = models.ParameterRange{Min: 0, Max: 5, Step: 0.05}
)

func spatialDefaults(extra Params) Params {
	p := Params{
		"boundary":    models.BoundaryFill.String(),
		"size_policy": models.SizeSame.String(),
		"mode":        models.ModeCorrelation.String(),
		"fill":        0.0,
		"depth":       models.DepthFloat.String(),
	}
	for k, v := range extra {
		p[k] = v
	}
	return p
}

func spatialOptions(p Params, env Environment) (spatial.Options, error) {
	opts := spatial.DefaultOptions()
	opts.Workers = env.Workers

	var err error
	if opts.Boundary, err = p.Boundary(); err != nil {
		return opts, err
	}
	s, err := p.String("size_policy")
	if err != nil {
		return opts, err
	}
	if opts.Size, err = models.ParseOutputSizePolicy(s); err != nil {
		return opts, err
	}
	if s, err = p.String("mode"); err != nil {
		return opts, err
	}
	if opts.Mode, err = models.ParseMode(s); err != nil {
		return opts, err
	}
	if s, err = p.String("depth"); err != nil {
		return opts, err
	}
	if opts.Depth, err = models.ParseDepth(s); err != nil {
		return opts, err
	}
	if opts.FillValue, err = p.Float("fill"); err != nil {
		return opts, err
	}
	return opts, nil
}

func enhanceOptions(p Params, env Environment) (enhance.Options, error) {
	b, err := p.Boundary()
	if err != nil {
		return enhance.Options{}, err
	}
	return enhance.Options{Boundary: b, Workers: env.Workers}, nil
}

func variant(p Params) (enhance.Variant, error) {
	s, err := p.String("variant")
	if err != nil {
		return 0, err
	}
	return enhance.ParseVariant(s)
}

func rankSpec(order rank.Order) *filterSpec {
	return &filterSpec{
		name: order.String(),
		defaults: Params{
			"size":     3,
			"boundary": models.BoundaryReplicate.String(),
			"fill":     0.0,
		},
		ranges: map[string]models.ParameterRange{"size": windowRange},
		build: func(p Params, env Environment) (chain.ProcessingStep, error) {
			size, err := p.Int("size")
			if err != nil {
				return nil, err
			}
			opts := rank.Options{Workers: env.Workers}
			if opts.Boundary, err = p.Boundary(); err != nil {
				return nil, err
			}
			if opts.FillValue, err = p.Float("fill"); err != nil {
				return nil, err
			}
			return filters.NewRankFilter(size, order, opts, env.Backend)
		},
	}
}

func sobelSpec(axis string) *filterSpec {
	return &filterSpec{
		name:     "sobel_" + axis,
		defaults: spatialDefaults(Params{"boundary": models.BoundaryReplicate.String()}),
		build: func(p Params, env Environment) (chain.ProcessingStep, error) {
			opts, err := spatialOptions(p, env)
			if err != nil {
				return nil, err
			}
			return filters.NewSobelFilter(axis, opts, env.Backend)
		},
	}
}

// builtinSpecs returns the filter definition for every step name.
func builtinSpecs() []*filterSpec {
	return []*filterSpec{
		{
			name:     "convolve",
			defaults: spatialDefaults(Params{"kernel": "0,0,0;0,1,0;0,0,0"}),
			build: func(p Params, env Environment) (chain.ProcessingStep, error) {
				k, err := p.Kernel("kernel")
				if err != nil {
					return nil, err
				}
				opts, err := spatialOptions(p, env)
				if err != nil {
					return nil, err
				}
				return filters.NewConvolveFilter(k, opts, env.Backend)
			},
		},
		{
			name:     "mean",
			defaults: spatialDefaults(Params{"size": 3}),
			ranges:   map[string]models.ParameterRange{"size": windowRange},
			build: func(p Params, env Environment) (chain.ProcessingStep, error) {
				size, err := p.Int("size")
				if err != nil {
					return nil, err
				}
				opts, err := spatialOptions(p, env)
				if err != nil {
					return nil, err
				}
				return filters.NewMeanFilter(size, opts, env.Backend)
			},
		},
		{
			name: "gaussian",
			// sigma 0 derives sigma from the size.
			defaults: spatialDefaults(Params{"size": 5, "sigma": 0.0}),
			ranges:   map[string]models.ParameterRange{"size": windowRange, "sigma": sigmaRange},
			build: func(p Params, env Environment) (chain.ProcessingStep, error) {
				size, err := p.Int("size")
				if err != nil {
					return nil, err
				}
				sigma, err := p.Float("sigma")
				if err != nil {
					return nil, err
				}
				opts, err := spatialOptions(p, env)
				if err != nil {
					return nil, err
				}
				return filters.NewGaussianFilter(size, sigma, opts, env.Backend)
			},
		},
		sobelSpec("x"),
		sobelSpec("y"),
		{
			name: "laplacian",
			defaults: Params{
				"variant":  enhance.Laplace4.String(),
				"boundary": models.BoundarySymmetric.String(),
			},
			build: func(p Params, env Environment) (chain.ProcessingStep, error) {
				v, err := variant(p)
				if err != nil {
					return nil, err
				}
				opts, err := enhanceOptions(p, env)
				if err != nil {
					return nil, err
				}
				return filters.NewLaplacianFilter(v, opts, env.Backend)
			},
		},
		{
			name: "sharpen",
			defaults: Params{
				"weight":   1.0,
				"variant":  enhance.Laplace8.String(),
				"boundary": models.BoundarySymmetric.String(),
			},
			ranges: map[string]models.ParameterRange{"weight": weightRange},
			build: func(p Params, env Environment) (chain.ProcessingStep, error) {
				w, err := p.Float("weight")
				if err != nil {
					return nil, err
				}
				v, err := variant(p)
				if err != nil {
					return nil, err
				}
				opts, err := enhanceOptions(p, env)
				if err != nil {
					return nil, err
				}
				return filters.NewSharpenFilter(w, v, opts, env.Backend)
			},
		},
		{
			name: "unsharp",
			defaults: Params{
				"sigma":    1.0,
				"amount":   1.0,
				"boundary": models.BoundarySymmetric.String(),
			},
			ranges: map[string]models.ParameterRange{
				"sigma":  {Min: 0.1, Max: 20, Step: 0.1},
				"amount": weightRange,
			},
			build: func(p Params, env Environment) (chain.ProcessingStep, error) {
				sigma, err := p.Float("sigma")
				if err != nil {
					return nil, err
				}
				amount, err := p.Float("amount")
				if err != nil {
					return nil, err
				}
				opts, err := enhanceOptions(p, env)
				if err != nil {
					return nil, err
				}
				return filters.NewUnsharpFilter(sigma, amount, opts, env.Backend)
			},
		},
		{
			name: "bilateral",
			defaults: Params{
				"diameter":    9,
				"sigma_color": 75.0,
				"sigma_space": 75.0,
				"boundary":    models.BoundarySymmetric.String(),
			},
			ranges: map[string]models.ParameterRange{
				"diameter":    {Min: 0, Max: 31, Step: 1},
				"sigma_color": {Min: 0.1, Max: 255, Step: 1},
				"sigma_space": {Min: 0.1, Max: 100, Step: 1},
			},
			build: func(p Params, env Environment) (chain.ProcessingStep, error) {
				var bp enhance.BilateralParams
				var err error
				if bp.Diameter, err = p.Int("diameter"); err != nil {
					return nil, err
				}
				if bp.SigmaColor, err = p.Float("sigma_color"); err != nil {
					return nil, err
				}
				if bp.SigmaSpace, err = p.Float("sigma_space"); err != nil {
					return nil, err
				}
				opts, err := enhanceOptions(p, env)
				if err != nil {
					return nil, err
				}
				return filters.NewBilateralFilter(bp, opts, env.Backend)
			},
		},
		rankSpec(rank.Median),
		rankSpec(rank.Min),
		rankSpec(rank.Max),
		{
			name:     "salt_pepper",
			defaults: Params{"amount": 0.05, "seed": 1},
			ranges:   map[string]models.ParameterRange{"amount": {Min: 0, Max: 1, Step: 0.01}},
			build: func(p Params, env Environment) (chain.ProcessingStep, error) {
				amount, err := p.Float("amount")
				if err != nil {
					return nil, err
				}
				seed, err := p.Uint64("seed")
				if err != nil {
					return nil, err
				}
				return filters.NewSaltPepperFilter(amount, seed), nil
			},
		},
		{
			name:     "clamp",
			defaults: Params{},
			build: func(p Params, env Environment) (chain.ProcessingStep, error) {
				return filters.NewClampFilter(), nil
			},
		},
	}
}
