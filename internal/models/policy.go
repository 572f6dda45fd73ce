package models

import (
	"fmt"
	"strings"
)

// BoundaryPolicy defines sample values outside the grid.
type BoundaryPolicy int

const (
	// BoundaryFill pads with a constant.
	BoundaryFill BoundaryPolicy = iota
	// BoundaryWrap indexes periodically.
	BoundaryWrap
	// BoundarySymmetric mirrors including the edge sample: -1 maps to 0.
	BoundarySymmetric
	// BoundaryReplicate clamps to the nearest edge sample.
	BoundaryReplicate
)

var boundaryNames = map[BoundaryPolicy]string{
	BoundaryFill:      "fill",
	BoundaryWrap:      "wrap",
	BoundarySymmetric: "symmetric",
	BoundaryReplicate: "replicate",
}

func (b BoundaryPolicy) String() string {
	if name, ok := boundaryNames[b]; ok {
		return name
	}
	return fmt.Sprintf("BoundaryPolicy(%d)", int(b))
}

func (b BoundaryPolicy) Valid() bool {
	_, ok := boundaryNames[b]
	return ok
}

// Resolve maps index i onto [0, n). It reports false when the sample comes
// from the fill constant instead of the grid.
func (b BoundaryPolicy) Resolve(i, n int) (int, bool) {
	if i >= 0 && i < n {
		return i, true
	}
	switch b {
	case BoundaryWrap:
		m := i % n
		if m < 0 {
			m += n
		}
		return m, true
	case BoundarySymmetric:
		period := 2 * n
		m := i % period
		if m < 0 {
			m += period
		}
		if m >= n {
			m = period - 1 - m
		}
		return m, true
	case BoundaryReplicate:
		if i < 0 {
			return 0, true
		}
		return n - 1, true
	default:
		return 0, false
	}
}

// Indices resolves length consecutive indices starting at offset against
// [0, n). Positions that take the fill value are reported as -1.
func (b BoundaryPolicy) Indices(offset, length, n int) []int {
	idx := make([]int, length)
	for i := range idx {
		r, ok := b.Resolve(offset+i, n)
		if !ok {
			r = -1
		}
		idx[i] = r
	}
	return idx
}

func ParseBoundaryPolicy(s string) (BoundaryPolicy, error) {
	for policy, name := range boundaryNames {
		if strings.EqualFold(s, name) {
			return policy, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown boundary policy %q", ErrInvalidParameter, s)
}

func (b BoundaryPolicy) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("%w: boundary policy %d", ErrInvalidParameter, int(b))
	}
	return []byte(b.String()), nil
}

func (b *BoundaryPolicy) UnmarshalText(text []byte) error {
	p, err := ParseBoundaryPolicy(string(text))
	if err != nil {
		return err
	}
	*b = p
	return nil
}

// OutputSizePolicy selects the output dimensions of a filter.
type OutputSizePolicy int

const (
	// SizeSame keeps the input dimensions, aligned on the kernel anchor.
	SizeSame OutputSizePolicy = iota
	// SizeFull computes every position where kernel and image overlap.
	SizeFull
	// SizeValid computes only positions with full kernel overlap.
	SizeValid
)

var sizeNames = map[OutputSizePolicy]string{
	SizeSame:  "same",
	SizeFull:  "full",
	SizeValid: "valid",
}

func (s OutputSizePolicy) String() string {
	if name, ok := sizeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("OutputSizePolicy(%d)", int(s))
}

func (s OutputSizePolicy) Valid() bool {
	_, ok := sizeNames[s]
	return ok
}

// OutputDims returns the result size for an image and kernel. Valid
// outputs may come out non-positive; callers reject those.
func (s OutputSizePolicy) OutputDims(imageRows, imageCols, kernelRows, kernelCols int) (rows, cols int) {
	switch s {
	case SizeFull:
		return imageRows + kernelRows - 1, imageCols + kernelCols - 1
	case SizeValid:
		return imageRows - kernelRows + 1, imageCols - kernelCols + 1
	default:
		return imageRows, imageCols
	}
}

func ParseOutputSizePolicy(s string) (OutputSizePolicy, error) {
	for policy, name := range sizeNames {
		if strings.EqualFold(s, name) {
			return policy, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown output size policy %q", ErrInvalidParameter, s)
}

func (s OutputSizePolicy) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: output size policy %d", ErrInvalidParameter, int(s))
	}
	return []byte(s.String()), nil
}

func (s *OutputSizePolicy) UnmarshalText(text []byte) error {
	p, err := ParseOutputSizePolicy(string(text))
	if err != nil {
		return err
	}
	*s = p
	return nil
}

// Mode selects correlation or convolution.
type Mode int

const (
	ModeCorrelation Mode = iota
	ModeConvolution
)

func (m Mode) String() string {
	switch m {
	case ModeCorrelation:
		return "correlation"
	case ModeConvolution:
		return "convolution"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func (m Mode) Valid() bool {
	return m == ModeCorrelation || m == ModeConvolution
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "correlation", "correlate":
		return ModeCorrelation, nil
	case "convolution", "convolve":
		return ModeConvolution, nil
	}
	return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidParameter, s)
}

// Depth is the element type of a filter result.
type Depth int

const (
	// DepthFloat keeps negative and out-of-range values.
	DepthFloat Depth = iota
	// DepthUint8 rounds and saturates to 0-255.
	DepthUint8
)

func (d Depth) String() string {
	switch d {
	case DepthFloat:
		return "float"
	case DepthUint8:
		return "uint8"
	default:
		return fmt.Sprintf("Depth(%d)", int(d))
	}
}

func (d Depth) Valid() bool {
	return d == DepthFloat || d == DepthUint8
}

func ParseDepth(s string) (Depth, error) {
	switch strings.ToLower(s) {
	case "float", "float64":
		return DepthFloat, nil
	case "uint8", "u8":
		return DepthUint8, nil
	}
	return 0, fmt.Errorf("%w: unknown depth %q", ErrInvalidParameter, s)
}
