package kernels

import (
	"fmt"
	"strconv"
	"strings"

	"intensity-lab/internal/models"
)

// Parse reads a kernel written as rows separated by ';' and values by ','
// or whitespace, e.g. "0,-1,0; -1,5,-1; 0,-1,0".
func Parse(s string) (*models.Kernel, error) {
	var rows [][]float64
	for _, line := range strings.Split(s, ";") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})
		row := make([]float64, 0, len(fields))
		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: kernel value %q", models.ErrInvalidParameter, f)
			}
			row = append(row, v)
		}
		if len(rows) > 0 && len(row) != len(rows[0]) {
			return nil, fmt.Errorf("%w: kernel row %d has %d values, want %d",
				models.ErrInvalidKernelSize, len(rows), len(row), len(rows[0]))
		}
		rows = append(rows, row)
	}
	return models.KernelFromRows(rows)
}
