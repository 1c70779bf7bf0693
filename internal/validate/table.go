package validate

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/flowcheck/internal/fsutil"
)

// Table is a whitespace-delimited numeric output file. A file with a single
// row or a single column is rank-1 and matches either orientation.
type Table struct {
	Path string
	m    *mat.Dense // nil for an empty file
}

// Dims returns the parsed rows and columns.
func (t *Table) Dims() (rows, cols int) {
	if t.m == nil {
		return 0, 0
	}
	return t.m.Dims()
}

// Rank1 reports whether the table is a single row or a single column.
func (t *Table) Rank1() bool {
	r, c := t.Dims()
	return r == 1 || c == 1
}

// Fits reports whether the table holds a rows×cols matrix. Rank-1 shapes
// match each other when they hold the same number of values.
func (t *Table) Fits(rows, cols int) bool {
	r, c := t.Dims()
	if r == rows && c == cols {
		return true
	}
	rank1 := rows == 1 || cols == 1
	return rank1 && t.Rank1() && r*c == rows*cols
}

// Col returns column j of a rows×cols view of the table. The table must
// Fit(rows, cols).
func (t *Table) Col(j, rows, cols int) []float64 {
	if t.m == nil {
		return nil
	}
	r, c := t.m.Dims()
	if r == rows && c == cols {
		return mat.Col(nil, j, t.m)
	}
	// rank-1 in the other orientation: values are in row-major order
	flat := t.flat()
	out := make([]float64, rows)
	for i := range out {
		out[i] = flat[i*cols+j]
	}
	return out
}

// Row returns row i of a rows×cols view of the table.
func (t *Table) Row(i, rows, cols int) []float64 {
	flat := t.flat()
	return flat[i*cols : (i+1)*cols]
}

func (t *Table) flat() []float64 {
	if t.m == nil {
		return nil
	}
	r, c := t.m.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		out = append(out, t.m.RawRowView(i)...)
	}
	return out
}

// LoadTable reads a pipeline output file. A missing file yields a
// *MissingOutputError.
func LoadTable(fsys fsutil.FileSystem, path string) (*Table, error) {
	if !fsys.Exists(path) {
		return nil, &MissingOutputError{Path: path}
	}
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	t, err := ParseTable(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	t.Path = path
	return t, nil
}

// ParseTable parses whitespace-delimited rows. Text after '#' and blank lines
// are ignored; nan, -nan, inf and -inf are accepted in any case.
func ParseTable(data []byte) (*Table, error) {
	var values []float64
	rows, cols := 0, 0
	sc := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if rows == 0 {
			cols = len(fields)
		} else if len(fields) != cols {
			return nil, &ShapeMismatchError{Detail: fmt.Sprintf("line %d has %d columns, previous rows have %d", lineNo, len(fields), cols)}
		}
		for _, f := range fields {
			v, err := parseValue(f)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			values = append(values, v)
		}
		rows++
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if rows == 0 {
		return &Table{}, nil
	}
	return &Table{m: mat.NewDense(rows, cols, values)}, nil
}

func parseValue(s string) (float64, error) {
	// strconv rejects a signed NaN, which C printf writes for some NaNs
	if len(s) > 1 && (s[0] == '-' || s[0] == '+') && strings.EqualFold(s[1:], "nan") {
		s = s[1:]
	}
	return strconv.ParseFloat(s, 64)
}
