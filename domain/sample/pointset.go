// Package sample defines the point sets that the anchor-ranked statistic
// operates on.
package sample

import (
	"math"

	"anchortest/internal/errors"

	"gonum.org/v1/gonum/mat"
)

// PointSet is an ordered sequence of d-dimensional real vectors, one per row.
// A PointSet is never mutated after construction.
type PointSet struct {
	data *mat.Dense
	n    int
	dim  int
}

// New builds a PointSet from row vectors. All rows must share one length.
// An empty slice yields an empty set of dimension 0.
func New(rows [][]float64) (*PointSet, error) {
	if len(rows) == 0 {
		return &PointSet{}, nil
	}
	dim := len(rows[0])
	if dim == 0 {
		return nil, errors.InvalidInput("points must have at least one coordinate")
	}
	flat := make([]float64, 0, len(rows)*dim)
	for i, row := range rows {
		if len(row) != dim {
			return nil, errors.InvalidInputf("point %d has %d coordinates, want %d", i, len(row), dim)
		}
		flat = append(flat, row...)
	}
	return &PointSet{data: mat.NewDense(len(rows), dim, flat), n: len(rows), dim: dim}, nil
}

// MustNew is like New but panics on error. Intended for fixtures.
func MustNew(rows [][]float64) *PointSet {
	ps, err := New(rows)
	if err != nil {
		panic(err)
	}
	return ps
}

// FromDense wraps an existing matrix without copying it. The caller must not
// modify m afterwards.
func FromDense(m *mat.Dense) *PointSet {
	if m == nil || m.IsEmpty() {
		return &PointSet{}
	}
	r, c := m.Dims()
	return &PointSet{data: m, n: r, dim: c}
}

// Len returns the number of points.
func (p *PointSet) Len() int {
	if p == nil {
		return 0
	}
	return p.n
}

// Dim returns the dimension of the points, 0 for an empty set.
func (p *PointSet) Dim() int {
	if p == nil {
		return 0
	}
	return p.dim
}

// IsEmpty reports whether the set holds no points.
func (p *PointSet) IsEmpty() bool { return p.Len() == 0 }

// Row returns point i. The returned slice aliases the set's storage and must
// be treated as read-only.
func (p *PointSet) Row(i int) []float64 {
	return p.data.RawRowView(i)
}

// Matrix exposes the backing matrix read-only.
func (p *PointSet) Matrix() mat.Matrix {
	if p.IsEmpty() {
		return nil
	}
	return p.data
}

// Rows returns a copy of all points as row vectors.
func (p *PointSet) Rows() [][]float64 {
	out := make([][]float64, p.Len())
	for i := range out {
		row := make([]float64, p.dim)
		copy(row, p.Row(i))
		out[i] = row
	}
	return out
}

// Gather builds a new set whose i-th point is p's indices[i]-th point.
// Indices may repeat, which is how bootstrap resamples are materialised.
func (p *PointSet) Gather(indices []int) *PointSet {
	if len(indices) == 0 {
		return &PointSet{}
	}
	out := mat.NewDense(len(indices), p.dim, nil)
	for i, idx := range indices {
		out.SetRow(i, p.Row(idx))
	}
	return &PointSet{data: out, n: len(indices), dim: p.dim}
}

// Slice returns points [from, to) as a new set sharing no storage with p.
func (p *PointSet) Slice(from, to int) *PointSet {
	if to <= from {
		return &PointSet{}
	}
	idx := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		idx = append(idx, i)
	}
	return p.Gather(idx)
}

// Concat stacks the points of sets in order. Empty sets are skipped; the
// remaining sets must share a dimension.
func Concat(sets ...*PointSet) (*PointSet, error) {
	total, dim := 0, 0
	for _, s := range sets {
		if s.IsEmpty() {
			continue
		}
		if dim == 0 {
			dim = s.Dim()
		} else if s.Dim() != dim {
			return nil, errors.InvalidInputf("cannot stack points of dimension %d onto dimension %d", s.Dim(), dim)
		}
		total += s.Len()
	}
	if total == 0 {
		return &PointSet{}, nil
	}
	out := mat.NewDense(total, dim, nil)
	row := 0
	for _, s := range sets {
		for i := 0; i < s.Len(); i++ {
			out.SetRow(row, s.Row(i))
			row++
		}
	}
	return &PointSet{data: out, n: total, dim: dim}, nil
}

// CheckFinite returns a NUMERIC_DEGENERATE error naming the first NaN or
// infinite coordinate in p.
func (p *PointSet) CheckFinite(name string) error {
	for i := 0; i < p.Len(); i++ {
		for j, v := range p.Row(i) {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.Newf(errors.CodeNumericDegenerate,
					"%s point %d coordinate %d is not finite (%v)", name, i, j, v)
			}
		}
	}
	return nil
}
