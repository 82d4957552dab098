// Package distance computes Euclidean distance matrices between point sets.
//
// Self and Cross are the serial kernels. ParallelSelf and ParallelCross split
// the row range across workers and produce bit-identical results.
package distance

import (
	"context"
	"math"

	"anchortest/domain/sample"
	"anchortest/internal/errors"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Euclidean returns the L2 distance between a and b.
func Euclidean(a, b []float64) float64 {
	return floats.Distance(a, b, 2)
}

// Self returns the k×k matrix of distances between the points of z.
// The matrix is symmetric with an exactly zero diagonal.
func Self(z *sample.PointSet) (*mat.Dense, error) {
	if z.IsEmpty() {
		return nil, errors.InvalidInput("cannot compute distances of an empty set")
	}
	k := z.Len()
	out := mat.NewDense(k, k, nil)
	if err := selfRows(z, out, 0, k); err != nil {
		return nil, err
	}
	return out, nil
}

// Cross returns the |a|×|b| matrix whose (i, j) entry is the distance from
// a's point i to b's point j.
func Cross(a, b *sample.PointSet) (*mat.Dense, error) {
	if err := checkPair(a, b); err != nil {
		return nil, err
	}
	out := mat.NewDense(a.Len(), b.Len(), nil)
	if err := crossRows(a, b, out, 0, a.Len()); err != nil {
		return nil, err
	}
	return out, nil
}

// ParallelSelf is Self with the upper-triangle rows spread over workers.
// workers <= 1 falls back to the serial kernel.
func ParallelSelf(ctx context.Context, z *sample.PointSet, workers int) (*mat.Dense, error) {
	if workers <= 1 {
		return Self(z)
	}
	if z.IsEmpty() {
		return nil, errors.InvalidInput("cannot compute distances of an empty set")
	}
	k := z.Len()
	out := mat.NewDense(k, k, nil)
	err := forEachRow(ctx, k, workers, func(i int) error {
		// Row i owns entries (i, j) and (j, i) for j > i, so no two rows write
		// the same cell.
		return selfRows(z, out, i, i+1)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ParallelCross is Cross with rows of a spread over workers.
func ParallelCross(ctx context.Context, a, b *sample.PointSet, workers int) (*mat.Dense, error) {
	if workers <= 1 {
		return Cross(a, b)
	}
	if err := checkPair(a, b); err != nil {
		return nil, err
	}
	out := mat.NewDense(a.Len(), b.Len(), nil)
	err := forEachRow(ctx, a.Len(), workers, func(i int) error {
		return crossRows(a, b, out, i, i+1)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func checkPair(a, b *sample.PointSet) error {
	if a.IsEmpty() || b.IsEmpty() {
		return errors.InvalidInput("cannot compute cross distances with an empty set")
	}
	if a.Dim() != b.Dim() {
		return errors.InvalidInputf("cross distances need equal dimensions, got %d and %d", a.Dim(), b.Dim())
	}
	return nil
}

func selfRows(z *sample.PointSet, out *mat.Dense, from, to int) error {
	k := z.Len()
	for i := from; i < to; i++ {
		out.Set(i, i, 0)
		zi := z.Row(i)
		for j := i + 1; j < k; j++ {
			d := Euclidean(zi, z.Row(j))
			if !finite(d) {
				return degenerate(i, j, d)
			}
			out.Set(i, j, d)
			out.Set(j, i, d)
		}
	}
	return nil
}

func crossRows(a, b *sample.PointSet, out *mat.Dense, from, to int) error {
	for i := from; i < to; i++ {
		ai := a.Row(i)
		for j := 0; j < b.Len(); j++ {
			d := Euclidean(ai, b.Row(j))
			if !finite(d) {
				return degenerate(i, j, d)
			}
			out.Set(i, j, d)
		}
	}
	return nil
}

// forEachRow runs fn for every row index with at most workers in flight and
// returns the first error.
func forEachRow(ctx context.Context, rows, workers int, fn func(i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < rows; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return fn(i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func degenerate(i, j int, d float64) error {
	return errors.Newf(errors.CodeNumericDegenerate, "distance between points %d and %d is not finite (%v)", i, j, d)
}
