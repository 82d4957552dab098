package sample

import "anchortest/internal/errors"

// Named pairs a PointSet with the label used in error messages.
type Named struct {
	Name string
	Set  *PointSet
}

// ValidateTriple checks the preconditions shared by every statistic
// evaluation: X, Y and Z are non-empty, share one dimension and hold only
// finite coordinates.
func ValidateTriple(x, y, z *PointSet) error {
	return ValidateCommon(
		Named{Name: "X", Set: x},
		Named{Name: "Y", Set: y},
		Named{Name: "anchor set Z", Set: z},
	)
}

// ValidateCommon rejects empty sets, dimension mismatches and non-finite
// coordinates, reporting the first offending set by name.
func ValidateCommon(sets ...Named) error {
	if len(sets) == 0 {
		return nil
	}
	for _, s := range sets {
		if s.Set.IsEmpty() {
			return errors.InvalidInputf("%s is empty", s.Name)
		}
	}
	want := sets[0].Set.Dim()
	for _, s := range sets[1:] {
		if s.Set.Dim() != want {
			return errors.InvalidInputf("%s has dimension %d, want %d (dimension of %s)",
				s.Name, s.Set.Dim(), want, sets[0].Name)
		}
	}
	for _, s := range sets {
		if err := s.Set.CheckFinite(s.Name); err != nil {
			return err
		}
	}
	return nil
}
