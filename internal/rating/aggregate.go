// Package rating owns the derived (reviewCount, averageRating) pair stored on
// a professor. All mutations go through the incremental steps below; the
// stored average is always clamped to [MinRating, MaxRating] and the count
// can never go negative. Nothing in this package touches the store.
package rating

// Rating and qualifier scales.
const (
	MinRating    = 0.0
	MaxRating    = 5.0
	QualifierMax = 4.0 // GPA scale ceiling
)

// Aggregate is the denormalized rating state embedded in a professor record.
type Aggregate struct {
	Count   int
	Average float64
}

// Normalize maps a GPA from its native 0-4 scale onto the 0-5 rating scale.
func Normalize(gpa float64) float64 {
	return gpa / QualifierMax * MaxRating
}

// Weight is the weighted contribution of one review: the rater's normalized
// qualifier times the submitted rating. The product ranges up to 25 and is
// only pulled back into [0,5] by the clamp after each aggregate step.
func Weight(gpa, rating float64) float64 {
	return Normalize(gpa) * rating
}

// Incorporate folds a new weighted value into the population.
func (a Aggregate) Incorporate(w float64) Aggregate {
	n := a.Count
	if n < 0 {
		n = 0
	}
	avg := (a.Average*float64(n) + w) / float64(n+1)
	return Aggregate{Count: n + 1, Average: clamp(avg)}
}

// Replace swaps an old weighted value for a new one at constant population
// size. With an empty population there is nothing to replace.
func (a Aggregate) Replace(oldW, newW float64) Aggregate {
	if a.Count <= 0 {
		return Aggregate{}
	}
	n := float64(a.Count)
	avg := (a.Average*n - oldW + newW) / n
	return Aggregate{Count: a.Count, Average: clamp(avg)}
}

// Remove subtracts a weighted value from the population. Removing the last
// review resets the aggregate to zero.
func (a Aggregate) Remove(oldW float64) Aggregate {
	if a.Count <= 1 {
		return Aggregate{}
	}
	n := float64(a.Count)
	avg := (a.Average*n - oldW) / (n - 1)
	return Aggregate{Count: a.Count - 1, Average: clamp(avg)}
}

func clamp(v float64) float64 {
	if v < MinRating {
		return MinRating
	}
	if v > MaxRating {
		return MaxRating
	}
	return v
}
