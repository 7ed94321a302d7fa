// Package picktypes checks a picker's remaining pick-type distribution.
//
// types[i] is the number of remaining weeks in which the picker must select i
// teams at once, so a valid distribution satisfies Σ i·types[i] == remaining.
package picktypes

import "fmt"

// CategoryInconsistent is the batch error category for bad distributions.
const CategoryInconsistent = "inconsistent_distribution"

// Distribution counts remaining picks by the number of simultaneous selections.
type Distribution []int

// Default is one single-team pick per remaining team.
func Default(remaining int) Distribution {
	return Distribution{0, remaining}
}

// Weighted returns Σ i·d[i].
func (d Distribution) Weighted() int {
	sum := 0
	for i, n := range d {
		sum += i * n
	}
	return sum
}

// Weeks returns the number of weeks the distribution covers, byes included.
func (d Distribution) Weeks() int {
	weeks := 0
	for _, n := range d {
		weeks += n
	}
	return weeks
}

// InconsistentDistributionError means the weighted sum differs from the
// remaining team count.
type InconsistentDistributionError struct {
	Expected     int
	Got          int
	Distribution Distribution
}

func (e *InconsistentDistributionError) Error() string {
	return fmt.Sprintf("pick types remaining %v sum to %d, expected %d teams remaining", []int(e.Distribution), e.Got, e.Expected)
}

// Category implements batch.Categorized.
func (e *InconsistentDistributionError) Category() string {
	return CategoryInconsistent
}

// NegativeCountError means a distribution entry is below zero.
type NegativeCountError struct {
	Index        int
	Distribution Distribution
}

func (e *NegativeCountError) Error() string {
	return fmt.Sprintf("pick types remaining %v has negative count at index %d", []int(e.Distribution), e.Index)
}

// Category implements batch.Categorized.
func (e *NegativeCountError) Category() string {
	return CategoryInconsistent
}

// Validate checks d against the number of teams the picker has left.
func Validate(d Distribution, remaining int) error {
	for i, n := range d {
		if n < 0 {
			return &NegativeCountError{Index: i, Distribution: d}
		}
	}
	if got := d.Weighted(); got != remaining {
		return &InconsistentDistributionError{Expected: remaining, Got: got, Distribution: d}
	}
	return nil
}
