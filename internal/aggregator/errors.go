package aggregator

import (
	"errors"
	"fmt"

	"github.com/pable/go-cs-zones/internal/model"
)

var (
	// ErrEmptyResult is matched by every EmptyResultError.
	ErrEmptyResult = errors.New("empty result")
	// ErrNoQualifyingEntry is matched by every NoQualifyingIntervalError.
	ErrNoQualifyingEntry = errors.New("no qualifying entry detected")
)

// EmptyResultError reports that no samples satisfied a containment or filter query.
type EmptyResultError struct {
	Op   string // "dominance" or "heatmap"
	Team string
	Side model.Side
	Area string
}

func (e *EmptyResultError) Error() string {
	if e.Team == "" {
		return fmt.Sprintf("%s: no points inside the chokepoint", e.Op)
	}
	return fmt.Sprintf("%s: no samples for %s/%s in %q", e.Op, e.Team, e.Side, e.Area)
}

func (e *EmptyResultError) Is(target error) bool { return target == ErrEmptyResult }

// NoQualifyingIntervalError reports that no entry interval had an overlapping partner.
type NoQualifyingIntervalError struct {
	Team string
	Side model.Side
	Area string
	// Intervals is the number of pooled intervals that were examined.
	Intervals int
}

func (e *NoQualifyingIntervalError) Error() string {
	return fmt.Sprintf("no qualifying entry detected for %s/%s in %q (%d intervals, none overlapping)",
		e.Team, e.Side, e.Area, e.Intervals)
}

func (e *NoQualifyingIntervalError) Is(target error) bool { return target == ErrNoQualifyingEntry }
