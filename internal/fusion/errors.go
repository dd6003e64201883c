// SPDX-License-Identifier: Apache-2.0

package fusion

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownLabel     = errors.New("unknown classifier label")
	ErrInvalidWeight    = errors.New("invalid detector weight")
	ErrInvalidScore     = errors.New("invalid classifier score")
	ErrEmptyDetectorSet = errors.New("empty detector set")
	ErrInvalidPolarity  = errors.New("invalid polarity map")
)

// UnknownLabelError is returned when a classifier emits a label its polarity map
// does not declare.
type UnknownLabelError struct {
	Label string
	Known []string
}

func (e *UnknownLabelError) Error() string {
	return fmt.Sprintf("%s: %q (known: %s)", ErrUnknownLabel, e.Label, strings.Join(e.Known, ", "))
}

func (e *UnknownLabelError) Unwrap() error {
	return ErrUnknownLabel
}

// InvalidWeightError is returned for a non-positive or non-finite weight, or, in
// strict mode, for a weight set that does not sum to 1.
type InvalidWeightError struct {
	Name   string
	Weight float64
	Sum    float64
	Reason string
}

func (e *InvalidWeightError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s: %g: %s", ErrInvalidWeight, e.Name, e.Weight, e.Reason)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidWeight, e.Reason)
}

func (e *InvalidWeightError) Unwrap() error {
	return ErrInvalidWeight
}

// PolarityError describes a malformed PolarityMap.
type PolarityError struct {
	Label  string
	Reason string
}

func (e *PolarityError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("%s: %q: %s", ErrInvalidPolarity, e.Label, e.Reason)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidPolarity, e.Reason)
}

func (e *PolarityError) Unwrap() error {
	return ErrInvalidPolarity
}
