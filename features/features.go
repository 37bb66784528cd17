// Package features turns raw survey form values into the fixed-order numeric
// vector both risk models were trained on.
package features

import (
	"fmt"
	"strconv"
	"strings"
)

// FeatureOrder is the column order of the training data. Models silently
// misread a reordered vector, so every producer of a Vector goes through it.
var FeatureOrder = [...]string{
	"HighBP", "HighChol", "CholCheck", "BMI", "Smoker", "Stroke",
	"PhysActivity", "Fruits", "Veggies", "HvyAlcoholConsump",
	"AnyHealthcare", "NoDocbcCost", "GenHlth", "MentHlth",
	"PhysHlth", "DiffWalk", "Sex", "Age", "Education", "Income",
	"Vaccinated", "Had_COVID",
}

// Width is the length of every Vector.
const Width = len(FeatureOrder)

// AgeField is the only column that is encoded instead of passed through.
const AgeField = "Age"

// Vector is one encoded survey response in FeatureOrder.
type Vector []float64

// Map returns the vector keyed by column name.
func (v Vector) Map() map[string]float64 {
	m := make(map[string]float64, len(v))
	for i, name := range FeatureOrder {
		if i >= len(v) {
			break
		}
		m[name] = v[i]
	}
	return m
}

// MissingFieldError is returned when a required form field is absent.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q", e.Field)
}

// ParseError is returned when a field value is not numeric.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("field %q: cannot parse %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// EncodeAge maps an age in years to the BRFSS 13-level age code.
// Buckets are five years wide starting at 25; lower bounds are inclusive.
func EncodeAge(age int) int {
	switch {
	case age < 25:
		return 1
	case age >= 80:
		return 13
	default:
		return (age-25)/5 + 2
	}
}

// Build parses raw form values into a Vector. Columns are always emitted in
// FeatureOrder; extra keys in raw are ignored.
func Build(raw map[string]string) (Vector, error) {
	vec := make(Vector, Width)
	for i, name := range FeatureOrder {
		value, ok := raw[name]
		if !ok {
			return nil, &MissingFieldError{Field: name}
		}
		trimmed := strings.TrimSpace(value)

		if name == AgeField {
			age, err := strconv.Atoi(trimmed)
			if err != nil {
				return nil, &ParseError{Field: name, Value: value, Err: err}
			}
			vec[i] = float64(EncodeAge(age))
			continue
		}

		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, &ParseError{Field: name, Value: value, Err: err}
		}
		vec[i] = f
	}
	return vec, nil
}
