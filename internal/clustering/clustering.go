// Package clustering defines the audio feature set the cluster model was
// fitted on and turns a two-feature selection into a full model input vector.
package clustering

import (
	"errors"
	"fmt"
	"math"
)

// Feature names a numeric audio feature column.
type Feature string

// Audio features, declared in model column order.
const (
	Acousticness     Feature = "acousticness"
	Danceability     Feature = "danceability"
	Energy           Feature = "energy"
	Instrumentalness Feature = "instrumentalness"
	Liveness         Feature = "liveness"
	Loudness         Feature = "loudness"
	Speechiness      Feature = "speechiness"
	Tempo            Feature = "tempo"
	Valence          Feature = "valence"
	Popularity       Feature = "popularity"
)

// FeatureSet is the ordered list of features the scaler and cluster model
// were fitted on. Every vector handed to the model uses this column order.
var FeatureSet = []Feature{
	Acousticness,
	Danceability,
	Energy,
	Instrumentalness,
	Liveness,
	Loudness,
	Speechiness,
	Tempo,
	Valence,
	Popularity,
}

// FillValue is written to every feature slot the user did not choose.
//
// It is a constant, not a per-feature mean: features left out of a
// selection read as 0 to the model, which pulls predictions toward
// whichever cluster sits closest to a 0-valued reading. Changing it alters
// the predicted cluster for identical input.
const FillValue = 0.0

// Common errors.
var (
	ErrUnknownFeature = errors.New("unknown feature")
	ErrSameFeature    = errors.New("features must be different")
	ErrNonFiniteValue = errors.New("value must be a finite number")
)

var featureIndex = func() map[Feature]int {
	m := make(map[Feature]int, len(FeatureSet))
	for i, f := range FeatureSet {
		m[f] = i
	}
	return m
}()

// ParseFeature returns the Feature with the given name.
func ParseFeature(name string) (Feature, error) {
	f := Feature(name)
	if _, ok := featureIndex[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFeature, name)
	}
	return f, nil
}

// Index returns the feature's column in FeatureSet, or -1 if it is not part of it.
func (f Feature) Index() int {
	i, ok := featureIndex[f]
	if !ok {
		return -1
	}
	return i
}

func (f Feature) String() string {
	return string(f)
}

// FeatureNames returns the FeatureSet as plain strings.
func FeatureNames() []string {
	names := make([]string, len(FeatureSet))
	for i, f := range FeatureSet {
		names[i] = string(f)
	}
	return names
}

// SecondChoices returns the features selectable once first has been picked.
// The first feature is excluded so a selection can never name it twice.
func SecondChoices(first Feature) []Feature {
	choices := make([]Feature, 0, len(FeatureSet))
	for _, f := range FeatureSet {
		if f != first {
			choices = append(choices, f)
		}
	}
	return choices
}

// Selection is a request for a prediction from two chosen feature values.
type Selection struct {
	FeatureA Feature
	ValueA   float64
	FeatureB Feature
	ValueB   float64
}

// Validate checks that both features belong to FeatureSet, differ from each
// other, and carry finite values. Values are not range checked.
func (s Selection) Validate() error {
	if s.FeatureA.Index() < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownFeature, s.FeatureA)
	}
	if s.FeatureB.Index() < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownFeature, s.FeatureB)
	}
	if s.FeatureA == s.FeatureB {
		return fmt.Errorf("%w: %q selected twice", ErrSameFeature, s.FeatureA)
	}
	if !isFinite(s.ValueA) {
		return fmt.Errorf("%w: %s", ErrNonFiniteValue, s.FeatureA)
	}
	if !isFinite(s.ValueB) {
		return fmt.Errorf("%w: %s", ErrNonFiniteValue, s.FeatureB)
	}
	return nil
}

// Vector is a dense feature vector in FeatureSet order.
type Vector []float64

// BuildVector assembles the model input for a selection. The two selected
// values land in their FeatureSet columns; every other column is FillValue.
func BuildVector(sel Selection) (Vector, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}

	v := make(Vector, len(FeatureSet))
	for i := range v {
		v[i] = FillValue
	}
	v[sel.FeatureA.Index()] = sel.ValueA
	v[sel.FeatureB.Index()] = sel.ValueB
	return v, nil
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
