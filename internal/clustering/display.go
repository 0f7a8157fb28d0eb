package clustering

import (
	"fmt"
	"strings"
)

// FormatResult returns the message shown for a prediction.
func FormatResult(clusterID int, description string, a, b Feature) string {
	return fmt.Sprintf("Your input matches Cluster %d: %s based only on features: %s, %s.",
		clusterID, description, a, b)
}

// FormatVector renders a vector as "name=value" pairs in FeatureSet order.
// Filled slots are included so the 0-fill is visible to the reader.
func FormatVector(v Vector) string {
	var sb strings.Builder
	for i, x := range v {
		if i > 0 {
			sb.WriteString(" ")
		}
		name := fmt.Sprintf("#%d", i)
		if i < len(FeatureSet) {
			name = string(FeatureSet[i])
		}
		sb.WriteString(fmt.Sprintf("%s=%g", name, x))
	}
	return sb.String()
}

// TrackFeatures holds the FeatureSet values of a single track.
type TrackFeatures struct {
	ID     string
	Name   string
	Artist string
	Values map[Feature]float64
}

// Selection builds a selection from two of the track's features.
func (t TrackFeatures) Selection(a, b Feature) (Selection, error) {
	va, ok := t.Values[a]
	if !ok {
		return Selection{}, fmt.Errorf("track %s has no %s value", t.ID, a)
	}
	vb, ok := t.Values[b]
	if !ok {
		return Selection{}, fmt.Errorf("track %s has no %s value", t.ID, b)
	}
	sel := Selection{FeatureA: a, ValueA: va, FeatureB: b, ValueB: vb}
	return sel, sel.Validate()
}
