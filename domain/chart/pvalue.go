package chart

import (
	"encoding/json"
	"math"
	"strconv"
)

// PValue distinguishes "test not applicable" from an arithmetically
// undefined result. Inapplicable values render as "NA".
type PValue struct {
	Value      float64
	Applicable bool
}

// NotApplicable is the sentinel for tests that cannot run on the input.
var NotApplicable = PValue{}

// NewPValue wraps a computed p-value.
func NewPValue(p float64) PValue {
	return PValue{Value: p, Applicable: true}
}

func (p PValue) String() string {
	if !p.Applicable {
		return "NA"
	}
	return strconv.FormatFloat(p.Value, 'g', 4, 64)
}

func (p PValue) MarshalJSON() ([]byte, error) {
	if !p.Applicable {
		return json.Marshal("NA")
	}
	if math.IsNaN(p.Value) {
		return []byte("null"), nil
	}
	return json.Marshal(p.Value)
}
