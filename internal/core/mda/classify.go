// Package mda decides whether an activity reading clears the minimum detectable activity threshold.
package mda

import (
	"fmt"

	"github.com/joseph-ayodele/n42-extract/constants"
)

// ZeroPolicy selects how a reading whose value and uncertainty are both exactly zero is rendered.
type ZeroPolicy int

const (
	// SuppressZero renders the both-zero reading as below threshold.
	SuppressZero ZeroPolicy = iota
	// RenderZero renders the both-zero reading as a reportable 0.0000 ± 0.0000.
	// Only the Rn-222 concentration channel uses it.
	// TODO: confirm with the lab whether concentration should follow SuppressZero like the activity channels.
	RenderZero
)

func (p ZeroPolicy) String() string {
	switch p {
	case SuppressZero:
		return "suppress"
	case RenderZero:
		return "render"
	default:
		return fmt.Sprintf("ZeroPolicy(%d)", int(p))
	}
}

// Result is the classification of one channel.
type Result struct {
	Reportable  bool
	Value       float64
	Uncertainty float64
}

// BelowThreshold is the zero Result.
var BelowThreshold = Result{}

// Reportable builds a reportable Result.
func Reportable(value, uncertainty float64) Result {
	return Result{Reportable: true, Value: value, Uncertainty: uncertainty}
}

// String renders "<MDA" or "value ± uncertainty" with four decimals.
func (r Result) String() string {
	if !r.Reportable {
		return constants.BelowMDA
	}
	return fmt.Sprintf("%.4f ± %.4f", r.Value, r.Uncertainty)
}

// Classify applies the detection rule to a reading. A nil value or uncertainty means
// the field was absent from the document. The comparison is strict: a value equal to
// sigma × uncertainty is reportable.
func Classify(value, uncertainty *float64, sigma float64, policy ZeroPolicy) Result {
	if value != nil && uncertainty != nil && *value == 0 && *uncertainty == 0 {
		if policy == RenderZero {
			return Reportable(0, 0)
		}
		return BelowThreshold
	}
	if value == nil || uncertainty == nil || *value < sigma*(*uncertainty) {
		return BelowThreshold
	}
	return Reportable(*value, *uncertainty)
}
