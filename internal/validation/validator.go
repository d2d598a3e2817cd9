// Package validation gates raw GPS samples before they enter the pipeline.
package validation

import (
	"math"
	"strconv"
	"strings"
)

// Verdict classifies a candidate GPS sample
type Verdict int

const (
	Accept Verdict = iota
	RejectOutOfRange
	RejectVirtual
	RejectInaccurate
)

// MaxAccuracyMeters is the horizontal error radius above which a sample is
// too noisy to keep: low-confidence GPS corrupts distance and speed math
// more than a missing sample does.
const MaxAccuracyMeters = 20.0

// Validator checks candidate samples against the coordinate range, the
// virtual-device heuristic and the accuracy gate
type Validator struct {
	maxAccuracy float64
}

// NewValidator creates a validator with the given accuracy threshold in
// meters; zero or negative falls back to MaxAccuracyMeters
func NewValidator(maxAccuracy float64) *Validator {
	if maxAccuracy <= 0 {
		maxAccuracy = MaxAccuracyMeters
	}
	return &Validator{maxAccuracy: maxAccuracy}
}

// Check classifies a candidate sample. Order matters: range first (a client
// error), then the virtual heuristic, then the accuracy gate.
func (v *Validator) Check(lat, lon float64, accuracy *float64) Verdict {
	if math.Abs(lat) > 90 || math.Abs(lon) > 180 {
		return RejectOutOfRange
	}
	if IsVirtualCoordinate(lat) || IsVirtualCoordinate(lon) {
		return RejectVirtual
	}
	if accuracy == nil || *accuracy > v.maxAccuracy {
		return RejectInaccurate
	}
	return Accept
}

// IsVirtualCoordinate reports whether a coordinate looks like it came from
// a test harness rather than a real device: the decimal-stripped absolute
// value containing the digit run "122" is a known artifact of the fleet's
// simulator builds. Fragile, but kept until devices send an explicit
// test-device flag.
func IsVirtualCoordinate(coord float64) bool {
	s := strconv.FormatFloat(math.Abs(coord), 'f', -1, 64)
	s = strings.ReplaceAll(s, ".", "")
	return strings.Contains(s, "122")
}
