// Package compliance labels room readings against an energy/comfort policy.
//
// A Policy is a priority-ordered rule table: rules are checked in order
// and the first match decides the verdict. Rules overlap on purpose, so
// the order is part of the policy.
package compliance

import (
	"errors"
	"fmt"

	"github.com/ntentasd/roomsense/pkg/types"
)

const (
	PolicyGapAware = "gap-aware"
	PolicyStrict   = "strict"
)

var ErrUnknownPolicy = errors.New("unknown compliance policy")

// Policy maps a reading to a verdict. Implementations are pure.
type Policy interface {
	Name() string
	Classify(r types.Reading) types.Verdict
}

var invalid = types.Verdict{Status: types.StatusInvalid, PMV: 0.0, PPD: 0}

// Unmatched is the verdict a policy returns when no rule matches. It is
// also the verdict for a reading that cannot be evaluated at all.
func Unmatched() types.Verdict {
	return invalid
}

func verdict(s types.Status, pmv, ppd float64) types.Verdict {
	return types.Verdict{Status: s, PMV: pmv, PPD: ppd}
}

// ByName returns the policy registered under name.
func ByName(name string) (Policy, error) {
	switch name {
	case PolicyGapAware:
		return GapAware{}, nil
	case PolicyStrict:
		return Strict{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}

// Names lists the registered policies.
func Names() []string {
	return []string{PolicyGapAware, PolicyStrict}
}

func between(v, lo, hi float64) bool {
	return lo <= v && v <= hi
}

func occBetween(occ, lo, hi int) bool {
	return lo <= occ && occ <= hi
}
