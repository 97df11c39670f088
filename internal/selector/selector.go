// Package selector picks the single call to submit from a set of estimation outcomes.
package selector

import (
	"github.com/mselser95/overlay-build/pkg/types"
)

// Select applies the positional tie-break over outcomes, in order:
//
//  1. the last Estimated outcome that is either the final element or is
//     immediately followed by another Estimated outcome;
//  2. otherwise the last Diagnosed outcome, raised as a BuildError;
//  3. otherwise, if any Unresolved outcome exists, a generic BuildError
//     carrying the first unresolved cause as detail;
//  4. an empty input raises "no candidates produced".
func Select(outcomes []types.EstimationOutcome) (*types.SelectedCall, error) {
	if len(outcomes) == 0 {
		return nil, &types.BuildError{Kind: types.BuildNoCandidates, Reason: types.ReasonNoCandidates}
	}

	for i := len(outcomes) - 1; i >= 0; i-- {
		est, ok := outcomes[i].(types.Estimated)
		if !ok {
			continue
		}

		last := i == len(outcomes)-1
		if !last {
			if _, nextOK := outcomes[i+1].(types.Estimated); !nextOK {
				continue
			}
		}

		gas := est.GasEstimate
		return &types.SelectedCall{Candidate: est.Candidate, GasEstimate: &gas}, nil
	}

	var lastDiagnosed *types.Diagnosed
	for i := range outcomes {
		if d, ok := outcomes[i].(types.Diagnosed); ok {
			lastDiagnosed = &d
		}
	}

	if lastDiagnosed != nil {
		return nil, &types.BuildError{
			Kind:   types.BuildDiagnosed,
			Reason: lastDiagnosed.Reason,
			Detail: lastDiagnosed.Reason,
		}
	}

	for _, o := range outcomes {
		if u, ok := o.(types.Unresolved); ok {
			return nil, &types.BuildError{
				Kind:   types.BuildUnresolved,
				Reason: types.ReasonUnableToEstimate,
				Detail: u.Cause,
			}
		}
	}

	return nil, &types.BuildError{Kind: types.BuildUnresolved, Reason: types.ReasonUnableToEstimate}
}
