package authorisation

import "github.com/obgateway/consent-cms/model"

/**
* Allowed sca status transitions. The ladder moves strictly forward, one
* psu interaction at a time, only the STARTED step is optional. FAILED is
* reachable from every non-final status. EXEMPTED and the direct redirect
* finalisation are only possible before any psu interaction happened.
 */
var allowedTransitions = map[model.ScaStatus][]model.ScaStatus{
	model.ScaStatusReceived: {
		model.ScaStatusPsuIdentified,
		model.ScaStatusExempted,
		model.ScaStatusFinalised,
	},
	model.ScaStatusPsuIdentified: {
		model.ScaStatusPsuAuthenticated,
	},
	model.ScaStatusPsuAuthenticated: {
		model.ScaStatusScaMethodSelected,
	},
	model.ScaStatusScaMethodSelected: {
		model.ScaStatusStarted,
		model.ScaStatusFinalised,
	},
	model.ScaStatusStarted: {
		model.ScaStatusFinalised,
	},
}

func CanTransition(from model.ScaStatus, to model.ScaStatus) bool {
	if from.IsFinalised() {
		return false
	}
	if to == model.ScaStatusFailed {
		return true
	}
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
