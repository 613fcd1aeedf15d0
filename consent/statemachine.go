package consent

import "github.com/obgateway/consent-cms/model"

/**
* Allowed consent status transitions. Everything not listed here is rejected,
* terminal statuses have no entry at all.
 */
var allowedTransitions = map[model.ConsentStatus][]model.ConsentStatus{
	model.ConsentStatusReceived: {
		model.ConsentStatusValid,
		model.ConsentStatusPartiallyAuthorised,
		model.ConsentStatusRejected,
		model.ConsentStatusRevokedByPsu,
		model.ConsentStatusTerminatedByTpp,
	},
	model.ConsentStatusPartiallyAuthorised: {
		model.ConsentStatusValid,
		model.ConsentStatusRejected,
		model.ConsentStatusExpired,
		model.ConsentStatusRevokedByPsu,
		model.ConsentStatusTerminatedByTpp,
	},
	model.ConsentStatusValid: {
		model.ConsentStatusExpired,
		model.ConsentStatusRevokedByPsu,
		model.ConsentStatusTerminatedByTpp,
	},
}

func CanTransition(from model.ConsentStatus, to model.ConsentStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
