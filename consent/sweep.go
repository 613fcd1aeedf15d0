package consent

import (
	"context"

	"github.com/obgateway/consent-cms/model"
)

var sweptStatuses = []model.ConsentStatus{
	model.ConsentStatusReceived,
	model.ConsentStatusValid,
	model.ConsentStatusPartiallyAuthorised,
}

/**
* Background counterpart of the lazy read-path transitions. Walks the
* non-final consents and applies expiry, so consents that nobody reads still
* end up in their correct final status. Running the sweep twice in a row is a
* no-op, a consent expires exactly once.
 */
func (service *Service) SweepExpiredConsents(ctx context.Context) {
	consents, cmsErr := service.repo.GetConsentsByStatus(ctx, sweptStatuses, service.instanceId)
	if cmsErr != (model.CmsError{}) {
		logger.Warnf("Was not able to load the consents to sweep: %v", cmsErr.Message)
		return
	}

	swept := 0
	for _, consent := range consents {
		updated, cmsErr := service.applyTimeBasedTransitions(ctx, consent)
		if cmsErr != (model.CmsError{}) {
			logger.Warnf("Was not able to sweep consent %s: %v", consent.ExternalID, cmsErr.Message)
			continue
		}
		if updated.Status != consent.Status {
			swept = swept + 1
		}
	}
	if swept > 0 {
		logger.Infof("Expiry sweep moved %d consents to a final status.", swept)
	}
}
