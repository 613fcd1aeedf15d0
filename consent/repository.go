package consent

import (
	"context"

	"github.com/obgateway/consent-cms/logging"
	"github.com/obgateway/consent-cms/model"
)

var logger = logging.Log()

/**
* Persistence boundary for consents. All lookups are scoped by instance id,
* writes are optimistic: an update with a stale consent version is rejected
* with a conflict error and has to be retried on freshly loaded state.
 */
type ConsentRepository interface {
	CreateConsent(ctx context.Context, consent model.Consent) (model.Consent, model.CmsError)
	UpdateConsent(ctx context.Context, consent model.Consent) (model.Consent, model.CmsError)
	GetConsent(ctx context.Context, externalId string, instanceId string) (model.Consent, model.CmsError)
	// all consents in one of the given statuses, used by the expiry sweep
	GetConsentsByStatus(ctx context.Context, statuses []model.ConsentStatus, instanceId string) ([]model.Consent, model.CmsError)
	// non-terminal recurring consents of one tpp, used to supersede old consents
	GetRecurringConsentsByTpp(ctx context.Context, authorisationNumber string, instanceId string) ([]model.Consent, model.CmsError)
}

/**
* Read access to the authorisations of a consent. Implemented by the
* authorisation repository, consumed here so that aggregate status is always
* recomputed from the full freshly read set.
 */
type AuthorisationReader interface {
	GetAuthorisationsByParent(ctx context.Context, parentExternalId string, instanceId string) ([]model.Authorisation, model.CmsError)
}
