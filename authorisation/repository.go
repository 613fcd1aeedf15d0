package authorisation

import (
	"context"

	"github.com/obgateway/consent-cms/logging"
	"github.com/obgateway/consent-cms/model"
)

var logger = logging.Log()

type AuthorisationRepository interface {
	CreateAuthorisation(ctx context.Context, authorisation model.Authorisation) (model.Authorisation, model.CmsError)
	UpdateAuthorisation(ctx context.Context, authorisation model.Authorisation) (model.Authorisation, model.CmsError)
	GetAuthorisation(ctx context.Context, externalId string, instanceId string) (model.Authorisation, model.CmsError)
	GetAuthorisationsByParent(ctx context.Context, parentId string, instanceId string) ([]model.Authorisation, model.CmsError)
	GetAuthorisationByRequestID(ctx context.Context, parentId string, internalRequestId string, instanceId string) (model.Authorisation, model.CmsError)
}

/**
* Callback into the consent lifecycle, implemented by the consent service.
* Every finalising authorisation change triggers a recomputation of the
* owning consent from the full authorisation set.
 */
type ConsentStatusRecalculator interface {
	RecalculateStatus(ctx context.Context, consentId string) (model.ConsentStatus, model.CmsError)
	GetConsent(ctx context.Context, consentId string) (model.Consent, model.CmsError)
}
