package authorisation

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/obgateway/consent-cms/config"
	"github.com/obgateway/consent-cms/events"
	"github.com/obgateway/consent-cms/model"
)

/**
* Lifecycle engine for sca authorisations. Owns the sca status ladder and
* reports every finalising change back to the consent lifecycle.
 */
type Service struct {
	repo       AuthorisationRepository
	consents   ConsentStatusRecalculator
	resolver   *ApproachResolver
	emitter    *events.Emitter
	profile    config.AspspProfile
	instanceId string
	Clock      Clock
}

func NewService(repo AuthorisationRepository, consents ConsentStatusRecalculator, resolver *ApproachResolver, emitter *events.Emitter, profile config.AspspProfile, instanceId string) *Service {
	service := new(Service)
	service.repo = repo
	service.consents = consents
	service.resolver = resolver
	service.emitter = emitter
	service.profile = profile
	service.instanceId = instanceId
	service.Clock = RealClock{}
	return service
}

/**
* Starts a new authorisation under the given consent. Retried calls with the
* same internal request id return the already created authorisation instead
* of opening a second one.
 */
func (service *Service) CreateAuthorisation(ctx context.Context, consentId string, request model.CreateAuthorisationRequest) (created model.Authorisation, cmsErr model.CmsError) {
	consent, cmsErr := service.consents.GetConsent(ctx, consentId)
	if cmsErr != (model.CmsError{}) {
		return created, cmsErr
	}
	if consent.Status.IsFinalised() {
		return created, model.ValidationError(fmt.Sprintf("Consent is already in the final status %s, no authorisation can be started.", consent.Status))
	}
	if !request.PsuData.IsEmpty() && !isConsentPsu(consent, request.PsuData) {
		return created, model.ValidationError("Psu is not associated with the consent.")
	}

	if request.InternalRequestID != "" {
		existing, cmsErr := service.repo.GetAuthorisationByRequestID(ctx, consentId, request.InternalRequestID, service.instanceId)
		if cmsErr == (model.CmsError{}) {
			logger.Debugf("Authorisation %s is replayed for request id %s.", existing.ExternalID, request.InternalRequestID)
			return existing, cmsErr
		}
		if cmsErr.Code != model.ErrorCodeNotFound {
			return created, cmsErr
		}
	}

	now := service.Clock.Now()
	authorisation := model.Authorisation{
		ExternalID:            uuid.NewString(),
		ParentID:              consentId,
		PsuData:               request.PsuData,
		ScaStatus:             model.ScaStatusReceived,
		Approach:              service.resolver.Resolve(request),
		RedirectURLExpiration: now.Add(service.profile.RedirectURLExpiration),
		Expiration:            now.Add(service.profile.AuthorisationExpiration),
		InternalRequestID:     request.InternalRequestID,
		InstanceID:            service.instanceId,
	}

	created, cmsErr = service.repo.CreateAuthorisation(ctx, authorisation)
	if cmsErr != (model.CmsError{}) {
		return created, cmsErr
	}

	service.emitter.Emit(events.AuthorisationCreated, events.OriginTpp, consentId, created.ExternalID, nil)
	return created, cmsErr
}

/**
* Returns the full authorisation including the challenge artifact, lazily
* failing authorisations whose redirect link or overall lifetime ran out.
 */
func (service *Service) GetAuthorisation(ctx context.Context, externalId string) (authorisation model.Authorisation, cmsErr model.CmsError) {
	authorisation, cmsErr = service.repo.GetAuthorisation(ctx, externalId, service.instanceId)
	if cmsErr != (model.CmsError{}) {
		return authorisation, cmsErr
	}
	return service.applyTimeBasedTransitions(ctx, authorisation)
}

func (service *Service) GetScaStatus(ctx context.Context, externalId string) (status model.ScaStatus, cmsErr model.CmsError) {
	authorisation, cmsErr := service.GetAuthorisation(ctx, externalId)
	if cmsErr != (model.CmsError{}) {
		return status, cmsErr
	}
	return authorisation.ScaStatus, cmsErr
}

/**
* Lists the authorisations of a consent in their redacted form. The challenge
* artifact never appears here.
 */
func (service *Service) ListAuthorisations(ctx context.Context, consentId string) (views []model.AuthorisationView, cmsErr model.CmsError) {
	if _, cmsErr := service.consents.GetConsent(ctx, consentId); cmsErr != (model.CmsError{}) {
		return views, cmsErr
	}

	authorisations, cmsErr := service.repo.GetAuthorisationsByParent(ctx, consentId, service.instanceId)
	if cmsErr != (model.CmsError{}) {
		return views, cmsErr
	}

	views = []model.AuthorisationView{}
	for _, authorisation := range authorisations {
		authorisation, cmsErr = service.applyTimeBasedTransitions(ctx, authorisation)
		if cmsErr != (model.CmsError{}) {
			return views, cmsErr
		}
		views = append(views, authorisation.View())
	}
	return views, cmsErr
}

/**
* The central update of the sca flow. The expiry of the authorisation is
* evaluated before the requested transition, an expired authorisation fails
* and the update is rejected. Out-of-order transitions are rejected without
* touching the stored state.
 */
func (service *Service) UpdatePsuData(ctx context.Context, externalId string, request model.UpdatePsuDataRequest) (response model.UpdatePsuDataResponse, cmsErr model.CmsError) {
	authorisation, cmsErr := service.repo.GetAuthorisation(ctx, externalId, service.instanceId)
	if cmsErr != (model.CmsError{}) {
		return response, cmsErr
	}

	beforeExpiry := authorisation.ScaStatus
	authorisation, cmsErr = service.applyTimeBasedTransitions(ctx, authorisation)
	if cmsErr != (model.CmsError{}) {
		return response, cmsErr
	}
	if authorisation.ScaStatus.IsFinalised() {
		if authorisation.ScaStatus != beforeExpiry {
			return response, model.ExpiredError("Authorisation is expired and cannot be updated anymore.")
		}
		return response, model.ValidationError(fmt.Sprintf("Authorisation is already in the final status %s.", authorisation.ScaStatus))
	}

	if !authorisation.PsuData.IsEmpty() && !request.PsuData.IsEmpty() && !authorisation.PsuData.ContentEquals(request.PsuData) {
		return response, model.ValidationError("Psu data does not match the psu of the authorisation.")
	}
	if !CanTransition(authorisation.ScaStatus, request.ScaStatus) {
		return response, model.ValidationError(fmt.Sprintf("Sca status %s cannot change to %s.", authorisation.ScaStatus, request.ScaStatus))
	}

	previous := authorisation.ScaStatus
	authorisation.ScaStatus = request.ScaStatus
	if !request.PsuData.IsEmpty() {
		authorisation.PsuData = request.PsuData
	}
	if request.ScaMethodID != "" {
		authorisation.ScaMethodID = request.ScaMethodID
	}
	if request.ScaStatus == model.ScaStatusScaMethodSelected {
		authorisation.Challenge = service.newChallenge()
	}

	updated, cmsErr := service.repo.UpdateAuthorisation(ctx, authorisation)
	if cmsErr != (model.CmsError{}) {
		return response, cmsErr
	}

	service.emitter.Emit(events.AuthorisationStatusChanged, events.OriginPsu, updated.ParentID, updated.ExternalID, map[string]string{
		"previousStatus": string(previous),
		"newStatus":      string(updated.ScaStatus),
	})

	consentStatus, cmsErr := service.consents.RecalculateStatus(ctx, updated.ParentID)
	if cmsErr != (model.CmsError{}) {
		return response, cmsErr
	}

	response = model.UpdatePsuDataResponse{
		AuthorisationID: updated.ExternalID,
		ScaStatus:       updated.ScaStatus,
		Approach:        updated.Approach,
		ConsentStatus:   consentStatus,
	}
	if updated.ScaStatus == model.ScaStatusScaMethodSelected {
		response.Challenge = updated.Challenge
	}
	return response, cmsErr
}

/**
* Fails authorisations whose redirect link or overall lifetime ran out. The
* transition is persisted so a later read sees a stable status.
 */
func (service *Service) applyTimeBasedTransitions(ctx context.Context, authorisation model.Authorisation) (model.Authorisation, model.CmsError) {
	if authorisation.ScaStatus.IsFinalised() {
		return authorisation, model.CmsError{}
	}

	now := service.Clock.Now()
	expired := now.After(authorisation.Expiration)
	if !expired && (authorisation.Approach == model.ScaApproachRedirect || authorisation.Approach == model.ScaApproachOauth) {
		expired = now.After(authorisation.RedirectURLExpiration)
	}
	if !expired {
		return authorisation, model.CmsError{}
	}

	previous := authorisation.ScaStatus
	authorisation.ScaStatus = model.ScaStatusFailed
	updated, cmsErr := service.repo.UpdateAuthorisation(ctx, authorisation)
	if cmsErr != (model.CmsError{}) {
		return authorisation, cmsErr
	}

	service.emitter.Emit(events.AuthorisationStatusChanged, events.OriginAspsp, updated.ParentID, updated.ExternalID, map[string]string{
		"previousStatus": string(previous),
		"newStatus":      string(model.ScaStatusFailed),
	})

	if _, cmsErr := service.consents.RecalculateStatus(ctx, updated.ParentID); cmsErr != (model.CmsError{}) {
		return updated, cmsErr
	}
	return updated, model.CmsError{}
}

/**
* An authorisation can only be opened by a psu the consent was granted by.
* Consents without an own psu list accept any psu.
 */
func isConsentPsu(consent model.Consent, psu model.PsuIdData) bool {
	if len(consent.PsuData) == 0 {
		return true
	}
	for _, candidate := range consent.PsuData {
		if candidate.ContentEquals(psu) {
			return true
		}
	}
	return false
}

func (service *Service) newChallenge() *model.ChallengeData {
	return &model.ChallengeData{
		OtpMaxLength:          6,
		OtpFormat:             "integer",
		AdditionalInformation: "Please enter the otp sent to your registered device.",
	}
}
