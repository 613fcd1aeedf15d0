package consent

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/obgateway/consent-cms/checksum"
	"github.com/obgateway/consent-cms/config"
	"github.com/obgateway/consent-cms/events"
	"github.com/obgateway/consent-cms/model"
	"github.com/obgateway/consent-cms/security"
)

const localDateLayout = "2006-01-02"

// attempts for recomputations that lost an optimistic write race
const maxWriteAttempts = 3

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (c RealClock) Now() time.Time {
	return time.Now()
}

/**
* Lifecycle engine for consents. All status mutations go through this service,
* never through direct field assignment by calling code.
 */
type Service struct {
	repo           ConsentRepository
	authorisations AuthorisationReader
	vault          *security.ConsentDataVault
	checksums      checksum.Calculator
	emitter        *events.Emitter
	profile        config.AspspProfile
	instanceId     string
	Clock          Clock
}

func NewService(repo ConsentRepository, authorisations AuthorisationReader, vault *security.ConsentDataVault, emitter *events.Emitter, profile config.AspspProfile, instanceId string) *Service {
	service := new(Service)
	service.repo = repo
	service.authorisations = authorisations
	service.vault = vault
	service.checksums = checksum.NewCalculator()
	service.emitter = emitter
	service.profile = profile
	service.instanceId = instanceId
	service.Clock = RealClock{}
	return service
}

func (service *Service) CreateConsent(ctx context.Context, request model.CreateConsentRequest) (response model.CreateConsentResponse, cmsErr model.CmsError) {
	if request.FrequencyPerDay <= 0 {
		logger.Infof("TPP %s requested a consent without an allowed frequency per day.", request.TppInformation.AuthorisationNumber)
		return response, model.ValidationError("Consent needs an allowed frequency per day.")
	}
	if request.ValidUntil == "" {
		return response, model.ValidationError("Consent needs a valid-until date.")
	}
	if len(request.PsuData) == 0 {
		return response, model.ValidationError("Consent needs at least one psu.")
	}
	if request.TppInformation.AuthorisationNumber == "" {
		return response, model.ValidationError("Consent needs the tpp authorisation number.")
	}
	if request.MultilevelScaRequired && len(request.PsuData) < 2 {
		return response, model.ValidationError("Multilevel sca requires more than one psu.")
	}

	now := service.Clock.Now()
	consent := model.Consent{
		ConsentType:              request.ConsentType,
		Status:                   model.ConsentStatusReceived,
		RecurringIndicator:       request.RecurringIndicator,
		CombinedServiceIndicator: request.CombinedServiceIndicator,
		MultilevelScaRequired:    request.MultilevelScaRequired,
		FrequencyPerDay:          minInt(request.FrequencyPerDay, service.profile.MaxFrequencyPerDay),
		TppFrequencyPerDay:       request.FrequencyPerDay,
		CreationTimestamp:        now,
		ValidUntil:               request.ValidUntil,
		ExpireDate:               request.ValidUntil,
		LastActionDate:           now.Format(localDateLayout),
		PsuData:                  request.PsuData,
		TppInformation:           request.TppInformation,
		TppAccesses:              request.Access,
		InstanceID:               service.instanceId,
	}
	consent.Checksum = service.checksums.Compute(consent)

	created, cmsErr := service.repo.CreateConsent(ctx, consent)
	if cmsErr != (model.CmsError{}) {
		return response, cmsErr
	}

	externalId, cmsErr := service.vault.EncryptID(strconv.Itoa(created.ID))
	if cmsErr != (model.CmsError{}) {
		return response, cmsErr
	}
	created.ExternalID = externalId

	if len(request.AspspConsentData) != 0 {
		blob, cmsErr := service.vault.EncryptConsentData(externalId, request.AspspConsentData)
		if cmsErr != (model.CmsError{}) {
			return response, cmsErr
		}
		created.ConsentData = blob
	}

	created, cmsErr = service.repo.UpdateConsent(ctx, created)
	if cmsErr != (model.CmsError{}) {
		return response, cmsErr
	}

	if created.RecurringIndicator {
		service.terminateSupersededConsents(ctx, created)
	}

	service.emitter.Emit(events.ConsentCreated, events.OriginTpp, created.ExternalID, "", nil)
	return model.CreateConsentResponse{ConsentID: created.ExternalID, Status: created.Status}, cmsErr
}

/**
* Returns the consent status, lazily applying the time based transitions
* before answering.
 */
func (service *Service) GetConsentStatus(ctx context.Context, externalId string) (status model.ConsentStatus, cmsErr model.CmsError) {
	consent, cmsErr := service.GetConsent(ctx, externalId)
	if cmsErr != (model.CmsError{}) {
		return status, cmsErr
	}
	return consent.Status, cmsErr
}

func (service *Service) GetConsent(ctx context.Context, externalId string) (consent model.Consent, cmsErr model.CmsError) {
	consent, cmsErr = service.repo.GetConsent(ctx, externalId, service.instanceId)
	if cmsErr != (model.CmsError{}) {
		return consent, cmsErr
	}
	return service.applyTimeBasedTransitions(ctx, consent)
}

/**
* Recomputes the aggregate consent status from the full freshly read set of
* authorisations. Called after every authorisation status change. A lost
* write race is retried on reloaded state, the last writer always decides
* based on the complete set, never on a cached delta. An aggregate the
* current status can no longer reach, like a late failure under an already
* valid consent, leaves the consent alone.
 */
func (service *Service) RecalculateStatus(ctx context.Context, externalId string) (status model.ConsentStatus, cmsErr model.CmsError) {
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		consent, cmsErr := service.repo.GetConsent(ctx, externalId, service.instanceId)
		if cmsErr != (model.CmsError{}) {
			return status, cmsErr
		}
		if consent.Status.IsFinalised() {
			return consent.Status, model.CmsError{}
		}

		authorisations, cmsErr := service.authorisations.GetAuthorisationsByParent(ctx, externalId, service.instanceId)
		if cmsErr != (model.CmsError{}) {
			return status, cmsErr
		}

		target := service.aggregateStatus(consent, authorisations)
		if target == consent.Status || !CanTransition(consent.Status, target) {
			return consent.Status, model.CmsError{}
		}

		updated, cmsErr := service.updateStatus(ctx, consent, target, events.OriginAspsp)
		if cmsErr.Code == model.ErrorCodeConflict {
			continue
		}
		if cmsErr != (model.CmsError{}) {
			return status, cmsErr
		}
		return updated.Status, model.CmsError{}
	}
	return status, model.ConflictError("Consent status recomputation lost the write race repeatedly.")
}

/**
* The aggregation counts distinct psus with a successful authorisation, never
* authorisation rows. A retried authorisation of the same psu carries the
* consent no further.
 */
func (service *Service) aggregateStatus(consent model.Consent, authorisations []model.Authorisation) model.ConsentStatus {
	failed := 0
	successfulPsus := []model.PsuIdData{}
	for _, authorisation := range authorisations {
		if authorisation.ScaStatus == model.ScaStatusFailed {
			failed = failed + 1
		}
		if authorisation.ScaStatus.IsSuccessful() && !containsPsu(successfulPsus, authorisation.PsuData) {
			successfulPsus = append(successfulPsus, authorisation.PsuData)
		}
	}
	successful := len(successfulPsus)

	if !consent.MultilevelScaRequired {
		if failed > 0 {
			return model.ConsentStatusRejected
		}
		if successful > 0 {
			return model.ConsentStatusValid
		}
		return consent.Status
	}

	if failed > 0 && service.profile.RejectConsentOnFailedAuthorisation {
		return model.ConsentStatusRejected
	}

	required := len(consent.PsuData)
	if required == 0 {
		required = 1
	}
	if successful >= required {
		return model.ConsentStatusValid
	}
	if successful > 0 {
		return model.ConsentStatusPartiallyAuthorised
	}
	return consent.Status
}

func containsPsu(psus []model.PsuIdData, psu model.PsuIdData) bool {
	for _, candidate := range psus {
		if candidate.ContentEquals(psu) {
			return true
		}
	}
	return false
}

/**
* Actor initiated revocation. Psus revoke, tpps terminate.
 */
func (service *Service) RevokeConsent(ctx context.Context, externalId string, origin events.EventOrigin) (status model.ConsentStatus, cmsErr model.CmsError) {
	consent, cmsErr := service.repo.GetConsent(ctx, externalId, service.instanceId)
	if cmsErr != (model.CmsError{}) {
		return status, cmsErr
	}
	if consent.Status.IsFinalised() {
		return status, model.ValidationError(fmt.Sprintf("Consent is already in the final status %s.", consent.Status))
	}

	target := model.ConsentStatusRevokedByPsu
	if origin == events.OriginTpp {
		target = model.ConsentStatusTerminatedByTpp
	}

	updated, cmsErr := service.updateStatus(ctx, consent, target, origin)
	if cmsErr != (model.CmsError{}) {
		return status, cmsErr
	}
	return updated.Status, cmsErr
}

/**
* Decrypts the opaque aspsp consent data. An undecryptable blob surfaces as a
* crypto error, distinct from missing data, so the caller can decide whether
* that is fatal.
 */
func (service *Service) GetConsentData(ctx context.Context, externalId string) (data []byte, cmsErr model.CmsError) {
	consent, cmsErr := service.repo.GetConsent(ctx, externalId, service.instanceId)
	if cmsErr != (model.CmsError{}) {
		return nil, cmsErr
	}
	if consent.ConsentData.IsEmpty() {
		return nil, model.NotFoundError("Consent carries no aspsp consent data.")
	}
	return service.vault.DecryptConsentData(externalId, consent.ConsentData)
}

func (service *Service) PutConsentData(ctx context.Context, externalId string, data []byte) (cmsErr model.CmsError) {
	consent, cmsErr := service.repo.GetConsent(ctx, externalId, service.instanceId)
	if cmsErr != (model.CmsError{}) {
		return cmsErr
	}
	if consent.Status.IsFinalised() {
		return model.ValidationError(fmt.Sprintf("Consent is already in the final status %s.", consent.Status))
	}

	blob, cmsErr := service.vault.EncryptConsentData(externalId, data)
	if cmsErr != (model.CmsError{}) {
		return cmsErr
	}
	consent.ConsentData = blob
	if cmsErr := service.verifyChecksum(consent); cmsErr != (model.CmsError{}) {
		return cmsErr
	}
	_, cmsErr = service.repo.UpdateConsent(ctx, consent)
	return cmsErr
}

/**
* Books one data access against a valid consent. The counter never forces a
* status transition, access limiting itself is enforced by the access-control
* boundary. Counters reset at every local-date boundary.
 */
func (service *Service) CountUsage(ctx context.Context, externalId string, requestUri string) (remaining int, cmsErr model.CmsError) {
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		consent, cmsErr := service.GetConsent(ctx, externalId)
		if cmsErr != (model.CmsError{}) {
			return remaining, cmsErr
		}
		if consent.Status != model.ConsentStatusValid {
			return remaining, model.ValidationError(fmt.Sprintf("Data access requires a valid consent, status is %s.", consent.Status))
		}

		today := service.Clock.Now().Format(localDateLayout)
		if consent.UsageDate != today {
			consent.UsageDate = today
			consent.FrequencyPerDay = minInt(consent.TppFrequencyPerDay, service.profile.MaxFrequencyPerDay)
			consent.Usages = map[string]int{}
		}
		if consent.Usages == nil {
			consent.Usages = map[string]int{}
		}

		current, counted := consent.Usages[requestUri]
		if !counted {
			current = consent.FrequencyPerDay
		}
		if current > 0 {
			current = current - 1
		}
		consent.Usages[requestUri] = current

		if cmsErr := service.verifyChecksum(consent); cmsErr != (model.CmsError{}) {
			return remaining, cmsErr
		}
		_, cmsErr = service.repo.UpdateConsent(ctx, consent)
		if cmsErr.Code == model.ErrorCodeConflict {
			continue
		}
		if cmsErr != (model.CmsError{}) {
			return remaining, cmsErr
		}
		return current, model.CmsError{}
	}
	return remaining, model.ConflictError("Usage accounting lost the write race repeatedly.")
}

/**
* A new recurring consent supersedes older recurring consents of the same tpp
* with equal content. Equality is decided by the checksum, so it is not
* fooled by a reordered access list.
 */
func (service *Service) terminateSupersededConsents(ctx context.Context, newConsent model.Consent) {
	oldConsents, cmsErr := service.repo.GetRecurringConsentsByTpp(ctx, newConsent.TppInformation.AuthorisationNumber, service.instanceId)
	if cmsErr != (model.CmsError{}) {
		logger.Warnf("Was not able to look for superseded consents of tpp %s: %v", newConsent.TppInformation.AuthorisationNumber, cmsErr.Message)
		return
	}

	for _, oldConsent := range oldConsents {
		if oldConsent.ID == newConsent.ID {
			continue
		}
		if !service.checksums.Verify(oldConsent, newConsent.Checksum.Value) {
			continue
		}
		logger.Infof("Consent %s is superseded by the equivalent consent %s.", oldConsent.ExternalID, newConsent.ExternalID)
		if _, cmsErr := service.updateStatus(ctx, oldConsent, model.ConsentStatusTerminatedByTpp, events.OriginTpp); cmsErr != (model.CmsError{}) {
			logger.Warnf("Was not able to terminate the superseded consent %s: %v", oldConsent.ExternalID, cmsErr.Message)
		}
	}
}

/**
* Applies the lazily evaluated time based transitions: expiry once the
* expire-date passed and rejection of consents that were never confirmed
* within the authorisation expiration window.
 */
func (service *Service) applyTimeBasedTransitions(ctx context.Context, consent model.Consent) (model.Consent, model.CmsError) {
	if consent.Status.IsFinalised() {
		return consent, model.CmsError{}
	}

	now := service.Clock.Now()
	if consent.IsExpiredAt(now.Format(localDateLayout)) && CanTransition(consent.Status, model.ConsentStatusExpired) {
		return service.updateStatus(ctx, consent, model.ConsentStatusExpired, events.OriginAspsp)
	}
	if consent.Status == model.ConsentStatusReceived && now.After(consent.CreationTimestamp.Add(service.profile.AuthorisationExpiration)) {
		return service.updateStatus(ctx, consent, model.ConsentStatusRejected, events.OriginAspsp)
	}
	return consent, model.CmsError{}
}

/**
* The single place where a consent status changes. Re-applying the current
* status is a no-op and emits no event.
 */
func (service *Service) updateStatus(ctx context.Context, consent model.Consent, target model.ConsentStatus, origin events.EventOrigin) (model.Consent, model.CmsError) {
	if consent.Status == target {
		return consent, model.CmsError{}
	}
	if !CanTransition(consent.Status, target) {
		return consent, model.ValidationError(fmt.Sprintf("Consent status %s cannot change to %s.", consent.Status, target))
	}
	if cmsErr := service.verifyChecksum(consent); cmsErr != (model.CmsError{}) {
		return consent, cmsErr
	}

	previous := consent.Status
	consent.Status = target
	consent.LastActionDate = service.Clock.Now().Format(localDateLayout)

	updated, cmsErr := service.repo.UpdateConsent(ctx, consent)
	if cmsErr != (model.CmsError{}) {
		return consent, cmsErr
	}

	service.emitter.Emit(events.ConsentStatusChanged, origin, updated.ExternalID, "", map[string]string{
		"previousStatus": string(previous),
		"newStatus":      string(target),
	})
	return updated, cmsErr
}

/**
* A valid consent is only persisted when its content still matches the stored
* checksum. The checksum pins the content the psus authorised, a drifted row
* is rejected instead of silently re-saved.
 */
func (service *Service) verifyChecksum(consent model.Consent) model.CmsError {
	if consent.Status != model.ConsentStatusValid || consent.Checksum.IsEmpty() {
		return model.CmsError{}
	}
	if !service.checksums.Verify(consent, consent.Checksum.Value) {
		return model.WrongChecksumError("Consent content does not match its stored checksum.")
	}
	return model.CmsError{}
}

func minInt(left int, right int) int {
	if left < right {
		return left
	}
	return right
}
