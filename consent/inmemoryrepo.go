package consent

import (
	"context"
	"fmt"
	"sync"

	"github.com/mohae/deepcopy"

	"github.com/obgateway/consent-cms/model"
)

/**
* In-memory implementation of the consent repository. Should only be used for
* dev and testing, does not have any persistence. Copies everything in and
* out, so callers never share state with the store.
 */
type InMemoryRepo struct {
	mutex    sync.Mutex
	nextId   int
	consents map[int]model.Consent
}

func NewInmemoryRepo() *InMemoryRepo {
	repo := new(InMemoryRepo)
	repo.nextId = 1
	repo.consents = map[int]model.Consent{}
	return repo
}

func (inMemoryRepo *InMemoryRepo) CreateConsent(ctx context.Context, consent model.Consent) (created model.Consent, cmsErr model.CmsError) {
	inMemoryRepo.mutex.Lock()
	defer inMemoryRepo.mutex.Unlock()

	consent.ID = inMemoryRepo.nextId
	inMemoryRepo.nextId = inMemoryRepo.nextId + 1
	inMemoryRepo.consents[consent.ID] = copyConsent(consent)
	return copyConsent(consent), cmsErr
}

func (inMemoryRepo *InMemoryRepo) UpdateConsent(ctx context.Context, consent model.Consent) (updated model.Consent, cmsErr model.CmsError) {
	inMemoryRepo.mutex.Lock()
	defer inMemoryRepo.mutex.Unlock()

	current, ok := inMemoryRepo.consents[consent.ID]
	if !ok {
		return updated, model.NotFoundError(fmt.Sprintf("Consent %s not found.", consent.ExternalID))
	}
	if current.ConsentVersion != consent.ConsentVersion {
		logger.Infof("Consent %s was modified concurrently, update is rejected.", consent.ExternalID)
		return updated, model.ConflictError("Consent was modified concurrently, reload and retry.")
	}

	consent.ConsentVersion = consent.ConsentVersion + 1
	inMemoryRepo.consents[consent.ID] = copyConsent(consent)
	return copyConsent(consent), cmsErr
}

func (inMemoryRepo *InMemoryRepo) GetConsent(ctx context.Context, externalId string, instanceId string) (consent model.Consent, cmsErr model.CmsError) {
	inMemoryRepo.mutex.Lock()
	defer inMemoryRepo.mutex.Unlock()

	for _, candidate := range inMemoryRepo.consents {
		if candidate.ExternalID == externalId && candidate.InstanceID == instanceId {
			return copyConsent(candidate), cmsErr
		}
	}
	return consent, model.NotFoundError(fmt.Sprintf("Consent %s not found.", externalId))
}

func (inMemoryRepo *InMemoryRepo) GetConsentsByStatus(ctx context.Context, statuses []model.ConsentStatus, instanceId string) (consents []model.Consent, cmsErr model.CmsError) {
	inMemoryRepo.mutex.Lock()
	defer inMemoryRepo.mutex.Unlock()

	for _, candidate := range inMemoryRepo.consents {
		if candidate.InstanceID != instanceId {
			continue
		}
		for _, status := range statuses {
			if candidate.Status == status {
				consents = append(consents, copyConsent(candidate))
				break
			}
		}
	}
	return consents, cmsErr
}

func (inMemoryRepo *InMemoryRepo) GetRecurringConsentsByTpp(ctx context.Context, authorisationNumber string, instanceId string) (consents []model.Consent, cmsErr model.CmsError) {
	inMemoryRepo.mutex.Lock()
	defer inMemoryRepo.mutex.Unlock()

	for _, candidate := range inMemoryRepo.consents {
		if candidate.InstanceID != instanceId || !candidate.RecurringIndicator || candidate.Status.IsFinalised() {
			continue
		}
		if candidate.TppInformation.AuthorisationNumber == authorisationNumber {
			consents = append(consents, copyConsent(candidate))
		}
	}
	return consents, cmsErr
}

func copyConsent(consent model.Consent) model.Consent {
	return deepcopy.Copy(consent).(model.Consent)
}
