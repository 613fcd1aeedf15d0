package authorisation

import (
	"context"
	"fmt"
	"sync"

	"github.com/mohae/deepcopy"

	"github.com/obgateway/consent-cms/model"
)

/**
* In-memory implementation of the authorisation repository. Should only be
* used for dev and testing, does not have any persistence.
 */
type InMemoryRepo struct {
	mutex          sync.Mutex
	authorisations map[string]model.Authorisation
}

func NewInmemoryRepo() *InMemoryRepo {
	repo := new(InMemoryRepo)
	repo.authorisations = map[string]model.Authorisation{}
	return repo
}

func (inMemoryRepo *InMemoryRepo) CreateAuthorisation(ctx context.Context, authorisation model.Authorisation) (created model.Authorisation, cmsErr model.CmsError) {
	inMemoryRepo.mutex.Lock()
	defer inMemoryRepo.mutex.Unlock()

	inMemoryRepo.authorisations[authorisation.ExternalID] = copyAuthorisation(authorisation)
	return copyAuthorisation(authorisation), cmsErr
}

func (inMemoryRepo *InMemoryRepo) UpdateAuthorisation(ctx context.Context, authorisation model.Authorisation) (updated model.Authorisation, cmsErr model.CmsError) {
	inMemoryRepo.mutex.Lock()
	defer inMemoryRepo.mutex.Unlock()

	current, ok := inMemoryRepo.authorisations[authorisation.ExternalID]
	if !ok {
		return updated, model.NotFoundError(fmt.Sprintf("Authorisation %s not found.", authorisation.ExternalID))
	}
	if current.Version != authorisation.Version {
		logger.Infof("Authorisation %s was modified concurrently, update is rejected.", authorisation.ExternalID)
		return updated, model.ConflictError("Authorisation was modified concurrently, reload and retry.")
	}

	authorisation.Version = authorisation.Version + 1
	inMemoryRepo.authorisations[authorisation.ExternalID] = copyAuthorisation(authorisation)
	return copyAuthorisation(authorisation), cmsErr
}

func (inMemoryRepo *InMemoryRepo) GetAuthorisation(ctx context.Context, externalId string, instanceId string) (authorisation model.Authorisation, cmsErr model.CmsError) {
	inMemoryRepo.mutex.Lock()
	defer inMemoryRepo.mutex.Unlock()

	stored, ok := inMemoryRepo.authorisations[externalId]
	if !ok || stored.InstanceID != instanceId {
		return authorisation, model.NotFoundError(fmt.Sprintf("No authorisation with id %s exists.", externalId))
	}
	return copyAuthorisation(stored), cmsErr
}

func (inMemoryRepo *InMemoryRepo) GetAuthorisationsByParent(ctx context.Context, parentId string, instanceId string) (authorisations []model.Authorisation, cmsErr model.CmsError) {
	inMemoryRepo.mutex.Lock()
	defer inMemoryRepo.mutex.Unlock()

	authorisations = []model.Authorisation{}
	for _, stored := range inMemoryRepo.authorisations {
		if stored.ParentID == parentId && stored.InstanceID == instanceId {
			authorisations = append(authorisations, copyAuthorisation(stored))
		}
	}
	return authorisations, cmsErr
}

func (inMemoryRepo *InMemoryRepo) GetAuthorisationByRequestID(ctx context.Context, parentId string, internalRequestId string, instanceId string) (authorisation model.Authorisation, cmsErr model.CmsError) {
	inMemoryRepo.mutex.Lock()
	defer inMemoryRepo.mutex.Unlock()

	for _, stored := range inMemoryRepo.authorisations {
		if stored.ParentID == parentId && stored.InternalRequestID == internalRequestId && stored.InstanceID == instanceId {
			return copyAuthorisation(stored), cmsErr
		}
	}
	return authorisation, model.NotFoundError(fmt.Sprintf("No authorisation for request id %s exists.", internalRequestId))
}

func copyAuthorisation(authorisation model.Authorisation) model.Authorisation {
	return deepcopy.Copy(authorisation).(model.Authorisation)
}
