package consent

import (
	"context"
	"fmt"

	"github.com/go-rel/rel"
	"github.com/go-rel/rel/where"
	pkgErrors "github.com/pkg/errors"

	"github.com/obgateway/consent-cms/model"
	dbModel "github.com/obgateway/consent-cms/sql"
)

type SqlRepo struct {
	repo rel.Repository
}

func NewSqlRepository(repository rel.Repository) *SqlRepo {
	sqlRepo := new(SqlRepo)
	sqlRepo.repo = repository
	return sqlRepo
}

func (sqlRepo *SqlRepo) CreateConsent(ctx context.Context, consent model.Consent) (created model.Consent, cmsErr model.CmsError) {
	sqlConsent := toSqlConsent(consent)
	childAccesses := sqlConsent.Accesses
	childUsages := sqlConsent.Usages
	sqlConsent.Accesses = nil
	sqlConsent.Usages = nil

	err := sqlRepo.repo.Transaction(ctx, func(ctx context.Context) error {
		if err := sqlRepo.repo.Insert(ctx, &sqlConsent); err != nil {
			return pkgErrors.Wrap(err, "insert consent")
		}
		return sqlRepo.insertChildren(ctx, sqlConsent.ID, childAccesses, childUsages)
	})
	if err != nil {
		return created, model.InternalError("Was not able to store the consent.", err)
	}

	return sqlRepo.loadConsent(ctx, sqlConsent)
}

/**
* Optimistic write: the row is reloaded inside the transaction and the update
* is rejected when somebody else incremented the consent version in between.
 */
func (sqlRepo *SqlRepo) UpdateConsent(ctx context.Context, consent model.Consent) (updated model.Consent, cmsErr model.CmsError) {
	sqlConsent := toSqlConsent(consent)
	childAccesses := sqlConsent.Accesses
	childUsages := sqlConsent.Usages
	sqlConsent.Accesses = nil
	sqlConsent.Usages = nil

	conflict := false
	err := sqlRepo.repo.Transaction(ctx, func(ctx context.Context) error {
		var current dbModel.Consent
		if err := sqlRepo.repo.Find(ctx, &current, where.Eq("id", sqlConsent.ID)); err != nil {
			return pkgErrors.Wrap(err, "load consent for update")
		}
		if current.ConsentVersion != sqlConsent.ConsentVersion {
			conflict = true
			return pkgErrors.New("stale consent version")
		}
		sqlConsent.ConsentVersion = sqlConsent.ConsentVersion + 1

		if err := sqlRepo.repo.Update(ctx, &sqlConsent); err != nil {
			return pkgErrors.Wrap(err, "update consent")
		}
		if _, err := sqlRepo.repo.DeleteAny(ctx, rel.From("accesses").Where(where.Eq("consent", sqlConsent.ID))); err != nil {
			return pkgErrors.Wrap(err, "replace accesses")
		}
		if _, err := sqlRepo.repo.DeleteAny(ctx, rel.From("usages").Where(where.Eq("consent", sqlConsent.ID))); err != nil {
			return pkgErrors.Wrap(err, "replace usages")
		}
		return sqlRepo.insertChildren(ctx, sqlConsent.ID, childAccesses, childUsages)
	})
	if conflict {
		logger.Infof("Consent %s was modified concurrently, update is rejected.", consent.ExternalID)
		return updated, model.ConflictError("Consent was modified concurrently, reload and retry.")
	}
	if err != nil {
		return updated, model.InternalError("Was not able to update the consent.", err)
	}

	return sqlRepo.loadConsent(ctx, sqlConsent)
}

func (sqlRepo *SqlRepo) GetConsent(ctx context.Context, externalId string, instanceId string) (consent model.Consent, cmsErr model.CmsError) {
	var sqlConsent dbModel.Consent
	err := sqlRepo.repo.Find(ctx, &sqlConsent, where.Eq("external_id", externalId).AndEq("instance_id", instanceId))
	if err != nil {
		return consent, model.NotFoundError(fmt.Sprintf("Consent %s not found.", externalId))
	}
	return sqlRepo.loadConsent(ctx, sqlConsent)
}

func (sqlRepo *SqlRepo) GetConsentsByStatus(ctx context.Context, statuses []model.ConsentStatus, instanceId string) (consents []model.Consent, cmsErr model.CmsError) {
	statusValues := []interface{}{}
	for _, status := range statuses {
		statusValues = append(statusValues, string(status))
	}

	var sqlConsents []dbModel.Consent
	err := sqlRepo.repo.FindAll(ctx, &sqlConsents, where.In("status", statusValues...).AndEq("instance_id", instanceId))
	if err != nil {
		return consents, model.InternalError("Was not able to query for consents.", err)
	}

	for _, sqlConsent := range sqlConsents {
		consent, cmsErr := sqlRepo.loadConsent(ctx, sqlConsent)
		if cmsErr != (model.CmsError{}) {
			return consents, cmsErr
		}
		consents = append(consents, consent)
	}
	return consents, cmsErr
}

func (sqlRepo *SqlRepo) GetRecurringConsentsByTpp(ctx context.Context, authorisationNumber string, instanceId string) (consents []model.Consent, cmsErr model.CmsError) {
	nonTerminal := []model.ConsentStatus{model.ConsentStatusReceived, model.ConsentStatusPartiallyAuthorised, model.ConsentStatusValid}
	candidates, cmsErr := sqlRepo.GetConsentsByStatus(ctx, nonTerminal, instanceId)
	if cmsErr != (model.CmsError{}) {
		return consents, cmsErr
	}
	for _, candidate := range candidates {
		if candidate.RecurringIndicator && candidate.TppInformation.AuthorisationNumber == authorisationNumber {
			consents = append(consents, candidate)
		}
	}
	return consents, cmsErr
}

/**
* Loads the child rows and maps the full entity. The aggregate status logic
* depends on the consent always being fully materialized.
 */
func (sqlRepo *SqlRepo) loadConsent(ctx context.Context, sqlConsent dbModel.Consent) (consent model.Consent, cmsErr model.CmsError) {
	sqlConsent.Accesses = []dbModel.Access{}
	if err := sqlRepo.repo.FindAll(ctx, &sqlConsent.Accesses, where.Eq("consent", sqlConsent.ID)); err != nil {
		return consent, model.InternalError("Was not able to load the consent accesses.", err)
	}
	sqlConsent.Usages = []dbModel.Usage{}
	if err := sqlRepo.repo.FindAll(ctx, &sqlConsent.Usages, where.Eq("consent", sqlConsent.ID)); err != nil {
		return consent, model.InternalError("Was not able to load the consent usage counters.", err)
	}
	return fromSqlConsent(sqlConsent), cmsErr
}

func (sqlRepo *SqlRepo) insertChildren(ctx context.Context, consentId int, accesses []dbModel.Access, usages []dbModel.Usage) error {
	for _, access := range accesses {
		access.Consent = consentId
		if err := sqlRepo.repo.Insert(ctx, &access); err != nil {
			return pkgErrors.Wrap(err, "insert access")
		}
	}
	for _, usage := range usages {
		usage.Consent = consentId
		if err := sqlRepo.repo.Insert(ctx, &usage); err != nil {
			return pkgErrors.Wrap(err, "insert usage")
		}
	}
	return nil
}
