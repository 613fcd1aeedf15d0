package authorisation

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

func (sqlRepo *SqlRepo) CreateAuthorisation(ctx context.Context, authorisation model.Authorisation) (created model.Authorisation, cmsErr model.CmsError) {
	sqlAuthorisation := toSqlAuthorisation(authorisation)
	if err := sqlRepo.repo.Insert(ctx, &sqlAuthorisation); err != nil {
		return created, model.InternalError("Was not able to store the authorisation.", pkgErrors.Wrap(err, "insert authorisation"))
	}
	return fromSqlAuthorisation(sqlAuthorisation), cmsErr
}

/**
* Optimistic write, same pattern as for consents. The row is reloaded inside
* the transaction and the update is rejected on a version mismatch.
 */
func (sqlRepo *SqlRepo) UpdateAuthorisation(ctx context.Context, authorisation model.Authorisation) (updated model.Authorisation, cmsErr model.CmsError) {
	sqlAuthorisation := toSqlAuthorisation(authorisation)

	conflict := false
	err := sqlRepo.repo.Transaction(ctx, func(ctx context.Context) error {
		var current dbModel.Authorisation
		if err := sqlRepo.repo.Find(ctx, &current, where.Eq("external_id", sqlAuthorisation.ExternalID).AndEq("instance_id", sqlAuthorisation.InstanceID)); err != nil {
			return pkgErrors.Wrap(err, "load authorisation for update")
		}
		if current.Version != sqlAuthorisation.Version {
			conflict = true
			return fmt.Errorf("version %d is stale, stored is %d", sqlAuthorisation.Version, current.Version)
		}

		sqlAuthorisation.ID = current.ID
		sqlAuthorisation.Version = sqlAuthorisation.Version + 1
		if err := sqlRepo.repo.Update(ctx, &sqlAuthorisation); err != nil {
			return pkgErrors.Wrap(err, "update authorisation")
		}
		return nil
	})
	if conflict {
		return updated, model.ConflictError("Authorisation was changed concurrently.")
	}
	if err != nil {
		return updated, model.InternalError("Was not able to update the authorisation.", err)
	}
	return fromSqlAuthorisation(sqlAuthorisation), cmsErr
}

func (sqlRepo *SqlRepo) GetAuthorisation(ctx context.Context, externalId string, instanceId string) (authorisation model.Authorisation, cmsErr model.CmsError) {
	var sqlAuthorisation dbModel.Authorisation
	if err := sqlRepo.repo.Find(ctx, &sqlAuthorisation, where.Eq("external_id", externalId).AndEq("instance_id", instanceId)); err != nil {
		return authorisation, model.NotFoundError(fmt.Sprintf("No authorisation with id %s exists.", externalId))
	}
	return fromSqlAuthorisation(sqlAuthorisation), cmsErr
}

func (sqlRepo *SqlRepo) GetAuthorisationsByParent(ctx context.Context, parentId string, instanceId string) (authorisations []model.Authorisation, cmsErr model.CmsError) {
	var sqlAuthorisations []dbModel.Authorisation
	if err := sqlRepo.repo.FindAll(ctx, &sqlAuthorisations, where.Eq("parent_external_id", parentId).AndEq("instance_id", instanceId)); err != nil {
		return authorisations, model.InternalError("Was not able to load the authorisations.", pkgErrors.Wrap(err, "load authorisations by parent"))
	}
	authorisations = []model.Authorisation{}
	for _, sqlAuthorisation := range sqlAuthorisations {
		authorisations = append(authorisations, fromSqlAuthorisation(sqlAuthorisation))
	}
	return authorisations, cmsErr
}

func (sqlRepo *SqlRepo) GetAuthorisationByRequestID(ctx context.Context, parentId string, internalRequestId string, instanceId string) (authorisation model.Authorisation, cmsErr model.CmsError) {
	var sqlAuthorisation dbModel.Authorisation
	if err := sqlRepo.repo.Find(ctx, &sqlAuthorisation, where.Eq("parent_external_id", parentId).AndEq("internal_request_id", internalRequestId).AndEq("instance_id", instanceId)); err != nil {
		return authorisation, model.NotFoundError(fmt.Sprintf("No authorisation for request id %s exists.", internalRequestId))
	}
	return fromSqlAuthorisation(sqlAuthorisation), cmsErr
}
