package consent

import (
	"context"
	"testing"

	pkgErrors "github.com/pkg/errors"

	"github.com/go-rel/rel/where"
	"github.com/go-rel/reltest"
	"github.com/google/go-cmp/cmp"

	"github.com/obgateway/consent-cms/model"
	dbModel "github.com/obgateway/consent-cms/sql"
)

func getSqlMock() (dbMock *reltest.Repository, sqlRepo *SqlRepo) {
	dbMock = reltest.New()
	sqlRepo = NewSqlRepository(dbMock)
	return
}

func getDbConsent(id int, externalId string, version int) dbModel.Consent {
	return dbModel.Consent{
		ID:                 id,
		ExternalID:         externalId,
		ConsentType:        "AIS",
		Status:             "RECEIVED",
		RecurringIndicator: true,
		TppFrequencyPerDay: 4,
		FrequencyPerDay:    4,
		ValidUntil:         "2026-12-31",
		ExpireDate:         "2026-12-31",
		PsuData:            `[{"psuId":"psu-1"}]`,
		TppInformation:     `{"authorisationNumber":"PSDDE-BAFIN-123456"}`,
		InstanceID:         "my-instance",
		ConsentVersion:     version,
	}
}

func TestGetConsentSql(t *testing.T) {
	dbMock, sqlRepo := getSqlMock()

	dbConsent := getDbConsent(42, "external-42", 0)
	dbMock.ExpectFind(where.Eq("external_id", "external-42").AndEq("instance_id", "my-instance")).Result(dbConsent)
	dbMock.ExpectFindAll(where.Eq("consent", 42)).Result([]dbModel.Access{
		{ID: 1, Source: "TPP", TypeAccess: "accounts", ResourceID: "res-1", Currency: "EUR", Consent: 42},
	})
	dbMock.ExpectFindAll(where.Eq("consent", 42)).Result([]dbModel.Usage{
		{ID: 1, RequestURI: "/v1/accounts", Remaining: 3, Consent: 42},
	})

	consent, cmsErr := sqlRepo.GetConsent(context.Background(), "external-42", "my-instance")
	if cmsErr != (model.CmsError{}) {
		t.Fatalf("The consent should have been loaded, but got %v.", cmsErr)
	}
	if consent.ID != 42 || consent.Status != model.ConsentStatusReceived {
		t.Errorf("The consent was not mapped as expected: %v.", consent)
	}
	if len(consent.PsuData) != 1 || consent.PsuData[0].PsuID != "psu-1" {
		t.Errorf("The psu data was not mapped as expected: %v.", consent.PsuData)
	}
	if consent.TppInformation.AuthorisationNumber != "PSDDE-BAFIN-123456" {
		t.Errorf("The tpp information was not mapped as expected: %v.", consent.TppInformation)
	}
	expectedAccesses := []model.AccountReference{{TypeAccess: "accounts", ResourceID: "res-1", Currency: "EUR"}}
	if diff := cmp.Diff(expectedAccesses, consent.TppAccesses); diff != "" {
		t.Errorf("The accesses were not mapped as expected: %s.", diff)
	}
	if consent.Usages["/v1/accounts"] != 3 {
		t.Errorf("The usage counters were not mapped as expected: %v.", consent.Usages)
	}
}

func TestGetConsentSqlNotFound(t *testing.T) {
	dbMock, sqlRepo := getSqlMock()

	dbMock.ExpectFind(where.Eq("external_id", "no-such-consent").AndEq("instance_id", "my-instance")).Error(pkgErrors.New("no_such_consent"))

	if _, cmsErr := sqlRepo.GetConsent(context.Background(), "no-such-consent", "my-instance"); cmsErr.Code != model.ErrorCodeNotFound {
		t.Errorf("A missing consent should surface as not found, but got %v.", cmsErr)
	}
}

/**
* A stale consent version is rejected inside the transaction, the caller gets
* a conflict and has to reload.
 */
func TestUpdateConsentSqlConflict(t *testing.T) {
	dbMock, sqlRepo := getSqlMock()

	dbMock.ExpectTransaction(func(r *reltest.Repository) {
		r.ExpectFind(where.Eq("id", 42)).Result(getDbConsent(42, "external-42", 7))
	})

	stale := model.Consent{ID: 42, ExternalID: "external-42", Status: model.ConsentStatusReceived, ConsentVersion: 3, InstanceID: "my-instance"}
	if _, cmsErr := sqlRepo.UpdateConsent(context.Background(), stale); cmsErr.Code != model.ErrorCodeConflict {
		t.Errorf("A stale version should surface as a conflict, but got %v.", cmsErr)
	}
}
