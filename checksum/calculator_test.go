package checksum

import (
	"bytes"
	"testing"

	"github.com/obgateway/consent-cms/model"
)

func getAccess(resourceId string, aspspAccountId string, iban string, currency string, typeAccess string) model.AccountReference {
	return model.AccountReference{ResourceID: resourceId, AspspAccountID: aspspAccountId, Iban: iban, Currency: currency, TypeAccess: typeAccess}
}

func getConsent(accesses []model.AccountReference) model.Consent {
	return model.Consent{
		RecurringIndicator: true,
		ValidUntil:         "2026-12-31",
		TppFrequencyPerDay: 4,
		TppAccesses:        accesses,
	}
}

func TestChecksumIgnoresAccessOrder(t *testing.T) {
	calculator := NewCalculator()

	ordered := getConsent([]model.AccountReference{
		getAccess("res-1", "acc-1", "DE02100100109307118603", "EUR", "accounts"),
		getAccess("res-2", "acc-2", "DE02120300000000202051", "EUR", "balances"),
	})
	reordered := getConsent([]model.AccountReference{
		getAccess("res-2", "acc-2", "DE02120300000000202051", "EUR", "balances"),
		getAccess("res-1", "acc-1", "DE02100100109307118603", "EUR", "accounts"),
	})

	if !bytes.Equal(calculator.Compute(ordered).Value, calculator.Compute(reordered).Value) {
		t.Errorf("A reordered access list must produce the same checksum.")
	}
}

type sensitivityTest struct {
	testName string
	mutate   func(consent *model.Consent)
}

func getSensitivityTests() []sensitivityTest {
	return []sensitivityTest{
		{"A changed valid-until date changes the checksum.", func(consent *model.Consent) { consent.ValidUntil = "2027-01-01" }},
		{"A changed frequency changes the checksum.", func(consent *model.Consent) { consent.TppFrequencyPerDay = 5 }},
		{"A flipped recurring indicator changes the checksum.", func(consent *model.Consent) { consent.RecurringIndicator = false }},
		{"An added access changes the checksum.", func(consent *model.Consent) {
			consent.TppAccesses = append(consent.TppAccesses, getAccess("res-3", "acc-3", "DE02500105170137075030", "EUR", "accounts"))
		}},
	}
}

func TestChecksumSensitivity(t *testing.T) {
	calculator := NewCalculator()

	for _, tc := range getSensitivityTests() {
		t.Run(tc.testName, func(t *testing.T) {
			consent := getConsent([]model.AccountReference{getAccess("res-1", "acc-1", "DE02100100109307118603", "EUR", "accounts")})
			reference := calculator.Compute(consent)

			tc.mutate(&consent)
			if bytes.Equal(reference.Value, calculator.Compute(consent).Value) {
				t.Errorf("%s", tc.testName)
			}
		})
	}
}

/**
* Psu identity is no part of the content identity, two psus requesting the
* same access produce the same checksum.
 */
func TestChecksumIgnoresPsuIdentity(t *testing.T) {
	calculator := NewCalculator()

	consent := getConsent([]model.AccountReference{getAccess("res-1", "acc-1", "DE02100100109307118603", "EUR", "accounts")})
	consent.PsuData = []model.PsuIdData{{PsuID: "psu-1"}}
	reference := calculator.Compute(consent)

	consent.PsuData = []model.PsuIdData{{PsuID: "psu-2"}}
	if !bytes.Equal(reference.Value, calculator.Compute(consent).Value) {
		t.Errorf("The psu identity must not influence the checksum.")
	}
}

func TestComputeWithUnknownVersion(t *testing.T) {
	calculator := NewCalculator()
	_, cmsErr := calculator.ComputeWithVersion(getConsent(nil), "042")
	if cmsErr.Code != model.ErrorCodeValidation {
		t.Errorf("An unknown checksum version should be rejected, but got %v.", cmsErr)
	}
}

func TestVerifyStoredChecksum(t *testing.T) {
	calculator := NewCalculator()
	consent := getConsent([]model.AccountReference{getAccess("res-1", "acc-1", "DE02100100109307118603", "EUR", "accounts")})
	record := calculator.Compute(consent)

	if !calculator.Verify(consent, record.Value) {
		t.Errorf("An unchanged consent must verify against its own checksum.")
	}

	consent.ValidUntil = "2027-01-01"
	if calculator.Verify(consent, record.Value) {
		t.Errorf("A changed consent must not verify against the old checksum.")
	}
}

/**
* Checksums written with an older version stay verifiable, the stored version
* tag selects the canonicalization.
 */
func TestVerifyOldVersion(t *testing.T) {
	calculator := NewCalculator()
	consent := getConsent([]model.AccountReference{
		getAccess("", "", "DE02100100109307118603", "EUR", "accounts"),
		getAccess("", "", "DE02120300000000202051", "EUR", "accounts"),
	})

	record, cmsErr := calculator.ComputeWithVersion(consent, "001")
	if cmsErr != (model.CmsError{}) {
		t.Fatalf("Computation with version 001 failed unexpectedly: %v.", cmsErr)
	}
	if record.Version != "001" {
		t.Errorf("Expected version 001, but was %s.", record.Version)
	}
	if !calculator.Verify(consent, record.Value) {
		t.Errorf("A version 001 checksum must still verify.")
	}
}

func TestVerifyWithAspspSection(t *testing.T) {
	calculator := NewCalculator()
	consent := getConsent([]model.AccountReference{getAccess("res-1", "acc-1", "DE02100100109307118603", "EUR", "accounts")})
	consent.AspspAccesses = []model.AccountReference{
		getAccess("res-1", "acc-1", "DE02100100109307118603", "EUR", "accounts"),
		getAccess("res-2", "acc-2", "DE02120300000000202051", "EUR", "balances"),
	}

	record := calculator.Compute(consent)
	if !calculator.Verify(consent, record.Value) {
		t.Errorf("The aspsp confirmed accesses must verify against their own checksum.")
	}

	consent.AspspAccesses[0].ResourceID = "res-9"
	if calculator.Verify(consent, record.Value) {
		t.Errorf("A changed aspsp access must not verify against the old checksum.")
	}
}

func TestVerifyGarbage(t *testing.T) {
	calculator := NewCalculator()
	consent := getConsent(nil)

	if calculator.Verify(consent, []byte("not-a-checksum")) {
		t.Errorf("A malformed checksum must not verify.")
	}
	if calculator.Verify(consent, []byte("042_%_something")) {
		t.Errorf("A checksum with an unknown version must not verify.")
	}
}
