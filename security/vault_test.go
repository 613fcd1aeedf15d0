package security

import (
	"bytes"
	"strings"
	"testing"

	"github.com/obgateway/consent-cms/crypto"
	"github.com/obgateway/consent-cms/model"
)

func getVault(serverKey string) *ConsentDataVault {
	holder := crypto.NewProviderHolder(crypto.NewJweProvider(), crypto.NewAesEcbProvider())
	return NewConsentDataVault(holder, serverKey)
}

func TestIdRoundTrip(t *testing.T) {
	vault := getVault("mySecretServerKey")

	externalId, cmsErr := vault.EncryptID("42")
	if cmsErr != (model.CmsError{}) {
		t.Fatalf("Id encryption failed unexpectedly: %v.", cmsErr)
	}
	if strings.Contains(externalId, "42"+separator) {
		t.Errorf("The external id must not expose the internal id.")
	}
	if !strings.HasSuffix(externalId, separator+crypto.NewJweProvider().AlgorithmID()) {
		t.Errorf("The external id should carry the algorithm tag of the default provider, but was %s.", externalId)
	}

	internalId, cmsErr := vault.DecryptID(externalId)
	if cmsErr != (model.CmsError{}) {
		t.Fatalf("Id decryption failed unexpectedly: %v.", cmsErr)
	}
	if internalId != "42" {
		t.Errorf("Expected the internal id 42, but was %s.", internalId)
	}
}

/**
* Every envelope draws a fresh data key, equal internal ids never produce
* equal external ids.
 */
func TestIdsAreUnique(t *testing.T) {
	vault := getVault("mySecretServerKey")

	first, _ := vault.EncryptID("42")
	second, _ := vault.EncryptID("42")
	if first == second {
		t.Errorf("Two envelopes for the same internal id must differ.")
	}
}

func TestConsentDataRoundTrip(t *testing.T) {
	vault := getVault("mySecretServerKey")

	externalId, cmsErr := vault.EncryptID("42")
	if cmsErr != (model.CmsError{}) {
		t.Fatalf("Id encryption failed unexpectedly: %v.", cmsErr)
	}

	blob, cmsErr := vault.EncryptConsentData(externalId, []byte("aspsp-session-token"))
	if cmsErr != (model.CmsError{}) {
		t.Fatalf("Data encryption failed unexpectedly: %v.", cmsErr)
	}

	data, cmsErr := vault.DecryptConsentData(externalId, blob)
	if cmsErr != (model.CmsError{}) {
		t.Fatalf("Data decryption failed unexpectedly: %v.", cmsErr)
	}
	if !bytes.Equal(data, []byte("aspsp-session-token")) {
		t.Errorf("Expected aspsp-session-token, but was %s.", data)
	}
}

/**
* The data key lives inside the envelope, data written under one external id
* cannot be read through another one.
 */
func TestDataIsBoundToTheEnvelope(t *testing.T) {
	vault := getVault("mySecretServerKey")

	firstId, _ := vault.EncryptID("42")
	secondId, _ := vault.EncryptID("43")

	blob, cmsErr := vault.EncryptConsentData(firstId, []byte("aspsp-session-token"))
	if cmsErr != (model.CmsError{}) {
		t.Fatalf("Data encryption failed unexpectedly: %v.", cmsErr)
	}

	data, cmsErr := vault.DecryptConsentData(secondId, blob)
	if cmsErr == (model.CmsError{}) && bytes.Equal(data, []byte("aspsp-session-token")) {
		t.Errorf("A foreign envelope must not decrypt the data.")
	}
}

func TestWrongServerKey(t *testing.T) {
	externalId, _ := getVault("mySecretServerKey").EncryptID("42")

	_, cmsErr := getVault("anotherServerKey").DecryptID(externalId)
	if cmsErr.Code != model.ErrorCodeCrypto {
		t.Errorf("Decryption with a wrong server key should surface as a crypto error, but got %v.", cmsErr)
	}
}

type malformedIdTest struct {
	testName   string
	externalId string
}

func getMalformedIdTests() []malformedIdTest {
	return []malformedIdTest{
		{"Reject an id without an algorithm tag.", "c29tZS1kYXRh"},
		{"Reject an id with an unknown algorithm tag.", "c29tZS1kYXRh" + separator + "ROT13"},
		{"Reject an id that is no base64.", "!!!" + separator + crypto.NewJweProvider().AlgorithmID()},
		{"Reject an empty id.", ""},
	}
}

func TestMalformedIds(t *testing.T) {
	vault := getVault("mySecretServerKey")

	for _, tc := range getMalformedIdTests() {
		t.Run(tc.testName, func(t *testing.T) {
			if _, cmsErr := vault.DecryptID(tc.externalId); cmsErr.Code != model.ErrorCodeCrypto {
				t.Errorf("%s: Expected a crypto error, but got %v.", tc.testName, cmsErr)
			}
		})
	}
}
