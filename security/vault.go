package security

import (
	"encoding/base64"
	"strings"

	"github.com/google/uuid"

	"github.com/obgateway/consent-cms/crypto"
	"github.com/obgateway/consent-cms/logging"
	"github.com/obgateway/consent-cms/model"
)

var logger = logging.Log()

const separator = "_=_"
const consentKeyLength = 16

/**
* Owns the encryption of everything that leaves the persistence boundary: the
* externally visible consent id and the opaque aspsp consent-data blob.
*
* The external id is an envelope around the internal id and a per-consent data
* key: base64(internalId _=_ consentKey) encrypted with the server key, with
* the id of the encrypting provider appended. The data key never leaves the
* envelope, so holding an external id is the capability to read the data.
 */
type ConsentDataVault struct {
	holder    *crypto.ProviderHolder
	serverKey string
}

func NewConsentDataVault(holder *crypto.ProviderHolder, serverKey string) *ConsentDataVault {
	vault := new(ConsentDataVault)
	vault.holder = holder
	vault.serverKey = serverKey
	return vault
}

/**
* Builds the external id for a freshly stored consent. A new data key is
* drawn for every envelope.
 */
func (vault *ConsentDataVault) EncryptID(internalId string) (externalId string, cmsErr model.CmsError) {
	consentKey := newConsentKey()
	composite := internalId + separator + consentKey

	provider := vault.holder.DefaultProvider()
	encrypted, cmsErr := provider.EncryptData([]byte(composite), vault.serverKey)
	if cmsErr != (model.CmsError{}) {
		return externalId, cmsErr
	}

	encoded := base64.URLEncoding.EncodeToString(encrypted.Data)
	return encoded + separator + provider.AlgorithmID(), cmsErr
}

/**
* Opens the envelope and returns the internal id.
 */
func (vault *ConsentDataVault) DecryptID(externalId string) (internalId string, cmsErr model.CmsError) {
	internalId, _, cmsErr = vault.openEnvelope(externalId)
	return internalId, cmsErr
}

/**
* Encrypts the aspsp consent data with the data key carried inside the
* external id. New writes always use the default provider, the stored
* algorithm tag decides how the blob is read back.
 */
func (vault *ConsentDataVault) EncryptConsentData(externalId string, data []byte) (blob model.EncryptedBlob, cmsErr model.CmsError) {
	_, consentKey, cmsErr := vault.openEnvelope(externalId)
	if cmsErr != (model.CmsError{}) {
		return blob, cmsErr
	}
	return vault.holder.DefaultProvider().EncryptData(data, consentKey)
}

func (vault *ConsentDataVault) DecryptConsentData(externalId string, blob model.EncryptedBlob) (data []byte, cmsErr model.CmsError) {
	_, consentKey, cmsErr := vault.openEnvelope(externalId)
	if cmsErr != (model.CmsError{}) {
		return nil, cmsErr
	}
	return vault.holder.Decrypt(blob, consentKey)
}

func (vault *ConsentDataVault) openEnvelope(externalId string) (internalId string, consentKey string, cmsErr model.CmsError) {
	separatorIndex := strings.LastIndex(externalId, separator)
	if separatorIndex < 0 {
		logger.Debugf("External id %s does not carry an algorithm tag.", externalId)
		return internalId, consentKey, model.CryptoError("Malformed external id.", nil)
	}
	encoded := externalId[:separatorIndex]
	algorithmId := externalId[separatorIndex+len(separator):]

	encrypted, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return internalId, consentKey, model.CryptoError("Malformed external id.", err)
	}

	provider, cmsErr := vault.holder.ProviderByID(algorithmId)
	if cmsErr != (model.CmsError{}) {
		return internalId, consentKey, cmsErr
	}

	composite, cmsErr := provider.DecryptData(model.EncryptedBlob{Data: encrypted, Algorithm: algorithmId}, vault.serverKey)
	if cmsErr != (model.CmsError{}) {
		return internalId, consentKey, cmsErr
	}

	parts := strings.SplitN(string(composite), separator, 2)
	if len(parts) != 2 || parts[0] == "" || len(parts[1]) != consentKeyLength {
		return internalId, consentKey, model.CryptoError("External id envelope has an unexpected layout.", nil)
	}
	return parts[0], parts[1], model.CmsError{}
}

func newConsentKey() string {
	key := strings.ReplaceAll(uuid.NewString(), "-", "")
	return key[:consentKeyLength]
}
