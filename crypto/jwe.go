package crypto

import (
	"github.com/go-jose/go-jose/v3"

	"github.com/obgateway/consent-cms/model"
)

const jweAlgorithmId = "JWE/GCM/256"
const jweVersion = "002"

/**
* Authenticated envelope scheme. The content encryption key is wrapped with a
* password derived key (PBES2), the payload is protected with AES-256-GCM.
* Default provider for all new writes.
 */
type JweProvider struct{}

func NewJweProvider() JweProvider {
	return JweProvider{}
}

func (JweProvider) AlgorithmID() string {
	return jweAlgorithmId
}

func (JweProvider) AlgorithmVersion() string {
	return jweVersion
}

func (provider JweProvider) EncryptData(data []byte, password string) (blob model.EncryptedBlob, cmsErr model.CmsError) {
	encrypter, err := jose.NewEncrypter(
		jose.A256GCM,
		jose.Recipient{Algorithm: jose.PBES2_HS512_A256KW, Key: password, PBES2Count: pbkdf2Iterations},
		nil)
	if err != nil {
		return blob, model.CryptoError("Was not able to initialize the jwe encrypter.", err)
	}

	jweObject, err := encrypter.Encrypt(data)
	if err != nil {
		return blob, model.CryptoError("Was not able to encrypt the payload.", err)
	}

	serialized, err := jweObject.CompactSerialize()
	if err != nil {
		return blob, model.CryptoError("Was not able to serialize the jwe.", err)
	}

	return model.EncryptedBlob{Data: []byte(serialized), Algorithm: jweAlgorithmId}, cmsErr
}

func (provider JweProvider) DecryptData(blob model.EncryptedBlob, password string) (data []byte, cmsErr model.CmsError) {
	jweObject, err := jose.ParseEncrypted(string(blob.Data))
	if err != nil {
		return nil, model.CryptoError("Blob does not contain a parseable jwe.", err)
	}

	data, err = jweObject.Decrypt(password)
	if err != nil {
		return nil, model.CryptoError("Jwe could not be decrypted with the given password.", err)
	}
	return data, cmsErr
}
