package crypto

import (
	"fmt"

	"github.com/obgateway/consent-cms/logging"
	"github.com/obgateway/consent-cms/model"
)

var logger = logging.Log()

/**
* Strategy for symmetric encryption of consent payloads. Providers are
* stateless and safe to share between concurrent calls.
 */
type CryptoProvider interface {
	EncryptData(data []byte, password string) (model.EncryptedBlob, model.CmsError)
	DecryptData(blob model.EncryptedBlob, password string) ([]byte, model.CmsError)
	// algorithm tag stored alongside the ciphertext
	AlgorithmID() string
	AlgorithmVersion() string
}

/**
* Closed registry of the known providers, keyed by algorithm tag. New writes
* always go through the default provider, reads are dispatched on the tag
* stored with the blob.
 */
type ProviderHolder struct {
	providers       map[string]CryptoProvider
	defaultProvider CryptoProvider
}

func NewProviderHolder(defaultProvider CryptoProvider, legacyProviders ...CryptoProvider) *ProviderHolder {
	holder := &ProviderHolder{providers: map[string]CryptoProvider{}, defaultProvider: defaultProvider}
	holder.providers[defaultProvider.AlgorithmID()] = defaultProvider
	for _, provider := range legacyProviders {
		holder.providers[provider.AlgorithmID()] = provider
	}
	return holder
}

func (holder *ProviderHolder) DefaultProvider() CryptoProvider {
	return holder.defaultProvider
}

func (holder *ProviderHolder) ProviderByID(algorithmId string) (CryptoProvider, model.CmsError) {
	provider, ok := holder.providers[algorithmId]
	if !ok {
		logger.Warnf("No crypto provider registered for algorithm %s.", algorithmId)
		return nil, model.CryptoError(fmt.Sprintf("Unknown encryption algorithm %s.", algorithmId), nil)
	}
	return provider, model.CmsError{}
}

/**
* Decrypts the blob with the provider that matches its algorithm tag.
 */
func (holder *ProviderHolder) Decrypt(blob model.EncryptedBlob, password string) ([]byte, model.CmsError) {
	provider, cmsErr := holder.ProviderByID(blob.Algorithm)
	if cmsErr != (model.CmsError{}) {
		return nil, cmsErr
	}
	return provider.DecryptData(blob, password)
}
