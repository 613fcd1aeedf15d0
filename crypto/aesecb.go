package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"

	"github.com/obgateway/consent-cms/model"
)

const aesEcbAlgorithmId = "AES/ECB/PKCS5Padding"
const aesEcbVersion = "001"

// key derivation parameters, fixed for read-compatibility with already
// encrypted data
const pbkdf2Iterations = 65536
const pbkdf2KeyLength = 32

var pbkdf2Salt = []byte("fzskF9QN2DmWmkSq")

/**
* Legacy deterministic cipher. Kept for read-compatibility with blobs written
* before the envelope scheme, never used for new writes.
 */
type AesEcbProvider struct{}

func NewAesEcbProvider() AesEcbProvider {
	return AesEcbProvider{}
}

func (AesEcbProvider) AlgorithmID() string {
	return aesEcbAlgorithmId
}

func (AesEcbProvider) AlgorithmVersion() string {
	return aesEcbVersion
}

func (provider AesEcbProvider) EncryptData(data []byte, password string) (blob model.EncryptedBlob, cmsErr model.CmsError) {
	block, err := aes.NewCipher(DeriveKey(password))
	if err != nil {
		return blob, model.CryptoError("Was not able to initialize the cipher.", err)
	}

	padded := padPkcs7(data, block.BlockSize())
	ciphertext := make([]byte, len(padded))
	for offset := 0; offset < len(padded); offset += block.BlockSize() {
		block.Encrypt(ciphertext[offset:offset+block.BlockSize()], padded[offset:offset+block.BlockSize()])
	}

	return model.EncryptedBlob{Data: ciphertext, Algorithm: aesEcbAlgorithmId}, cmsErr
}

func (provider AesEcbProvider) DecryptData(blob model.EncryptedBlob, password string) (data []byte, cmsErr model.CmsError) {
	block, err := aes.NewCipher(DeriveKey(password))
	if err != nil {
		return nil, model.CryptoError("Was not able to initialize the cipher.", err)
	}

	if len(blob.Data) == 0 || len(blob.Data)%block.BlockSize() != 0 {
		return nil, model.CryptoError("Ciphertext is not aligned to the cipher block size.", nil)
	}

	plaintext := make([]byte, len(blob.Data))
	for offset := 0; offset < len(blob.Data); offset += block.BlockSize() {
		block.Decrypt(plaintext[offset:offset+block.BlockSize()], blob.Data[offset:offset+block.BlockSize()])
	}

	unpadded, ok := unpadPkcs7(plaintext, block.BlockSize())
	if !ok {
		return nil, model.CryptoError("Ciphertext could not be decrypted with the given password.", nil)
	}
	return unpadded, cmsErr
}

/**
* Password based key derivation, PBKDF2 with SHA-256. Has to stay bit-for-bit
* reproducible, otherwise already persisted blobs become unreadable.
 */
func DeriveKey(password string) []byte {
	return pbkdf2.Key([]byte(password), pbkdf2Salt, pbkdf2Iterations, pbkdf2KeyLength, sha256.New)
}

func padPkcs7(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(padding)}, padding)...)
}

func unpadPkcs7(data []byte, blockSize int) ([]byte, bool) {
	if len(data) == 0 {
		return nil, false
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize || padding > len(data) {
		return nil, false
	}
	for _, paddingByte := range data[len(data)-padding:] {
		if int(paddingByte) != padding {
			return nil, false
		}
	}
	return data[:len(data)-padding], true
}
