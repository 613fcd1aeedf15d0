package model

/**
* Ciphertext together with the id of the algorithm that produced it. The
* algorithm tag decides which crypto provider is used on read.
 */
type EncryptedBlob struct {
	Data      []byte `json:"data"`
	Algorithm string `json:"algorithm"`
}

func (b EncryptedBlob) IsEmpty() bool {
	return len(b.Data) == 0
}

/**
* Version-tagged fingerprint over the semantically relevant consent fields.
* Equal values under the same version identify duplicate consents.
 */
type ChecksumRecord struct {
	Value   []byte `json:"value"`
	Version string `json:"version"`
}

func (c ChecksumRecord) IsEmpty() bool {
	return len(c.Value) == 0
}
