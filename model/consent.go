package model

import "time"

type ConsentType string

const (
	ConsentTypeAccountInformation ConsentType = "AIS"
	ConsentTypePaymentInitiation  ConsentType = "PIS"
	ConsentTypeFundsConfirmation  ConsentType = "PIIS"
)

type ConsentStatus string

const (
	ConsentStatusReceived            ConsentStatus = "RECEIVED"
	ConsentStatusValid               ConsentStatus = "VALID"
	ConsentStatusPartiallyAuthorised ConsentStatus = "PARTIALLY_AUTHORISED"
	ConsentStatusRejected            ConsentStatus = "REJECTED"
	ConsentStatusExpired             ConsentStatus = "EXPIRED"
	ConsentStatusRevokedByPsu        ConsentStatus = "REVOKED_BY_PSU"
	ConsentStatusTerminatedByTpp     ConsentStatus = "TERMINATED_BY_TPP"
)

/**
* Terminal statuses are kept for audit, the consent is never physically deleted.
 */
func (s ConsentStatus) IsFinalised() bool {
	switch s {
	case ConsentStatusRejected, ConsentStatusExpired, ConsentStatusRevokedByPsu, ConsentStatusTerminatedByTpp:
		return true
	}
	return false
}

type Consent struct {
	// internal storage id, 0 until persisted
	ID         int    `json:"-"`
	ExternalID string `json:"consentId"`

	ConsentType ConsentType   `json:"consentType"`
	Status      ConsentStatus `json:"consentStatus"`

	RecurringIndicator       bool `json:"recurringIndicator"`
	CombinedServiceIndicator bool `json:"combinedServiceIndicator"`
	MultilevelScaRequired    bool `json:"multilevelScaRequired"`

	// allowed accesses per calendar day, min of tpp request and aspsp maximum
	FrequencyPerDay    int `json:"frequencyPerDay"`
	TppFrequencyPerDay int `json:"tppFrequencyPerDay"`

	CreationTimestamp time.Time `json:"creationTimestamp"`
	ValidUntil        string    `json:"validUntil"`
	ExpireDate        string    `json:"expireDate"`
	LastActionDate    string    `json:"lastActionDate"`

	PsuData        []PsuIdData    `json:"psuIdDatas"`
	TppInformation TppInformation `json:"tppInformation"`

	TppAccesses   []AccountReference `json:"access"`
	AspspAccesses []AccountReference `json:"aspspAccountAccesses,omitempty"`

	// opaque aspsp specific payload, encrypted at rest
	ConsentData EncryptedBlob  `json:"-"`
	Checksum    ChecksumRecord `json:"-"`

	// per request-uri remaining accesses for the current day
	Usages    map[string]int `json:"usageCounterMap,omitempty"`
	UsageDate string         `json:"-"`

	InstanceID string `json:"instanceId"`

	// optimistic lock counter, incremented on every write
	ConsentVersion int `json:"-"`
}

/**
* A consent is expired when its expire-date lies before the given reference date.
* Consents without an expire-date never expire on their own.
 */
func (c Consent) IsExpiredAt(date string) bool {
	return c.ExpireDate != "" && c.ExpireDate < date
}
