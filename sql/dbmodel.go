package sql

import "time"

type Consent struct {
	ID         int
	ExternalID string

	ConsentType string
	Status      string

	RecurringIndicator       bool
	CombinedServiceIndicator bool
	MultilevelScaRequired    bool

	FrequencyPerDay    int
	TppFrequencyPerDay int

	CreationTimestamp time.Time
	ValidUntil        string
	ExpireDate        string
	LastActionDate    string

	// psu list and tpp information as json documents
	PsuData        string
	TppInformation string

	ConsentData          []byte
	ConsentDataAlgorithm string

	Checksum        string
	ChecksumVersion string

	UsageDate string

	InstanceID string

	// optimistic lock counter
	ConsentVersion int

	Accesses []Access `ref:"id" fk:"consent" auto:"true"`
	Usages   []Usage  `ref:"id" fk:"consent" auto:"true"`
}

type Access struct {
	ID int

	// TPP for requested, ASPSP for confirmed accesses
	Source string

	TypeAccess     string
	ResourceID     string
	AspspAccountID string
	Iban           string
	Currency       string

	// ref to the consent
	ConsentRef Consent `ref:"consent" fk:"id" auto:"true"`
	Consent    int
}

type Usage struct {
	ID int

	RequestURI string
	Remaining  int

	// ref to the consent
	ConsentRef Consent `ref:"consent" fk:"id" auto:"true"`
	Consent    int
}

type Authorisation struct {
	ID         int
	ExternalID string

	// external id of the owning consent
	ParentExternalID string

	PsuData string

	ScaStatus   string
	ScaApproach string
	ScaMethodID string

	// json document, only filled for embedded and decoupled flows
	Challenge string

	RedirectURLExpiration time.Time
	Expiration            time.Time

	InternalRequestID string

	InstanceID string

	Version int
}
