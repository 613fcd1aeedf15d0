package model

import "time"

type ScaStatus string

const (
	ScaStatusReceived          ScaStatus = "RECEIVED"
	ScaStatusPsuIdentified     ScaStatus = "PSUIDENTIFIED"
	ScaStatusPsuAuthenticated  ScaStatus = "PSUAUTHENTICATED"
	ScaStatusScaMethodSelected ScaStatus = "SCAMETHODSELECTED"
	ScaStatusStarted           ScaStatus = "STARTED"
	ScaStatusFinalised         ScaStatus = "FINALISED"
	ScaStatusFailed            ScaStatus = "FAILED"
	ScaStatusExempted          ScaStatus = "EXEMPTED"
)

/**
* FAILED ends the authorisation without success, FINALISED and EXEMPTED end it with success.
* None of them can be left again.
 */
func (s ScaStatus) IsFinalised() bool {
	switch s {
	case ScaStatusFinalised, ScaStatusFailed, ScaStatusExempted:
		return true
	}
	return false
}

func (s ScaStatus) IsSuccessful() bool {
	return s == ScaStatusFinalised || s == ScaStatusExempted
}

type ScaApproach string

const (
	ScaApproachRedirect  ScaApproach = "REDIRECT"
	ScaApproachEmbedded  ScaApproach = "EMBEDDED"
	ScaApproachDecoupled ScaApproach = "DECOUPLED"
	ScaApproachOauth     ScaApproach = "OAUTH"
)

/**
* One-time challenge delivered to the psu for embedded and decoupled flows. The
* artifact must only appear in the single-authorisation detail response, never
* in lists, summaries or log statements.
 */
type ChallengeData struct {
	Image              string   `json:"image,omitempty"`
	Data               []string `json:"data,omitempty"`
	ImageLink          string   `json:"imageLink,omitempty"`
	OtpMaxLength       int      `json:"otpMaxLength,omitempty"`
	OtpFormat          string   `json:"otpFormat,omitempty"`
	AdditionalInformation string `json:"additionalInformation,omitempty"`
}

type Authorisation struct {
	ExternalID string `json:"authorisationId"`
	// external id of the owning consent, ownership is exclusive
	ParentID string `json:"parentId"`

	PsuData   PsuIdData   `json:"psuIdData"`
	ScaStatus ScaStatus   `json:"scaStatus"`
	Approach  ScaApproach `json:"scaApproach"`

	ScaMethodID string         `json:"authenticationMethodId,omitempty"`
	Challenge   *ChallengeData `json:"challengeData,omitempty"`

	RedirectURLExpiration time.Time `json:"redirectUrlExpiration"`
	Expiration            time.Time `json:"authorisationExpiration"`

	// idempotency key for retried client calls
	InternalRequestID string `json:"internalRequestId"`

	InstanceID string `json:"instanceId"`

	Version int `json:"-"`
}

/**
* Redacted view of an authorisation, used for list and summary responses.
 */
type AuthorisationView struct {
	AuthorisationID string      `json:"authorisationId"`
	ScaStatus       ScaStatus   `json:"scaStatus"`
	Approach        ScaApproach `json:"scaApproach"`
	PsuID           string      `json:"psuId,omitempty"`
}

func (a Authorisation) View() AuthorisationView {
	return AuthorisationView{
		AuthorisationID: a.ExternalID,
		ScaStatus:       a.ScaStatus,
		Approach:        a.Approach,
		PsuID:           a.PsuData.PsuID,
	}
}
