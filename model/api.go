package model

/**
* Problem+json style error body on the public surface.
 */
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

type CreateConsentRequest struct {
	ConsentType              ConsentType        `json:"consentType"`
	RecurringIndicator       bool               `json:"recurringIndicator"`
	CombinedServiceIndicator bool               `json:"combinedServiceIndicator"`
	MultilevelScaRequired    bool               `json:"multilevelScaRequired"`
	FrequencyPerDay          int                `json:"frequencyPerDay"`
	ValidUntil               string             `json:"validUntil"`
	PsuData                  []PsuIdData        `json:"psuIdDatas"`
	TppInformation           TppInformation     `json:"tppInformation"`
	Access                   []AccountReference `json:"access"`
	// optional aspsp-specific payload, stored encrypted
	AspspConsentData []byte `json:"aspspConsentData,omitempty"`
}

type CreateConsentResponse struct {
	ConsentID string        `json:"consentId"`
	Status    ConsentStatus `json:"consentStatus"`
}

type ConsentStatusResponse struct {
	Status ConsentStatus `json:"consentStatus"`
}

type CreateAuthorisationRequest struct {
	PsuData PsuIdData `json:"psuIdData"`
	// tpp preference for the redirect approach
	TppRedirectPreferred *bool `json:"tppRedirectPreferred,omitempty"`
	// oauth bearer token when the psu pre-authenticated at the idp
	OauthToken string `json:"oauthToken,omitempty"`
	// idempotency key, retried calls with the same id return the same authorisation
	InternalRequestID string `json:"internalRequestId,omitempty"`
}

type UpdatePsuDataRequest struct {
	PsuData PsuIdData `json:"psuIdData"`
	// requested transition target
	ScaStatus   ScaStatus `json:"scaStatus"`
	ScaMethodID string    `json:"authenticationMethodId,omitempty"`
	Password    string    `json:"password,omitempty"`
	ScaAuthenticationData string `json:"scaAuthenticationData,omitempty"`
}

type UpdatePsuDataResponse struct {
	AuthorisationID string        `json:"authorisationId"`
	ScaStatus       ScaStatus     `json:"scaStatus"`
	Approach        ScaApproach   `json:"scaApproach"`
	ConsentStatus   ConsentStatus `json:"consentStatus"`
	Challenge       *ChallengeData `json:"challengeData,omitempty"`
}
