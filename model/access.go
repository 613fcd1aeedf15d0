package model

/**
* Reference to a single account resource the tpp requested or the aspsp
* confirmed access to.
 */
type AccountReference struct {
	ResourceID     string `json:"resourceId,omitempty"`
	AspspAccountID string `json:"aspspAccountId,omitempty"`
	Iban           string `json:"iban,omitempty"`
	Currency       string `json:"currency,omitempty"`
	// accounts, balances or transactions
	TypeAccess string `json:"typeAccess,omitempty"`
}

type PsuIdData struct {
	PsuID              string `json:"psuId,omitempty"`
	PsuIDType          string `json:"psuIdType,omitempty"`
	PsuCorporateID     string `json:"psuCorporateId,omitempty"`
	PsuCorporateIDType string `json:"psuCorporateIdType,omitempty"`
}

func (p PsuIdData) IsEmpty() bool {
	return p.PsuID == ""
}

/**
* Two psus are considered the same actor when id and id-type match. Corporate
* information does not distinguish actors within one consent.
 */
func (p PsuIdData) ContentEquals(other PsuIdData) bool {
	return p.PsuID == other.PsuID && p.PsuIDType == other.PsuIDType
}

type TppInformation struct {
	AuthorisationNumber string   `json:"authorisationNumber"`
	AuthorityID         string   `json:"authorityId,omitempty"`
	TppRoles            []string `json:"tppRoles,omitempty"`
	RedirectURI         string   `json:"tppRedirectUri,omitempty"`
	NokRedirectURI      string   `json:"tppNokRedirectUri,omitempty"`
}
