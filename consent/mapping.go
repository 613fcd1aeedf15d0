package consent

import (
	"encoding/json"

	"github.com/obgateway/consent-cms/model"
	dbModel "github.com/obgateway/consent-cms/sql"
)

const accessSourceTpp = "TPP"
const accessSourceAspsp = "ASPSP"

func toSqlConsent(consent model.Consent) dbModel.Consent {
	sqlConsent := dbModel.Consent{
		ID:                       consent.ID,
		ExternalID:               consent.ExternalID,
		ConsentType:              string(consent.ConsentType),
		Status:                   string(consent.Status),
		RecurringIndicator:       consent.RecurringIndicator,
		CombinedServiceIndicator: consent.CombinedServiceIndicator,
		MultilevelScaRequired:    consent.MultilevelScaRequired,
		FrequencyPerDay:          consent.FrequencyPerDay,
		TppFrequencyPerDay:       consent.TppFrequencyPerDay,
		CreationTimestamp:        consent.CreationTimestamp,
		ValidUntil:               consent.ValidUntil,
		ExpireDate:               consent.ExpireDate,
		LastActionDate:           consent.LastActionDate,
		ConsentData:              consent.ConsentData.Data,
		ConsentDataAlgorithm:     consent.ConsentData.Algorithm,
		Checksum:                 string(consent.Checksum.Value),
		ChecksumVersion:          consent.Checksum.Version,
		UsageDate:                consent.UsageDate,
		InstanceID:               consent.InstanceID,
		ConsentVersion:           consent.ConsentVersion,
	}

	psuData, _ := json.Marshal(consent.PsuData)
	sqlConsent.PsuData = string(psuData)
	tppInformation, _ := json.Marshal(consent.TppInformation)
	sqlConsent.TppInformation = string(tppInformation)

	for _, access := range consent.TppAccesses {
		sqlConsent.Accesses = append(sqlConsent.Accesses, toSqlAccess(access, accessSourceTpp, consent.ID))
	}
	for _, access := range consent.AspspAccesses {
		sqlConsent.Accesses = append(sqlConsent.Accesses, toSqlAccess(access, accessSourceAspsp, consent.ID))
	}

	for requestUri, remaining := range consent.Usages {
		sqlConsent.Usages = append(sqlConsent.Usages, dbModel.Usage{RequestURI: requestUri, Remaining: remaining, Consent: consent.ID})
	}

	return sqlConsent
}

func toSqlAccess(access model.AccountReference, source string, consentId int) dbModel.Access {
	return dbModel.Access{
		Source:         source,
		TypeAccess:     access.TypeAccess,
		ResourceID:     access.ResourceID,
		AspspAccountID: access.AspspAccountID,
		Iban:           access.Iban,
		Currency:       access.Currency,
		Consent:        consentId,
	}
}

func fromSqlConsent(sqlConsent dbModel.Consent) model.Consent {
	consent := model.Consent{
		ID:                       sqlConsent.ID,
		ExternalID:               sqlConsent.ExternalID,
		ConsentType:              model.ConsentType(sqlConsent.ConsentType),
		Status:                   model.ConsentStatus(sqlConsent.Status),
		RecurringIndicator:       sqlConsent.RecurringIndicator,
		CombinedServiceIndicator: sqlConsent.CombinedServiceIndicator,
		MultilevelScaRequired:    sqlConsent.MultilevelScaRequired,
		FrequencyPerDay:          sqlConsent.FrequencyPerDay,
		TppFrequencyPerDay:       sqlConsent.TppFrequencyPerDay,
		CreationTimestamp:        sqlConsent.CreationTimestamp,
		ValidUntil:               sqlConsent.ValidUntil,
		ExpireDate:               sqlConsent.ExpireDate,
		LastActionDate:           sqlConsent.LastActionDate,
		ConsentData:              model.EncryptedBlob{Data: sqlConsent.ConsentData, Algorithm: sqlConsent.ConsentDataAlgorithm},
		Checksum:                 model.ChecksumRecord{Value: []byte(sqlConsent.Checksum), Version: sqlConsent.ChecksumVersion},
		UsageDate:                sqlConsent.UsageDate,
		InstanceID:               sqlConsent.InstanceID,
		ConsentVersion:           sqlConsent.ConsentVersion,
	}

	if sqlConsent.PsuData != "" {
		if err := json.Unmarshal([]byte(sqlConsent.PsuData), &consent.PsuData); err != nil {
			logger.Warnf("Consent %s carries unreadable psu data: %v", sqlConsent.ExternalID, err)
		}
	}
	if sqlConsent.TppInformation != "" {
		if err := json.Unmarshal([]byte(sqlConsent.TppInformation), &consent.TppInformation); err != nil {
			logger.Warnf("Consent %s carries unreadable tpp information: %v", sqlConsent.ExternalID, err)
		}
	}

	for _, sqlAccess := range sqlConsent.Accesses {
		access := fromSqlAccess(sqlAccess)
		if sqlAccess.Source == accessSourceAspsp {
			consent.AspspAccesses = append(consent.AspspAccesses, access)
		} else {
			consent.TppAccesses = append(consent.TppAccesses, access)
		}
	}

	if len(sqlConsent.Usages) != 0 {
		consent.Usages = map[string]int{}
		for _, sqlUsage := range sqlConsent.Usages {
			consent.Usages[sqlUsage.RequestURI] = sqlUsage.Remaining
		}
	}

	return consent
}

func fromSqlAccess(sqlAccess dbModel.Access) model.AccountReference {
	return model.AccountReference{
		TypeAccess:     sqlAccess.TypeAccess,
		ResourceID:     sqlAccess.ResourceID,
		AspspAccountID: sqlAccess.AspspAccountID,
		Iban:           sqlAccess.Iban,
		Currency:       sqlAccess.Currency,
	}
}
