package authorisation

import (
	"encoding/json"

	"github.com/obgateway/consent-cms/model"
	dbModel "github.com/obgateway/consent-cms/sql"
)

func toSqlAuthorisation(authorisation model.Authorisation) dbModel.Authorisation {
	psuData, err := json.Marshal(authorisation.PsuData)
	if err != nil {
		logger.Warnf("Was not able to marshal the psu data of authorisation %s: %v", authorisation.ExternalID, err)
	}
	challenge := ""
	if authorisation.Challenge != nil {
		marshalled, err := json.Marshal(authorisation.Challenge)
		if err != nil {
			logger.Warnf("Was not able to marshal the challenge of authorisation %s: %v", authorisation.ExternalID, err)
		} else {
			challenge = string(marshalled)
		}
	}

	return dbModel.Authorisation{
		ExternalID:            authorisation.ExternalID,
		ParentExternalID:      authorisation.ParentID,
		PsuData:               string(psuData),
		ScaStatus:             string(authorisation.ScaStatus),
		ScaApproach:           string(authorisation.Approach),
		ScaMethodID:           authorisation.ScaMethodID,
		Challenge:             challenge,
		RedirectURLExpiration: authorisation.RedirectURLExpiration,
		Expiration:            authorisation.Expiration,
		InternalRequestID:     authorisation.InternalRequestID,
		InstanceID:            authorisation.InstanceID,
		Version:               authorisation.Version,
	}
}

func fromSqlAuthorisation(sqlAuthorisation dbModel.Authorisation) model.Authorisation {
	authorisation := model.Authorisation{
		ExternalID:            sqlAuthorisation.ExternalID,
		ParentID:              sqlAuthorisation.ParentExternalID,
		ScaStatus:             model.ScaStatus(sqlAuthorisation.ScaStatus),
		Approach:              model.ScaApproach(sqlAuthorisation.ScaApproach),
		ScaMethodID:           sqlAuthorisation.ScaMethodID,
		RedirectURLExpiration: sqlAuthorisation.RedirectURLExpiration,
		Expiration:            sqlAuthorisation.Expiration,
		InternalRequestID:     sqlAuthorisation.InternalRequestID,
		InstanceID:            sqlAuthorisation.InstanceID,
		Version:               sqlAuthorisation.Version,
	}

	if sqlAuthorisation.PsuData != "" {
		if err := json.Unmarshal([]byte(sqlAuthorisation.PsuData), &authorisation.PsuData); err != nil {
			logger.Warnf("Was not able to unmarshal the psu data of authorisation %s: %v", sqlAuthorisation.ExternalID, err)
		}
	}
	if sqlAuthorisation.Challenge != "" {
		challenge := model.ChallengeData{}
		if err := json.Unmarshal([]byte(sqlAuthorisation.Challenge), &challenge); err != nil {
			logger.Warnf("Was not able to unmarshal the challenge of authorisation %s: %v", sqlAuthorisation.ExternalID, err)
		} else {
			authorisation.Challenge = &challenge
		}
	}
	return authorisation
}
