package http

import (
	"encoding/json"
	"io/ioutil"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/obgateway/consent-cms/authorisation"
	"github.com/obgateway/consent-cms/consent"
	"github.com/obgateway/consent-cms/events"
	"github.com/obgateway/consent-cms/logging"
	"github.com/obgateway/consent-cms/model"
)

var logger = logging.Log()

/**
* Gin controller for the consent lifecycle endpoints.
 */
type ConsentController struct {
	consents *consent.Service
}

func NewConsentController(consents *consent.Service) *ConsentController {
	controller := new(ConsentController)
	controller.consents = consents
	return controller
}

func (controller *ConsentController) CreateConsent(c *gin.Context) {

	bodyData, err := ioutil.ReadAll(c.Request.Body)
	if err != nil {
		logger.Debugf("Was not able to read the body, return error %v.", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, model.ProblemDetails{Type: "BadRequest", Status: http.StatusBadRequest, Title: "Unable to read body", Detail: err.Error()})
		return
	}

	var request model.CreateConsentRequest
	err = json.Unmarshal(bodyData, &request)
	if err != nil {
		logger.Debugf("Was not able to unmarshal request body: %s", string(bodyData))
		c.AbortWithStatusJSON(http.StatusBadRequest, model.ProblemDetails{Type: "BadRequest", Status: http.StatusBadRequest, Title: "Unable to unmarshal body.", Detail: err.Error()})
		return
	}

	response, cmsErr := controller.consents.CreateConsent(c.Request.Context(), request)
	if cmsErr != (model.CmsError{}) {
		logger.Debugf("Was not able to create the consent: %s", logging.PrettyPrintObject(cmsErr))
		abortWithProblem(c, cmsErr)
		return
	}
	c.AbortWithStatusJSON(http.StatusCreated, response)
}

func (controller *ConsentController) GetConsent(c *gin.Context) {
	consentId := c.Param("id")
	storedConsent, cmsErr := controller.consents.GetConsent(c.Request.Context(), consentId)
	if cmsErr != (model.CmsError{}) {
		abortWithProblem(c, cmsErr)
		return
	}
	c.AbortWithStatusJSON(http.StatusOK, storedConsent)
}

func (controller *ConsentController) GetConsentStatus(c *gin.Context) {
	consentId := c.Param("id")
	status, cmsErr := controller.consents.GetConsentStatus(c.Request.Context(), consentId)
	if cmsErr != (model.CmsError{}) {
		abortWithProblem(c, cmsErr)
		return
	}
	c.AbortWithStatusJSON(http.StatusOK, model.ConsentStatusResponse{Status: status})
}

/**
* Actor initiated revocation. The header decides which terminal status it
* produces, a psu revokes, a tpp terminates.
 */
func (controller *ConsentController) RevokeConsent(c *gin.Context) {
	consentId := c.Param("id")
	origin := events.OriginPsu
	if c.GetHeader("X-Request-Origin") == string(events.OriginTpp) {
		origin = events.OriginTpp
	}

	status, cmsErr := controller.consents.RevokeConsent(c.Request.Context(), consentId, origin)
	if cmsErr != (model.CmsError{}) {
		abortWithProblem(c, cmsErr)
		return
	}
	c.AbortWithStatusJSON(http.StatusOK, model.ConsentStatusResponse{Status: status})
}

func (controller *ConsentController) GetConsentData(c *gin.Context) {
	consentId := c.Param("id")
	data, cmsErr := controller.consents.GetConsentData(c.Request.Context(), consentId)
	if cmsErr != (model.CmsError{}) {
		abortWithProblem(c, cmsErr)
		return
	}
	c.AbortWithStatusJSON(http.StatusOK, gin.H{"aspspConsentData": data})
}

func (controller *ConsentController) PutConsentData(c *gin.Context) {

	bodyData, err := ioutil.ReadAll(c.Request.Body)
	if err != nil {
		logger.Debugf("Was not able to read the body, return error %v.", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, model.ProblemDetails{Type: "BadRequest", Status: http.StatusBadRequest, Title: "Unable to read body", Detail: err.Error()})
		return
	}

	var request struct {
		AspspConsentData []byte `json:"aspspConsentData"`
	}
	if err := json.Unmarshal(bodyData, &request); err != nil {
		logger.Debugf("Was not able to unmarshal request body: %s", string(bodyData))
		c.AbortWithStatusJSON(http.StatusBadRequest, model.ProblemDetails{Type: "BadRequest", Status: http.StatusBadRequest, Title: "Unable to unmarshal body.", Detail: err.Error()})
		return
	}

	consentId := c.Param("id")
	if cmsErr := controller.consents.PutConsentData(c.Request.Context(), consentId, request.AspspConsentData); cmsErr != (model.CmsError{}) {
		abortWithProblem(c, cmsErr)
		return
	}
	c.AbortWithStatus(http.StatusNoContent)
}

/**
* Books one data access against the consent and answers with the remaining
* accesses for the request uri.
 */
func (controller *ConsentController) CountUsage(c *gin.Context) {
	consentId := c.Param("id")

	var request struct {
		RequestURI string `json:"requestUri"`
	}
	bodyData, err := ioutil.ReadAll(c.Request.Body)
	if err != nil || json.Unmarshal(bodyData, &request) != nil || request.RequestURI == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, model.ProblemDetails{Type: "BadRequest", Status: http.StatusBadRequest, Title: "Usage accounting needs the request uri."})
		return
	}

	remaining, cmsErr := controller.consents.CountUsage(c.Request.Context(), consentId, request.RequestURI)
	if cmsErr != (model.CmsError{}) {
		abortWithProblem(c, cmsErr)
		return
	}
	c.AbortWithStatusJSON(http.StatusOK, gin.H{"requestUri": request.RequestURI, "remaining": remaining})
}

/**
* Gin controller for the sca authorisation endpoints.
 */
type AuthorisationController struct {
	authorisations *authorisation.Service
}

func NewAuthorisationController(authorisations *authorisation.Service) *AuthorisationController {
	controller := new(AuthorisationController)
	controller.authorisations = authorisations
	return controller
}

func (controller *AuthorisationController) CreateAuthorisation(c *gin.Context) {

	bodyData, err := ioutil.ReadAll(c.Request.Body)
	if err != nil {
		logger.Debugf("Was not able to read the body, return error %v.", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, model.ProblemDetails{Type: "BadRequest", Status: http.StatusBadRequest, Title: "Unable to read body", Detail: err.Error()})
		return
	}

	var request model.CreateAuthorisationRequest
	if err := json.Unmarshal(bodyData, &request); err != nil {
		logger.Debugf("Was not able to unmarshal request body: %s", string(bodyData))
		c.AbortWithStatusJSON(http.StatusBadRequest, model.ProblemDetails{Type: "BadRequest", Status: http.StatusBadRequest, Title: "Unable to unmarshal body.", Detail: err.Error()})
		return
	}

	consentId := c.Param("id")
	created, cmsErr := controller.authorisations.CreateAuthorisation(c.Request.Context(), consentId, request)
	if cmsErr != (model.CmsError{}) {
		logger.Debugf("Was not able to create the authorisation: %s", logging.PrettyPrintObject(cmsErr))
		abortWithProblem(c, cmsErr)
		return
	}
	c.AbortWithStatusJSON(http.StatusCreated, created.View())
}

func (controller *AuthorisationController) ListAuthorisations(c *gin.Context) {
	consentId := c.Param("id")
	views, cmsErr := controller.authorisations.ListAuthorisations(c.Request.Context(), consentId)
	if cmsErr != (model.CmsError{}) {
		abortWithProblem(c, cmsErr)
		return
	}
	c.AbortWithStatusJSON(http.StatusOK, views)
}

func (controller *AuthorisationController) GetAuthorisation(c *gin.Context) {
	authorisationId := c.Param("authorisationId")
	stored, cmsErr := controller.authorisations.GetAuthorisation(c.Request.Context(), authorisationId)
	if cmsErr != (model.CmsError{}) {
		abortWithProblem(c, cmsErr)
		return
	}
	c.AbortWithStatusJSON(http.StatusOK, stored)
}

func (controller *AuthorisationController) GetScaStatus(c *gin.Context) {
	authorisationId := c.Param("authorisationId")
	status, cmsErr := controller.authorisations.GetScaStatus(c.Request.Context(), authorisationId)
	if cmsErr != (model.CmsError{}) {
		abortWithProblem(c, cmsErr)
		return
	}
	c.AbortWithStatusJSON(http.StatusOK, gin.H{"scaStatus": status})
}

func (controller *AuthorisationController) UpdatePsuData(c *gin.Context) {

	bodyData, err := ioutil.ReadAll(c.Request.Body)
	if err != nil {
		logger.Debugf("Was not able to read the body, return error %v.", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, model.ProblemDetails{Type: "BadRequest", Status: http.StatusBadRequest, Title: "Unable to read body", Detail: err.Error()})
		return
	}

	var request model.UpdatePsuDataRequest
	if err := json.Unmarshal(bodyData, &request); err != nil {
		logger.Debugf("Was not able to unmarshal request body: %s", string(bodyData))
		c.AbortWithStatusJSON(http.StatusBadRequest, model.ProblemDetails{Type: "BadRequest", Status: http.StatusBadRequest, Title: "Unable to unmarshal body.", Detail: err.Error()})
		return
	}

	authorisationId := c.Param("authorisationId")
	response, cmsErr := controller.authorisations.UpdatePsuData(c.Request.Context(), authorisationId, request)
	if cmsErr != (model.CmsError{}) {
		logger.Debugf("Was not able to update the authorisation %s: %s", authorisationId, logging.PrettyPrintObject(cmsErr))
		abortWithProblem(c, cmsErr)
		return
	}
	c.AbortWithStatusJSON(http.StatusOK, response)
}

/**
* Maps the domain error codes to problem detail responses.
 */
func abortWithProblem(c *gin.Context, cmsErr model.CmsError) {
	status := http.StatusInternalServerError
	switch cmsErr.Code {
	case model.ErrorCodeValidation, model.ErrorCodeWrongChecksum:
		status = http.StatusBadRequest
	case model.ErrorCodeNotFound:
		status = http.StatusNotFound
	case model.ErrorCodeConflict:
		status = http.StatusConflict
	case model.ErrorCodeExpired:
		status = http.StatusGone
	}
	c.AbortWithStatusJSON(status, model.ProblemDetails{Type: cmsErr.Code, Status: status, Title: cmsErr.Message})
}
