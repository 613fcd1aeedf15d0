package authorisation

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/obgateway/consent-cms/config"
	"github.com/obgateway/consent-cms/model"
)

/**
* Resolves the sca approach for a new authorisation from the aspsp profile
* and the request. The approach is fixed at creation time and never changes
* over the lifetime of the authorisation.
 */
type ApproachResolver struct {
	profile config.AspspProfile
	Clock   Clock
}

func NewApproachResolver(profile config.AspspProfile) *ApproachResolver {
	resolver := new(ApproachResolver)
	resolver.profile = profile
	resolver.Clock = RealClock{}
	return resolver
}

/**
* A psu that already authenticated at the idp hands in a bearer token and gets
* the oauth approach when the profile allows it. The tpp redirect preference
* only counts when redirect is actually supported. In every other case the
* first profile approach wins.
 */
func (resolver *ApproachResolver) Resolve(request model.CreateAuthorisationRequest) model.ScaApproach {
	if request.OauthToken != "" && resolver.supports(model.ScaApproachOauth) {
		if resolver.isUsableToken(request.OauthToken) {
			return model.ScaApproachOauth
		}
	}
	if request.TppRedirectPreferred != nil && *request.TppRedirectPreferred && resolver.supports(model.ScaApproachRedirect) {
		return model.ScaApproachRedirect
	}
	if len(resolver.profile.ScaApproaches) > 0 {
		return resolver.profile.ScaApproaches[0]
	}
	return model.ScaApproachEmbedded
}

func (resolver *ApproachResolver) supports(approach model.ScaApproach) bool {
	for _, supported := range resolver.profile.ScaApproaches {
		if supported == approach {
			return true
		}
	}
	return false
}

/**
* Shallow usability check of the idp token. Signature verification stays
* with the idp, here only the structure and the expiry claim decide whether
* the oauth flow can be entered at all.
 */
func (resolver *ApproachResolver) isUsableToken(token string) bool {
	token = strings.TrimPrefix(token, "Bearer ")
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		logger.Debugf("Handed in oauth token is no parsable jwt: %v", err)
		return false
	}

	if !claims.VerifyExpiresAt(resolver.Clock.Now().Unix(), true) {
		logger.Debug("Handed in oauth token is expired or carries no expiry claim.")
		return false
	}
	return true
}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (c RealClock) Now() time.Time {
	return time.Now()
}
