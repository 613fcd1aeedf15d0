package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/obgateway/consent-cms/logging"
	"github.com/obgateway/consent-cms/model"
)

var logger = logging.Log()

/**
* Aspsp profile as exposed by the profile boundary. Read once at startup,
* read-only afterwards.
 */
type AspspProfile struct {
	// supported sca approaches in priority order
	ScaApproaches []model.ScaApproach
	// lifetime of a redirect link issued for an authorisation
	RedirectURLExpiration time.Duration
	// maximum age of a not yet confirmed consent
	AuthorisationExpiration time.Duration
	// upper bound for the per-day access frequency
	MaxFrequencyPerDay int
	// business rule for multilevel sca: reject the whole consent when one
	// authorisation fails
	RejectConsentOnFailedAuthorisation bool
}

type Config interface {
	ServerKey() string
	InstanceID() string
	SweepInterval() time.Duration
	Profile() AspspProfile
}

type EnvConfig struct{}

func (EnvConfig) ServerKey() string {
	serverKey := os.Getenv("SERVER_KEY")
	if serverKey == "" {
		logger.Fatal("No server key configured, consent data cannot be protected.")
	}
	return serverKey
}

func (EnvConfig) InstanceID() string {
	instanceId := os.Getenv("INSTANCE_ID")
	if instanceId == "" {
		logger.Warn("No instance id configured, use the default partition.")
		instanceId = "UNDEFINED"
	}
	return instanceId
}

func (EnvConfig) SweepInterval() time.Duration {
	sweepIntervalEnv := os.Getenv("EXPIRY_SWEEP_INTERVAL_S")
	if sweepIntervalEnv == "" {
		return 5 * time.Minute
	}
	sweepIntervalInS, err := strconv.Atoi(sweepIntervalEnv)
	if err != nil {
		logger.Warnf("Invalid sweep interval %s configured, fall back to 5m.", sweepIntervalEnv)
		return 5 * time.Minute
	}
	return time.Duration(sweepIntervalInS) * time.Second
}

func (EnvConfig) Profile() AspspProfile {
	return AspspProfile{
		ScaApproaches:                      scaApproachesFromEnv(),
		RedirectURLExpiration:              durationMsFromEnv("REDIRECT_URL_EXPIRATION_MS", 10*time.Minute),
		AuthorisationExpiration:            durationMsFromEnv("AUTHORISATION_EXPIRATION_MS", 24*time.Hour),
		MaxFrequencyPerDay:                 intFromEnv("MAX_FREQUENCY_PER_DAY", 100),
		RejectConsentOnFailedAuthorisation: boolFromEnv("REJECT_CONSENT_ON_FAILED_AUTHORISATION", true),
	}
}

func scaApproachesFromEnv() []model.ScaApproach {
	approachesEnv := os.Getenv("SCA_APPROACHES")
	if approachesEnv == "" {
		return []model.ScaApproach{model.ScaApproachRedirect, model.ScaApproachEmbedded}
	}
	approaches := []model.ScaApproach{}
	for _, approach := range strings.Split(approachesEnv, ",") {
		approaches = append(approaches, model.ScaApproach(strings.TrimSpace(approach)))
	}
	return approaches
}

func durationMsFromEnv(envVar string, defaultValue time.Duration) time.Duration {
	valueEnv := os.Getenv(envVar)
	if valueEnv == "" {
		return defaultValue
	}
	valueInMs, err := strconv.Atoi(valueEnv)
	if err != nil {
		logger.Warnf("Invalid value %s configured for %s, use the default.", valueEnv, envVar)
		return defaultValue
	}
	return time.Duration(valueInMs) * time.Millisecond
}

func intFromEnv(envVar string, defaultValue int) int {
	valueEnv := os.Getenv(envVar)
	if valueEnv == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueEnv)
	if err != nil {
		logger.Warnf("Invalid value %s configured for %s, use the default.", valueEnv, envVar)
		return defaultValue
	}
	return value
}

func boolFromEnv(envVar string, defaultValue bool) bool {
	valueEnv := os.Getenv(envVar)
	if valueEnv == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueEnv)
	if err != nil {
		logger.Warnf("Invalid value %s configured for %s, use the default.", valueEnv, envVar)
		return defaultValue
	}
	return value
}
