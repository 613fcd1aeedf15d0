package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/penglongli/gin-metrics/ginmetrics"
	"github.com/procyon-projects/chrono"
	"github.com/subosito/gotenv"

	"github.com/obgateway/consent-cms/authorisation"
	"github.com/obgateway/consent-cms/config"
	"github.com/obgateway/consent-cms/consent"
	"github.com/obgateway/consent-cms/crypto"
	"github.com/obgateway/consent-cms/db"
	"github.com/obgateway/consent-cms/events"
	api "github.com/obgateway/consent-cms/http"
	"github.com/obgateway/consent-cms/logging"
	"github.com/obgateway/consent-cms/security"
)

var logger = logging.Log()

/**
* Port to run the cms at. Default is 8080.
 */
var serverPort int = 8080

func init() {
	gotenv.Load()

	serverPortEnvVar := os.Getenv("SERVER_PORT")
	if serverPortEnvVar == "" {
		return
	}
	parsedPort, err := strconv.Atoi(serverPortEnvVar)
	if err != nil {
		logger.Fatalf("No valid server port was provided: %s.", serverPortEnvVar)
	}
	serverPort = parsedPort
}

/**
* Startup method to wire the lifecycle engines and run the gin-server.
 */
func main() {

	envConfig := config.EnvConfig{}
	profile := envConfig.Profile()
	instanceId := envConfig.InstanceID()

	providerHolder := crypto.NewProviderHolder(crypto.NewJweProvider(), crypto.NewAesEcbProvider())
	vault := security.NewConsentDataVault(providerHolder, envConfig.ServerKey())
	emitter := events.NewEmitter(events.LogSink{}, instanceId)

	consentRepo, authorisationRepo := repositories()

	consentService := consent.NewService(consentRepo, authorisationRepo, vault, emitter, profile, instanceId)
	resolver := authorisation.NewApproachResolver(profile)
	authorisationService := authorisation.NewService(authorisationRepo, consentService, resolver, emitter, profile, instanceId)

	consentController := api.NewConsentController(consentService)
	authorisationController := api.NewAuthorisationController(authorisationService)

	scheduler := chrono.NewDefaultTaskScheduler()
	_, err := scheduler.ScheduleAtFixedRate(func(ctx context.Context) {
		consentService.SweepExpiredConsents(ctx)
	}, envConfig.SweepInterval())
	if err != nil {
		logger.Fatalf("Was not able to schedule the expiry sweep. Err: %v", err)
	}

	router := gin.New()
	router.Use(logging.GinHandlerFunc(), gin.Recovery())

	metrics := ginmetrics.GetMonitor()
	metrics.SetMetricPath("/metrics")
	metrics.Use(router)

	router.GET("/health", api.HealthReq)

	router.POST("/v1/consents", consentController.CreateConsent)
	router.GET("/v1/consents/:id", consentController.GetConsent)
	router.GET("/v1/consents/:id/status", consentController.GetConsentStatus)
	router.DELETE("/v1/consents/:id", consentController.RevokeConsent)
	router.GET("/v1/consents/:id/data", consentController.GetConsentData)
	router.PUT("/v1/consents/:id/data", consentController.PutConsentData)
	router.POST("/v1/consents/:id/usages", consentController.CountUsage)

	router.POST("/v1/consents/:id/authorisations", authorisationController.CreateAuthorisation)
	router.GET("/v1/consents/:id/authorisations", authorisationController.ListAuthorisations)
	router.GET("/v1/authorisations/:authorisationId", authorisationController.GetAuthorisation)
	router.GET("/v1/authorisations/:authorisationId/status", authorisationController.GetScaStatus)
	router.PUT("/v1/authorisations/:authorisationId", authorisationController.UpdatePsuData)

	logger.Infof("Starting router at %v", serverPort)
	router.Run(fmt.Sprintf("0.0.0.0:%v", serverPort))

	scheduler.Shutdown()
}

/**
* Builds the repositories from the environment. Without a db the consents are
* kept in-memory, do NEVER use this for anything but development or testing!
 */
func repositories() (consent.ConsentRepository, authorisation.AuthorisationRepository) {
	dbEnabled, _ := strconv.ParseBool(os.Getenv("DB_ENABLED"))
	if !dbEnabled {
		logger.Warn("Consents are kept in-memory. No persistence will be applied, do NEVER use this for anything but development or testing!")
		return consent.NewInmemoryRepo(), authorisation.NewInmemoryRepo()
	}

	repository, err := db.Connect()
	if err != nil {
		logger.Fatalf("Was not able to connect to the db. Err: %v", err)
	}

	migrationCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	db.Migrate(migrationCtx, repository)

	return consent.NewSqlRepository(repository), authorisation.NewSqlRepository(repository)
}
