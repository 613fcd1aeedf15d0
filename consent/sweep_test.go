package consent

import (
	"context"
	"testing"
	"time"

	"github.com/obgateway/consent-cms/events"
	"github.com/obgateway/consent-cms/model"
)

/**
* A consent past its expire date is swept to EXPIRED exactly once, the second
* sweep finds nothing to do and emits nothing.
 */
func TestSweepIsIdempotent(t *testing.T) {
	reader := &stubAuthorisationReader{}
	service, sink, clock := getService(reader)

	response, _ := service.CreateConsent(context.Background(), getCreateRequest(4, model.PsuIdData{PsuID: "psu-1"}))
	reader.authorisations = getFinalised(1)
	service.RecalculateStatus(context.Background(), response.ConsentID)

	clock.now = clock.now.Add(48 * time.Hour)

	service.SweepExpiredConsents(context.Background())
	status, _ := service.GetConsentStatus(context.Background(), response.ConsentID)
	if status != model.ConsentStatusExpired {
		t.Fatalf("The sweep should expire the consent, but it is %s.", status)
	}

	emitted := sink.countByType(events.ConsentStatusChanged)
	service.SweepExpiredConsents(context.Background())

	if sink.countByType(events.ConsentStatusChanged) != emitted {
		t.Errorf("A second sweep over an already expired consent must not emit events.")
	}
	if status, _ := service.GetConsentStatus(context.Background(), response.ConsentID); status != model.ConsentStatusExpired {
		t.Errorf("A second sweep must not change the status, but it is %s.", status)
	}
}

func TestSweepLeavesUnexpiredConsentsAlone(t *testing.T) {
	reader := &stubAuthorisationReader{}
	service, _, _ := getService(reader)

	response, _ := service.CreateConsent(context.Background(), getCreateRequest(4, model.PsuIdData{PsuID: "psu-1"}))
	reader.authorisations = getFinalised(1)
	service.RecalculateStatus(context.Background(), response.ConsentID)

	service.SweepExpiredConsents(context.Background())
	if status, _ := service.GetConsentStatus(context.Background(), response.ConsentID); status != model.ConsentStatusValid {
		t.Errorf("The sweep must leave a valid consent alone, but it is %s.", status)
	}
}

/**
* The sweep also rejects received consents that outlived the authorisation
* window.
 */
func TestSweepRejectsUnconfirmedConsents(t *testing.T) {
	service, _, clock := getService(&stubAuthorisationReader{})

	request := getCreateRequest(4, model.PsuIdData{PsuID: "psu-1"})
	request.ValidUntil = "2026-06-30"
	response, _ := service.CreateConsent(context.Background(), request)

	clock.now = clock.now.Add(25 * time.Hour)
	service.SweepExpiredConsents(context.Background())

	if status, _ := service.GetConsentStatus(context.Background(), response.ConsentID); status != model.ConsentStatusRejected {
		t.Errorf("The sweep should reject an unconfirmed consent, but it is %s.", status)
	}
}
