package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/obgateway/consent-cms/logging"
)

var logger = logging.Log()

type EventType string

const (
	ConsentCreated             EventType = "CONSENT_CREATED"
	ConsentStatusChanged       EventType = "CONSENT_STATUS_CHANGED"
	AuthorisationCreated       EventType = "AUTHORISATION_CREATED"
	AuthorisationStatusChanged EventType = "AUTHORISATION_STATUS_CHANGED"
)

type EventOrigin string

const (
	OriginPsu   EventOrigin = "PSU"
	OriginTpp   EventOrigin = "TPP"
	OriginAspsp EventOrigin = "ASPSP"
)

/**
* Record of one consent or authorisation state change, handed to the audit
* sink. The sink decides about its storage format.
 */
type Event struct {
	EventID         string      `json:"eventId"`
	Timestamp       time.Time   `json:"timestamp"`
	EventType       EventType   `json:"eventType"`
	Origin          EventOrigin `json:"eventOrigin"`
	ConsentID       string      `json:"consentId,omitempty"`
	AuthorisationID string      `json:"authorisationId,omitempty"`
	InstanceID      string      `json:"instanceId,omitempty"`
	Payload         interface{} `json:"payload,omitempty"`
}

type EventSink interface {
	Record(event Event) error
}

/**
* Emits audit events to the configured sink. A failing sink is logged and
* swallowed, it must never roll back the state transition it describes.
 */
type Emitter struct {
	sink       EventSink
	instanceId string
}

func NewEmitter(sink EventSink, instanceId string) *Emitter {
	emitter := new(Emitter)
	emitter.sink = sink
	emitter.instanceId = instanceId
	return emitter
}

func (emitter *Emitter) Emit(eventType EventType, origin EventOrigin, consentId string, authorisationId string, payload interface{}) {
	event := Event{
		EventID:         uuid.NewString(),
		Timestamp:       time.Now(),
		EventType:       eventType,
		Origin:          origin,
		ConsentID:       consentId,
		AuthorisationID: authorisationId,
		InstanceID:      emitter.instanceId,
		Payload:         payload,
	}
	if err := emitter.sink.Record(event); err != nil {
		logger.Warnf("Audit sink rejected event %s of type %s: %v", event.EventID, eventType, err)
	}
}

/**
* Default sink, writes the event to the log.
 */
type LogSink struct{}

func (LogSink) Record(event Event) error {
	logger.WithField("eventId", event.EventID).
		WithField("eventType", string(event.EventType)).
		WithField("consentId", event.ConsentID).
		WithField("authorisationId", event.AuthorisationID).
		Info("audit event")
	return nil
}
