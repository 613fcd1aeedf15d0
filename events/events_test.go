package events

import (
	"testing"

	pkgErrors "github.com/pkg/errors"
)

type failingSink struct {
	recorded int
}

func (sink *failingSink) Record(event Event) error {
	sink.recorded = sink.recorded + 1
	return pkgErrors.New("sink unavailable")
}

/**
* A failing sink must never break the emitting transition.
 */
func TestFailingSinkIsSwallowed(t *testing.T) {
	sink := &failingSink{}
	emitter := NewEmitter(sink, "my-instance")

	emitter.Emit(ConsentStatusChanged, OriginAspsp, "consent-42", "", nil)

	if sink.recorded != 1 {
		t.Errorf("The sink should have been called exactly once, but was called %d times.", sink.recorded)
	}
}

type capturingSink struct {
	last Event
}

func (sink *capturingSink) Record(event Event) error {
	sink.last = event
	return nil
}

func TestEventEnvelope(t *testing.T) {
	sink := &capturingSink{}
	emitter := NewEmitter(sink, "my-instance")

	emitter.Emit(AuthorisationStatusChanged, OriginPsu, "consent-42", "authorisation-7", map[string]string{"newStatus": "FINALISED"})

	if sink.last.EventID == "" || sink.last.Timestamp.IsZero() {
		t.Errorf("Every event needs an id and a timestamp.")
	}
	if sink.last.ConsentID != "consent-42" || sink.last.AuthorisationID != "authorisation-7" {
		t.Errorf("The event does not reference the right records: %v.", sink.last)
	}
	if sink.last.InstanceID != "my-instance" {
		t.Errorf("The event should carry the emitting instance, but was %s.", sink.last.InstanceID)
	}
}
