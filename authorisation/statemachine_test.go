package authorisation

import (
	"testing"

	"github.com/obgateway/consent-cms/model"
)

type transitionTest struct {
	testName string
	from     model.ScaStatus
	to       model.ScaStatus
	allowed  bool
}

func getTransitionTests() []transitionTest {
	return []transitionTest{
		{"Allow received to psu identified.", model.ScaStatusReceived, model.ScaStatusPsuIdentified, true},
		{"Allow psu identified to psu authenticated.", model.ScaStatusPsuIdentified, model.ScaStatusPsuAuthenticated, true},
		{"Allow psu authenticated to method selected.", model.ScaStatusPsuAuthenticated, model.ScaStatusScaMethodSelected, true},
		{"Allow method selected to started.", model.ScaStatusScaMethodSelected, model.ScaStatusStarted, true},
		{"Allow started to finalised.", model.ScaStatusStarted, model.ScaStatusFinalised, true},
		{"Allow skipping the started step.", model.ScaStatusScaMethodSelected, model.ScaStatusFinalised, true},
		{"Allow the direct redirect finalisation.", model.ScaStatusReceived, model.ScaStatusFinalised, true},
		{"Allow failing from received.", model.ScaStatusReceived, model.ScaStatusFailed, true},
		{"Allow failing from started.", model.ScaStatusStarted, model.ScaStatusFailed, true},
		{"Allow exempting from received.", model.ScaStatusReceived, model.ScaStatusExempted, true},
		{"Reject exempting after psu interaction.", model.ScaStatusPsuIdentified, model.ScaStatusExempted, false},
		{"Reject selecting a method before authentication.", model.ScaStatusPsuIdentified, model.ScaStatusScaMethodSelected, false},
		{"Reject skipping the identification.", model.ScaStatusReceived, model.ScaStatusPsuAuthenticated, false},
		{"Reject moving backwards.", model.ScaStatusPsuAuthenticated, model.ScaStatusPsuIdentified, false},
		{"Reject selecting a method before authentication going backwards.", model.ScaStatusScaMethodSelected, model.ScaStatusPsuAuthenticated, false},
		{"Reject re-applying the current status.", model.ScaStatusStarted, model.ScaStatusStarted, false},
		{"Reject resurrecting a failed authorisation.", model.ScaStatusFailed, model.ScaStatusPsuIdentified, false},
		{"Reject resurrecting a finalised authorisation.", model.ScaStatusFinalised, model.ScaStatusStarted, false},
		{"Reject failing a finalised authorisation.", model.ScaStatusFinalised, model.ScaStatusFailed, false},
		{"Reject leaving an exempted authorisation.", model.ScaStatusExempted, model.ScaStatusFinalised, false},
	}
}

func TestCanTransition(t *testing.T) {
	for _, tc := range getTransitionTests() {
		t.Run(tc.testName, func(t *testing.T) {
			if CanTransition(tc.from, tc.to) != tc.allowed {
				t.Errorf("%s: Transition %s to %s, expected allowed=%v.", tc.testName, tc.from, tc.to, tc.allowed)
			}
		})
	}
}
