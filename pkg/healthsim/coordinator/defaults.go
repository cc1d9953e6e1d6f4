package coordinator

import (
	"github.com/randalmurphal/healthsim/pkg/healthsim/timeline"
	"github.com/randalmurphal/healthsim/pkg/healthsim/trigger"
)

// InstallDefaultTriggers registers the standard clinical-to-claims and
// clinical-to-pharmacy rules on reg:
//
//	patientsim/diagnosis        -> membersim/claim   1-14 days  icd10  -> diagnosis_code
//	patientsim/medication_order -> membersim/claim   0-3 days   rxnorm -> drug_code
//	patientsim/medication_order -> rxmembersim/fill  0-2 days   rxnorm -> drug_code
//	patientsim/procedure        -> membersim/claim   1-14 days  cpt    -> procedure_code
func InstallDefaultTriggers(reg *trigger.Registry) error {
	defaults := []struct {
		source, target trigger.Key
		delay          timeline.EventDelay
		params         map[string]string
	}{
		{
			source: trigger.Key{Product: "patientsim", EventType: "diagnosis"},
			target: trigger.Key{Product: "membersim", EventType: "claim"},
			delay:  timeline.Days(1, 14),
			params: map[string]string{"icd10": "diagnosis_code"},
		},
		{
			source: trigger.Key{Product: "patientsim", EventType: "medication_order"},
			target: trigger.Key{Product: "membersim", EventType: "claim"},
			delay:  timeline.Days(0, 3),
			params: map[string]string{"rxnorm": "drug_code"},
		},
		{
			source: trigger.Key{Product: "patientsim", EventType: "medication_order"},
			target: trigger.Key{Product: "rxmembersim", EventType: "fill"},
			delay:  timeline.Days(0, 2),
			params: map[string]string{"rxnorm": "drug_code"},
		},
		{
			source: trigger.Key{Product: "patientsim", EventType: "procedure"},
			target: trigger.Key{Product: "membersim", EventType: "claim"},
			delay:  timeline.Days(1, 14),
			params: map[string]string{"cpt": "procedure_code"},
		},
	}

	for _, d := range defaults {
		if err := reg.Register(d.source.Product, d.source.EventType, d.target.Product, d.target.EventType,
			trigger.WithDelay(d.delay),
			trigger.WithParameterMap(d.params),
		); err != nil {
			return err
		}
	}
	return nil
}
