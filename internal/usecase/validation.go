package usecase

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"voicecomplaint/internal/domain"
)

const (
	missingStepOneMessage = "Please fill in all required fields in this step"
	missingStepTwoMessage = "Please fill in all required fields"
)

type requirement struct {
	field   string
	present func(d domain.ComplaintDraft) bool
}

func filled(value string) bool { return strings.TrimSpace(value) != "" }

var stepRequirements = map[domain.WizardStep][]requirement{
	domain.Step1: {
		{field: string(domain.FieldName), present: func(d domain.ComplaintDraft) bool { return filled(d.Name) }},
		{field: string(domain.FieldUserPhone), present: func(d domain.ComplaintDraft) bool { return filled(d.UserPhone) }},
		{field: string(domain.FieldPincode), present: func(d domain.ComplaintDraft) bool { return filled(d.Pincode) }},
		{field: string(domain.FieldCity), present: func(d domain.ComplaintDraft) bool { return filled(d.City) }},
		{field: string(domain.FieldState), present: func(d domain.ComplaintDraft) bool { return filled(d.State) }},
		{field: string(domain.FieldDistrict), present: func(d domain.ComplaintDraft) bool { return filled(d.District) }},
		{field: string(domain.FieldStreet), present: func(d domain.ComplaintDraft) bool { return filled(d.Street) }},
		{field: string(domain.SlotVoiceSample), present: func(d domain.ComplaintDraft) bool { return d.VoiceSample != nil }},
	},
	domain.Step2: {
		{field: string(domain.FieldScammerPhone), present: func(d domain.ComplaintDraft) bool { return filled(d.ScammerPhone) }},
		{field: string(domain.SlotCallRecording), present: func(d domain.ComplaintDraft) bool { return d.CallRecording != nil }},
		{field: string(domain.FieldSubject), present: func(d domain.ComplaintDraft) bool { return filled(d.Subject) }},
		{field: string(domain.FieldDescription), present: func(d domain.ComplaintDraft) bool { return filled(d.Description) }},
		{field: string(domain.FieldAmountScammed), present: func(d domain.ComplaintDraft) bool { return filled(d.AmountScammed) }},
		{field: string(domain.FieldCallFrequency), present: func(d domain.ComplaintDraft) bool { return d.CallFrequency >= 1 }},
	},
}

// MissingFields lists the required entries of step that are absent from d.
func MissingFields(d domain.ComplaintDraft, step domain.WizardStep) []string {
	missing := lo.Filter(stepRequirements[step], func(r requirement, _ int) bool {
		return !r.present(d)
	})
	return lo.Map(missing, func(r requirement, _ int) string { return r.field })
}

// ValidateDraft checks both steps and wraps domain.ErrMissingFields.
func ValidateDraft(d domain.ComplaintDraft) error {
	missing := append(MissingFields(d, domain.Step1), MissingFields(d, domain.Step2)...)
	if len(missing) == 0 {
		return nil
	}
	return missingFieldsError(missing)
}

func missingFieldsError(missing []string) error {
	return fmt.Errorf("%w: %s", domain.ErrMissingFields, strings.Join(missing, ", "))
}
