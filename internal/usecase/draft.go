package usecase

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"voicecomplaint/internal/domain"
)

// Draft transitions never mutate their input; each returns the next draft.

// defaultCallFrequency is the call count a fresh draft starts with.
const defaultCallFrequency = 1

// seedDraft returns an empty draft pre-filled from the signed-in identity.
func seedDraft(identity domain.Identity, signedIn bool) domain.ComplaintDraft {
	if !signedIn {
		return domain.ComplaintDraft{CallFrequency: defaultCallFrequency}
	}
	return domain.ComplaintDraft{
		Name:          strings.TrimSpace(identity.DisplayName),
		UserPhone:     digitsOnly(identity.Phone),
		CallFrequency: defaultCallFrequency,
	}
}

// withSeed fills name and phone from the identity, leaving other fields alone.
func withSeed(d domain.ComplaintDraft, identity domain.Identity) domain.ComplaintDraft {
	seeded := seedDraft(identity, true)
	d.Name = seeded.Name
	d.UserPhone = seeded.UserPhone
	return d
}

func withAddress(d domain.ComplaintDraft, addr domain.Address) domain.ComplaintDraft {
	d.City = addr.City
	d.District = addr.District
	d.State = addr.State
	return d
}

func withoutAddress(d domain.ComplaintDraft) domain.ComplaintDraft {
	return withAddress(d, domain.Address{})
}

func withPincode(d domain.ComplaintDraft, pincode string) domain.ComplaintDraft {
	d.Pincode = pincode
	if !pincodeComplete(pincode) {
		d = withoutAddress(d)
	}
	return d
}

func withAsset(d domain.ComplaintDraft, slot domain.SlotID, asset domain.AudioAsset) domain.ComplaintDraft {
	switch slot {
	case domain.SlotVoiceSample:
		d.VoiceSample = &asset
	case domain.SlotCallRecording:
		d.CallRecording = &asset
	}
	return d
}

func withoutAsset(d domain.ComplaintDraft, slot domain.SlotID) domain.ComplaintDraft {
	switch slot {
	case domain.SlotVoiceSample:
		d.VoiceSample = nil
	case domain.SlotCallRecording:
		d.CallRecording = nil
	}
	return d
}

// withField applies a text edit. Numeric and date fields are parsed and
// rejected with domain.ErrInvalidValue when malformed.
func withField(d domain.ComplaintDraft, field domain.Field, value string) (domain.ComplaintDraft, error) {
	switch field {
	case domain.FieldName:
		d.Name = value
	case domain.FieldUserPhone:
		d.UserPhone = value
	case domain.FieldPincode:
		d = withPincode(d, value)
	case domain.FieldCity:
		d.City = value
	case domain.FieldDistrict:
		d.District = value
	case domain.FieldState:
		d.State = value
	case domain.FieldStreet:
		d.Street = value
	case domain.FieldScammerPhone:
		d.ScammerPhone = value
	case domain.FieldSubject:
		d.Subject = value
	case domain.FieldDescription:
		d.Description = value
	case domain.FieldCallFrequency:
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			d.CallFrequency = 0
			break
		}
		n, err := strconv.Atoi(trimmed)
		if err != nil || n < 1 {
			return d, fmt.Errorf("%w: call frequency must be a whole number of at least 1", domain.ErrInvalidValue)
		}
		d.CallFrequency = n
	case domain.FieldAmountScammed:
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			amount, err := strconv.ParseFloat(trimmed, 64)
			if err != nil || amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
				return d, fmt.Errorf("%w: amount scammed must be a number of at least 0", domain.ErrInvalidValue)
			}
		}
		d.AmountScammed = trimmed
	case domain.FieldDate:
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			d.Date = nil
			break
		}
		date, err := time.Parse(domain.DateLayout, trimmed)
		if err != nil {
			return d, fmt.Errorf("%w: date must use YYYY-MM-DD", domain.ErrInvalidValue)
		}
		d.Date = &date
	default:
		return d, fmt.Errorf("%w: unknown field %q", domain.ErrInvalidValue, field)
	}
	return d, nil
}

func draftView(d domain.ComplaintDraft) domain.DraftView {
	view := domain.DraftView{
		Name:          d.Name,
		UserPhone:     d.UserPhone,
		Pincode:       d.Pincode,
		City:          d.City,
		District:      d.District,
		State:         d.State,
		Street:        d.Street,
		ScammerPhone:  d.ScammerPhone,
		Subject:       d.Subject,
		Description:   d.Description,
		CallFrequency: d.CallFrequency,
		AmountScammed: d.AmountScammed,
	}
	if d.VoiceSample != nil {
		view.VoiceSample = d.VoiceSample.Name()
	}
	if d.CallRecording != nil {
		view.CallRecording = d.CallRecording.Name()
	}
	if d.Date != nil {
		view.Date = d.Date.Format(domain.DateLayout)
	}
	return view
}

func pincodeComplete(pincode string) bool {
	return len([]rune(pincode)) == 6
}

func digitsOnly(value string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, value)
}

// ApplyField sets one text field on d with the validation the wizard uses.
// Unlike the wizard it never resolves the pincode.
func ApplyField(d domain.ComplaintDraft, field domain.Field, value string) (domain.ComplaintDraft, error) {
	return withField(d, field, value)
}

// NewDraft returns the draft a fresh wizard starts from.
func NewDraft() domain.ComplaintDraft {
	return seedDraft(domain.Identity{}, false)
}
