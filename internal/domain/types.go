package domain

import "time"

// CaptureState models the lifecycle of one audio capture slot.
type CaptureState string

const (
	CaptureStateEmpty     CaptureState = "empty"
	CaptureStateRecording CaptureState = "recording"
	CaptureStateUploading CaptureState = "uploading"
	CaptureStateCaptured  CaptureState = "captured"
	CaptureStatePlaying   CaptureState = "playing"
	CaptureStatePaused    CaptureState = "paused"
)

// HasAsset reports whether a finalized asset exists in this state.
func (s CaptureState) HasAsset() bool {
	switch s {
	case CaptureStateCaptured, CaptureStatePlaying, CaptureStatePaused:
		return true
	default:
		return false
	}
}

// SlotID names the two capture slots owned by the wizard.
type SlotID string

const (
	SlotVoiceSample   SlotID = "voice_sample"
	SlotCallRecording SlotID = "call_recording"
)

// Valid reports whether id names a known slot.
func (id SlotID) Valid() bool {
	return id == SlotVoiceSample || id == SlotCallRecording
}

// WizardStep is the current page of the complaint form.
type WizardStep int

const (
	Step1 WizardStep = 1
	Step2 WizardStep = 2
)

// Identity is the signed-in user as seen by the wizard.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
}

// Address is the locality resolved from a pincode.
type Address struct {
	City     string `json:"city"`
	District string `json:"district"`
	State    string `json:"state"`
}

// ComplaintDraft is the accumulated, unsubmitted form state.
type ComplaintDraft struct {
	Name      string
	UserPhone string

	Pincode  string
	City     string
	District string
	State    string
	Street   string

	VoiceSample   *AudioAsset
	CallRecording *AudioAsset

	ScammerPhone  string
	Subject       string
	Description   string
	CallFrequency int
	Date          *time.Time
	AmountScammed string
}

// Field identifies an editable text field of the draft.
type Field string

const (
	FieldName          Field = "name"
	FieldUserPhone     Field = "userPhone"
	FieldPincode       Field = "pincode"
	FieldCity          Field = "city"
	FieldDistrict      Field = "district"
	FieldState         Field = "state"
	FieldStreet        Field = "street"
	FieldScammerPhone  Field = "scammerPhone"
	FieldSubject       Field = "subject"
	FieldDescription   Field = "description"
	FieldCallFrequency Field = "callFrequency"
	FieldDate          Field = "date"
	FieldAmountScammed Field = "amountScammed"
)

// Derived reports whether the field is filled by pincode resolution.
func (f Field) Derived() bool {
	return f == FieldCity || f == FieldDistrict || f == FieldState
}

// DateLayout is the wire and input format of the incident date.
const DateLayout = "2006-01-02"

// DraftView is the UI-facing copy of a draft. Assets are reduced to names.
type DraftView struct {
	Name          string `json:"name"`
	UserPhone     string `json:"userPhone"`
	Pincode       string `json:"pincode"`
	City          string `json:"city"`
	District      string `json:"district"`
	State         string `json:"state"`
	Street        string `json:"street"`
	VoiceSample   string `json:"voiceSample,omitempty"`
	CallRecording string `json:"callRecording,omitempty"`
	ScammerPhone  string `json:"scammerPhone"`
	Subject       string `json:"subject"`
	Description   string `json:"description"`
	CallFrequency int    `json:"callFrequency"`
	Date          string `json:"date,omitempty"`
	AmountScammed string `json:"amountScammed"`
}

// WizardSnapshot summarizes the wizard for the UI.
type WizardSnapshot struct {
	Step          WizardStep              `json:"step"`
	Draft         DraftView               `json:"draft"`
	AddressLocked bool                    `json:"addressLocked"`
	Submitting    bool                    `json:"submitting"`
	SignedIn      bool                    `json:"signedIn"`
	Slots         map[SlotID]CaptureState `json:"slots"`
}

// NoticeLevel separates informational from destructive notices.
type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeError NoticeLevel = "error"
)

// NoticeCode identifies a user-facing notice.
type NoticeCode string

const (
	NoticeInvalidFileType     NoticeCode = "invalid_file_type"
	NoticeRecordingError      NoticeCode = "recording_error"
	NoticeMicrophoneBusy      NoticeCode = "microphone_busy"
	NoticeSlotBusy            NoticeCode = "slot_busy"
	NoticePlaybackError       NoticeCode = "playback_error"
	NoticeUploadComplete      NoticeCode = "upload_complete"
	NoticeInvalidPincode      NoticeCode = "invalid_pincode"
	NoticePincodeLookupFailed NoticeCode = "pincode_lookup_failed"
	NoticeInvalidValue        NoticeCode = "invalid_value"
	NoticeMissingFields       NoticeCode = "missing_fields"
	NoticeNotSignedIn         NoticeCode = "not_signed_in"
	NoticeSubmissionFailed    NoticeCode = "submission_failed"
	NoticeSubmitted           NoticeCode = "submitted"
	NoticeStartupFailed       NoticeCode = "startup_failed"
)

// Notice is a transient message shown to the user.
type Notice struct {
	Code    NoticeCode  `json:"code"`
	Level   NoticeLevel `json:"level"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
	Slot    SlotID      `json:"slot,omitempty"`
}

// Route is a navigation target in the UI.
type Route string

const RouteRecords Route = "/records"

// AccountRecord is the backend user record of the signed-in identity.
type AccountRecord struct {
	ID                 string           `json:"id"`
	Username           string           `json:"username"`
	Email              string           `json:"email"`
	PhoneNumber        string           `json:"phoneNumber"`
	AudioURL           string           `json:"audioUrl,omitempty"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
	PreviousComplaints []ComplaintEntry `json:"previousComplaints"`
}

// ComplaintEntry is one past complaint listed on the records view.
type ComplaintEntry struct {
	ComplaintID string    `json:"complaintId"`
	Date        time.Time `json:"date"`
}

// ComplaintReceipt is returned by the backend once a complaint is stored.
type ComplaintReceipt struct {
	ComplaintID string `json:"complaintId"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// SubmissionResult reports the outcome of a successful submission.
type SubmissionResult struct {
	AccountID string           `json:"accountId"`
	Receipt   ComplaintReceipt `json:"receipt"`
}
