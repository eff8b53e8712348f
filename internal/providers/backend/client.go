package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"voicecomplaint/internal/domain"
	"voicecomplaint/internal/ports"
)

// ErrIncompleteReceipt means the confirmation cannot be addressed.
var ErrIncompleteReceipt = errors.New("receipt lacks email, name or complaint id")

// Config controls the backend registration API client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client implements ports.ComplaintBackend over the registration HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("backend base URL is not configured")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid backend base URL: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

var _ ports.ComplaintBackend = (*Client)(nil)

type userEnvelope struct {
	User *userRecord `json:"User Found"`
}

type userRecord struct {
	ID                 string           `json:"_id"`
	Username           string           `json:"username"`
	Email              string           `json:"email"`
	PhoneNumber        string           `json:"phoneNumber"`
	AudioURL           string           `json:"audioUrl"`
	CreatedAt          wireTime         `json:"createdAt"`
	UpdatedAt          wireTime         `json:"updatedAt"`
	PreviousComplaints []complaintEntry `json:"previousComplaints"`
}

type complaintEntry struct {
	ComplaintID   string    `json:"complaint_id"`
	ComplaintDate wireTime `json:"complaint_date"`
}

// wireTime decodes backend timestamps leniently. Empty, null, non-string
// and unparseable values decode to the zero time instead of failing the
// whole record.
type wireTime struct {
	time.Time
}

var wireTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	domain.DateLayout,
}

func (w *wireTime) UnmarshalJSON(data []byte) error {
	w.Time = time.Time{}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	raw = strings.TrimSpace(raw)
	for _, layout := range wireTimeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			w.Time = parsed
			return nil
		}
	}
	if raw != "" {
		log.Debug().Str("value", raw).Msg("Ignoring unparseable backend timestamp")
	}
	return nil
}

type registerResponse struct {
	Email   string `json:"email"`
	Details struct {
		ID       string `json:"_id"`
		Username string `json:"username"`
	} `json:"complaint details"`
}

// LookupAccount resolves the backend user record of an identity.
func (c *Client) LookupAccount(ctx context.Context, identityID string) (domain.AccountRecord, error) {
	if strings.TrimSpace(identityID) == "" {
		return domain.AccountRecord{}, domain.ErrUserNotFound
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/user/clerkId/"+url.PathEscape(identityID), nil)
	if err != nil {
		return domain.AccountRecord{}, fmt.Errorf("failed to build lookup request: %w", err)
	}

	var envelope userEnvelope
	status, err := c.doJSON(req, &envelope)
	if status == http.StatusNotFound {
		return domain.AccountRecord{}, fmt.Errorf("%w: %v", domain.ErrUserNotFound, err)
	}
	if err != nil {
		return domain.AccountRecord{}, err
	}
	if envelope.User == nil || envelope.User.ID == "" {
		return domain.AccountRecord{}, domain.ErrUserNotFound
	}

	u := envelope.User
	record := domain.AccountRecord{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		AudioURL:    u.AudioURL,
		CreatedAt:   u.CreatedAt.Time,
		UpdatedAt:   u.UpdatedAt.Time,
	}
	for _, entry := range u.PreviousComplaints {
		record.PreviousComplaints = append(record.PreviousComplaints, domain.ComplaintEntry{
			ComplaintID: entry.ComplaintID,
			Date:        entry.ComplaintDate.Time,
		})
	}
	return record, nil
}

// RegisterComplaint posts the full draft with both audio payloads.
func (c *Client) RegisterComplaint(ctx context.Context, submission ports.ComplaintSubmission) (domain.ComplaintReceipt, error) {
	body, contentType, err := encodeComplaint(submission)
	if err != nil {
		return domain.ComplaintReceipt{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/complaint/register", body)
	if err != nil {
		return domain.ComplaintReceipt{}, fmt.Errorf("failed to build complaint request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	log.Debug().Int("bytes", body.Len()).Str("account_id", submission.AccountID).Msg("Posting complaint")

	var resp registerResponse
	if _, err := c.doJSON(req, &resp); err != nil {
		return domain.ComplaintReceipt{}, err
	}
	if resp.Details.ID == "" {
		return domain.ComplaintReceipt{}, errors.New("complaint response did not include an id")
	}
	return domain.ComplaintReceipt{
		ComplaintID: resp.Details.ID,
		DisplayName: resp.Details.Username,
		Email:       resp.Email,
	}, nil
}

// SendConfirmation asks the backend to mail the complaint receipt.
func (c *Client) SendConfirmation(ctx context.Context, receipt domain.ComplaintReceipt) error {
	if receipt.Email == "" || receipt.DisplayName == "" || receipt.ComplaintID == "" {
		return ErrIncompleteReceipt
	}

	form := url.Values{}
	form.Set("email", receipt.Email)
	form.Set("username", receipt.DisplayName)
	form.Set("complaint_id", receipt.ComplaintID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/mail", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	_, err = c.doJSON(req, nil)
	return err
}

// RegisterUser creates the backend user for an identity. Only 201 Created
// counts as success.
func (c *Client) RegisterUser(ctx context.Context, identity domain.Identity) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"username", identity.DisplayName},
		{"email", identity.Email},
		{"phoneNumber", identity.Phone},
		{"clerkUserId", identity.ID},
	}
	for _, f := range fields {
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return fmt.Errorf("failed to write %s: %w", f[0], err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish registration form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/register", &buf)
	if err != nil {
		return fmt.Errorf("failed to build registration request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	status, err := c.doJSON(req, nil)
	if err != nil {
		return err
	}
	if status != http.StatusCreated {
		return &domain.BackendError{Status: status, Message: "registration was not created"}
	}
	return nil
}

func encodeComplaint(s ports.ComplaintSubmission) (*bytes.Buffer, string, error) {
	d := s.Draft
	if d.CallRecording == nil {
		return nil, "", fmt.Errorf("%w: call recording", domain.ErrMissingFields)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"username", d.Name},
		{"userId", s.AccountID},
		{"clerkUserId", s.Identity.ID},
		{"email", s.Identity.Email},
		{"userPhoneNumber", d.UserPhone},
		{"scammerPhoneNumber", d.ScammerPhone},
		{"callFrequency", strconv.Itoa(d.CallFrequency)},
	}
	for _, f := range fields {
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("failed to write %s: %w", f[0], err)
		}
	}

	if d.VoiceSample != nil {
		if err := writeAudioPart(writer, "userSampleAudio", *d.VoiceSample); err != nil {
			return nil, "", err
		}
	}
	if err := writeAudioPart(writer, "userConversationAudio", *d.CallRecording); err != nil {
		return nil, "", err
	}

	fields = [][2]string{
		{"city", d.City},
		{"district", d.District},
		{"state", d.State},
		{"pincode", d.Pincode},
		{"streetAddress", d.Street},
		{"complainSubject", d.Subject},
		{"incidentDescription", d.Description},
		{"moneyScammed", d.AmountScammed},
	}
	if d.Date != nil {
		fields = append(fields, [2]string{"dateOfIncident", d.Date.Format(domain.DateLayout)})
	}
	for _, f := range fields {
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("failed to write %s: %w", f[0], err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish complaint form: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}

// writeAudioPart keeps the asset's real MIME type; CreateFormFile would
// force application/octet-stream.
func writeAudioPart(writer *multipart.Writer, field string, asset domain.AudioAsset) error {
	name := asset.Name()
	if name == "" {
		name = field
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, name))
	mimeType := asset.MIMEType()
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	header.Set("Content-Type", mimeType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to create %s part: %w", field, err)
	}
	if _, err := io.Copy(part, asset.Reader()); err != nil {
		return fmt.Errorf("failed to write %s: %w", field, err)
	}
	return nil
}

// doJSON sends req and decodes a 2xx body into out when out is non-nil.
// Non-2xx responses become *domain.BackendError.
func (c *Client) doJSON(req *http.Request, out any) (int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read backend response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, &domain.BackendError{Status: resp.StatusCode, Message: errorMessage(body)}
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode backend response: %w", err)
	}
	return resp.StatusCode, nil
}

// errorMessage extracts the backend reason from detail, detail.error,
// message or error, in that order.
func errorMessage(body []byte) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if len(payload.Detail) > 0 {
		var text string
		if err := json.Unmarshal(payload.Detail, &text); err == nil && text != "" {
			return text
		}
		var nested struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(payload.Detail, &nested); err == nil && nested.Error != "" {
			return nested.Error
		}
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}
