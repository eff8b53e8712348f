package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"voicecomplaint/internal/domain"
	"voicecomplaint/internal/usecase"
)

type fakeIdentity struct {
	identity domain.Identity
	ok       bool
}

func (f fakeIdentity) Current(context.Context) (domain.Identity, bool) { return f.identity, f.ok }

type fakeResolver struct {
	addr  domain.Address
	err   error
	calls []string
}

func (f *fakeResolver) Resolve(_ context.Context, pincode string) (domain.Address, error) {
	f.calls = append(f.calls, pincode)
	return f.addr, f.err
}

type fakeSubmitter struct {
	mu     sync.Mutex
	drafts []domain.ComplaintDraft
	result domain.SubmissionResult
	err    error
	waited bool
}

func (f *fakeSubmitter) Submit(_ context.Context, _ domain.Identity, draft domain.ComplaintDraft) (domain.SubmissionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drafts = append(f.drafts, draft)
	return f.result, f.err
}

func (f *fakeSubmitter) Wait() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.waited = true
}

type fakeRecords struct {
	record domain.AccountRecord
	err    error
}

func (f fakeRecords) Load(context.Context) (domain.AccountRecord, error) { return f.record, f.err }

type fakeRegistrar struct {
	called bool
	err    error
}

func (f fakeRegistrar) EnsureRegistered(context.Context) (bool, error) { return f.called, f.err }

func newDeps() (*Dependencies, *fakeResolver, *fakeSubmitter) {
	resolver := &fakeResolver{addr: domain.Address{City: "Mumbai", District: "Mumbai", State: "Maharashtra"}}
	submitter := &fakeSubmitter{result: domain.SubmissionResult{
		AccountID: "u1",
		Receipt:   domain.ComplaintReceipt{ComplaintID: "c1", DisplayName: "Jane", Email: "j@x.com"},
	}}
	return &Dependencies{
		Identity:  fakeIdentity{identity: domain.Identity{ID: "clerk-1", DisplayName: "Jane", Email: "j@x.com"}, ok: true},
		Resolver:  resolver,
		Pipeline:  submitter,
		Records:   fakeRecords{},
		Registrar: fakeRegistrar{},
	}, resolver, submitter
}

func execute(t *testing.T, deps *Dependencies, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd(deps)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

const completeDraft = `
name = "Jane"
phone = "9876543210"
pincode = "400001"
street = "12 Marine Drive"
voice_sample = "voice.wav"
call_recording = "call.mp3"
scammer_phone = "9000000000"
subject = "Fake bank call"
description = "Asked for OTP"
call_frequency = 3
date = "2024-05-01"
amount_scammed = "2500"
`

func writeDraft(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string][]byte{
		"draft.toml": []byte(content),
		"voice.wav":  append([]byte("RIFF\x24\x00\x00\x00WAVEfmt "), make([]byte, 32)...),
		"call.mp3":   append([]byte("ID3\x03\x00\x00\x00\x00\x00\x00"), make([]byte, 32)...),
		"notes.txt":  []byte("plain text notes"),
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o600); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}
	return filepath.Join(dir, "draft.toml")
}

func TestSubmitResolvesAddressAndWaitsForNotice(t *testing.T) {
	t.Parallel()

	deps, resolver, submitter := newDeps()
	out, err := execute(t, deps, "submit", "--draft", writeDraft(t, completeDraft))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !strings.Contains(out, "Complaint c1 registered for Jane") {
		t.Fatalf("unexpected output: %q", out)
	}
	if len(resolver.calls) != 1 || resolver.calls[0] != "400001" {
		t.Fatalf("expected one pincode lookup, got %v", resolver.calls)
	}
	if len(submitter.drafts) != 1 || !submitter.waited {
		t.Fatalf("expected one submission followed by wait")
	}

	draft := submitter.drafts[0]
	if draft.City != "Mumbai" || draft.State != "Maharashtra" || draft.CallFrequency != 3 {
		t.Fatalf("unexpected draft: %+v", draft)
	}
	if draft.Date == nil || !draft.Date.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date: %v", draft.Date)
	}
	if draft.VoiceSample == nil || draft.VoiceSample.Name() != "voice.wav" || !strings.HasPrefix(draft.VoiceSample.MIMEType(), "audio/") {
		t.Fatalf("unexpected voice sample: %+v", draft.VoiceSample)
	}
	if draft.CallRecording == nil || draft.CallRecording.Name() != "call.mp3" {
		t.Fatalf("unexpected call recording: %+v", draft.CallRecording)
	}
}

func TestSubmitDefaultsCallFrequencyToOne(t *testing.T) {
	t.Parallel()

	deps, _, submitter := newDeps()
	content := strings.Replace(completeDraft, "call_frequency = 3\n", "", 1)
	if _, err := execute(t, deps, "submit", "--draft", writeDraft(t, content)); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if len(submitter.drafts) != 1 || submitter.drafts[0].CallFrequency != 1 {
		t.Fatalf("expected call frequency to default to 1, got %+v", submitter.drafts)
	}
}

func TestSubmitRejectsIncompleteDraft(t *testing.T) {
	t.Parallel()

	deps, _, submitter := newDeps()
	content := strings.Replace(completeDraft, `subject = "Fake bank call"`, "", 1)
	_, err := execute(t, deps, "submit", "--draft", writeDraft(t, content))
	if !errors.Is(err, domain.ErrMissingFields) || !strings.Contains(err.Error(), "subject") {
		t.Fatalf("expected missing subject, got %v", err)
	}
	if len(submitter.drafts) != 0 {
		t.Fatalf("pipeline must not run for an incomplete draft")
	}
}

func TestSubmitRejectsInvalidValuesAndFiles(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		from string
		to   string
		want error
	}{
		{name: "frequency", from: "call_frequency = 3", to: "call_frequency = -2", want: domain.ErrInvalidValue},
		{name: "date", from: `date = "2024-05-01"`, to: `date = "01/05/2024"`, want: domain.ErrInvalidValue},
		{name: "file type", from: `call_recording = "call.mp3"`, to: `call_recording = "notes.txt"`, want: domain.ErrInvalidFileType},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			deps, _, _ := newDeps()
			content := strings.Replace(completeDraft, tc.from, tc.to, 1)
			if _, err := execute(t, deps, "submit", "--draft", writeDraft(t, content)); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSubmitReportsPipelineMessage(t *testing.T) {
	t.Parallel()

	deps, _, submitter := newDeps()
	submitter.err = &usecase.SubmissionError{
		Stage:   usecase.StageRegister,
		Message: "duplicate phone number",
		Err:     &domain.BackendError{Status: 400, Message: "duplicate phone number"},
	}
	_, err := execute(t, deps, "submit", "--draft", writeDraft(t, completeDraft))
	if err == nil || err.Error() != "duplicate phone number" {
		t.Fatalf("expected backend message, got %v", err)
	}
}

func TestSubmitRequiresIdentity(t *testing.T) {
	t.Parallel()

	deps, _, _ := newDeps()
	deps.Identity = fakeIdentity{}
	if _, err := execute(t, deps, "submit", "--draft", writeDraft(t, completeDraft)); !errors.Is(err, domain.ErrNotSignedIn) {
		t.Fatalf("expected not signed in, got %v", err)
	}
}

func TestPincodeCommand(t *testing.T) {
	t.Parallel()

	deps, resolver, _ := newDeps()
	out, err := execute(t, deps, "pincode", "400001")
	if err != nil {
		t.Fatalf("pincode failed: %v", err)
	}
	if !strings.Contains(out, "City:     Mumbai") || !strings.Contains(out, "State:    Maharashtra") {
		t.Fatalf("unexpected output: %q", out)
	}

	resolver.err = domain.ErrAddressNotFound
	if _, err := execute(t, deps, "pincode", "999999"); err == nil || !strings.Contains(err.Error(), "could not find") {
		t.Fatalf("expected not found message, got %v", err)
	}
}

func TestRecordsCommand(t *testing.T) {
	t.Parallel()

	deps, _, _ := newDeps()
	deps.Records = fakeRecords{record: domain.AccountRecord{
		Username: "Jane",
		Email:    "j@x.com",
		PreviousComplaints: []domain.ComplaintEntry{
			{ComplaintID: "c2", Date: time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)},
			{ComplaintID: "c1", Date: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
		},
	}}
	out, err := execute(t, deps, "records")
	if err != nil {
		t.Fatalf("records failed: %v", err)
	}
	if !strings.Contains(out, "Jane <j@x.com>") || strings.Index(out, "c2") > strings.Index(out, "c1") {
		t.Fatalf("unexpected output: %q", out)
	}

	deps.Records = fakeRecords{}
	out, err = execute(t, deps, "records")
	if err != nil || !strings.Contains(out, "No complaints found") {
		t.Fatalf("unexpected empty output: %q %v", out, err)
	}
}

func TestRegisterCommand(t *testing.T) {
	t.Parallel()

	deps, _, _ := newDeps()
	deps.Registrar = fakeRegistrar{called: true}
	out, err := execute(t, deps, "register")
	if err != nil || !strings.Contains(out, "Account registered") {
		t.Fatalf("unexpected output: %q %v", out, err)
	}

	deps.Registrar = fakeRegistrar{}
	out, err = execute(t, deps, "register")
	if err != nil || !strings.Contains(out, "already registered") {
		t.Fatalf("unexpected output: %q %v", out, err)
	}

	deps.Registrar = fakeRegistrar{err: errors.New("boom")}
	if _, err := execute(t, deps, "register"); err == nil {
		t.Fatalf("expected registration error")
	}
}
