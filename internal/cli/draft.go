package cli

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"

	"voicecomplaint/internal/capture"
	"voicecomplaint/internal/domain"
	"voicecomplaint/internal/ports"
	"voicecomplaint/internal/usecase"
)

// draftFile is the TOML form of a complaint. Audio paths are relative to
// the draft file.
type draftFile struct {
	Name          string `toml:"name"`
	Phone         string `toml:"phone"`
	Pincode       string `toml:"pincode"`
	City          string `toml:"city"`
	District      string `toml:"district"`
	State         string `toml:"state"`
	Street        string `toml:"street"`
	VoiceSample   string `toml:"voice_sample"`
	CallRecording string `toml:"call_recording"`
	ScammerPhone  string `toml:"scammer_phone"`
	Subject       string `toml:"subject"`
	Description   string `toml:"description"`
	CallFrequency int    `toml:"call_frequency"`
	Date          string `toml:"date"`
	AmountScammed string `toml:"amount_scammed"`
}

// loadDraft reads a draft file. When the address is blank and the pincode
// is set, the address is resolved the same way the wizard does it.
func loadDraft(ctx context.Context, path string, resolver ports.AddressResolver) (domain.ComplaintDraft, error) {
	var file draftFile
	meta, err := toml.DecodeFile(path, &file)
	if err != nil {
		return domain.ComplaintDraft{}, fmt.Errorf("reading draft %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return domain.ComplaintDraft{}, fmt.Errorf("unknown draft key %q", undecoded[0].String())
	}

	frequency := ""
	if file.CallFrequency != 0 {
		frequency = strconv.Itoa(file.CallFrequency)
	}
	fields := []struct {
		field domain.Field
		value string
	}{
		{domain.FieldName, file.Name},
		{domain.FieldUserPhone, file.Phone},
		{domain.FieldPincode, file.Pincode},
		{domain.FieldCity, file.City},
		{domain.FieldDistrict, file.District},
		{domain.FieldState, file.State},
		{domain.FieldStreet, file.Street},
		{domain.FieldScammerPhone, file.ScammerPhone},
		{domain.FieldSubject, file.Subject},
		{domain.FieldDescription, file.Description},
		{domain.FieldCallFrequency, frequency},
		{domain.FieldDate, file.Date},
		{domain.FieldAmountScammed, file.AmountScammed},
	}

	draft := usecase.NewDraft()
	for _, f := range fields {
		if f.field == domain.FieldCallFrequency && f.value == "" {
			continue
		}
		draft, err = usecase.ApplyField(draft, f.field, f.value)
		if err != nil {
			return domain.ComplaintDraft{}, err
		}
	}

	if draft.City == "" && draft.District == "" && draft.State == "" && draft.Pincode != "" {
		addr, err := resolver.Resolve(ctx, draft.Pincode)
		if err != nil {
			return domain.ComplaintDraft{}, fmt.Errorf("resolving pincode %s: %w", draft.Pincode, err)
		}
		draft.City, draft.District, draft.State = addr.City, addr.District, addr.State
	}

	base := filepath.Dir(path)
	if file.VoiceSample != "" {
		asset, err := loadAudio(base, file.VoiceSample)
		if err != nil {
			return domain.ComplaintDraft{}, err
		}
		draft.VoiceSample = &asset
	}
	if file.CallRecording != "" {
		asset, err := loadAudio(base, file.CallRecording)
		if err != nil {
			return domain.ComplaintDraft{}, err
		}
		draft.CallRecording = &asset
	}
	return draft, nil
}

func loadAudio(base string, name string) (domain.AudioAsset, error) {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(base, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.AudioAsset{}, fmt.Errorf("reading audio: %w", err)
	}
	mimeType, ok := capture.AudioMIMEType(mime.TypeByExtension(filepath.Ext(path)), data)
	if !ok {
		return domain.AudioAsset{}, fmt.Errorf("%s: %w", path, domain.ErrInvalidFileType)
	}
	return domain.NewAudioAsset(domain.OriginUploaded, filepath.Base(path), mimeType, data), nil
}
