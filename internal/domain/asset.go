package domain

import (
	"bytes"
	"io"
	"strings"

	"github.com/google/uuid"
)

// AssetOrigin records how an audio asset entered the system.
type AssetOrigin string

const (
	OriginRecorded AssetOrigin = "recorded"
	OriginUploaded AssetOrigin = "uploaded"
)

// AudioAsset is an immutable audio blob. The local reference is attached
// once the asset is stored for playback and is released by its owner.
type AudioAsset struct {
	id       string
	origin   AssetOrigin
	name     string
	mimeType string
	data     []byte
	localRef string
}

// NewAudioAsset copies data into a new asset with a fresh id.
func NewAudioAsset(origin AssetOrigin, name string, mimeType string, data []byte) AudioAsset {
	return AudioAsset{
		id:       uuid.NewString(),
		origin:   origin,
		name:     name,
		mimeType: strings.ToLower(strings.TrimSpace(mimeType)),
		data:     append([]byte(nil), data...),
	}
}

// WithLocalRef returns a copy of the asset bound to a playable reference.
func (a AudioAsset) WithLocalRef(ref string) AudioAsset {
	a.localRef = ref
	return a
}

func (a AudioAsset) ID() string          { return a.id }
func (a AudioAsset) Origin() AssetOrigin { return a.origin }
func (a AudioAsset) Name() string        { return a.name }
func (a AudioAsset) MIMEType() string    { return a.mimeType }
func (a AudioAsset) Size() int           { return len(a.data) }
func (a AudioAsset) LocalRef() string    { return a.localRef }

// Reader returns a reader over the asset payload.
func (a AudioAsset) Reader() io.Reader {
	return bytes.NewReader(a.data)
}

// Bytes returns a copy of the payload.
func (a AudioAsset) Bytes() []byte {
	return append([]byte(nil), a.data...)
}
