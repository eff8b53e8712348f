package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"voicecomplaint/internal/ports"
)

const (
	wavMIMEType    = "audio/wav"
	bitsPerSample  = 16
	wavHeaderBytes = 44
)

// WAVEncoder wraps s16le PCM into a canonical RIFF/WAVE container.
type WAVEncoder struct{}

func (WAVEncoder) Encode(pcm []byte, cfg ports.AudioConfig) ([]byte, string, error) {
	cfg = withCaptureDefaults(cfg)
	if len(pcm) == 0 {
		return nil, "", errors.New("no pcm data to encode")
	}
	if len(pcm)%2 != 0 {
		pcm = pcm[:len(pcm)-1]
	}

	blockAlign := cfg.Channels * bitsPerSample / 8
	byteRate := cfg.SampleRate * blockAlign

	var out bytes.Buffer
	out.Grow(wavHeaderBytes + len(pcm))
	header := []any{
		[4]byte{'R', 'I', 'F', 'F'},
		uint32(36 + len(pcm)),
		[4]byte{'W', 'A', 'V', 'E'},
		[4]byte{'f', 'm', 't', ' '},
		uint32(16),
		uint16(1),
		uint16(cfg.Channels),
		uint32(cfg.SampleRate),
		uint32(byteRate),
		uint16(blockAlign),
		uint16(bitsPerSample),
		[4]byte{'d', 'a', 't', 'a'},
		uint32(len(pcm)),
	}
	for _, field := range header {
		if err := binary.Write(&out, binary.LittleEndian, field); err != nil {
			return nil, "", fmt.Errorf("failed to write wav header: %w", err)
		}
	}
	out.Write(pcm)
	return out.Bytes(), wavMIMEType, nil
}
