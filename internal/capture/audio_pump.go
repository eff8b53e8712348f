package capture

import (
	"errors"
	"fmt"
	"io"
	"os"

	"voicecomplaint/internal/ports"
)

const defaultChunkSize = 4096

// pumpAudioChunks copies captured audio into sink until the session ends.
// A read error other than EOF is returned through errOut.
func pumpAudioChunks(
	audio ports.AudioSession,
	sink io.Writer,
	chunkSize int,
	errOut *error,
	done chan struct{},
) {
	defer close(done)

	if chunkSize < 256 {
		chunkSize = defaultChunkSize
	}

	buf := make([]byte, chunkSize)
	for {
		n, err := audio.Read(buf)
		if n > 0 {
			if _, writeErr := sink.Write(buf[:n]); writeErr != nil {
				*errOut = fmt.Errorf("failed to buffer audio: %w", writeErr)
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				*errOut = fmt.Errorf("audio capture error: %w", err)
			}
			return
		}
	}
}
