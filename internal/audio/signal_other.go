//go:build !unix

package audio

import "os"

func suspendProcess(_ *os.Process) error {
	return ErrPauseUnsupported
}

func resumeProcess(_ *os.Process) error {
	return ErrPauseUnsupported
}
