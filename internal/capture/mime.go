package capture

import (
	"strings"

	"github.com/wailsapp/mimetype"
)

// AudioMIMEType decides whether an input file is audio. A declared audio/*
// type is trusted; an empty or generic declaration falls back to sniffing
// the content. It returns the type to record on the asset.
func AudioMIMEType(declared string, data []byte) (string, bool) {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if strings.HasPrefix(declared, "audio/") {
		return declared, true
	}
	if declared != "" && declared != "application/octet-stream" {
		return "", false
	}
	if len(data) == 0 {
		return "", false
	}

	for detected := mimetype.Detect(data); detected != nil; detected = detected.Parent() {
		if strings.HasPrefix(detected.String(), "audio/") {
			return detected.String(), true
		}
	}
	return "", false
}
