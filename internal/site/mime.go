package site

import (
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// betterMime wraps mime.TypeByExtension and tries to handle a few edge cases.
func betterMime(fname string) (mt string) {
	ext := strings.ToLower(filepath.Ext(fname))
	if mt = mime.TypeByExtension(ext); mt != "" {
		return
	} else if ext == ".ttf" {
		mt = "binary/octet-stream"
	}

	return
}

// ContentType guesses the content type of fname, first by extension and,
// failing that, by sniffing r. r is rewound afterwards.
func ContentType(fname string, r io.ReadSeeker) (string, error) {
	if mt := betterMime(fname); mt != "" {
		return mt, nil
	}

	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return "", fmt.Errorf("detect content type of %s: %w", fname, err)
	}
	if _, err = r.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind %s: %w", fname, err)
	}

	return mt.String(), nil
}
