package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"
)

var errNotWAV = errors.New("not a PCM WAV file")

// pcmLength returns the size in bytes of the data chunk of a WAV file.
func pcmLength(path string) (int64, error) {
	f, err := os.Open(path) // #nosec G304 -- path is a temp clip this package created
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	if !wav.NewDecoder(f).IsValidFile() {
		return 0, errNotWAV
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}

	d := wav.NewDecoder(f)
	if err := d.FwdToPCM(); err != nil {
		return 0, fmt.Errorf("%w: %v", errNotWAV, err)
	}
	if !d.WasPCMAccessed() {
		return 0, fmt.Errorf("%w: no data chunk", errNotWAV)
	}
	return d.PCMLen(), nil
}
