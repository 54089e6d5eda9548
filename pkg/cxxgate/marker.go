package cxxgate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// A completed run leaves a marker next to the module database. A later
// invocation that finds a marker for the same module skips the run entirely;
// deleting the cache directory forces a full re-run.

const markerName = "cxxgate.done"

// Marker records that a run completed.
type Marker struct {
	RunID      string
	Module     string
	Functions  int
	FinishedAt time.Time
}

func markerPath(cacheDir string) string { return filepath.Join(cacheDir, markerName) }

// WriteMarker persists the marker atomically under cacheDir.
func WriteMarker(cacheDir string, m Marker) error {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return fmt.Errorf("cxxgate: creating cache dir: %w", err)
	}
	raw, err := cbor.Marshal(m)
	if err != nil {
		return fmt.Errorf("cxxgate: encoding marker: %w", err)
	}
	tmp := markerPath(cacheDir) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("cxxgate: writing marker: %w", err)
	}
	return os.Rename(tmp, markerPath(cacheDir))
}

// ReadMarker loads the marker for cacheDir. A missing marker is not an
// error; ok reports whether one was found.
func ReadMarker(cacheDir string) (m Marker, ok bool, err error) {
	raw, err := os.ReadFile(markerPath(cacheDir))
	if errors.Is(err, fs.ErrNotExist) {
		return Marker{}, false, nil
	}
	if err != nil {
		return Marker{}, false, fmt.Errorf("cxxgate: reading marker: %w", err)
	}
	if err := cbor.Unmarshal(raw, &m); err != nil {
		// A corrupt marker means the previous run cannot be trusted; treat
		// it as absent.
		return Marker{}, false, nil
	}
	return m, true, nil
}

// ClearMarker removes the marker, forcing the next invocation to re-run.
func ClearMarker(cacheDir string) error {
	err := os.Remove(markerPath(cacheDir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
