// Package checkpoint saves and restores a full simulation snapshot as a
// zlib-compressed gob stream.
package checkpoint

import (
	"compress/zlib"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/san-kum/nbodysim/internal/body"
	"github.com/san-kum/nbodysim/internal/integrators"
)

// version guards against decoding a snapshot written by an incompatible layout.
const version = 1

var ErrVersion = errors.New("checkpoint: unsupported snapshot version")

type Snapshot struct {
	Version    int
	Time       float64
	Steps      int
	Dt         float64
	EndTime    float64
	Integrator integrators.Kind
	Bodies     []body.Body
}

// Capture copies the simulation state into a snapshot.
func Capture(set *body.Set, t float64, steps int, dt, endTime float64, kind integrators.Kind) *Snapshot {
	return &Snapshot{
		Version:    version,
		Time:       t,
		Steps:      steps,
		Dt:         dt,
		EndTime:    endTime,
		Integrator: kind,
		Bodies:     set.Bodies(),
	}
}

// Set rebuilds the body set.
func (s *Snapshot) Set() *body.Set {
	return body.NewSet(s.Bodies...)
}

func Write(w io.Writer, snap *Snapshot) error {
	zw, err := zlib.NewWriterLevel(w, zlib.BestCompression)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(zw).Encode(snap); err != nil {
		zw.Close()
		return fmt.Errorf("checkpoint: encode: %w", err)
	}
	return zw.Close()
}

func Read(r io.Reader) (*Snapshot, error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: %w", err)
	}
	defer zr.Close()

	var snap Snapshot
	if err := gob.NewDecoder(zr).Decode(&snap); err != nil {
		return nil, fmt.Errorf("checkpoint: decode: %w", err)
	}
	if snap.Version != version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, snap.Version)
	}
	return &snap, nil
}

func Save(path string, snap *Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, snap); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func Load(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}
