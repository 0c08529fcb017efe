package engine

import (
	"errors"

	"github.com/basin-sim/basin-sim/engine/recordio"
)

// SeriesMode selects where a recorded variable's values live. The mode is
// fixed per variable for a whole run.
type SeriesMode string

const (
	// ModeUnrecorded drops writes; the value lives only in node working
	// memory.
	ModeUnrecorded SeriesMode = "unrecorded"
	// ModeMemory keeps the full series in a preallocated array.
	ModeMemory SeriesMode = "memory"
	// ModeDisk stores records in a headerless fixed-record binary file.
	ModeDisk SeriesMode = "disk"
)

// SeriesSpec configures one recorded variable.
type SeriesSpec struct {
	Mode   SeriesMode
	Width  int    // values per record; 0 means scalar
	Length int    // memory mode: records to preallocate
	Path   string // disk mode: backing file
	Input  bool   // disk mode: file must already exist at open (forcing data)
}

// Series is one recorded variable: a sequence of fixed-width float64
// records indexed by absolute time index. Implementations are not safe for
// concurrent use on the same record; the engine's single-writer discipline
// keeps accesses disjoint.
type Series interface {
	Key() string
	Mode() SeriesMode
	Width() int
	ReadAt(t int, dst []float64) error
	WriteAt(t int, src []float64) error

	// open and close bound a simulation window; the scheduler drives them.
	open() error
	close() error
}

// Discard drops every write and fails every read. It is the default target
// of declared recordables until the host routes them to a real series.
var Discard Series = &unrecordedSeries{key: "unrecorded"}

// ReadScalar reads record t of a width-1 series.
func ReadScalar(s Series, t int) (float64, error) {
	var buf [1]float64
	if err := s.ReadAt(t, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// WriteScalar writes record t of a width-1 series.
func WriteScalar(s Series, t int, v float64) error {
	buf := [1]float64{v}
	return s.WriteAt(t, buf[:])
}

func newSeries(key string, spec SeriesSpec) (Series, error) {
	width := spec.Width
	if width == 0 {
		width = 1
	}
	if width < 0 {
		return nil, configErrorf("series %q: width %d is negative", key, spec.Width)
	}
	switch spec.Mode {
	case ModeUnrecorded:
		return &unrecordedSeries{key: key}, nil
	case ModeMemory:
		if spec.Length <= 0 {
			return nil, configErrorf("series %q: memory mode needs a positive length", key)
		}
		return &memorySeries{key: key, width: width, values: make([]float64, width*spec.Length)}, nil
	case ModeDisk:
		if spec.Path == "" {
			return nil, configErrorf("series %q: disk mode needs a path", key)
		}
		return &diskSeries{key: key, path: spec.Path, width: width, input: spec.Input}, nil
	default:
		return nil, configErrorf("series %q: unknown mode %q", key, spec.Mode)
	}
}

type unrecordedSeries struct {
	key string
}

func (s *unrecordedSeries) Key() string      { return s.key }
func (s *unrecordedSeries) Mode() SeriesMode { return ModeUnrecorded }
func (s *unrecordedSeries) Width() int       { return 0 }

func (s *unrecordedSeries) ReadAt(int, []float64) error {
	return configErrorf("series %q is not recorded", s.key)
}

func (s *unrecordedSeries) WriteAt(int, []float64) error { return nil }
func (s *unrecordedSeries) open() error                  { return nil }
func (s *unrecordedSeries) close() error                 { return nil }

type memorySeries struct {
	key    string
	width  int
	values []float64
}

func (s *memorySeries) Key() string      { return s.key }
func (s *memorySeries) Mode() SeriesMode { return ModeMemory }
func (s *memorySeries) Width() int       { return s.width }

func (s *memorySeries) ReadAt(t int, dst []float64) error {
	if len(dst) != s.width {
		return configErrorf("series %q: record width %d, destination holds %d", s.key, s.width, len(dst))
	}
	if t < 0 || (t+1)*s.width > len(s.values) {
		return configErrorf("series %q: index %d outside [0,%d)", s.key, t, len(s.values)/s.width)
	}
	copy(dst, s.values[t*s.width:(t+1)*s.width])
	return nil
}

func (s *memorySeries) WriteAt(t int, src []float64) error {
	if len(src) != s.width {
		return configErrorf("series %q: record width %d, source holds %d", s.key, s.width, len(src))
	}
	if t < 0 || (t+1)*s.width > len(s.values) {
		return configErrorf("series %q: index %d outside [0,%d)", s.key, t, len(s.values)/s.width)
	}
	copy(s.values[t*s.width:(t+1)*s.width], src)
	return nil
}

func (s *memorySeries) open() error  { return nil }
func (s *memorySeries) close() error { return nil }

type diskSeries struct {
	key   string
	path  string
	width int
	input bool
	f     *recordio.File
}

func (s *diskSeries) Key() string      { return s.key }
func (s *diskSeries) Mode() SeriesMode { return ModeDisk }
func (s *diskSeries) Width() int       { return s.width }

func (s *diskSeries) open() error {
	if s.f != nil {
		return nil
	}
	var (
		f   *recordio.File
		err error
	)
	if s.input {
		f, err = recordio.Open(s.path, s.width)
	} else {
		f, err = recordio.Create(s.path, s.width)
	}
	if err != nil {
		return &IOError{Op: "open series", Path: s.path, Err: err}
	}
	s.f = f
	return nil
}

func (s *diskSeries) close() error {
	if s.f == nil {
		return nil
	}
	f := s.f
	s.f = nil
	if err := f.Close(); err != nil {
		return &IOError{Op: "close series", Path: s.path, Err: err}
	}
	return nil
}

func (s *diskSeries) ReadAt(t int, dst []float64) error {
	if s.f == nil {
		return &IOError{Op: "read series", Path: s.path, Err: errors.New("series not open")}
	}
	if err := s.f.ReadRecord(t, dst); err != nil {
		return &IOError{Op: "read series", Path: s.path, Err: err}
	}
	return nil
}

func (s *diskSeries) WriteAt(t int, src []float64) error {
	if s.f == nil {
		return &IOError{Op: "write series", Path: s.path, Err: errors.New("series not open")}
	}
	if err := s.f.WriteRecord(t, src); err != nil {
		return &IOError{Op: "write series", Path: s.path, Err: err}
	}
	return nil
}

// openSeries opens every configured series for a simulation window. On
// failure it closes whatever it already opened and reports the failure.
func (g *Graph) openSeries() error {
	for i, key := range g.seriesOrder {
		if err := g.series[key].open(); err != nil {
			for _, opened := range g.seriesOrder[:i] {
				g.series[opened].close()
			}
			return err
		}
	}
	return nil
}

// closeSeries closes every configured series, keeping the first error.
func (g *Graph) closeSeries() error {
	var first error
	for _, key := range g.seriesOrder {
		if err := g.series[key].close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
