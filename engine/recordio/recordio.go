// Package recordio reads and writes headerless binary files of fixed-width
// little-endian IEEE-754 float64 records. Record i of a width-w file
// occupies bytes [8*w*i, 8*w*(i+1)); there is no header, no footer, and no
// framing beyond the arithmetic, so a file's layout is fully determined by
// the width the opener supplies. All access is positioned, never cursor
// based.
package recordio

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

const wordSize = 8

// File is an open fixed-record file. The record width is fixed at open and
// checked on every access. A File is not safe for concurrent use; give each
// goroutine its own handle.
type File struct {
	f     *os.File
	path  string
	width int
	buf   []byte
}

// Create opens path for reading and writing, creating it if absent. The
// file is never truncated, so records written earlier survive reopening.
func Create(path string, width int) (*File, error) {
	return open(path, width, os.O_RDWR|os.O_CREATE)
}

// Open opens an existing file for reading and writing. It fails if path
// does not exist.
func Open(path string, width int) (*File, error) {
	return open(path, width, os.O_RDWR)
}

func open(path string, width int, flag int) (*File, error) {
	if width <= 0 {
		return nil, fmt.Errorf("recordio: width must be positive, got %d", width)
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, err
	}
	return &File{f: f, path: path, width: width, buf: make([]byte, width*wordSize)}, nil
}

// Path returns the backing file path.
func (f *File) Path() string { return f.path }

// Width returns the number of float64 values per record.
func (f *File) Width() int { return f.width }

func (f *File) offset(i int) int64 {
	return int64(i) * int64(f.width) * wordSize
}

// ReadRecord fills dst with record i. len(dst) must equal the file width.
// Reading a record that was never written returns an error from the
// underlying positioned read.
func (f *File) ReadRecord(i int, dst []float64) error {
	if len(dst) != f.width {
		return fmt.Errorf("recordio: %s has record width %d, destination holds %d", f.path, f.width, len(dst))
	}
	if _, err := f.f.ReadAt(f.buf, f.offset(i)); err != nil {
		return fmt.Errorf("recordio: read record %d of %s: %w", i, f.path, err)
	}
	for k := range dst {
		dst[k] = math.Float64frombits(binary.LittleEndian.Uint64(f.buf[k*wordSize:]))
	}
	return nil
}

// WriteRecord stores src as record i. len(src) must equal the file width.
// Writing past the current end grows the file; the gap, if any, reads as
// zero records.
func (f *File) WriteRecord(i int, src []float64) error {
	if len(src) != f.width {
		return fmt.Errorf("recordio: %s has record width %d, source holds %d", f.path, f.width, len(src))
	}
	for k, v := range src {
		binary.LittleEndian.PutUint64(f.buf[k*wordSize:], math.Float64bits(v))
	}
	if _, err := f.f.WriteAt(f.buf, f.offset(i)); err != nil {
		return fmt.Errorf("recordio: write record %d of %s: %w", i, f.path, err)
	}
	return nil
}

// Len returns the number of complete records currently in the file.
func (f *File) Len() (int, error) {
	st, err := f.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("recordio: stat %s: %w", f.path, err)
	}
	return int(st.Size() / int64(f.width*wordSize)), nil
}

// Sync flushes buffered writes to stable storage.
func (f *File) Sync() error { return f.f.Sync() }

// Close releases the handle. Closing twice returns an error from the
// underlying file.
func (f *File) Close() error { return f.f.Close() }

// ReadAll opens path, reads every complete record, and closes it again.
// Intended for post-run reporting, not for the per-step path.
func ReadAll(path string, width int) ([][]float64, error) {
	f, err := Open(path, width)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	n, err := f.Len()
	if err != nil {
		return nil, err
	}
	records := make([][]float64, n)
	for i := 0; i < n; i++ {
		records[i] = make([]float64, width)
		if err := f.ReadRecord(i, records[i]); err != nil {
			return nil, err
		}
	}
	return records, nil
}
