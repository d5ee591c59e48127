package core

// reader.go reads input files off the caller's goroutine.
//
// A read is one unit: the whole file is read, size-checked and parsed, then
// the Future completes. There is no streaming and no cancellation of a read
// in flight; Await only stops waiting. ReadPair issues two reads at once and
// joins them, failing as a whole if either fails.

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/geocalc/internal/pointcsv"
	"golang.org/x/sync/errgroup"
)

// Source is an input file that can be opened once per read.
type Source interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// FileSource is a Source backed by a path on disk.
type FileSource string

// Name returns the base name of the path.
func (f FileSource) Name() string {
	return filepath.Base(string(f))
}

// Open opens the file for reading.
func (f FileSource) Open() (io.ReadCloser, error) {
	return os.Open(string(f))
}

// BytesSource is an in-memory Source.
type BytesSource struct {
	Filename string
	Data     []byte
}

// Name returns the file name.
func (b BytesSource) Name() string {
	return b.Filename
}

// Open returns a reader over the data.
func (b BytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.Data)), nil
}

// Future is the pending result of ReadAsync.
type Future struct {
	done chan struct{}
	res  pointcsv.Result
	err  error
}

// Await blocks until the read completes or ctx is done.
func (f *Future) Await(ctx context.Context) (pointcsv.Result, error) {
	select {
	case <-f.done:
		return f.res, f.err
	case <-ctx.Done():
		return pointcsv.Result{}, ctx.Err()
	}
}

// ReadAsync starts reading and parsing src in its own goroutine. Files larger
// than maxSize bytes fail with ErrFileTooLarge; maxSize <= 0 disables the
// check. Errors are wrapped in *ReadError.
func ReadAsync(src Source, parser pointcsv.Parser, maxSize int64) *Future {
	f := &Future{done: make(chan struct{})}

	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = &ReadError{File: src.Name(), Err: fmt.Errorf("internal error: %v", r)}
			}
		}()

		res, err := readSource(src, parser, maxSize)
		if err != nil {
			f.err = &ReadError{File: src.Name(), Err: err}
			return
		}
		f.res = res
	}()

	return f
}

// ReadPair reads bottom and top concurrently and returns once both are done.
// If either fails the first error is returned and neither result is used.
func ReadPair(ctx context.Context, bottom, top Source, parser pointcsv.Parser, maxSize int64) (pointcsv.Result, pointcsv.Result, error) {
	var g errgroup.Group
	var bottomRes, topRes pointcsv.Result

	g.Go(func() error {
		res, err := ReadAsync(bottom, parser, maxSize).Await(ctx)
		bottomRes = res
		return err
	})
	g.Go(func() error {
		res, err := ReadAsync(top, parser, maxSize).Await(ctx)
		topRes = res
		return err
	})

	if err := g.Wait(); err != nil {
		return pointcsv.Result{}, pointcsv.Result{}, err
	}
	return bottomRes, topRes, nil
}

func readSource(src Source, parser pointcsv.Parser, maxSize int64) (pointcsv.Result, error) {
	rc, err := src.Open()
	if err != nil {
		return pointcsv.Result{}, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if maxSize > 0 {
		r = io.LimitReader(rc, maxSize+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return pointcsv.Result{}, err
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return pointcsv.Result{}, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, maxSize)
	}

	return parser.Parse(data)
}
