package core

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/geocalc/internal/pointcsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	squareCSV    = "x,y\n0,0\n4,0\n4,4\n0,4\n"
	smallCSV     = "x,y\n0,0\n3,0\n3,3\n0,3\n"
	badHeaderCSV = "id,lon,lat\n1,0,0\n2,4,0\n3,4,4\n"
)

// blockingSource blocks in Open until release is closed.
type blockingSource struct {
	release chan struct{}
}

func (b blockingSource) Name() string { return "slow.csv" }

func (b blockingSource) Open() (io.ReadCloser, error) {
	<-b.release
	return io.NopCloser(strings.NewReader(squareCSV)), nil
}

// barrierSource reports each Open on started, then blocks until release.
type barrierSource struct {
	started chan struct{}
	release chan struct{}
}

func (b barrierSource) Name() string { return "barrier.csv" }

func (b barrierSource) Open() (io.ReadCloser, error) {
	b.started <- struct{}{}
	<-b.release
	return io.NopCloser(strings.NewReader(squareCSV)), nil
}

type failingSource struct{}

func (failingSource) Name() string                 { return "broken.csv" }
func (failingSource) Open() (io.ReadCloser, error) { return nil, errors.New("disk on fire") }

func TestReadAsync(t *testing.T) {
	ctx := context.Background()

	t.Run("parses in the background", func(t *testing.T) {
		res, err := ReadAsync(BytesSource{Filename: "a.csv", Data: []byte(squareCSV)}, pointcsv.NamedParser{}, 0).Await(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, res.Points.Len())
	})

	t.Run("wraps parse errors", func(t *testing.T) {
		_, err := ReadAsync(BytesSource{Filename: "b.csv", Data: []byte(badHeaderCSV)}, pointcsv.NamedParser{}, 0).Await(ctx)
		var readErr *ReadError
		require.ErrorAs(t, err, &readErr)
		assert.Equal(t, "b.csv", readErr.File)

		var missing *pointcsv.MissingColumnError
		assert.ErrorAs(t, err, &missing)
	})

	t.Run("enforces max size", func(t *testing.T) {
		_, err := ReadAsync(BytesSource{Filename: "big.csv", Data: []byte(squareCSV)}, pointcsv.NamedParser{}, 8).Await(ctx)
		assert.ErrorIs(t, err, ErrFileTooLarge)
	})

	t.Run("exact max size is allowed", func(t *testing.T) {
		data := []byte(squareCSV)
		_, err := ReadAsync(BytesSource{Filename: "fit.csv", Data: data}, pointcsv.NamedParser{}, int64(len(data))).Await(ctx)
		assert.NoError(t, err)
	})

	t.Run("open failure", func(t *testing.T) {
		_, err := ReadAsync(failingSource{}, pointcsv.NamedParser{}, 0).Await(ctx)
		var readErr *ReadError
		require.ErrorAs(t, err, &readErr)
		assert.Contains(t, err.Error(), "disk on fire")
	})

	t.Run("await stops waiting on cancel", func(t *testing.T) {
		src := blockingSource{release: make(chan struct{})}
		fut := ReadAsync(src, pointcsv.NamedParser{}, 0)

		cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()

		_, err := fut.Await(cctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		close(src.release)
		_, err = fut.Await(ctx)
		assert.NoError(t, err)
	})
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bottom.csv")
	require.NoError(t, os.WriteFile(path, []byte(squareCSV), 0o600))

	src := FileSource(path)
	assert.Equal(t, "bottom.csv", src.Name())

	res, err := ReadAsync(src, pointcsv.NamedParser{}, 0).Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, res.Points.Len())
}

func TestReadPair(t *testing.T) {
	ctx := context.Background()
	bottom := BytesSource{Filename: "bottom.csv", Data: []byte(squareCSV)}
	top := BytesSource{Filename: "top.csv", Data: []byte(smallCSV)}

	t.Run("both succeed", func(t *testing.T) {
		b, tp, err := ReadPair(ctx, bottom, top, pointcsv.NamedParser{}, 0)
		require.NoError(t, err)
		assert.Equal(t, 4, b.Points.Len())
		assert.Equal(t, 3.0, tp.Points[1].X)
	})

	t.Run("one failure fails the join", func(t *testing.T) {
		bad := BytesSource{Filename: "top.csv", Data: []byte(badHeaderCSV)}
		b, tp, err := ReadPair(ctx, bottom, bad, pointcsv.NamedParser{}, 0)
		require.Error(t, err)
		assert.Zero(t, b.Points.Len())
		assert.Zero(t, tp.Points.Len())
		assert.Equal(t, "Error: Columns X and Y not found in header", UserText(err))
	})

	t.Run("reads run concurrently", func(t *testing.T) {
		src := barrierSource{started: make(chan struct{}, 2), release: make(chan struct{})}

		done := make(chan error, 1)
		go func() {
			_, _, err := ReadPair(ctx, src, src, pointcsv.NamedParser{}, 0)
			done <- err
		}()

		// Both opens must be in flight before either is allowed to finish.
		for i := 0; i < 2; i++ {
			select {
			case <-src.started:
			case <-time.After(time.Second):
				close(src.release)
				t.Fatal("reads were not issued concurrently")
			}
		}
		close(src.release)

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("ReadPair did not complete")
		}
	})
}
