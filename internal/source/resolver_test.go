package source_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"mediakit/internal/media"
	"mediakit/internal/source"
)

var ctx = context.Background()

func Test_ResolveCreateInput_RejectsBadSourceCombinations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  media.CreateRequest
	}{
		{"no sources", media.CreateRequest{}},
		{"file and url", media.CreateRequest{File: []byte("x"), FileURL: "http://x/y.jpg"}},
		{"file and path", media.CreateRequest{File: []byte("x"), FilePath: "/tmp/y.jpg"}},
		{"url and path", media.CreateRequest{FileURL: "http://x/y.jpg", FilePath: "/tmp/y.jpg"}},
		{"all three", media.CreateRequest{File: []byte("x"), FileURL: "http://x/y.jpg", FilePath: "/tmp/y.jpg"}},
	}

	resolver := source.NewResolver(nil)
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			_, err := resolver.ResolveCreateInput(ctx, test.req)

			sourceErr := &source.InvalidSourceError{}
			assert.True(t, errors.As(err, &sourceErr), "expected InvalidSourceError, got %v", err)
		})
	}
}

func Test_ResolveCreateInput_InlineBytesRequireFilename(t *testing.T) {
	t.Parallel()
	resolver := source.NewResolver(nil)

	_, err := resolver.ResolveCreateInput(ctx, media.CreateRequest{File: []byte("payload")})
	sourceErr := &source.InvalidSourceError{}
	assert.True(t, errors.As(err, &sourceErr))

	resolved, err := resolver.ResolveCreateInput(ctx, media.CreateRequest{File: []byte("payload"), Filename: "My Track.MP3"})
	assert.Nil(t, err)
	assert.Equal(t, []byte("payload"), resolved.Body)
	assert.Equal(t, "my-track.mp3", resolved.Filename)
}

func Test_ResolveCreateInput_FetchesURLSource(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("image-bytes"))
	}))
	t.Cleanup(server.Close)

	resolver := source.NewResolver(server.Client())
	resolved, err := resolver.ResolveCreateInput(ctx, media.CreateRequest{FileURL: server.URL + "/photos/Sample%20Pic.jpg"})
	assert.Nil(t, err)
	assert.Equal(t, []byte("image-bytes"), resolved.Body)
	assert.Equal(t, "sample-pic.jpg", resolved.Filename)
}

func Test_ResolveCreateInput_PropagatesFetchFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	resolver := source.NewResolver(server.Client())
	_, err := resolver.ResolveCreateInput(ctx, media.CreateRequest{FileURL: server.URL + "/gone.jpg"})

	fetchErr := &source.SourceFetchError{}
	assert.True(t, errors.As(err, &fetchErr))
}

func Test_ResolveCreateInput_ReadsPathSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "On Disk.png")
	assert.Nil(t, os.WriteFile(path, []byte("png-bytes"), 0o644))

	resolver := source.NewResolver(nil)
	resolved, err := resolver.ResolveCreateInput(ctx, media.CreateRequest{FilePath: path})
	assert.Nil(t, err)
	assert.Equal(t, []byte("png-bytes"), resolved.Body)
	assert.Equal(t, "on-disk.png", resolved.Filename)

	_, err = resolver.ResolveCreateInput(ctx, media.CreateRequest{FilePath: filepath.Join(dir, "missing.png")})
	readErr := &source.SourceReadError{}
	assert.True(t, errors.As(err, &readErr))
}

func Test_ResolveExisting_ReadsPopulatedSourceField(t *testing.T) {
	t.Parallel()
	resolver := source.NewResolver(nil)

	fromBytes, err := resolver.ResolveExisting(ctx, &media.Media{File: []byte("inline")})
	assert.Nil(t, err)
	assert.Equal(t, []byte("inline"), fromBytes)

	path := filepath.Join(t.TempDir(), "source.jpg")
	assert.Nil(t, os.WriteFile(path, []byte("on-disk"), 0o644))
	fromPath, err := resolver.ResolveExisting(ctx, &media.Media{FilePath: path})
	assert.Nil(t, err)
	assert.Equal(t, []byte("on-disk"), fromPath)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("remote"))
	}))
	t.Cleanup(server.Close)
	fromURL, err := source.NewResolver(server.Client()).ResolveExisting(ctx, &media.Media{FileURL: server.URL + "/x.jpg"})
	assert.Nil(t, err)
	assert.Equal(t, []byte("remote"), fromURL)
}

func Test_ResolveExisting_NoSourceReturnsSentinel(t *testing.T) {
	t.Parallel()

	_, err := source.NewResolver(nil).ResolveExisting(ctx, &media.Media{})
	assert.ErrorIs(t, err, source.ErrNoSource)
}
