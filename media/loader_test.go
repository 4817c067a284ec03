package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/exercise"
)

func TestFSLoader(t *testing.T) {
	fsys := fstest.MapFS{
		"audio/cat.mp3": {Data: []byte("mp3")},
		"img/cat.png":   {Data: []byte("png")},
	}
	loader := NewFSLoader(fsys)

	err := loader.Preload(context.Background(), []exercise.MediaRef{
		{Kind: "audio", URI: "audio/cat.mp3"},
		{Kind: "image", URI: "file://img/cat.png"},
	})
	require.NoError(t, err)

	err = loader.Preload(context.Background(), []exercise.MediaRef{
		{Kind: "audio", URI: "audio/dog.mp3"},
		{Kind: "image", URI: "../escape.png"},
		{Kind: "image", URI: ""},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, ErrInvalidPath)
	assert.ErrorIs(t, err, ErrEmptyURI)
}

func TestHTTPLoader(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, http.MethodHead, r.Method)
		switch r.URL.Path {
		case "/ok.mp3":
			w.WriteHeader(http.StatusOK)
		case "/broken.mp3":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	loader := NewHTTPLoader(WithHTTPClient(srv.Client()), WithBaseURL(base), WithConcurrency(2))

	require.NoError(t, loader.Preload(context.Background(), []exercise.MediaRef{
		{URI: "ok.mp3"}, {URI: "ok.mp3"},
	}))
	assert.Equal(t, int32(1), hits.Load(), "duplicate uris are probed once")

	err = loader.Preload(context.Background(), []exercise.MediaRef{
		{URI: "missing.mp3"}, {URI: "broken.mp3"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, ErrBadStatus)
}

func TestPreloadHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewFSLoader(fstest.MapFS{}).Preload(ctx, []exercise.MediaRef{{URI: "a.mp3"}})
	require.ErrorIs(t, err, context.Canceled)
}
