package api

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	merrors "github.com/Aman-CERP/memex/internal/errors"
)

func TestServer_ServeAndShutdown(t *testing.T) {
	// Given: a server bound to a free port
	srv := NewServer(NewHandler(&recordingSearcher{}, nil), ServerConfig{Addr: "127.0.0.1:0"}, nil)
	ln, err := srv.Listen()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	// When: a client calls it
	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	// Then: it answers, and stops cleanly on cancel
	assert.Equal(t, "ok", string(body))
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_ListenConflict(t *testing.T) {
	first := NewServer(http.NotFoundHandler(), ServerConfig{Addr: "127.0.0.1:0"}, nil)
	ln, err := first.Listen()
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	second := NewServer(http.NotFoundHandler(), ServerConfig{Addr: ln.Addr().String()}, nil)
	_, err = second.Listen()

	require.Error(t, err)
	assert.Equal(t, merrors.ErrCodeListenFailed, merrors.GetCode(err))
}
