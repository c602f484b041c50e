package main

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownOnSignal_DrainsInflightRequests(t *testing.T) {
	started := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("GET /slow", func(w http.ResponseWriter, r *http.Request) {
		close(started)
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := &http.Server{Handler: mux}
	go func() { _ = srv.Serve(ln) }()

	ctx, cancel := context.WithCancel(context.Background())
	shutdownDone := make(chan struct{})
	go func() {
		shutdownOnSignal(ctx, srv, 5*time.Second)
		close(shutdownDone)
	}()

	var resp *http.Response
	var reqErr error
	reqDone := make(chan struct{})
	go func() {
		resp, reqErr = http.Get("http://" + ln.Addr().String() + "/slow")
		close(reqDone)
	}()

	// Cancel while the request is in flight; the drain deadline must
	// let it finish.
	<-started
	cancel()

	<-reqDone
	require.NoError(t, reqErr)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	select {
	case <-shutdownDone:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
